package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeeprep/jee-prep-api/internal/handler/dto"
	"github.com/jeeprep/jee-prep-api/internal/middleware"
	"github.com/jeeprep/jee-prep-api/internal/service"
)

// ProgressHandler is the snapshot API for clients that keep their own timer.
type ProgressHandler struct {
	progressService ProgressService
}

func NewProgressHandler(progressService ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Save overwrites the caller's snapshot of a test. POST /api/test-progress
func (h *ProgressHandler) Save(c *gin.Context) {
	var req dto.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	progress, err := h.progressService.Save(c.Request.Context(), middleware.UserID(c), service.SaveProgressInput{
		TestID:        req.TestID,
		Answers:       req.Answers,
		TimeRemaining: req.TimeRemaining,
		Config:        req.Config,
	})
	if err != nil {
		handleError(c, "ProgressHandler", err)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Get returns the snapshot or null. GET /api/test-progress?testId=
func (h *ProgressHandler) Get(c *gin.Context) {
	testID, ok := requireTestID(c)
	if !ok {
		return
	}

	progress, err := h.progressService.Get(c.Request.Context(), middleware.UserID(c), testID)
	if err != nil {
		handleError(c, "ProgressHandler", err)
		return
	}
	if progress == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, progress)
}

// Delete DELETE /api/test-progress?testId=
func (h *ProgressHandler) Delete(c *gin.Context) {
	testID, ok := requireTestID(c)
	if !ok {
		return
	}

	if err := h.progressService.Delete(c.Request.Context(), middleware.UserID(c), testID); err != nil {
		handleError(c, "ProgressHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Progress deleted"})
}

func requireTestID(c *gin.Context) (string, bool) {
	testID := c.Query("testId")
	if testID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "testId is required", "error_type": "invalid_request"})
		return "", false
	}
	return testID, true
}
