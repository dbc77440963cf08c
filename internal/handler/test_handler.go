package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/handler/dto"
	"github.com/jeeprep/jee-prep-api/internal/middleware"
)

// TestHandler drives server-timed test sessions.
type TestHandler struct {
	sessions SessionService
}

func NewTestHandler(sessions SessionService) *TestHandler {
	return &TestHandler{sessions: sessions}
}

// Start starts a test or resumes a saved one. POST /api/tests
func (h *TestHandler) Start(c *gin.Context) {
	var req dto.StartTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Config == nil && req.AttemptID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "config is required", "error_type": "invalid_request"})
		return
	}

	var cfg entity.TestConfig
	if req.Config != nil {
		cfg = *req.Config
	}

	view, err := h.sessions.Start(c.Request.Context(), middleware.UserID(c), cfg, req.AttemptID)
	if err != nil {
		handleError(c, "TestHandler", err)
		return
	}

	status := http.StatusCreated
	if view.Resumed {
		status = http.StatusOK
	}
	c.JSON(status, dto.NewSessionResponse(view))
}

// Get GET /api/tests/:attemptId
func (h *TestHandler) Get(c *gin.Context) {
	view, err := h.sessions.Get(middleware.UserID(c), c.MustGet(ctxAttemptID).(string))
	if err != nil {
		handleError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(view))
}

// SelectAnswer PUT /api/tests/:attemptId/answers
func (h *TestHandler) SelectAnswer(c *gin.Context) {
	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	attemptID := c.MustGet(ctxAttemptID).(string)
	if err := h.sessions.SelectAnswer(middleware.UserID(c), attemptID, req.QuestionID, req.Answer); err != nil {
		handleError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questionId": req.QuestionID, "answer": req.Answer})
}

// Navigate PUT /api/tests/:attemptId/navigate
func (h *TestHandler) Navigate(c *gin.Context) {
	var req dto.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	index, err := h.sessions.Navigate(middleware.UserID(c), c.MustGet(ctxAttemptID).(string), *req.Index)
	if err != nil {
		handleError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"currentIndex": index})
}

// Pause POST /api/tests/:attemptId/pause
func (h *TestHandler) Pause(c *gin.Context) {
	view, err := h.sessions.Pause(middleware.UserID(c), c.MustGet(ctxAttemptID).(string))
	if err != nil {
		handleError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(view))
}

// Resume POST /api/tests/:attemptId/resume
func (h *TestHandler) Resume(c *gin.Context) {
	view, err := h.sessions.Resume(middleware.UserID(c), c.MustGet(ctxAttemptID).(string))
	if err != nil {
		handleError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewSessionResponse(view))
}

// Submit grades and stores the attempt. A repeat submit returns the stored
// result. POST /api/tests/:attemptId/submit
func (h *TestHandler) Submit(c *gin.Context) {
	attemptID := c.MustGet(ctxAttemptID).(string)
	result, err := h.sessions.Submit(c.Request.Context(), middleware.UserID(c), attemptID)
	if err != nil {
		handleError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.SubmitResultResponse{TestID: attemptID, Result: *result})
}

// Suspend stops the timer with a final save; the test can be resumed later.
// POST /api/tests/:attemptId/suspend
func (h *TestHandler) Suspend(c *gin.Context) {
	if err := h.sessions.Suspend(middleware.UserID(c), c.MustGet(ctxAttemptID).(string)); err != nil {
		handleError(c, "TestHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test suspended"})
}

// Abandon ends the test without a result. DELETE /api/tests/:attemptId
func (h *TestHandler) Abandon(c *gin.Context) {
	if err := h.sessions.Abandon(c.Request.Context(), middleware.UserID(c), c.MustGet(ctxAttemptID).(string)); err != nil {
		handleError(c, "TestHandler", err)
		return
	}
	c.Status(http.StatusNoContent)
}
