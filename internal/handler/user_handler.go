package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jeeprep/jee-prep-api/internal/handler/dto"
	"github.com/jeeprep/jee-prep-api/internal/middleware"
)

// UserHandler serves the caller's profile.
type UserHandler struct {
	userService UserService
}

func NewUserHandler(userService UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// GetMe GET /api/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		handleError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe PUT /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.userService.UpdateName(c.Request.Context(), middleware.UserID(c), req.Name)
	if err != nil {
		handleError(c, "UserHandler", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
