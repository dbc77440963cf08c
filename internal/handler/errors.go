package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
	"github.com/jeeprep/jee-prep-api/internal/validation"
)

// handleError maps service errors to HTTP responses. The wrapped message is
// shown for client errors; server errors are logged and answered generically.
func handleError(c *gin.Context, component string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrExpiredToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired", "error_type": "token_expired"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied", "error_type": "forbidden"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "error_type": "validation_error"})
	default:
		log.Printf("[%s] Internal error on %s %s: %v", component, c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "Internal server error, please retry",
			"error_type": "internal_server_error",
		})
	}
}

// bindError answers a request whose body or query failed to bind.
func bindError(c *gin.Context, err error) {
	resp := gin.H{"error": "Invalid request data", "error_type": "invalid_request"}
	if fields := validation.FieldErrors(err); fields != nil {
		resp["fields"] = fields
	} else {
		resp["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}
