package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jeeprep/jee-prep-api/internal/handler/dto"
	"github.com/jeeprep/jee-prep-api/internal/middleware"
	"github.com/jeeprep/jee-prep-api/internal/service"
	"github.com/jeeprep/jee-prep-api/pkg/auth/manager"
)

// AuthHandler serves registration, login, logout and websocket tickets.
type AuthHandler struct {
	authService   AuthService
	cookieManager *manager.CookieManager
	tokenExpiry   time.Duration
}

func NewAuthHandler(authService AuthService, cookieManager *manager.CookieManager, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		cookieManager: cookieManager,
		tokenExpiry:   tokenExpiry,
	}
}

// Register creates an account. POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := h.authService.RegisterUser(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleError(c, "AuthHandler", err)
		return
	}

	log.Printf("[AuthHandler] User #%d registered", user.ID)
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully", "user": user})
}

// Login issues an access token and sets it as a cookie. POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	token, user, err := h.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleError(c, "AuthHandler", err)
		return
	}

	h.cookieManager.SetAccessTokenCookie(c.Writer, token)
	c.JSON(http.StatusOK, dto.AuthResponse{
		User:        user,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.tokenExpiry.Seconds()),
	})
}

// Logout revokes every token of the caller. POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := middleware.UserID(c)
	if err := h.authService.LogoutUser(c.Request.Context(), userID); err != nil {
		handleError(c, "AuthHandler", err)
		return
	}

	h.cookieManager.ClearAccessTokenCookie(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GenerateWsTicket returns a short-lived ticket for GET /ws.
// POST /api/auth/ws-ticket
func (h *AuthHandler) GenerateWsTicket(c *gin.Context) {
	userID := middleware.UserID(c)
	ticket, err := h.authService.GenerateWsTicket(c.Request.Context(), userID, c.GetString(middleware.ContextEmail))
	if err != nil {
		handleError(c, "AuthHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}
