package dto

import "github.com/jeeprep/jee-prep-api/internal/domain/entity"

// RegisterRequest is the body of POST /api/auth/register. Email syntax and
// password length are checked by the auth service so the client gets one
// consistent message.
type RegisterRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// AuthResponse is returned by login. The token is also set as an HttpOnly
// cookie.
type AuthResponse struct {
	User        *entity.User `json:"user"`
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int          `json:"expiresIn"` // seconds
}
