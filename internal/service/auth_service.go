package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/domain/repository"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// TokenIssuer issues and revokes tokens. Implemented by auth.JWTService.
type TokenIssuer interface {
	GenerateToken(user *entity.User) (string, error)
	GenerateWSTicket(userID uint, email string) (string, error)
	RevokeUserTokens(ctx context.Context, userID uint) error
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthService handles registration, login and logout.
type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// RegisterUser creates an account. The password is hashed by the entity hook.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput) (*entity.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	if input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", apperrors.ErrValidation)
	}
	// bcrypt only looks at the first 72 bytes.
	if len(input.Password) > 72 {
		return nil, fmt.Errorf("%w: password is too long", apperrors.ErrValidation)
	}

	_, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, fmt.Errorf("%w: user already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	user := &entity.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("[AuthService] Registered user #%d", user.ID)
	return user, nil
}

// LoginUser checks the credentials and issues an access token.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (string, *entity.User, error) {
	user, err := s.AuthenticateUser(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		log.Printf("[AuthService] Failed to issue token for user #%d: %v", user.ID, err)
		return "", nil, err
	}
	return token, user, nil
}

// AuthenticateUser checks the credentials without issuing a token.
func (s *AuthService) AuthenticateUser(ctx context.Context, email, password string) (*entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AuthService] Login for unknown email %s", email)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		log.Printf("[AuthService] Wrong password for user #%d", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LogoutUser revokes every token of the user issued so far.
func (s *AuthService) LogoutUser(ctx context.Context, userID uint) error {
	if err := s.tokens.RevokeUserTokens(ctx, userID); err != nil {
		log.Printf("[AuthService] Failed to revoke tokens of user #%d: %v", userID, err)
		return err
	}
	return nil
}

// GenerateWsTicket issues a short-lived websocket ticket.
func (s *AuthService) GenerateWsTicket(ctx context.Context, userID uint, email string) (string, error) {
	return s.tokens.GenerateWSTicket(userID, email)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
