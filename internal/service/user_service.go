package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/domain/repository"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// UserService manages the caller's own profile.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateName changes the display name and returns the updated profile.
func (s *UserService) UpdateName(ctx context.Context, userID uint, name string) (*entity.User, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, fmt.Errorf("%w: name must be 1-100 characters", apperrors.ErrValidation)
	}
	if err := s.userRepo.UpdateName(ctx, userID, name); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}
