package repository

import (
	"context"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// UserRepository manages user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdateName(ctx context.Context, id uint, name string) error
}
