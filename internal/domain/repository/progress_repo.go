package repository

import (
	"context"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// ProgressRepository stores one resumable snapshot per (user, attempt).
// Get returns apperrors.ErrNotFound when nothing is stored; Delete of a missing
// snapshot is not an error.
type ProgressRepository interface {
	Put(ctx context.Context, progress *entity.TestProgress) error
	Get(ctx context.Context, userID uint, attemptID string) (*entity.TestProgress, error)
	Delete(ctx context.Context, userID uint, attemptID string) error
}
