package repository

import (
	"context"
	"time"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// ResultRepository stores scored attempts and practice submissions.
type ResultRepository interface {
	// CreateAttempt stores the attempt with its submissions. A second attempt with the
	// same (user, attempt id) fails with apperrors.ErrConflict.
	CreateAttempt(ctx context.Context, attempt *entity.TestAttempt) error
	GetAttempt(ctx context.Context, userID uint, attemptID string) (*entity.TestAttempt, error)
	ListAttempts(ctx context.Context, userID uint, limit, offset int) ([]entity.TestAttempt, int64, error)
	ListAllAttempts(ctx context.Context, userID uint) ([]entity.TestAttempt, error)

	CreateSubmission(ctx context.Context, submission *entity.Submission) error

	SubjectAccuracy(ctx context.Context, userID uint) ([]entity.SubjectAccuracy, error)
	DailyScores(ctx context.Context, userID uint, since time.Time) ([]entity.DailyScore, error)
}
