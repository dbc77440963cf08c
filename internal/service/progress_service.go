package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/domain/repository"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// SaveProgressInput is a snapshot pushed by a client that runs its own timer.
type SaveProgressInput struct {
	TestID        string
	Answers       entity.AnswerMap
	TimeRemaining int
	Config        entity.TestConfig
}

// ProgressService exposes the snapshot store to clients.
type ProgressService struct {
	progressRepo repository.ProgressRepository
	now          func() time.Time
}

func NewProgressService(progressRepo repository.ProgressRepository) *ProgressService {
	return &ProgressService{progressRepo: progressRepo, now: time.Now}
}

// Save overwrites the snapshot of (user, test).
func (s *ProgressService) Save(ctx context.Context, userID uint, in SaveProgressInput) (*entity.TestProgress, error) {
	if strings.TrimSpace(in.TestID) == "" {
		return nil, ErrMissingTestID
	}
	if in.TimeRemaining < 0 {
		return nil, fmt.Errorf("%w: timeRemaining must not be negative", apperrors.ErrValidation)
	}

	progress := entity.NewTestProgress(userID, in.TestID, in.Answers, in.TimeRemaining, in.Config, s.now())
	if err := s.progressRepo.Put(ctx, progress); err != nil {
		return nil, err
	}
	return progress, nil
}

// Get returns the snapshot, or nil when there is none.
func (s *ProgressService) Get(ctx context.Context, userID uint, testID string) (*entity.TestProgress, error) {
	if strings.TrimSpace(testID) == "" {
		return nil, ErrMissingTestID
	}
	progress, err := s.progressRepo.Get(ctx, userID, testID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return progress, nil
}

// Delete removes the snapshot. Deleting a missing snapshot succeeds.
func (s *ProgressService) Delete(ctx context.Context, userID uint, testID string) error {
	if strings.TrimSpace(testID) == "" {
		return ErrMissingTestID
	}
	return s.progressRepo.Delete(ctx, userID, testID)
}
