package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// ProgressRepo implements repository.ProgressRepository on the test_progress table.
type ProgressRepo struct {
	db *gorm.DB
}

// NewProgressRepo creates a progress repository.
func NewProgressRepo(db *gorm.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// Put inserts the snapshot or overwrites the existing one for the same (user, attempt).
func (r *ProgressRepo) Put(ctx context.Context, progress *entity.TestProgress) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "attempt_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"answers", "time_remaining", "paused", "selected_topic", "config", "last_updated",
		}),
	}).Create(progress).Error
}

// Get returns the snapshot or apperrors.ErrNotFound.
func (r *ProgressRepo) Get(ctx context.Context, userID uint, attemptID string) (*entity.TestProgress, error) {
	var progress entity.TestProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND attempt_id = ?", userID, attemptID).
		First(&progress).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &progress, nil
}

// Delete removes the snapshot. Deleting a missing snapshot succeeds.
func (r *ProgressRepo) Delete(ctx context.Context, userID uint, attemptID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND attempt_id = ?", userID, attemptID).
		Delete(&entity.TestProgress{}).Error
}
