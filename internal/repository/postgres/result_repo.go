package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// ResultRepo implements repository.ResultRepository.
type ResultRepo struct {
	db *gorm.DB
}

// NewResultRepo creates a result repository.
func NewResultRepo(db *gorm.DB) *ResultRepo {
	return &ResultRepo{db: db}
}

// CreateAttempt stores the attempt and its submissions in one transaction.
func (r *ResultRepo) CreateAttempt(ctx context.Context, attempt *entity.TestAttempt) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(attempt).Error
	})
	if err != nil {
		if isUniqueViolation(err) || errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: attempt %s already submitted", apperrors.ErrConflict, attempt.AttemptID)
		}
		return err
	}
	return nil
}

// GetAttempt returns an attempt of the user with its submissions and their questions.
func (r *ResultRepo) GetAttempt(ctx context.Context, userID uint, attemptID string) (*entity.TestAttempt, error) {
	var attempt entity.TestAttempt
	err := r.db.WithContext(ctx).
		Preload("Submissions", func(db *gorm.DB) *gorm.DB { return db.Order("submissions.id ASC") }).
		Preload("Submissions.Question").
		Where("user_id = ? AND attempt_id = ?", userID, attemptID).
		First(&attempt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &attempt, nil
}

// ListAttempts returns a page of the user's attempts, newest first, and the total count.
func (r *ResultRepo) ListAttempts(ctx context.Context, userID uint, limit, offset int) ([]entity.TestAttempt, int64, error) {
	var attempts []entity.TestAttempt
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.TestAttempt{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	if err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// ListAllAttempts returns every attempt of the user, newest first. Used by exports.
func (r *ResultRepo) ListAllAttempts(ctx context.Context, userID uint) ([]entity.TestAttempt, error) {
	var attempts []entity.TestAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submitted_at DESC").
		Find(&attempts).Error
	return attempts, err
}

// CreateSubmission stores a practice submission.
func (r *ResultRepo) CreateSubmission(ctx context.Context, submission *entity.Submission) error {
	return r.db.WithContext(ctx).Omit("Question").Create(submission).Error
}

// SubjectAccuracy aggregates every submission of the user by subject.
func (r *ResultRepo) SubjectAccuracy(ctx context.Context, userID uint) ([]entity.SubjectAccuracy, error) {
	var rows []entity.SubjectAccuracy
	err := r.db.WithContext(ctx).
		Table("submissions").
		Select("subjects.name AS subject, COUNT(*) AS attempted, "+
			"SUM(CASE WHEN submissions.is_correct THEN 1 ELSE 0 END) AS correct").
		Joins("JOIN questions ON questions.id = submissions.question_id").
		Joins("JOIN subjects ON subjects.id = questions.subject_id").
		Where("submissions.user_id = ?", userID).
		Group("subjects.name").
		Order("subjects.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		if rows[i].Attempted > 0 {
			rows[i].Accuracy = float64(rows[i].Correct) / float64(rows[i].Attempted) * 100
		}
	}
	return rows, nil
}

// DailyScores returns the average attempt score per day since the given time.
func (r *ResultRepo) DailyScores(ctx context.Context, userID uint, since time.Time) ([]entity.DailyScore, error) {
	var rows []entity.DailyScore
	err := r.db.WithContext(ctx).
		Model(&entity.TestAttempt{}).
		Select("date_trunc('day', submitted_at) AS day, COUNT(*) AS attempts, AVG(score) AS average_score").
		Where("user_id = ? AND submitted_at >= ?", userID, since).
		Group("day").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}
