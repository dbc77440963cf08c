package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/domain/repository"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
	"github.com/jeeprep/jee-prep-api/internal/service/testsession"
)

// AttemptRecord is a graded attempt ready to be stored.
type AttemptRecord struct {
	UserID      uint
	AttemptID   string
	Config      entity.TestConfig
	Questions   []entity.Question
	Result      testsession.Result
	SubmittedAt time.Time
}

// ReportedSubmission is a result submitted by a client that ran the test
// itself. The score is recomputed from the stored questions.
type ReportedSubmission struct {
	TestID            string
	QuestionIDs       []uint
	Answers           entity.AnswerMap
	TimeSpent         int
	Subjects          []string
	Topics            []string
	Difficulty        string
	Duration          int // minutes, optional
	TotalQuestions    int
	AnsweredQuestions int
}

// PracticeSubmission is a single answer to a question outside of a test.
type PracticeSubmission struct {
	Answer    string
	WorkArea  string
	TimeTaken int
}

// PracticeResult is the graded practice answer.
type PracticeResult struct {
	Submission     *entity.Submission `json:"submission"`
	IsCorrect      bool               `json:"isCorrect"`
	CorrectOptions []string           `json:"correctOptions"`
	Solution       string             `json:"solution,omitempty"`
}

// AttemptPage is one page of a user's history.
type AttemptPage struct {
	Items   []entity.TestAttempt `json:"items"`
	Total   int64                `json:"total"`
	Page    int                  `json:"page"`
	PerPage int                  `json:"perPage"`
}

// Analytics summarises a user's performance. The window fields cover only the
// Days covered by Daily; Subjects spans the whole history.
type Analytics struct {
	Days               int                      `json:"days"`
	WindowAttempts     int64                    `json:"windowAttempts"`
	WindowAverageScore float64                  `json:"windowAverageScore"`
	Subjects           []entity.SubjectAccuracy `json:"subjects"`
	Daily              []entity.DailyScore      `json:"daily"`
}

// ResultService stores graded attempts and serves history and analytics.
type ResultService struct {
	resultRepo   repository.ResultRepository
	progressRepo repository.ProgressRepository
	questionRepo repository.QuestionRepository
	userRepo     repository.UserRepository
	cacheRepo    repository.CacheRepository
	mailer       ResultMailer
	lockTTL      time.Duration
}

// NewResultService creates a result service. cacheRepo may be nil, in which
// case no cross-process submit lock is taken.
func NewResultService(
	resultRepo repository.ResultRepository,
	progressRepo repository.ProgressRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	lockTTL time.Duration,
) *ResultService {
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &ResultService{
		resultRepo:   resultRepo,
		progressRepo: progressRepo,
		questionRepo: questionRepo,
		userRepo:     userRepo,
		cacheRepo:    cacheRepo,
		lockTTL:      lockTTL,
	}
}

// SetMailer enables result emails.
func (s *ResultService) SetMailer(mailer ResultMailer) {
	s.mailer = mailer
}

func submitLockKey(userID uint, attemptID string) string {
	return fmt.Sprintf("submit:%d:%s", userID, attemptID)
}

// RecordAttempt stores a graded attempt once and deletes its snapshot. A
// concurrent call for the same attempt fails with
// testsession.ErrSubmitInProgress; a repeat after success fails with
// apperrors.ErrConflict.
func (s *ResultService) RecordAttempt(ctx context.Context, rec *AttemptRecord) error {
	lockKey := submitLockKey(rec.UserID, rec.AttemptID)
	locked := false
	if s.cacheRepo != nil {
		acquired, err := s.cacheRepo.SetNX(ctx, lockKey, time.Now().Unix(), s.lockTTL)
		switch {
		case err != nil:
			log.Printf("[ResultService] Submit lock unavailable for %s, relying on unique index: %v", lockKey, err)
		case !acquired:
			return testsession.ErrSubmitInProgress
		default:
			locked = true
		}
	}

	attempt := buildAttempt(rec)
	if err := s.resultRepo.CreateAttempt(ctx, attempt); err != nil {
		if locked {
			if delErr := s.cacheRepo.Delete(context.Background(), lockKey); delErr != nil {
				log.Printf("[ResultService] Failed to release submit lock %s: %v", lockKey, delErr)
			}
		}
		return err
	}

	if err := s.progressRepo.Delete(ctx, rec.UserID, rec.AttemptID); err != nil {
		log.Printf("[ResultService] Attempt %s stored but snapshot delete failed: %v", rec.AttemptID, err)
	}

	if s.mailer != nil {
		go s.sendResultMail(attempt)
	}

	log.Printf("[ResultService] Attempt %s of user #%d stored: score=%.2f", rec.AttemptID, rec.UserID, attempt.Score)
	return nil
}

func buildAttempt(rec *AttemptRecord) *entity.TestAttempt {
	submittedAt := rec.SubmittedAt
	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	submissions := make([]entity.Submission, 0, len(rec.Result.Outcomes))
	for _, o := range rec.Result.Outcomes {
		if !o.Answered {
			continue
		}
		submissions = append(submissions, entity.Submission{
			UserID:     rec.UserID,
			QuestionID: o.QuestionID,
			Answer:     o.Answer,
			IsCorrect:  o.IsCorrect,
		})
	}

	topics := rec.Config.Topics
	if topics == nil {
		topics = []string{}
	}
	return &entity.TestAttempt{
		UserID:            rec.UserID,
		AttemptID:         rec.AttemptID,
		Subjects:          entity.StringArray(rec.Config.Subjects),
		Topics:            entity.StringArray(topics),
		Difficulty:        rec.Config.Difficulty,
		Duration:          rec.Config.Duration,
		TotalQuestions:    rec.Result.TotalQuestions,
		AnsweredQuestions: rec.Result.AnsweredQuestions,
		CorrectAnswers:    rec.Result.CorrectAnswers,
		Score:             rec.Result.Score,
		TimeSpent:         rec.Result.TimeSpent,
		Submissions:       submissions,
		SubmittedAt:       submittedAt,
	}
}

// SubmitReported grades a client-run test against the stored questions and
// records it.
func (s *ResultService) SubmitReported(ctx context.Context, userID uint, in ReportedSubmission) (*testsession.Result, string, error) {
	if len(in.QuestionIDs) == 0 {
		return nil, "", fmt.Errorf("%w: questions are required", apperrors.ErrValidation)
	}
	if len(in.Subjects) == 0 {
		return nil, "", fmt.Errorf("%w: subjects are required", apperrors.ErrValidation)
	}

	ids := uniqueIDs(in.QuestionIDs)
	questions, err := s.questionRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, "", fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) != len(ids) {
		return nil, "", fmt.Errorf("%w: %d of %d questions not found", apperrors.ErrValidation, len(ids)-len(questions), len(ids))
	}

	result := testsession.Score(questions, in.Answers)
	timeSpent := in.TimeSpent
	if timeSpent < 0 {
		timeSpent = 0
	}
	if in.Duration > 0 && timeSpent > in.Duration*60 {
		timeSpent = in.Duration * 60
	}
	result.TimeSpent = timeSpent

	if in.TotalQuestions != 0 && in.TotalQuestions != result.TotalQuestions {
		log.Printf("[ResultService] User #%d reported %d questions, graded %d", userID, in.TotalQuestions, result.TotalQuestions)
	}

	testID := in.TestID
	if testID == "" {
		testID = uuid.NewString()
	}
	rec := &AttemptRecord{
		UserID:    userID,
		AttemptID: testID,
		Config: entity.TestConfig{
			Subjects:          in.Subjects,
			Topics:            in.Topics,
			Difficulty:        in.Difficulty,
			Duration:          in.Duration,
			NumberOfQuestions: len(questions),
		},
		Questions:   questions,
		Result:      result,
		SubmittedAt: time.Now(),
	}
	if err := s.RecordAttempt(ctx, rec); err != nil {
		return nil, "", err
	}
	return &result, testID, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// SubmitPractice grades and stores one practice answer.
func (s *ResultService) SubmitPractice(ctx context.Context, userID, questionID uint, in PracticeSubmission) (*PracticeResult, error) {
	if in.Answer == "" {
		return nil, fmt.Errorf("%w: answer is required", apperrors.ErrValidation)
	}
	q, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	correct := testsession.IsCorrect(q, in.Answer)
	sub := &entity.Submission{
		UserID:     userID,
		QuestionID: q.ID,
		Answer:     in.Answer,
		IsCorrect:  correct,
		WorkArea:   in.WorkArea,
		TimeTaken:  in.TimeTaken,
	}
	if err := s.resultRepo.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	return &PracticeResult{
		Submission:     sub,
		IsCorrect:      correct,
		CorrectOptions: q.CorrectOptions(),
		Solution:       q.Solution,
	}, nil
}

// GetAttempt returns one stored attempt of the user.
func (s *ResultService) GetAttempt(ctx context.Context, userID uint, attemptID string) (*entity.TestAttempt, error) {
	return s.resultRepo.GetAttempt(ctx, userID, attemptID)
}

// ListAttempts returns a page of the user's history, newest first.
func (s *ResultService) ListAttempts(ctx context.Context, userID uint, page, pageSize int) (*AttemptPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}

	items, total, err := s.resultRepo.ListAttempts(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		log.Printf("[ResultService] Failed to list attempts of user #%d: %v", userID, err)
		return nil, err
	}
	if items == nil {
		items = []entity.TestAttempt{}
	}
	return &AttemptPage{Items: items, Total: total, Page: page, PerPage: pageSize}, nil
}

// ListAllAttempts returns the full history for exports.
func (s *ResultService) ListAllAttempts(ctx context.Context, userID uint) ([]entity.TestAttempt, error) {
	return s.resultRepo.ListAllAttempts(ctx, userID)
}

// Analytics aggregates per-subject accuracy and the daily score series of the
// last days days.
func (s *ResultService) Analytics(ctx context.Context, userID uint, days int) (*Analytics, error) {
	if days <= 0 || days > 365 {
		days = 30
	}

	subjects, err := s.resultRepo.SubjectAccuracy(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("subject accuracy: %w", err)
	}
	since := time.Now().AddDate(0, 0, -days)
	daily, err := s.resultRepo.DailyScores(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("daily scores: %w", err)
	}

	out := &Analytics{Days: days, Subjects: subjects, Daily: daily}
	if out.Subjects == nil {
		out.Subjects = []entity.SubjectAccuracy{}
	}
	if out.Daily == nil {
		out.Daily = []entity.DailyScore{}
	}

	var weighted float64
	for _, d := range daily {
		out.WindowAttempts += d.Attempts
		weighted += d.AverageScore * float64(d.Attempts)
	}
	if out.WindowAttempts > 0 {
		out.WindowAverageScore = weighted / float64(out.WindowAttempts)
	}
	return out, nil
}

func (s *ResultService) sendResultMail(attempt *entity.TestAttempt) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := s.userRepo.GetByID(ctx, attempt.UserID)
	if err != nil {
		log.Printf("[ResultService] Result mail skipped, user #%d not loaded: %v", attempt.UserID, err)
		return
	}
	if err := s.mailer.SendResult(ctx, user.Email, user.Name, attempt); err != nil {
		log.Printf("[ResultService] Result mail to user #%d failed: %v", attempt.UserID, err)
	}
}
