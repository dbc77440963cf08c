package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/domain/repository"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
	"github.com/jeeprep/jee-prep-api/internal/service/testsession"
)

const subjectsCacheKey = "subjects:summary"

// ValidateTestConfig checks a test configuration before any question is
// fetched.
func ValidateTestConfig(cfg entity.TestConfig) error {
	if len(cfg.Subjects) == 0 {
		return fmt.Errorf("%w: at least one subject is required", testsession.ErrInvalidConfig)
	}
	for _, s := range cfg.Subjects {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: subject names must not be empty", testsession.ErrInvalidConfig)
		}
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive", testsession.ErrInvalidConfig)
	}
	if cfg.NumberOfQuestions <= 0 {
		return fmt.Errorf("%w: numberOfQuestions must be positive", testsession.ErrInvalidConfig)
	}
	if cfg.Difficulty != "" && !entity.IsValidDifficulty(cfg.Difficulty) {
		return fmt.Errorf("%w: unknown difficulty %q", testsession.ErrInvalidConfig, cfg.Difficulty)
	}
	return nil
}

// QuestionService serves the question bank and the subject catalogue.
type QuestionService struct {
	questionRepo repository.QuestionRepository
	subjectRepo  repository.SubjectRepository
	cacheRepo    repository.CacheRepository
	cacheTTL     time.Duration
}

// NewQuestionService creates a question service. cacheRepo may be nil.
func NewQuestionService(
	questionRepo repository.QuestionRepository,
	subjectRepo repository.SubjectRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
) *QuestionService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &QuestionService{
		questionRepo: questionRepo,
		subjectRepo:  subjectRepo,
		cacheRepo:    cacheRepo,
		cacheTTL:     cacheTTL,
	}
}

// FetchForConfig returns at most cfg.NumberOfQuestions questions matching the
// filter. Only subjects are required here; duration does not matter for a
// plain fetch.
func (s *QuestionService) FetchForConfig(ctx context.Context, cfg entity.TestConfig) ([]entity.Question, error) {
	if len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("%w: at least one subject is required", apperrors.ErrValidation)
	}
	if cfg.Difficulty != "" && !entity.IsValidDifficulty(cfg.Difficulty) {
		return nil, fmt.Errorf("%w: unknown difficulty %q", apperrors.ErrValidation, cfg.Difficulty)
	}
	limit := cfg.NumberOfQuestions
	if limit <= 0 {
		limit = 10
	}

	questions, err := s.questionRepo.Fetch(ctx, cfg.Filter(), limit)
	if err != nil {
		log.Printf("[QuestionService] Fetch failed (subjects=%v): %v", cfg.Subjects, err)
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	if questions == nil {
		questions = []entity.Question{}
	}
	return questions, nil
}

// GetQuestion returns one question.
func (s *QuestionService) GetQuestion(ctx context.Context, id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

// ListSubjects returns the catalogue with problem counts, cached.
func (s *QuestionService) ListSubjects(ctx context.Context) ([]entity.SubjectSummary, error) {
	if s.cacheRepo != nil {
		var cached []entity.SubjectSummary
		err := s.cacheRepo.GetJSON(ctx, subjectsCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuestionService] Subjects cache read failed: %v", err)
		}
	}

	subjects, err := s.subjectRepo.ListWithCounts(ctx)
	if err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []entity.SubjectSummary{}
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(ctx, subjectsCacheKey, subjects, s.cacheTTL); err != nil {
			log.Printf("[QuestionService] Subjects cache write failed: %v", err)
		}
	}
	return subjects, nil
}
