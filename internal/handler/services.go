package handler

import (
	"context"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/service"
	"github.com/jeeprep/jee-prep-api/internal/service/testsession"
)

// Context keys set by the param middleware for the routes below.
const (
	ctxQuestionID = "questionID"
	ctxAttemptID  = "attemptID"
)

// Service contracts used by the handlers. The concrete services in package
// service satisfy them.

type AuthService interface {
	RegisterUser(ctx context.Context, input service.RegisterInput) (*entity.User, error)
	LoginUser(ctx context.Context, email, password string) (string, *entity.User, error)
	LogoutUser(ctx context.Context, userID uint) error
	GenerateWsTicket(ctx context.Context, userID uint, email string) (string, error)
}

type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*entity.User, error)
	UpdateName(ctx context.Context, userID uint, name string) (*entity.User, error)
}

type QuestionService interface {
	FetchForConfig(ctx context.Context, cfg entity.TestConfig) ([]entity.Question, error)
	GetQuestion(ctx context.Context, id uint) (*entity.Question, error)
	ListSubjects(ctx context.Context) ([]entity.SubjectSummary, error)
}

type ProgressService interface {
	Save(ctx context.Context, userID uint, in service.SaveProgressInput) (*entity.TestProgress, error)
	Get(ctx context.Context, userID uint, testID string) (*entity.TestProgress, error)
	Delete(ctx context.Context, userID uint, testID string) error
}

type ResultService interface {
	SubmitReported(ctx context.Context, userID uint, in service.ReportedSubmission) (*testsession.Result, string, error)
	SubmitPractice(ctx context.Context, userID, questionID uint, in service.PracticeSubmission) (*service.PracticeResult, error)
	GetAttempt(ctx context.Context, userID uint, attemptID string) (*entity.TestAttempt, error)
	ListAttempts(ctx context.Context, userID uint, page, pageSize int) (*service.AttemptPage, error)
	ListAllAttempts(ctx context.Context, userID uint) ([]entity.TestAttempt, error)
	Analytics(ctx context.Context, userID uint, days int) (*service.Analytics, error)
}

type SessionService interface {
	Start(ctx context.Context, userID uint, cfg entity.TestConfig, attemptID string) (*service.SessionView, error)
	Get(userID uint, attemptID string) (*service.SessionView, error)
	SelectAnswer(userID uint, attemptID, questionID, answer string) error
	Navigate(userID uint, attemptID string, index int) (int, error)
	Pause(userID uint, attemptID string) (*service.SessionView, error)
	Resume(userID uint, attemptID string) (*service.SessionView, error)
	Submit(ctx context.Context, userID uint, attemptID string) (*testsession.Result, error)
	Suspend(userID uint, attemptID string) error
	Abandon(ctx context.Context, userID uint, attemptID string) error
	ActiveCount() int
}
