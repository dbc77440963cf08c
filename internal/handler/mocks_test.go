package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/service"
	"github.com/jeeprep/jee-prep-api/internal/service/testsession"
)

// MockAuthService implements AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) RegisterUser(ctx context.Context, input service.RegisterInput) (*entity.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockAuthService) LoginUser(ctx context.Context, email, password string) (string, *entity.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*entity.User), args.Error(2)
}

func (m *MockAuthService) LogoutUser(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockAuthService) GenerateWsTicket(ctx context.Context, userID uint, email string) (string, error) {
	args := m.Called(ctx, userID, email)
	return args.String(0), args.Error(1)
}

// MockUserService implements UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetProfile(ctx context.Context, userID uint) (*entity.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserService) UpdateName(ctx context.Context, userID uint, name string) (*entity.User, error) {
	args := m.Called(ctx, userID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

// MockQuestionService implements QuestionService
type MockQuestionService struct {
	mock.Mock
}

func (m *MockQuestionService) FetchForConfig(ctx context.Context, cfg entity.TestConfig) ([]entity.Question, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionService) GetQuestion(ctx context.Context, id uint) (*entity.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionService) ListSubjects(ctx context.Context) ([]entity.SubjectSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.SubjectSummary), args.Error(1)
}

// MockProgressService implements ProgressService
type MockProgressService struct {
	mock.Mock
}

func (m *MockProgressService) Save(ctx context.Context, userID uint, in service.SaveProgressInput) (*entity.TestProgress, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestProgress), args.Error(1)
}

func (m *MockProgressService) Get(ctx context.Context, userID uint, testID string) (*entity.TestProgress, error) {
	args := m.Called(ctx, userID, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestProgress), args.Error(1)
}

func (m *MockProgressService) Delete(ctx context.Context, userID uint, testID string) error {
	return m.Called(ctx, userID, testID).Error(0)
}

// MockResultService implements ResultService
type MockResultService struct {
	mock.Mock
}

func (m *MockResultService) SubmitReported(ctx context.Context, userID uint, in service.ReportedSubmission) (*testsession.Result, string, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*testsession.Result), args.String(1), args.Error(2)
}

func (m *MockResultService) SubmitPractice(ctx context.Context, userID, questionID uint, in service.PracticeSubmission) (*service.PracticeResult, error) {
	args := m.Called(ctx, userID, questionID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PracticeResult), args.Error(1)
}

func (m *MockResultService) GetAttempt(ctx context.Context, userID uint, attemptID string) (*entity.TestAttempt, error) {
	args := m.Called(ctx, userID, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.TestAttempt), args.Error(1)
}

func (m *MockResultService) ListAttempts(ctx context.Context, userID uint, page, pageSize int) (*service.AttemptPage, error) {
	args := m.Called(ctx, userID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AttemptPage), args.Error(1)
}

func (m *MockResultService) ListAllAttempts(ctx context.Context, userID uint) ([]entity.TestAttempt, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.TestAttempt), args.Error(1)
}

func (m *MockResultService) Analytics(ctx context.Context, userID uint, days int) (*service.Analytics, error) {
	args := m.Called(ctx, userID, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Analytics), args.Error(1)
}

// MockSessionService implements SessionService
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Start(ctx context.Context, userID uint, cfg entity.TestConfig, attemptID string) (*service.SessionView, error) {
	args := m.Called(ctx, userID, cfg, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}

func (m *MockSessionService) Get(userID uint, attemptID string) (*service.SessionView, error) {
	args := m.Called(userID, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}

func (m *MockSessionService) SelectAnswer(userID uint, attemptID, questionID, answer string) error {
	return m.Called(userID, attemptID, questionID, answer).Error(0)
}

func (m *MockSessionService) Navigate(userID uint, attemptID string, index int) (int, error) {
	args := m.Called(userID, attemptID, index)
	return args.Int(0), args.Error(1)
}

func (m *MockSessionService) Pause(userID uint, attemptID string) (*service.SessionView, error) {
	args := m.Called(userID, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}

func (m *MockSessionService) Resume(userID uint, attemptID string) (*service.SessionView, error) {
	args := m.Called(userID, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SessionView), args.Error(1)
}

func (m *MockSessionService) Submit(ctx context.Context, userID uint, attemptID string) (*testsession.Result, error) {
	args := m.Called(ctx, userID, attemptID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*testsession.Result), args.Error(1)
}

func (m *MockSessionService) Suspend(userID uint, attemptID string) error {
	return m.Called(userID, attemptID).Error(0)
}

func (m *MockSessionService) Abandon(ctx context.Context, userID uint, attemptID string) error {
	return m.Called(ctx, userID, attemptID).Error(0)
}

func (m *MockSessionService) ActiveCount() int {
	return m.Called().Int(0)
}
