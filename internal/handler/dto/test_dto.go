package dto

import (
	"time"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/service"
	"github.com/jeeprep/jee-prep-api/internal/service/testsession"
)

// StartTestRequest starts or resumes a server-timed test. Config may be
// omitted only when resuming; with a saved snapshot the snapshot's config wins.
type StartTestRequest struct {
	Config    *entity.TestConfig `json:"config" binding:"omitempty"`
	AttemptID string             `json:"attemptId" binding:"max=64"`
}

type AnswerRequest struct {
	QuestionID string `json:"questionId" binding:"required"`
	Answer     string `json:"answer"`
}

type NavigateRequest struct {
	Index *int `json:"index" binding:"required"`
}

// SessionResponse is a session view with answer keys stripped until the
// attempt has a result.
type SessionResponse struct {
	AttemptID     string              `json:"attemptId"`
	Status        string              `json:"status"`
	Config        entity.TestConfig   `json:"config"`
	Questions     []*QuestionResponse `json:"questions"`
	Answers       entity.AnswerMap    `json:"answers"`
	TimeRemaining int                 `json:"timeRemaining"`
	Paused        bool                `json:"paused"`
	CurrentIndex  int                 `json:"currentIndex"`
	Resumed       bool                `json:"resumed"`
	StartedAt     *time.Time          `json:"startedAt,omitempty"`
	Result        *testsession.Result `json:"result,omitempty"`
}

func NewSessionResponse(v *service.SessionView) *SessionResponse {
	resp := &SessionResponse{
		AttemptID:     v.AttemptID,
		Status:        v.Status,
		Config:        v.Config,
		Questions:     NewQuestionListResponse(v.Questions),
		Answers:       v.Answers,
		TimeRemaining: v.TimeRemaining,
		Paused:        v.Paused,
		CurrentIndex:  v.CurrentIndex,
		Resumed:       v.Resumed,
		Result:        v.Result,
	}
	if resp.Answers == nil {
		resp.Answers = entity.AnswerMap{}
	}
	if !v.StartedAt.IsZero() {
		startedAt := v.StartedAt
		resp.StartedAt = &startedAt
	}
	return resp
}

// SaveProgressRequest is a snapshot pushed by a client running its own timer.
type SaveProgressRequest struct {
	TestID        string            `json:"testId" binding:"required,max=64"`
	Answers       entity.AnswerMap  `json:"answers"`
	TimeRemaining int               `json:"timeRemaining" binding:"gte=0"`
	Config        entity.TestConfig `json:"config"`
}

// SubmitResultRequest is a result reported by a client running its own timer.
// The score is recomputed on the server from the listed question ids.
type SubmitResultRequest struct {
	TestID            string           `json:"testId" binding:"max=64"`
	TotalQuestions    int              `json:"totalQuestions" binding:"gte=0"`
	AnsweredQuestions int              `json:"answeredQuestions" binding:"gte=0"`
	Answers           entity.AnswerMap `json:"answers"`
	TimeSpent         int              `json:"timeSpent" binding:"gte=0"`
	Subjects          []string         `json:"subjects" binding:"required,min=1,dive,required"`
	Topics            []string         `json:"topics"`
	Difficulty        string           `json:"difficulty" binding:"omitempty,jee_difficulty"`
	Duration          int              `json:"duration" binding:"gte=0"`
	Questions         []uint           `json:"questions" binding:"required,min=1"`
}

func (r *SubmitResultRequest) ToService() service.ReportedSubmission {
	return service.ReportedSubmission{
		TestID:            r.TestID,
		QuestionIDs:       r.Questions,
		Answers:           r.Answers,
		TimeSpent:         r.TimeSpent,
		Subjects:          r.Subjects,
		Topics:            r.Topics,
		Difficulty:        r.Difficulty,
		Duration:          r.Duration,
		TotalQuestions:    r.TotalQuestions,
		AnsweredQuestions: r.AnsweredQuestions,
	}
}

// SubmitResultResponse echoes the server-side grading.
type SubmitResultResponse struct {
	TestID string `json:"testId"`
	testsession.Result
}
