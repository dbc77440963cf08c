package dto

import (
	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/handler/helper"
)

// QuestionResponse is a question as shown while it can still be answered:
// no correct flags and no solution.
type QuestionResponse struct {
	ID           uint                    `json:"id"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Subject      string                  `json:"subject"`
	Topic        string                  `json:"topic"`
	Subtopic     string                  `json:"subtopic,omitempty"`
	Difficulty   string                  `json:"difficulty"`
	TimeLimit    int                     `json:"timeLimit"`
	Type         string                  `json:"type"`
	Options      []helper.QuestionOption `json:"options"`
	Hint         string                  `json:"hint,omitempty"`
	FormulaSheet string                  `json:"formulaSheet,omitempty"`
}

func NewQuestionResponse(q *entity.Question) *QuestionResponse {
	return &QuestionResponse{
		ID:           q.ID,
		Title:        q.Title,
		Description:  q.Description,
		Subject:      q.SubjectName(),
		Topic:        q.TopicName(),
		Subtopic:     q.Subtopic,
		Difficulty:   q.Difficulty,
		TimeLimit:    q.TimeLimit,
		Type:         q.Type,
		Options:      helper.ConvertOptions(q.Options),
		Hint:         q.Hint,
		FormulaSheet: q.FormulaSheet,
	}
}

// NewQuestionListResponse never returns nil, so an empty bank encodes as [].
func NewQuestionListResponse(questions []entity.Question) []*QuestionResponse {
	out := make([]*QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, NewQuestionResponse(&questions[i]))
	}
	return out
}

// PracticeSubmissionRequest is a single answer outside a test.
type PracticeSubmissionRequest struct {
	Answer    string `json:"answer" binding:"required"`
	WorkArea  string `json:"workArea" binding:"max=10000"`
	TimeTaken int    `json:"timeTaken" binding:"gte=0"`
}
