package entity

import (
	"time"

	"gorm.io/datatypes"
)

// AnswerMap maps a question id (decimal string) to the selected answer text.
type AnswerMap map[string]string

// TestProgress is the resumable snapshot of one attempt. There is at most one row per
// (user, attempt).
type TestProgress struct {
	ID            uint                           `gorm:"primaryKey" json:"-"`
	UserID        uint                           `gorm:"not null;uniqueIndex:idx_progress_user_attempt" json:"userId"`
	AttemptID     string                         `gorm:"size:64;not null;uniqueIndex:idx_progress_user_attempt" json:"testId"`
	Answers       datatypes.JSONType[AnswerMap]  `gorm:"type:jsonb;not null" json:"answers"`
	TimeRemaining int                            `gorm:"not null" json:"timeRemaining"`
	Paused        bool                           `gorm:"not null;default:false" json:"paused"`
	SelectedTopic string                         `gorm:"size:100;not null;default:''" json:"selectedTopic"`
	Config        datatypes.JSONType[TestConfig] `gorm:"type:jsonb;not null" json:"config"`
	LastUpdated   time.Time                      `gorm:"not null" json:"lastUpdated"`
}

// TableName sets the gorm table name.
func (TestProgress) TableName() string {
	return "test_progress"
}

// NewTestProgress builds a snapshot stamped with now.
func NewTestProgress(userID uint, attemptID string, answers AnswerMap, remaining int, cfg TestConfig, now time.Time) *TestProgress {
	if answers == nil {
		answers = AnswerMap{}
	}
	return &TestProgress{
		UserID:        userID,
		AttemptID:     attemptID,
		Answers:       datatypes.NewJSONType(answers),
		TimeRemaining: remaining,
		SelectedTopic: cfg.SelectedTopic(),
		Config:        datatypes.NewJSONType(cfg),
		LastUpdated:   now,
	}
}
