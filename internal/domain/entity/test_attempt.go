package entity

import "time"

// TestAttempt is the scored outcome of one submitted attempt.
type TestAttempt struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	UserID            uint         `gorm:"not null;index;uniqueIndex:idx_attempt_user_attempt" json:"userId"`
	AttemptID         string       `gorm:"size:64;not null;uniqueIndex:idx_attempt_user_attempt" json:"attemptId"`
	Subjects          StringArray  `gorm:"type:jsonb;not null" json:"subjects"`
	Topics            StringArray  `gorm:"type:jsonb;not null" json:"topics"`
	Difficulty        string       `gorm:"size:10;not null;default:''" json:"difficulty"`
	Duration          int          `gorm:"not null" json:"duration"` // minutes
	TotalQuestions    int          `gorm:"not null" json:"totalQuestions"`
	AnsweredQuestions int          `gorm:"not null" json:"answeredQuestions"`
	CorrectAnswers    int          `gorm:"not null" json:"correctAnswers"`
	Score             float64      `gorm:"not null" json:"score"`     // percent, unrounded
	TimeSpent         int          `gorm:"not null" json:"timeSpent"` // seconds
	Submissions       []Submission `gorm:"foreignKey:TestAttemptID;constraint:OnDelete:CASCADE" json:"submissions,omitempty"`
	SubmittedAt       time.Time    `gorm:"not null;index" json:"submittedAt"`
	CreatedAt         time.Time    `json:"createdAt"`
}

// TableName sets the gorm table name.
func (TestAttempt) TableName() string {
	return "test_attempts"
}

// Submission is one answered question, either inside a test attempt or as a
// standalone practice answer (TestAttemptID nil).
type Submission struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"userId"`
	QuestionID    uint      `gorm:"not null;index" json:"questionId"`
	Question      *Question `gorm:"foreignKey:QuestionID" json:"-"`
	TestAttemptID *uint     `gorm:"index" json:"testAttemptId,omitempty"`
	Answer        string    `gorm:"type:text;not null;default:''" json:"answer"`
	IsCorrect     bool      `gorm:"not null" json:"isCorrect"`
	WorkArea      string    `gorm:"type:text;not null;default:''" json:"workArea,omitempty"`
	TimeTaken     int       `gorm:"not null;default:0" json:"timeTaken"` // seconds
	CreatedAt     time.Time `json:"createdAt"`
}

// TableName sets the gorm table name.
func (Submission) TableName() string {
	return "submissions"
}

// SubjectAccuracy aggregates submissions of one user per subject.
type SubjectAccuracy struct {
	Subject   string  `json:"subject"`
	Attempted int64   `json:"attempted"`
	Correct   int64   `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
}

// DailyScore is the average attempt score of one user on one day.
type DailyScore struct {
	Day          time.Time `json:"day"`
	Attempts     int64     `json:"attempts"`
	AverageScore float64   `json:"averageScore"`
}
