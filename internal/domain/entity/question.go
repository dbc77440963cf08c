package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Difficulty levels of a question.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Question types.
const (
	QuestionTypeSingleChoice   = "Single Choice"
	QuestionTypeMultipleChoice = "Multiple Choice"
	QuestionTypeNumerical      = "Numerical"
)

// Option is one answer choice of a question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// OptionList is stored as a JSONB array.
type OptionList []Option

// Scan implements sql.Scanner for OptionList.
func (o *OptionList) Scan(value interface{}) error {
	if value == nil {
		*o = OptionList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB options: unexpected type")
	}

	if len(bytes) == 0 {
		*o = OptionList{}
		return nil
	}
	return json.Unmarshal(bytes, o)
}

// Value implements driver.Valuer for OptionList. A nil list is stored as [].
func (o OptionList) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// StringArray is a JSONB array of strings.
type StringArray []string

// Scan implements sql.Scanner for StringArray.
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: unexpected type")
	}

	if len(bytes) == 0 {
		*s = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value implements driver.Valuer for StringArray.
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// Question is a practice/test problem.
type Question struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	Difficulty   string     `gorm:"size:10;not null;index" json:"difficulty"`
	TimeLimit    int        `gorm:"not null;default:0" json:"timeLimit"` // minutes, advisory
	Type         string     `gorm:"size:20;not null;default:'Single Choice'" json:"type"`
	SubjectID    uint       `gorm:"not null;index" json:"-"`
	Subject      Subject    `gorm:"foreignKey:SubjectID" json:"-"`
	TopicID      uint       `gorm:"not null;index" json:"-"`
	Topic        Topic      `gorm:"foreignKey:TopicID" json:"-"`
	Subtopic     string     `gorm:"size:255;not null;default:''" json:"subtopic,omitempty"`
	Options      OptionList `gorm:"type:jsonb;not null" json:"options"`
	Hint         string     `gorm:"type:text;not null;default:''" json:"hint,omitempty"`
	Solution     string     `gorm:"type:text;not null;default:''" json:"solution,omitempty"`
	FormulaSheet string     `gorm:"type:text;not null;default:''" json:"formulaSheet,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName sets the gorm table name.
func (Question) TableName() string {
	return "questions"
}

// SubjectName returns the loaded subject name, or "" when the relation is not preloaded.
func (q *Question) SubjectName() string {
	return q.Subject.Name
}

// TopicName returns the loaded topic name, or "" when the relation is not preloaded.
func (q *Question) TopicName() string {
	return q.Topic.Name
}

// CorrectOptions returns the texts of all options flagged correct, in order.
func (q *Question) CorrectOptions() []string {
	var correct []string
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct = append(correct, opt.Text)
		}
	}
	return correct
}

// HasOption reports whether text is one of the question's option texts.
func (q *Question) HasOption(text string) bool {
	for _, opt := range q.Options {
		if opt.Text == text {
			return true
		}
	}
	return false
}

// IsValidDifficulty reports whether d is a known difficulty level.
func IsValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// IsValidQuestionType reports whether t is a known question type.
func IsValidQuestionType(t string) bool {
	switch t {
	case QuestionTypeSingleChoice, QuestionTypeMultipleChoice, QuestionTypeNumerical:
		return true
	}
	return false
}
