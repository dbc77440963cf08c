package entity

import "time"

// Subject is a top-level syllabus area, e.g. Physics.
type Subject struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	Topics      []Topic   `gorm:"foreignKey:SubjectID" json:"topics,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName sets the gorm table name.
func (Subject) TableName() string {
	return "subjects"
}

// Topic belongs to a subject. Names are unique per subject.
type Topic struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SubjectID   uint      `gorm:"not null;uniqueIndex:idx_topic_subject_name" json:"subjectId"`
	Name        string    `gorm:"size:100;not null;uniqueIndex:idx_topic_subject_name" json:"name"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName sets the gorm table name.
func (Topic) TableName() string {
	return "topics"
}

// SubjectSummary is a subject with its topics and the number of questions filed under it.
type SubjectSummary struct {
	Subject
	ProblemCount int64 `json:"problemCount"`
}
