package entity

// TestConfig selects the questions of an attempt and its duration. It is read once,
// when the attempt starts.
type TestConfig struct {
	Subjects          []string `json:"subjects" binding:"required,min=1,dive,required"`
	Topics            []string `json:"topics"`
	Difficulty        string   `json:"difficulty" binding:"omitempty,jee_difficulty"`
	Duration          int      `json:"duration" binding:"required,gt=0"` // minutes
	NumberOfQuestions int      `json:"numberOfQuestions" binding:"required,gt=0"`
}

// DurationSeconds returns the configured duration in seconds.
func (c TestConfig) DurationSeconds() int {
	return c.Duration * 60
}

// SelectedTopic is the first configured topic, or "" when no topic filter is set.
func (c TestConfig) SelectedTopic() string {
	if len(c.Topics) == 0 {
		return ""
	}
	return c.Topics[0]
}

// QuestionFilter narrows a question fetch. Empty Topics and Difficulty mean "no filter".
type QuestionFilter struct {
	Subjects   []string
	Topics     []string
	Difficulty string
}

// Filter converts the config into a question filter.
func (c TestConfig) Filter() QuestionFilter {
	return QuestionFilter{
		Subjects:   c.Subjects,
		Topics:     c.Topics,
		Difficulty: c.Difficulty,
	}
}
