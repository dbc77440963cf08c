package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKinematicsQuestion() *Question {
	return &Question{
		ID:         1,
		Title:      "Projectile range",
		Difficulty: DifficultyMedium,
		Type:       QuestionTypeSingleChoice,
		Options: OptionList{
			{Text: "10 m", IsCorrect: false},
			{Text: "20 m", IsCorrect: true},
			{Text: "30 m", IsCorrect: false},
		},
	}
}

func TestQuestion_CorrectOptions(t *testing.T) {
	// Arrange
	q := newKinematicsQuestion()

	// Act & Assert
	assert.Equal(t, []string{"20 m"}, q.CorrectOptions())

	q.Options[2].IsCorrect = true
	assert.Equal(t, []string{"20 m", "30 m"}, q.CorrectOptions(), "order follows the option list")
}

func TestQuestion_HasOption(t *testing.T) {
	q := newKinematicsQuestion()

	assert.True(t, q.HasOption("10 m"))
	assert.False(t, q.HasOption("10m"))
	assert.False(t, q.HasOption(""))
}

func TestOptionList_ValueAndScan(t *testing.T) {
	// Arrange
	opts := OptionList{{Text: "A", IsCorrect: true}, {Text: "B"}}

	// Act
	raw, err := opts.Value()
	require.NoError(t, err)

	var scanned OptionList
	require.NoError(t, scanned.Scan(raw))

	// Assert
	assert.Equal(t, opts, scanned)
}

func TestOptionList_EmptyAndNull(t *testing.T) {
	raw, err := OptionList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)

	var scanned OptionList
	require.NoError(t, scanned.Scan(nil))
	assert.Empty(t, scanned)

	assert.Error(t, scanned.Scan(42), "non-JSON types are rejected")
}

func TestStringArray_ScanString(t *testing.T) {
	var s StringArray
	require.NoError(t, s.Scan(`["Physics","Chemistry"]`))
	assert.Equal(t, StringArray{"Physics", "Chemistry"}, s)
}

func TestIsValidDifficulty(t *testing.T) {
	assert.True(t, IsValidDifficulty("Easy"))
	assert.True(t, IsValidDifficulty("Hard"))
	assert.False(t, IsValidDifficulty("easy"))
	assert.False(t, IsValidDifficulty(""))
}

func TestTestConfig_Helpers(t *testing.T) {
	cfg := TestConfig{Subjects: []string{"Physics"}, Topics: []string{"Optics", "Waves"}, Duration: 20, NumberOfQuestions: 10}

	assert.Equal(t, 1200, cfg.DurationSeconds())
	assert.Equal(t, "Optics", cfg.SelectedTopic())
	assert.Equal(t, "", TestConfig{}.SelectedTopic())
	assert.Equal(t, QuestionFilter{Subjects: []string{"Physics"}, Topics: []string{"Optics", "Waves"}}, cfg.Filter())
}
