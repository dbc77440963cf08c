package testsession

import (
	"math"
	"strconv"
	"strings"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// numericTolerance is the largest difference at which two numerical answers
// are still considered equal.
const numericTolerance = 1e-6

// Outcome is the grading of a single question.
type Outcome struct {
	QuestionID uint   `json:"questionId"`
	Answer     string `json:"answer"`
	Answered   bool   `json:"answered"`
	IsCorrect  bool   `json:"isCorrect"`
}

// Result is the graded outcome of a test.
type Result struct {
	TotalQuestions    int       `json:"totalQuestions"`
	AnsweredQuestions int       `json:"answeredQuestions"`
	CorrectAnswers    int       `json:"correctAnswers"`
	Score             float64   `json:"score"`
	TimeSpent         int       `json:"timeSpent"`
	Outcomes          []Outcome `json:"outcomes,omitempty"`
}

// Score grades answers against questions. Unanswered questions count as
// incorrect and stay in the denominator.
func Score(questions []entity.Question, answers entity.AnswerMap) Result {
	res := Result{
		TotalQuestions: len(questions),
		Outcomes:       make([]Outcome, 0, len(questions)),
	}

	for i := range questions {
		q := &questions[i]
		answer, answered := answers[QuestionKey(q.ID)]
		answered = answered && answer != ""

		correct := answered && IsCorrect(q, answer)
		if answered {
			res.AnsweredQuestions++
		}
		if correct {
			res.CorrectAnswers++
		}
		res.Outcomes = append(res.Outcomes, Outcome{
			QuestionID: q.ID,
			Answer:     answer,
			Answered:   answered,
			IsCorrect:  correct,
		})
	}

	res.Score = Percentage(res.CorrectAnswers, res.TotalQuestions)
	return res
}

// WithTimeSpent sets the time spent from the test duration and the seconds
// left on the clock.
func (r Result) WithTimeSpent(durationSeconds, remaining int) Result {
	spent := durationSeconds - remaining
	if spent < 0 {
		spent = 0
	}
	r.TimeSpent = spent
	return r
}

// Percentage returns correct/total*100, or 0 for an empty test.
func Percentage(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// IsCorrect grades one answer by question type.
func IsCorrect(q *entity.Question, answer string) bool {
	correct := q.CorrectOptions()
	if len(correct) == 0 {
		return false
	}

	switch q.Type {
	case entity.QuestionTypeMultipleChoice:
		return sameSet(SplitAnswer(answer), correct)
	case entity.QuestionTypeNumerical:
		return numericMatch(answer, correct[0])
	default:
		for _, text := range correct {
			if answer == text {
				return true
			}
		}
		return false
	}
}

func sameSet(selected, correct []string) bool {
	want := make(map[string]struct{}, len(correct))
	for _, c := range correct {
		want[c] = struct{}{}
	}
	if len(selected) != len(want) {
		return false
	}
	for _, s := range selected {
		if _, ok := want[s]; !ok {
			return false
		}
	}
	return true
}

func numericMatch(answer, expected string) bool {
	a := strings.TrimSpace(answer)
	e := strings.TrimSpace(expected)

	av, errA := strconv.ParseFloat(a, 64)
	ev, errE := strconv.ParseFloat(e, 64)
	if errA == nil && errE == nil {
		return math.Abs(av-ev) < numericTolerance
	}
	return a == e
}
