package testsession

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// Snapshot is a point-in-time copy of a session's mutable state.
type Snapshot struct {
	Answers       entity.AnswerMap `json:"answers"`
	TimeRemaining int              `json:"timeRemaining"`
	Paused        bool             `json:"paused"`
	CurrentIndex  int              `json:"currentIndex"`
}

// State is the in-memory state of one timed test. All methods are safe for
// concurrent use.
type State struct {
	mu sync.Mutex

	questions []entity.Question
	byID      map[string]int
	duration  int

	answers   entity.AnswerMap
	remaining int
	paused    bool
	current   int
	expired   bool
}

// QuestionKey is the answer map key of a question.
func QuestionKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Start creates a running state with the full duration on the clock.
func Start(questions []entity.Question, durationSeconds int) (*State, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidConfig)
	}
	if durationSeconds <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrInvalidConfig, durationSeconds)
	}

	byID := make(map[string]int, len(questions))
	for i, q := range questions {
		byID[QuestionKey(q.ID)] = i
	}

	return &State{
		questions: questions,
		byID:      byID,
		duration:  durationSeconds,
		answers:   entity.AnswerMap{},
		remaining: durationSeconds,
	}, nil
}

// Restore loads answers and remaining time from a saved snapshot. Answers to
// questions outside this test are dropped and the remaining time is clamped to
// [0, duration].
func (s *State) Restore(answers entity.AnswerMap, remaining int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers = entity.AnswerMap{}
	for key, answer := range answers {
		if _, ok := s.byID[key]; ok && answer != "" {
			s.answers[key] = answer
		}
	}

	switch {
	case remaining < 0:
		remaining = 0
	case remaining > s.duration:
		remaining = s.duration
	}
	s.remaining = remaining
	s.expired = remaining == 0
}

// SelectAnswer records answer for the question, overwriting any earlier answer.
// An empty answer clears the entry.
func (s *State) SelectAnswer(questionID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[questionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}

	if answer == "" {
		delete(s.answers, questionID)
		return nil
	}

	q := &s.questions[idx]
	switch q.Type {
	case entity.QuestionTypeNumerical:
		if strings.TrimSpace(answer) == "" {
			delete(s.answers, questionID)
			return nil
		}
	case entity.QuestionTypeMultipleChoice:
		selected := SplitAnswer(answer)
		if len(selected) == 0 {
			delete(s.answers, questionID)
			return nil
		}
		for _, text := range selected {
			if !q.HasOption(text) {
				return fmt.Errorf("%w: %q", ErrUnknownOption, text)
			}
		}
		answer = strings.Join(selected, MultipleAnswerSeparator)
	default:
		if !q.HasOption(answer) {
			return fmt.Errorf("%w: %q", ErrUnknownOption, answer)
		}
	}

	s.answers[questionID] = answer
	return nil
}

// Navigate moves to index, clamped to the question range, and returns the
// effective index.
func (s *State) Navigate(index int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case index < 0:
		index = 0
	case index >= len(s.questions):
		index = len(s.questions) - 1
	}
	s.current = index
	return index
}

// Tick removes one second from the clock. It does nothing while paused or at
// zero, and reports true exactly once: on the tick that reaches zero.
func (s *State) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused || s.remaining == 0 {
		return false
	}
	s.remaining--
	if s.remaining == 0 && !s.expired {
		s.expired = true
		return true
	}
	return false
}

func (s *State) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *State) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

func (s *State) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *State) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Expired reports whether the clock has run out.
func (s *State) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining == 0
}

// Duration returns the configured test length in seconds.
func (s *State) Duration() int {
	return s.duration
}

// Questions returns the questions in test order. The slice must not be modified.
func (s *State) Questions() []entity.Question {
	return s.questions
}

// Answers returns a copy of the recorded answers.
func (s *State) Answers() entity.AnswerMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyAnswers()
}

// Snapshot returns a copy of the mutable state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Answers:       s.copyAnswers(),
		TimeRemaining: s.remaining,
		Paused:        s.paused,
		CurrentIndex:  s.current,
	}
}

func (s *State) copyAnswers() entity.AnswerMap {
	out := make(entity.AnswerMap, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// SplitAnswer splits a Multiple Choice answer into its selected option texts,
// dropping blanks and duplicates.
func SplitAnswer(answer string) []string {
	parts := strings.Split(answer, MultipleAnswerSeparator)
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
