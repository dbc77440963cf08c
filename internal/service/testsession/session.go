package testsession

import (
	"fmt"
	"sync"
	"time"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

// Session ties a State to its scheduler and tracks the lifecycle phase.
type Session struct {
	AttemptID string
	UserID    uint
	Config    entity.TestConfig
	StartedAt time.Time
	State     *State

	mu        sync.Mutex
	phase     Phase
	inFlight  bool
	result    *Result
	scheduler *Scheduler
}

// NewSession returns a session in the Running phase.
func NewSession(attemptID string, userID uint, cfg entity.TestConfig, state *State, startedAt time.Time) *Session {
	return &Session{
		AttemptID: attemptID,
		UserID:    userID,
		Config:    cfg,
		StartedAt: startedAt,
		State:     state,
		phase:     PhaseRunning,
	}
}

// Attach sets the scheduler stopped by Stop, BeginSubmit and End.
func (s *Session) Attach(scheduler *Scheduler) {
	s.mu.Lock()
	s.scheduler = scheduler
	s.mu.Unlock()
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Result returns the stored result once the session has ended after a
// successful submission.
func (s *Session) Result() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// SelectAnswer records an answer while the test is running or paused.
func (s *Session) SelectAnswer(questionID, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActive(); err != nil {
		return err
	}
	return s.State.SelectAnswer(questionID, answer)
}

// Navigate moves the current index while the test is running or paused.
func (s *Session) Navigate(index int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireActive(); err != nil {
		return 0, err
	}
	return s.State.Navigate(index), nil
}

// Pause moves Running to Paused. Pausing a paused session is a no-op.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhasePaused:
		return nil
	case PhaseRunning:
		s.State.Pause()
		s.phase = PhasePaused
		return nil
	}
	return fmt.Errorf("%w: cannot pause in phase %s", ErrInvalidTransition, s.phase)
}

// Resume moves Paused to Running. Resuming a running session is a no-op.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case PhaseRunning:
		return nil
	case PhasePaused:
		s.State.Resume()
		s.phase = PhaseRunning
		return nil
	}
	return fmt.Errorf("%w: cannot resume in phase %s", ErrInvalidTransition, s.phase)
}

// BeginSubmit admits at most one submission at a time. It moves the session to
// Submitting and stops its timers without a final save. It returns
// ErrAlreadySubmitted once a submission has succeeded (Result holds the
// outcome), ErrSubmitInProgress while another submission runs and
// ErrSessionEnded for an abandoned session.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.phase == PhaseEnded && s.result != nil:
		return ErrAlreadySubmitted
	case s.phase == PhaseEnded:
		return ErrSessionEnded
	case s.inFlight:
		return ErrSubmitInProgress
	}

	s.phase = PhaseSubmitting
	s.inFlight = true
	if s.scheduler != nil {
		s.scheduler.Stop(false)
	}
	return nil
}

// FinishSubmit records the outcome of the submission admitted by BeginSubmit.
// On failure the session stays in Submitting so the caller may retry.
func (s *Session) FinishSubmit(result *Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	if err != nil {
		return
	}
	s.result = result
	s.phase = PhaseEnded
}

// End abandons the session and stops its timers without saving. A session
// with a submission in flight cannot be ended.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return ErrSubmitInProgress
	}
	s.phase = PhaseEnded
	if s.scheduler != nil {
		s.scheduler.Stop(false)
	}
	return nil
}

// Suspend stops the timers and writes a final snapshot so the test can be
// resumed later. It reports whether a running scheduler was stopped.
func (s *Session) Suspend() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEnded || s.phase == PhaseSubmitting || s.scheduler == nil {
		return false
	}
	return s.scheduler.Stop(true)
}

// requireActive must be called with s.mu held.
func (s *Session) requireActive() error {
	switch s.phase {
	case PhaseRunning, PhasePaused:
		return nil
	case PhaseSubmitting:
		if s.inFlight {
			return ErrSubmitInProgress
		}
		return fmt.Errorf("%w: submission pending retry", ErrInvalidTransition)
	}
	return ErrSessionEnded
}

// Wait blocks until the session's timers and any final save have finished.
func (s *Session) Wait() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.mu.Unlock()

	if scheduler != nil {
		scheduler.Wait()
	}
}
