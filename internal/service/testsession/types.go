package testsession

import (
	"fmt"
	"time"

	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
)

// Phase is the lifecycle position of a session.
type Phase string

const (
	PhaseConfiguring Phase = "configuring"
	PhaseLoading     Phase = "loading"
	PhaseRunning     Phase = "running"
	PhasePaused      Phase = "paused"
	PhaseSubmitting  Phase = "submitting"
	PhaseEnded       Phase = "ended"
)

// MultipleAnswerSeparator joins the selected option texts of a Multiple Choice answer.
const MultipleAnswerSeparator = "\n"

// Errors returned by the session core. Each wraps an application sentinel so
// handlers can map it without knowing this package.
var (
	ErrInvalidConfig     = fmt.Errorf("%w: invalid test configuration", apperrors.ErrValidation)
	ErrUnknownQuestion   = fmt.Errorf("%w: question is not part of this test", apperrors.ErrValidation)
	ErrUnknownOption     = fmt.Errorf("%w: answer is not one of the question options", apperrors.ErrValidation)
	ErrSubmitInProgress  = fmt.Errorf("%w: submission already in progress", apperrors.ErrConflict)
	ErrAlreadySubmitted  = fmt.Errorf("%w: test already submitted", apperrors.ErrConflict)
	ErrSessionEnded      = fmt.Errorf("%w: test session has ended", apperrors.ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: operation not allowed in current phase", apperrors.ErrConflict)
)

// Config holds the timer settings shared by every session.
type Config struct {
	CountdownInterval  time.Duration // one countdown step, normally a second
	AutosaveInterval   time.Duration
	SaveTimeout        time.Duration // bound for a single autosave or final save
	TimeWarningSeconds int           // remaining seconds at which a warning is raised, 0 disables
}

// DefaultConfig returns the production timer settings.
func DefaultConfig() *Config {
	return &Config{
		CountdownInterval:  time.Second,
		AutosaveInterval:   30 * time.Second,
		SaveTimeout:        5 * time.Second,
		TimeWarningSeconds: 300,
	}
}
