package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
	"github.com/jeeprep/jee-prep-api/internal/domain/repository"
	"github.com/jeeprep/jee-prep-api/internal/events"
	apperrors "github.com/jeeprep/jee-prep-api/internal/pkg/errors"
	"github.com/jeeprep/jee-prep-api/internal/service/testsession"
)

// StatusNoQuestions is reported instead of a phase when the question bank has
// nothing for the requested configuration.
const StatusNoQuestions = "no_questions"

// Live session events sent to the owner's websocket connections.
const (
	EventSessionTick        = "session:tick"
	EventSessionTimeWarning = "session:time_warning"
	EventSessionAutosaved   = "session:autosaved"
	EventSessionSubmitted   = "session:submitted"
)

// SessionNotifier pushes live events to a user's connections.
type SessionNotifier interface {
	SendEventToUser(userID string, eventType string, data interface{}) error
}

// AttemptRecorder persists a scored attempt.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, rec *AttemptRecord) error
}

// SessionView is what callers see of a session.
type SessionView struct {
	AttemptID     string              `json:"attemptId"`
	Status        string              `json:"status"`
	Config        entity.TestConfig   `json:"config"`
	Questions     []entity.Question   `json:"questions"`
	Answers       entity.AnswerMap    `json:"answers"`
	TimeRemaining int                 `json:"timeRemaining"`
	Paused        bool                `json:"paused"`
	CurrentIndex  int                 `json:"currentIndex"`
	Resumed       bool                `json:"resumed"`
	StartedAt     time.Time           `json:"startedAt"`
	Result        *testsession.Result `json:"result,omitempty"`
}

// SessionManagerConfig tunes the session manager.
type SessionManagerConfig struct {
	Timers         *testsession.Config
	FetchTimeout   time.Duration // bound for question fetch and resume lookup
	SubmitTimeout  time.Duration // bound for an automatic submission
	EndedRetention time.Duration // how long a submitted session keeps answering repeat submits
}

// DefaultSessionManagerConfig returns production defaults.
func DefaultSessionManagerConfig() SessionManagerConfig {
	return SessionManagerConfig{
		Timers:         testsession.DefaultConfig(),
		FetchTimeout:   10 * time.Second,
		SubmitTimeout:  15 * time.Second,
		EndedRetention: 10 * time.Minute,
	}
}

// SessionDependencies holds the collaborators of the session manager.
// Publisher and Notifier are optional.
type SessionDependencies struct {
	QuestionRepo repository.QuestionRepository
	ProgressRepo repository.ProgressRepository
	Recorder     AttemptRecorder
	Publisher    events.Publisher
	Notifier     SessionNotifier
	Clock        testsession.Clock
}

// SessionManager owns every live timed test of this process.
type SessionManager struct {
	config SessionManagerConfig
	deps   SessionDependencies

	sessions sync.Map // map[string]*testsession.Session

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSessionManager creates a session manager.
func NewSessionManager(config SessionManagerConfig, deps SessionDependencies) *SessionManager {
	if config.Timers == nil {
		config.Timers = testsession.DefaultConfig()
	}
	if deps.Clock == nil {
		deps.Clock = testsession.RealClock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	log.Println("[SessionManager] Session manager initialised")
	return &SessionManager{
		config: config,
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
	}
}

func sessionKey(userID uint, attemptID string) string {
	return strconv.FormatUint(uint64(userID), 10) + ":" + attemptID
}

// Start loads questions for cfg and starts the timers. When attemptID names a
// saved snapshot the test resumes from it, using the snapshot's config. A
// session this process already holds is returned unchanged.
func (m *SessionManager) Start(ctx context.Context, userID uint, cfg entity.TestConfig, attemptID string) (*SessionView, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthorized
	}

	if attemptID == "" {
		attemptID = uuid.NewString()
	} else if sess, ok := m.load(userID, attemptID); ok {
		return m.view(sess, false), nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, m.config.FetchTimeout)
	defer cancel()

	var snapshot *entity.TestProgress
	progress, err := m.deps.ProgressRepo.Get(fetchCtx, userID, attemptID)
	switch {
	case err == nil:
		snapshot = progress
		cfg = progress.Config.Data()
	case !errors.Is(err, apperrors.ErrNotFound):
		log.Printf("[SessionManager] Resume lookup failed for user #%d attempt %s, starting fresh: %v", userID, attemptID, err)
	}

	if err := ValidateTestConfig(cfg); err != nil {
		return nil, err
	}

	questions, err := m.deps.QuestionRepo.Fetch(fetchCtx, cfg.Filter(), cfg.NumberOfQuestions)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	if len(questions) == 0 {
		log.Printf("[SessionManager] No questions for user #%d (subjects=%v topics=%v difficulty=%q)",
			userID, cfg.Subjects, cfg.Topics, cfg.Difficulty)
		return &SessionView{
			AttemptID: attemptID,
			Status:    StatusNoQuestions,
			Config:    cfg,
			Questions: []entity.Question{},
			Answers:   entity.AnswerMap{},
		}, nil
	}

	state, err := testsession.Start(questions, cfg.DurationSeconds())
	if err != nil {
		return nil, err
	}
	if snapshot != nil {
		state.Restore(snapshot.Answers.Data(), snapshot.TimeRemaining)
	}

	sess := testsession.NewSession(attemptID, userID, cfg, state, time.Now())
	if snapshot != nil && snapshot.Paused && !state.Expired() {
		// A test suspended while paused comes back paused.
		_ = sess.Pause()
	}

	scheduler := testsession.NewScheduler(m.config.Timers, m.deps.Clock, state, userID, testsession.Hooks{
		OnTick:   func(remaining int) { m.onTick(sess, remaining) },
		OnExpire: func() { m.autoSubmit(sess) },
		Save:     m.saveFunc(sess),
		OnSaved: func(snap testsession.Snapshot) {
			m.notify(sess, EventSessionAutosaved, map[string]interface{}{
				"attemptId":     sess.AttemptID,
				"timeRemaining": snap.TimeRemaining,
			})
		},
	})
	sess.Attach(scheduler)

	if actual, loaded := m.sessions.LoadOrStore(sessionKey(userID, attemptID), sess); loaded {
		return m.view(actual.(*testsession.Session), false), nil
	}
	scheduler.Start(m.ctx)

	if state.Expired() {
		log.Printf("[SessionManager] Attempt %s of user #%d resumed with no time left, submitting", attemptID, userID)
		go m.autoSubmit(sess)
	}

	m.publish(events.EventAttemptStarted, events.AttemptStartedEvent{
		UserID:         userID,
		AttemptID:      attemptID,
		Subjects:       cfg.Subjects,
		Topics:         cfg.Topics,
		Difficulty:     cfg.Difficulty,
		Duration:       cfg.Duration,
		TotalQuestions: len(questions),
		Resumed:        snapshot != nil,
	})

	log.Printf("[SessionManager] Attempt %s started for user #%d: %d questions, %ds left (resumed=%t)",
		attemptID, userID, len(questions), state.Remaining(), snapshot != nil)
	return m.view(sess, snapshot != nil), nil
}

// Get returns the current view of a live or recently submitted session.
func (m *SessionManager) Get(userID uint, attemptID string) (*SessionView, error) {
	sess, err := m.lookup(userID, attemptID)
	if err != nil {
		return nil, err
	}
	return m.view(sess, false), nil
}

// SelectAnswer records an answer. An empty answer clears it.
func (m *SessionManager) SelectAnswer(userID uint, attemptID, questionID, answer string) error {
	sess, err := m.lookup(userID, attemptID)
	if err != nil {
		return err
	}
	return sess.SelectAnswer(questionID, answer)
}

// Navigate moves the current question and returns the effective index.
func (m *SessionManager) Navigate(userID uint, attemptID string, index int) (int, error) {
	sess, err := m.lookup(userID, attemptID)
	if err != nil {
		return 0, err
	}
	return sess.Navigate(index)
}

func (m *SessionManager) Pause(userID uint, attemptID string) (*SessionView, error) {
	sess, err := m.lookup(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := sess.Pause(); err != nil {
		return nil, err
	}
	return m.view(sess, false), nil
}

func (m *SessionManager) Resume(userID uint, attemptID string) (*SessionView, error) {
	sess, err := m.lookup(userID, attemptID)
	if err != nil {
		return nil, err
	}
	if err := sess.Resume(); err != nil {
		return nil, err
	}
	return m.view(sess, false), nil
}

// Submit grades and persists the attempt. A repeat submit after success
// returns the stored result; a submit racing another one gets
// testsession.ErrSubmitInProgress.
func (m *SessionManager) Submit(ctx context.Context, userID uint, attemptID string) (*testsession.Result, error) {
	sess, err := m.lookup(userID, attemptID)
	if err != nil {
		return nil, err
	}
	return m.submit(ctx, sess, false)
}

// Suspend stops the timers with a final save and forgets the session. The test
// can be resumed later from the snapshot.
func (m *SessionManager) Suspend(userID uint, attemptID string) error {
	sess, err := m.lookup(userID, attemptID)
	if err != nil {
		return err
	}

	switch sess.Phase() {
	case testsession.PhaseSubmitting:
		return fmt.Errorf("%w: submission pending", testsession.ErrInvalidTransition)
	case testsession.PhaseEnded:
		m.sessions.CompareAndDelete(sessionKey(userID, attemptID), sess)
		return nil
	}

	sess.Suspend()
	m.sessions.CompareAndDelete(sessionKey(userID, attemptID), sess)
	log.Printf("[SessionManager] Attempt %s of user #%d suspended", attemptID, userID)
	return nil
}

// Abandon ends the session without a result and deletes its snapshot.
func (m *SessionManager) Abandon(ctx context.Context, userID uint, attemptID string) error {
	sess, err := m.lookup(userID, attemptID)
	if err != nil {
		return err
	}
	if sess.Result() != nil {
		return testsession.ErrAlreadySubmitted
	}
	if err := sess.End(); err != nil {
		return err
	}
	m.sessions.CompareAndDelete(sessionKey(userID, attemptID), sess)

	if err := m.deps.ProgressRepo.Delete(ctx, userID, attemptID); err != nil {
		log.Printf("[SessionManager] Failed to delete snapshot of abandoned attempt %s: %v", attemptID, err)
	}

	m.publish(events.EventAttemptAbandoned, events.AttemptAbandonedEvent{UserID: userID, AttemptID: attemptID})
	log.Printf("[SessionManager] Attempt %s of user #%d abandoned", attemptID, userID)
	return nil
}

// ActiveCount returns the number of sessions that are still running or paused.
func (m *SessionManager) ActiveCount() int {
	n := 0
	m.sessions.Range(func(_, value interface{}) bool {
		switch value.(*testsession.Session).Phase() {
		case testsession.PhaseRunning, testsession.PhasePaused:
			n++
		}
		return true
	})
	return n
}

// Shutdown suspends every live session and waits for their final saves until
// ctx expires.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	var suspended []*testsession.Session
	m.sessions.Range(func(key, value interface{}) bool {
		sess := value.(*testsession.Session)
		if sess.Suspend() {
			suspended = append(suspended, sess)
		}
		m.sessions.Delete(key)
		return true
	})
	log.Printf("[SessionManager] Shutting down, %d sessions suspended", len(suspended))

	done := make(chan struct{})
	go func() {
		for _, sess := range suspended {
			sess.Wait()
		}
		close(done)
	}()

	defer m.cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session shutdown interrupted: %w", ctx.Err())
	}
}

func (m *SessionManager) load(userID uint, attemptID string) (*testsession.Session, bool) {
	value, ok := m.sessions.Load(sessionKey(userID, attemptID))
	if !ok {
		return nil, false
	}
	return value.(*testsession.Session), true
}

func (m *SessionManager) lookup(userID uint, attemptID string) (*testsession.Session, error) {
	if attemptID == "" {
		return nil, ErrMissingTestID
	}
	sess, ok := m.load(userID, attemptID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTestNotActive, attemptID)
	}
	return sess, nil
}

func (m *SessionManager) submit(ctx context.Context, sess *testsession.Session, auto bool) (*testsession.Result, error) {
	if err := sess.BeginSubmit(); err != nil {
		if errors.Is(err, testsession.ErrAlreadySubmitted) {
			return sess.Result(), nil
		}
		return nil, err
	}

	state := sess.State
	result := testsession.Score(state.Questions(), state.Answers()).WithTimeSpent(state.Duration(), state.Remaining())

	rec := &AttemptRecord{
		UserID:      sess.UserID,
		AttemptID:   sess.AttemptID,
		Config:      sess.Config,
		Questions:   state.Questions(),
		Result:      result,
		SubmittedAt: time.Now(),
	}
	if err := m.deps.Recorder.RecordAttempt(ctx, rec); err != nil {
		sess.FinishSubmit(nil, err)
		log.Printf("[SessionManager] Failed to persist attempt %s of user #%d: %v", sess.AttemptID, sess.UserID, err)
		return nil, fmt.Errorf("persist attempt: %w", err)
	}
	sess.FinishSubmit(&result, nil)
	m.scheduleEviction(sess)

	m.notify(sess, EventSessionSubmitted, map[string]interface{}{
		"attemptId":      sess.AttemptID,
		"score":          result.Score,
		"correctAnswers": result.CorrectAnswers,
		"autoSubmitted":  auto,
	})
	m.publish(events.EventAttemptSubmitted, events.AttemptSubmittedEvent{
		UserID:            sess.UserID,
		AttemptID:         sess.AttemptID,
		TotalQuestions:    result.TotalQuestions,
		AnsweredQuestions: result.AnsweredQuestions,
		CorrectAnswers:    result.CorrectAnswers,
		Score:             result.Score,
		TimeSpent:         result.TimeSpent,
		AutoSubmitted:     auto,
	})

	log.Printf("[SessionManager] Attempt %s of user #%d submitted: %d/%d correct (auto=%t)",
		sess.AttemptID, sess.UserID, result.CorrectAnswers, result.TotalQuestions, auto)
	return &result, nil
}

func (m *SessionManager) autoSubmit(sess *testsession.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.SubmitTimeout)
	defer cancel()

	if _, err := m.submit(ctx, sess, true); err != nil && !errors.Is(err, testsession.ErrSubmitInProgress) {
		log.Printf("[SessionManager] Auto-submit of attempt %s failed: %v", sess.AttemptID, err)
	}
}

func (m *SessionManager) scheduleEviction(sess *testsession.Session) {
	key := sessionKey(sess.UserID, sess.AttemptID)
	if m.config.EndedRetention <= 0 {
		m.sessions.CompareAndDelete(key, sess)
		return
	}
	time.AfterFunc(m.config.EndedRetention, func() {
		m.sessions.CompareAndDelete(key, sess)
	})
}

func (m *SessionManager) saveFunc(sess *testsession.Session) testsession.SaveFunc {
	return func(ctx context.Context, snap testsession.Snapshot) error {
		progress := entity.NewTestProgress(sess.UserID, sess.AttemptID, snap.Answers, snap.TimeRemaining, sess.Config, time.Now())
		progress.Paused = snap.Paused
		return m.deps.ProgressRepo.Put(ctx, progress)
	}
}

func (m *SessionManager) onTick(sess *testsession.Session, remaining int) {
	m.notify(sess, EventSessionTick, map[string]interface{}{
		"attemptId":     sess.AttemptID,
		"timeRemaining": remaining,
	})

	warnAt := m.config.Timers.TimeWarningSeconds
	if warnAt > 0 && remaining == warnAt {
		m.notify(sess, EventSessionTimeWarning, map[string]interface{}{
			"attemptId":     sess.AttemptID,
			"timeRemaining": remaining,
		})
		m.publish(events.EventAttemptTimeWarning, events.AttemptTimeWarningEvent{
			UserID:           sess.UserID,
			AttemptID:        sess.AttemptID,
			SecondsRemaining: remaining,
		})
	}
}

func (m *SessionManager) notify(sess *testsession.Session, eventType string, data interface{}) {
	if m.deps.Notifier == nil {
		return
	}
	userID := strconv.FormatUint(uint64(sess.UserID), 10)
	if err := m.deps.Notifier.SendEventToUser(userID, eventType, data); err != nil {
		log.Printf("[SessionManager] Failed to send %s to user #%s: %v", eventType, userID, err)
	}
}

func (m *SessionManager) publish(eventType events.EventType, data interface{}) {
	if m.deps.Publisher == nil {
		return
	}
	event := events.NewEvent(eventType, data)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.deps.Publisher.Publish(ctx, event); err != nil {
			log.Printf("[SessionManager] Failed to publish %s: %v", eventType, err)
		}
	}()
}

func (m *SessionManager) view(sess *testsession.Session, resumed bool) *SessionView {
	snap := sess.State.Snapshot()
	return &SessionView{
		AttemptID:     sess.AttemptID,
		Status:        string(sess.Phase()),
		Config:        sess.Config,
		Questions:     sess.State.Questions(),
		Answers:       snap.Answers,
		TimeRemaining: snap.TimeRemaining,
		Paused:        snap.Paused,
		CurrentIndex:  snap.CurrentIndex,
		Resumed:       resumed,
		StartedAt:     sess.StartedAt,
		Result:        sess.Result(),
	}
}
