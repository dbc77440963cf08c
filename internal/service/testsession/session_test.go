package testsession

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeeprep/jee-prep-api/internal/domain/entity"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	st := newState(t, 60)
	sess := NewSession("attempt-1", 7, entity.TestConfig{Subjects: []string{"Physics"}, Duration: 1, NumberOfQuestions: 3}, st, time.Now())
	sch := NewScheduler(testConfig(), NewManualClock(), st, 7, Hooks{})
	sess.Attach(sch)
	sch.Start(context.Background())
	t.Cleanup(func() { sch.Stop(false) })
	return sess
}

func TestSession_PauseResume(t *testing.T) {
	sess := newSession(t)

	require.NoError(t, sess.Pause())
	assert.Equal(t, PhasePaused, sess.Phase())
	assert.True(t, sess.State.Paused())
	require.NoError(t, sess.Pause())

	require.NoError(t, sess.Resume())
	assert.Equal(t, PhaseRunning, sess.Phase())
	assert.False(t, sess.State.Paused())
}

func TestSession_AnswersAllowedWhilePaused(t *testing.T) {
	sess := newSession(t)
	require.NoError(t, sess.Pause())

	require.NoError(t, sess.SelectAnswer("1", "4"))
	idx, err := sess.Navigate(5)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestSession_SubmitFromPaused(t *testing.T) {
	sess := newSession(t)
	require.NoError(t, sess.Pause())

	require.NoError(t, sess.BeginSubmit())

	assert.Equal(t, PhaseSubmitting, sess.Phase())
	assert.ErrorIs(t, sess.Resume(), ErrInvalidTransition)
	assert.ErrorIs(t, sess.SelectAnswer("1", "4"), ErrSubmitInProgress)
}

func TestSession_SubmitAtMostOnce(t *testing.T) {
	sess := newSession(t)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- sess.BeginSubmit()
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for err := range results {
		if err == nil {
			admitted++
			continue
		}
		assert.ErrorIs(t, err, ErrSubmitInProgress)
	}
	assert.Equal(t, 1, admitted)
}

func TestSession_SubmitFailureAllowsRetry(t *testing.T) {
	sess := newSession(t)

	require.NoError(t, sess.BeginSubmit())
	sess.FinishSubmit(nil, errors.New("db down"))

	assert.Equal(t, PhaseSubmitting, sess.Phase())
	assert.Nil(t, sess.Result())
	assert.ErrorIs(t, sess.SelectAnswer("1", "4"), ErrInvalidTransition)

	require.NoError(t, sess.BeginSubmit())
	res := &Result{TotalQuestions: 3}
	sess.FinishSubmit(res, nil)

	assert.Equal(t, PhaseEnded, sess.Phase())
	assert.Same(t, res, sess.Result())
	assert.ErrorIs(t, sess.BeginSubmit(), ErrAlreadySubmitted)
}

func TestSession_End(t *testing.T) {
	sess := newSession(t)

	require.NoError(t, sess.End())

	assert.Equal(t, PhaseEnded, sess.Phase())
	assert.ErrorIs(t, sess.BeginSubmit(), ErrSessionEnded)
	assert.ErrorIs(t, sess.SelectAnswer("1", "4"), ErrSessionEnded)
	assert.False(t, sess.Suspend())
}

func TestSession_EndRejectedDuringSubmit(t *testing.T) {
	sess := newSession(t)
	require.NoError(t, sess.BeginSubmit())

	assert.ErrorIs(t, sess.End(), ErrSubmitInProgress)
}

func TestSession_SuspendSavesOnce(t *testing.T) {
	st := newState(t, 60)
	saved := make(chan Snapshot, 2)
	sess := NewSession("attempt-1", 7, entity.TestConfig{}, st, time.Now())
	sch := NewScheduler(testConfig(), NewManualClock(), st, 7, Hooks{
		Save: func(ctx context.Context, snap Snapshot) error {
			saved <- snap
			return nil
		},
	})
	sess.Attach(sch)
	sch.Start(context.Background())

	assert.True(t, sess.Suspend())
	assert.False(t, sess.Suspend())

	snap := waitFor(t, saved)
	assert.Equal(t, 60, snap.TimeRemaining)
}
