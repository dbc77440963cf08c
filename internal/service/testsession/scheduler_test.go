package testsession

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Helpers
// ============================================================================

func testConfig() *Config {
	return &Config{
		CountdownInterval:  time.Second,
		AutosaveInterval:   30 * time.Second,
		SaveTimeout:        time.Second,
		TimeWarningSeconds: 0,
	}
}

func waitFor[T any](t *testing.T, ch chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scheduler callback")
	}
	var zero T
	return zero
}

// ============================================================================
// Countdown
// ============================================================================

func TestScheduler_CountdownExpiresOnce(t *testing.T) {
	// Arrange
	clock := NewManualClock()
	st := newState(t, 3)
	ticks := make(chan int, 10)
	expired := make(chan struct{}, 2)

	sch := NewScheduler(testConfig(), clock, st, 7, Hooks{
		OnTick:   func(remaining int) { ticks <- remaining },
		OnExpire: func() { expired <- struct{}{} },
	})
	sch.Start(context.Background())
	defer sch.Stop(false)

	// Act
	for i := 0; i < 3; i++ {
		require.Equal(t, 1, clock.Fire(time.Second))
	}

	// Assert
	waitFor(t, expired)
	assert.Equal(t, 2, waitFor(t, ticks))
	assert.Equal(t, 1, waitFor(t, ticks))
	assert.Equal(t, 0, waitFor(t, ticks))
	assert.Equal(t, 0, st.Remaining())

	sch.Wait()
	assert.Equal(t, 0, clock.Fire(time.Second), "countdown ticker must be stopped after expiry")
	assert.Len(t, expired, 0)
}

func TestScheduler_ExpiryEndsAutosave(t *testing.T) {
	// Arrange
	clock := NewManualClock()
	st := newState(t, 1)
	expired := make(chan struct{}, 1)
	var saves int32

	sch := NewScheduler(testConfig(), clock, st, 7, Hooks{
		OnExpire: func() { expired <- struct{}{} },
		Save: func(ctx context.Context, snap Snapshot) error {
			atomic.AddInt32(&saves, 1)
			return nil
		},
	})
	sch.Start(context.Background())

	// Act
	require.Equal(t, 1, clock.Fire(time.Second))
	waitFor(t, expired)

	waited := make(chan struct{})
	go func() {
		sch.Wait()
		close(waited)
	}()

	// Assert
	waitFor(t, waited)
	assert.Equal(t, 0, clock.Fire(30*time.Second), "autosave ticker must be stopped after expiry")
	assert.Equal(t, int32(0), atomic.LoadInt32(&saves))
	assert.True(t, sch.Stop(false))
}

func TestScheduler_CountdownHoldsWhilePaused(t *testing.T) {
	clock := NewManualClock()
	st := newState(t, 10)
	ticks := make(chan int, 10)

	sch := NewScheduler(testConfig(), clock, st, 7, Hooks{
		OnTick: func(remaining int) { ticks <- remaining },
	})
	sch.Start(context.Background())
	defer sch.Stop(false)

	st.Pause()
	// A tick is only received once the previous one has been handled, so
	// after the third send the first two were processed while paused.
	for i := 0; i < 3; i++ {
		require.Equal(t, 1, clock.Fire(time.Second))
	}
	assert.Equal(t, 10, st.Remaining())
	assert.Len(t, ticks, 0)

	st.Resume()
	require.Equal(t, 1, clock.Fire(time.Second))

	// The first change after resuming is a single step down.
	assert.Equal(t, 9, waitFor(t, ticks))
	assert.GreaterOrEqual(t, st.Remaining(), 8)
}

// ============================================================================
// Autosave
// ============================================================================

func TestScheduler_AutosaveSuppressedWhilePaused(t *testing.T) {
	// Arrange
	clock := NewManualClock()
	st := newState(t, 100)
	saves := make(chan Snapshot, 5)

	sch := NewScheduler(testConfig(), clock, st, 7, Hooks{
		Save: func(ctx context.Context, snap Snapshot) error {
			saves <- snap
			return nil
		},
	})
	sch.Start(context.Background())
	defer sch.Stop(false)

	// Act
	st.Pause()
	require.Equal(t, 1, clock.Fire(30*time.Second))
	require.Equal(t, 1, clock.Fire(30*time.Second))
	assert.Len(t, saves, 0)

	st.Resume()
	require.Equal(t, 1, clock.Fire(30*time.Second))

	// Assert
	snap := waitFor(t, saves)
	assert.False(t, snap.Paused)
	sch.Stop(false)
	sch.Wait()
	for len(saves) > 0 {
		assert.False(t, (<-saves).Paused)
	}
}

func TestScheduler_AutosaveSkippedWithoutOwner(t *testing.T) {
	clock := NewManualClock()
	st := newState(t, 100)
	var calls int32

	sch := NewScheduler(testConfig(), clock, st, 0, Hooks{
		Save: func(ctx context.Context, snap Snapshot) error {
			atomic.AddInt32(&calls, 1)
			return nil
		},
	})
	sch.Start(context.Background())

	clock.Fire(30 * time.Second)
	clock.Fire(30 * time.Second)
	sch.Stop(true)
	sch.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestScheduler_AutosaveFailureDoesNotStopLoop(t *testing.T) {
	clock := NewManualClock()
	st := newState(t, 100)
	saved := make(chan Snapshot, 5)
	var calls int32

	sch := NewScheduler(testConfig(), clock, st, 7, Hooks{
		Save: func(ctx context.Context, snap Snapshot) error {
			if atomic.AddInt32(&calls, 1) == 1 {
				return errors.New("db down")
			}
			return nil
		},
		OnSaved: func(snap Snapshot) { saved <- snap },
	})
	sch.Start(context.Background())
	defer sch.Stop(false)

	require.NoError(t, st.SelectAnswer("1", "4"))
	clock.Fire(30 * time.Second)
	clock.Fire(30 * time.Second)

	snap := waitFor(t, saved)
	assert.Equal(t, "4", snap.Answers["1"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

// ============================================================================
// Stop
// ============================================================================

func TestScheduler_StopIsIdempotent(t *testing.T) {
	clock := NewManualClock()
	st := newState(t, 100)
	var calls int32

	sch := NewScheduler(testConfig(), clock, st, 7, Hooks{
		Save: func(ctx context.Context, snap Snapshot) error {
			atomic.AddInt32(&calls, 1)
			return nil
		},
	})
	sch.Start(context.Background())

	assert.True(t, sch.Stop(true))
	assert.False(t, sch.Stop(true))
	assert.False(t, sch.Stop(false))
	sch.Wait()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return atomic.LoadInt32(&calls) > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, 0, clock.Fire(time.Second))
	assert.Equal(t, 0, clock.Fire(30*time.Second))
}

func TestScheduler_FinalSaveDoesNotBlockStop(t *testing.T) {
	clock := NewManualClock()
	st := newState(t, 100)
	release := make(chan struct{})
	saved := make(chan Snapshot, 1)

	sch := NewScheduler(testConfig(), clock, st, 7, Hooks{
		Save: func(ctx context.Context, snap Snapshot) error {
			<-release
			saved <- snap
			return nil
		},
	})
	sch.Start(context.Background())

	done := make(chan struct{})
	go func() {
		sch.Stop(true)
		close(done)
	}()

	waitFor(t, done)
	close(release)
	snap := waitFor(t, saved)
	assert.Equal(t, 100, snap.TimeRemaining)
}

func TestScheduler_StopsWithParentContext(t *testing.T) {
	clock := NewManualClock()
	st := newState(t, 100)
	ctx, cancel := context.WithCancel(context.Background())

	sch := NewScheduler(testConfig(), clock, st, 7, Hooks{})
	sch.Start(ctx)
	cancel()
	sch.Wait()

	assert.Equal(t, 0, clock.Fire(time.Second))
	assert.Equal(t, 100, st.Remaining())
}
