package testsession

import (
	"context"
	"log"
	"sync"
)

// SaveFunc persists a snapshot of the session.
type SaveFunc func(ctx context.Context, snap Snapshot) error

// Hooks are the callbacks a Scheduler drives. Any of them may be nil.
type Hooks struct {
	// OnTick runs after every countdown step that changed the clock.
	OnTick func(remaining int)
	// OnExpire runs once, when the clock reaches zero.
	OnExpire func()
	// Save is used by autosave and by the final save on Stop.
	Save SaveFunc
	// OnSaved runs after every successful autosave.
	OnSaved func(snap Snapshot)
}

// Scheduler runs the countdown and autosave loops of one session.
type Scheduler struct {
	config *Config
	clock  Clock
	state  *State
	owner  uint
	hooks  Hooks

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler for state. An owner of 0 disables saving.
func NewScheduler(config *Config, clock Clock, state *State, owner uint, hooks Hooks) *Scheduler {
	if config == nil {
		config = DefaultConfig()
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Scheduler{
		config: config,
		clock:  clock,
		state:  state,
		owner:  owner,
		hooks:  hooks,
	}
}

// Start launches both loops. They run until Stop is called or ctx is cancelled.
// Tickers are created before Start returns. Starting a stopped or already
// started scheduler does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || s.cancel != nil {
		return
	}
	var loopCtx context.Context
	loopCtx, s.cancel = context.WithCancel(ctx)

	countdown := s.clock.NewTicker(s.config.CountdownInterval)
	autosave := s.clock.NewTicker(s.config.AutosaveInterval)

	s.wg.Add(2)
	go s.runCountdown(loopCtx, countdown, s.cancel)
	go s.runAutosave(loopCtx, autosave)
}

// Stop cancels both loops. Only the first call has any effect; it reports
// whether this call was the one that stopped the scheduler. With finalSave a
// last snapshot is written in the background, bounded by SaveTimeout.
func (s *Scheduler) Stop(finalSave bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}
	s.stopped = true

	if finalSave && s.canSave() {
		snap := s.state.Snapshot()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.finalSave(snap)
		}()
	}
	if s.cancel != nil {
		s.cancel()
	}
	return true
}

// Wait blocks until both loops and any final save have finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) canSave() bool {
	return s.owner != 0 && s.hooks.Save != nil
}

// runCountdown steps the clock. Expiry ends both loops; nothing is left to
// autosave once the clock reads zero.
func (s *Scheduler) runCountdown(ctx context.Context, ticker Ticker, stopLoops context.CancelFunc) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			before := s.state.Remaining()
			expired := s.state.Tick()
			after := s.state.Remaining()

			if after != before && s.hooks.OnTick != nil {
				s.hooks.OnTick(after)
			}
			if expired {
				log.Printf("[Scheduler] Time is up for user #%d", s.owner)
				if s.hooks.OnExpire != nil {
					s.hooks.OnExpire()
				}
				stopLoops()
				return
			}
		}
	}
}

func (s *Scheduler) runAutosave(ctx context.Context, ticker Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !s.canSave() || s.state.Paused() {
				continue
			}
			snap := s.state.Snapshot()
			saveCtx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
			err := s.hooks.Save(saveCtx, snap)
			cancel()
			if err != nil {
				log.Printf("[Scheduler] Autosave failed for user #%d: %v", s.owner, err)
				continue
			}
			if s.hooks.OnSaved != nil {
				s.hooks.OnSaved(snap)
			}
		}
	}
}

func (s *Scheduler) finalSave(snap Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.SaveTimeout)
	defer cancel()

	if err := s.hooks.Save(ctx, snap); err != nil {
		log.Printf("[Scheduler] Final save failed for user #%d: %v", s.owner, err)
		return
	}
	log.Printf("[Scheduler] Final save done for user #%d (%ds left)", s.owner, snap.TimeRemaining)
}
