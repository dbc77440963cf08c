package testsession

import (
	"sync"
	"time"
)

// Clock creates tickers for the scheduler.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker is the part of time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock returns a Clock backed by time.NewTicker.
func RealClock() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// ManualClock hands out tickers that only fire when Fire is called. It lets
// tests step a session through time without sleeping.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0)}
}

func (c *ManualClock) NewTicker(d time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTicker{
		interval: d,
		ch:       make(chan time.Time),
		stop:     make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Fire delivers one tick to every live ticker with interval d and returns how
// many received it. Each send blocks until the ticker's reader takes it or the
// ticker is stopped.
func (c *ManualClock) Fire(d time.Duration) int {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	targets := make([]*manualTicker, 0, len(c.tickers))
	for _, t := range c.tickers {
		if t.interval == d {
			targets = append(targets, t)
		}
	}
	c.mu.Unlock()

	delivered := 0
	for _, t := range targets {
		select {
		case t.ch <- now:
			delivered++
		case <-t.stop:
		}
	}
	return delivered
}

type manualTicker struct {
	interval time.Duration
	ch       chan time.Time
	stop     chan struct{}
	once     sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stop) })
}
