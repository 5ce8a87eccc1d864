package playback

import (
	"sync"
	"time"
)

// Clock creates the tickers that drive countdowns.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker is a stoppable source of periodic ticks.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock uses time.Ticker.
type RealClock struct{}

func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// ManualClock is a Clock whose tickers fire only when Tick is called. It
// makes countdown tests deterministic.
//
// Tick delivers on an unbuffered channel, so it returns once the Scheduler
// loop has received the tick, but possibly before the loop has finished
// handling it. Callers synchronise through the loop before ticking again,
// e.g. with Scheduler.Snapshot, which is only served after the tick.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// NewTicker registers a ticker that fires on Tick. d is ignored.
func (m *ManualClock) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{
		clock: m,
		ch:    make(chan time.Time),
		done:  make(chan struct{}),
	}
	m.tickers = append(m.tickers, t)
	return t
}

// Tick advances the clock by one second and fires every live ticker. A
// ticker stopped while Tick waits on it is skipped. Tick reports whether
// any tick was delivered.
func (m *ManualClock) Tick() bool {
	m.mu.Lock()
	m.now = m.now.Add(time.Second)
	now := m.now
	live := append([]*manualTicker(nil), m.tickers...)
	m.mu.Unlock()

	fired := false
	for _, t := range live {
		select {
		case t.ch <- now:
			fired = true
		case <-t.done:
		}
	}
	return fired
}

// Live returns the number of tickers that have not been stopped.
func (m *ManualClock) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

// Now returns the clock's current time.
func (m *ManualClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

type manualTicker struct {
	clock *ManualClock
	ch    chan time.Time
	// closed by the first Stop
	done chan struct{}
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }

func (t *manualTicker) Stop() {
	m := t.clock
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, lt := range m.tickers {
		if lt == t {
			m.tickers = append(m.tickers[:i], m.tickers[i+1:]...)
			close(t.done)
			return
		}
	}
}
