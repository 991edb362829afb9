// Package round implements the client-side countdown state machine for a single game round
package round

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/mcoot/reactimer/internal/dependencies/clock"
	"github.com/mcoot/reactimer/internal/model"
)

// State is the phase of a round
type State int

const (
	Idle State = iota
	Running
	Stopped
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Errors
var (
	ErrNotRunning = errors.New("round is not running")
	ErrExpired    = errors.New("round deadline passed")
)

// DefaultRefreshInterval is how often a running round recomputes the remaining time
const DefaultRefreshInterval = 50 * time.Millisecond

// Config holds round settings and callbacks.
// Callbacks run on the refresh goroutine and must not call back into the Round.
type Config struct {
	Duration        time.Duration
	RefreshInterval time.Duration
	OnTick          func(remaining time.Duration)
	OnExpire        func()
}

// DefaultConfig returns the standard five second round
func DefaultConfig() Config {
	return Config{
		Duration:        model.RoundDuration,
		RefreshInterval: DefaultRefreshInterval,
	}
}

// Round is a single countdown. Only one countdown is active at a time;
// starting again cancels the previous deadline and refresh loop.
type Round struct {
	clock clock.Clock
	cfg   Config

	mu          sync.Mutex
	state       State
	deadline    time.Time
	remainingMs int64
	stop        chan struct{}
	loopDone    chan struct{}
}

// New creates an idle round
func New(clk clock.Clock, cfg Config) *Round {
	def := DefaultConfig()
	if cfg.Duration <= 0 {
		cfg.Duration = def.Duration
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = def.RefreshInterval
	}
	return &Round{clock: clk, cfg: cfg, state: Idle}
}

// Start begins a new countdown from any state
func (r *Round) Start() {
	r.mu.Lock()
	r.cancelLocked()

	r.state = Running
	r.deadline = r.clock.Now().Add(r.cfg.Duration)
	r.remainingMs = 0

	stop := make(chan struct{})
	done := make(chan struct{})
	r.stop = stop
	r.loopDone = done
	ticker := r.clock.NewTicker(r.cfg.RefreshInterval)
	r.mu.Unlock()

	go r.refresh(ticker, stop, done)
}

// Stop ends a running countdown before its deadline and returns the remaining milliseconds.
// Stopping at or after the deadline fails the round instead.
func (r *Round) Stop() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Running {
		return 0, ErrNotRunning
	}
	r.cancelLocked()

	now := r.clock.Now()
	if !now.Before(r.deadline) {
		r.state = Failed
		return 0, ErrExpired
	}

	r.state = Stopped
	r.remainingMs = remainingMs(r.deadline, now)
	return r.remainingMs, nil
}

// Reset returns the round to idle, cancelling any running countdown
func (r *Round) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelLocked()
	r.state = Idle
	r.remainingMs = 0
	r.deadline = time.Time{}
}

// Tick recomputes the remaining time, failing the round once the deadline passes
func (r *Round) Tick() (State, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Running && !r.clock.Now().Before(r.deadline) {
		r.state = Failed
		r.cancelLocked()
	}
	return r.state, r.remainingLocked()
}

// State returns the current phase
func (r *Round) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Remaining returns the time left while running, or the recorded value once stopped
func (r *Round) Remaining() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remainingLocked()
}

// Wait blocks until the current refresh loop has exited
func (r *Round) Wait() {
	r.mu.Lock()
	done := r.loopDone
	r.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (r *Round) remainingLocked() time.Duration {
	switch r.state {
	case Running:
		left := r.deadline.Sub(r.clock.Now())
		if left < 0 {
			return 0
		}
		return left
	case Stopped:
		return time.Duration(r.remainingMs) * time.Millisecond
	default:
		return 0
	}
}

// cancelLocked signals the refresh loop to exit; the caller holds mu
func (r *Round) cancelLocked() {
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

func (r *Round) refresh(ticker clock.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
		}

		r.mu.Lock()
		// A newer Start may have replaced this loop between the tick and the lock
		select {
		case <-stop:
			r.mu.Unlock()
			return
		default:
		}

		now := r.clock.Now()
		expired := !now.Before(r.deadline)
		if expired {
			r.state = Failed
			r.cancelLocked()
		}
		left := r.remainingLocked()
		r.mu.Unlock()

		if expired {
			if r.cfg.OnExpire != nil {
				r.cfg.OnExpire()
			}
			return
		}
		if r.cfg.OnTick != nil {
			r.cfg.OnTick(left)
		}
	}
}

func remainingMs(deadline, now time.Time) int64 {
	ms := float64(deadline.Sub(now)) / float64(time.Millisecond)
	return max(0, int64(math.Floor(ms+0.5)))
}
