package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker.
type Settings struct {
	Name string
	// Threshold is the number of consecutive failures that opens the breaker.
	Threshold int
	// Cooldown is how long the breaker stays open before probing. Zero keeps
	// it open until Reset.
	Cooldown time.Duration
	// Probes is the number of calls admitted while half-open.
	Probes int
	// IsFailure classifies an error. Defaults to err != nil, excluding
	// context cancellation.
	IsFailure     func(err error) bool
	OnStateChange func(name string, from, to State)
	// Now is overridable for tests.
	Now func() time.Time
}

// Stats is a snapshot of breaker counters.
type Stats struct {
	State               State
	Successes           int
	Failures            int
	ConsecutiveFailures int
}

// Breaker implements a consecutive-failure circuit breaker.
type Breaker struct {
	settings Settings

	mu       sync.Mutex
	state    State
	stats    Stats
	openedAt time.Time
	inflight int
}

// New creates a breaker, filling unset settings with defaults.
func New(settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Probes <= 0 {
		settings.Probes = 1
	}
	if settings.IsFailure == nil {
		settings.IsFailure = defaultIsFailure
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{settings: settings}
}

func defaultIsFailure(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled)
}

func (b *Breaker) Name() string {
	return b.settings.Name
}

// State returns the current state, advancing open to half-open when the
// cooldown has elapsed.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	return b.state
}

// Stats returns a copy of the counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()
	s := b.stats
	s.State = b.state
	return s
}

// Allow reports whether a call may proceed. Every successful Allow must be
// followed by exactly one Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.advance()

	switch b.state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.inflight >= b.settings.Probes {
			return ErrTooManyRequests
		}
	}
	b.inflight++
	return nil
}

// Record reports the outcome of a call admitted by Allow.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inflight > 0 {
		b.inflight--
	}
	if !b.settings.IsFailure(err) {
		b.stats.Successes++
		b.stats.ConsecutiveFailures = 0
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		return
	}

	b.stats.Failures++
	b.stats.ConsecutiveFailures++
	switch b.state {
	case StateHalfOpen:
		b.transition(StateOpen)
	case StateClosed:
		if b.stats.ConsecutiveFailures >= b.settings.Threshold {
			b.transition(StateOpen)
		}
	}
}

// Do runs fn through the breaker.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}
	var err error
	defer func() {
		if r := recover(); r != nil {
			b.Record(errors.New("panic"))
			panic(r)
		}
		b.Record(err)
	}()
	err = fn(ctx)
	return err
}

// Execute runs fn through the breaker and returns its value.
func Execute[T any](ctx context.Context, b *Breaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stats = Stats{}
	b.inflight = 0
	b.transition(StateClosed)
}

func (b *Breaker) advance() {
	if b.state != StateOpen || b.settings.Cooldown <= 0 {
		return
	}
	if b.settings.Now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.transition(StateHalfOpen)
	}
}

func (b *Breaker) transition(to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	switch to {
	case StateOpen:
		b.openedAt = b.settings.Now()
	case StateHalfOpen:
		b.inflight = 0
	case StateClosed:
		b.stats.ConsecutiveFailures = 0
	}
	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.settings.Name, from, to)
	}
}
