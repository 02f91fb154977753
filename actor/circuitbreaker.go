// Package actor implements the cooperative, single-threaded-per-actor
// scheduling model: a bounded mailbox, a self-scheduling Tick loop,
// and a per-actor circuit breaker built on cenkalti/backoff's
// exponential backoff.
package actor

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BreakerState is the circuit breaker's current posture.
type BreakerState int

const (
	Closed BreakerState = iota
	RetryAfter
	Open
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case RetryAfter:
		return "retry_after"
	case Open:
		return "open"
	}
	return "unknown"
}

// BreakerConfig tunes a CircuitBreaker's failure threshold and the
// backoff curve applied between RetryAfter transitions.
type BreakerConfig struct {
	Threshold   int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultBreakerConfig matches defaults suitable for database
// operations.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{Threshold: 5, BaseBackoff: 500 * time.Millisecond, MaxBackoff: 30 * time.Second}
}

// CircuitBreaker counts consecutive tick failures for one actor and
// derives the state its Tick loop should act on.
type CircuitBreaker struct {
	mu    sync.Mutex
	cfg   BreakerConfig
	bo    backoff.BackOff
	fails int
	state BreakerState
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cfg.BaseBackoff
	eb.MaxInterval = cfg.MaxBackoff
	eb.Multiplier = 2
	eb.MaxElapsedTime = 0
	return &CircuitBreaker{cfg: cfg, bo: eb, state: Closed}
}

// RecordSuccess resets the failure counter and closes the breaker.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails = 0
	b.state = Closed
	b.bo.Reset()
}

// RecordFailure registers a tick failure, returning the resulting
// state and, when RetryAfter, the delay the actor should sleep before
// rescheduling its next Tick.
func (b *CircuitBreaker) RecordFailure() (BreakerState, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fails++
	if b.fails >= b.cfg.Threshold {
		b.state = Open
		return Open, 0
	}
	b.state = RetryAfter
	return RetryAfter, b.bo.NextBackOff()
}

func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
