// Package retry implements the error-disposition classifier and
// backoff delay formulas, built on top of cenkalti/backoff's BackOff
// interface so the actor runtime's circuit breaker and the per-row
// retry policy share one retry primitive.
package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dataflux/dataflux/internal/errs"
)

// Disposition is the outcome of classifying an error for retry.
type Disposition int

const (
	Stop Disposition = iota
	Retry
)

// Classify maps an error's errs.Kind to a retry Disposition.
// Transient kinds (ConnectionLost, TransientTransformError) retry;
// everything else stops.
func Classify(err error) Disposition {
	kind, ok := errs.KindOf(err)
	if !ok {
		return Stop
	}
	switch kind {
	case errs.KindConnectionLost, errs.KindTransientTransformError:
		return Retry
	default:
		return Stop
	}
}

// Strategy names the backoff delay formula.
type Strategy string

const (
	Fixed Strategy = "Fixed"
	Linear Strategy = "Linear"
	Exponential Strategy = "Exponential"
)

// Policy is the backoff configuration declared on a pipeline's
// on_error block.
type Policy struct {
	MaxAttempts int
	BaseDelay time.Duration
	Strategy Strategy
}

// Delay computes the backoff for the given attempt (1-based):
// Fixed = base, Linear = base*attempt,
// Exponential = base*2^min(attempt,10).
func (p Policy) Delay(attempt int) time.Duration {
	switch p.Strategy {
	case Linear:
		return p.BaseDelay * time.Duration(attempt)
	case Exponential:
		exp := attempt
		if exp > 10 {
			exp = 10
		}
		return p.BaseDelay * time.Duration(math.Pow(2, float64(exp)))
	default:
		return p.BaseDelay
	}
}

// BackOff adapts Policy to cenkalti/backoff's BackOff interface, so
// callers can drive it with backoff.Retry or backoff.RetryNotify
// instead of hand-rolled retry loops.
type BackOff struct {
	policy Policy
	attempt int
}

func NewBackOff(policy Policy) *BackOff {
	return &BackOff{policy: policy}
}

func (b *BackOff) NextBackOff() time.Duration {
	b.attempt++
	if b.policy.MaxAttempts > 0 && b.attempt > b.policy.MaxAttempts {
		return backoff.Stop
	}
	return b.policy.Delay(b.attempt)
}

func (b *BackOff) Reset() { b.attempt = 0 }

var _ backoff.BackOff = (*BackOff)(nil)
