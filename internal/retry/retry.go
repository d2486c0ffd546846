// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/jonboulle/clockwork"
)

// Policy bounds a retried operation. MaxAttempts counts the first call.
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	Jitter          float64 // randomization factor, 0 for fixed intervals
}

// DefaultPolicy makes three attempts waiting 2s then 4s.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     3,
		InitialInterval: 2 * time.Second,
		MaxInterval:     10 * time.Second,
		Multiplier:      2,
	}
}

// Notify is called before each wait with the attempt that just failed (1-based).
type Notify func(attempt int, err error, wait time.Duration)

// Option customizes Do.
type Option func(*settings)

type settings struct {
	clock  clockwork.Clock
	notify Notify
}

// WithClock waits on the given clock instead of the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithNotify registers a callback for failed attempts that will be retried.
func WithNotify(n Notify) Option {
	return func(s *settings) { s.notify = n }
}

// Do calls op until it succeeds, returns a permanent error, the attempts run
// out, or ctx is done. The last error is returned unwrapped.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error), opts ...Option) (T, error) {
	s := settings{clock: clockwork.NewRealClock()}
	for _, o := range opts {
		o(&s)
	}

	attempt := 0
	operation := func() (T, error) {
		attempt++
		v, err := op(ctx)
		if err != nil && (ctx.Err() != nil || !Retryable(err)) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	var notify backoff.Notify
	if s.notify != nil {
		notify = func(err error, wait time.Duration) { s.notify(attempt, err, wait) }
	}

	return backoff.RetryNotifyWithTimerAndData(operation, p.backOff(ctx), notify, &clockTimer{clock: s.clock})
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.Multiplier = p.Multiplier
	if b.Multiplier < 1 {
		b.Multiplier = 1
	}
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Retryable reports whether err is worth another attempt. Errors that declare
// their own retryability decide for themselves; invalid input, missing
// linkage and cancellation are final.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	switch {
	case errors.Is(err, domain.ErrInvalidRange), errors.Is(err, domain.ErrMissingLinkage):
		return false
	case errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// clockTimer adapts a clockwork clock to backoff.Timer.
type clockTimer struct {
	clock clockwork.Clock
	timer clockwork.Timer
}

func (t *clockTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = t.clock.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *clockTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *clockTimer) C() <-chan time.Time {
	return t.timer.Chan()
}
