// Package breaker rests a failing weather source between cities. It counts
// whole-city outcomes, after retries, and while open it delays the next city
// until the cooldown ends instead of failing it, so every city still reaches
// the upstream.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
	"github.com/couchcryptid/snow-season-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
)

// minWait bounds the poll interval when the cooldown has elapsed on our
// clock but the breaker has not yet moved to half-open.
const minWait = time.Millisecond

// Settings configures the breaker. It opens after MaxFailures consecutive
// failed cities and rests the upstream for Cooldown.
type Settings struct {
	MaxFailures int
	Cooldown    time.Duration
}

// OpenError is returned when the breaker rejects a city outright, which only
// happens if calls overlap while half-open. It is never retryable.
type OpenError struct {
	Source string
	Err    error
}

func (e *OpenError) Error() string   { return fmt.Sprintf("%s: %v", e.Source, e.Err) }
func (e *OpenError) Unwrap() error   { return e.Err }
func (e *OpenError) Retryable() bool { return false }

// Breaker guards per-city fetches against one source.
type Breaker struct {
	name     string
	cb       *gobreaker.CircuitBreaker
	clock    clockwork.Clock
	cooldown time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	openedAt time.Time
}

// New creates a closed breaker for the named source.
func New(name string, st Settings, logger *slog.Logger, metrics *observability.Metrics) *Breaker {
	b := &Breaker{
		name:     name,
		clock:    clockwork.NewRealClock(),
		cooldown: st.Cooldown,
		logger:   logger.With("component", "breaker", "source", name),
	}
	maxFailures := uint32(max(st.MaxFailures, 1))
	metrics.BreakerState.WithLabelValues(name).Set(0)

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     st.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				b.mu.Lock()
				b.openedAt = b.clock.Now()
				b.mu.Unlock()
			}
			b.logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(stateValue(to)))
		},
		IsSuccessful: upstreamHealthy,
	})
	return b
}

// Do runs one city's fetches. While the breaker is open it first waits out
// the cooldown, so fn always runs unless ctx ends. fn's error is returned as is.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.wait(ctx); err != nil {
		return err
	}
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &OpenError{Source: b.name, Err: err}
	}
	return err
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) wait(ctx context.Context) error {
	logged := false
	for b.cb.State() == gobreaker.StateOpen {
		b.mu.Lock()
		remaining := b.cooldown - b.clock.Since(b.openedAt)
		b.mu.Unlock()
		remaining = max(remaining, minWait)

		if !logged {
			b.logger.Info("upstream resting, waiting for cooldown", "wait", remaining)
			logged = true
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.clock.After(remaining):
		}
	}
	return nil
}

// upstreamHealthy counts caller-side problems as successes so they cannot
// trip the breaker: rejected requests, bad input and cancellation. A joined
// error is healthy only when every part is.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !upstreamHealthy(e) {
				return false
			}
		}
		return true
	}
	if errors.Is(err, domain.ErrInvalidRange) || errors.Is(err, domain.ErrMissingLinkage) || errors.Is(err, context.Canceled) {
		return true
	}
	var fe *domain.FetchError
	if errors.As(err, &fe) && fe.Kind == domain.FetchStatus && !fe.Retryable() {
		return true
	}
	return false
}

func stateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
