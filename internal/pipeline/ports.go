package pipeline

import (
	"context"
	"time"

	"github.com/couchcryptid/snow-season-etl/internal/domain"
)

// Source fetches daily observations for one city from an upstream archive.
type Source interface {
	// Name is a short machine identifier used in metrics.
	Name() string
	// Label is the human-readable source written into snapshots.
	Label() string
	// Linkage tells which city identifier the source needs.
	Linkage() domain.Linkage
	FetchDaily(ctx context.Context, city domain.City, metric domain.Metric, start, end time.Time) ([]domain.DailyObservation, error)
}

// SnapshotStore persists snapshots and exposes the ranks of the one being replaced.
type SnapshotStore interface {
	PreviousRanks(name string) (map[string]int, error)
	Write(name string, v any) error
}

// StormNotifier is told about storm events after a successful refresh.
type StormNotifier interface {
	NotifyStorms(ctx context.Context, observed time.Time, events []domain.StormEvent) error
}

// CityGuard runs all of one city's fetches, retries included, so a failing
// upstream can be rested between cities.
type CityGuard interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// CityLoader returns the tracked cities in registry order.
type CityLoader func() ([]domain.City, error)
