package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange is returned for empty or reversed date/season ranges.
	ErrInvalidRange = errors.New("invalid range")

	// ErrMissingLinkage marks a city without the station id or coordinates the
	// active source needs. Such cities are skipped, never fatal.
	ErrMissingLinkage = errors.New("missing linkage")
)

// FetchErrorKind classifies upstream failures.
type FetchErrorKind string

const (
	FetchStatus    FetchErrorKind = "status"
	FetchParse     FetchErrorKind = "parse"
	FetchTransport FetchErrorKind = "transport"
)

// FetchError is a failed request to a weather source. Status is set for
// FetchStatus errors only.
type FetchError struct {
	Source string
	Kind   FetchErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchStatus {
		return fmt.Sprintf("%s fetch: status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s fetch (%s): %v", e.Source, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed. Client errors are
// final except request timeouts and rate limiting.
func (e *FetchError) Retryable() bool {
	if e.Kind != FetchStatus {
		return true
	}
	if e.Status == 408 || e.Status == 429 {
		return true
	}
	return e.Status < 400 || e.Status >= 500
}
