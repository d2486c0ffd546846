package domain

import (
	"fmt"
	"time"
)

// Metric is a daily weather variable.
type Metric string

const (
	MetricSnowfall       Metric = "snowfall"
	MetricMinTemperature Metric = "min_temperature"
)

// DailyObservation is one day's value of a metric for one city. A nil Value
// means the upstream reported no observation that day.
type DailyObservation struct {
	Date   time.Time
	Metric Metric
	Value  *float64
}

// Observed returns a present observation.
func Observed(date time.Time, metric Metric, v float64) DailyObservation {
	return DailyObservation{Date: date, Metric: metric, Value: &v}
}

// Missing returns an absent observation.
func Missing(date time.Time, metric Metric) DailyObservation {
	return DailyObservation{Date: date, Metric: metric}
}

// ValidateRange rejects ranges whose end precedes the start.
func ValidateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return fmt.Errorf("%w: %s..%s", ErrInvalidRange, FormatDate(start), FormatDate(end))
	}
	return nil
}

// ValueOn returns the value observed on the given civil day, or zero when the
// day is absent or has no observation.
func ValueOn(obs []DailyObservation, day time.Time) float64 {
	day = CivilDate(day)
	for i := len(obs) - 1; i >= 0; i-- {
		if CivilDate(obs[i].Date).Equal(day) {
			if obs[i].Value == nil {
				return 0
			}
			return *obs[i].Value
		}
	}
	return 0
}
