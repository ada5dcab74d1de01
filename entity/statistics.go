package entity

import "time"

// Statistics holds computed aggregates for one period of a samples
// query, optionally keyed by group-by fields.
type Statistics struct {
	GroupBy       map[string]string `json:"groupby,omitempty"`
	Unit          string            `json:"unit"`
	Min           float64           `json:"min"`
	Max           float64           `json:"max"`
	Avg           float64           `json:"avg"`
	Sum           float64           `json:"sum"`
	Count         uint64            `json:"count"`
	Duration      float64           `json:"duration"`
	DurationStart time.Time         `json:"duration_start"`
	DurationEnd   time.Time         `json:"duration_end"`
	Period        int               `json:"period"`
	PeriodStart   time.Time         `json:"period_start"`
	PeriodEnd     time.Time         `json:"period_end"`
}

// ClampDuration clamps the observed duration bounds to the requested
// time range, excluding any search offset, and recomputes the duration
// in seconds. If the clamped bounds are inverted the samples fell
// outside the range the caller asked about, so all three fields are
// zeroed.
func (s *Statistics) ClampDuration(start, end time.Time) {
	if !start.IsZero() && !s.DurationStart.IsZero() && s.DurationStart.Before(start) {
		s.DurationStart = start
	}
	if !end.IsZero() && !s.DurationEnd.IsZero() && s.DurationEnd.After(end) {
		s.DurationEnd = end
	}

	if !s.DurationStart.IsZero() && !s.DurationEnd.IsZero() && !s.DurationStart.After(s.DurationEnd) {
		s.Duration = s.DurationEnd.Sub(s.DurationStart).Seconds()
		return
	}

	s.DurationStart = time.Time{}
	s.DurationEnd = time.Time{}
	s.Duration = 0
}
