package entity

import "time"

// MeterType enumerates the kinds of measurements a meter can record.
type MeterType string

const (
	MeterTypeGauge      MeterType = "gauge"
	MeterTypeDelta      MeterType = "delta"
	MeterTypeCumulative MeterType = "cumulative"
)

// ValidMeterType reports whether t is one of the supported meter types.
func ValidMeterType(t MeterType) bool {
	switch t {
	case MeterTypeGauge, MeterTypeDelta, MeterTypeCumulative:
		return true
	}
	return false
}

// Sample is a single measurement for a given meter and resource.
type Sample struct {
	Source           string            `json:"source"`
	CounterName      string            `json:"counter_name"`
	CounterType      MeterType         `json:"counter_type"`
	CounterUnit      string            `json:"counter_unit"`
	CounterVolume    float64           `json:"counter_volume"`
	UserID           string            `json:"user_id"`
	ProjectID        string            `json:"project_id"`
	ResourceID       string            `json:"resource_id"`
	Timestamp        time.Time         `json:"timestamp"`
	ResourceMetadata map[string]string `json:"resource_metadata"`
	MessageID        string            `json:"message_id"`
}
