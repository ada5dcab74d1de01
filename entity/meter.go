package entity

import "encoding/base64"

// Meter is one category of measurements for a resource.
type Meter struct {
	Name       string    `json:"name"`
	Type       MeterType `json:"type"`
	Unit       string    `json:"unit"`
	ResourceID string    `json:"resource_id"`
	ProjectID  string    `json:"project_id"`
	UserID     string    `json:"user_id"`
	MeterID    string    `json:"meter_id"`
}

// MeterID derives the opaque meter identifier from the resource and
// meter name pair.
func MeterID(resourceID, name string) string {
	return base64.StdEncoding.EncodeToString([]byte(resourceID + "+" + name))
}
