package entity

import "time"

// Resource is an externally defined object for which samples have been
// received.
type Resource struct {
	ResourceID string            `json:"resource_id"`
	ProjectID  string            `json:"project_id"`
	UserID     string            `json:"user_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Metadata   map[string]string `json:"metadata"`
}
