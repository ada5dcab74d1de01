package entity

import "time"

// AlarmState enumerates the states an alarm can be in.
type AlarmState string

const (
	AlarmStateOK               AlarmState = "ok"
	AlarmStateAlarm            AlarmState = "alarm"
	AlarmStateInsufficientData AlarmState = "insufficient data"
)

// Alarm watches a meter statistic against a threshold.
type Alarm struct {
	AlarmID            string            `json:"alarm_id"`
	Name               string            `json:"name"`
	Description        string            `json:"description"`
	MeterName          string            `json:"meter_name"`
	ProjectID          string            `json:"project_id"`
	UserID             string            `json:"user_id"`
	ComparisonOperator string            `json:"comparison_operator"`
	Threshold          float64           `json:"threshold"`
	Statistic          string            `json:"statistic"`
	Enabled            bool              `json:"enabled"`
	EvaluationPeriods  int               `json:"evaluation_periods"`
	Period             int               `json:"period"`
	Timestamp          time.Time         `json:"timestamp"`
	State              AlarmState        `json:"state"`
	StateTimestamp     time.Time         `json:"state_timestamp"`
	RepeatActions      bool              `json:"repeat_actions"`

	// Webhook URLs invoked on transitions into the matching state.
	OKActions               []string `json:"ok_actions"`
	AlarmActions            []string `json:"alarm_actions"`
	InsufficientDataActions []string `json:"insufficient_data_actions"`

	MatchingMetadata map[string]string `json:"matching_metadata"`
}

// AlarmChangeType enumerates the kinds of events recorded in an
// alarm's history.
type AlarmChangeType string

const (
	AlarmChangeCreation        AlarmChangeType = "creation"
	AlarmChangeRuleChange      AlarmChangeType = "rule change"
	AlarmChangeStateTransition AlarmChangeType = "state transition"
	AlarmChangeDeletion        AlarmChangeType = "deletion"
)

// AlarmChange is one event in an alarm's history. OnBehalfOf carries
// the tenant the change was scoped to, which may differ from the
// project of the identity that made it.
type AlarmChange struct {
	EventID    string          `json:"event_id"`
	AlarmID    string          `json:"alarm_id"`
	Type       AlarmChangeType `json:"type"`
	Detail     string          `json:"detail"`
	ProjectID  string          `json:"project_id"`
	UserID     string          `json:"user_id"`
	OnBehalfOf string          `json:"on_behalf_of"`
	Timestamp  time.Time       `json:"timestamp"`
}
