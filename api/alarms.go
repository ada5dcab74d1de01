package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/telemeter/entity"
	"github.com/thisisjab/telemeter/fault"
	"github.com/thisisjab/telemeter/querier"
	"github.com/thisisjab/telemeter/storage"
)

func (s *server) listAlarmsHandler(w http.ResponseWriter, r *http.Request) {
	exprs, err := parseFilterParams(r)
	if s.returnOnError(w, r, err) {
		return
	}

	d, err := s.compiler.Compile(exprs, storage.AlarmFields, identityFromRequest(r).Scope())
	if s.returnOnError(w, r, err) {
		return
	}

	alarms, err := s.storage.GetAlarms(r.Context(), d)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: alarms}, nil) //nolint:errcheck
}

type alarmInput struct {
	Name                    string         `json:"name"`
	Description             string         `json:"description"`
	MeterName               string         `json:"meter_name"`
	ComparisonOperator      string         `json:"comparison_operator"`
	Threshold               *float64       `json:"threshold"`
	Statistic               string         `json:"statistic"`
	Enabled                 *bool          `json:"enabled"`
	EvaluationPeriods       int            `json:"evaluation_periods"`
	Period                  int            `json:"period"`
	RepeatActions           bool           `json:"repeat_actions"`
	OKActions               []string       `json:"ok_actions"`
	AlarmActions            []string       `json:"alarm_actions"`
	InsufficientDataActions []string       `json:"insufficient_data_actions"`
	MatchingMetadata        map[string]any `json:"matching_metadata"`
	ProjectID               string         `json:"project_id"`
	UserID                  string         `json:"user_id"`
}

var alarmStatistics = map[string]struct{}{
	"min": {}, "max": {}, "avg": {}, "sum": {}, "count": {},
}

func (in alarmInput) validate() error {
	if in.Name == "" || in.MeterName == "" {
		return fault.New(fault.BadInputCode, "name and meter_name are required")
	}
	if in.Threshold == nil {
		return fault.New(fault.BadInputCode, "threshold is required")
	}
	if !querier.ValidOperator(querier.Operator(in.ComparisonOperator)) {
		return fault.New(fault.BadInputCode, fmt.Sprintf(
			"comparison_operator %s is not one of: lt, le, eq, ne, ge, gt", in.ComparisonOperator))
	}
	if _, ok := alarmStatistics[in.Statistic]; !ok {
		return fault.New(fault.BadInputCode, fmt.Sprintf(
			"statistic %s is not one of: min, max, avg, sum, count", in.Statistic))
	}
	if in.EvaluationPeriods < 0 || in.Period < 0 {
		return fault.New(fault.BadInputCode, "evaluation_periods and period must not be negative")
	}
	return nil
}

// apply copies the rule fields onto an alarm, filling defaults.
// Ownership, state and identifiers are left untouched.
func (in alarmInput) apply(a *entity.Alarm) {
	a.Name = in.Name
	a.Description = in.Description
	a.MeterName = in.MeterName
	a.ComparisonOperator = in.ComparisonOperator
	a.Threshold = *in.Threshold
	a.Statistic = in.Statistic
	a.Enabled = in.Enabled == nil || *in.Enabled
	a.EvaluationPeriods = in.EvaluationPeriods
	if a.EvaluationPeriods == 0 {
		a.EvaluationPeriods = 1
	}
	a.Period = in.Period
	if a.Period == 0 {
		a.Period = 60
	}
	a.RepeatActions = in.RepeatActions
	a.OKActions = in.OKActions
	a.AlarmActions = in.AlarmActions
	a.InsufficientDataActions = in.InsufficientDataActions
	a.MatchingMetadata = entity.FlattenMetadata(in.MatchingMetadata)
}

// lookupAlarm fetches one alarm under the caller's scope, so a
// restricted caller never sees (or edits) another tenant's alarms.
func (s *server) lookupAlarm(r *http.Request, alarmID string) (entity.Alarm, error) {
	exprs := []querier.Expression{
		querier.NewExpression("alarm_id", querier.OpEQ, alarmID),
	}

	d, err := s.compiler.Compile(exprs, storage.AlarmFields, identityFromRequest(r).Scope())
	if err != nil {
		return entity.Alarm{}, err
	}

	alarms, err := s.storage.GetAlarms(r.Context(), d)
	if err != nil {
		return entity.Alarm{}, err
	}
	if len(alarms) == 0 {
		return entity.Alarm{}, fault.New(fault.NotFoundCode, "Alarm not found")
	}

	return alarms[0], nil
}

// recordAlarmChange appends a history event for an alarm operation.
// History is best effort: a failed write is logged but never fails the
// operation that caused it.
func (s *server) recordAlarmChange(r *http.Request, alarm entity.Alarm, changeType entity.AlarmChangeType, detail any) {
	identity := identityFromRequest(r)

	payload, err := json.Marshal(detail)
	if err != nil {
		payload = []byte("{}")
	}

	change := entity.AlarmChange{
		EventID:    uuid.New().String(),
		AlarmID:    alarm.AlarmID,
		Type:       changeType,
		Detail:     string(payload),
		ProjectID:  identity.ProjectID,
		UserID:     identity.UserID,
		OnBehalfOf: alarm.ProjectID,
		Timestamp:  time.Now().UTC(),
	}

	if err := s.storage.RecordAlarmChange(r.Context(), change); err != nil {
		s.logger.Error("failed to record alarm change", "alarm_id", alarm.AlarmID,
			"type", changeType, "error", err)
	}
}

func (s *server) postAlarmHandler(w http.ResponseWriter, r *http.Request) {
	identity := identityFromRequest(r)

	var in alarmInput
	if s.returnOnError(w, r, s.readJson(w, r, &in)) {
		return
	}
	if s.returnOnError(w, r, in.validate()) {
		return
	}

	if in.ProjectID == "" {
		in.ProjectID = identity.ProjectID
	}
	if in.UserID == "" {
		in.UserID = identity.UserID
	}
	if !identity.Admin && (in.ProjectID != identity.ProjectID || in.UserID != identity.UserID) {
		s.handleError(w, r, fault.New(fault.PermissionDeniedCode,
			"can not create alarms for other projects or users"))
		return
	}

	// Names identify alarms within a project.
	exprs := []querier.Expression{
		querier.NewExpression("name", querier.OpEQ, in.Name),
		querier.NewExpression("project_id", querier.OpEQ, in.ProjectID),
	}
	d, err := s.compiler.Compile(exprs, storage.AlarmFields, identity.Scope())
	if s.returnOnError(w, r, err) {
		return
	}
	existing, err := s.storage.GetAlarms(r.Context(), d)
	if s.returnOnError(w, r, err) {
		return
	}
	if len(existing) > 0 {
		s.handleError(w, r, fault.New(fault.BadInputCode, "Alarm with that name exists"))
		return
	}

	now := time.Now().UTC()
	alarm := entity.Alarm{
		AlarmID:        uuid.New().String(),
		ProjectID:      in.ProjectID,
		UserID:         in.UserID,
		State:          entity.AlarmStateInsufficientData,
		Timestamp:      now,
		StateTimestamp: now,
	}
	in.apply(&alarm)

	if s.returnOnError(w, r, s.storage.StoreAlarm(r.Context(), alarm)) {
		return
	}
	s.recordAlarmChange(r, alarm, entity.AlarmChangeCreation, alarm)

	s.writeJson(w, http.StatusCreated, apiResponse{Success: true, Data: alarm}, nil) //nolint:errcheck
}

func (s *server) getAlarmHandler(w http.ResponseWriter, r *http.Request) {
	alarm, err := s.lookupAlarm(r, r.PathValue("alarm_id"))
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: alarm}, nil) //nolint:errcheck
}

func (s *server) putAlarmHandler(w http.ResponseWriter, r *http.Request) {
	alarm, err := s.lookupAlarm(r, r.PathValue("alarm_id"))
	if s.returnOnError(w, r, err) {
		return
	}

	var in alarmInput
	if s.returnOnError(w, r, s.readJson(w, r, &in)) {
		return
	}
	if s.returnOnError(w, r, in.validate()) {
		return
	}

	in.apply(&alarm)
	alarm.Timestamp = time.Now().UTC()

	if s.returnOnError(w, r, s.storage.StoreAlarm(r.Context(), alarm)) {
		return
	}
	s.recordAlarmChange(r, alarm, entity.AlarmChangeRuleChange, in)

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: alarm}, nil) //nolint:errcheck
}

func (s *server) deleteAlarmHandler(w http.ResponseWriter, r *http.Request) {
	alarm, err := s.lookupAlarm(r, r.PathValue("alarm_id"))
	if s.returnOnError(w, r, err) {
		return
	}

	if s.returnOnError(w, r, s.storage.DeleteAlarm(r.Context(), alarm.AlarmID)) {
		return
	}
	s.recordAlarmChange(r, alarm, entity.AlarmChangeDeletion, alarm)

	w.WriteHeader(http.StatusNoContent)
}

// alarmHistoryHandler returns history for deleted alarms too, so
// instead of injecting a project filter the compiler is told the
// operation scopes itself: events are limited to those carried out on
// behalf of the caller's tenant.
func (s *server) alarmHistoryHandler(w http.ResponseWriter, r *http.Request) {
	alarmID := r.PathValue("alarm_id")
	identity := identityFromRequest(r)

	exprs, err := parseFilterParams(r)
	if s.returnOnError(w, r, err) {
		return
	}

	d, err := s.compiler.Compile(exprs, storage.AlarmChangeFields, identity.Scope(),
		storage.AlarmChangeInternalFields...)
	if s.returnOnError(w, r, err) {
		return
	}

	changes, err := s.storage.GetAlarmChanges(r.Context(), alarmID, identity.Scope().ProjectID, d)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: changes}, nil) //nolint:errcheck
}
