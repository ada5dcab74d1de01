package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thisisjab/telemeter/entity"
	"github.com/thisisjab/telemeter/querier"
)

// stubStorage records writes and serves a fixed alarm list.
type stubStorage struct {
	alarms  []entity.Alarm
	stored  []entity.Alarm
	deleted []string
	changes []entity.AlarmChange
}

func (s *stubStorage) GetSamples(ctx context.Context, meter string, d querier.Descriptor, limit uint64) ([]entity.Sample, error) {
	return nil, nil
}

func (s *stubStorage) StoreSamples(ctx context.Context, samples ...entity.Sample) error {
	return nil
}

func (s *stubStorage) GetMeters(ctx context.Context, d querier.Descriptor) ([]entity.Meter, error) {
	return nil, nil
}

func (s *stubStorage) GetResources(ctx context.Context, d querier.Descriptor) ([]entity.Resource, error) {
	return nil, nil
}

func (s *stubStorage) GetAlarms(ctx context.Context, d querier.Descriptor) ([]entity.Alarm, error) {
	return s.alarms, nil
}

func (s *stubStorage) StoreAlarm(ctx context.Context, alarm entity.Alarm) error {
	s.stored = append(s.stored, alarm)
	return nil
}

func (s *stubStorage) DeleteAlarm(ctx context.Context, alarmID string) error {
	s.deleted = append(s.deleted, alarmID)
	return nil
}

func (s *stubStorage) GetAlarmChanges(ctx context.Context, alarmID, onBehalfOf string, d querier.Descriptor) ([]entity.AlarmChange, error) {
	return nil, nil
}

func (s *stubStorage) RecordAlarmChange(ctx context.Context, change entity.AlarmChange) error {
	s.changes = append(s.changes, change)
	return nil
}

func (s *stubStorage) GetMeterStatistics(ctx context.Context, meter string, d querier.Descriptor, period int, groupBy []string) ([]entity.Statistics, error) {
	return nil, nil
}

func testServer(t *testing.T, st Storage) *server {
	t.Helper()

	srv, err := NewServer(Config{Addr: ":0"}, slog.New(slog.NewTextHandler(io.Discard, nil)), st)
	require.NoError(t, err)
	return srv
}

func doAlarmRequest(srv *server, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	r := httptest.NewRequest(method, target, reader)
	r.Header.Set("X-User-Id", "u-1")
	r.Header.Set("X-Project-Id", "p-1")

	w := httptest.NewRecorder()
	srv.routes().ServeHTTP(w, r)
	return w
}

func TestCreateAlarm(t *testing.T) {
	st := &stubStorage{}
	srv := testServer(t, st)

	w := doAlarmRequest(srv, "POST", "/v2/alarms", `{
		"name": "cpu_high",
		"meter_name": "cpu_util",
		"comparison_operator": "gt",
		"threshold": 70,
		"statistic": "avg"
	}`)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, st.stored, 1)
	alarm := st.stored[0]
	require.NotEmpty(t, alarm.AlarmID)
	require.Equal(t, "p-1", alarm.ProjectID)
	require.Equal(t, "u-1", alarm.UserID)
	require.Equal(t, entity.AlarmStateInsufficientData, alarm.State)
	require.True(t, alarm.Enabled)
	require.Equal(t, 1, alarm.EvaluationPeriods)
	require.Equal(t, 60, alarm.Period)

	require.Len(t, st.changes, 1)
	require.Equal(t, entity.AlarmChangeCreation, st.changes[0].Type)
	require.Equal(t, alarm.AlarmID, st.changes[0].AlarmID)
	require.Equal(t, "p-1", st.changes[0].OnBehalfOf)
}

func TestCreateAlarmDuplicateName(t *testing.T) {
	st := &stubStorage{alarms: []entity.Alarm{{AlarmID: "a-1", Name: "cpu_high", ProjectID: "p-1"}}}
	srv := testServer(t, st)

	w := doAlarmRequest(srv, "POST", "/v2/alarms", `{
		"name": "cpu_high",
		"meter_name": "cpu_util",
		"comparison_operator": "gt",
		"threshold": 70,
		"statistic": "avg"
	}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Empty(t, st.stored)
	require.Empty(t, st.changes)
}

func TestCreateAlarmForeignProject(t *testing.T) {
	st := &stubStorage{}
	srv := testServer(t, st)

	w := doAlarmRequest(srv, "POST", "/v2/alarms", `{
		"name": "cpu_high",
		"meter_name": "cpu_util",
		"comparison_operator": "gt",
		"threshold": 70,
		"statistic": "avg",
		"project_id": "p-2"
	}`)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, st.stored)
}

func TestCreateAlarmValidation(t *testing.T) {
	for name, body := range map[string]string{
		"missing threshold": `{"name":"a","meter_name":"cpu_util","comparison_operator":"gt","statistic":"avg"}`,
		"bad operator":      `{"name":"a","meter_name":"cpu_util","comparison_operator":"like","threshold":1,"statistic":"avg"}`,
		"bad statistic":     `{"name":"a","meter_name":"cpu_util","comparison_operator":"gt","threshold":1,"statistic":"median"}`,
		"missing name":      `{"meter_name":"cpu_util","comparison_operator":"gt","threshold":1,"statistic":"avg"}`,
	} {
		t.Run(name, func(t *testing.T) {
			st := &stubStorage{}
			w := doAlarmRequest(testServer(t, st), "POST", "/v2/alarms", body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Empty(t, st.stored)
		})
	}
}

func TestUpdateAlarm(t *testing.T) {
	st := &stubStorage{alarms: []entity.Alarm{{
		AlarmID:   "a-1",
		Name:      "cpu_high",
		ProjectID: "p-1",
		UserID:    "u-1",
		State:     entity.AlarmStateOK,
		Threshold: 70,
	}}}
	srv := testServer(t, st)

	w := doAlarmRequest(srv, "PUT", "/v2/alarms/a-1", `{
		"name": "cpu_high",
		"meter_name": "cpu_util",
		"comparison_operator": "gt",
		"threshold": 90,
		"statistic": "avg",
		"alarm_actions": ["http://example.test/hook"]
	}`)
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, st.stored, 1)
	alarm := st.stored[0]
	require.Equal(t, "a-1", alarm.AlarmID)
	require.Equal(t, "p-1", alarm.ProjectID)
	require.Equal(t, entity.AlarmStateOK, alarm.State)
	require.Equal(t, 90.0, alarm.Threshold)
	require.Equal(t, []string{"http://example.test/hook"}, alarm.AlarmActions)

	require.Len(t, st.changes, 1)
	require.Equal(t, entity.AlarmChangeRuleChange, st.changes[0].Type)
}

func TestDeleteAlarm(t *testing.T) {
	st := &stubStorage{alarms: []entity.Alarm{{AlarmID: "a-1", Name: "cpu_high", ProjectID: "p-1"}}}
	srv := testServer(t, st)

	w := doAlarmRequest(srv, "DELETE", "/v2/alarms/a-1", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, []string{"a-1"}, st.deleted)

	require.Len(t, st.changes, 1)
	require.Equal(t, entity.AlarmChangeDeletion, st.changes[0].Type)
	require.Equal(t, "p-1", st.changes[0].OnBehalfOf)
}

func TestGetAlarmNotFound(t *testing.T) {
	srv := testServer(t, &stubStorage{})

	w := doAlarmRequest(srv, "GET", "/v2/alarms/a-404", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAlarm(t *testing.T) {
	st := &stubStorage{alarms: []entity.Alarm{{AlarmID: "a-1", Name: "cpu_high", ProjectID: "p-1"}}}
	srv := testServer(t, st)

	w := doAlarmRequest(srv, "GET", "/v2/alarms/a-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "cpu_high")
}
