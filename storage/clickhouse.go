package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/thisisjab/telemeter/entity"
	"github.com/thisisjab/telemeter/querier"
)

type ClickHouseConfig struct {
	Addr     []string `yaml:"addr"`
	Database string   `yaml:"database"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// ClickHouseStorage executes compiled query descriptors against
// ClickHouse. Samples are the primary table; meters and resources are
// derived from it. Alarms and their history live in their own tables.
type ClickHouseStorage struct {
	conn clickhouse.Conn
	cfg  ClickHouseConfig
}

func NewClickHouseStorage(cfg ClickHouseConfig) (*ClickHouseStorage, error) {
	return &ClickHouseStorage{cfg: cfg}, nil
}

func setupClickHouseTables(ctx context.Context, conn driver.Conn) error {
	err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS samples (
			message_id UUID,
			source String,
			counter_name LowCardinality(String),
			counter_type Enum8('gauge' = 1, 'delta' = 2, 'cumulative' = 3),
			counter_unit LowCardinality(String),
			counter_volume Float64,
			user_id String,
			project_id String,
			resource_id String,
			timestamp DateTime64(3),
			metadata Map(String, String)
		)
		ENGINE = MergeTree
		ORDER BY (counter_name, project_id, timestamp, message_id)
		PARTITION BY toYYYYMM(timestamp)
	`)
	if err != nil {
		return err
	}

	err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS alarms (
			alarm_id UUID,
			name String,
			description String,
			meter_name LowCardinality(String),
			project_id String,
			user_id String,
			comparison_operator LowCardinality(String),
			threshold Float64,
			statistic LowCardinality(String),
			enabled Bool,
			evaluation_periods Int32,
			period Int32,
			timestamp DateTime64(3),
			state LowCardinality(String),
			state_timestamp DateTime64(3),
			repeat_actions Bool,
			ok_actions Array(String),
			alarm_actions Array(String),
			insufficient_data_actions Array(String),
			matching_metadata Map(String, String)
		)
		ENGINE = ReplacingMergeTree(timestamp)
		ORDER BY (project_id, alarm_id)
	`)
	if err != nil {
		return err
	}

	return conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS alarm_changes (
			event_id UUID,
			alarm_id UUID,
			type LowCardinality(String),
			detail String,
			project_id String,
			user_id String,
			on_behalf_of String,
			timestamp DateTime64(3)
		)
		ENGINE = MergeTree
		ORDER BY (alarm_id, timestamp, event_id)
	`)
}

func (s *ClickHouseStorage) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: s.cfg.Addr,
		Auth: clickhouse.Auth{
			Database: s.cfg.Database,
			Username: s.cfg.Username,
			Password: s.cfg.Password,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %v", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping the database: %w", err)
	}

	s.conn = conn

	if err := setupClickHouseTables(ctx, conn); err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	return nil
}

func (s *ClickHouseStorage) Close(ctx context.Context) error {
	return s.conn.Close()
}

func (s *ClickHouseStorage) StoreSamples(ctx context.Context, samples ...entity.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
	defer cancel()

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO samples
		(message_id, source, counter_name, counter_type, counter_unit, counter_volume,
		 user_id, project_id, resource_id, timestamp, metadata)`)
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}

	for _, sm := range samples {
		err = batch.Append(sm.MessageID, sm.Source, sm.CounterName, string(sm.CounterType),
			sm.CounterUnit, sm.CounterVolume, sm.UserID, sm.ProjectID, sm.ResourceID,
			sm.Timestamp, sm.ResourceMetadata)
		if err != nil {
			return fmt.Errorf("couldn't append sample to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return nil
}

func (s *ClickHouseStorage) GetSamples(ctx context.Context, meter string, d querier.Descriptor, limit uint64) ([]entity.Sample, error) {
	extra := []string{"counter_name = ?"}
	extraArgs := []any{meter}

	where, args, err := whereClause(d, sampleColumns, extra, extraArgs)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT message_id, source, counter_name, counter_type,
		counter_unit, counter_volume, user_id, project_id, resource_id, timestamp, metadata
		FROM samples WHERE %s ORDER BY timestamp DESC`, where)
	if limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, limit)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("samples query failed: %w", err)
	}
	defer rows.Close()

	var out []entity.Sample
	for rows.Next() {
		var sm entity.Sample
		var counterType string
		err := rows.Scan(&sm.MessageID, &sm.Source, &sm.CounterName, &counterType,
			&sm.CounterUnit, &sm.CounterVolume, &sm.UserID, &sm.ProjectID, &sm.ResourceID,
			&sm.Timestamp, &sm.ResourceMetadata)
		if err != nil {
			return nil, fmt.Errorf("couldn't scan sample: %w", err)
		}
		sm.CounterType = entity.MeterType(counterType)
		out = append(out, sm)
	}

	return out, rows.Err()
}

func (s *ClickHouseStorage) GetMeters(ctx context.Context, d querier.Descriptor) ([]entity.Meter, error) {
	where, args, err := whereClause(d, sampleColumns, nil, nil)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT DISTINCT counter_name, counter_type, counter_unit,
		resource_id, project_id, user_id FROM samples WHERE %s`, where)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("meters query failed: %w", err)
	}
	defer rows.Close()

	var out []entity.Meter
	for rows.Next() {
		var m entity.Meter
		var meterType string
		if err := rows.Scan(&m.Name, &meterType, &m.Unit, &m.ResourceID, &m.ProjectID, &m.UserID); err != nil {
			return nil, fmt.Errorf("couldn't scan meter: %w", err)
		}
		m.Type = entity.MeterType(meterType)
		m.MeterID = entity.MeterID(m.ResourceID, m.Name)
		out = append(out, m)
	}

	return out, rows.Err()
}

func (s *ClickHouseStorage) GetResources(ctx context.Context, d querier.Descriptor) ([]entity.Resource, error) {
	where, args, err := whereClause(d, sampleColumns, nil, nil)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT resource_id, argMax(project_id, timestamp),
		argMax(user_id, timestamp), max(timestamp), argMax(metadata, timestamp)
		FROM samples WHERE %s GROUP BY resource_id`, where)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("resources query failed: %w", err)
	}
	defer rows.Close()

	var out []entity.Resource
	for rows.Next() {
		var r entity.Resource
		if err := rows.Scan(&r.ResourceID, &r.ProjectID, &r.UserID, &r.Timestamp, &r.Metadata); err != nil {
			return nil, fmt.Errorf("couldn't scan resource: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

func (s *ClickHouseStorage) GetAlarms(ctx context.Context, d querier.Descriptor) ([]entity.Alarm, error) {
	where, args, err := whereClause(d, alarmColumns, nil, nil)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT alarm_id, name, description, meter_name, project_id,
		user_id, comparison_operator, threshold, statistic, enabled, evaluation_periods,
		period, timestamp, state, state_timestamp, repeat_actions,
		ok_actions, alarm_actions, insufficient_data_actions, matching_metadata
		FROM alarms FINAL WHERE %s`, where)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("alarms query failed: %w", err)
	}
	defer rows.Close()

	var out []entity.Alarm
	for rows.Next() {
		var a entity.Alarm
		var state string
		err := rows.Scan(&a.AlarmID, &a.Name, &a.Description, &a.MeterName, &a.ProjectID,
			&a.UserID, &a.ComparisonOperator, &a.Threshold, &a.Statistic, &a.Enabled,
			&a.EvaluationPeriods, &a.Period, &a.Timestamp, &state, &a.StateTimestamp,
			&a.RepeatActions, &a.OKActions, &a.AlarmActions, &a.InsufficientDataActions,
			&a.MatchingMetadata)
		if err != nil {
			return nil, fmt.Errorf("couldn't scan alarm: %w", err)
		}
		a.State = entity.AlarmState(state)
		out = append(out, a)
	}

	return out, rows.Err()
}

// StoreAlarm writes an alarm row. Updates are inserts with a newer
// timestamp; the ReplacingMergeTree keeps the latest row per
// (project_id, alarm_id) and reads go through FINAL.
func (s *ClickHouseStorage) StoreAlarm(ctx context.Context, alarm entity.Alarm) error {
	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO alarms
		(alarm_id, name, description, meter_name, project_id, user_id,
		 comparison_operator, threshold, statistic, enabled, evaluation_periods,
		 period, timestamp, state, state_timestamp, repeat_actions,
		 ok_actions, alarm_actions, insufficient_data_actions, matching_metadata)`)
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}

	err = batch.Append(alarm.AlarmID, alarm.Name, alarm.Description, alarm.MeterName,
		alarm.ProjectID, alarm.UserID, alarm.ComparisonOperator, alarm.Threshold,
		alarm.Statistic, alarm.Enabled, alarm.EvaluationPeriods, alarm.Period,
		alarm.Timestamp, string(alarm.State), alarm.StateTimestamp, alarm.RepeatActions,
		alarm.OKActions, alarm.AlarmActions, alarm.InsufficientDataActions,
		alarm.MatchingMetadata)
	if err != nil {
		return fmt.Errorf("couldn't append alarm: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("couldn't send batch: %w", err)
	}

	return nil
}

func (s *ClickHouseStorage) DeleteAlarm(ctx context.Context, alarmID string) error {
	if err := s.conn.Exec(ctx, "DELETE FROM alarms WHERE alarm_id = ?", alarmID); err != nil {
		return fmt.Errorf("couldn't delete alarm: %w", err)
	}
	return nil
}

func (s *ClickHouseStorage) RecordAlarmChange(ctx context.Context, change entity.AlarmChange) error {
	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO alarm_changes
		(event_id, alarm_id, type, detail, project_id, user_id, on_behalf_of, timestamp)`)
	if err != nil {
		return fmt.Errorf("couldn't prepare batch: %w", err)
	}

	err = batch.Append(change.EventID, change.AlarmID, string(change.Type), change.Detail,
		change.ProjectID, change.UserID, change.OnBehalfOf, change.Timestamp)
	if err != nil {
		return fmt.Errorf("couldn't append alarm change: %w", err)
	}

	return batch.Send()
}

// GetAlarmChanges returns history events for one alarm. When
// onBehalfOf is non-empty only events scoped to that tenant are
// returned; the descriptor carries any further caller filters.
func (s *ClickHouseStorage) GetAlarmChanges(ctx context.Context, alarmID, onBehalfOf string, d querier.Descriptor) ([]entity.AlarmChange, error) {
	extra := []string{"alarm_id = ?"}
	extraArgs := []any{alarmID}
	if onBehalfOf != "" {
		extra = append(extra, "on_behalf_of = ?")
		extraArgs = append(extraArgs, onBehalfOf)
	}

	where, args, err := whereClause(d, alarmChangeColumns, extra, extraArgs)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT event_id, alarm_id, type, detail, project_id, user_id,
		on_behalf_of, timestamp FROM alarm_changes WHERE %s ORDER BY timestamp DESC`, where)

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("alarm changes query failed: %w", err)
	}
	defer rows.Close()

	var out []entity.AlarmChange
	for rows.Next() {
		var c entity.AlarmChange
		var changeType string
		err := rows.Scan(&c.EventID, &c.AlarmID, &changeType, &c.Detail, &c.ProjectID,
			&c.UserID, &c.OnBehalfOf, &c.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("couldn't scan alarm change: %w", err)
		}
		c.Type = entity.AlarmChangeType(changeType)
		out = append(out, c)
	}

	return out, rows.Err()
}

// GetMeterStatistics computes aggregates for one meter, bucketed by
// period seconds when period is positive and keyed by the (already
// validated) group-by fields.
func (s *ClickHouseStorage) GetMeterStatistics(ctx context.Context, meter string, d querier.Descriptor, period int, groupBy []string) ([]entity.Statistics, error) {
	extra := []string{"counter_name = ?"}
	extraArgs := []any{meter}

	where, args, err := whereClause(d, sampleColumns, extra, extraArgs)
	if err != nil {
		return nil, err
	}

	groupCols, err := groupByColumns(groupBy)
	if err != nil {
		return nil, err
	}

	selectCols := []string{
		"min(counter_volume)", "max(counter_volume)", "avg(counter_volume)",
		"sum(counter_volume)", "count()", "min(timestamp)", "max(timestamp)",
		"any(counter_unit)",
	}
	selectCols = append(selectCols, groupCols...)

	groupExprs := append([]string{}, groupCols...)
	if period > 0 {
		selectCols = append(selectCols, fmt.Sprintf(
			"toStartOfInterval(timestamp, INTERVAL %d SECOND) AS period_start", period))
		groupExprs = append(groupExprs, "period_start")
	}

	query := fmt.Sprintf("SELECT %s FROM samples WHERE %s", strings.Join(selectCols, ", "), where)
	if len(groupExprs) > 0 {
		query = fmt.Sprintf("%s GROUP BY %s", query, strings.Join(groupExprs, ", "))
	}
	if period > 0 {
		query = fmt.Sprintf("%s ORDER BY period_start", query)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("statistics query failed: %w", err)
	}
	defer rows.Close()

	var out []entity.Statistics
	for rows.Next() {
		var st entity.Statistics
		groupVals := make([]string, len(groupCols))
		var periodStart time.Time

		dest := []any{&st.Min, &st.Max, &st.Avg, &st.Sum, &st.Count,
			&st.DurationStart, &st.DurationEnd, &st.Unit}
		for i := range groupVals {
			dest = append(dest, &groupVals[i])
		}
		if period > 0 {
			dest = append(dest, &periodStart)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("couldn't scan statistics: %w", err)
		}

		if emptyAggregateRow(st.Count, len(groupExprs) > 0) {
			continue
		}

		if len(groupCols) > 0 {
			st.GroupBy = make(map[string]string, len(groupCols))
			for i, col := range groupCols {
				st.GroupBy[col] = groupVals[i]
			}
		}

		if period > 0 {
			st.Period = period
			st.PeriodStart = periodStart
			st.PeriodEnd = periodStart.Add(time.Duration(period) * time.Second)
		}

		st.Duration = st.DurationEnd.Sub(st.DurationStart).Seconds()
		out = append(out, st)
	}

	return out, rows.Err()
}

// emptyAggregateRow reports whether a scanned statistics row represents
// zero matching samples. Without any GROUP BY an aggregate query still
// yields one global row; its count is 0 and its bounds are epoch noise,
// so the caller should see no statistics at all. Grouped queries never
// produce such rows.
func emptyAggregateRow(count uint64, grouped bool) bool {
	return count == 0 && !grouped
}
