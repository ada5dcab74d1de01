package storage

import "github.com/thisisjab/telemeter/querier"

// Accepted-field sets, one per storage operation. These are the field
// names each operation recognizes as direct filters; the compiler
// validates plain fields against them and picks the window key form
// from them. Declared statically so the compiler never has to inspect
// anything at runtime.
var (
	// SampleFields covers sample listing and statistics.
	SampleFields = querier.NewFieldSet(
		"meter", "user", "project", "resource", "source",
		"start", "end", "metaquery",
	)

	// MeterFields covers meter listing. Meters carry no time range.
	MeterFields = querier.NewFieldSet(
		"user", "project", "resource", "source", "metaquery",
	)

	// ResourceFields covers resource listing.
	ResourceFields = querier.NewFieldSet(
		"user", "project", "resource", "source",
		"start_timestamp", "end_timestamp", "metaquery",
	)

	// AlarmFields covers alarm listing.
	AlarmFields = querier.NewFieldSet(
		"name", "user", "project", "enabled", "alarm_id",
	)

	// AlarmChangeFields covers alarm history. It accepts on_behalf_of
	// for its own scoping, so the compiler must treat that name as
	// internal (see querier.Compiler.Compile).
	AlarmChangeFields = querier.NewFieldSet(
		"alarm_id", "on_behalf_of", "user", "project", "type",
		"start_timestamp", "end_timestamp",
	)
)

// AlarmChangeInternalFields are accepted by the alarm-history
// operation but not filterable by callers.
var AlarmChangeInternalFields = []string{"on_behalf_of"}
