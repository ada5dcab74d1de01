package storage

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/thisisjab/telemeter/querier"
)

// columnMapping maps descriptor filter keys onto the columns of one
// table. Anything outside the mapping is rejected, so a descriptor can
// never name a column the table does not expose.
type columnMapping map[string]string

var (
	sampleColumns = columnMapping{
		"meter":    "counter_name",
		"user":     "user_id",
		"project":  "project_id",
		"resource": "resource_id",
		"source":   "source",
	}

	alarmColumns = columnMapping{
		"name":     "name",
		"user":     "user_id",
		"project":  "project_id",
		"enabled":  "enabled",
		"alarm_id": "alarm_id",
	}

	alarmChangeColumns = columnMapping{
		"alarm_id":     "alarm_id",
		"user":         "user_id",
		"project":      "project_id",
		"type":         "type",
		"on_behalf_of": "on_behalf_of",
	}
)

// metadataKeyPattern guards the metadata map access against key
// injection; the key is interpolated into the statement.
var metadataKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]*$`)

// whereClause renders a compiled descriptor into a parameterized WHERE
// clause for the given table mapping. extra conditions (already
// parameterized) are prepended. Returns "1" when nothing constrains
// the query so callers can always interpolate the result.
func whereClause(d querier.Descriptor, cols columnMapping, extra []string, extraArgs []any) (string, []any, error) {
	parts := append([]string{}, extra...)
	args := append([]any{}, extraArgs...)

	for _, key := range slices.Sorted(maps.Keys(d.Filters)) {
		col, ok := cols[key]
		if !ok {
			return "", nil, fmt.Errorf("field %q has no column in this table", key)
		}
		parts = append(parts, fmt.Sprintf("%s = ?", col))
		args = append(args, d.Filters[key])
	}

	for _, key := range slices.Sorted(maps.Keys(d.Metaquery)) {
		name := strings.TrimPrefix(key, "metadata.")
		if !metadataKeyPattern.MatchString(name) {
			return "", nil, fmt.Errorf("invalid metadata key: %s", key)
		}
		parts = append(parts, fmt.Sprintf("metadata['%s'] = ?", name))
		// Metadata is stored flattened to strings; render the typed
		// value the same way.
		args = append(args, fmt.Sprint(d.Metaquery[key]))
	}

	if d.RangeKeys != querier.RangeKeysNone {
		w := d.Window
		if !w.Start.IsZero() {
			parts = append(parts, fmt.Sprintf("timestamp %s ?", boundOperator(w.StartOp, ">=", ">")))
			args = append(args, w.Start)
		}
		if !w.End.IsZero() {
			parts = append(parts, fmt.Sprintf("timestamp %s ?", boundOperator(w.EndOp, "<=", "<")))
			args = append(args, w.End)
		}
	}

	if len(parts) == 0 {
		return "1", nil, nil
	}

	return strings.Join(parts, " AND "), args, nil
}

// boundOperator picks the SQL comparator for a window bound, keeping
// the inclusive/exclusive intent of the original filter.
func boundOperator(op querier.Operator, inclusive, exclusive string) string {
	switch op {
	case querier.OpGT, querier.OpLT:
		return exclusive
	default:
		return inclusive
	}
}

// groupByColumns validates group-by fields against the samples table.
// The group-by validator already restricts the name set; this is the
// last injection guard before interpolation.
func groupByColumns(fields []string) ([]string, error) {
	allowed := map[string]string{
		"user_id":     "user_id",
		"project_id":  "project_id",
		"resource_id": "resource_id",
		"source":      "source",
	}

	cols := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := allowed[f]
		if !ok {
			return nil, fmt.Errorf("field %q is not allowed for grouping", f)
		}
		cols = append(cols, col)
	}
	return cols, nil
}
