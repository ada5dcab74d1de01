package querier

import (
	"fmt"
	"strconv"
	"time"

	"github.com/thisisjab/telemeter/fault"
)

// timestampLayouts are tried in order when parsing window bounds.
var timestampLayouts = []string{
	time.RFC3339Nano, // 2013-01-04T16:42:00.123Z or with offsets
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// resolveWindow turns the collected timestamp expressions and the raw
// search offset into a concrete window. Comparators lt/le set the
// upper bound, gt/ge the lower; eq and ne have no window meaning and
// fail. The offset widens the window outward on both ends while the
// raw bounds are kept for later clamping.
func resolveWindow(stamps []Expression, offsetRaw string) (Window, error) {
	var w Window

	offset := 0
	if offsetRaw != "" {
		v, err := strconv.Atoi(offsetRaw)
		if err != nil || v < 0 {
			return Window{}, fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
				fieldSearchOffset: []string{"Value must be a non-negative integer."},
			})
		}
		offset = v
	}
	w.SearchOffset = offset

	for _, expr := range stamps {
		ts, err := parseTimestamp(expr.Value)
		if err != nil {
			return Window{}, fault.New(fault.BadInputCode, fmt.Sprintf(
				"invalid timestamp %s", expr.Value)).WithOriginal(err)
		}

		switch expr.Op {
		case OpLT, OpLE:
			w.EndRaw = ts
			w.EndOp = expr.Op
		case OpGT, OpGE:
			w.StartRaw = ts
			w.StartOp = expr.Op
		default:
			return Window{}, unimplementedOperator(expr)
		}
	}

	if !w.StartRaw.IsZero() {
		w.Start = w.StartRaw.Add(-time.Duration(offset) * time.Minute)
	}
	if !w.EndRaw.IsZero() {
		w.End = w.EndRaw.Add(time.Duration(offset) * time.Minute)
	}

	return w, nil
}

// parseTimestamp reads an extended ISO-8601 timestamp and normalizes
// it to a zone-free instant in UTC.
func parseTimestamp(v string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		t, err = time.Parse(layout, v)
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
}
