package querier

import "time"

// RangeKeyForm selects which key pair carries the resolved time window
// in a compiled descriptor, mirroring what the target operation
// declares in its field set.
type RangeKeyForm int

const (
	// RangeKeysNone means no window applies to the descriptor.
	RangeKeysNone RangeKeyForm = iota
	// RangeKeysShort means the operation accepts start/end.
	RangeKeysShort
	// RangeKeysLong means the operation accepts start_timestamp/end_timestamp.
	RangeKeysLong
)

// Window is a resolved query time range. Start and End are the bounds
// actually sent to the backend, widened outward by the search offset.
// StartRaw and EndRaw retain the bounds as the caller requested them,
// for consumer-side clamping. A zero time means the bound is absent.
type Window struct {
	Start   time.Time
	End     time.Time
	StartOp Operator
	EndOp   Operator

	StartRaw time.Time
	EndRaw   time.Time

	// SearchOffset is the slack applied outward from the raw bounds,
	// in minutes.
	SearchOffset int
}

// Descriptor is the compiled, backend-ready representation of a filter
// set. It contains only keys the target operation's field set
// declares.
type Descriptor struct {
	// Filters maps resolved plain field names to their equality values.
	Filters map[string]string

	// Metaquery maps dotted metadata paths to typed values. Only
	// populated when the operation accepts a metaquery.
	Metaquery map[string]any

	// Window is the resolved time range; meaningful only when
	// RangeKeys is not RangeKeysNone.
	Window Window

	// RangeKeys records which key form the operation declared for the
	// window bounds.
	RangeKeys RangeKeyForm
}
