package querier

import (
	"log/slog"

	"github.com/thisisjab/telemeter/fault"
)

// Compiler turns caller-supplied filter expressions into backend-ready
// query descriptors. It holds no per-request state and is safe for
// concurrent use.
type Compiler struct {
	logger *slog.Logger
}

func NewCompiler(logger *slog.Logger) *Compiler {
	return &Compiler{logger: logger}
}

// Compile validates and translates an expression list against the
// accepted-field set of the target operation, under the caller's
// scope. Internal names are fields the operation accepts for its own
// scoping but which callers may not filter on directly. Compilation
// either succeeds fully or fails with the first classified fault; no
// partial descriptor is ever returned.
func (c *Compiler) Compile(exprs []Expression, accepted FieldSet, scope Scope, internal ...string) (Descriptor, error) {
	exprs, err := enforceScope(exprs, accepted, scope)
	if err != nil {
		return Descriptor{}, err
	}

	// Internal fields take part in scope decisions above but are not
	// filterable by callers.
	filterable := accepted.without(internal)

	d := Descriptor{
		Filters:   make(map[string]string),
		Metaquery: make(map[string]any),
	}

	var stamps []Expression
	var offsetRaw string

	for _, expr := range exprs {
		if !ValidOperator(expr.Op) {
			return Descriptor{}, unimplementedOperator(expr)
		}

		cls, err := classify(expr, filterable)
		if err != nil {
			return Descriptor{}, err
		}

		switch cls.class {
		case classTimestamp:
			stamps = append(stamps, expr)
		case classSearchOffset:
			offsetRaw = expr.Value
		case classMetadata:
			v, err := c.CoerceValue(expr)
			if err != nil {
				return Descriptor{}, err
			}
			d.Metaquery[cls.key] = v
		default:
			d.Filters[cls.key] = expr.Value
		}
	}

	// Metadata filters against an operation without a metaquery are
	// dropped, not rejected: metadata fields never go through strict
	// field checking.
	if !filterable.Has("metaquery") {
		d.Metaquery = map[string]any{}
	}

	if len(stamps) > 0 || offsetRaw != "" {
		w, err := resolveWindow(stamps, offsetRaw)
		if err != nil {
			return Descriptor{}, err
		}

		switch {
		case filterable.Has("start"):
			d.RangeKeys = RangeKeysShort
		case filterable.Has("start_timestamp"):
			d.RangeKeys = RangeKeysLong
		default:
			return Descriptor{}, fault.New(fault.BadInputCode,
				"timestamp is not valid for this resource").
				WithMetadata(fault.FieldErrorsMetadata{
					fieldTimestamp: []string{"Field is not valid for this resource."},
				})
		}
		d.Window = w
	}

	return d, nil
}

func (s FieldSet) without(names []string) FieldSet {
	if len(names) == 0 {
		return s
	}
	out := make(FieldSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	for _, n := range names {
		delete(out, n)
	}
	return out
}
