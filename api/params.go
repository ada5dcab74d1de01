package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/thisisjab/telemeter/fault"
	"github.com/thisisjab/telemeter/querier"
)

// parseFilterParams reads the repeated q.field/q.op/q.value/q.type
// query parameters into filter expressions. op and type are optional
// per position but when given must align with q.field.
func parseFilterParams(r *http.Request) ([]querier.Expression, error) {
	values := r.URL.Query()

	fields := values["q.field"]
	ops := values["q.op"]
	vals := values["q.value"]
	types := values["q.type"]

	if len(fields) == 0 {
		return nil, nil
	}

	if len(vals) != len(fields) {
		return nil, fault.New(fault.BadInputCode, "q.field and q.value must be given in pairs")
	}
	if len(ops) != 0 && len(ops) != len(fields) {
		return nil, fault.New(fault.BadInputCode, "q.op must be given once per q.field or not at all")
	}
	if len(types) != 0 && len(types) != len(fields) {
		return nil, fault.New(fault.BadInputCode, "q.type must be given once per q.field or not at all")
	}

	exprs := make([]querier.Expression, 0, len(fields))
	for i, field := range fields {
		var op querier.Operator
		if len(ops) > 0 {
			op = querier.Operator(ops[i])
		}

		if op != "" && !querier.ValidOperator(op) {
			return nil, fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
				"q.op": []string{fmt.Sprintf("Operator %q is not supported.", op)},
			})
		}

		expr := querier.NewExpression(field, op, vals[i])
		if len(types) > 0 {
			expr.Type = types[i]
		}

		exprs = append(exprs, expr)
	}

	return exprs, nil
}

// parseIntParam reads an optional integer query parameter that must
// not be negative.
func parseIntParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			name: []string{"Value must be a non-negative integer."},
		})
	}

	return v, nil
}
