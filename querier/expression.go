package querier

import (
	"encoding/json"
	"fmt"

	"github.com/thisisjab/telemeter/fault"
)

// Operator is a comparison operator in a filter expression.
type Operator string

const (
	OpLT Operator = "lt"
	OpLE Operator = "le"
	OpEQ Operator = "eq"
	OpNE Operator = "ne"
	OpGE Operator = "ge"
	OpGT Operator = "gt"
)

// ValidOperator reports whether op is one of the six comparators.
func ValidOperator(op Operator) bool {
	switch op {
	case OpLT, OpLE, OpEQ, OpNE, OpGE, OpGT:
		return true
	}
	return false
}

// Declared value types for metadata coercion.
const (
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
	TypeString  = "string"
)

// Expression is one field/operator/value/type tuple from a
// caller-supplied query. The value is always transported as text; any
// typing happens later, in coercion. Type is optional and only
// meaningful for metadata fields.
type Expression struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
	Value string   `json:"value"`
	Type  string   `json:"type,omitempty"`
}

// NewExpression builds an expression, applying the default eq operator
// when op is empty.
func NewExpression(field string, op Operator, value string) Expression {
	if op == "" {
		op = OpEQ
	}
	return Expression{Field: field, Op: op, Value: value}
}

// UnmarshalJSON decodes an expression, defaulting an absent operator to
// eq and rejecting anything outside the operator enum so that no other
// value can be constructed through the wire.
func (e *Expression) UnmarshalJSON(data []byte) error {
	type plain Expression

	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	if p.Op == "" {
		p.Op = OpEQ
	}

	if !ValidOperator(p.Op) {
		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			"op": []string{fmt.Sprintf("Operator %q is not supported.", p.Op)},
		})
	}

	*e = Expression(p)
	return nil
}

func (e Expression) String() string {
	return fmt.Sprintf("<Query %q %s %q %s>", e.Field, e.Op, e.Value, e.Type)
}
