package querier

import (
	"encoding/json"
	"testing"
)

func TestExpressionDefaultOperator(t *testing.T) {
	e := NewExpression("resource_id", "", "r-1")
	if e.Op != OpEQ {
		t.Fatalf("NewExpression op = %q, want %q", e.Op, OpEQ)
	}

	e = NewExpression("timestamp", OpGT, "2014-01-01")
	if e.Op != OpGT {
		t.Fatalf("NewExpression op = %q, want %q", e.Op, OpGT)
	}
}

func TestExpressionUnmarshalDefaultsOperator(t *testing.T) {
	tests := map[string]Operator{
		`{"field":"resource_id","value":"r-1"}`:             OpEQ,
		`{"field":"resource_id","op":"","value":"r-1"}`:     OpEQ,
		`{"field":"timestamp","op":"ge","value":"2014"}`:    OpGE,
		`{"field":"metadata.size","op":"ne","value":"128"}`: OpNE,
	}

	for input, want := range tests {
		var e Expression
		if err := json.Unmarshal([]byte(input), &e); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", input, err)
		}
		if e.Op != want {
			t.Fatalf("Unmarshal(%s) op = %q, want %q", input, e.Op, want)
		}
	}
}

func TestExpressionUnmarshalRejectsUnknownOperator(t *testing.T) {
	inputs := []string{
		`{"field":"resource_id","op":"like","value":"r-1"}`,
		`{"field":"resource_id","op":"EQ","value":"r-1"}`,
		`{"field":"resource_id","op":"in","value":"r-1"}`,
	}

	for _, input := range inputs {
		var e Expression
		if err := json.Unmarshal([]byte(input), &e); err == nil {
			t.Fatalf("Unmarshal(%s) accepted an operator outside the enum", input)
		}
	}
}
