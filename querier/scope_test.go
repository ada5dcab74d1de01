package querier

import (
	"errors"
	"testing"

	"github.com/thisisjab/telemeter/fault"
)

func TestEnforceScopePrivilegedPassthrough(t *testing.T) {
	exprs := []Expression{
		{Field: "project_id", Op: OpEQ, Value: "someone-else"},
		{Field: "resource_id", Op: OpEQ, Value: "r-1"},
	}

	out, err := enforceScope(exprs, NewFieldSet("project", "resource"), Scope{})
	if err != nil {
		t.Fatalf("enforceScope error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("privileged scope changed the expression list: %v", out)
	}
}

func TestEnforceScopeOwnProject(t *testing.T) {
	exprs := []Expression{
		{Field: "project_id", Op: OpEQ, Value: "p-1"},
	}

	out, err := enforceScope(exprs, NewFieldSet("project"), Scope{ProjectID: "p-1"})
	if err != nil {
		t.Fatalf("enforceScope error: %v", err)
	}
	if len(out) != 1 || out[0].Value != "p-1" {
		t.Fatalf("own-project filter was rewritten: %v", out)
	}
}

func TestEnforceScopeRejectsForeignProject(t *testing.T) {
	exprs := []Expression{
		{Field: "project_id", Op: OpEQ, Value: "p-2"},
	}

	_, err := enforceScope(exprs, NewFieldSet("project"), Scope{ProjectID: "p-1"})
	if err == nil {
		t.Fatal("enforceScope allowed a cross-project query")
	}

	var f fault.Fault
	if !errors.As(err, &f) || f.Code() != fault.PermissionDeniedCode {
		t.Fatalf("enforceScope error = %v, want permission denied fault", err)
	}
}

func TestEnforceScopeRejectsForeignProjectAlias(t *testing.T) {
	// The resolved column name is just as much a project filter as the
	// wire name.
	exprs := []Expression{
		{Field: "project", Op: OpEQ, Value: "p-2"},
	}

	if _, err := enforceScope(exprs, NewFieldSet("project"), Scope{ProjectID: "p-1"}); err == nil {
		t.Fatal("enforceScope allowed a cross-project query through the column name")
	}
}

func TestEnforceScopeRejectsNonEqualityProjectFilter(t *testing.T) {
	// Even naming the caller's own project is rejected with a
	// non-equality comparator.
	exprs := []Expression{
		{Field: "project_id", Op: OpNE, Value: "p-1"},
	}

	if _, err := enforceScope(exprs, NewFieldSet("project"), Scope{ProjectID: "p-1"}); err == nil {
		t.Fatal("enforceScope allowed a non-equality project filter")
	}
}

func TestEnforceScopeInjectsProjectFilter(t *testing.T) {
	exprs := []Expression{
		{Field: "resource_id", Op: OpEQ, Value: "r-1"},
	}

	out, err := enforceScope(exprs, NewFieldSet("project", "resource"), Scope{ProjectID: "p-1"})
	if err != nil {
		t.Fatalf("enforceScope error: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("expected injected project filter, got %v", out)
	}
	injected := out[1]
	if injected.Field != "project_id" || injected.Op != OpEQ || injected.Value != "p-1" {
		t.Fatalf("injected filter = %v, want project_id eq p-1", injected)
	}
}

func TestEnforceScopeSkipsInjectionForSelfScopingOperations(t *testing.T) {
	accepted := NewFieldSet("alarm_id", "on_behalf_of", "project")

	out, err := enforceScope(nil, accepted, Scope{ProjectID: "p-1"})
	if err != nil {
		t.Fatalf("enforceScope error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("on_behalf_of operation still got an injected filter: %v", out)
	}
}
