package querier

import (
	"fmt"

	"github.com/thisisjab/telemeter/fault"
)

const (
	fieldProject    = "project"
	fieldProjectID  = "project_id"
	fieldOnBehalfOf = "on_behalf_of"
)

// Scope is the tenant visibility of a caller, resolved once per
// request. An empty ProjectID means the caller is privileged and sees
// everything.
type Scope struct {
	ProjectID string
}

// Privileged reports whether the scope places no project restriction
// on the query.
func (s Scope) Privileged() bool {
	return s.ProjectID == ""
}

// enforceScope applies tenant visibility to the expression list before
// compilation. A restricted caller may only ever filter on their own
// project with equality; when they supply no project filter at all one
// is injected, unless the operation scopes itself through an
// on_behalf_of parameter (alarm history does its own scoping).
func enforceScope(exprs []Expression, accepted FieldSet, scope Scope) ([]Expression, error) {
	if scope.Privileged() {
		return exprs, nil
	}

	found := false
	for _, expr := range exprs {
		// Both the wire name and its resolved column name count as a
		// project filter; neither may escape the scope check.
		if expr.Field != fieldProjectID && expr.Field != fieldProject {
			continue
		}
		found = true
		if expr.Op != OpEQ || expr.Value != scope.ProjectID {
			return nil, fault.New(fault.PermissionDeniedCode, fmt.Sprintf(
				"Not Authorized to access project %s %s", expr.Op, expr.Value))
		}
	}

	if !found && !accepted.Has(fieldOnBehalfOf) {
		exprs = append(exprs, NewExpression(fieldProjectID, OpEQ, scope.ProjectID))
	}

	return exprs, nil
}
