package api

import (
	"net/http"
	"strings"

	"github.com/thisisjab/telemeter/querier"
)

// Identity is the caller identity as resolved by the auth middleware
// fronting this service. This layer never parses credentials; it only
// reads the headers that middleware sets.
type Identity struct {
	UserID    string
	ProjectID string
	Admin     bool
}

func identityFromRequest(r *http.Request) Identity {
	id := Identity{
		UserID:    r.Header.Get("X-User-Id"),
		ProjectID: r.Header.Get("X-Project-Id"),
	}

	for role := range strings.SplitSeq(r.Header.Get("X-Roles"), ",") {
		if strings.EqualFold(strings.TrimSpace(role), "admin") {
			id.Admin = true
			break
		}
	}

	return id
}

// Scope translates the identity into the tenant scope the compiler
// enforces: admins are unrestricted, everyone else is pinned to their
// own project.
func (id Identity) Scope() querier.Scope {
	if id.Admin {
		return querier.Scope{}
	}
	return querier.Scope{ProjectID: id.ProjectID}
}
