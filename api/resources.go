package api

import (
	"net/http"

	"github.com/thisisjab/telemeter/fault"
	"github.com/thisisjab/telemeter/querier"
	"github.com/thisisjab/telemeter/storage"
)

func (s *server) listResourcesHandler(w http.ResponseWriter, r *http.Request) {
	exprs, err := parseFilterParams(r)
	if s.returnOnError(w, r, err) {
		return
	}

	d, err := s.compiler.Compile(exprs, storage.ResourceFields, identityFromRequest(r).Scope())
	if s.returnOnError(w, r, err) {
		return
	}

	resources, err := s.storage.GetResources(r.Context(), d)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: resources}, nil) //nolint:errcheck
}

func (s *server) getResourceHandler(w http.ResponseWriter, r *http.Request) {
	resourceID := r.PathValue("resource_id")

	// Compiling a single resource_id filter under the caller's scope
	// gives lookups the same tenant restriction as list queries.
	exprs := []querier.Expression{
		querier.NewExpression("resource_id", querier.OpEQ, resourceID),
	}

	d, err := s.compiler.Compile(exprs, storage.ResourceFields, identityFromRequest(r).Scope())
	if s.returnOnError(w, r, err) {
		return
	}

	resources, err := s.storage.GetResources(r.Context(), d)
	if s.returnOnError(w, r, err) {
		return
	}

	if len(resources) == 0 {
		s.handleError(w, r, fault.New(fault.NotFoundCode, "Unknown resource"))
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: resources[0]}, nil) //nolint:errcheck
}
