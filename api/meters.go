package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/thisisjab/telemeter/entity"
	"github.com/thisisjab/telemeter/fault"
	"github.com/thisisjab/telemeter/querier"
	"github.com/thisisjab/telemeter/storage"
)

func (s *server) listMetersHandler(w http.ResponseWriter, r *http.Request) {
	exprs, err := parseFilterParams(r)
	if s.returnOnError(w, r, err) {
		return
	}

	d, err := s.compiler.Compile(exprs, storage.MeterFields, identityFromRequest(r).Scope())
	if s.returnOnError(w, r, err) {
		return
	}

	meters, err := s.storage.GetMeters(r.Context(), d)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: meters}, nil) //nolint:errcheck
}

func (s *server) listSamplesHandler(w http.ResponseWriter, r *http.Request) {
	meter := r.PathValue("meter")

	exprs, err := parseFilterParams(r)
	if s.returnOnError(w, r, err) {
		return
	}

	limit, err := parseIntParam(r, "limit")
	if s.returnOnError(w, r, err) {
		return
	}

	d, err := s.compiler.Compile(exprs, storage.SampleFields, identityFromRequest(r).Scope())
	if s.returnOnError(w, r, err) {
		return
	}

	samples, err := s.storage.GetSamples(r.Context(), meter, d, uint64(limit))
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: samples}, nil) //nolint:errcheck
}

func (s *server) statisticsHandler(w http.ResponseWriter, r *http.Request) {
	meter := r.PathValue("meter")

	exprs, err := parseFilterParams(r)
	if s.returnOnError(w, r, err) {
		return
	}

	period, err := parseIntParam(r, "period")
	if s.returnOnError(w, r, err) {
		return
	}

	groupBy, err := querier.ValidateGroupBy(r.URL.Query()["groupby"])
	if s.returnOnError(w, r, err) {
		return
	}

	d, err := s.compiler.Compile(exprs, storage.SampleFields, identityFromRequest(r).Scope())
	if s.returnOnError(w, r, err) {
		return
	}

	stats, err := s.storage.GetMeterStatistics(r.Context(), meter, d, period, groupBy)
	if s.returnOnError(w, r, err) {
		return
	}

	// Durations are reported against the range the caller asked for,
	// not the offset-widened one the backend was queried with.
	for i := range stats {
		stats[i].ClampDuration(d.Window.StartRaw, d.Window.EndRaw)
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: stats}, nil) //nolint:errcheck
}

type sampleInput struct {
	Source           string           `json:"source"`
	CounterName      string           `json:"counter_name"`
	CounterType      entity.MeterType `json:"counter_type"`
	CounterUnit      string           `json:"counter_unit"`
	CounterVolume    *float64         `json:"counter_volume"`
	UserID           string           `json:"user_id"`
	ProjectID        string           `json:"project_id"`
	ResourceID       string           `json:"resource_id"`
	Timestamp        time.Time        `json:"timestamp"`
	ResourceMetadata map[string]any   `json:"resource_metadata"`
	MessageID        string           `json:"message_id"`
}

func (s *server) postSamplesHandler(w http.ResponseWriter, r *http.Request) {
	meter := r.PathValue("meter")
	identity := identityFromRequest(r)

	var body []sampleInput
	if s.returnOnError(w, r, s.readJson(w, r, &body)) {
		return
	}

	now := time.Now().UTC()
	samples := make([]entity.Sample, 0, len(body))

	for _, in := range body {
		if in.CounterName != meter {
			s.handleError(w, r, fault.New(fault.BadInputCode, fmt.Sprintf("counter_name should be %s", meter)))
			return
		}
		if in.MessageID != "" {
			s.handleError(w, r, fault.New(fault.BadInputCode, "The message_id must not be set"))
			return
		}
		if !entity.ValidMeterType(in.CounterType) {
			s.handleError(w, r, fault.New(fault.BadInputCode,
				"The counter type must be: gauge, delta, cumulative"))
			return
		}
		if in.CounterVolume == nil || in.CounterUnit == "" || in.ResourceID == "" {
			s.handleError(w, r, fault.New(fault.BadInputCode,
				"counter_volume, counter_unit and resource_id are required"))
			return
		}

		sm := entity.Sample{
			CounterName:   in.CounterName,
			CounterType:   in.CounterType,
			CounterUnit:   in.CounterUnit,
			CounterVolume: *in.CounterVolume,
			ResourceID:    in.ResourceID,
			UserID:        in.UserID,
			ProjectID:     in.ProjectID,
			Timestamp:     in.Timestamp,
			MessageID:     uuid.New().String(),
		}

		if sm.UserID == "" {
			sm.UserID = identity.UserID
		}
		if sm.ProjectID == "" {
			sm.ProjectID = identity.ProjectID
		}
		if sm.Timestamp.IsZero() {
			sm.Timestamp = now
		}

		source := in.Source
		if source == "" {
			source = s.cfg.SampleSource
		}
		sm.Source = sm.ProjectID + ":" + source

		sm.ResourceMetadata = entity.FlattenMetadata(in.ResourceMetadata)

		if !identity.Admin && identity.ProjectID != sm.ProjectID {
			s.handleError(w, r, fault.New(fault.PermissionDeniedCode,
				"can not post samples to other projects"))
			return
		}

		samples = append(samples, sm)
	}

	if s.returnOnError(w, r, s.storage.StoreSamples(r.Context(), samples...)) {
		return
	}

	s.writeJson(w, http.StatusCreated, apiResponse{Success: true, Data: samples}, nil) //nolint:errcheck
}
