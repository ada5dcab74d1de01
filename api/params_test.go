package api

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thisisjab/telemeter/fault"
	"github.com/thisisjab/telemeter/querier"
)

func TestParseFilterParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/v2/meters/cpu?"+
		"q.field=project_id&q.op=eq&q.value=p-1&"+
		"q.field=timestamp&q.op=ge&q.value=2014-01-01", nil)

	exprs, err := parseFilterParams(r)
	require.NoError(t, err)
	require.Len(t, exprs, 2)

	require.Equal(t, "project_id", exprs[0].Field)
	require.Equal(t, querier.OpEQ, exprs[0].Op)
	require.Equal(t, "p-1", exprs[0].Value)

	require.Equal(t, "timestamp", exprs[1].Field)
	require.Equal(t, querier.OpGE, exprs[1].Op)
}

func TestParseFilterParamsDefaultsOperator(t *testing.T) {
	r := httptest.NewRequest("GET", "/v2/meters?q.field=source&q.value=openstack", nil)

	exprs, err := parseFilterParams(r)
	require.NoError(t, err)
	require.Len(t, exprs, 1)
	require.Equal(t, querier.OpEQ, exprs[0].Op)
}

func TestParseFilterParamsTypeAttachment(t *testing.T) {
	r := httptest.NewRequest("GET", "/v2/meters?"+
		"q.field=metadata.size&q.op=eq&q.value=128&q.type=integer", nil)

	exprs, err := parseFilterParams(r)
	require.NoError(t, err)
	require.Equal(t, querier.TypeInteger, exprs[0].Type)
}

func TestParseFilterParamsEmpty(t *testing.T) {
	r := httptest.NewRequest("GET", "/v2/meters", nil)

	exprs, err := parseFilterParams(r)
	require.NoError(t, err)
	require.Empty(t, exprs)
}

func TestParseFilterParamsMisalignment(t *testing.T) {
	for name, target := range map[string]string{
		"missing value":   "/v2/meters?q.field=source",
		"dangling op":     "/v2/meters?q.field=source&q.value=a&q.op=eq&q.op=eq",
		"dangling type":   "/v2/meters?q.field=source&q.value=a&q.type=string&q.type=string",
		"value surplus":   "/v2/meters?q.field=source&q.value=a&q.value=b",
		"unknown op name": "/v2/meters?q.field=source&q.op=like&q.value=a",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseFilterParams(httptest.NewRequest("GET", target, nil))
			require.Error(t, err)

			var f fault.Fault
			require.True(t, errors.As(err, &f))
			require.Equal(t, fault.BadInputCode, f.Code())
		})
	}
}

func TestParseIntParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/v2/meters/cpu?limit=100", nil)

	v, err := parseIntParam(r, "limit")
	require.NoError(t, err)
	require.Equal(t, 100, v)

	v, err = parseIntParam(r, "period")
	require.NoError(t, err)
	require.Zero(t, v)

	for _, target := range []string{"/x?limit=-1", "/x?limit=many"} {
		_, err := parseIntParam(httptest.NewRequest("GET", target, nil), "limit")
		require.Error(t, err)
	}
}
