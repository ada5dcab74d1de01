package querier

import (
	"testing"
	"time"
)

func TestResolveWindowOffsetWidening(t *testing.T) {
	stamps := []Expression{
		{Field: "timestamp", Op: OpGT, Value: "2014-01-01T12:00:00"},
		{Field: "timestamp", Op: OpLT, Value: "2014-01-02T12:00:00"},
	}

	w, err := resolveWindow(stamps, "30")
	if err != nil {
		t.Fatalf("resolveWindow error: %v", err)
	}

	wantStartRaw := time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC)
	wantEndRaw := time.Date(2014, 1, 2, 12, 0, 0, 0, time.UTC)

	if !w.StartRaw.Equal(wantStartRaw) || !w.EndRaw.Equal(wantEndRaw) {
		t.Fatalf("raw bounds = (%v, %v), want (%v, %v)", w.StartRaw, w.EndRaw, wantStartRaw, wantEndRaw)
	}
	if !w.Start.Equal(wantStartRaw.Add(-30 * time.Minute)) {
		t.Fatalf("start = %v, want raw start minus 30m", w.Start)
	}
	if !w.End.Equal(wantEndRaw.Add(30 * time.Minute)) {
		t.Fatalf("end = %v, want raw end plus 30m", w.End)
	}
	if w.StartOp != OpGT || w.EndOp != OpLT {
		t.Fatalf("ops = (%s, %s), want (gt, lt)", w.StartOp, w.EndOp)
	}
}

func TestResolveWindowZeroOffset(t *testing.T) {
	stamps := []Expression{
		{Field: "timestamp", Op: OpGE, Value: "2014-01-01T12:00:00"},
		{Field: "timestamp", Op: OpLE, Value: "2014-01-02T12:00:00"},
	}

	w, err := resolveWindow(stamps, "")
	if err != nil {
		t.Fatalf("resolveWindow error: %v", err)
	}

	if !w.Start.Equal(w.StartRaw) || !w.End.Equal(w.EndRaw) {
		t.Fatalf("zero offset must leave bounds exact: got (%v, %v) raw (%v, %v)",
			w.Start, w.End, w.StartRaw, w.EndRaw)
	}
}

func TestResolveWindowSingleBound(t *testing.T) {
	w, err := resolveWindow([]Expression{
		{Field: "timestamp", Op: OpGE, Value: "2014-01-01"},
	}, "10")
	if err != nil {
		t.Fatalf("resolveWindow error: %v", err)
	}

	if w.Start.IsZero() || !w.End.IsZero() {
		t.Fatalf("bounds = (%v, %v), want only start set", w.Start, w.End)
	}
}

func TestResolveWindowZoneNormalization(t *testing.T) {
	w, err := resolveWindow([]Expression{
		{Field: "timestamp", Op: OpGE, Value: "2014-01-01T12:00:00+02:00"},
	}, "")
	if err != nil {
		t.Fatalf("resolveWindow error: %v", err)
	}

	want := time.Date(2014, 1, 1, 10, 0, 0, 0, time.UTC)
	if !w.StartRaw.Equal(want) {
		t.Fatalf("start raw = %v, want %v", w.StartRaw, want)
	}
}

func TestResolveWindowRejectsBadInput(t *testing.T) {
	// eq has no window meaning
	if _, err := resolveWindow([]Expression{
		{Field: "timestamp", Op: OpEQ, Value: "2014-01-01"},
	}, ""); err == nil {
		t.Fatal("resolveWindow accepted eq on timestamp")
	}

	if _, err := resolveWindow([]Expression{
		{Field: "timestamp", Op: OpGE, Value: "not-a-timestamp"},
	}, ""); err == nil {
		t.Fatal("resolveWindow accepted a malformed timestamp")
	}

	if _, err := resolveWindow(nil, "-5"); err == nil {
		t.Fatal("resolveWindow accepted a negative search offset")
	}

	if _, err := resolveWindow(nil, "ten"); err == nil {
		t.Fatal("resolveWindow accepted a non-integer search offset")
	}
}
