package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"tutorcore/pkg/domain"
)

func TestExpvarMetricsRecorderAggregates(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if rec.Name() == "" {
		t.Fatalf("recorder should generate a name")
	}
	ctx := context.Background()
	rec.Observe(ctx, domain.OpAddStudent, true, 20*time.Millisecond)
	rec.Observe(ctx, domain.OpAddStudent, true, 30*time.Millisecond)
	rec.Observe(ctx, domain.OpAddStudent, false, 5*time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond) // ignored

	snap := rec.Snapshot()
	if got := snap.DurationsMS[domain.OpAddStudent]; got != 55 {
		t.Fatalf("duration total = %v", got)
	}
	if got := snap.Results[domain.OpAddStudent]["success"]; got != 2 {
		t.Fatalf("success count = %d", got)
	}
	if got := snap.Results[domain.OpAddStudent]["error"]; got != 1 {
		t.Fatalf("error count = %d", got)
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation must not be recorded")
	}

	// Snapshot must be a copy, not a live view.
	snap.Results[domain.OpAddStudent]["success"] = 99
	if got := rec.Snapshot().Results[domain.OpAddStudent]["success"]; got != 2 {
		t.Fatalf("snapshot leaked internal state: %d", got)
	}
}

func TestPrometheusMetricsRecorderCounts(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("NewPrometheusMetricsRecorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, domain.OpGenerateInvoices, true, 10*time.Millisecond)
	rec.Observe(ctx, domain.OpGenerateInvoices, false, 10*time.Millisecond)
	rec.Observe(ctx, domain.OpGenerateInvoices, true, 10*time.Millisecond)

	success := testutil.ToFloat64(rec.results.WithLabelValues(domain.OpGenerateInvoices, "success"))
	if success != 2 {
		t.Fatalf("success counter = %v", success)
	}
	failure := testutil.ToFloat64(rec.results.WithLabelValues(domain.OpGenerateInvoices, "error"))
	if failure != 1 {
		t.Fatalf("error counter = %v", failure)
	}

	// Registering the same collectors twice must surface the conflict.
	if _, err := NewPrometheusMetricsRecorder(registry); err == nil {
		t.Fatalf("duplicate registration should fail")
	}
}
