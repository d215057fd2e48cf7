package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/procrun/procrun/internal/metrics"
)

func TestRegistryExposesMetrics(t *testing.T) {
	metrics.EmitBuildInfo()
	metrics.IncRunsStarted()
	metrics.IncRunsFinished("success")
	metrics.IncRunsFinished("")
	metrics.AddKillTreeSurvivors(2)
	metrics.IncLockAcquired()
	metrics.IncLockTimeout()
	metrics.ObserveLockWait(40 * time.Millisecond)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status code from metrics handler: %d", rec.Code)
	}

	body := rec.Body.String()
	for _, line := range []string{
		"procrun_runs_started_total",
		`procrun_runs_finished_total{outcome="success"} 1`,
		`procrun_runs_finished_total{outcome="error"} 1`,
		"procrun_kill_tree_survivors_total 2",
		"procrun_lock_acquisitions_total 1",
		"procrun_lock_timeouts_total 1",
		"procrun_lock_wait_seconds_count 1",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected metric line %q in body:\n%s", line, body)
		}
	}

	if !strings.Contains(body, "procrun_build_info{") {
		t.Fatalf("expected build info metric in body:\n%s", body)
	}
	if !strings.Contains(body, "go_version=") {
		t.Fatalf("expected go_version label on build info metric:\n%s", body)
	}
}
