package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	runsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procrun",
		Name:      "runs_started_total",
		Help:      "Processes launched by the runner.",
	})

	runsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "procrun",
		Name:      "runs_finished_total",
		Help:      "Blocking runs that completed, by outcome.",
	}, []string{"outcome"})

	killTreeSurvivors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procrun",
		Name:      "kill_tree_survivors_total",
		Help:      "Descendant processes still alive after the kill grace period.",
	})

	lockAcquisitions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procrun",
		Name:      "lock_acquisitions_total",
		Help:      "File locks successfully acquired.",
	})

	lockTimeouts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "procrun",
		Name:      "lock_timeouts_total",
		Help:      "File lock acquisitions abandoned at the deadline.",
	})

	lockWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "procrun",
		Name:      "lock_wait_seconds",
		Help:      "Time spent waiting to acquire a file lock.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "procrun",
		Name:      "build_info",
		Help:      "Build metadata for the running procrun binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(runsStarted, runsFinished, killTreeSurvivors, lockAcquisitions, lockTimeouts, lockWait, buildInfo)
}

// Registry returns the Prometheus registry containing all procrun metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncRunsStarted records a launched process.
func IncRunsStarted() {
	runsStarted.Inc()
}

// IncRunsFinished records a completed blocking run. Outcome is one of
// "success", "failure" or "error".
func IncRunsFinished(outcome string) {
	if outcome == "" {
		outcome = "error"
	}
	runsFinished.WithLabelValues(outcome).Inc()
}

// AddKillTreeSurvivors records descendants that outlived the kill grace
// period.
func AddKillTreeSurvivors(n int) {
	if n <= 0 {
		return
	}
	killTreeSurvivors.Add(float64(n))
}

// IncLockAcquired records a successful lock acquisition.
func IncLockAcquired() {
	lockAcquisitions.Inc()
}

// IncLockTimeout records a lock acquisition that hit its deadline.
func IncLockTimeout() {
	lockTimeouts.Inc()
}

// ObserveLockWait records how long a lock acquisition waited.
func ObserveLockWait(d time.Duration) {
	lockWait.Observe(d.Seconds())
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
