// Package metrics records the outcome of a run as Prometheus metrics and
// writes them to a textfile for a node-exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the metrics of one run.
type Recorder struct {
	RunSuccess       prometheus.Gauge
	RunTimestamp     prometheus.Gauge
	StepDuration     *prometheus.GaugeVec
	InstalledVersion *prometheus.GaugeVec
	LogSegments      *prometheus.CounterVec
	FetchRetries     prometheus.Counter

	registry *prometheus.Registry
}

// New creates a Recorder with all metrics registered on its own registry.
func New() *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.RunSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zipwarden_run_success",
		Help: "1 if the last run completed without error, 0 otherwise",
	})
	r.RunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "zipwarden_run_timestamp_seconds",
		Help: "Unix time the last run finished",
	})
	r.StepDuration = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "zipwarden_step_duration_seconds",
		Help: "Duration of each pipeline step in the last run",
	}, []string{"step"})
	r.InstalledVersion = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "zipwarden_installed_version_info",
		Help: "Installed version of the managed tool, as a label",
	}, []string{"version"})
	r.LogSegments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zipwarden_log_segments_total",
		Help: "Log segments rotated, compressed or deleted during the run",
	}, []string{"action"})
	r.FetchRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "zipwarden_fetch_retries_total",
		Help: "HTTP request retries during the run",
	})

	r.registry.MustRegister(
		r.RunSuccess,
		r.RunTimestamp,
		r.StepDuration,
		r.InstalledVersion,
		r.LogSegments,
		r.FetchRetries,
	)
	return r
}

// Registry returns the registry holding the run metrics.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveStep records how long a pipeline step took.
func (r *Recorder) ObserveStep(step string, d time.Duration) {
	r.StepDuration.WithLabelValues(step).Set(d.Seconds())
}

// SetInstalledVersion replaces the installed-version info series.
func (r *Recorder) SetInstalledVersion(version string) {
	r.InstalledVersion.Reset()
	r.InstalledVersion.WithLabelValues(version).Set(1)
}

// AddSegments counts log segment actions (rotated, compressed, deleted).
func (r *Recorder) AddSegments(action string, n int) {
	r.LogSegments.WithLabelValues(action).Add(float64(n))
}

// IncRetry counts one HTTP retry.
func (r *Recorder) IncRetry() { r.FetchRetries.Inc() }

// Finish records the run result.
func (r *Recorder) Finish(success bool, at time.Time) {
	if success {
		r.RunSuccess.Set(1)
	} else {
		r.RunSuccess.Set(0)
	}
	r.RunTimestamp.Set(float64(at.Unix()))
}

// WriteFile writes the metrics in text exposition format. The file is
// written to a temporary name and renamed, so collectors never see a
// partial file.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
