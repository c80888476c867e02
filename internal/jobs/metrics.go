package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs              *prometheus.CounterVec
	failures          *prometheus.CounterVec
	duration          *prometheus.HistogramVec
	expiringEntries   *prometheus.GaugeVec
	expiringRemaining *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker provides lifecycle instrumentation helpers for a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End finalises the tracker, recording duration, success/failure counts and
// returning the provided error untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// SetExpiring publishes the number of carryforward entries of kind that
// expire at the end of the scanned year and their unused balance.
func (m *Metrics) SetExpiring(kind string, entries int, remaining float64) {
	if m == nil {
		return
	}
	m.expiringEntries.WithLabelValues(kind).Set(float64(entries))
	m.expiringRemaining.WithLabelValues(kind).Set(remaining)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashbook_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cashbook_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cashbook_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	expiringEntries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cashbook_carryforward_expiring_entries",
		Help: "Carryforward entries with an unused balance expiring at the end of the current year.",
	}, []string{"kind"})
	expiringRemaining := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cashbook_carryforward_expiring_php",
		Help: "Unused carryforward balance expiring at the end of the current year.",
	}, []string{"kind"})
	registerer.MustRegister(runs, failures, duration, expiringEntries, expiringRemaining)
	return &Metrics{runs: runs, failures: failures, duration: duration, expiringEntries: expiringEntries, expiringRemaining: expiringRemaining}
}
