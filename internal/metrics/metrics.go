package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/skyqueue/skyqueue/internal/config"
)

const (
	Namespace = "skyqueue"

	// DefaultJobName groups pushed metrics when no job name is configured.
	DefaultJobName = "skyqueue"

	// Result label values for the runs counter
	ResultPublished  = "published"
	ResultNothingDue = "nothing_due"
	ResultError      = "error"
)

// Metrics holds the per-run instruments. The process is short lived, so
// values are pushed to a gateway after the run instead of being scraped.
type Metrics struct {
	runs           *prometheus.CounterVec
	postsPublished prometheus.Counter
	queueDepth     prometheus.Gauge

	lastRunDuration prometheus.Gauge
	lastRunTime     prometheus.Gauge
}

// New creates a new Metrics instance and registers all instruments with the
// provided registerer. Returns an error if any registration fails.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Total runs by result (published, nothing_due, error)",
		}, []string{"result"}),
		postsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "posts_published_total",
			Help:      "Total queue entries published to Bluesky",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "queue_depth",
			Help:      "Queue entries remaining after the run",
		}),
		lastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall clock duration of the last run",
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last completed run",
		}),
	}

	err := errors.Join(
		reg.Register(m.runs),
		reg.Register(m.postsPublished),
		reg.Register(m.queueDepth),
		reg.Register(m.lastRunDuration),
		reg.Register(m.lastRunTime),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRun records a run outcome with its duration.
func (m *Metrics) RecordRun(result string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.lastRunDuration.Set(durationSeconds)
	m.lastRunTime.SetToCurrentTime()
}

// RecordPublished increments the published posts counter.
func (m *Metrics) RecordPublished() {
	if m == nil {
		return
	}
	m.postsPublished.Inc()
}

// SetQueueDepth updates the remaining queue depth gauge.
func (m *Metrics) SetQueueDepth(depth int64) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// Push sends everything gathered from g to the configured Pushgateway.
// A run without a gateway URL is valid; the push is skipped entirely.
func Push(cfg *config.Metrics, g prometheus.Gatherer) error {
	if cfg == nil || cfg.PushGatewayURL == "" {
		return nil
	}

	job := cfg.JobName
	if job == "" {
		job = DefaultJobName
	}

	return push.New(cfg.PushGatewayURL, job).Gatherer(g).Push()
}
