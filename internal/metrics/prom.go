package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/speedwagon-io/plantdash/internal/model"
)

// Prom exports refresh outcomes as Prometheus metrics.
type Prom struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	runs     prometheus.Counter
	failures prometheus.Gauge
}

func NewProm(reg prometheus.Registerer) *Prom {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "plantdash_refresh_requests_total",
		Help: "Refresh tasks by unit and final status.",
	}, []string{"unit", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "plantdash_refresh_request_duration_seconds",
		Help:    "Time from task start to its outcome.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"unit"})
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "plantdash_refresh_runs_total",
		Help: "Completed page refresh runs.",
	})
	failures := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "plantdash_refresh_last_run_failures",
		Help: "Failed tasks in the most recent run.",
	})

	reg.MustRegister(requests, duration, runs, failures)

	return &Prom{
		requests: requests,
		duration: duration,
		runs:     runs,
		failures: failures,
	}
}

func (p *Prom) Observe(_ context.Context, outcome *model.Outcome) {
	p.requests.WithLabelValues(string(outcome.Unit), string(outcome.Status)).Inc()
	if outcome.Status == model.StatusSkipped {
		return
	}
	p.duration.WithLabelValues(string(outcome.Unit)).Observe(outcome.Duration.Seconds())
}

func (p *Prom) ObserveRun(_ context.Context, report *model.Report) {
	p.runs.Inc()
	p.failures.Set(float64(report.Total(model.StatusFailed)))
}
