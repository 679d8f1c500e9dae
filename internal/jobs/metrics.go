// Package jobmetrics instruments the asynq handlers of the comanda worker.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK    = "success"
	outcomeError = "failure"
)

// Metrics groups the worker collectors. A nil *Metrics records nothing.
type Metrics struct {
	executions  *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	lowStock    prometheus.Gauge
}

var shared = sync.OnceValue(func() *Metrics {
	return register(prometheus.DefaultRegisterer)
})

// NewMetrics registers the collectors on registerer. With a nil registerer
// every caller gets the same instance bound to the default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		return shared()
	}
	return register(registerer)
}

// Tracker times one execution of a job.
type Tracker struct {
	m       *Metrics
	job     string
	started time.Time
}

// Track starts timing job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{m: m, job: job, started: time.Now()}
}

// End records the outcome of the execution and hands err back.
func (t *Tracker) End(err error) error {
	if t == nil || t.m == nil || t.job == "" {
		return err
	}
	outcome := outcomeOK
	if err != nil {
		outcome = outcomeError
		t.m.failures.WithLabelValues(t.job).Inc()
	} else {
		t.m.lastSuccess.WithLabelValues(t.job).SetToCurrentTime()
	}
	t.m.executions.WithLabelValues(t.job, outcome).Inc()
	t.m.latency.WithLabelValues(t.job).Observe(time.Since(t.started).Seconds())
	return err
}

// SetLowStock stores the size of the last low stock scan.
func (m *Metrics) SetLowStock(count int) {
	if m != nil {
		m.lowStock.Set(float64(count))
	}
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comanda",
			Name:      "jobs_total",
			Help:      "Worker task executions by job and outcome.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "comanda",
			Name:      "jobs_failures_total",
			Help:      "Worker task executions that returned an error.",
		}, []string{"job"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "comanda",
			Name:      "job_duration_seconds",
			Help:      "Wall time of worker task executions.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "comanda",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful execution per job.",
		}, []string{"job"}),
		lowStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "comanda",
			Name:      "low_stock_products",
			Help:      "Active products at or below the threshold in the last scan.",
		}),
	}
	registerer.MustRegister(m.executions, m.failures, m.latency, m.lastSuccess, m.lowStock)
	return m
}
