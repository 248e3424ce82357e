package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus instruments of a Tracker.
type Metrics struct {
	// Created counts accepted generation jobs.
	Created prometheus.Counter

	// Finished counts jobs that reached a terminal status.
	// Labels: status (completed, failed)
	Finished *prometheus.CounterVec

	// InFlight is the number of jobs currently processing.
	InFlight prometheus.Gauge

	// Duration is the wall-clock time from scheduling to a terminal status.
	Duration prometheus.Histogram
}

// NewMetrics creates the tracker instruments and registers them with reg.
// A nil reg leaves them unregistered, which tests rely on.
//
// Metrics:
//   - sitegen_jobs_created_total
//   - sitegen_jobs_finished_total{status}
//   - sitegen_jobs_in_flight
//   - sitegen_job_duration_seconds
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Created: f.NewCounter(prometheus.CounterOpts{
			Namespace: "sitegen",
			Name:      "jobs_created_total",
			Help:      "Total number of site generation jobs created",
		}),
		Finished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sitegen",
			Name:      "jobs_finished_total",
			Help:      "Total number of site generation jobs that reached a terminal status",
		}, []string{"status"}),
		InFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "sitegen",
			Name:      "jobs_in_flight",
			Help:      "Number of site generation jobs currently processing",
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sitegen",
			Name:      "job_duration_seconds",
			Help:      "Duration of site generation jobs in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
	}
}
