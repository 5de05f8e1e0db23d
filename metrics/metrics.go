// Package metrics declares the Prometheus collectors exposed by the
// CLI harness's debug server, following the flat package-level
// promauto var block pattern used elsewhere in the retrieval corpus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "particlelife_ticks_total",
			Help: "Total number of simulation ticks completed",
		},
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "particlelife_tick_duration_seconds",
			Help:    "Wall-clock duration of a single Step call",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	ParticleCount = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "particlelife_particle_count",
			Help: "Number of particles per culture",
		},
		[]string{"culture"},
	)

	MeanSpeed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "particlelife_mean_speed",
			Help: "Mean particle speed across all cultures for the most recent tick",
		},
	)

	GPUErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "particlelife_gpu_errors_total",
			Help: "Total number of fatal GPU errors, by stage",
		},
		[]string{"stage"},
	)
)
