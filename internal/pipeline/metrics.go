package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stampsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asistencia",
		Subsystem: "pipeline",
		Name:      "stamps_total",
		Help:      "Pipeline runs by action kind and outcome.",
	}, []string{"kind", "outcome"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "asistencia",
		Subsystem: "pipeline",
		Name:      "fallbacks_total",
		Help:      "Degraded lookups that substituted a fallback value.",
	}, []string{"source"})

	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "asistencia",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Wall-clock duration per pipeline stage.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})
)
