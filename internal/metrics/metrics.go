// Package metrics Prometheus metriklerini tanımlar.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transcode metrikleri
var (
	TrimJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliptrim_trim_jobs_total",
			Help: "Total number of trim requests by final status",
		},
		[]string{"status"}, // "done", "error", "rejected"
	)

	TrimDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cliptrim_trim_duration_seconds",
			Help:    "Trim job duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	EngineLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliptrim_engine_loads_total",
			Help: "Total number of transcoding engine load attempts",
		},
		[]string{"result"},
	)
)

// Thumbnail metrikleri
var (
	ThumbnailRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliptrim_thumbnail_runs_total",
			Help: "Total number of thumbnail sampling runs by result",
		},
		[]string{"result"}, // "done", "error", "canceled"
	)

	ThumbnailFramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cliptrim_thumbnail_frames_total",
			Help: "Total number of captured thumbnail frames",
		},
	)
)

// Isolation metrikleri
var (
	IsolationTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cliptrim_isolation_transitions_total",
			Help: "Total number of cross-origin isolation transitions",
		},
		[]string{"action"},
	)
)
