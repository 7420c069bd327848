// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Labels: trigger (manual, scheduled), status (completed, failed, skipped)
	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebackup_runs_total",
			Help: "Total number of backup runs",
		},
		[]string{"trigger", "status"},
	)

	// Archive creation only, retention and upload are not included.
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sitebackup_run_duration_seconds",
			Help:    "Duration of artifact creation in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	LastArtifactSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sitebackup_last_artifact_size_bytes",
			Help: "Size of the most recently created artifact",
		},
	)

	// Labels: location (local, remote)
	RetentionDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebackup_retention_deleted_total",
			Help: "Total number of artifacts deleted by retention",
		},
		[]string{"location"},
	)

	// Labels: outcome (success, failure)
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitebackup_uploads_total",
			Help: "Total number of artifact uploads to remote storage",
		},
		[]string{"outcome"},
	)
)
