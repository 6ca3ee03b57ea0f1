// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "clipstream"

var (
	// JobsTotal tracks finished jobs.
	// Labels:
	//   - operation: clip, clip_hls, download, direct_hls, stream
	//   - status: ok, error
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Total number of finished jobs",
		},
		[]string{"operation", "status"},
	)

	// ActiveJobs tracks jobs currently holding an admission slot.
	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_jobs",
			Help:      "Number of jobs currently running",
		},
	)

	// ExternalProcessDuration tracks wall time of external tool invocations.
	// Labels:
	//   - tool: yt-dlp, ffmpeg
	ExternalProcessDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "external_process_duration_seconds",
			Help:      "Duration of external tool invocations",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		},
		[]string{"tool"},
	)
)

// Operation label constants.
const (
	OpClip      = "clip"
	OpClipHLS   = "clip_hls"
	OpDownload  = "download"
	OpDirectHLS = "direct_hls"
	OpStream    = "stream"
)

// Status label constants.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Tool label constants.
const (
	ToolYtDlp  = "yt-dlp"
	ToolFFmpeg = "ffmpeg"
)
