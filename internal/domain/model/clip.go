package model

import "time"

// ClipKind classifies a produced artifact.
type ClipKind string

const (
	// KindClip is a trimmed mp4 produced by segment extraction.
	KindClip ClipKind = "clip"
	// KindDownload is a full source download.
	KindDownload ClipKind = "download"
	// KindHLS is an HLS rendition (manifest plus segments).
	KindHLS ClipKind = "hls"
)

// Clip records a completed artifact on disk. Artifacts are write-once:
// a Clip is created when a job finishes and never mutated afterwards.
type Clip struct {
	ID           string
	SourceURL    string
	Kind         ClipKind
	FilePath     string
	ManifestPath string
	SizeBytes    int64
	CreatedAt    time.Time
}
