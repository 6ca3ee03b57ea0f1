package transcoder

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrOutputNotProduced is returned when the encoder exits cleanly but
	// the expected artifact is absent.
	ErrOutputNotProduced = errors.New("transcoder reported success but produced no artifact")

	// ErrUnknownTier is returned for a quality tier name outside the table.
	ErrUnknownTier = errors.New("unknown quality tier")
)

// ExitError reports an encoder process that exited non-zero.
type ExitError struct {
	ExitCode int
	Output   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d", e.ExitCode)
}

// Tier is a named bundle of target bitrate and resolution applied during
// transcoding.
type Tier struct {
	// Name identifies the tier ("high", "medium", "low").
	Name string
	// VideoBitrate is the target video bitrate (e.g. "2500k").
	VideoBitrate string
	// AudioBitrate is the target audio bitrate (e.g. "128k").
	AudioBitrate string
	// Resolution is the output frame size as "WxH" (e.g. "1280x720").
	Resolution string
}

// Tiers returns the quality tier table, highest first.
func Tiers() []Tier {
	return []Tier{
		{Name: "high", VideoBitrate: "5000k", AudioBitrate: "192k", Resolution: "1920x1080"},
		{Name: "medium", VideoBitrate: "2500k", AudioBitrate: "128k", Resolution: "1280x720"},
		{Name: "low", VideoBitrate: "1000k", AudioBitrate: "96k", Resolution: "854x480"},
	}
}

// TierByName looks up a tier by name.
func TierByName(name string) (Tier, error) {
	for _, t := range Tiers() {
		if t.Name == name {
			return t, nil
		}
	}
	return Tier{}, fmt.Errorf("%w: %q", ErrUnknownTier, name)
}

// ProgressFunc receives advisory completion percentages during encoding.
// It is never used for flow control.
type ProgressFunc func(percent float64)

// HLSOptions tunes a single TranscodeToHLS call.
type HLSOptions struct {
	// VideoID overrides the output directory name; when empty the input's
	// base name (sans extension) is used.
	VideoID string
	// Tier selects a quality tier; nil means the fixed CRF profile.
	Tier *Tier
	// Progress, when non-nil, receives advisory percent updates.
	Progress ProgressFunc
}

// HLSResult contains the result of an HLS transcoding operation.
type HLSResult struct {
	// VideoID is the rendition's directory name under the output root.
	VideoID string
	// ManifestPath is the path to the generated playlist.m3u8.
	ManifestPath string
	// SegmentPaths contains paths to all generated .ts segment files.
	SegmentPaths []string
}

// Transcoder defines the interface for media conversion operations.
type Transcoder interface {
	// ExtractClip trims inputPath to [start, end] with stream copy (no
	// re-encode), writing outputPath. Timestamp format validation is the
	// encoder's responsibility; bad values surface as process failures.
	ExtractClip(ctx context.Context, inputPath, outputPath, start, end string) error

	// TranscodeToHLS converts inputPath into an HLS rendition under
	// outputRoot/<videoID>/ and returns the manifest path and segments.
	TranscodeToHLS(ctx context.Context, inputPath, outputRoot string, opts HLSOptions) (*HLSResult, error)
}
