package transcoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/clipstream-dev/clipstream/internal/proc"
)

// FFmpegConfig holds configuration for the FFmpeg transcoder.
type FFmpegConfig struct {
	// FFmpegPath is the path to the ffmpeg binary.
	// If empty, "ffmpeg" will be used (assumes it's in PATH).
	FFmpegPath string

	// FFprobePath is the path to the ffprobe binary, used only for the
	// duration probe that drives progress reporting.
	FFprobePath string

	// VideoCodec is the video codec for HLS output.
	// Default: libx264
	VideoCodec string

	// AudioCodec is the audio codec for HLS output.
	// Default: aac
	AudioCodec string

	// Preset controls the encoding speed/quality tradeoff in fixed-profile
	// mode. Default: veryfast
	Preset string

	// TierPreset is the preset used in quality-tier mode.
	// Default: fast
	TierPreset string

	// CRF is the fixed quality factor in fixed-profile mode (lower is
	// better, 18-28 range). Default: 23
	CRF int

	// SegmentSeconds is the target duration of each HLS segment.
	// Default: 10
	SegmentSeconds int
}

// DefaultFFmpegConfig returns an FFmpegConfig with production-ready defaults.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		FFmpegPath:     "ffmpeg",
		FFprobePath:    "ffprobe",
		VideoCodec:     "libx264",
		AudioCodec:     "aac",
		Preset:         "veryfast",
		TierPreset:     "fast",
		CRF:            23,
		SegmentSeconds: 10,
	}
}

// FFmpeg implements Transcoder using the FFmpeg CLI.
type FFmpeg struct {
	config FFmpegConfig
	runner proc.Runner
}

// Compile-time verification that FFmpeg implements Transcoder.
var _ Transcoder = (*FFmpeg)(nil)

// NewFFmpeg creates a new FFmpeg-based transcoder.
func NewFFmpeg(cfg FFmpegConfig) *FFmpeg {
	return &FFmpeg{config: cfg, runner: proc.ExecRunner{}}
}

// ExtractClip trims inputPath to [start, end] without re-encoding.
// Timestamps are normalized to zero so the clip starts at t=0.
func (t *FFmpeg) ExtractClip(ctx context.Context, inputPath, outputPath, start, end string) error {
	if err := t.validateInput(inputPath); err != nil {
		return err
	}

	args := t.buildClipArgs(inputPath, outputPath, start, end)

	if _, err := t.run(ctx, args, nil); err != nil {
		return err
	}

	if _, err := os.Stat(outputPath); err != nil {
		return ErrOutputNotProduced
	}

	return nil
}

// TranscodeToHLS converts inputPath to an HLS rendition under
// outputRoot/<videoID>/. The playlist is VOD-style: every segment is
// retained and the live window is unbounded.
func (t *FFmpeg) TranscodeToHLS(ctx context.Context, inputPath, outputRoot string, opts HLSOptions) (*HLSResult, error) {
	if err := t.validateInput(inputPath); err != nil {
		return nil, err
	}

	videoID := opts.VideoID
	if videoID == "" {
		videoID = strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	}

	outputDir := filepath.Join(outputRoot, videoID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	manifestPath := filepath.Join(outputDir, "playlist.m3u8")
	segmentPattern := filepath.Join(outputDir, "segment%d.ts")

	args := t.buildHLSArgs(inputPath, manifestPath, segmentPattern, opts.Tier)

	var onLine func(string)
	if opts.Progress != nil {
		args = append([]string{"-progress", "pipe:1", "-nostats"}, args...)
		if duration := t.probeDuration(ctx, inputPath); duration > 0 {
			onLine = progressParser(duration, opts.Progress)
		}
	}

	if _, err := t.run(ctx, args, onLine); err != nil {
		return nil, err
	}

	if _, err := os.Stat(manifestPath); err != nil {
		return nil, ErrOutputNotProduced
	}

	segments, err := t.collectSegments(outputDir)
	if err != nil {
		return nil, fmt.Errorf("collect segments: %w", err)
	}

	return &HLSResult{
		VideoID:      videoID,
		ManifestPath: manifestPath,
		SegmentPaths: segments,
	}, nil
}

// run executes ffmpeg and maps failures to the adapter's error kinds.
func (t *FFmpeg) run(ctx context.Context, args []string, onLine func(string)) (string, error) {
	output, err := t.runner.Run(ctx, t.config.FFmpegPath, args, onLine)
	if err != nil {
		if ctx.Err() != nil {
			return output, fmt.Errorf("transcoding cancelled: %w", ctx.Err())
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return output, &ExitError{ExitCode: ee.ExitCode(), Output: tail(output, 2048)}
		}
		return output, fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return output, nil
}

// validateInput checks if the input file exists and is readable.
func (t *FFmpeg) validateInput(inputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", inputPath)
		}
		return fmt.Errorf("failed to access input file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a file: %s", inputPath)
	}

	return nil
}

// buildClipArgs constructs the stream-copy trim arguments.
func (t *FFmpeg) buildClipArgs(inputPath, outputPath, start, end string) []string {
	return []string{
		"-ss", start,
		"-to", end,
		"-i", inputPath,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		"-y",
		outputPath,
	}
}

// buildHLSArgs constructs the HLS encoding arguments. tier nil selects the
// fixed CRF profile; otherwise the tier's bitrate/resolution bundle applies.
func (t *FFmpeg) buildHLSArgs(inputPath, manifestPath, segmentPattern string, tier *Tier) []string {
	args := []string{
		"-i", inputPath,
		"-c:v", t.config.VideoCodec,
		"-c:a", t.config.AudioCodec,
	}

	if tier == nil {
		args = append(args,
			"-preset", t.config.Preset,
			"-crf", strconv.Itoa(t.config.CRF),
		)
	} else {
		args = append(args,
			"-preset", t.config.TierPreset,
			"-b:v", tier.VideoBitrate,
			"-b:a", tier.AudioBitrate,
			"-s", tier.Resolution,
		)
	}

	args = append(args,
		"-start_number", "0",
		"-hls_time", strconv.Itoa(t.config.SegmentSeconds),
		"-hls_list_size", "0",
		"-hls_segment_filename", segmentPattern,
		"-f", "hls",
		"-y",
		manifestPath,
	)

	return args
}

// collectSegments finds all generated .ts segment files in the output directory.
func (t *FFmpeg) collectSegments(outputDir string) ([]string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read output directory: %w", err)
	}

	var segments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".ts") {
			segments = append(segments, filepath.Join(outputDir, entry.Name()))
		}
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments generated in output directory")
	}

	return segments, nil
}

// probeDuration returns the input duration in seconds, or 0 when the probe
// fails (progress reporting is then silently disabled).
func (t *FFmpeg) probeDuration(ctx context.Context, inputPath string) float64 {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath,
	}

	output, err := t.runner.Run(ctx, t.config.FFprobePath, args, nil)
	if err != nil {
		return 0
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil || duration <= 0 {
		return 0
	}
	return duration
}

// progressParser consumes "-progress pipe:1" key=value lines and reports
// the completion percentage against the probed duration.
func progressParser(durationSeconds float64, progress ProgressFunc) func(string) {
	return func(line string) {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			return
		}

		var outSeconds float64
		switch key {
		case "out_time_us", "out_time_ms":
			us, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return
			}
			outSeconds = us / 1e6
		default:
			return
		}

		percent := outSeconds / durationSeconds * 100
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		progress(percent)
	}
}

// tail returns at most n trailing bytes of s, for compact error reports.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
