// Package usecase orchestrates download and transcode jobs: admission,
// stage sequencing, workspace lifecycle, and completion bookkeeping.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/clipstream-dev/clipstream/internal/domain/model"
	"github.com/clipstream-dev/clipstream/internal/domain/repository"
	"github.com/clipstream-dev/clipstream/internal/downloader"
	"github.com/clipstream-dev/clipstream/internal/infrastructure/cache"
	"github.com/clipstream-dev/clipstream/internal/infrastructure/metrics"
	"github.com/clipstream-dev/clipstream/internal/transcoder"
	"github.com/clipstream-dev/clipstream/internal/workspace"
)

var (
	// ErrSourceNotFound is returned when a referenced source video does not
	// exist in the workspace.
	ErrSourceNotFound = errors.New("source video not found")

	// ErrJobQueueFull is returned when admission fails because the caller's
	// context expired while waiting for a job slot.
	ErrJobQueueFull = errors.New("no job slot available")
)

// ExtractClipInput contains the input parameters for clip extraction.
type ExtractClipInput struct {
	SourceURL string
	Range     model.TimeRange
}

// ExtractClipOutput contains the result of clip extraction.
type ExtractClipOutput struct {
	Job      *model.Job
	FilePath string
}

// ExtractClipHLSInput contains the input parameters for clip extraction
// followed by HLS packaging.
type ExtractClipHLSInput struct {
	SourceURL string
	Range     model.TimeRange
	// Quality selects a tier by name; empty means the fixed CRF profile.
	Quality string
}

// ExtractClipHLSOutput contains the result of a packaged clip extraction.
type ExtractClipHLSOutput struct {
	Job          *model.Job
	ManifestPath string
	PlaylistURL  string
}

// DownloadInput contains the input parameters for a full download.
type DownloadInput struct {
	SourceURL string
}

// DirectHLSInput contains the input parameters for download-and-package.
type DirectHLSInput struct {
	SourceURL string
	// Quality selects a tier by name; empty means the fixed CRF profile.
	Quality string
}

// StreamOutput describes an HLS rendition ready to be served.
type StreamOutput struct {
	VideoID      string
	ManifestPath string
	PlaylistURL  string
}

// JobService defines the application's job orchestration operations.
//
// The streaming operations (Download, DirectHLS) report lifecycle events
// through the sink, including the terminal error event; the returned error
// is for the caller's logging only, since the response stream has already
// begun by the time a failure can occur.
type JobService interface {
	// ExtractClip downloads the source and trims it to the requested range.
	ExtractClip(ctx context.Context, input ExtractClipInput) (*ExtractClipOutput, error)

	// ExtractClipHLS downloads the source, trims it, and packages the clip
	// as an HLS rendition.
	ExtractClipHLS(ctx context.Context, input ExtractClipHLSInput) (*ExtractClipHLSOutput, error)

	// Download fetches the full source video into the workspace, streaming
	// progress events to sink.
	Download(ctx context.Context, input DownloadInput, sink model.EventSink) error

	// DirectHLS fetches the full source video and packages it as an HLS
	// rendition, streaming progress events to sink.
	DirectHLS(ctx context.Context, input DirectHLSInput, sink model.EventSink) error

	// StreamExisting packages an already-downloaded video as an HLS
	// rendition, or returns ErrSourceNotFound.
	StreamExisting(ctx context.Context, videoID string) (*StreamOutput, error)

	// ListClips returns recently completed artifacts, newest first.
	ListClips(ctx context.Context, limit int) ([]*model.Clip, error)
}

// Config tunes job admission and deadlines.
type Config struct {
	// MaxConcurrent bounds the number of jobs running external processes
	// at once. Further requests wait until a slot frees or their context
	// expires.
	MaxConcurrent int64

	// JobTimeout caps the wall-clock duration of a single job, covering
	// both the download and transcode phases. Zero disables the cap.
	JobTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 4,
		JobTimeout:    30 * time.Minute,
	}
}

// Deps bundles the orchestrator's collaborators. History, Index and
// Archive are optional; when nil the corresponding bookkeeping is skipped.
type Deps struct {
	Downloader downloader.Downloader
	Transcoder transcoder.Transcoder
	Paths      *workspace.Resolver
	History    repository.ClipRepository
	Index      cache.ArtifactIndex
	Archive    repository.ObjectStorage
	Logger     *slog.Logger
}

type jobService struct {
	dl         downloader.Downloader
	tc         transcoder.Transcoder
	paths      *workspace.Resolver
	history    repository.ClipRepository
	index      cache.ArtifactIndex
	archive    repository.ObjectStorage
	logger     *slog.Logger
	slots      *semaphore.Weighted
	jobTimeout time.Duration
}

// Compile-time verification that jobService implements JobService.
var _ JobService = (*jobService)(nil)

// NewJobService creates a new job orchestrator.
func NewJobService(deps Deps, cfg Config) JobService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &jobService{
		dl:         deps.Downloader,
		tc:         deps.Transcoder,
		paths:      deps.Paths,
		history:    deps.History,
		index:      deps.Index,
		archive:    deps.Archive,
		logger:     logger,
		slots:      semaphore.NewWeighted(cfg.MaxConcurrent),
		jobTimeout: cfg.JobTimeout,
	}
}

// ExtractClip downloads the source and trims it to the requested range.
func (s *jobService) ExtractClip(ctx context.Context, input ExtractClipInput) (*ExtractClipOutput, error) {
	if err := input.Range.Validate(); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := s.jobContext(ctx)
	defer cancel()

	job := model.NewJob()
	paths, err := s.paths.Resolve(job.ID)
	if err != nil {
		return nil, err
	}

	if err := s.downloadAndCut(ctx, job, input.SourceURL, input.Range, paths); err != nil {
		s.failJob(job, metrics.OpClip, err)
		return nil, err
	}

	s.finishJob(job, metrics.OpClip)
	s.recordArtifact(ctx, &model.Clip{
		ID:        job.ID,
		SourceURL: input.SourceURL,
		Kind:      model.KindClip,
		FilePath:  paths.ClipFile,
		SizeBytes: fileSize(paths.ClipFile),
		CreatedAt: time.Now(),
	})

	return &ExtractClipOutput{Job: job, FilePath: paths.ClipFile}, nil
}

// ExtractClipHLS downloads the source, trims it, and packages the clip as
// an HLS rendition.
func (s *jobService) ExtractClipHLS(ctx context.Context, input ExtractClipHLSInput) (*ExtractClipHLSOutput, error) {
	if err := input.Range.Validate(); err != nil {
		return nil, err
	}
	tier, err := resolveTier(input.Quality)
	if err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := s.jobContext(ctx)
	defer cancel()

	job := model.NewJob()
	paths, err := s.paths.Resolve(job.ID)
	if err != nil {
		return nil, err
	}

	if err := s.downloadAndCut(ctx, job, input.SourceURL, input.Range, paths); err != nil {
		s.failJob(job, metrics.OpClipHLS, err)
		return nil, err
	}
	// The intermediate clip exists only to feed the packager.
	defer s.removeFile(paths.ClipFile)

	result, err := s.packageHLS(ctx, paths.ClipFile, transcoder.HLSOptions{Tier: tier})
	if err != nil {
		s.failJob(job, metrics.OpClipHLS, err)
		return nil, fmt.Errorf("package clip: %w", err)
	}

	s.finishJob(job, metrics.OpClipHLS)
	// Listings build the playlist URL from the clip ID, so the recorded ID
	// must be the rendition's directory name, not the job ID.
	clip := &model.Clip{
		ID:           result.VideoID,
		SourceURL:    input.SourceURL,
		Kind:         model.KindHLS,
		ManifestPath: result.ManifestPath,
		SizeBytes:    totalSize(result.SegmentPaths),
		CreatedAt:    time.Now(),
	}
	s.recordArtifact(ctx, clip)
	s.archiveRendition(ctx, result)

	return &ExtractClipHLSOutput{
		Job:          job,
		ManifestPath: result.ManifestPath,
		PlaylistURL:  playlistURL(result.VideoID),
	}, nil
}

// Download fetches the full source video into the workspace.
func (s *jobService) Download(ctx context.Context, input DownloadInput, sink model.EventSink) error {
	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := s.jobContext(ctx)
	defer cancel()

	job := model.NewJob()
	sink(model.StartEvent(job.ID))

	paths, err := s.paths.Resolve(job.ID)
	if err != nil {
		return s.failStreaming(job, metrics.OpDownload, sink, err)
	}

	_ = job.TransitionTo(model.StageDownloading)
	s.logger.Info("download started", "job_id", job.ID, "url", input.SourceURL)

	onLine := s.downloadProgress(job, sink)
	if err := s.timedDownload(ctx, input.SourceURL, paths.DownloadTemplate, onLine); err != nil {
		return s.failStreaming(job, metrics.OpDownload, sink, fmt.Errorf("download source: %w", err))
	}

	// The tool substitutes the container extension, so the artifact is
	// located by prefix after the fact.
	file, info, err := s.paths.FindByPrefix(job.ID)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = downloader.ErrOutputNotProduced
		}
		return s.failStreaming(job, metrics.OpDownload, sink, err)
	}

	s.finishJob(job, metrics.OpDownload)
	s.recordArtifact(ctx, &model.Clip{
		ID:        job.ID,
		SourceURL: input.SourceURL,
		Kind:      model.KindDownload,
		FilePath:  file,
		SizeBytes: info.Size(),
		CreatedAt: time.Now(),
	})

	sink(model.DownloadDoneEvent(job.ID, filepath.Base(file), info.Size()))
	return nil
}

// DirectHLS fetches the full source video and packages it as an HLS
// rendition.
func (s *jobService) DirectHLS(ctx context.Context, input DirectHLSInput, sink model.EventSink) error {
	tier, err := resolveTier(input.Quality)
	if err != nil {
		return err
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	ctx, cancel := s.jobContext(ctx)
	defer cancel()

	job := model.NewJob()
	sink(model.StartEvent(job.ID))

	paths, err := s.paths.Resolve(job.ID)
	if err != nil {
		return s.failStreaming(job, metrics.OpDirectHLS, sink, err)
	}

	_ = job.TransitionTo(model.StageDownloading)
	s.logger.Info("direct hls started", "job_id", job.ID, "url", input.SourceURL)

	onLine := s.downloadProgress(job, sink)
	if err := s.timedDownload(ctx, input.SourceURL, paths.TempFile, onLine); err != nil {
		return s.failStreaming(job, metrics.OpDirectHLS, sink, fmt.Errorf("download source: %w", err))
	}
	// The full-length intermediate is removed whether or not packaging
	// succeeds.
	defer s.removeFile(paths.TempFile)

	_ = job.TransitionTo(model.StageTranscoding)
	result, err := s.packageHLS(ctx, paths.TempFile, transcoder.HLSOptions{
		VideoID: job.ID,
		Tier:    tier,
		Progress: func(percent float64) {
			sink(model.ProgressEvent(job.ID, model.StageTranscoding, percent))
		},
	})
	if err != nil {
		return s.failStreaming(job, metrics.OpDirectHLS, sink, fmt.Errorf("package source: %w", err))
	}

	s.finishJob(job, metrics.OpDirectHLS)
	clip := &model.Clip{
		ID:           job.ID,
		SourceURL:    input.SourceURL,
		Kind:         model.KindHLS,
		ManifestPath: result.ManifestPath,
		SizeBytes:    totalSize(result.SegmentPaths),
		CreatedAt:    time.Now(),
	}
	s.recordArtifact(ctx, clip)
	s.archiveRendition(ctx, result)

	sink(model.HLSDoneEvent(job.ID, result.ManifestPath, playlistURL(result.VideoID)))
	return nil
}

// StreamExisting packages an already-downloaded video as an HLS rendition.
func (s *jobService) StreamExisting(ctx context.Context, videoID string) (*StreamOutput, error) {
	source, err := s.paths.MediaFile(videoID)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(source); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, videoID)
		}
		return nil, fmt.Errorf("stat source: %w", err)
	}

	// Serve the existing rendition if one was already produced.
	if manifest, err := s.paths.ManifestFile(videoID); err == nil {
		if _, statErr := os.Stat(manifest); statErr == nil {
			return &StreamOutput{
				VideoID:      videoID,
				ManifestPath: manifest,
				PlaylistURL:  playlistURL(videoID),
			}, nil
		}
	}

	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ctx, cancel := s.jobContext(ctx)
	defer cancel()

	result, err := s.packageHLS(ctx, source, transcoder.HLSOptions{VideoID: videoID})
	if err != nil {
		metrics.JobsTotal.WithLabelValues(metrics.OpStream, metrics.StatusError).Inc()
		return nil, fmt.Errorf("package source: %w", err)
	}
	metrics.JobsTotal.WithLabelValues(metrics.OpStream, metrics.StatusOK).Inc()

	s.archiveRendition(ctx, result)

	return &StreamOutput{
		VideoID:      result.VideoID,
		ManifestPath: result.ManifestPath,
		PlaylistURL:  playlistURL(result.VideoID),
	}, nil
}

// ListClips returns recently completed artifacts, newest first. The clip
// history is authoritative when configured; the artifact index serves as a
// fallback.
func (s *jobService) ListClips(ctx context.Context, limit int) ([]*model.Clip, error) {
	if limit <= 0 {
		limit = 20
	}
	if s.history != nil {
		return s.history.ListRecent(ctx, limit)
	}
	if s.index != nil {
		return s.index.Recent(ctx, limit)
	}
	return []*model.Clip{}, nil
}

// downloadAndCut runs the two-stage pipeline shared by the clip operations:
// fetch the full source to the temp path, then trim it to the clip file.
// The full-length intermediate is removed on every exit path.
func (s *jobService) downloadAndCut(ctx context.Context, job *model.Job, sourceURL string, rng model.TimeRange, paths workspace.WorkingPaths) error {
	if err := s.dl.Probe(ctx); err != nil {
		return err
	}

	_ = job.TransitionTo(model.StageDownloading)
	s.logger.Info("clip download started", "job_id", job.ID, "url", sourceURL)

	if err := s.timedDownload(ctx, sourceURL, paths.TempFile, nil); err != nil {
		return fmt.Errorf("download source: %w", err)
	}
	defer s.removeFile(paths.TempFile)

	_ = job.TransitionTo(model.StageTranscoding)
	start := time.Now()
	err := s.tc.ExtractClip(ctx, paths.TempFile, paths.ClipFile, rng.Start, rng.End)
	metrics.ExternalProcessDuration.WithLabelValues(metrics.ToolFFmpeg).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("cut segment: %w", err)
	}
	return nil
}

// packageHLS wraps TranscodeToHLS with process duration metrics.
func (s *jobService) packageHLS(ctx context.Context, inputPath string, opts transcoder.HLSOptions) (*transcoder.HLSResult, error) {
	start := time.Now()
	result, err := s.tc.TranscodeToHLS(ctx, inputPath, s.paths.HLSRoot(), opts)
	metrics.ExternalProcessDuration.WithLabelValues(metrics.ToolFFmpeg).Observe(time.Since(start).Seconds())
	return result, err
}

// timedDownload wraps Download with process duration metrics.
func (s *jobService) timedDownload(ctx context.Context, url, dest string, onLine func(string)) error {
	start := time.Now()
	err := s.dl.Download(ctx, url, dest, onLine)
	metrics.ExternalProcessDuration.WithLabelValues(metrics.ToolYtDlp).Observe(time.Since(start).Seconds())
	return err
}

// downloadProgress builds an output-line callback that forwards whole-point
// progress changes to the sink.
func (s *jobService) downloadProgress(job *model.Job, sink model.EventSink) func(string) {
	last := -1.0
	return func(line string) {
		percent, ok := downloader.ParsePercent(line)
		if !ok || percent < last+1 {
			return
		}
		last = percent
		sink(model.ProgressEvent(job.ID, model.StageDownloading, percent))
	}
}

// acquire claims a job slot, waiting until one frees or ctx expires.
func (s *jobService) acquire(ctx context.Context) (func(), error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJobQueueFull, err)
	}
	metrics.ActiveJobs.Inc()
	return func() {
		metrics.ActiveJobs.Dec()
		s.slots.Release(1)
	}, nil
}

// jobContext derives the per-job deadline context.
func (s *jobService) jobContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.jobTimeout > 0 {
		return context.WithTimeout(ctx, s.jobTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *jobService) finishJob(job *model.Job, operation string) {
	_ = job.TransitionTo(model.StageDone)
	metrics.JobsTotal.WithLabelValues(operation, metrics.StatusOK).Inc()
	s.logger.Info("job finished", "job_id", job.ID, "operation", operation)
}

func (s *jobService) failJob(job *model.Job, operation string, cause error) {
	job.Fail(cause)
	metrics.JobsTotal.WithLabelValues(operation, metrics.StatusError).Inc()
	s.logger.Error("job failed",
		"job_id", job.ID,
		"operation", operation,
		"stage", job.FailedStage.String(),
		"error", cause,
	)
}

// failStreaming fails the job and emits the terminal error event. The
// returned error carries the cause for the caller's logging; the client
// has already received it through the sink.
func (s *jobService) failStreaming(job *model.Job, operation string, sink model.EventSink, cause error) error {
	s.failJob(job, operation, cause)
	sink(model.ErrorEvent(job.ID, cause.Error()))
	return cause
}

// recordArtifact persists the completed artifact to the clip history and
// the artifact index. Both writes are best-effort.
func (s *jobService) recordArtifact(ctx context.Context, clip *model.Clip) {
	if s.history != nil {
		if err := s.history.Create(ctx, clip); err != nil {
			s.logger.Warn("clip history write failed", "clip_id", clip.ID, "error", err)
		}
	}
	if s.index != nil {
		if err := s.index.Add(ctx, clip); err != nil {
			s.logger.Warn("artifact index write failed", "clip_id", clip.ID, "error", err)
		}
	}
}

// archiveRendition uploads the rendition's manifest and segments to object
// storage. Best-effort: the rendition is already served from disk.
func (s *jobService) archiveRendition(ctx context.Context, result *transcoder.HLSResult) {
	if s.archive == nil {
		return
	}

	upload := func(path, contentType string) {
		key := "hls/" + result.VideoID + "/" + filepath.Base(path)
		exists, err := s.archive.Exists(ctx, key)
		if err != nil {
			s.logger.Warn("archive lookup failed", "key", key, "error", err)
		} else if exists {
			return
		}

		f, err := os.Open(path)
		if err != nil {
			s.logger.Warn("archive open failed", "path", path, "error", err)
			return
		}
		defer f.Close()

		if err := s.archive.Upload(ctx, key, f, contentType); err != nil {
			s.logger.Warn("archive upload failed", "key", key, "error", err)
		}
	}

	upload(result.ManifestPath, "application/vnd.apple.mpegurl")
	for _, segment := range result.SegmentPaths {
		upload(segment, "video/mp2t")
	}
}

// removeFile deletes an intermediate artifact. Failures are logged and
// never propagated; the periodic sweep catches leftovers.
func (s *jobService) removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("intermediate cleanup failed", "path", path, "error", err)
	}
}

// resolveTier maps a quality name to a tier. Empty selects the fixed CRF
// profile (nil tier).
func resolveTier(quality string) (*transcoder.Tier, error) {
	if quality == "" {
		return nil, nil
	}
	tier, err := transcoder.TierByName(quality)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

// playlistURL is the public URL of a rendition's manifest.
func playlistURL(videoID string) string {
	return "/video/hls/" + videoID + "/playlist.m3u8"
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func totalSize(paths []string) int64 {
	var total int64
	for _, p := range paths {
		total += fileSize(p)
	}
	return total
}
