package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/clipstream-dev/clipstream/internal/domain/model"
	"github.com/clipstream-dev/clipstream/internal/downloader"
	"github.com/clipstream-dev/clipstream/internal/transcoder"
	"github.com/clipstream-dev/clipstream/internal/usecase"
	"github.com/clipstream-dev/clipstream/internal/workspace"
)

// Response types

type ClipResponse struct {
	Message string `json:"message"`
	File    string `json:"file"`
}

type HLSClipResponse struct {
	Message     string `json:"message"`
	M3U8Path    string `json:"m3u8Path"`
	PlaylistURL string `json:"playlistUrl"`
}

type StreamResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	M3U8Path    string `json:"m3u8Path"`
	PlaylistURL string `json:"playlistUrl"`
}

type ClipListItem struct {
	ID          string `json:"id"`
	SourceURL   string `json:"source_url"`
	Kind        string `json:"kind"`
	File        string `json:"file,omitempty"`
	PlaylistURL string `json:"playlistUrl,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
	CreatedAt   string `json:"created_at"`
}

// VideoHandler handles the /video route group.
type VideoHandler struct {
	svc    usecase.JobService
	paths  *workspace.Resolver
	logger *slog.Logger
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(svc usecase.JobService, paths *workspace.Resolver, logger *slog.Logger) *VideoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VideoHandler{svc: svc, paths: paths, logger: logger}
}

// Root handles GET /video/
func (h *VideoHandler) Root(w http.ResponseWriter, r *http.Request) {
	Text(w, http.StatusOK, "video service is running")
}

// DownloadClip handles GET /video/downloadClip?url=&start=&end=
func (h *VideoHandler) DownloadClip(w http.ResponseWriter, r *http.Request) {
	sourceURL, err := model.ParseSourceURL(r.URL.Query().Get("url"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	output, err := h.svc.ExtractClip(r.Context(), usecase.ExtractClipInput{
		SourceURL: sourceURL,
		Range: model.TimeRange{
			Start: r.URL.Query().Get("start"),
			End:   r.URL.Query().Get("end"),
		},
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, ClipResponse{
		Message: "Clip created successfully",
		File:    filepath.Base(output.FilePath),
	})
}

// DownloadHLSClip handles GET /video/downloadHlsClip?url=&start=&end=&quality=
func (h *VideoHandler) DownloadHLSClip(w http.ResponseWriter, r *http.Request) {
	sourceURL, err := model.ParseSourceURL(r.URL.Query().Get("url"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	output, err := h.svc.ExtractClipHLS(r.Context(), usecase.ExtractClipHLSInput{
		SourceURL: sourceURL,
		Range: model.TimeRange{
			Start: r.URL.Query().Get("start"),
			End:   r.URL.Query().Get("end"),
		},
		Quality: r.URL.Query().Get("quality"),
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, HLSClipResponse{
		Message:     "HLS clip created successfully",
		M3U8Path:    output.ManifestPath,
		PlaylistURL: output.PlaylistURL,
	})
}

// Download handles GET /video/download?url=
// The response is a newline-delimited JSON event stream.
func (h *VideoHandler) Download(w http.ResponseWriter, r *http.Request) {
	sourceURL, err := model.ParseSourceURL(r.URL.Query().Get("url"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	stream := newEventStream(w)
	err = h.svc.Download(r.Context(), usecase.DownloadInput{SourceURL: sourceURL}, stream.Send)
	h.finishStream(w, stream, err)
}

// Direct handles GET /video/direct?url=&quality=
// The response is a newline-delimited JSON event stream.
func (h *VideoHandler) Direct(w http.ResponseWriter, r *http.Request) {
	sourceURL, err := model.ParseSourceURL(r.URL.Query().Get("url"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	stream := newEventStream(w)
	err = h.svc.DirectHLS(r.Context(), usecase.DirectHLSInput{
		SourceURL: sourceURL,
		Quality:   r.URL.Query().Get("quality"),
	}, stream.Send)
	h.finishStream(w, stream, err)
}

// finishStream closes out a streaming response. A failure after the stream
// began has already reached the client as an error event; a failure before
// the first event still gets a conventional JSON error response.
func (h *VideoHandler) finishStream(w http.ResponseWriter, stream *eventStream, err error) {
	if err == nil {
		return
	}
	if !stream.Started() {
		h.handleServiceError(w, err)
		return
	}
	h.logger.Error("streaming job failed", "error", err)
}

// File handles GET /video/file/{filename}
func (h *VideoHandler) File(w http.ResponseWriter, r *http.Request) {
	path, err := h.paths.File(chi.URLParam(r, "filename"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_filename", "File name contains unsafe characters")
		return
	}
	if _, err := os.Stat(path); err != nil {
		Error(w, http.StatusNotFound, "file_not_found", "File not found")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+filepath.Base(path)+"\"")
	http.ServeFile(w, r, path)
}

// Stream handles GET /video/stream/{videoID}
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	output, err := h.svc.StreamExisting(r.Context(), chi.URLParam(r, "videoID"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	JSON(w, http.StatusOK, StreamResponse{
		Status:      "success",
		Message:     "HLS stream ready",
		M3U8Path:    output.ManifestPath,
		PlaylistURL: output.PlaylistURL,
	})
}

// Playlist handles GET /video/hls/{videoID}/playlist.m3u8
func (h *VideoHandler) Playlist(w http.ResponseWriter, r *http.Request) {
	path, err := h.paths.ManifestFile(chi.URLParam(r, "videoID"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_video_id", "Video ID contains unsafe characters")
		return
	}
	if _, err := os.Stat(path); err != nil {
		Error(w, http.StatusNotFound, "playlist_not_found", "Playlist not found")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	http.ServeFile(w, r, path)
}

// Segment handles GET /video/hls/{videoID}/{segment}
func (h *VideoHandler) Segment(w http.ResponseWriter, r *http.Request) {
	path, err := h.paths.SegmentFile(chi.URLParam(r, "videoID"), chi.URLParam(r, "segment"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_segment", "Segment name contains unsafe characters")
		return
	}
	if _, err := os.Stat(path); err != nil {
		Error(w, http.StatusNotFound, "segment_not_found", "Segment not found")
		return
	}

	w.Header().Set("Content-Type", "video/MP2T")
	http.ServeFile(w, r, path)
}

// Clips handles GET /video/clips
func (h *VideoHandler) Clips(w http.ResponseWriter, r *http.Request) {
	clips, err := h.svc.ListClips(r.Context(), 20)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	items := make([]ClipListItem, 0, len(clips))
	for _, clip := range clips {
		item := ClipListItem{
			ID:        clip.ID,
			SourceURL: clip.SourceURL,
			Kind:      string(clip.Kind),
			SizeBytes: clip.SizeBytes,
			CreatedAt: clip.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if clip.FilePath != "" {
			item.File = filepath.Base(clip.FilePath)
		}
		if clip.ManifestPath != "" {
			item.PlaylistURL = "/video/hls/" + clip.ID + "/playlist.m3u8"
		}
		items = append(items, item)
	}

	JSON(w, http.StatusOK, items)
}

func (h *VideoHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrEmptySourceURL):
		Error(w, http.StatusBadRequest, "missing_url", "URL query parameter is required")
	case errors.Is(err, model.ErrDisallowedSource):
		Error(w, http.StatusBadRequest, "disallowed_url", "Only YouTube URLs are allowed")
	case errors.Is(err, model.ErrMissingTimestamp):
		Error(w, http.StatusBadRequest, "missing_timestamps", "Start and end query parameters are required")
	case errors.Is(err, model.ErrInvalidTimeRange):
		Error(w, http.StatusBadRequest, "invalid_time_range", "Clip end must be after clip start")
	case errors.Is(err, transcoder.ErrUnknownTier):
		Error(w, http.StatusBadRequest, "invalid_quality", "Unknown quality tier")
	case errors.Is(err, workspace.ErrUnsafeName):
		Error(w, http.StatusBadRequest, "invalid_identifier", "Identifier contains unsafe characters")
	case errors.Is(err, usecase.ErrSourceNotFound):
		Error(w, http.StatusNotFound, "video_not_found", "Video not found")
	case errors.Is(err, usecase.ErrJobQueueFull):
		Error(w, http.StatusServiceUnavailable, "busy", "Too many jobs in flight, retry later")
	case errors.Is(err, downloader.ErrDependencyMissing):
		Error(w, http.StatusInternalServerError, "dependency_missing", "yt-dlp is not installed on the server")
	default:
		Error(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
