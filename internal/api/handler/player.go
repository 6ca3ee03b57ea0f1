package handler

import (
	"html/template"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
)

// playerPage is a minimal HTML5 player. Safari plays HLS natively; other
// browsers go through hls.js.
var playerPage = template.Must(template.New("player").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>clipstream player</title>
  <script src="https://cdn.jsdelivr.net/npm/hls.js@latest"></script>
  <style>
    body { margin: 0; background: #000; display: flex; justify-content: center; align-items: center; height: 100vh; }
    video { max-width: 100%; max-height: 100%; }
  </style>
</head>
<body>
  <video id="video" controls autoplay></video>
  <script>
    const src = {{.PlaylistURL}};
    const video = document.getElementById('video');
    if (video.canPlayType('application/vnd.apple.mpegurl')) {
      video.src = src;
    } else if (Hls.isSupported()) {
      const hls = new Hls();
      hls.loadSource(src);
      hls.attachMedia(video);
    }
  </script>
</body>
</html>
`))

// Play handles GET /video/play/{clipID}
func (h *VideoHandler) Play(w http.ResponseWriter, r *http.Request) {
	clipID := chi.URLParam(r, "clipID")

	manifest, err := h.paths.ManifestFile(clipID)
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid_clip_id", "Clip ID contains unsafe characters")
		return
	}
	if _, err := os.Stat(manifest); err != nil {
		Error(w, http.StatusNotFound, "clip_not_found", "No HLS rendition exists for this clip")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := playerPage.Execute(w, map[string]string{
		"PlaylistURL": "/video/hls/" + clipID + "/playlist.m3u8",
	}); err != nil {
		h.logger.Error("player page render failed", "error", err)
	}
}
