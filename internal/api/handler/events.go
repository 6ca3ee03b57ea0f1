package handler

import (
	"encoding/json"
	"net/http"

	"github.com/clipstream-dev/clipstream/internal/domain/model"
)

// eventStream writes a newline-delimited JSON event stream over a single
// chunked response. Headers are committed lazily on the first event so
// that failures before any event still produce a conventional JSON error.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newEventStream(w http.ResponseWriter) *eventStream {
	flusher, _ := w.(http.Flusher)
	return &eventStream{w: w, flusher: flusher}
}

// Send writes one event followed by a newline and flushes it to the
// client. Encoding failures are swallowed: the stream is advisory and the
// job must not be disturbed by a departed reader.
func (s *eventStream) Send(event model.Event) {
	if !s.started {
		s.started = true
		s.w.Header().Set("Content-Type", "application/x-ndjson")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.WriteHeader(http.StatusOK)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// Started reports whether any event reached the client.
func (s *eventStream) Started() bool {
	return s.started
}
