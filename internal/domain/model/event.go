package model

// EventStatus tags a status event streamed to the client.
type EventStatus string

const (
	EventStart    EventStatus = "start"
	EventProgress EventStatus = "progress"
	EventDone     EventStatus = "done"
	EventError    EventStatus = "error"
)

// Event is one entry in the newline-delimited JSON status stream emitted
// over the life of a single response. The field schema is stable: consumers
// switch on "status" and read only the fields their variant defines.
type Event struct {
	Status      EventStatus `json:"status"`
	ID          string      `json:"id,omitempty"`
	Stage       string      `json:"stage,omitempty"`
	Percent     float64     `json:"percent,omitempty"`
	Filename    string      `json:"filename,omitempty"`
	Size        int64       `json:"size,omitempty"`
	M3U8Path    string      `json:"m3u8Path,omitempty"`
	PlaylistURL string      `json:"playlistUrl,omitempty"`
	Message     string      `json:"message,omitempty"`
}

// EventSink receives status events as they occur. Sinks are advisory:
// they must not block for long and never influence job control flow.
type EventSink func(Event)

func StartEvent(jobID string) Event {
	return Event{Status: EventStart, ID: jobID}
}

func ProgressEvent(jobID string, stage Stage, percent float64) Event {
	return Event{Status: EventProgress, ID: jobID, Stage: stage.String(), Percent: percent}
}

func DownloadDoneEvent(jobID, filename string, size int64) Event {
	return Event{Status: EventDone, ID: jobID, Filename: filename, Size: size}
}

func HLSDoneEvent(jobID, m3u8Path, playlistURL string) Event {
	return Event{Status: EventDone, ID: jobID, M3U8Path: m3u8Path, PlaylistURL: playlistURL}
}

func ErrorEvent(jobID, message string) Event {
	return Event{Status: EventError, ID: jobID, Message: message}
}
