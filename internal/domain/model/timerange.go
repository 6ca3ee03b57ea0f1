package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingTimestamp = errors.New("start and end timestamps are required")
	ErrInvalidTimeRange = errors.New("clip end must be after clip start")
)

// TimeRange is a pair of human-readable timestamps passed through to the
// transcoder's trim options. Values are kept as strings: exact format
// validation belongs to the transcoder, but when both endpoints parse as
// timestamps an inverted range is rejected here, before any process spawns.
type TimeRange struct {
	Start string
	End   string
}

// Validate rejects empty endpoints and ranges where end precedes start.
// Unparsable timestamps pass: the transcoder surfaces those as a process
// failure.
func (r TimeRange) Validate() error {
	if r.Start == "" || r.End == "" {
		return ErrMissingTimestamp
	}

	start, okStart := parseTimestamp(r.Start)
	end, okEnd := parseTimestamp(r.End)
	if okStart && okEnd && end <= start {
		return ErrInvalidTimeRange
	}

	return nil
}

// parseTimestamp parses "SS", "MM:SS" or "HH:MM:SS", each with an optional
// fractional part, into a duration.
func parseTimestamp(s string) (time.Duration, bool) {
	parts := strings.Split(s, ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, false
	}

	var total float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}

	return time.Duration(total * float64(time.Second)), true
}
