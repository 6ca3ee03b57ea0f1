package model

import (
	"errors"
	"testing"
)

func TestTimeRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		r       TimeRange
		wantErr error
	}{
		{name: "plain seconds", r: TimeRange{Start: "10", End: "30"}},
		{name: "mm:ss", r: TimeRange{Start: "01:10", End: "02:30"}},
		{name: "hh:mm:ss", r: TimeRange{Start: "00:01:10", End: "00:02:30"}},
		{name: "fractional", r: TimeRange{Start: "10.5", End: "11.25"}},
		{name: "mixed precision", r: TimeRange{Start: "59", End: "01:30"}},
		{name: "missing start", r: TimeRange{End: "30"}, wantErr: ErrMissingTimestamp},
		{name: "missing end", r: TimeRange{Start: "10"}, wantErr: ErrMissingTimestamp},
		{name: "missing both", r: TimeRange{}, wantErr: ErrMissingTimestamp},
		{name: "inverted", r: TimeRange{Start: "30", End: "10"}, wantErr: ErrInvalidTimeRange},
		{name: "inverted hh:mm:ss", r: TimeRange{Start: "00:02:00", End: "00:01:00"}, wantErr: ErrInvalidTimeRange},
		{name: "zero length", r: TimeRange{Start: "10", End: "10"}, wantErr: ErrInvalidTimeRange},
		// Unparsable values pass through; the encoder owns format errors.
		{name: "unparsable start passes", r: TimeRange{Start: "ten", End: "30"}},
		{name: "unparsable end passes", r: TimeRange{Start: "10", End: "thirty"}},
		{name: "too many fields passes", r: TimeRange{Start: "1:2:3:4", End: "30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantSec float64
		wantOK  bool
	}{
		{name: "seconds", in: "90", wantSec: 90, wantOK: true},
		{name: "mm:ss", in: "01:30", wantSec: 90, wantOK: true},
		{name: "hh:mm:ss", in: "01:00:30", wantSec: 3630, wantOK: true},
		{name: "fractional", in: "00:00:01.5", wantSec: 1.5, wantOK: true},
		{name: "negative component", in: "-10", wantOK: false},
		{name: "words", in: "soon", wantOK: false},
		{name: "empty", in: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := parseTimestamp(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && d.Seconds() != tt.wantSec {
				t.Errorf("duration = %v, want %vs", d, tt.wantSec)
			}
		})
	}
}
