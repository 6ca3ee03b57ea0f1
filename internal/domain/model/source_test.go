package model

import (
	"errors"
	"testing"
)

func TestParseSourceURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{name: "youtube watch url", raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{name: "short url", raw: "https://youtu.be/dQw4w9WgXcQ"},
		{name: "bare host", raw: "https://youtube.com/watch?v=abc"},
		{name: "music subdomain", raw: "https://music.youtube.com/watch?v=abc"},
		{name: "plain http", raw: "http://youtube.com/watch?v=abc"},
		{name: "empty", raw: "", wantErr: ErrEmptySourceURL},
		{name: "other host", raw: "https://vimeo.com/123456", wantErr: ErrDisallowedSource},
		{name: "suffix squat", raw: "https://notyoutube.com/watch", wantErr: ErrDisallowedSource},
		{name: "host suffix trick", raw: "https://youtube.com.evil.net/watch", wantErr: ErrDisallowedSource},
		{name: "non-http scheme", raw: "ftp://youtube.com/watch", wantErr: ErrDisallowedSource},
		{name: "scheme relative", raw: "//youtube.com/watch", wantErr: ErrDisallowedSource},
		{name: "not a url", raw: "::::", wantErr: ErrDisallowedSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSourceURL(tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSourceURL() error = %v", err)
			}
			if got != tt.raw {
				t.Errorf("url = %q, want input returned unchanged", got)
			}
		})
	}
}

func TestParseSourceURLAllowing(t *testing.T) {
	hosts := []string{"example.org"}

	if _, err := ParseSourceURLAllowing("https://video.example.org/v/1", hosts); err != nil {
		t.Errorf("subdomain of allowed host rejected: %v", err)
	}
	if _, err := ParseSourceURLAllowing("https://youtube.com/watch?v=abc", hosts); !errors.Is(err, ErrDisallowedSource) {
		t.Errorf("host outside custom allow-list accepted")
	}
}
