// Package workspace maps job identifiers to their on-disk layout.
//
// All paths derive deterministically from a job ID and a single root
// directory threaded in at construction time. Layout:
//
//	<root>/<id>.<ext>            full downloads (extension chosen by the tool)
//	<root>/<id>_temp.mp4         intermediate full-length download
//	<root>/clip_<id>.mp4         trimmed clip output
//	<root>/hls/<videoID>/        HLS rendition (playlist.m3u8 + segment<N>.ts)
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsafeName is returned for identifiers that could escape the root
	// directory (path separators, traversal sequences, empty names).
	ErrUnsafeName = errors.New("identifier contains unsafe path characters")
)

// WorkingPaths is the read-only path bundle for one job. Distinct job IDs
// always yield disjoint paths.
type WorkingPaths struct {
	// TempFile is the intermediate full-length download.
	TempFile string
	// DownloadTemplate is the yt-dlp output template; the tool substitutes
	// the container extension.
	DownloadTemplate string
	// ClipFile is the trimmed clip output.
	ClipFile string
	// HLSRoot is the directory under which per-video HLS renditions live.
	HLSRoot string
}

// Resolver computes working paths beneath an explicit root directory.
type Resolver struct {
	root string
}

// NewResolver creates a Resolver rooted at dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{root: dir}
}

// Root returns the configured root directory.
func (r *Resolver) Root() string {
	return r.root
}

// HLSRoot returns the directory holding all HLS renditions.
func (r *Resolver) HLSRoot() string {
	return filepath.Join(r.root, "hls")
}

// Resolve computes the working paths for jobID. Pure and idempotent;
// rejects identifiers that are not path-safe.
func (r *Resolver) Resolve(jobID string) (WorkingPaths, error) {
	if err := SafeName(jobID); err != nil {
		return WorkingPaths{}, fmt.Errorf("resolve %q: %w", jobID, err)
	}

	return WorkingPaths{
		TempFile:         filepath.Join(r.root, jobID+"_temp.mp4"),
		DownloadTemplate: filepath.Join(r.root, jobID+".%(ext)s"),
		ClipFile:         filepath.Join(r.root, "clip_"+jobID+".mp4"),
		HLSRoot:          r.HLSRoot(),
	}, nil
}

// EnsureRoot creates the root and HLS directories if absent.
func (r *Resolver) EnsureRoot() error {
	if err := os.MkdirAll(r.HLSRoot(), 0755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	return nil
}

// MediaFile returns the path of an existing source video by ID.
func (r *Resolver) MediaFile(videoID string) (string, error) {
	if err := SafeName(videoID); err != nil {
		return "", err
	}
	return filepath.Join(r.root, videoID+".mp4"), nil
}

// File returns the path of a loose artifact by filename.
func (r *Resolver) File(filename string) (string, error) {
	if err := SafeName(filename); err != nil {
		return "", err
	}
	return filepath.Join(r.root, filename), nil
}

// ManifestFile returns the manifest path for a video's HLS rendition.
func (r *Resolver) ManifestFile(videoID string) (string, error) {
	if err := SafeName(videoID); err != nil {
		return "", err
	}
	return filepath.Join(r.HLSRoot(), videoID, "playlist.m3u8"), nil
}

// SegmentFile returns the path of one segment of a video's HLS rendition.
func (r *Resolver) SegmentFile(videoID, segment string) (string, error) {
	if err := SafeName(videoID); err != nil {
		return "", err
	}
	if err := SafeName(segment); err != nil {
		return "", err
	}
	return filepath.Join(r.HLSRoot(), videoID, segment), nil
}

// FindByPrefix locates a file in the root directory whose name begins with
// jobID. Used after template downloads where the tool chooses the extension.
// Returns os.ErrNotExist when no such file exists.
func (r *Resolver) FindByPrefix(jobID string) (string, os.FileInfo, error) {
	if err := SafeName(jobID); err != nil {
		return "", nil, err
	}

	entries, err := os.ReadDir(r.root)
	if err != nil {
		return "", nil, fmt.Errorf("read workspace root: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), jobID) {
			info, err := entry.Info()
			if err != nil {
				return "", nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
			}
			return filepath.Join(r.root, entry.Name()), info, nil
		}
	}

	return "", nil, os.ErrNotExist
}

// SafeName rejects names that are empty, contain path separators, or
// contain traversal sequences. Allowed characters are letters, digits,
// '.', '_', '-' and '%' (for download templates).
func SafeName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrUnsafeName
	}
	if strings.Contains(name, "..") {
		return ErrUnsafeName
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-', c == '%', c == '(', c == ')':
		default:
			return ErrUnsafeName
		}
	}
	return nil
}
