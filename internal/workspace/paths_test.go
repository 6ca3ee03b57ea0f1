package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver("/data")

	paths, err := r.Resolve("job1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if paths.TempFile != filepath.Join("/data", "job1_temp.mp4") {
		t.Errorf("temp file = %q", paths.TempFile)
	}
	if paths.DownloadTemplate != filepath.Join("/data", "job1.%(ext)s") {
		t.Errorf("download template = %q", paths.DownloadTemplate)
	}
	if paths.ClipFile != filepath.Join("/data", "clip_job1.mp4") {
		t.Errorf("clip file = %q", paths.ClipFile)
	}
	if paths.HLSRoot != filepath.Join("/data", "hls") {
		t.Errorf("hls root = %q", paths.HLSRoot)
	}

	t.Run("deterministic", func(t *testing.T) {
		again, err := r.Resolve("job1")
		if err != nil {
			t.Fatal(err)
		}
		if again != paths {
			t.Errorf("second resolve differs: %+v vs %+v", again, paths)
		}
	})

	t.Run("disjoint per job", func(t *testing.T) {
		other, err := r.Resolve("job2")
		if err != nil {
			t.Fatal(err)
		}
		if other.TempFile == paths.TempFile || other.ClipFile == paths.ClipFile {
			t.Error("distinct jobs share paths")
		}
	})
}

func TestSafeName(t *testing.T) {
	valid := []string{"job1", "clip_job1.mp4", "a-b.c", "vid1.%(ext)s", "UPPER.09"}
	for _, name := range valid {
		if err := SafeName(name); err != nil {
			t.Errorf("SafeName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{
		"",
		".",
		"..",
		"../etc/passwd",
		"a/../b",
		"a/b",
		`a\b`,
		"a b",
		"a\x00b",
		"über",
	}
	for _, name := range invalid {
		if err := SafeName(name); !errors.Is(err, ErrUnsafeName) {
			t.Errorf("SafeName(%q) = %v, want ErrUnsafeName", name, err)
		}
	}
}

func TestResolver_FileAccessors(t *testing.T) {
	r := NewResolver("/data")

	t.Run("media file", func(t *testing.T) {
		path, err := r.MediaFile("vid1")
		if err != nil {
			t.Fatal(err)
		}
		if path != filepath.Join("/data", "vid1.mp4") {
			t.Errorf("path = %q", path)
		}
	})

	t.Run("manifest and segment", func(t *testing.T) {
		manifest, err := r.ManifestFile("vid1")
		if err != nil {
			t.Fatal(err)
		}
		if manifest != filepath.Join("/data", "hls", "vid1", "playlist.m3u8") {
			t.Errorf("manifest = %q", manifest)
		}

		segment, err := r.SegmentFile("vid1", "segment0.ts")
		if err != nil {
			t.Fatal(err)
		}
		if segment != filepath.Join("/data", "hls", "vid1", "segment0.ts") {
			t.Errorf("segment = %q", segment)
		}
	})

	t.Run("traversal rejected everywhere", func(t *testing.T) {
		if _, err := r.File("../escape"); !errors.Is(err, ErrUnsafeName) {
			t.Error("File accepted traversal")
		}
		if _, err := r.MediaFile("../escape"); !errors.Is(err, ErrUnsafeName) {
			t.Error("MediaFile accepted traversal")
		}
		if _, err := r.SegmentFile("vid1", "../../escape"); !errors.Is(err, ErrUnsafeName) {
			t.Error("SegmentFile accepted traversal")
		}
	})
}

func TestResolver_FindByPrefix(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir)

	t.Run("not found", func(t *testing.T) {
		_, _, err := r.FindByPrefix("job1")
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("error = %v, want os.ErrNotExist", err)
		}
	})

	t.Run("finds tool-named artifact", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "job1.webm"), []byte("media"), 0644); err != nil {
			t.Fatal(err)
		}

		path, info, err := r.FindByPrefix("job1")
		if err != nil {
			t.Fatalf("FindByPrefix() error = %v", err)
		}
		if filepath.Base(path) != "job1.webm" {
			t.Errorf("path = %q", path)
		}
		if info.Size() != int64(len("media")) {
			t.Errorf("size = %d", info.Size())
		}
	})

	t.Run("directories are skipped", func(t *testing.T) {
		if err := os.Mkdir(filepath.Join(dir, "job2"), 0755); err != nil {
			t.Fatal(err)
		}
		if _, _, err := r.FindByPrefix("job2"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("directory matched as artifact: %v", err)
		}
	})
}

func TestResolver_EnsureRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "workspace")
	r := NewResolver(root)

	if err := r.EnsureRoot(); err != nil {
		t.Fatalf("EnsureRoot() error = %v", err)
	}

	info, err := os.Stat(r.HLSRoot())
	if err != nil || !info.IsDir() {
		t.Errorf("hls root missing after EnsureRoot: %v", err)
	}

	// Idempotent.
	if err := r.EnsureRoot(); err != nil {
		t.Errorf("second EnsureRoot() error = %v", err)
	}
}
