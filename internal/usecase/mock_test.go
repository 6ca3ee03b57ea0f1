package usecase

import (
	"context"
	"io"
	"os"

	"github.com/clipstream-dev/clipstream/internal/domain/model"
	"github.com/clipstream-dev/clipstream/internal/transcoder"
)

// mockDownloader is a function-field mock of downloader.Downloader.
type mockDownloader struct {
	probeFunc    func(ctx context.Context) error
	downloadFunc func(ctx context.Context, url, dest string, onLine func(string)) error
}

func (m *mockDownloader) Probe(ctx context.Context) error {
	if m.probeFunc != nil {
		return m.probeFunc(ctx)
	}
	return nil
}

func (m *mockDownloader) Download(ctx context.Context, url, dest string, onLine func(string)) error {
	if m.downloadFunc != nil {
		return m.downloadFunc(ctx, url, dest, onLine)
	}
	return writeFile(dest)
}

// mockTranscoder is a function-field mock of transcoder.Transcoder.
type mockTranscoder struct {
	extractClipFunc    func(ctx context.Context, inputPath, outputPath, start, end string) error
	transcodeToHLSFunc func(ctx context.Context, inputPath, outputRoot string, opts transcoder.HLSOptions) (*transcoder.HLSResult, error)
}

func (m *mockTranscoder) ExtractClip(ctx context.Context, inputPath, outputPath, start, end string) error {
	if m.extractClipFunc != nil {
		return m.extractClipFunc(ctx, inputPath, outputPath, start, end)
	}
	return writeFile(outputPath)
}

func (m *mockTranscoder) TranscodeToHLS(ctx context.Context, inputPath, outputRoot string, opts transcoder.HLSOptions) (*transcoder.HLSResult, error) {
	if m.transcodeToHLSFunc != nil {
		return m.transcodeToHLSFunc(ctx, inputPath, outputRoot, opts)
	}
	return &transcoder.HLSResult{}, nil
}

// mockClipRepository is a function-field mock of repository.ClipRepository.
type mockClipRepository struct {
	createFunc     func(ctx context.Context, clip *model.Clip) error
	listRecentFunc func(ctx context.Context, limit int) ([]*model.Clip, error)

	created []*model.Clip
}

func (m *mockClipRepository) Create(ctx context.Context, clip *model.Clip) error {
	m.created = append(m.created, clip)
	if m.createFunc != nil {
		return m.createFunc(ctx, clip)
	}
	return nil
}

func (m *mockClipRepository) ListRecent(ctx context.Context, limit int) ([]*model.Clip, error) {
	if m.listRecentFunc != nil {
		return m.listRecentFunc(ctx, limit)
	}
	return nil, nil
}

// mockArtifactIndex is a function-field mock of cache.ArtifactIndex.
type mockArtifactIndex struct {
	addFunc    func(ctx context.Context, clip *model.Clip) error
	recentFunc func(ctx context.Context, limit int) ([]*model.Clip, error)

	added []*model.Clip
}

func (m *mockArtifactIndex) Add(ctx context.Context, clip *model.Clip) error {
	m.added = append(m.added, clip)
	if m.addFunc != nil {
		return m.addFunc(ctx, clip)
	}
	return nil
}

func (m *mockArtifactIndex) Recent(ctx context.Context, limit int) ([]*model.Clip, error) {
	if m.recentFunc != nil {
		return m.recentFunc(ctx, limit)
	}
	return nil, nil
}

// mockObjectStorage is a function-field mock of repository.ObjectStorage.
type mockObjectStorage struct {
	uploadFunc func(ctx context.Context, key string, reader io.Reader, contentType string) error
	existsFunc func(ctx context.Context, key string) (bool, error)

	uploaded []string
}

func (m *mockObjectStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	m.uploaded = append(m.uploaded, key)
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, key, reader, contentType)
	}
	return nil
}

func (m *mockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFunc != nil {
		return m.existsFunc(ctx, key)
	}
	return false, nil
}

// writeFile creates an empty file at path, standing in for a tool artifact.
func writeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	return f.Close()
}
