package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/clipstream-dev/clipstream/internal/domain/repository"
)

// mockMinioClient is a function-field mock of minioClient.
type mockMinioClient struct {
	bucketExistsFunc func(ctx context.Context, bucketName string) (bool, error)
	putObjectFunc    func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	statObjectFunc   func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

func (m *mockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	if m.bucketExistsFunc != nil {
		return m.bucketExistsFunc(ctx, bucketName)
	}
	return true, nil
}

func (m *mockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, bucketName, objectName, reader, objectSize, opts)
	}
	return minio.UploadInfo{}, nil
}

func (m *mockMinioClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if m.statObjectFunc != nil {
		return m.statObjectFunc(ctx, bucketName, objectName, opts)
	}
	return minio.ObjectInfo{}, nil
}

func TestNewClient_BucketChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("bucket exists", func(t *testing.T) {
		client, err := newClientWithMinioClient(ctx, &mockMinioClient{}, "renditions")
		if err != nil {
			t.Fatalf("newClientWithMinioClient() error = %v", err)
		}
		if client.Bucket() != "renditions" {
			t.Errorf("bucket = %q", client.Bucket())
		}
	})

	t.Run("bucket missing", func(t *testing.T) {
		mock := &mockMinioClient{
			bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
				return false, nil
			},
		}
		_, err := newClientWithMinioClient(ctx, mock, "renditions")
		if !errors.Is(err, repository.ErrBucketNotFound) {
			t.Fatalf("error = %v, want ErrBucketNotFound", err)
		}
	})

	t.Run("check fails", func(t *testing.T) {
		mock := &mockMinioClient{
			bucketExistsFunc: func(ctx context.Context, bucketName string) (bool, error) {
				return false, errors.New("connection refused")
			},
		}
		if _, err := newClientWithMinioClient(ctx, mock, "renditions"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestClient_Upload(t *testing.T) {
	ctx := context.Background()

	t.Run("passes key and content type through", func(t *testing.T) {
		var gotBucket, gotKey, gotContentType string
		var gotBody string
		mock := &mockMinioClient{
			putObjectFunc: func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
				gotBucket = bucketName
				gotKey = objectName
				gotContentType = opts.ContentType
				body, _ := io.ReadAll(reader)
				gotBody = string(body)
				return minio.UploadInfo{}, nil
			},
		}

		client, err := newClientWithMinioClient(ctx, mock, "renditions")
		if err != nil {
			t.Fatal(err)
		}

		err = client.Upload(ctx, "hls/vid1/playlist.m3u8", strings.NewReader("#EXTM3U"), "application/vnd.apple.mpegurl")
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}

		if gotBucket != "renditions" || gotKey != "hls/vid1/playlist.m3u8" {
			t.Errorf("uploaded to %s/%s", gotBucket, gotKey)
		}
		if gotContentType != "application/vnd.apple.mpegurl" {
			t.Errorf("content type = %q", gotContentType)
		}
		if gotBody != "#EXTM3U" {
			t.Errorf("body = %q", gotBody)
		}
	})

	t.Run("upload failure", func(t *testing.T) {
		mock := &mockMinioClient{
			putObjectFunc: func(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
				return minio.UploadInfo{}, errors.New("connection reset")
			},
		}

		client, err := newClientWithMinioClient(ctx, mock, "renditions")
		if err != nil {
			t.Fatal(err)
		}
		if err := client.Upload(ctx, "key", strings.NewReader("x"), "video/mp2t"); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestClient_Exists(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		statErr error
		want    bool
		wantErr bool
	}{
		{name: "present", statErr: nil, want: true},
		{
			name:    "absent",
			statErr: minio.ErrorResponse{Code: "NoSuchKey"},
			want:    false,
		},
		{
			name:    "backend failure",
			statErr: errors.New("connection refused"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockMinioClient{
				statObjectFunc: func(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
					return minio.ObjectInfo{}, tt.statErr
				},
			}

			client, err := newClientWithMinioClient(ctx, mock, "renditions")
			if err != nil {
				t.Fatal(err)
			}

			got, err := client.Exists(ctx, "hls/vid1/segment0.ts")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Exists() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("exists = %v, want %v", got, tt.want)
			}
		})
	}
}
