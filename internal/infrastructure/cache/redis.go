package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clipstream-dev/clipstream/internal/domain/model"
)

const (
	// artifactIndexKey is the Redis list holding the artifact index.
	artifactIndexKey = "clipstream:artifacts"

	// defaultMaxEntries bounds the index length.
	defaultMaxEntries = 100
)

// clipJSON is the JSON representation of a Clip for the index.
// Using an explicit struct avoids coupling to the domain model's fields.
type clipJSON struct {
	ID           string `json:"id"`
	SourceURL    string `json:"source_url"`
	Kind         string `json:"kind"`
	FilePath     string `json:"file_path"`
	ManifestPath string `json:"manifest_path,omitempty"`
	SizeBytes    int64  `json:"size_bytes"`
	CreatedAt    string `json:"created_at"`
}

// RedisArtifactIndex implements ArtifactIndex on a Redis list.
type RedisArtifactIndex struct {
	client     *redis.Client
	maxEntries int64
}

// Compile-time verification that RedisArtifactIndex implements ArtifactIndex.
var _ ArtifactIndex = (*RedisArtifactIndex)(nil)

// NewRedisArtifactIndex creates a Redis-backed artifact index.
func NewRedisArtifactIndex(client *redis.Client) *RedisArtifactIndex {
	return &RedisArtifactIndex{
		client:     client,
		maxEntries: defaultMaxEntries,
	}
}

// Add pushes the artifact to the front of the index and trims it to the
// configured bound.
func (i *RedisArtifactIndex) Add(ctx context.Context, clip *model.Clip) error {
	data, err := i.serialize(clip)
	if err != nil {
		return fmt.Errorf("serialize clip: %w", err)
	}

	pipe := i.client.TxPipeline()
	pipe.LPush(ctx, artifactIndexKey, data)
	pipe.LTrim(ctx, artifactIndexKey, 0, i.maxEntries-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}

	return nil
}

// Recent returns up to limit artifacts, newest first.
func (i *RedisArtifactIndex) Recent(ctx context.Context, limit int) ([]*model.Clip, error) {
	if limit <= 0 {
		limit = int(i.maxEntries)
	}

	entries, err := i.client.LRange(ctx, artifactIndexKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	clips := make([]*model.Clip, 0, len(entries))
	for _, entry := range entries {
		clip, err := i.deserialize([]byte(entry))
		if err != nil {
			return nil, fmt.Errorf("deserialize clip: %w", err)
		}
		clips = append(clips, clip)
	}

	return clips, nil
}

func (i *RedisArtifactIndex) serialize(clip *model.Clip) ([]byte, error) {
	c := clipJSON{
		ID:           clip.ID,
		SourceURL:    clip.SourceURL,
		Kind:         string(clip.Kind),
		FilePath:     clip.FilePath,
		ManifestPath: clip.ManifestPath,
		SizeBytes:    clip.SizeBytes,
		CreatedAt:    clip.CreatedAt.Format(time.RFC3339Nano),
	}
	return json.Marshal(c)
}

func (i *RedisArtifactIndex) deserialize(data []byte) (*model.Clip, error) {
	var c clipJSON
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}

	createdAt, err := time.Parse(time.RFC3339Nano, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &model.Clip{
		ID:           c.ID,
		SourceURL:    c.SourceURL,
		Kind:         model.ClipKind(c.Kind),
		FilePath:     c.FilePath,
		ManifestPath: c.ManifestPath,
		SizeBytes:    c.SizeBytes,
		CreatedAt:    createdAt,
	}, nil
}
