package cache

import (
	"context"

	"github.com/clipstream-dev/clipstream/internal/domain/model"
)

// ArtifactIndex keeps a bounded, most-recent-first index of completed
// artifacts. Writes are best-effort: the index is advisory and a write
// failure never changes a job's outcome.
type ArtifactIndex interface {
	// Add records a completed artifact.
	Add(ctx context.Context, clip *model.Clip) error

	// Recent returns up to limit artifacts, newest first.
	Recent(ctx context.Context, limit int) ([]*model.Clip, error)
}
