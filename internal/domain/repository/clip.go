package repository

import (
	"context"

	"github.com/clipstream-dev/clipstream/internal/domain/model"
)

// ClipRepository persists completed clip records.
// Implementations are provided by the infrastructure layer (e.g. PostgreSQL).
type ClipRepository interface {
	// Create persists a new clip record.
	Create(ctx context.Context, clip *model.Clip) error

	// ListRecent returns up to limit clips, newest first.
	ListRecent(ctx context.Context, limit int) ([]*model.Clip, error)
}
