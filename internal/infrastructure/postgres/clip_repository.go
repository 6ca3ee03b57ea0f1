package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clipstream-dev/clipstream/internal/domain/model"
	"github.com/clipstream-dev/clipstream/internal/domain/repository"
)

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrDuplicateClip is returned when a clip record already exists.
var ErrDuplicateClip = errors.New("clip already exists")

// ClipRepository implements repository.ClipRepository using PostgreSQL.
type ClipRepository struct {
	db DBTX
}

// Compile-time verification that ClipRepository implements repository.ClipRepository.
var _ repository.ClipRepository = (*ClipRepository)(nil)

// NewClipRepository creates a new ClipRepository instance.
func NewClipRepository(db DBTX) *ClipRepository {
	return &ClipRepository{db: db}
}

// Create persists a completed clip record.
func (r *ClipRepository) Create(ctx context.Context, clip *model.Clip) error {
	const query = `
		INSERT INTO clips (id, source_url, kind, file_path, manifest_path, size_bytes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		clip.ID,
		clip.SourceURL,
		string(clip.Kind),
		clip.FilePath,
		nullString(clip.ManifestPath),
		clip.SizeBytes,
		clip.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateClip
		}
		return fmt.Errorf("failed to create clip: %w", err)
	}

	return nil
}

// ListRecent returns up to limit clips, newest first.
func (r *ClipRepository) ListRecent(ctx context.Context, limit int) ([]*model.Clip, error) {
	const query = `
		SELECT id, source_url, kind, file_path, manifest_path, size_bytes, created_at
		FROM clips
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query clips: %w", err)
	}
	defer rows.Close()

	var clips []*model.Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan clip: %w", err)
		}
		clips = append(clips, clip)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clips: %w", err)
	}

	return clips, nil
}

// scanClip scans one row into a Clip model.
func scanClip(rows pgx.Rows) (*model.Clip, error) {
	var (
		clip         model.Clip
		kind         string
		manifestPath *string
	)

	err := rows.Scan(
		&clip.ID,
		&clip.SourceURL,
		&kind,
		&clip.FilePath,
		&manifestPath,
		&clip.SizeBytes,
		&clip.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	clip.Kind = model.ClipKind(kind)
	if manifestPath != nil {
		clip.ManifestPath = *manifestPath
	}

	return &clip, nil
}

// nullString returns nil for empty strings, otherwise returns a pointer to the string.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
