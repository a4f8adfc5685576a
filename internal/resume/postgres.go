package resume

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Postgres reads resume documents and manages their embedding lifecycle.
// Embeddings live in a pgvector column; the embedding_status column tracks
// the single-attempt policy (pending, done, failed).
type Postgres struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres connects to the database and verifies the connection.
func NewPostgres(ctx context.Context, databaseURL string, logger *zap.Logger) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

func (s *Postgres) Close() {
	s.pool.Close()
}

// GetProfile returns the document's text and, when already computed, its
// embedding. ErrNotFound is returned only when the document does not exist.
func (s *Postgres) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var (
		content string
		raw     *string
	)

	row := s.pool.QueryRow(ctx, `SELECT content, embedding::text FROM documents WHERE id = $1`, id)
	if err := row.Scan(&content, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("query document: %w", err)
	}

	profile := &Profile{ID: id, Text: content}

	if raw != nil {
		vector, err := ParseVector(*raw)
		if err != nil {
			return nil, fmt.Errorf("stored embedding for %s: %w", id, err)
		}
		profile.Embedding = vector
	}

	return profile, nil
}

// ListPending returns documents still waiting for their embedding attempt.
func (s *Postgres) ListPending(ctx context.Context, limit int) ([]Profile, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, content FROM documents
		 WHERE embedding IS NULL AND embedding_status = 'pending'
		 ORDER BY created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending documents: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var profile Profile
		if err := rows.Scan(&profile.ID, &profile.Text); err != nil {
			return nil, fmt.Errorf("scan pending document: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, rows.Err()
}

// SaveEmbedding stores the computed vector. The embedding IS NULL guard
// keeps an already-computed embedding immutable.
func (s *Postgres) SaveEmbedding(ctx context.Context, id string, vector []float64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET embedding = $2::vector, embedding_status = 'done'
		 WHERE id = $1 AND embedding IS NULL`,
		id, FormatVector(vector))
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}

	if tag.RowsAffected() == 0 {
		s.logger.Debug("embedding already present, skipping write", zap.String("document_id", id))
	}

	return nil
}

// MarkFailed records a failed embedding attempt so the document is never
// retried.
func (s *Postgres) MarkFailed(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE documents SET embedding_status = 'failed' WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark embedding failed: %w", err)
	}
	return nil
}
