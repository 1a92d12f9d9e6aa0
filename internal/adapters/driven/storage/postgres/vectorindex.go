// Package postgres provides a vector index on PostgreSQL with the pgvector
// extension. Ranking uses the cosine distance operator (<=>).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex over a pgxpool.
type VectorIndex struct {
	pool  *pgxpool.Pool
	table string
}

// Option configures a VectorIndex.
type Option func(*VectorIndex)

// WithTable overrides the embeddings table name. Tests use it for isolation.
func WithTable(name string) Option {
	return func(i *VectorIndex) {
		i.table = pgx.Identifier{name}.Sanitize()
	}
}

// NewVectorIndex connects, pings and creates the schema if needed.
func NewVectorIndex(ctx context.Context, dsn string, opts ...Option) (*VectorIndex, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to postgres: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: pinging postgres: %w", domain.ErrVectorIndexUnavailable, err)
	}

	idx := &VectorIndex{pool: pool, table: "folio_embeddings"}
	for _, opt := range opts {
		opt(idx)
	}

	if err := idx.initialise(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return idx, nil
}

// initialise sets up the extension and table. Dimensions vary by model, so
// the column is left unsized and searches only compare equal-sized vectors.
func (i *VectorIndex) initialise(ctx context.Context) error {
	if _, err := i.pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	_, err := i.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+i.table+` (
			ref        TEXT PRIMARY KEY,
			version_id TEXT NOT NULL,
			chapter_id TEXT NOT NULL,
			stage      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			embedding  vector NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating embeddings table: %w", err)
	}
	return nil
}

// Add stores or replaces an embedding entry.
func (i *VectorIndex) Add(ctx context.Context, entry driven.VectorEntry) error {
	if entry.Ref == "" || len(entry.Embedding) == 0 {
		return domain.ErrInvalidInput
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := i.pool.Exec(ctx, `
		INSERT INTO `+i.table+` (ref, version_id, chapter_id, stage, created_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6::vector)
		ON CONFLICT (ref) DO UPDATE SET
			version_id = EXCLUDED.version_id,
			chapter_id = EXCLUDED.chapter_id,
			stage = EXCLUDED.stage,
			created_at = EXCLUDED.created_at,
			embedding = EXCLUDED.embedding
	`, entry.Ref, entry.VersionID, entry.ChapterID, string(entry.Stage), createdAt, formatVector(entry.Embedding))
	if err != nil {
		return fmt.Errorf("%w: storing embedding: %w", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Search returns the k most similar entries passing the filter.
func (i *VectorIndex) Search(
	ctx context.Context, query []float32, k int, filter domain.VersionFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return []driven.VectorHit{}, nil
	}

	var stages []string
	for _, s := range filter.Stages {
		stages = append(stages, string(s))
	}

	rows, err := i.pool.Query(ctx, `
		SELECT ref, version_id, created_at, 1 - (embedding <=> $1::vector) AS similarity
		FROM `+i.table+`
		WHERE vector_dims(embedding) = $2
		  AND ($3 = '' OR chapter_id = $3)
		  AND (cardinality($4::text[]) = 0 OR stage = ANY($4::text[]))
		ORDER BY embedding <=> $1::vector, created_at DESC
		LIMIT $5
	`, formatVector(query), len(query), filter.ChapterID, stagesOrEmpty(stages), k)
	if err != nil {
		return nil, fmt.Errorf("%w: querying embeddings: %w", domain.ErrVectorIndexUnavailable, err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		var h driven.VectorHit
		if err := rows.Scan(&h.Ref, &h.VersionID, &h.CreatedAt, &h.Similarity); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}

	// Reapply the shared ordering so float rounding in SQL cannot break ties differently.
	driven.SortHits(hits)
	return hits, nil
}

// Has reports whether an entry exists for the ref.
func (i *VectorIndex) Has(ctx context.Context, ref string) (bool, error) {
	var one int
	err := i.pool.QueryRow(ctx, `SELECT 1 FROM `+i.table+` WHERE ref = $1`, ref).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking embedding: %w", err)
	}
	return true, nil
}

// Count returns the number of stored entries.
func (i *VectorIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+i.table).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// Drop removes the embeddings table.
func (i *VectorIndex) Drop(ctx context.Context) error {
	_, err := i.pool.Exec(ctx, `DROP TABLE IF EXISTS `+i.table)
	return err
}

// Close releases the connection pool.
func (i *VectorIndex) Close() error {
	i.pool.Close()
	return nil
}

// formatVector renders a pgvector text literal such as "[0.1,0.2]".
func formatVector(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for n, f := range v {
		if n > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func stagesOrEmpty(stages []string) []string {
	if stages == nil {
		return []string{}
	}
	return stages
}
