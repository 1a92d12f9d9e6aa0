// Package bolt provides a single-file vector index backed by go.etcd.io/bbolt.
// Entries are JSON records keyed by embedding ref; search is a full cosine scan.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

// FileName is the index file created inside the data directory.
const FileName = "vectors.bolt"

var bucketEmbeddings = []byte("embeddings")

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex implements driven.VectorIndex on a bbolt file.
type VectorIndex struct {
	db *bbolt.DB
}

type record struct {
	VersionID string       `json:"version_id"`
	ChapterID string       `json:"chapter_id"`
	Stage     domain.Stage `json:"stage"`
	CreatedAt time.Time    `json:"created_at"`
	Embedding []float32    `json:"embedding"`
}

// NewVectorIndex opens (or creates) the index file in dataDir.
func NewVectorIndex(dataDir string) (*VectorIndex, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := bbolt.Open(filepath.Join(dataDir, FileName), 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: opening bolt index: %w", domain.ErrVectorIndexUnavailable, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEmbeddings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &VectorIndex{db: db}, nil
}

// Path returns the index file path.
func (i *VectorIndex) Path() string {
	return i.db.Path()
}

// Add stores or replaces an embedding entry.
func (i *VectorIndex) Add(_ context.Context, entry driven.VectorEntry) error {
	if entry.Ref == "" || len(entry.Embedding) == 0 {
		return domain.ErrInvalidInput
	}
	data, err := json.Marshal(record{
		VersionID: entry.VersionID,
		ChapterID: entry.ChapterID,
		Stage:     entry.Stage,
		CreatedAt: entry.CreatedAt,
		Embedding: entry.Embedding,
	})
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	return i.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).Put([]byte(entry.Ref), data)
	})
}

// Search returns the k most similar entries passing the filter.
func (i *VectorIndex) Search(
	ctx context.Context, query []float32, k int, filter domain.VersionFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	hits := []driven.VectorHit{}
	err := i.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketEmbeddings).ForEach(func(key, value []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r record
			if err := json.Unmarshal(value, &r); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
			if len(r.Embedding) != len(query) || !filter.Matches(r.ChapterID, r.Stage) {
				return nil
			}
			hits = append(hits, driven.VectorHit{
				Ref:        string(key),
				VersionID:  r.VersionID,
				Similarity: domain.CosineSimilarity(query, r.Embedding),
				CreatedAt:  r.CreatedAt,
			})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	driven.SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Has reports whether an entry exists for the ref.
func (i *VectorIndex) Has(_ context.Context, ref string) (bool, error) {
	var found bool
	err := i.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket(bucketEmbeddings).Get([]byte(ref)) != nil
		return nil
	})
	return found, err
}

// Count returns the number of stored entries.
func (i *VectorIndex) Count(_ context.Context) (int, error) {
	var n int
	err := i.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketEmbeddings).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the index file.
func (i *VectorIndex) Close() error {
	return i.db.Close()
}
