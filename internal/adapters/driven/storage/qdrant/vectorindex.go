// Package qdrant provides a vector index on a Qdrant server. Vector sizes
// vary by embedding model, so each size gets its own collection named
// <prefix>_<dims>.
package qdrant

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
)

var _ driven.VectorIndex = (*VectorIndex)(nil)

const (
	// DefaultPort is Qdrant's gRPC port.
	DefaultPort   = 6334
	DefaultPrefix = "folio"

	payloadRef       = "ref"
	payloadVersionID = "version_id"
	payloadChapterID = "chapter_id"
	payloadStage     = "stage"
	payloadCreatedAt = "created_at"
)

// refSpace namespaces point IDs derived from embedding refs.
var refSpace = uuid.MustParse("6f1c2a0e-5b7d-4f5e-9a61-0c3e8d2b7f41")

// Config locates the Qdrant server.
type Config struct {
	Host   string
	Port   int
	UseTLS bool
	APIKey string

	// Prefix names the collections. Tests set a unique one.
	Prefix string
}

// ParseDSN reads "host:port", "qdrant://host:port" or "https://host:port".
// The port defaults to DefaultPort and https turns on TLS.
func ParseDSN(dsn string) (Config, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return Config{}, fmt.Errorf("%w: empty qdrant address", domain.ErrInvalidConfig)
	}
	if !strings.Contains(dsn, "://") {
		dsn = "qdrant://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return Config{}, fmt.Errorf("%w: qdrant address: %w", domain.ErrInvalidConfig, err)
	}

	cfg := Config{Host: u.Hostname(), Port: DefaultPort, UseTLS: u.Scheme == "https"}
	if cfg.Host == "" {
		return Config{}, fmt.Errorf("%w: qdrant address %q has no host", domain.ErrInvalidConfig, dsn)
	}
	if p := u.Port(); p != "" {
		cfg.Port, err = strconv.Atoi(p)
		if err != nil || cfg.Port <= 0 {
			return Config{}, fmt.Errorf("%w: qdrant port %q", domain.ErrInvalidConfig, p)
		}
	}
	return cfg, nil
}

// Address renders the config as host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// VectorIndex implements driven.VectorIndex over the Qdrant gRPC client.
type VectorIndex struct {
	client *qdrant.Client
	prefix string

	mu    sync.Mutex
	known map[string]bool
}

// NewVectorIndex connects and checks the server is healthy.
func NewVectorIndex(ctx context.Context, cfg Config) (*VectorIndex, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant at %s: %w", domain.ErrVectorIndexUnavailable, cfg.Address(), err)
	}
	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: qdrant at %s: %w", domain.ErrVectorIndexUnavailable, cfg.Address(), err)
	}
	return &VectorIndex{client: client, prefix: cfg.Prefix, known: make(map[string]bool)}, nil
}

func (i *VectorIndex) collection(dims int) string {
	return i.prefix + "_" + strconv.Itoa(dims)
}

// collections lists this index's collections, one per vector size.
func (i *VectorIndex) collections(ctx context.Context) ([]string, error) {
	names, err := i.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing collections: %w", domain.ErrVectorIndexUnavailable, err)
	}
	var ours []string
	for _, name := range names {
		if ownsCollection(i.prefix, name) {
			ours = append(ours, name)
		}
	}
	return ours, nil
}

func ownsCollection(prefix, name string) bool {
	dims, ok := strings.CutPrefix(name, prefix+"_")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(dims)
	return err == nil && n > 0
}

func (i *VectorIndex) ensureCollection(ctx context.Context, dims int) (string, error) {
	name := i.collection(dims)

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.known[name] {
		return name, nil
	}

	exists, err := i.client.CollectionExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: checking collection: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if !exists {
		err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dims),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return "", fmt.Errorf("%w: creating collection %s: %w", domain.ErrVectorIndexUnavailable, name, err)
		}
	}
	i.known[name] = true
	return name, nil
}

// pointID derives a stable UUID point id from an embedding ref.
func pointID(ref string) *qdrant.PointId {
	return qdrant.NewID(uuid.NewSHA1(refSpace, []byte(ref)).String())
}

// Add stores or replaces an embedding entry. A ref stored earlier under a
// different vector size is removed from that collection.
func (i *VectorIndex) Add(ctx context.Context, entry driven.VectorEntry) error {
	if entry.Ref == "" || len(entry.Embedding) == 0 {
		return domain.ErrInvalidInput
	}
	name, err := i.ensureCollection(ctx, len(entry.Embedding))
	if err != nil {
		return err
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	id := pointID(entry.Ref)
	_, err = i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      id,
			Vectors: qdrant.NewVectors(entry.Embedding...),
			Payload: payloadOf(entry, createdAt),
		}},
	})
	if err != nil {
		return fmt.Errorf("%w: storing embedding: %w", domain.ErrVectorIndexUnavailable, err)
	}

	others, err := i.collections(ctx)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other == name {
			continue
		}
		_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: other,
			Wait:           qdrant.PtrOf(true),
			Points:         qdrant.NewPointsSelector(id),
		})
		if err != nil {
			return fmt.Errorf("%w: removing stale embedding: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}
	return nil
}

func payloadOf(entry driven.VectorEntry, createdAt time.Time) map[string]*qdrant.Value {
	return map[string]*qdrant.Value{
		payloadRef:       qdrant.NewValueString(entry.Ref),
		payloadVersionID: qdrant.NewValueString(entry.VersionID),
		payloadChapterID: qdrant.NewValueString(entry.ChapterID),
		payloadStage:     qdrant.NewValueString(string(entry.Stage)),
		payloadCreatedAt: qdrant.NewValueInt(createdAt.UnixNano()),
	}
}

// buildFilter turns a version filter into payload conditions. Nil means no filter.
func buildFilter(filter domain.VersionFilter) *qdrant.Filter {
	var must []*qdrant.Condition
	if filter.ChapterID != "" {
		must = append(must, qdrant.NewMatch(payloadChapterID, filter.ChapterID))
	}
	if len(filter.Stages) > 0 {
		stages := make([]string, len(filter.Stages))
		for n, s := range filter.Stages {
			stages[n] = string(s)
		}
		must = append(must, qdrant.NewMatchKeywords(payloadStage, stages...))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// Search returns the k most similar entries of the query's size passing the filter.
func (i *VectorIndex) Search(
	ctx context.Context, query []float32, k int, filter domain.VersionFilter,
) ([]driven.VectorHit, error) {
	if k <= 0 || len(query) == 0 {
		return []driven.VectorHit{}, nil
	}
	name := i.collection(len(query))
	exists, err := i.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: checking collection: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if !exists {
		return []driven.VectorHit{}, nil
	}

	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(query...),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: querying embeddings: %w", domain.ErrVectorIndexUnavailable, err)
	}

	hits := make([]driven.VectorHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, hitOf(p.GetPayload(), p.GetScore()))
	}
	driven.SortHits(hits)
	return hits, nil
}

func hitOf(payload map[string]*qdrant.Value, score float32) driven.VectorHit {
	return driven.VectorHit{
		Ref:        payload[payloadRef].GetStringValue(),
		VersionID:  payload[payloadVersionID].GetStringValue(),
		Similarity: float64(score),
		CreatedAt:  time.Unix(0, payload[payloadCreatedAt].GetIntegerValue()).UTC(),
	}
}

// Has reports whether any collection holds the ref.
func (i *VectorIndex) Has(ctx context.Context, ref string) (bool, error) {
	names, err := i.collections(ctx)
	if err != nil {
		return false, err
	}
	id := pointID(ref)
	for _, name := range names {
		points, err := i.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: name,
			Ids:            []*qdrant.PointId{id},
		})
		if err != nil {
			return false, fmt.Errorf("%w: checking embedding: %w", domain.ErrVectorIndexUnavailable, err)
		}
		if len(points) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Count sums the points across this index's collections.
func (i *VectorIndex) Count(ctx context.Context) (int, error) {
	names, err := i.collections(ctx)
	if err != nil {
		return 0, err
	}
	var total uint64
	for _, name := range names {
		n, err := i.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: name,
			Exact:          qdrant.PtrOf(true),
		})
		if err != nil {
			return 0, fmt.Errorf("%w: counting embeddings: %w", domain.ErrVectorIndexUnavailable, err)
		}
		total += n
	}
	return int(total), nil
}

// Drop deletes every collection owned by this index.
func (i *VectorIndex) Drop(ctx context.Context) error {
	names, err := i.collections(ctx)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := i.client.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("dropping %s: %w", name, err)
		}
	}
	i.mu.Lock()
	clear(i.known)
	i.mu.Unlock()
	return nil
}

// Close closes the gRPC connection.
func (i *VectorIndex) Close() error {
	return i.client.Close()
}
