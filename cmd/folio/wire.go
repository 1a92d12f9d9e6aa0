package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/folio/internal/adapters/driven/acquire"
	"github.com/custodia-labs/folio/internal/adapters/driven/agents"
	"github.com/custodia-labs/folio/internal/adapters/driven/ai"
	"github.com/custodia-labs/folio/internal/adapters/driven/config/file"
	"github.com/custodia-labs/folio/internal/adapters/driven/gate"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/qdrant"
	"github.com/custodia-labs/folio/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/folio/internal/adapters/driving/cli"
	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/core/services"
	"github.com/custodia-labs/folio/internal/logger"
)

// envQdrantAPIKey authenticates against Qdrant Cloud. Keys stay out of config.toml.
const envQdrantAPIKey = "QDRANT_API_KEY"

// closers releases resources in reverse order of acquisition.
type closers []func() error

func (c *closers) add(fn func() error) {
	*c = append(*c, fn)
}

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
}

// bootstrap builds the services a command needs. Each level adds to the
// previous one so settings commands never touch the database and chapter
// commands never contact an AI provider.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	dir := opts.ConfigDir
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, nil, fmt.Errorf("resolve config directory: %w", err)
		}
		dir = d
	}

	cfg, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsSvc := services.NewSettingsService(cfg)
	svc := &cli.Services{Settings: settingsSvc}
	if opts.Need < cli.NeedStore {
		return svc, func() {}, nil
	}

	settings, err := loadSettings(settingsSvc, opts.Need)
	if err != nil {
		return nil, nil, err
	}
	settings.DataDir = filepath.Join(dir, "data")
	logger.Debug("config dir %s, data dir %s", dir, settings.DataDir)

	var cl closers
	fail := func(err error) (*cli.Services, func(), error) {
		cl.close()
		return nil, nil, err
	}

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return fail(fmt.Errorf("open store: %w", err))
	}
	cl.add(store.Close)
	versions := store.VersionStore()
	svc.Chapters = services.NewChapterService(versions)
	if opts.Need < cli.NeedSearch {
		return svc, cl.close, nil
	}

	var (
		llm      driven.LLMService
		embedder driven.EmbeddingService
	)
	if opts.Need >= cli.NeedRevision {
		res, err := ai.Init(ctx, settings)
		if err != nil {
			return fail(err)
		}
		cl.add(func() error { res.Close(); return nil })
		for _, w := range res.Warnings {
			logger.Warn("semantic indexing disabled: %s", w)
		}
		llm, embedder = res.LLMService, res.EmbeddingService
	} else {
		embedder, err = ai.CreateAndValidateEmbeddingService(ctx, settings.Embedding)
		if err != nil {
			logger.Warn("%v", err)
		} else {
			cl.add(embedder.Close)
		}
	}

	var semantic *services.SemanticIndex
	if embedder != nil {
		vectors, closeVectors, err := openVectorIndex(ctx, settings, store)
		if err != nil {
			return fail(err)
		}
		if closeVectors != nil {
			cl.add(closeVectors)
		}
		semantic = services.NewSemanticIndex(versions, embedder, vectors)
	}
	svc.Search = services.NewSearchService(versions, semantic, settings.Search.SimilarityTopK)
	if opts.Need < cli.NeedRevision {
		return svc, cl.close, nil
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return fail(fmt.Errorf("open prompts: %w", err))
	}
	limiter := agents.NewRateLimiter(agents.RateLimitConfig{
		RequestsPerSecond: settings.LLM.RequestsPerSecond,
	})

	snapshotDir := settings.Acquire.SnapshotDir
	if snapshotDir == "" {
		snapshotDir = filepath.Join(settings.DataDir, "snapshots")
	}
	acquirer := acquire.New(acquire.Config{
		SnapshotDir: snapshotDir,
		Timeout:     settings.Acquire.Timeout,
	})

	decisions := opts.Gate
	if decisions == nil {
		decisions = gate.Auto{}
	}

	controller := services.NewRevisionController(
		versions,
		acquirer,
		agents.NewWriter(llm, prompts, limiter),
		agents.NewReviewer(llm, prompts, limiter),
		decisions,
		settings.Revision,
	)
	controller.SetSemanticIndex(semantic)
	svc.Revision = controller

	return svc, cl.close, nil
}

// loadSettings validates settings only when a revision will run, so chapter
// and search commands work before max_iterations is configured.
func loadSettings(svc *services.SettingsService, need cli.Need) (domain.Settings, error) {
	if need >= cli.NeedRevision {
		s, err := svc.Load()
		if err != nil {
			return domain.Settings{}, fmt.Errorf("%w. Run 'folio settings wizard' to fix", err)
		}
		return s, nil
	}
	s, err := svc.Get()
	if err != nil {
		return domain.Settings{}, err
	}
	return *s, nil
}

// openVectorIndex returns the configured vector index and, for backends
// that own a connection or file, its close func.
func openVectorIndex(
	ctx context.Context, settings domain.Settings, store *sqlite.Store,
) (driven.VectorIndex, func() error, error) {
	switch settings.Index.Backend {
	case domain.IndexBackendSQLite, "":
		return store.VectorIndex(), nil, nil
	case domain.IndexBackendMemory:
		return memory.NewVectorIndex(), nil, nil
	case domain.IndexBackendBolt:
		idx, err := bolt.NewVectorIndex(settings.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("open bolt index: %w", err)
		}
		return idx, idx.Close, nil
	case domain.IndexBackendPostgres:
		if settings.Index.DSN == "" {
			return nil, nil, fmt.Errorf("%w: index.dsn is required for the postgres backend",
				domain.ErrInvalidConfig)
		}
		idx, err := postgres.NewVectorIndex(ctx, settings.Index.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres index: %w", err)
		}
		return idx, idx.Close, nil
	case domain.IndexBackendQdrant:
		cfg, err := qdrant.ParseDSN(settings.Index.DSN)
		if err != nil {
			return nil, nil, err
		}
		cfg.APIKey = os.Getenv(envQdrantAPIKey)
		idx, err := qdrant.NewVectorIndex(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open qdrant index: %w", err)
		}
		return idx, idx.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown index backend %q",
			domain.ErrInvalidConfig, settings.Index.Backend)
	}
}
