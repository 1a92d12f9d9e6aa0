package acquire

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/core/ports/driven"
	"github.com/custodia-labs/folio/internal/logger"
)

// Ensure Acquirer implements the interface.
var _ driven.ContentAcquirer = (*Acquirer)(nil)

// Default configuration values.
const (
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPageBytes bounds the size of a fetched page.
	DefaultMaxPageBytes = 16 << 20
)

// Config holds configuration for the Acquirer.
type Config struct {
	// SnapshotDir is where fetched pages are stored. Empty disables snapshots.
	SnapshotDir string

	// Timeout bounds a single fetch (default: 30s).
	Timeout time.Duration

	// MaxPageBytes rejects larger pages (default: 16 MiB).
	MaxPageBytes int64

	// Client overrides the HTTP client. Used by tests.
	Client *http.Client
}

// Acquirer fetches raw chapter text from URLs and local files.
type Acquirer struct {
	client       *http.Client
	snapshotDir  string
	maxPageBytes int64
}

// New creates an Acquirer.
func New(cfg Config) *Acquirer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxPageBytes <= 0 {
		cfg.MaxPageBytes = DefaultMaxPageBytes
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Acquirer{
		client:       client,
		snapshotDir:  cfg.SnapshotDir,
		maxPageBytes: cfg.MaxPageBytes,
	}
}

// Acquire returns the raw text behind sourceRef. Errors wrap domain.ErrAcquisition.
func (a *Acquirer) Acquire(ctx context.Context, sourceRef string) (*domain.Acquisition, error) {
	ref := strings.TrimSpace(sourceRef)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty source reference", domain.ErrAcquisition)
	}

	var (
		acq *domain.Acquisition
		err error
	)
	switch {
	case isURL(ref):
		acq, err = a.fetch(ctx, ref)
	case strings.EqualFold(filepath.Ext(ref), ".pdf"):
		acq, err = readPDF(ref)
	default:
		acq, err = readText(ref)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrAcquisition, ref, err)
	}

	acq.RawText = strings.TrimSpace(acq.RawText)
	if acq.RawText == "" {
		return nil, fmt.Errorf("%w: %s: no text found", domain.ErrAcquisition, ref)
	}
	logger.Debug("Acquired %d chars from %s", len(acq.RawText), ref)
	return acq, nil
}

func isURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// readText reads a plain text or markdown file.
func readText(path string) (*domain.Acquisition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return &domain.Acquisition{
			RawText: stripMarkdown(content),
			Title:   markdownTitle(content),
		}, nil
	case ".html", ".htm":
		return &domain.Acquisition{
			RawText: extractText(content),
			Title:   htmlTitle(content),
		}, nil
	default:
		return &domain.Acquisition{RawText: content}, nil
	}
}
