package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/folio/internal/core/domain"
	"github.com/custodia-labs/folio/internal/logger"
)

// fetch downloads a page, stores a snapshot and extracts its text.
func (a *Acquirer) fetch(ctx context.Context, url string) (*domain.Acquisition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "folio/1 (+https://github.com/custodia-labs/folio)")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxPageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > a.maxPageBytes {
		return nil, fmt.Errorf("page exceeds %d bytes", a.maxPageBytes)
	}
	page := string(body)

	acq := &domain.Acquisition{
		RawText: extractText(page),
		Title:   htmlTitle(page),
	}

	if a.snapshotDir != "" {
		ref, err := a.snapshot(body)
		if err != nil {
			// Snapshots are best effort.
			logger.Warn("Snapshot of %s not saved: %v", url, err)
		} else {
			acq.SnapshotRef = ref
		}
	}
	return acq, nil
}

// snapshot writes the raw page under the snapshot directory and returns its path.
func (a *Acquirer) snapshot(body []byte) (string, error) {
	if err := os.MkdirAll(a.snapshotDir, 0700); err != nil {
		return "", err
	}
	path := filepath.Join(a.snapshotDir, uuid.New().String()+".html")
	if err := os.WriteFile(path, body, 0600); err != nil {
		return "", err
	}
	return path, nil
}
