package acquire

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// readPDF extracts the plain text of a PDF file.
func readPDF(path string) (*domain.Acquisition, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	b, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	return &domain.Acquisition{
		RawText: buf.String(),
		Title:   titleFromPath(path),
	}, nil
}

// titleFromPath turns "the-rabbit_hole.pdf" into "the rabbit hole".
func titleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, "-", " ")
}
