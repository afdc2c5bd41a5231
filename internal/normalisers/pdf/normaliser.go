// Package pdf loads PDF documents page by page using ledongthuc/pdf.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/fsutil"
	"github.com/custodia-labs/regbot/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// Loader extracts the text layer of PDF documents.
// Scanned pages without a text layer load as empty pages.
type Loader struct {
	maxBytes int64
}

// New creates a new PDF loader.
func New() *Loader {
	return &Loader{maxBytes: fsutil.DefaultMaxFileSize}
}

// Supports returns true for .pdf files.
func (l *Loader) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}

// Load reads path and returns one document page per PDF page.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, err := fsutil.ReadFile(ctx, path, l.maxBytes)
	if err != nil {
		return nil, err
	}

	pages, err := extractPages(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
	}

	empty := 0
	for _, p := range pages {
		if p == "" {
			empty++
		}
	}
	if empty > 0 {
		logger.Debug("%s: %d of %d pages have no text layer", filepath.Base(path), empty, len(pages))
	}
	return domain.NewDocument(path, pages), nil
}

// extractPages returns the plain text of every page in order.
// The parser panics on some malformed input, so panics become errors.
func extractPages(ctx context.Context, data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	n := reader.NumPage()
	pages = make([]string, 0, n)
	fonts := make(map[string]*pdf.Font)

	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, cleanText(text))
	}
	return pages, nil
}

// cleanText collapses horizontal whitespace and drops blank lines.
func cleanText(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
