// Package plaintext loads UTF-8 text files. A form feed starts a new page,
// which is how pdftotext and most print exports mark page breaks.
package plaintext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/fsutil"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// PageBreak separates pages in the source text.
const PageBreak = "\f"

var extensions = map[string]bool{
	".txt":  true,
	".text": true,
}

// Loader reads plain text documents.
type Loader struct{}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{}
}

// Supports returns true for .txt and .text files.
func (l *Loader) Supports(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Load reads path and splits it into pages on form feeds.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, err := fsutil.ReadFile(ctx, path, 0)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, path)
	}
	return domain.NewDocument(path, SplitPages(string(data))), nil
}

// SplitPages splits text on form feeds, normalising line endings and
// trimming surrounding whitespace from each page.
func SplitPages(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := strings.Split(text, PageBreak)

	pages := make([]string, len(raw))
	for i, p := range raw {
		pages[i] = strings.TrimSpace(p)
	}
	return pages
}
