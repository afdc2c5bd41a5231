// Package markdown loads Markdown documents as plain text.
package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/fsutil"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

var extensions = map[string]bool{
	".md":       true,
	".markdown": true,
}

// Page breaks are either a form feed or an HTML comment on its own line.
var pageBreak = regexp.MustCompile(`(?m)^\s*<!--\s*pagebreak\s*-->\s*$|\f`)

var (
	fences        = regexp.MustCompile("(?m)^```.*$")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	strong        = regexp.MustCompile(`(\*\*|__)([^*_\n]+)(\*\*|__)`)
	emphasis      = regexp.MustCompile(`(^|[^*\w])[*_]([^*_\n]+)[*_]`)
	blockquotes   = regexp.MustCompile(`(?m)^>[ \t]?`)
	rules         = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bullets       = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	tableDividers = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t:-]+\|[ \t|:-]*$`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
)

// Loader reads Markdown documents.
type Loader struct{}

// New creates a new Markdown loader.
func New() *Loader {
	return &Loader{}
}

// Supports returns true for .md and .markdown files.
func (l *Loader) Supports(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// Load reads path, strips Markdown syntax and titles the document after
// its first level-one heading.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, err := fsutil.ReadFile(ctx, path, 0)
	if err != nil {
		return nil, err
	}
	source := strings.ReplaceAll(string(data), "\r\n", "\n")

	parts := pageBreak.Split(source, -1)
	pages := make([]string, len(parts))
	for i, p := range parts {
		pages[i] = stripMarkdown(p)
	}

	doc := domain.NewDocument(path, pages)
	if title := firstHeading(source); title != "" {
		doc.Title = title
	}
	return doc, nil
}

// firstHeading returns the text of the first "# " heading, or "".
func firstHeading(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

// stripMarkdown reduces Markdown to readable text. Code keeps its content,
// links keep their label and images are dropped.
func stripMarkdown(content string) string {
	content = fences.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = rules.ReplaceAllString(content, "")
	content = tableDividers.ReplaceAllString(content, "")
	content = headings.ReplaceAllString(content, "")
	content = blockquotes.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$2")
	content = emphasis.ReplaceAllString(content, "$1$2")
	content = blankRuns.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
