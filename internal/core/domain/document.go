package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// pageSeparator joins page texts into the document content.
const pageSeparator = "\n"

// PageSpan marks where one page lives inside Document.Content.
// Start and End are rune offsets, End exclusive.
type PageSpan struct {
	// Number is the 1-based page number.
	Number int

	// Start is the rune offset of the first character of the page.
	Start int

	// End is the rune offset one past the last character of the page.
	End int
}

// Document is the single source text the system answers questions about.
// It is immutable once loaded.
type Document struct {
	// ID is derived from the content so that identical text yields identical chunk IDs.
	ID string

	// URI is the original location (file path).
	URI string

	// Title is the human-readable title.
	Title string

	// Content is the concatenated text of all pages.
	Content string

	// Pages records per-page boundaries within Content.
	Pages []PageSpan

	// LoadedAt is when the document was read.
	LoadedAt time.Time
}

// NewDocument builds a Document from page texts in order.
// Pages are joined with a newline and their boundaries recorded as rune offsets.
func NewDocument(uri string, pages []string) *Document {
	var b strings.Builder
	spans := make([]PageSpan, 0, len(pages))
	offset := 0

	for i, page := range pages {
		if i > 0 {
			b.WriteString(pageSeparator)
			offset += utf8.RuneCountInString(pageSeparator)
		}
		n := utf8.RuneCountInString(page)
		spans = append(spans, PageSpan{Number: i + 1, Start: offset, End: offset + n})
		b.WriteString(page)
		offset += n
	}

	content := b.String()
	return &Document{
		ID:       ContentID(content),
		URI:      uri,
		Title:    titleFromURI(uri),
		Content:  content,
		Pages:    spans,
		LoadedAt: time.Now(),
	}
}

// ContentID returns a short stable identifier for a piece of text.
func ContentID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}

// Len returns the length of the content in runes.
func (d *Document) Len() int {
	return utf8.RuneCountInString(d.Content)
}

// IsEmpty returns true if the document has no meaningful text.
func (d *Document) IsEmpty() bool {
	return d == nil || strings.TrimSpace(d.Content) == ""
}

// PageAt returns the page number containing the given rune offset.
// Offsets that fall on a page separator belong to the preceding page.
// Returns 0 when the document has no page information.
func (d *Document) PageAt(offset int) int {
	if len(d.Pages) == 0 {
		return 0
	}
	// Index of the first page starting after offset.
	i := sort.Search(len(d.Pages), func(i int) bool {
		return d.Pages[i].Start > offset
	})
	if i == 0 {
		return d.Pages[0].Number
	}
	return d.Pages[i-1].Number
}

// LocatorFor builds the source locator for the rune range [start, end).
func (d *Document) LocatorFor(start, end int) Locator {
	last := end - 1
	if last < start {
		last = start
	}
	return Locator{
		Start:     start,
		End:       end,
		FirstPage: d.PageAt(start),
		LastPage:  d.PageAt(last),
	}
}

func titleFromURI(uri string) string {
	if uri == "" {
		return ""
	}
	base := filepath.Base(uri)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
