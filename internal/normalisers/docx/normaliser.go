// Package docx loads Word documents, keeping their page breaks.
package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
	"github.com/custodia-labs/regbot/internal/fsutil"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Markers written into the extracted text while parsing.
const (
	explicitBreak = '\f'
	renderedBreak = '\v'
)

// Loader reads DOCX documents.
type Loader struct{}

// New creates a new DOCX loader.
func New() *Loader {
	return &Loader{}
}

// Supports returns true for .docx files.
func (l *Loader) Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".docx")
}

// Load reads path. Pages follow the breaks Word recorded when it last laid
// the document out; documents never laid out fall back to manual page breaks.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Document, error) {
	data, err := fsutil.ReadFile(ctx, path, 0)
	if err != nil {
		return nil, err
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a DOCX archive: %w", domain.ErrInvalidInput, path, err)
	}

	body, err := readPart(archive, documentPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, path, err)
	}

	text, err := extractText(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: parse %s: %w", domain.ErrInvalidInput, path, documentPart, err)
	}

	doc := domain.NewDocument(path, splitPages(text))
	if title := coreTitle(archive); title != "" {
		doc.Title = title
	}
	return doc, nil
}

func readPart(archive *zip.Reader, name string) ([]byte, error) {
	f, err := archive.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// extractText walks document.xml in order, writing paragraph text separated
// by newlines and marking page breaks inline.
func extractText(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))

	var (
		b      strings.Builder
		inText bool
		paras  int
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if paras > 0 {
					b.WriteByte('\n')
				}
				paras++
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br":
				if attr(t, "type") == "page" {
					b.WriteRune(explicitBreak)
				} else {
					b.WriteByte('\n')
				}
			case "lastRenderedPageBreak":
				b.WriteRune(renderedBreak)
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// splitPages prefers rendered breaks and uses manual breaks only when the
// document carries no layout information.
func splitPages(text string) []string {
	sep, drop := string(explicitBreak), string(renderedBreak)
	if strings.ContainsRune(text, renderedBreak) {
		sep, drop = drop, sep
	}
	text = strings.ReplaceAll(text, drop, "")

	parts := strings.Split(text, sep)
	pages := make([]string, len(parts))
	for i, p := range parts {
		pages[i] = strings.TrimSpace(p)
	}
	return pages
}

type coreProperties struct {
	Title string `xml:"title"`
}

// coreTitle returns the title stored in the document properties, or "".
func coreTitle(archive *zip.Reader) string {
	data, err := readPart(archive, corePart)
	if err != nil {
		return ""
	}
	var props coreProperties
	if err := xml.Unmarshal(data, &props); err != nil {
		return ""
	}
	return strings.TrimSpace(props.Title)
}
