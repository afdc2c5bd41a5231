package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

// buildPDF renders a minimal uncompressed PDF. Each page is a list of text
// lines drawn in separate text objects; a nil page has no content stream.
func buildPDF(pages [][]string) []byte {
	// 1: catalog, 2: page tree, 3: font, then a page (+ content) per page.
	kids := make([]string, 0, len(pages))
	var pageObjects []string
	next := 4
	for _, lines := range pages {
		pageID := next
		next++
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))

		if lines == nil {
			pageObjects = append(pageObjects, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
			continue
		}

		contentID := next
		next++
		var stream strings.Builder
		y := 720
		for _, line := range lines {
			fmt.Fprintf(&stream, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", y, line)
			y -= 16
		}
		pageObjects = append(pageObjects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentID),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", stream.Len(), stream.String()),
		)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	objects = append(objects, pageObjects...)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(objects)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(b.String())
}

func writePDF(t *testing.T, pages [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "regulamento.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF(pages), 0600))
	return path
}

func TestSupports(t *testing.T) {
	loader := New()
	assert.True(t, loader.Supports("regulamento.pdf"))
	assert.True(t, loader.Supports("/docs/REGULAMENTO.PDF"))
	assert.False(t, loader.Supports("regulamento.txt"))
}

func TestLoad_Pages(t *testing.T) {
	path := writePDF(t, [][]string{
		{"Regulamento Academico", "Artigo 1"},
		{"Inscri\\347\\343o nas   unidades curriculares"},
	})

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 2)
	assert.Equal(t,
		"Regulamento Academico\nArtigo 1\nInscrição nas unidades curriculares",
		doc.Content)
	assert.Equal(t, 2, doc.PageAt(doc.Len()-1))
	assert.Equal(t, "regulamento", doc.Title)
}

func TestLoad_PageWithoutContent(t *testing.T) {
	path := writePDF(t, [][]string{
		{"Capa"},
		nil,
		{"Artigo 2"},
	})

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	assert.Equal(t, "Capa\n\nArtigo 2", doc.Content)
	assert.Equal(t, 3, doc.PageAt(doc.Len()-1))
}

func TestLoad_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0600))

	_, err := New().Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_Truncated(t *testing.T) {
	data := buildPDF([][]string{{"Artigo 1"}})
	path := filepath.Join(t.TempDir(), "truncated.pdf")
	require.NoError(t, os.WriteFile(path, data[:len(data)/2], 0600))

	_, err := New().Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_Cancelled(t *testing.T) {
	path := writePDF(t, [][]string{{"Artigo 1"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Load(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := New().Load(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b\nc", cleanText("\n  a \t b \n\n   \nc  "))
	assert.Equal(t, "", cleanText("\n \n"))
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.DocumentLoader = (*Loader)(nil)
}
