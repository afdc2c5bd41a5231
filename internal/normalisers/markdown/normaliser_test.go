package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestSupports(t *testing.T) {
	loader := New()
	assert.True(t, loader.Supports("regulamento.md"))
	assert.True(t, loader.Supports("REGULAMENTO.Markdown"))
	assert.False(t, loader.Supports("regulamento.txt"))
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "regulamento.md", "# Regulamento Académico\n\n## Artigo 1\n\nO ano lectivo tem **dois** semestres.\n")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Regulamento Académico", doc.Title)
	assert.Equal(t, "Regulamento Académico\n\nArtigo 1\n\nO ano lectivo tem dois semestres.", doc.Content)
	assert.Len(t, doc.Pages, 1)
}

func TestLoad_TitleFallsBackToFilename(t *testing.T) {
	path := writeFile(t, "normas_de_avaliacao.md", "## Sem título principal\n\nTexto.")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "normas_de_avaliacao", doc.Title)
}

func TestLoad_PageBreaks(t *testing.T) {
	path := writeFile(t, "regulamento.md", "Primeira página\n<!-- pagebreak -->\nSegunda página\fTerceira página")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	assert.Equal(t, "Primeira página\nSegunda página\nTerceira página", doc.Content)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "headings removed",
			input:    "# Title\n## Subtitle\n### Third",
			expected: "Title\nSubtitle\nThird",
		},
		{
			name:     "bold removed",
			input:    "This is **bold** text",
			expected: "This is bold text",
		},
		{
			name:     "italic removed",
			input:    "This is *italic* and _also_ italic",
			expected: "This is italic and also italic",
		},
		{
			name:     "underscores inside words kept",
			input:    "see file_name here",
			expected: "see file_name here",
		},
		{
			name:     "links converted",
			input:    "Click [here](https://example.com)",
			expected: "Click here",
		},
		{
			name:     "images removed",
			input:    "See ![alt text](image.png) here",
			expected: "See  here",
		},
		{
			name:     "code fences dropped, code kept",
			input:    "Before\n```\nprazo = 30\n```\nAfter",
			expected: "Before\n\nprazo = 30\n\nAfter",
		},
		{
			name:     "inline code unwrapped",
			input:    "Use `code` here",
			expected: "Use code here",
		},
		{
			name:     "blockquotes cleaned",
			input:    "> This is a quote",
			expected: "This is a quote",
		},
		{
			name:     "list markers removed",
			input:    "- Item 1\n- Item 2",
			expected: "Item 1\nItem 2",
		},
		{
			name:     "numbered lists kept",
			input:    "1. First\n2. Second",
			expected: "1. First\n2. Second",
		},
		{
			name:     "horizontal rule removed",
			input:    "Above\n\n---\n\nBelow",
			expected: "Above\n\nBelow",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.input))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.DocumentLoader = (*Loader)(nil)
}
