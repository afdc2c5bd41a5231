package normalisers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

func TestDefaultRegistry_Supports(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		path string
		want bool
	}{
		{"regulamento.pdf", true},
		{"REGULAMENTO.PDF", true},
		{"regulamento.docx", true},
		{"regulamento.md", true},
		{"regulamento.txt", true},
		{"regulamento.xlsx", false},
		{"regulamento", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Supports(tt.path))
		})
	}
}

func TestRegistry_LoadDispatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regulamento.txt")
	require.NoError(t, os.WriteFile(path, []byte("Art. 1\fArt. 2"), 0600))

	doc, err := DefaultRegistry().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, doc.Pages, 2)
}

func TestRegistry_Unsupported(t *testing.T) {
	_, err := DefaultRegistry().Load(context.Background(), "planilha.xlsx")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Contains(t, err.Error(), ".xlsx")
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Supports("regulamento.pdf"))
}
