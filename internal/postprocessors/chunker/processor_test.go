package chunker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
)

func newDoc(content string) *domain.Document {
	return domain.NewDocument("regulamento.txt", []string{content})
}

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(100))
		assert.Equal(t, 500, p.ChunkSize())
		assert.Equal(t, 100, p.Overlap())
	})

	t.Run("zero values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})

	t.Run("overlap not silently corrected", func(t *testing.T) {
		p := New(WithChunkSize(100), WithOverlap(150))
		_, err := p.Process(context.Background(), newDoc("text"), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidChunking)
	})
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "chunker", New().Name())
}

func TestSplit_ReferenceExample(t *testing.T) {
	doc := newDoc(strings.Repeat("x", 2000))

	chunks, err := Split(doc, 800, 80)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].Locator.Start)
	assert.Equal(t, 800, chunks[0].Locator.End)
	assert.Equal(t, 720, chunks[1].Locator.Start)
	assert.Equal(t, 1520, chunks[1].Locator.End)
	assert.Equal(t, 1440, chunks[2].Locator.Start)
	assert.Equal(t, 2000, chunks[2].Locator.End)
	assert.Len(t, chunks[2].Text, 560)
	assert.Equal(t, 3, Count(2000, 800, 80))
}

func TestSplit_CoverageAndOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 700; i++ {
		b.WriteString(string(rune('a' + i%26)))
		if i%37 == 0 {
			b.WriteString("ç")
		}
	}
	content := b.String()
	runes := []rune(content)

	tests := []struct {
		size, overlap int
	}{
		{100, 0},
		{100, 10},
		{100, 99},
		{64, 32},
		{1000, 80},
		{7, 3},
	}

	for _, tt := range tests {
		chunks, err := Split(newDoc(content), tt.size, tt.overlap)
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		assert.Equal(t, Count(len(runes), tt.size, tt.overlap), len(chunks))

		// No gaps: the first chunk starts at 0, the last ends at the end,
		// and every neighbour pair shares exactly overlap characters.
		assert.Equal(t, 0, chunks[0].Locator.Start)
		assert.Equal(t, len(runes), chunks[len(chunks)-1].Locator.End)
		for i, c := range chunks {
			assert.Equal(t, string(runes[c.Locator.Start:c.Locator.End]), c.Text)
			assert.LessOrEqual(t, RuneLen(c.Text), tt.size)
			assert.Equal(t, i, c.Ordinal)
			if i > 0 {
				prev := chunks[i-1]
				assert.Equal(t, tt.overlap, prev.Locator.End-c.Locator.Start,
					"size=%d overlap=%d chunk=%d", tt.size, tt.overlap, i)
				prevRunes := []rune(prev.Text)
				curRunes := []rune(c.Text)
				assert.Equal(t, string(prevRunes[len(prevRunes)-tt.overlap:]), string(curRunes[:tt.overlap]))
			}
		}
	}
}

func TestSplit_Idempotent(t *testing.T) {
	doc := newDoc(strings.Repeat("Artigo 12.º Faltas. ", 120))

	first, err := Split(doc, 800, 80)
	require.NoError(t, err)
	second, err := Split(doc, 800, 80)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, domain.ChunkID(doc.ID, 0), first[0].ID)
}

func TestSplit_ShortText(t *testing.T) {
	chunks, err := Split(newDoc("curto"), 800, 80)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "curto", chunks[0].Text)
}

func TestSplit_ExactMultiple(t *testing.T) {
	// 1520 characters ends exactly at the second window.
	chunks, err := Split(newDoc(strings.Repeat("y", 1520)), 800, 80)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestSplit_EmptyInput(t *testing.T) {
	_, err := Split(newDoc(""), 800, 80)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = Split(nil, 800, 80)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestSplit_InvalidParameters(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 10, -1},
		{"overlap equals size", 10, 10},
		{"overlap exceeds size", 10, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(newDoc("some text"), tt.size, tt.overlap)
			assert.ErrorIs(t, err, domain.ErrInvalidChunking)
		})
	}
}

func TestSplit_CountsCharactersNotBytes(t *testing.T) {
	// Each "ã" is two bytes but one character.
	content := strings.Repeat("ã", 30)
	chunks, err := Split(newDoc(content), 10, 2)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.LessOrEqual(t, RuneLen(c.Text), 10)
	}
	assert.Equal(t, 10, RuneLen(chunks[0].Text))
}

func TestSplit_LocatorsCarryPages(t *testing.T) {
	pages := []string{strings.Repeat("a", 50), strings.Repeat("b", 50)}
	doc := domain.NewDocument("doc.pdf", pages)

	chunks, err := Split(doc, 40, 5)
	require.NoError(t, err)

	assert.Equal(t, 1, chunks[0].Locator.FirstPage)
	last := chunks[len(chunks)-1]
	assert.Equal(t, 2, last.Locator.LastPage)

	var spansBoth bool
	for _, c := range chunks {
		if c.Locator.FirstPage == 1 && c.Locator.LastPage == 2 {
			spansBoth = true
		}
	}
	assert.True(t, spansBoth)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(0, 800, 80))
	assert.Equal(t, 1, Count(800, 800, 80))
	assert.Equal(t, 2, Count(801, 800, 80))
	assert.Equal(t, 0, Count(100, 10, 10))
}
