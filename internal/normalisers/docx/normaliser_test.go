package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regbot/internal/core/domain"
	"github.com/custodia-labs/regbot/internal/core/ports/driven"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// writeDOCX creates a minimal DOCX file and returns its path.
func writeDOCX(t *testing.T, body, coreXML string) string {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if body != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<w:document ` + wordNS + `><w:body>` + body + `</w:body></w:document>`))
		require.NoError(t, err)
	}

	if coreXML != "" {
		core, err := w.Create("docProps/core.xml")
		require.NoError(t, err)
		_, err = core.Write([]byte(coreXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "regulamento.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))
	return path
}

func TestSupports(t *testing.T) {
	loader := New()
	assert.True(t, loader.Supports("regulamento.docx"))
	assert.True(t, loader.Supports("REGULAMENTO.DOCX"))
	assert.False(t, loader.Supports("regulamento.doc"))
}

func TestLoad_Paragraphs(t *testing.T) {
	path := writeDOCX(t, `
<w:p><w:r><w:t>Artigo 1</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">O estudante </w:t></w:r>
<w:r><w:t>pode requerer</w:t></w:r></w:p>
`, "")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Artigo 1\nO estudante pode requerer", doc.Content)
	assert.Equal(t, "regulamento", doc.Title)
	assert.Len(t, doc.Pages, 1)
}

func TestLoad_ManualPageBreaks(t *testing.T) {
	path := writeDOCX(t, `
<w:p><w:r><w:t>Página um</w:t></w:r></w:p>
<w:p><w:r><w:br w:type="page"/><w:t>Página dois</w:t></w:r></w:p>
<w:p><w:r><w:t>continua</w:t><w:br/><w:t>linha</w:t></w:r></w:p>
`, "")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "Página um\nPágina dois\ncontinua\nlinha", doc.Content)
	assert.Equal(t, 2, doc.PageAt(doc.Len()-1))
}

func TestLoad_RenderedBreaksWin(t *testing.T) {
	path := writeDOCX(t, `
<w:p><w:r><w:t>Um</w:t></w:r></w:p>
<w:p><w:r><w:lastRenderedPageBreak/><w:t>Dois</w:t></w:r></w:p>
<w:p><w:r><w:br w:type="page"/></w:r></w:p>
<w:p><w:r><w:lastRenderedPageBreak/><w:t>Três</w:t></w:r></w:p>
`, "")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 3)
	assert.Equal(t, "Um\nDois\nTrês", doc.Content)
}

func TestLoad_CoreTitle(t *testing.T) {
	core := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>  Regulamento Académico  </dc:title>
</cp:coreProperties>`
	path := writeDOCX(t, `<w:p><w:r><w:t>Texto</w:t></w:r></w:p>`, core)

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Regulamento Académico", doc.Title)
}

func TestLoad_Tabs(t *testing.T) {
	path := writeDOCX(t, `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t></w:r></w:p>`, "")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "a\tb", doc.Content)
}

func TestLoad_EmptyBody(t *testing.T) {
	path := writeDOCX(t, `<w:p></w:p>`, "")

	doc, err := New().Load(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, doc.IsEmpty())
}

func TestLoad_MissingDocumentPart(t *testing.T) {
	path := writeDOCX(t, "", "")

	_, err := New().Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip file"), 0600))

	_, err := New().Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.DocumentLoader = (*Loader)(nil)
}
