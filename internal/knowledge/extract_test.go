package knowledge

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractPlainText(t *testing.T) {
	path := writeTemp(t, "notes.txt", "  plain text body  \n")

	text, err := ExtractText(path, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain text body", text)
}

func TestExtractMarkdownStripsSyntax(t *testing.T) {
	md := "# Title\n\nSome **bold** and _italic_ text with a [link](https://example.com).\n\n```\ncode block\n```\n\n> quoted line\n"
	path := writeTemp(t, "doc.md", md)

	text, err := ExtractText(path, "doc.md")
	require.NoError(t, err)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Some bold and italic text with a link.")
	assert.Contains(t, text, "quoted line")
	assert.NotContains(t, text, "code block")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "https://example.com")
}

func TestExtractJSONPrettyPrints(t *testing.T) {
	path := writeTemp(t, "data.json", `{"product":"helpdesk","tier":2}`)

	text, err := ExtractText(path, "data.json")
	require.NoError(t, err)
	assert.Contains(t, text, `"product": "helpdesk"`)
}

func TestExtractJSONInvalid(t *testing.T) {
	path := writeTemp(t, "bad.json", "{not json")

	_, err := ExtractText(path, "bad.json")
	assert.Error(t, err)
}

func TestExtractDOCX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	body := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p><w:p><w:r><w:t>Second paragraph.</w:t></w:r></w:p></w:body></w:document>`
	_, err = w.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	text, err := ExtractText(path, "doc.docx")
	require.NoError(t, err)
	assert.Contains(t, text, "First paragraph.")
	assert.Contains(t, text, "Second paragraph.")
}

func TestExtractUnsupportedFormat(t *testing.T) {
	path := writeTemp(t, "sheet.xlsx", "irrelevant")

	_, err := ExtractText(path, "sheet.xlsx")
	assert.True(t, eris.Is(err, ErrUnsupportedFormat))
}

func TestExtractDispatchesOnOriginalName(t *testing.T) {
	// Upload artifacts carry opaque temp names; the original filename
	// decides the extractor.
	path := writeTemp(t, "a8f2c1", "body text here")

	text, err := ExtractText(path, "report.txt")
	require.NoError(t, err)
	assert.Equal(t, "body text here", text)
}
