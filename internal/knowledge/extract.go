package knowledge

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rotisserie/eris"
)

// ErrUnsupportedFormat is returned when a file's extension has no
// registered extractor.
var ErrUnsupportedFormat = eris.New("knowledge: unsupported file format")

// ExtractText pulls plain text out of the file at path, dispatching on the
// extension of name (not path, which may be a temp artifact).
// Supported: .pdf, .docx, .txt, .md, .json.
func ExtractText(path, name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(path)
	case ".docx":
		return extractDOCX(path)
	case ".txt":
		return extractPlain(path)
	case ".md":
		return extractMarkdown(path)
	case ".json":
		return extractJSON(path)
	default:
		return "", eris.Wrapf(ErrUnsupportedFormat, "knowledge: extract %q", name)
	}
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", eris.Wrap(err, "knowledge: open pdf")
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", eris.Wrap(err, "knowledge: read pdf text")
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", eris.Wrap(err, "knowledge: read pdf text")
	}
	return strings.TrimSpace(buf.String()), nil
}

// docx is a zip archive; the body lives in word/document.xml as runs of
// <w:t> text inside <w:p> paragraphs.
func extractDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", eris.Wrap(err, "knowledge: open docx")
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", eris.New("knowledge: docx missing word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", eris.Wrap(err, "knowledge: open docx body")
	}
	defer rc.Close()

	var sb strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", eris.Wrap(err, "knowledge: parse docx body")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrap(err, "knowledge: read file")
	}
	return strings.TrimSpace(string(data)), nil
}

var (
	mdCodeFence = regexp.MustCompile("(?s)```.*?```")
	mdImage     = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	mdLink      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdHeading   = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	mdEmphasis  = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	mdQuote     = regexp.MustCompile(`(?m)^>\s?`)
	mdInline    = regexp.MustCompile("`([^`]*)`")
)

// extractMarkdown strips markdown syntax down to its text content.
func extractMarkdown(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrap(err, "knowledge: read file")
	}
	text := string(data)
	text = mdCodeFence.ReplaceAllString(text, "")
	text = mdImage.ReplaceAllString(text, "")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "$1")
	text = mdInline.ReplaceAllString(text, "$1")
	text = mdQuote.ReplaceAllString(text, "")
	return strings.TrimSpace(text), nil
}

// extractJSON validates and re-renders the document so downstream chunking
// sees a stable indented form.
func extractJSON(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", eris.Wrap(err, "knowledge: read file")
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return "", eris.Wrap(err, "knowledge: parse json")
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "knowledge: render json")
	}
	return string(out), nil
}
