package services

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const wordprocessingSignature = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// extractText normalizes raw file bytes into plain text according to the
// content signature. PDF pages are concatenated, word-processor paragraphs
// are joined with newlines, JSON is pretty-printed to normalize whitespace
// for the text model, and plain text is decoded directly.
func extractText(signature string, data []byte) (string, error) {
	switch signature {
	case "application/pdf":
		return extractPDFText(data)
	case "application/msword", wordprocessingSignature:
		return extractDocxText(data)
	case "application/json":
		var decoded any
		if err := json.Unmarshal(data, &decoded); err != nil {
			return "", fmt.Errorf("failed to decode JSON content: %w", err)
		}
		pretty, err := json.MarshalIndent(decoded, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to normalize JSON content: %w", err)
		}
		return string(pretty), nil
	case "text/plain", "text/csv":
		return string(data), nil
	}
	// Admission should have excluded anything else; defensive only.
	return "", fmt.Errorf("unsupported signature for text extraction: %s", signature)
}

// extractPDFText concatenates the text runs of every page. pdfcpu exposes
// raw page content streams; text-show operands are scraped from them, which
// covers simple encodings and yields empty text for image-only pages.
func extractPDFText(data []byte) (string, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return "", fmt.Errorf("failed to validate PDF: %w", err)
	}

	var text strings.Builder
	for page := 1; page <= pdfCtx.PageCount; page++ {
		reader, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			return "", fmt.Errorf("failed to extract content of page %d: %w", page, err)
		}
		if reader == nil {
			continue
		}
		content, err := io.ReadAll(reader)
		if err != nil {
			return "", fmt.Errorf("failed to read content of page %d: %w", page, err)
		}
		text.WriteString(scrapeTextRuns(content))
	}
	return text.String(), nil
}

// scrapeTextRuns pulls the parenthesized string operands out of a PDF
// content stream, honoring \(, \) and \\ escapes.
func scrapeTextRuns(content []byte) string {
	var out strings.Builder
	depth := 0
	escaped := false
	for _, b := range content {
		if depth == 0 {
			if b == '(' {
				depth = 1
			}
			continue
		}
		if escaped {
			switch b {
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			default:
				out.WriteByte(b)
			}
			escaped = false
			continue
		}
		switch b {
		case '\\':
			escaped = true
		case '(':
			depth++
			out.WriteByte(b)
		case ')':
			depth--
			if depth == 0 {
				out.WriteByte(' ')
			} else {
				out.WriteByte(b)
			}
		default:
			out.WriteByte(b)
		}
	}
	return out.String()
}

// extractDocxText concatenates the paragraphs of word/document.xml with
// newline separators. Legacy .doc binaries are not a zip archive and fail
// here with a descriptive error.
func extractDocxText(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open word-processor archive: %w", err)
	}

	var docXML io.ReadCloser
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docXML, err = f.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open word/document.xml: %w", err)
			}
			break
		}
	}
	if docXML == nil {
		return "", fmt.Errorf("word/document.xml not found in archive")
	}
	defer docXML.Close()

	var text strings.Builder
	decoder := xml.NewDecoder(docXML)
	inTextRun := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse word/document.xml: %w", err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			switch tok.Name.Local {
			case "t":
				inTextRun = false
			case "p":
				text.WriteString("\n")
			}
		case xml.CharData:
			if inTextRun {
				text.Write(tok)
			}
		}
	}
	return text.String(), nil
}
