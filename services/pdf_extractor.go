package services

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractionResult contains the result of PDF text extraction
type ExtractionResult struct {
	Text           string
	Pages          int
	WordCount      int
	CharacterCount int
}

// ExtractPDFText extracts text from a PDF file, tagging every page with a
// marker the chunker splits on. Markers are emitted for empty pages too, so
// page ordinals stay aligned with the source document; pages whose text
// fails to decode are skipped with their marker kept.
func ExtractPDFText(filePath string) (*ExtractionResult, error) {
	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF file: %w", err)
	}
	if stat.Size() > 200<<20 { // safety cap for in-memory extraction
		return nil, fmt.Errorf("pdf too large for in-memory extraction")
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}

	return extractFromBytes(content)
}

func extractFromBytes(content []byte) (*ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		textBuilder.WriteString(fmt.Sprintf("\n\n=== PAGE %d ===\n\n", i))

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		textBuilder.WriteString(text)
	}

	extractedText := textBuilder.String()
	result := &ExtractionResult{
		Text:           extractedText,
		Pages:          pages,
		WordCount:      len(strings.Fields(extractedText)),
		CharacterCount: len(extractedText),
	}
	return result, nil
}

// HasExtractableText reports whether an extraction produced any real content
// beyond the page markers.
func (r *ExtractionResult) HasExtractableText() bool {
	stripped := pageMarkerPattern.ReplaceAllString(r.Text, "")
	return strings.TrimSpace(stripped) != ""
}
