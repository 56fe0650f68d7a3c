package services

import (
	"testing"
)

func TestExtractFromBytesRejectsGarbage(t *testing.T) {
	if _, err := extractFromBytes([]byte("definitely not a pdf")); err == nil {
		t.Fatal("expected error for non-PDF bytes")
	}
}

func TestExtractPDFTextMissingFile(t *testing.T) {
	if _, err := ExtractPDFText("/nonexistent/file.pdf"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHasExtractableText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"markers only", "\n\n=== PAGE 1 ===\n\n\n\n=== PAGE 2 ===\n\n", false},
		{"empty", "", false},
		{"real content", "\n\n=== PAGE 1 ===\n\nActual words on the page", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &ExtractionResult{Text: tt.text}
			if got := r.HasExtractableText(); got != tt.want {
				t.Errorf("HasExtractableText() = %v, want %v", got, tt.want)
			}
		})
	}
}
