package services

import (
	"fmt"
	"strings"
	"testing"
)

func TestChunkTwoPageDocument(t *testing.T) {
	chunker := NewChunker(800, 20)

	text := "\n\n=== PAGE 1 ===\n\nFirst page content here.\n\n=== PAGE 2 ===\n\nSecond page content here."
	chunks := chunker.Chunk(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, want := range []int{1, 2} {
		if chunks[i].Page != want {
			t.Errorf("chunk %d: expected page %d, got %d", i, want, chunks[i].Page)
		}
		if chunks[i].ChunkID != i {
			t.Errorf("chunk %d: expected chunk_id %d, got %d", i, i, chunks[i].ChunkID)
		}
	}
	if chunks[0].Text != "First page content here." {
		t.Errorf("unexpected first chunk text: %q", chunks[0].Text)
	}
}

func TestChunkDropsPreamble(t *testing.T) {
	chunker := NewChunker(800, 20)

	text := "cover sheet noise\n\n=== PAGE 1 ===\n\nReal content."
	chunks := chunker.Chunk(text)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if strings.Contains(chunks[0].Text, "cover sheet") {
		t.Errorf("preamble leaked into chunk: %q", chunks[0].Text)
	}
}

func TestChunkNoMarkers(t *testing.T) {
	chunker := NewChunker(800, 20)

	if chunks := chunker.Chunk("plain text without any markers"); len(chunks) != 0 {
		t.Fatalf("expected no chunks without page markers, got %d", len(chunks))
	}
}

func TestChunkEmptyPageKeepsOrdinals(t *testing.T) {
	chunker := NewChunker(800, 20)

	text := "=== PAGE 1 ===\n\n\n\n=== PAGE 2 ===\n\nContent on the second page."
	chunks := chunker.Chunk(text)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Page != 2 {
		t.Errorf("expected page 2, got %d", chunks[0].Page)
	}
	if chunks[0].ChunkID != 0 {
		t.Errorf("empty page must not advance chunk_id, got %d", chunks[0].ChunkID)
	}
}

func TestChunkOverlapSeedsNextChunk(t *testing.T) {
	chunker := NewChunker(40, 3)

	text := "=== PAGE 1 ===\n\nalpha beta gamma delta epsilon\n\nzeta eta theta iota kappa"
	chunks := chunker.Chunk(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	words := strings.Fields(chunks[0].Text)
	tail := strings.Join(words[len(words)-3:], " ")
	if !strings.HasPrefix(chunks[1].Text, tail) {
		t.Errorf("chunk 1 should start with the last 3 words of chunk 0 (%q), got %q", tail, chunks[1].Text)
	}
}

func TestChunkShortBufferOverlapIsWholeBufferSkipped(t *testing.T) {
	// When the closed buffer has fewer words than the overlap, the next
	// chunk starts fresh with the new paragraph only.
	chunker := NewChunker(10, 20)

	text := "=== PAGE 1 ===\n\ntiny one\n\nanother paragraph entirely"
	chunks := chunker.Chunk(text)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[1].Text != "another paragraph entirely" {
		t.Errorf("expected fresh second chunk, got %q", chunks[1].Text)
	}
}

func TestChunkOversizedParagraphKeptWhole(t *testing.T) {
	chunker := NewChunker(40, 3)

	long := strings.Repeat("word ", 30) // 150 chars, single paragraph
	text := "=== PAGE 1 ===\n\n" + long
	chunks := chunker.Chunk(text)

	if len(chunks) != 1 {
		t.Fatalf("oversized paragraph must stay whole, got %d chunks", len(chunks))
	}
	if chunks[0].Text != strings.TrimSpace(long) {
		t.Errorf("paragraph was altered: %q", chunks[0].Text)
	}
}

func TestChunkNormalizesWhitespace(t *testing.T) {
	chunker := NewChunker(800, 20)

	text := "=== PAGE 1 ===\n\nspaced   out\ttext\nacross lines"
	chunks := chunker.Chunk(text)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "spaced out text across lines" {
		t.Errorf("whitespace not normalized: %q", chunks[0].Text)
	}
}

func TestChunkIDsAreDense(t *testing.T) {
	chunker := NewChunker(60, 5)

	var sb strings.Builder
	for page := 1; page <= 4; page++ {
		sb.WriteString(fmt.Sprintf("\n\n=== PAGE %d ===\n\n", page))
		for para := 0; para < 5; para++ {
			sb.WriteString(fmt.Sprintf("paragraph %d on page %d with several words\n\n", para, page))
		}
	}

	chunks := chunker.Chunk(sb.String())
	if len(chunks) < 4 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.ChunkID != i {
			t.Fatalf("chunk_id sequence has a gap at %d: got %d", i, chunk.ChunkID)
		}
	}
}

func TestChunkEveryParagraphSurvives(t *testing.T) {
	chunker := NewChunker(80, 4)

	paragraphs := []string{
		"the quick brown fox jumps over the lazy dog",
		"pack my box with five dozen liquor jugs",
		"how vexingly quick daft zebras jump",
		"sphinx of black quartz judge my vow",
	}
	text := "=== PAGE 1 ===\n\n" + strings.Join(paragraphs, "\n\n")

	chunks := chunker.Chunk(text)
	for _, para := range paragraphs {
		found := false
		for _, chunk := range chunks {
			if strings.Contains(chunk.Text, para) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("paragraph %q missing from every chunk", para)
		}
	}
}
