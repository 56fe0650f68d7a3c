package services

import (
	"math"
	"strings"
	"testing"

	"pdf-rag-service/models"
)

func TestCosineSimilaritySelf(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}
	sim := CosineSimilarity(v, v)
	if math.Abs(sim-1.0) > 1e-9 {
		t.Fatalf("self similarity should be 1, got %v", sim)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-2, 0.5, 7}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Fatalf("similarity is not symmetric")
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	sim := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if math.Abs(sim) > 1e-9 {
		t.Fatalf("orthogonal vectors should score 0, got %v", sim)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	sim := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	if !math.IsInf(sim, -1) {
		t.Fatalf("zero-norm vector should score -Inf, got %v", sim)
	}
}

func TestTopKOrderingAndTies(t *testing.T) {
	query := []float32{1, 0}
	vectors := [][]float32{
		{1, 0},  // sim 1
		{0, 1},  // sim 0
		{2, 0},  // sim 1, tie with index 0
		{-1, 0}, // sim -1
	}

	hits := TopK(query, vectors, 4)
	wantOrder := []int{0, 2, 1, 3}
	for i, want := range wantOrder {
		if hits[i].Index != want {
			t.Fatalf("position %d: expected index %d, got %d", i, want, hits[i].Index)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Similarity > hits[i-1].Similarity {
			t.Fatalf("similarities not descending at %d", i)
		}
	}
}

func TestTopKFewerThanK(t *testing.T) {
	hits := TopK([]float32{1, 0}, [][]float32{{1, 0}, {0, 1}}, 5)
	if len(hits) != 2 {
		t.Fatalf("expected all 2 results when k exceeds count, got %d", len(hits))
	}
}

func TestTopKZeroNormRanksLast(t *testing.T) {
	query := []float32{1, 1}
	vectors := [][]float32{
		{0, 0},
		{1, 1},
	}

	hits := TopK(query, vectors, 2)
	if hits[0].Index != 1 || hits[1].Index != 0 {
		t.Fatalf("zero-norm vector should rank last, got order %d, %d", hits[0].Index, hits[1].Index)
	}
}

func TestBuildContext(t *testing.T) {
	chunks := []models.Chunk{
		{Text: "intro text", Page: 1, ChunkID: 0},
		{Text: "details text", Page: 3, ChunkID: 1},
	}
	hits := []ScoredChunk{
		{Index: 1, Similarity: 0.9},
		{Index: 0, Similarity: 0.2},
	}

	context, pages := BuildContext(chunks, hits)

	wantContext := "[Page 3] details text\n\n[Page 1] intro text"
	if context != wantContext {
		t.Errorf("unexpected context:\n%q\nwant:\n%q", context, wantContext)
	}
	if len(pages) != 2 || pages[0] != 3 || pages[1] != 1 {
		t.Errorf("unexpected pages: %v", pages)
	}
	if !strings.HasPrefix(context, "[Page 3]") {
		t.Errorf("context must lead with the most similar chunk")
	}
}

func TestBuildContextEmpty(t *testing.T) {
	context, pages := BuildContext(nil, nil)
	if context != "" || len(pages) != 0 {
		t.Fatalf("expected empty context, got %q / %v", context, pages)
	}
}
