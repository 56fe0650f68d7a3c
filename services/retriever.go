package services

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"pdf-rag-service/models"
)

// ScoredChunk pairs a chunk index with its similarity to the query.
type ScoredChunk struct {
	Index      int
	Similarity float64
}

// CosineSimilarity computes the cosine similarity between two vectors.
// A zero-magnitude vector has no direction, so the similarity is -Inf and
// the vector ranks last in retrieval.
func CosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		va := float64(a[i])
		vb := float64(b[i])
		dot += va * vb
		na += va * va
		nb += vb * vb
	}
	if na == 0 || nb == 0 {
		return math.Inf(-1)
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK ranks chunk vectors by cosine similarity to the query vector and
// returns the k best, ordered by descending similarity. Ties break by lower
// original index so results are deterministic. Fewer than k vectors means
// all of them are returned.
func TopK(query []float32, vectors [][]float32, k int) []ScoredChunk {
	scored := make([]ScoredChunk, len(vectors))
	for i, v := range vectors {
		scored[i] = ScoredChunk{Index: i, Similarity: CosineSimilarity(query, v)}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Similarity != scored[j].Similarity {
			return scored[i].Similarity > scored[j].Similarity
		}
		return scored[i].Index < scored[j].Index
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// BuildContext renders the selected chunks as a single context string in
// descending-similarity order, each prefixed with its page attribution, and
// returns the matching page numbers for the response.
func BuildContext(chunks []models.Chunk, hits []ScoredChunk) (string, []int) {
	parts := make([]string, 0, len(hits))
	pages := make([]int, 0, len(hits))

	for _, hit := range hits {
		chunk := chunks[hit.Index]
		parts = append(parts, fmt.Sprintf("[Page %d] %s", chunk.Page, chunk.Text))
		pages = append(pages, chunk.Page)
	}

	return strings.Join(parts, "\n\n"), pages
}
