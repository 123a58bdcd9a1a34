package vectorstore

import (
	"cmp"
	"math"
	"slices"

	"github.com/liliang-cn/askpdf/internal/domain"
)

// cosine returns the cosine similarity of a and b, or 0 when either is a zero
// vector or the lengths differ.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// rank scores every record against vector and keeps the k best. Ties keep
// insertion order.
func rank(records []Record, vector []float32, k int) domain.RetrievalResult {
	scored := make(domain.RetrievalResult, len(records))
	for i, r := range records {
		scored[i] = domain.ScoredChunk{Chunk: r.Chunk, Score: cosine(r.Vector, vector)}
	}
	slices.SortStableFunc(scored, func(a, b domain.ScoredChunk) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
