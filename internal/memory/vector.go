// Package memory provides the vector side of the compression engine:
// embedding capability contracts, message vectorization, and similarity
// retrieval over the flat per-conversation vector list.
package memory

import "math"

// VectorEntry is one embedded message in a conversation's vector list.
// Index is the absolute message position at vectorization time, kept for
// traceability only; retrieval ordering is by similarity.
type VectorEntry struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
	Index  int       `json:"index"`
}

// Result is an ephemeral retrieval hit, produced fresh per query.
type Result struct {
	Text       string  `json:"text"`
	Index      int     `json:"index"`
	Similarity float64 `json:"similarity"`
}

// Cosine returns the cosine similarity between two vectors. It never
// fails: mismatched lengths, empty inputs, or a zero-magnitude vector all
// yield 0. The value is only meaningful for relative ordering.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
