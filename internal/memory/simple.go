package memory

import (
	"context"
	"hash/fnv"
	"math"
)

// SimpleEmbedder is a deterministic, offline embedder for development and
// tests: the same text always yields the same unit-length vector. It has
// no semantic power and must not be used for real retrieval quality.
type SimpleEmbedder struct {
	dims int
}

// NewSimpleEmbedder creates a SimpleEmbedder with the given dimensions.
func NewSimpleEmbedder(dims int) *SimpleEmbedder {
	if dims <= 0 {
		dims = 384
	}
	return &SimpleEmbedder{dims: dims}
}

// Embed generates a deterministic pseudo-random vector from a text hash.
func (e *SimpleEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)
	if text == "" {
		return vec, nil
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>32)&0x7FFFFFFF)/float32(0x7FFFFFFF)*2 - 1
	}

	normalize(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *SimpleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *SimpleEmbedder) Dimensions() int {
	return e.dims
}

// normalize scales vec to unit length in place.
func normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
}
