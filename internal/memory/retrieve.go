package memory

import (
	"context"
	"sort"

	"github.com/rs/zerolog"
)

// Retriever answers similarity queries against a conversation's vector
// list. Retrieval failure never propagates: any problem yields an empty
// result set so the caller's generation flow is not disturbed.
type Retriever struct {
	embedder Embedder
	logger   zerolog.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(e Embedder, logger zerolog.Logger) *Retriever {
	return &Retriever{embedder: e, logger: logger}
}

// Retrieve embeds the query and returns up to topK entries with cosine
// similarity at or above threshold, sorted by similarity descending (ties
// keep insertion order). An empty vector list or a missing embedder is
// normal summary-only mode and returns nil immediately.
func (r *Retriever) Retrieve(ctx context.Context, query string, entries []VectorEntry, topK int, threshold float64) []Result {
	if len(entries) == 0 || r.embedder == nil || topK <= 0 {
		return nil
	}

	queryVec, err := r.embedder.Embed(ctx, truncate(query, MaxEmbedChars))
	if err != nil {
		r.logger.Warn().Err(err).Msg("query embedding failed, returning no results")
		return nil
	}

	results := make([]Result, 0, len(entries))
	for _, e := range entries {
		sim := Cosine(queryVec, e.Vector)
		if sim >= threshold {
			results = append(results, Result{
				Text:       e.Text,
				Index:      e.Index,
				Similarity: sim,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
