package memory

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func TestRetrieve_ConcreteScenario(t *testing.T) {
	// Query embeds to [1,0]: only "A: hello" matches at similarity 1.0.
	emb := &fakeEmbedder{
		dims:    2,
		vectors: map[string][]float32{"greeting": {1, 0}},
	}
	r := NewRetriever(emb, zerolog.Nop())

	entries := []VectorEntry{
		{Text: "A: hello", Vector: []float32{1, 0}, Index: 0},
		{Text: "B: world", Vector: []float32{0, 1}, Index: 1},
	}

	results := r.Retrieve(context.Background(), "greeting", entries, 5, 0.5)
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Text != "A: hello" || results[0].Index != 0 {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if math.Abs(results[0].Similarity-1.0) > 1e-9 {
		t.Errorf("similarity = %v, want 1.0", results[0].Similarity)
	}
}

func TestRetrieve_TopKAndOrdering(t *testing.T) {
	emb := &fakeEmbedder{
		dims:    2,
		vectors: map[string][]float32{"q": {1, 0}},
	}
	r := NewRetriever(emb, zerolog.Nop())

	entries := []VectorEntry{
		{Text: "far", Vector: []float32{0.2, 1}, Index: 0},
		{Text: "close", Vector: []float32{1, 0.1}, Index: 1},
		{Text: "exact", Vector: []float32{1, 0}, Index: 2},
		{Text: "mid", Vector: []float32{1, 0.7}, Index: 3},
	}

	results := r.Retrieve(context.Background(), "q", entries, 2, 0.0)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Text != "exact" || results[1].Text != "close" {
		t.Errorf("wrong order: %q, %q", results[0].Text, results[1].Text)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Error("results not sorted descending")
		}
	}
}

func TestRetrieve_ThresholdFilter(t *testing.T) {
	emb := &fakeEmbedder{
		dims:    2,
		vectors: map[string][]float32{"q": {1, 0}},
	}
	r := NewRetriever(emb, zerolog.Nop())

	entries := []VectorEntry{
		{Text: "orthogonal", Vector: []float32{0, 1}, Index: 0},
	}

	if got := r.Retrieve(context.Background(), "q", entries, 5, 0.5); len(got) != 0 {
		t.Errorf("expected no results above threshold, got %v", got)
	}
}

func TestRetrieve_EmptyStore(t *testing.T) {
	emb := &fakeEmbedder{dims: 2}
	r := NewRetriever(emb, zerolog.Nop())
	if got := r.Retrieve(context.Background(), "anything", nil, 5, 0.0); got != nil {
		t.Errorf("expected nil for empty store, got %v", got)
	}
	if len(emb.calls) != 0 {
		t.Error("query must not be embedded when the store is empty")
	}
}

func TestRetrieve_EmbedFailureYieldsEmpty(t *testing.T) {
	emb := &fakeEmbedder{dims: 2, failOn: map[string]bool{"q": true}}
	r := NewRetriever(emb, zerolog.Nop())

	entries := []VectorEntry{{Text: "x", Vector: []float32{1, 0}, Index: 0}}
	if got := r.Retrieve(context.Background(), "q", entries, 5, 0.0); got != nil {
		t.Errorf("expected nil on embed failure, got %v", got)
	}
}

func TestRetrieve_NoEmbedder(t *testing.T) {
	r := NewRetriever(nil, zerolog.Nop())
	entries := []VectorEntry{{Text: "x", Vector: []float32{1, 0}, Index: 0}}
	if got := r.Retrieve(context.Background(), "q", entries, 5, 0.0); got != nil {
		t.Errorf("expected nil without embedder, got %v", got)
	}
}
