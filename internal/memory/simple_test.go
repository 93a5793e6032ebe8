package memory

import (
	"context"
	"math"
	"testing"
)

func TestSimpleEmbedder_Deterministic(t *testing.T) {
	e := NewSimpleEmbedder(64)
	ctx := context.Background()

	a, err := e.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := e.Embed(ctx, "hello world")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	if len(a) != 64 {
		t.Fatalf("dims = %d, want 64", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSimpleEmbedder_UnitLength(t *testing.T) {
	e := NewSimpleEmbedder(128)
	vec, err := e.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sum)-1.0) > 1e-5 {
		t.Errorf("norm = %v, want 1.0", math.Sqrt(sum))
	}
}

func TestSimpleEmbedder_EmptyText(t *testing.T) {
	e := NewSimpleEmbedder(16)
	vec, err := e.Embed(context.Background(), "")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatal("empty text should embed to the zero vector")
		}
	}
}

func TestSimpleEmbedder_Batch(t *testing.T) {
	e := NewSimpleEmbedder(32)
	vecs, err := e.EmbedBatch(context.Background(), []string{"a", "b", "a"})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	if Cosine(vecs[0], vecs[2]) < 0.999 {
		t.Error("same text should give identical vectors")
	}
	if Cosine(vecs[0], vecs[1]) > 0.9 {
		t.Error("different texts should not be near-identical")
	}
}

func TestSimpleEmbedder_DefaultDims(t *testing.T) {
	e := NewSimpleEmbedder(0)
	if e.Dimensions() != 384 {
		t.Errorf("default dims = %d, want 384", e.Dimensions())
	}
}
