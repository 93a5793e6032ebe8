package storage

import (
	"errors"
	"testing"

	"github.com/daozhang71/chat-compressor/internal/compress"
	"github.com/daozhang71/chat-compressor/internal/memory"
)

func TestStateRoundTrip(t *testing.T) {
	db := openTestDB(t)

	state := &compress.State{
		Summary:                "alice and bob talked",
		CompressedUntilIndex:   7,
		CompressedMessageCount: 5,
		Vectors: []memory.VectorEntry{
			{Text: "Alice: hello", Vector: []float32{0.1, 0.9}, Index: 0},
			{Text: "Bob: hi", Vector: []float32{0.8, 0.2}, Index: 1},
		},
		Timestamp: 1700000000000,
	}

	if err := db.SaveState("conv", state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.GetState("conv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Summary != state.Summary {
		t.Errorf("summary = %q", got.Summary)
	}
	if got.CompressedUntilIndex != 7 || got.CompressedMessageCount != 5 {
		t.Errorf("counters = %d, %d", got.CompressedUntilIndex, got.CompressedMessageCount)
	}
	if got.Timestamp != state.Timestamp {
		t.Errorf("timestamp = %d", got.Timestamp)
	}
	if len(got.Vectors) != 2 {
		t.Fatalf("got %d vectors", len(got.Vectors))
	}
	if got.Vectors[1].Text != "Bob: hi" || got.Vectors[1].Index != 1 {
		t.Errorf("vector entry = %+v", got.Vectors[1])
	}
	if got.Vectors[0].Vector[1] != 0.9 {
		t.Errorf("vector value = %v", got.Vectors[0].Vector[1])
	}
}

func TestSaveState_Replaces(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveState("conv", &compress.State{Summary: "old"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveState("conv", &compress.State{Summary: "new", CompressedUntilIndex: 3}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := db.GetState("conv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Summary != "new" || got.CompressedUntilIndex != 3 {
		t.Errorf("state = %+v", got)
	}
}

func TestGetState_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetState("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteState(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveState("conv", &compress.State{Summary: "s"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.DeleteState("conv"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetState("conv"); !errors.Is(err, ErrNotFound) {
		t.Errorf("state survived delete: %v", err)
	}

	// Deleting again is a no-op.
	if err := db.DeleteState("conv"); err != nil {
		t.Errorf("second delete: %v", err)
	}
}

func TestSaveState_NilVectors(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveState("conv", &compress.State{Summary: "s"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := db.GetState("conv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Vectors) != 0 {
		t.Errorf("vectors = %v, want empty", got.Vectors)
	}
}
