package compress

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/daozhang71/chat-compressor/internal/memory"
)

func TestState_JSONShape(t *testing.T) {
	s := &State{
		Summary:                "they met at dawn",
		CompressedUntilIndex:   7,
		CompressedMessageCount: 5,
		Vectors: []memory.VectorEntry{
			{Text: "Alice: hello", Vector: []float32{0.1, 0.2}, Index: 0},
		},
		Timestamp: 1700000000000,
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{
		`"summary"`, `"compressedUntilIndex"`, `"compressedMessageCount"`,
		`"vectors"`, `"timestamp"`,
	} {
		if !strings.Contains(string(data), key) {
			t.Errorf("missing key %s in %s", key, data)
		}
	}

	var back State
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.CompressedUntilIndex != 7 || back.CompressedMessageCount != 5 {
		t.Errorf("boundary fields lost: %+v", back)
	}
	if len(back.Vectors) != 1 || back.Vectors[0].Index != 0 {
		t.Errorf("vectors lost: %+v", back.Vectors)
	}
}

func TestState_HasSummary(t *testing.T) {
	var nilState *State
	if nilState.HasSummary() {
		t.Error("nil state should not have a summary")
	}
	if NewState().HasSummary() {
		t.Error("fresh state should not have a summary")
	}

	s := NewState()
	s.SetSummary("something happened")
	if !s.HasSummary() {
		t.Error("expected summary after SetSummary")
	}
}

func TestState_AppendVectors(t *testing.T) {
	s := NewState()
	before := s.Timestamp

	s.AppendVectors(nil)
	if s.Vectors != nil {
		t.Errorf("empty append should be a no-op, got %v", s.Vectors)
	}

	s.AppendVectors([]memory.VectorEntry{{Text: "a", Index: 0}})
	s.AppendVectors([]memory.VectorEntry{{Text: "b", Index: 1}})
	if len(s.Vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(s.Vectors))
	}
	if s.Vectors[0].Text != "a" || s.Vectors[1].Text != "b" {
		t.Errorf("append order wrong: %+v", s.Vectors)
	}
	if s.Timestamp < before {
		t.Errorf("timestamp went backwards: %d < %d", s.Timestamp, before)
	}
}
