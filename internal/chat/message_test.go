package chat

import "testing"

func TestRender(t *testing.T) {
	m := Message{Name: "Alice", Text: "hello there"}
	if got := m.Render(); got != "Alice: hello there" {
		t.Errorf("Render() = %q", got)
	}
}

func TestFilterCompressible(t *testing.T) {
	messages := []Message{
		{Name: "System", Text: "scenario prompt", System: true},
		{Name: "Alice", Text: "hello"},
		{Name: "Bob", Text: "   "},
		{Name: "Bob", Text: "hi"},
		{Name: "Narrator", Text: ""},
	}

	got := FilterCompressible(messages)
	if len(got) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got))
	}
	if got[0].Name != "Alice" || got[1].Name != "Bob" {
		t.Errorf("unexpected order: %v", got)
	}
}

func TestFilterCompressibleAllFiltered(t *testing.T) {
	messages := []Message{
		{Name: "System", Text: "x", System: true},
		{Name: "A", Text: " "},
	}
	if got := FilterCompressible(messages); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestTranscript(t *testing.T) {
	messages := []Message{
		{Name: "Alice", Text: "hello"},
		{Name: "Bob", Text: "hi"},
	}
	want := "Alice: hello\nBob: hi"
	if got := Transcript(messages); got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}
