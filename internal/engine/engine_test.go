package engine

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/daozhang71/chat-compressor/internal/chat"
	"github.com/daozhang71/chat-compressor/internal/compress"
	"github.com/daozhang71/chat-compressor/internal/memory"
	"github.com/daozhang71/chat-compressor/internal/provider"
	"github.com/daozhang71/chat-compressor/internal/storage"
)

// stubProvider returns a fixed summary, optionally blocking until released.
type stubProvider struct {
	summary string
	err     error
	entered chan struct{} // closed on first call when non-nil
	release chan struct{} // waited on when non-nil
	calls   int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Chat(_ context.Context, _ provider.ChatRequest) (*provider.ChatResponse, error) {
	s.calls++
	if s.entered != nil && s.calls == 1 {
		close(s.entered)
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return nil, s.err
	}
	return &provider.ChatResponse{Content: s.summary}, nil
}

func newTestEngine(t *testing.T, p provider.Provider, embedder memory.Embedder, cfg compress.Config) *Engine {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	e := New(db, p, embedder, cfg, zerolog.Nop())
	e.SetEmbedDelay(0)
	return e
}

func seedConversation(t *testing.T, e *Engine, id string, messages ...chat.Message) {
	t.Helper()
	for _, m := range messages {
		if _, err := e.Append(id, m); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestFold_FirstTime(t *testing.T) {
	cfg := compress.DefaultConfig()
	cfg.KeepRecentMessages = 1

	e := newTestEngine(t, &stubProvider{summary: "they greeted each other"}, memory.NewSimpleEmbedder(16), cfg)
	seedConversation(t, e, "conv",
		chat.Message{Name: "Alice", Text: "hello"},
		chat.Message{Name: "Bob", Text: "hi there"},
		chat.Message{Name: "Alice", Text: "recent, stays out"},
	)

	state, err := e.Fold(context.Background(), "conv", nil)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if state.Summary != "they greeted each other" {
		t.Errorf("summary = %q", state.Summary)
	}
	if state.CompressedUntilIndex != 2 {
		t.Errorf("compressedUntilIndex = %d, want 2", state.CompressedUntilIndex)
	}
	if len(state.Vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(state.Vectors))
	}
	if state.Vectors[0].Index != 0 || state.Vectors[1].Index != 1 {
		t.Errorf("vector indexes = %d, %d", state.Vectors[0].Index, state.Vectors[1].Index)
	}

	// Fold persisted the state.
	stored, err := e.State("conv")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if stored.Summary != state.Summary || len(stored.Vectors) != 2 {
		t.Errorf("persisted state differs: %+v", stored)
	}
}

func TestFold_NoNewMessagesKeepsState(t *testing.T) {
	cfg := compress.DefaultConfig()
	cfg.KeepRecentMessages = 1

	p := &stubProvider{summary: "sum"}
	e := newTestEngine(t, p, memory.NewSimpleEmbedder(16), cfg)
	seedConversation(t, e, "conv",
		chat.Message{Name: "A", Text: "one"},
		chat.Message{Name: "B", Text: "two"},
	)

	first, err := e.Fold(context.Background(), "conv", nil)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}

	second, err := e.Fold(context.Background(), "conv", nil)
	if !errors.Is(err, compress.ErrNoNewMessages) {
		t.Fatalf("err = %v, want ErrNoNewMessages", err)
	}
	if second == nil || second.Summary != first.Summary {
		t.Errorf("no-op fold changed state: %+v", second)
	}
}

func TestFold_EmptyConversation(t *testing.T) {
	e := newTestEngine(t, &stubProvider{summary: "sum"}, nil, compress.DefaultConfig())

	_, err := e.Fold(context.Background(), "empty", nil)
	if !compress.IsNoOp(err) {
		t.Fatalf("err = %v, want a no-op sentinel", err)
	}
}

func TestFold_SkipVectorize(t *testing.T) {
	cfg := compress.DefaultConfig()
	cfg.KeepRecentMessages = 0
	cfg.SkipVectorize = true

	e := newTestEngine(t, &stubProvider{summary: "sum"}, memory.NewSimpleEmbedder(16), cfg)
	seedConversation(t, e, "conv", chat.Message{Name: "A", Text: "hello"})

	state, err := e.Fold(context.Background(), "conv", nil)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if len(state.Vectors) != 0 {
		t.Errorf("vectors = %d, want 0", len(state.Vectors))
	}
}

func TestFold_ConcurrentGuard(t *testing.T) {
	p := &stubProvider{
		summary: "sum",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	cfg := compress.DefaultConfig()
	cfg.KeepRecentMessages = 0

	e := newTestEngine(t, p, nil, cfg)
	seedConversation(t, e, "conv", chat.Message{Name: "A", Text: "hello"})

	done := make(chan error, 1)
	go func() {
		_, err := e.Fold(context.Background(), "conv", nil)
		done <- err
	}()

	<-p.entered
	if _, err := e.Fold(context.Background(), "conv", nil); !errors.Is(err, ErrFoldInProgress) {
		t.Errorf("err = %v, want ErrFoldInProgress", err)
	}

	close(p.release)
	if err := <-done; err != nil {
		t.Fatalf("first fold: %v", err)
	}

	// The guard is released once the fold finishes.
	if _, err := e.Fold(context.Background(), "conv", nil); !errors.Is(err, compress.ErrNoNewMessages) {
		t.Errorf("err = %v, want ErrNoNewMessages after release", err)
	}
}

func TestRetrieve_FindsFoldedMessage(t *testing.T) {
	cfg := compress.DefaultConfig()
	cfg.KeepRecentMessages = 0

	e := newTestEngine(t, &stubProvider{summary: "sum"}, memory.NewSimpleEmbedder(64), cfg)
	seedConversation(t, e, "conv",
		chat.Message{Name: "Alice", Text: "the launch is on friday"},
		chat.Message{Name: "Bob", Text: "noted"},
	)

	if _, err := e.Fold(context.Background(), "conv", nil); err != nil {
		t.Fatalf("fold: %v", err)
	}

	// The deterministic embedder maps identical text to identical vectors,
	// so querying with a rendered message matches it exactly.
	results, err := e.Retrieve(context.Background(), "conv", "Alice: the launch is on friday")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	if results[0].Text != "Alice: the launch is on friday" {
		t.Errorf("top result = %q", results[0].Text)
	}
	if results[0].Similarity < 0.999 {
		t.Errorf("similarity = %v", results[0].Similarity)
	}
}

func TestRetrieve_NoState(t *testing.T) {
	e := newTestEngine(t, nil, memory.NewSimpleEmbedder(16), compress.DefaultConfig())

	results, err := e.Retrieve(context.Background(), "conv", "anything")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if results != nil {
		t.Errorf("results = %v, want nil", results)
	}
}

func TestPrepare(t *testing.T) {
	cfg := compress.DefaultConfig()
	cfg.KeepRecentMessages = 0

	e := newTestEngine(t, &stubProvider{summary: "alice planned the launch"}, memory.NewSimpleEmbedder(64), cfg)
	seedConversation(t, e, "conv", chat.Message{Name: "Alice", Text: "launch friday"})

	// Nothing folded yet: nothing to inject.
	injection, err := e.Prepare(context.Background(), "conv", "")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if injection != "" {
		t.Errorf("injection before fold = %q, want empty", injection)
	}

	if _, err := e.Fold(context.Background(), "conv", nil); err != nil {
		t.Fatalf("fold: %v", err)
	}

	injection, err = e.Prepare(context.Background(), "conv", "Alice: launch friday")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if !strings.Contains(injection, "alice planned the launch") {
		t.Errorf("injection missing summary: %q", injection)
	}
	if !strings.Contains(injection, "Alice: launch friday") {
		t.Errorf("injection missing retrieved message: %q", injection)
	}
}

func TestSetSummaryAndClear(t *testing.T) {
	e := newTestEngine(t, nil, nil, compress.DefaultConfig())

	state, err := e.SetSummary("conv", "manual summary")
	if err != nil {
		t.Fatalf("set summary: %v", err)
	}
	if state.Summary != "manual summary" {
		t.Errorf("summary = %q", state.Summary)
	}

	stored, err := e.State("conv")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if stored.Summary != "manual summary" {
		t.Errorf("persisted summary = %q", stored.Summary)
	}

	if err := e.Clear("conv"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := e.State("conv"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("state survived clear: %v", err)
	}
}

func TestSetOptions_OverridesFold(t *testing.T) {
	cfg := compress.DefaultConfig()
	cfg.KeepRecentMessages = 0

	e := newTestEngine(t, &stubProvider{summary: "sum"}, nil, cfg)
	seedConversation(t, e, "conv",
		chat.Message{Name: "A", Text: "one"},
		chat.Message{Name: "B", Text: "two"},
		chat.Message{Name: "C", Text: "three"},
	)

	// Override keeps two trailing messages out of the fold.
	if err := e.SetOptions("conv", `{"keep_recent_messages":2,"skip_vectorize":true}`); err != nil {
		t.Fatalf("set options: %v", err)
	}

	state, err := e.Fold(context.Background(), "conv", nil)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if state.CompressedUntilIndex != 1 {
		t.Errorf("compressedUntilIndex = %d, want 1", state.CompressedUntilIndex)
	}
}

func TestSetOptions_RejectsInvalidJSON(t *testing.T) {
	e := newTestEngine(t, nil, nil, compress.DefaultConfig())

	if err := e.SetOptions("conv", "{not json"); err == nil {
		t.Fatal("expected error for invalid options JSON")
	}
}
