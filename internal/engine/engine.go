// Package engine coordinates the compression pipeline per conversation:
// loading the message log, folding new messages into the running summary,
// maintaining the vector index, and preparing the injected context.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/daozhang71/chat-compressor/internal/chat"
	"github.com/daozhang71/chat-compressor/internal/compress"
	"github.com/daozhang71/chat-compressor/internal/config"
	"github.com/daozhang71/chat-compressor/internal/memory"
	"github.com/daozhang71/chat-compressor/internal/provider"
	"github.com/daozhang71/chat-compressor/internal/storage"
)

// ErrFoldInProgress indicates a concurrent fold on the same conversation.
var ErrFoldInProgress = errors.New("engine: fold already in progress")

// Engine is the host-facing facade over the compression pipeline.
type Engine struct {
	db         *storage.DB
	compressor *compress.Compressor
	vectorizer *memory.Vectorizer
	retriever  *memory.Retriever
	embedder   memory.Embedder
	cfg        compress.Config
	logger     zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// New creates an Engine. The provider and embedder may be nil: compression
// then fails with its sentinel and retrieval returns nothing, but reads and
// manual summary edits still work.
func New(db *storage.DB, p provider.Provider, embedder memory.Embedder, cfg compress.Config, logger zerolog.Logger) *Engine {
	return &Engine{
		db:         db,
		compressor: compress.NewCompressor(p, logger),
		vectorizer: memory.NewVectorizer(embedder, logger),
		retriever:  memory.NewRetriever(embedder, logger),
		embedder:   embedder,
		cfg:        cfg,
		logger:     logger,
		inFlight:   make(map[string]bool),
	}
}

// ConfigFrom maps the application-level engine settings to the pipeline
// configuration, with pipeline defaults filling the prompt templates.
func ConfigFrom(ec config.EngineConfig) compress.Config {
	cfg := compress.DefaultConfig()
	cfg.KeepRecentMessages = ec.KeepRecentMessages
	cfg.SummaryMaxWords = ec.SummaryMaxWords
	cfg.MaxSummaryLength = ec.MaxSummaryLength
	cfg.RetrieveCount = ec.RetrieveCount
	cfg.SimilarityThreshold = ec.SimilarityThreshold
	cfg.SkipVectorize = ec.SkipVectorize
	if ec.SummaryPrompt != "" {
		cfg.SummaryPrompt = ec.SummaryPrompt
	}
	if ec.RecompressPrompt != "" {
		cfg.RecompressPrompt = ec.RecompressPrompt
	}
	if ec.InjectionTemplate != "" {
		cfg.InjectionTemplate = ec.InjectionTemplate
	}
	return cfg
}

// SetEmbedDelay adjusts the pause between embedding calls during folds.
func (e *Engine) SetEmbedDelay(d time.Duration) {
	e.vectorizer.SetDelay(d)
}

// Append appends a message to the conversation log.
func (e *Engine) Append(conversationID string, msg chat.Message) (*storage.StoredMessage, error) {
	return e.db.AppendMessage(conversationID, msg)
}

// Messages returns the full message log of a conversation.
func (e *Engine) Messages(conversationID string) ([]*storage.StoredMessage, error) {
	return e.db.ListMessages(conversationID)
}

// State returns the stored compression state, or storage.ErrNotFound.
func (e *Engine) State(conversationID string) (*compress.State, error) {
	return e.db.GetState(conversationID)
}

// Fold compresses every message except the trailing keep-recent window into
// the running summary, extends the vector index with the folded range, and
// persists the new state. onProgress may be nil.
//
// Only one fold per conversation runs at a time; a second caller gets
// ErrFoldInProgress. No-op conditions surface the compress sentinels with
// the unchanged state.
func (e *Engine) Fold(ctx context.Context, conversationID string, onProgress func(int)) (*compress.State, error) {
	if !e.acquire(conversationID) {
		return nil, ErrFoldInProgress
	}
	defer e.release(conversationID)

	messages, err := e.db.ChatMessages(conversationID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	state, err := e.db.GetState(conversationID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load state: %w", err)
	}

	cfg, err := e.conversationConfig(conversationID)
	if err != nil {
		return nil, err
	}

	end := len(messages) - cfg.KeepRecentMessages
	if end < 0 {
		end = 0
	}

	start := 0
	if state != nil {
		start = state.CompressedUntilIndex
	}

	next, err := e.compressor.Compress(ctx, state, messages, end, cfg)
	if err != nil {
		if compress.IsNoOp(err) {
			return state, err
		}
		return nil, err
	}

	if !cfg.SkipVectorize && e.embedder != nil {
		entries := e.vectorizer.Vectorize(ctx, messages[start:end], start, onProgress)
		next.AppendVectors(entries)
	}

	if err := e.db.SaveState(conversationID, next); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}

	e.logger.Info().
		Str("conversation", conversationID).
		Int("until", next.CompressedUntilIndex).
		Int("vectors", len(next.Vectors)).
		Msg("folded conversation")

	return next, nil
}

// Retrieve searches the conversation's vector index. An empty query falls
// back to the last speaker message in the log.
func (e *Engine) Retrieve(ctx context.Context, conversationID, query string) ([]memory.Result, error) {
	state, err := e.db.GetState(conversationID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cfg, err := e.conversationConfig(conversationID)
	if err != nil {
		return nil, err
	}

	if query == "" {
		query, err = e.lastSpeakerText(conversationID)
		if err != nil {
			return nil, err
		}
		if query == "" {
			return nil, nil
		}
	}

	return e.retriever.Retrieve(ctx, query, state.Vectors, cfg.RetrieveCount, cfg.SimilarityThreshold), nil
}

// Prepare builds the context injection for the next generation request:
// the running summary plus messages retrieved for the query. Returns ""
// when the conversation has no summary yet.
func (e *Engine) Prepare(ctx context.Context, conversationID, query string) (string, error) {
	state, err := e.db.GetState(conversationID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	cfg, err := e.conversationConfig(conversationID)
	if err != nil {
		return "", err
	}

	results, err := e.Retrieve(ctx, conversationID, query)
	if err != nil {
		return "", err
	}

	return compress.Compose(state, results, cfg.InjectionTemplate), nil
}

// SetSummary overwrites the running summary, creating state if none exists.
// The compressed boundary and the vector index are left as they are.
func (e *Engine) SetSummary(conversationID, summary string) (*compress.State, error) {
	state, err := e.db.GetState(conversationID)
	if errors.Is(err, storage.ErrNotFound) {
		state = compress.NewState()
	} else if err != nil {
		return nil, err
	}

	state.SetSummary(summary)
	if err := e.db.SaveState(conversationID, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Clear removes the compression state; the message log stays.
func (e *Engine) Clear(conversationID string) error {
	return e.db.DeleteState(conversationID)
}

// SetOptions stores per-conversation overrides of the engine settings as a
// partial JSON object; fields absent from it keep the engine defaults.
func (e *Engine) SetOptions(conversationID, optionsJSON string) error {
	if optionsJSON != "" {
		var probe map[string]any
		if err := json.Unmarshal([]byte(optionsJSON), &probe); err != nil {
			return fmt.Errorf("invalid options: %w", err)
		}
	}
	return e.db.SetOptions(conversationID, optionsJSON)
}

// conversationConfig overlays stored per-conversation options on the engine
// defaults.
func (e *Engine) conversationConfig(conversationID string) (compress.Config, error) {
	cfg := e.cfg
	overrides, err := e.db.GetOptions(conversationID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return cfg, nil
		}
		return cfg, err
	}
	if overrides == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(overrides), &cfg); err != nil {
		return cfg, fmt.Errorf("parse options: %w", err)
	}
	return cfg, nil
}

// lastSpeakerText returns the text of the last non-system message.
func (e *Engine) lastSpeakerText(conversationID string) (string, error) {
	messages, err := e.db.ChatMessages(conversationID)
	if err != nil {
		return "", err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if !messages[i].System && !messages[i].Empty() {
			return messages[i].Text, nil
		}
	}
	return "", nil
}

func (e *Engine) acquire(conversationID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[conversationID] {
		return false
	}
	e.inFlight[conversationID] = true
	return true
}

func (e *Engine) release(conversationID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, conversationID)
}
