package compress

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/daozhang71/chat-compressor/internal/chat"
	"github.com/daozhang71/chat-compressor/internal/provider"
)

// summarySeparator joins the old running summary with a freshly generated
// one. Three characters, distinguishable from normal punctuation.
const summarySeparator = "\n---\n"

// Compressor folds message ranges into the running summary using a
// text-generation provider.
type Compressor struct {
	provider provider.Provider
	logger   zerolog.Logger
}

// NewCompressor creates a Compressor.
func NewCompressor(p provider.Provider, logger zerolog.Logger) *Compressor {
	return &Compressor{provider: p, logger: logger}
}

// Compress folds messages[state.CompressedUntilIndex:end) into the running
// summary and returns the successor state. The input state is never
// mutated: on any error the caller's state stands, and on success the
// returned state is a complete replacement (vectors carried over
// unchanged). A nil state is treated as a fresh conversation.
//
// Informational no-ops: ErrNoNewMessages when end does not extend past the
// compressed boundary, ErrNothingToCompress when the range filters down to
// nothing. Generation failure aborts with ErrSummaryFailed; re-compression
// failure of an over-length merged summary degrades to keeping it.
func (c *Compressor) Compress(ctx context.Context, state *State, messages []chat.Message, end int, cfg Config) (*State, error) {
	if c.provider == nil {
		return nil, ErrNoProvider
	}

	start := 0
	oldCount := 0
	if state != nil {
		start = state.CompressedUntilIndex
		oldCount = state.CompressedMessageCount
	}
	if end > len(messages) {
		end = len(messages)
	}
	if end <= start {
		return nil, ErrNoNewMessages
	}

	filtered := chat.FilterCompressible(messages[start:end])
	if len(filtered) == 0 {
		return nil, ErrNothingToCompress
	}

	// Step A: generate and normalize the summary of the new slice.
	raw, err := provider.Generate(ctx, c.provider, chat.Transcript(filtered), cfg.summaryInstruction())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSummaryFailed, err)
	}
	newSummary := Normalize(raw)
	if newSummary == "" {
		return nil, fmt.Errorf("%w: empty generation result", ErrSummaryFailed)
	}

	// Step B: merge. The stored half is not re-normalized; only the new
	// half was cleaned above.
	total := newSummary
	if state.HasSummary() {
		total = state.Summary + summarySeparator + newSummary
	}

	// Step C: re-compress when the merged summary exceeds the cap. This
	// sub-step is recoverable: on failure keep the over-length summary.
	if cfg.MaxSummaryLength > 0 && len(total) > cfg.MaxSummaryLength {
		recompressed, err := provider.Generate(ctx, c.provider, total, cfg.recompressInstruction())
		if err != nil {
			c.logger.Warn().Err(err).
				Int("length", len(total)).
				Int("max", cfg.MaxSummaryLength).
				Msg("summary re-compression failed, keeping over-length summary")
		} else if normalized := Normalize(recompressed); normalized != "" {
			total = normalized
		}
	}

	// Step D: commit.
	next := &State{
		Summary:                total,
		CompressedUntilIndex:   end,
		CompressedMessageCount: oldCount + len(filtered),
		Timestamp:              time.Now().UnixMilli(),
	}
	if state != nil {
		next.Vectors = state.Vectors
	}

	c.logger.Debug().
		Int("from", start).
		Int("to", end).
		Int("folded", len(filtered)).
		Int("summary_len", len(total)).
		Msg("compressed message range")

	return next, nil
}
