package memory

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/daozhang71/chat-compressor/internal/chat"
)

// MaxEmbedChars caps the text length sent to the embedding provider, for
// both indexed messages and queries.
const MaxEmbedChars = 2000

// defaultEmbedDelay spaces out embedding calls to respect provider rate
// limits. Not part of the correctness contract.
const defaultEmbedDelay = 100 * time.Millisecond

// Vectorizer turns message slices into vector entries, best-effort:
// per-message failures are skipped and logged, never cumulative.
type Vectorizer struct {
	embedder Embedder
	delay    time.Duration
	logger   zerolog.Logger
}

// NewVectorizer creates a Vectorizer.
func NewVectorizer(e Embedder, logger zerolog.Logger) *Vectorizer {
	return &Vectorizer{embedder: e, delay: defaultEmbedDelay, logger: logger}
}

// SetDelay overrides the inter-call delay. Zero disables it.
func (v *Vectorizer) SetDelay(d time.Duration) {
	v.delay = d
}

// Vectorize embeds each message in order and returns the produced entries.
// Entry indexes are offset plus the message's position in the slice, so
// passing the not-yet-compressed slice with its start offset yields
// absolute conversation positions. System-authored and empty messages are
// skipped without an entry; embedding failures skip that message only.
//
// onProgress, when non-nil, receives a monotonically increasing percentage
// after each processed message (skipped or not).
func (v *Vectorizer) Vectorize(ctx context.Context, messages []chat.Message, offset int, onProgress func(pct int)) []VectorEntry {
	if v.embedder == nil || len(messages) == 0 {
		return nil
	}

	total := len(messages)
	entries := make([]VectorEntry, 0, total)

	for i, m := range messages {
		if !m.System && !m.Empty() {
			text := truncate(m.Render(), MaxEmbedChars)
			vec, err := v.embedder.Embed(ctx, text)
			if err != nil {
				v.logger.Warn().Err(err).
					Int("index", offset+i).
					Msg("embedding failed, skipping message")
			} else {
				entries = append(entries, VectorEntry{
					Text:   text,
					Vector: vec,
					Index:  offset + i,
				})
			}

			if v.delay > 0 && i < total-1 {
				select {
				case <-ctx.Done():
					return entries
				case <-time.After(v.delay):
				}
			}
		}

		if onProgress != nil {
			onProgress(int(math.Round(100 * float64(i+1) / float64(total))))
		}
	}

	return entries
}

// truncate limits s to max runes.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
