package compress

import (
	"time"

	"github.com/daozhang71/chat-compressor/internal/memory"
)

// State is the persisted compression record for one conversation.
//
// Invariants across commits: CompressedUntilIndex never decreases,
// CompressedMessageCount never decreases, Vectors only grows by append
// (truncated only by a full clear), and every VectorEntry.Index is below
// CompressedUntilIndex at the time it was produced.
type State struct {
	// Summary is the running summary text, normalized.
	Summary string `json:"summary"`

	// CompressedUntilIndex is the exclusive upper bound of message
	// positions already folded into Summary.
	CompressedUntilIndex int `json:"compressedUntilIndex"`

	// CompressedMessageCount is the cumulative count of non-system
	// messages folded in.
	CompressedMessageCount int `json:"compressedMessageCount"`

	// Vectors is the append-only vector list, in insertion order.
	Vectors []memory.VectorEntry `json:"vectors"`

	// Timestamp is the last-modified time in unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// NewState returns an empty state stamped with the current time.
func NewState() *State {
	return &State{Timestamp: time.Now().UnixMilli()}
}

// HasSummary reports whether any summary has been committed.
func (s *State) HasSummary() bool {
	return s != nil && s.Summary != ""
}

// SetSummary replaces the summary text and refreshes the timestamp,
// leaving the boundary and vectors untouched. Supports manual editing.
func (s *State) SetSummary(summary string) {
	s.Summary = summary
	s.Timestamp = time.Now().UnixMilli()
}

// AppendVectors appends entries to the vector list and refreshes the
// timestamp.
func (s *State) AppendVectors(entries []memory.VectorEntry) {
	if len(entries) == 0 {
		return
	}
	s.Vectors = append(s.Vectors, entries...)
	s.Timestamp = time.Now().UnixMilli()
}
