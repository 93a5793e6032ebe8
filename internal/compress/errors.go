// Package compress implements incremental compression of conversation
// history: folding old messages into a running summary and advancing the
// compressed boundary, with atomic commit semantics.
package compress

import "errors"

// Compression errors. The ErrNoNewMessages and ErrNothingToCompress
// sentinels are informational no-ops, not failures: callers surface them
// as "nothing to do" and the state is left untouched.
var (
	// ErrNoProvider indicates that no provider is configured for summarization.
	ErrNoProvider = errors.New("compress: provider not configured")

	// ErrNoNewMessages indicates the requested range does not extend past
	// the already-compressed boundary.
	ErrNoNewMessages = errors.New("compress: no new messages to compress")

	// ErrNothingToCompress indicates the range contains only system or
	// empty messages after filtering.
	ErrNothingToCompress = errors.New("compress: no compressible messages in range")

	// ErrSummaryFailed indicates that summary generation failed. The
	// compression attempt is aborted and the state unchanged.
	ErrSummaryFailed = errors.New("compress: summary generation failed")
)

// IsNoOp reports whether err is one of the informational no-op sentinels.
func IsNoOp(err error) bool {
	return errors.Is(err, ErrNoNewMessages) || errors.Is(err, ErrNothingToCompress)
}
