package compress

import (
	"strings"

	"github.com/daozhang71/chat-compressor/internal/memory"
)

// Injection template placeholders.
const (
	summaryPlaceholder   = "{{summary}}"
	retrievedPlaceholder = "{{retrieved}}"
)

// NoRelatedHistory marks an empty or skipped retrieval in the injection.
const NoRelatedHistory = "[No related history]"

// Compose renders the text injected into the next generation request from
// the current state and retrieval results. Pure string construction: no
// capability calls, no mutation. Returns "" when there is no summary.
func Compose(state *State, results []memory.Result, template string) string {
	if !state.HasSummary() {
		return ""
	}
	if template == "" {
		template = DefaultInjectionTemplate
	}

	retrieved := NoRelatedHistory
	if len(results) > 0 {
		texts := make([]string, len(results))
		for i, r := range results {
			texts[i] = r.Text
		}
		retrieved = strings.Join(texts, "\n\n")
	}

	out := strings.ReplaceAll(template, summaryPlaceholder, state.Summary)
	out = strings.ReplaceAll(out, retrievedPlaceholder, retrieved)
	return out
}
