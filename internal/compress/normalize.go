package compress

import (
	"regexp"
	"strings"
)

// The normalizer canonicalizes machine-generated summary text for token
// economy: one line, clauses joined by ";", markdown noise stripped.
// It is deterministic and idempotent.

var (
	markupRe    = regexp.MustCompile("[*_#>`]+")
	quoteRe     = regexp.MustCompile(`["“”«»]`)
	emptyPairRe = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	newlineRe   = regexp.MustCompile(`[ \t]*\r?\n[\s]*`)
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	delimRe     = regexp.MustCompile(`[ \t]*;[; \t]*`)
)

// Normalize converts raw generated text into a single-line, semicolon-
// delimited string: newline runs become one delimiter, whitespace runs
// collapse to a single space, markdown emphasis/heading markers and quote
// characters are removed, empty bracket pairs are dropped, and delimiter
// runs are deduplicated and trimmed.
func Normalize(s string) string {
	s = markupRe.ReplaceAllString(s, "")
	s = quoteRe.ReplaceAllString(s, "")
	s = emptyPairRe.ReplaceAllString(s, "")
	s = newlineRe.ReplaceAllString(s, ";")
	s = spaceRe.ReplaceAllString(s, " ")
	s = delimRe.ReplaceAllString(s, ";")
	return strings.Trim(s, "; ")
}
