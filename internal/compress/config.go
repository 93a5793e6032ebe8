package compress

import (
	"strconv"
	"strings"
)

// Prompt placeholders substituted at request time.
const (
	wordsPlaceholder  = "{{words}}"
	lengthPlaceholder = "{{length}}"
)

const defaultSummaryPrompt = `Summarize the following conversation excerpt in at most {{words}} words. Preserve key facts, decisions made, and unresolved questions. Reply with the summary only, no preamble.`

const defaultRecompressPrompt = `The following is an accumulated conversation summary that has grown too long. Rewrite it as a single condensed summary of at most {{length}} characters, keeping the most important facts and decisions. Reply with the summary only.`

// DefaultInjectionTemplate renders the text injected into the next
// generation request. {{summary}} and {{retrieved}} are substituted by
// Compose.
const DefaultInjectionTemplate = `[Memory of earlier conversation]
{{summary}}

[Related past messages]
{{retrieved}}`

// Config holds the engine options recognized per conversation.
type Config struct {
	// KeepRecentMessages is the number of trailing messages the host
	// keeps out of compression. Bookkeeping for hosts; the engine itself
	// compresses exactly the range it is given.
	KeepRecentMessages int `json:"keep_recent_messages"`

	// SummaryMaxWords is the word budget given to the summarization
	// instruction.
	SummaryMaxWords int `json:"summary_max_words"`

	// MaxSummaryLength is the character length above which the merged
	// running summary is re-compressed.
	MaxSummaryLength int `json:"max_summary_length"`

	// RetrieveCount is the top-K bound for retrieval.
	RetrieveCount int `json:"retrieve_count"`

	// SimilarityThreshold is the minimum cosine similarity for retrieval
	// results.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// SkipVectorize disables the vector index entirely (summary-only mode).
	SkipVectorize bool `json:"skip_vectorize"`

	// SummaryPrompt is the summarization instruction template; {{words}}
	// is substituted with SummaryMaxWords.
	SummaryPrompt string `json:"summary_prompt"`

	// RecompressPrompt is the re-compression instruction template;
	// {{length}} is substituted with MaxSummaryLength.
	RecompressPrompt string `json:"recompress_prompt"`

	// InjectionTemplate is the template rendered by Compose.
	InjectionTemplate string `json:"injection_template"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		KeepRecentMessages:  4,
		SummaryMaxWords:     150,
		MaxSummaryLength:    2000,
		RetrieveCount:       3,
		SimilarityThreshold: 0.6,
		SummaryPrompt:       defaultSummaryPrompt,
		RecompressPrompt:    defaultRecompressPrompt,
		InjectionTemplate:   DefaultInjectionTemplate,
	}
}

// summaryInstruction renders the summarization system instruction.
func (c Config) summaryInstruction() string {
	prompt := c.SummaryPrompt
	if prompt == "" {
		prompt = defaultSummaryPrompt
	}
	return strings.ReplaceAll(prompt, wordsPlaceholder, strconv.Itoa(c.SummaryMaxWords))
}

// recompressInstruction renders the re-compression system instruction.
func (c Config) recompressInstruction() string {
	prompt := c.RecompressPrompt
	if prompt == "" {
		prompt = defaultRecompressPrompt
	}
	return strings.ReplaceAll(prompt, lengthPlaceholder, strconv.Itoa(c.MaxSummaryLength))
}
