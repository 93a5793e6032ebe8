// Package chat defines the conversation message model shared by the
// compression engine, the vector index, and the storage layer. The engine
// only ever reads messages; mutation is a host concern.
package chat

import (
	"fmt"
	"strings"
)

// Message is a single entry of a conversation log. Position is implied by
// the message's index in the conversation, not stored on the message.
type Message struct {
	Name   string `json:"name"`             // author display name
	Text   string `json:"text"`             // message body
	System bool   `json:"system,omitempty"` // system-authored (prompts, notices)
}

// Render returns the "name: body" form used for embedding and for summary
// transcripts.
func (m Message) Render() string {
	return fmt.Sprintf("%s: %s", m.Name, m.Text)
}

// Empty reports whether the message body is blank.
func (m Message) Empty() bool {
	return strings.TrimSpace(m.Text) == ""
}

// FilterCompressible returns the messages that participate in compression:
// system-authored and empty-body messages are dropped. Order is preserved.
func FilterCompressible(messages []Message) []Message {
	var out []Message
	for _, m := range messages {
		if m.System || m.Empty() {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Transcript joins rendered messages with newlines, the form handed to the
// text-generation provider for summarization.
func Transcript(messages []Message) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Render())
	}
	return b.String()
}
