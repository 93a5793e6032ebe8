package storage

import (
	"time"

	"github.com/daozhang71/chat-compressor/internal/chat"
)

// StoredMessage is one row of a conversation's message log. Index is the
// message's absolute position within the conversation, assigned on append
// and never reused.
type StoredMessage struct {
	ConversationID string    `json:"conversation_id"`
	Index          int       `json:"index"`
	Name           string    `json:"name"`
	Text           string    `json:"text"`
	System         bool      `json:"system"`
	CreatedAt      time.Time `json:"created_at"`
}

// Chat converts the row to its in-memory form.
func (m *StoredMessage) Chat() chat.Message {
	return chat.Message{Name: m.Name, Text: m.Text, System: m.System}
}

// AppendMessage appends a message to the conversation log, creating the
// conversation row if needed. The index is assigned inside a transaction so
// concurrent appends cannot collide.
func (db *DB) AppendMessage(conversationID string, msg chat.Message) (*StoredMessage, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.EnsureConversation(conversationID); err != nil {
		return nil, err
	}

	var idx int
	err = tx.QueryRow(
		"SELECT COALESCE(MAX(idx) + 1, 0) FROM messages WHERE conversation_id = ?",
		conversationID,
	).Scan(&idx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = tx.Exec(
		"INSERT INTO messages (conversation_id, idx, name, body, system, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		conversationID, idx, msg.Name, msg.Text, msg.System, now,
	)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec("UPDATE conversations SET updated_at = ? WHERE id = ?", now, conversationID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &StoredMessage{
		ConversationID: conversationID,
		Index:          idx,
		Name:           msg.Name,
		Text:           msg.Text,
		System:         msg.System,
		CreatedAt:      now,
	}, nil
}

// ListMessages returns the full message log in index order.
func (db *DB) ListMessages(conversationID string) ([]*StoredMessage, error) {
	rows, err := db.Query(
		"SELECT conversation_id, idx, name, body, system, created_at FROM messages WHERE conversation_id = ? ORDER BY idx",
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ConversationID, &m.Index, &m.Name, &m.Text, &m.System, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// ChatMessages returns the message log converted to its in-memory form.
// The slice index equals the stored message index.
func (db *DB) ChatMessages(conversationID string) ([]chat.Message, error) {
	stored, err := db.ListMessages(conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]chat.Message, len(stored))
	for i, m := range stored {
		out[i] = m.Chat()
	}
	return out, nil
}

// CountMessages returns the number of messages in the conversation.
func (db *DB) CountMessages(conversationID string) (int, error) {
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM messages WHERE conversation_id = ?",
		conversationID,
	).Scan(&n)
	return n, err
}
