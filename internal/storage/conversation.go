package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates the record does not exist.
var ErrNotFound = errors.New("not found")

// Conversation is one tracked conversation.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateConversation creates a conversation with a generated ID.
func (db *DB) CreateConversation(title string) (*Conversation, error) {
	return db.CreateConversationWithID(uuid.New().String(), title)
}

// CreateConversationWithID creates a conversation with the given ID.
func (db *DB) CreateConversationWithID(id, title string) (*Conversation, error) {
	now := time.Now()
	_, err := db.Exec(
		"INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)",
		id, title, now, now,
	)
	if err != nil {
		return nil, err
	}
	return &Conversation{ID: id, Title: title, CreatedAt: now, UpdatedAt: now}, nil
}

// EnsureConversation creates the conversation if it does not exist yet.
func (tx *Tx) EnsureConversation(id string) error {
	now := time.Now()
	_, err := tx.Exec(
		"INSERT OR IGNORE INTO conversations (id, created_at, updated_at) VALUES (?, ?, ?)",
		id, now, now,
	)
	return err
}

// GetConversation fetches one conversation by ID.
func (db *DB) GetConversation(id string) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(
		"SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations returns all conversations, most recently updated first.
func (db *DB) ListConversations() ([]*Conversation, error) {
	rows, err := db.Query(
		"SELECT id, title, created_at, updated_at FROM conversations ORDER BY updated_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// DeleteConversation removes a conversation and, via foreign keys, its
// messages and compression state.
func (db *DB) DeleteConversation(id string) error {
	result, err := db.Exec("DELETE FROM conversations WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetOptions stores the per-conversation engine option overrides as JSON.
// An empty string clears them.
func (db *DB) SetOptions(id, optionsJSON string) error {
	var value *string
	if optionsJSON != "" {
		value = &optionsJSON
	}
	result, err := db.Exec(
		"UPDATE conversations SET options = ?, updated_at = ? WHERE id = ?",
		value, time.Now(), id,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOptions returns the stored option overrides, or "" when none are set.
func (db *DB) GetOptions(id string) (string, error) {
	var value sql.NullString
	err := db.QueryRow("SELECT options FROM conversations WHERE id = ?", id).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if !value.Valid {
		return "", nil
	}
	return value.String, nil
}
