package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/daozhang71/chat-compressor/internal/compress"
	"github.com/daozhang71/chat-compressor/internal/memory"
)

// SaveState stores the compression state for a conversation, replacing any
// previous one. The vector entries are serialized as a JSON column.
func (db *DB) SaveState(conversationID string, state *compress.State) error {
	if state == nil {
		return errors.New("storage: nil state")
	}

	vectors := state.Vectors
	if vectors == nil {
		vectors = []memory.VectorEntry{}
	}
	vectorsJSON, err := json.Marshal(vectors)
	if err != nil {
		return fmt.Errorf("marshal vectors: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := tx.EnsureConversation(conversationID); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO compression_states
		(conversation_id, summary, compressed_until, compressed_count, vectors, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		conversationID, state.Summary, state.CompressedUntilIndex,
		state.CompressedMessageCount, string(vectorsJSON), state.Timestamp,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// GetState loads the compression state for a conversation, or ErrNotFound
// when none has been saved yet.
func (db *DB) GetState(conversationID string) (*compress.State, error) {
	var (
		state       compress.State
		vectorsJSON string
	)
	err := db.QueryRow(
		`SELECT summary, compressed_until, compressed_count, vectors, updated_at
		FROM compression_states WHERE conversation_id = ?`,
		conversationID,
	).Scan(&state.Summary, &state.CompressedUntilIndex, &state.CompressedMessageCount,
		&vectorsJSON, &state.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(vectorsJSON), &state.Vectors); err != nil {
		return nil, fmt.Errorf("unmarshal vectors: %w", err)
	}
	return &state, nil
}

// DeleteState removes the compression state for a conversation. Deleting a
// missing state is not an error: the outcome is the same.
func (db *DB) DeleteState(conversationID string) error {
	_, err := db.Exec("DELETE FROM compression_states WHERE conversation_id = ?", conversationID)
	return err
}
