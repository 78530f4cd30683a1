package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/repository"
)

// MessageRepository implements repository.MessageRepository using PostgreSQL
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new PostgreSQL message repository
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &MessageRepository{db: db}
}

// Create inserts a message. The id comes from the caller: message ids are
// only unique within a session (every session has a greeting with id "0"),
// so the table key is (session_id, id).
func (r *MessageRepository) Create(ctx context.Context, message repository.Message) error {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}

	query := `
		INSERT INTO chat_messages (id, session_id, content, sender, image_url, timestamp, is_streaming)
		VALUES (:id, :session_id, :content, :sender, NULLIF(:image_url, ''), :timestamp, :is_streaming)
	`

	_, err := r.db.NamedExecContext(ctx, query, message)
	return err
}

// Update overwrites a message's content and streaming flag
func (r *MessageRepository) Update(ctx context.Context, sessionID, id string, content string, isStreaming bool) error {
	query := `
		UPDATE chat_messages
		SET content = $1, is_streaming = $2
		WHERE session_id = $3 AND id = $4
	`

	_, err := r.db.ExecContext(ctx, query, content, isStreaming, sessionID, id)
	return err
}
