package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Message senders.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Session represents a chat session, optionally scoped to a single project
// via ProjectID.
type Session struct {
	ID            string    `json:"id" db:"id"`
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	ProjectID     string    `json:"project_id,omitempty" db:"project_id"`
	Title         string    `json:"title" db:"title"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	LastUpdatedAt time.Time `json:"last_updated_at" db:"last_updated_at"`

	// Messages is populated by ListWithMessages; it is not a table column.
	Messages []Message `json:"messages" db:"-"`
}

// Message represents a single chat message. Message IDs are unique within a
// session, not globally: every session carries a greeting message with id "0".
type Message struct {
	ID          string    `json:"id" db:"id"`
	SessionID   string    `json:"session_id" db:"session_id"`
	Content     string    `json:"content" db:"content"`
	Sender      string    `json:"sender" db:"sender"`
	ImageURL    string    `json:"image_url,omitempty" db:"image_url"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
	IsStreaming bool      `json:"is_streaming" db:"is_streaming"`
}

// SessionRepository defines session storage operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	ListWithMessages(ctx context.Context, userID uuid.UUID) ([]*Session, error)
	Update(ctx context.Context, userID uuid.UUID, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID uuid.UUID, id string) error
}

// MessageRepository defines message storage operations
type MessageRepository interface {
	Create(ctx context.Context, message Message) error
	Update(ctx context.Context, sessionID, id string, content string, isStreaming bool) error
}
