package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/repository"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new PostgreSQL session repository
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a session row
func (r *SessionRepository) Create(ctx context.Context, session *repository.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.LastUpdatedAt.IsZero() {
		session.LastUpdatedAt = session.CreatedAt
	}

	query := `
		INSERT INTO chat_sessions (id, user_id, project_id, title, created_at, last_updated_at)
		VALUES (:id, :user_id, :project_id, :title, :created_at, :last_updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, session)
	return err
}

// ListWithMessages retrieves all of a user's sessions with their nested
// messages, most recently updated first. Message ordering is left to the
// caller.
func (r *SessionRepository) ListWithMessages(ctx context.Context, userID uuid.UUID) ([]*repository.Session, error) {
	var sessions []*repository.Session
	query := `
		SELECT id, user_id, project_id, title, created_at, last_updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY last_updated_at DESC
	`

	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]string, len(sessions))
	byID := make(map[string]*repository.Session, len(sessions))
	for i, session := range sessions {
		ids[i] = session.ID
		byID[session.ID] = session
	}

	msgQuery, args, err := sqlx.In(`
		SELECT id, session_id, content, sender, COALESCE(image_url, '') AS image_url, timestamp, is_streaming
		FROM chat_messages
		WHERE session_id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}

	var messages []repository.Message
	if err := r.db.SelectContext(ctx, &messages, r.db.Rebind(msgQuery), args...); err != nil {
		return nil, err
	}

	for _, msg := range messages {
		if session, ok := byID[msg.SessionID]; ok {
			session.Messages = append(session.Messages, msg)
		}
	}

	return sessions, nil
}

// Update applies a partial update to a session scoped by owner
func (r *SessionRepository) Update(ctx context.Context, userID uuid.UUID, id string, updates map[string]interface{}) error {
	setClause := ""
	params := map[string]interface{}{"id": id, "user_id": userID}

	for key, value := range updates {
		if setClause != "" {
			setClause += ", "
		}
		setClause += key + " = :" + key
		params[key] = value
	}
	if setClause == "" {
		return nil
	}

	query := "UPDATE chat_sessions SET " + setClause + " WHERE id = :id AND user_id = :user_id"
	_, err := r.db.NamedExecContext(ctx, query, params)
	return err
}

// Delete removes a session scoped by owner; messages cascade
func (r *SessionRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	query := "DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2"
	_, err := r.db.ExecContext(ctx, query, id, userID)
	return err
}
