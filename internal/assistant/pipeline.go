package assistant

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/completion"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/models"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/repository"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/streaming"
)

const (
	titleLimit    = 30
	titleTruncate = 27

	imageFallbackText  = "Analyze this image"
	imageFallbackTitle = "Image analysis"
	imagePromptText    = "Please analyze this image in detail."

	dispatchApology  = "Sorry, I encountered an error while processing your request. Please try again."
	midStreamApology = "Sorry, the response was interrupted. Please try again."
)

// SendRequest carries the user input of one send.
type SendRequest struct {
	Content   string `json:"content"`
	ProjectID string `json:"project_id"`
	ImageURL  string `json:"image"`
}

// Update is one incremental state of the assistant reply, pushed to the
// caller as the stream decodes. Content is the full accumulated transcript,
// not a delta.
type Update struct {
	SessionID string `json:"session_id"`
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
	Streaming bool   `json:"streaming"`
}

// Send drives one user message through to a completed assistant reply:
// lazy session materialization, optimistic user-message append, title
// derivation, assistant placeholder, completion dispatch and stream
// consumption. Each incremental transcript state is pushed to notify (which
// may be nil). Persistence failures never abort the flow; only a failed
// dispatch or a broken stream terminates it, and those degrade to an
// apology written into the placeholder.
//
// The target session id is captured once, up front, and threaded through
// every later step: switching the active chat mid-stream cannot redirect
// updates to the wrong session.
func (s *Service) Send(ctx context.Context, user *models.User, store *Store, req SendRequest, notify func(Update)) {
	if req.Content == "" && req.ImageURL == "" {
		return
	}

	targetID := store.ActiveID()
	if targetID == TempSessionID || targetID == "" {
		if user == nil {
			return
		}
		targetID = s.materializeSession(ctx, store, req.ProjectID)
	}

	log := s.log.WithFields(logrus.Fields{
		"user_id":    store.UserID(),
		"session_id": targetID,
	})

	// Optimistic user message, visible before any network round trip.
	text := req.Content
	if text == "" {
		text = imageFallbackText
	}
	userMsg := repository.Message{
		ID:        uuid.New().String(),
		SessionID: targetID,
		Content:   text,
		Sender:    repository.SenderUser,
		ImageURL:  req.ImageURL,
		Timestamp: time.Now(),
	}
	store.appendMessage(targetID, userMsg)
	if err := s.messages.Create(ctx, userMsg); err != nil {
		log.WithError(err).Warn("failed to persist user message")
	}

	// First real exchange names the session.
	if store.messageCount(targetID) <= 2 {
		title := deriveTitle(req.Content)
		store.setTitle(targetID, title)
		if err := s.sessions.Update(ctx, store.UserID(), targetID, map[string]interface{}{"title": title}); err != nil {
			log.WithError(err).Warn("failed to persist session title")
		}
	}

	placeholder := repository.Message{
		ID:          uuid.New().String(),
		SessionID:   targetID,
		Sender:      repository.SenderAI,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
	store.appendMessage(targetID, placeholder)
	if err := s.messages.Create(ctx, placeholder); err != nil {
		log.WithError(err).Warn("failed to persist assistant placeholder")
	}

	body, err := s.completion.Stream(ctx, buildRequest(user, store.UserID(), targetID, req))
	if err != nil {
		log.WithError(err).Error("completion dispatch failed")
		s.finalize(ctx, store, targetID, placeholder.ID, dispatchApology, notify)
		return
	}
	defer body.Close()

	transcript, err := streaming.Consume(body, func(transcript string, final bool) {
		if final {
			return // finalization handled below, exactly once
		}
		if store.updateMessage(targetID, placeholder.ID, transcript, true) && notify != nil {
			notify(Update{
				SessionID: targetID,
				MessageID: placeholder.ID,
				Content:   transcript,
				Streaming: true,
			})
		}
	})
	if err != nil {
		log.WithError(err).Error("completion stream broke mid-response")
		if transcript == "" {
			transcript = midStreamApology
		}
	}

	s.finalize(ctx, store, targetID, placeholder.ID, transcript, notify)
}

// finalize writes the terminal content update locally and remotely, and
// bumps the session's remote timestamp.
func (s *Service) finalize(ctx context.Context, store *Store, sessionID, messageID, content string, notify func(Update)) {
	store.updateMessage(sessionID, messageID, content, false)
	if notify != nil {
		notify(Update{
			SessionID: sessionID,
			MessageID: messageID,
			Content:   content,
			Streaming: false,
		})
	}

	if err := s.messages.Update(ctx, sessionID, messageID, content, false); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).
			Warn("failed to persist final assistant message")
	}
	if err := s.sessions.Update(ctx, store.UserID(), sessionID, map[string]interface{}{"last_updated_at": time.Now()}); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).
			Warn("failed to bump session timestamp")
	}
}

// materializeSession creates the real session for the sentinel slot and
// persists the row and its greeting, best-effort.
func (s *Service) materializeSession(ctx context.Context, store *Store, requestedProject string) string {
	id := uuid.New().String()
	session := store.materialize(id, store.pendingProjectFor(requestedProject), time.Now())

	if err := s.sessions.Create(ctx, session); err != nil {
		s.log.WithError(err).WithField("session_id", id).
			Warn("failed to persist new chat session")
	}
	if err := s.messages.Create(ctx, session.Messages[0]); err != nil {
		s.log.WithError(err).WithField("session_id", id).
			Warn("failed to persist greeting message")
	}
	return id
}

// deriveTitle names a session after its first user message: the text
// unchanged up to 30 characters, else the first 27 followed by "...".
// Image-only sends fall back to a fixed title.
func deriveTitle(text string) string {
	if text == "" {
		return imageFallbackTitle
	}
	runes := []rune(text)
	if len(runes) <= titleLimit {
		return text
	}
	return string(runes[:titleTruncate]) + "..."
}

// buildRequest assembles the completion request: a single user message with
// a text part and, when an image is attached, an image-url part.
func buildRequest(user *models.User, userID uuid.UUID, sessionID string, req SendRequest) completion.Request {
	text := req.Content
	if text == "" {
		text = imagePromptText
	}

	parts := []completion.ContentPart{{Type: completion.PartTypeText, Text: text}}
	if req.ImageURL != "" {
		parts = append(parts, completion.ContentPart{
			Type:     completion.PartTypeImageURL,
			ImageURL: &completion.ImageURL{URL: req.ImageURL},
		})
	}

	userPayload := map[string]interface{}{"id": "guest", "name": "Guest"}
	if user != nil {
		userPayload = map[string]interface{}{
			"id":    user.ID.String(),
			"email": user.Email,
			"name":  user.FullName,
		}
	}

	return completion.Request{
		Messages:  []completion.RequestMessage{{Role: "user", Content: parts}},
		User:      userPayload,
		Stream:    true,
		ProjectID: req.ProjectID,
		ChatID:    sessionID,
		UserID:    userID.String(),
	}
}
