// Package assistant implements the chat core: a per-user in-memory session
// store, the message send pipeline, and their write-optimistic persistence.
// Local state is authoritative; every remote write is best-effort and a
// failure is logged, never rolled back or retried.
package assistant

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/completion"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/repository"
)

// Service owns one Store per authenticated user. Stores are hydrated from
// the repository on first use after login and torn down on logout.
type Service struct {
	mu     sync.Mutex
	stores map[uuid.UUID]*Store

	sessions   repository.SessionRepository
	messages   repository.MessageRepository
	completion completion.Client
	log        *logrus.Logger
}

// NewService creates the assistant service.
func NewService(sessions repository.SessionRepository, messages repository.MessageRepository, client completion.Client, log *logrus.Logger) *Service {
	return &Service{
		stores:     make(map[uuid.UUID]*Store),
		sessions:   sessions,
		messages:   messages,
		completion: client,
		log:        log,
	}
}

// StoreFor returns the user's session store, hydrating it on first access.
// Every caller waits for that initial load: handing out the store before
// hydration finished would let a concurrent send materialize a session that
// the late hydrate result then wipes. A hydrate failure leaves the store
// empty; there is no retry.
func (s *Service) StoreFor(ctx context.Context, userID uuid.UUID) *Store {
	s.mu.Lock()
	store, ok := s.stores[userID]
	if !ok {
		store = newStore(userID)
		s.stores[userID] = store
	}
	s.mu.Unlock()

	store.hydrateOnce.Do(func() {
		s.hydrate(ctx, store)
	})
	return store
}

// Drop discards a user's store, typically on logout.
func (s *Service) Drop(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.stores, userID)
}

func (s *Service) hydrate(ctx context.Context, store *Store) {
	sessions, err := s.sessions.ListWithMessages(ctx, store.UserID())
	if err != nil {
		s.log.WithError(err).WithField("user_id", store.UserID()).
			Warn("failed to load chat history, starting empty")
		return
	}
	store.setSessions(sessions)
}

// DeleteChat removes a session locally and issues a best-effort remote
// delete scoped by session and owning user.
func (s *Service) DeleteChat(ctx context.Context, store *Store, sessionID string) bool {
	if !store.Delete(sessionID) {
		return false
	}
	if err := s.sessions.Delete(ctx, store.UserID(), sessionID); err != nil {
		s.log.WithError(err).WithField("session_id", sessionID).
			Warn("failed to delete chat session remotely")
	}
	return true
}
