package assistant

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/repository"
)

const (
	// TempSessionID is the sentinel pointer value for a conversation slot
	// that has not been persisted yet. The real session row is created
	// lazily on the first send.
	TempSessionID = "temp"

	// GreetingMessageID is the id of the synthetic greeting that opens
	// every session. It is unique within a session only.
	GreetingMessageID = "0"

	// DefaultTitle is the title of a session before the first user
	// message names it.
	DefaultTitle = "New Chat"
)

const greetingText = "Hello! I'm your MatrixTwin assistant. Ask me anything about your projects, RFIs, diaries or site data."

// greetingMessage builds the synthetic first message of a session.
func greetingMessage(sessionID string, ts time.Time) repository.Message {
	return repository.Message{
		ID:        GreetingMessageID,
		SessionID: sessionID,
		Content:   greetingText,
		Sender:    repository.SenderAI,
		Timestamp: ts,
	}
}

// Store holds one user's chat sessions in memory, most recently updated
// first, together with the active-session pointer. It is the in-memory
// authority: remote persistence is write-optimistic and never rolls local
// state back.
type Store struct {
	// hydrateOnce gates first-access hydration: nobody gets the store
	// before the initial load finished, so a hydrate result can never
	// clobber sessions materialized in the meantime.
	hydrateOnce sync.Once

	mu             sync.Mutex
	userID         uuid.UUID
	sessions       []*repository.Session
	activeID       string
	pendingProject string
}

func newStore(userID uuid.UUID) *Store {
	return &Store{
		userID:   userID,
		activeID: TempSessionID,
	}
}

// UserID returns the owning user.
func (s *Store) UserID() uuid.UUID {
	return s.userID
}

// setSessions replaces the store contents with a hydrate result. Remote
// ordering of nested messages is not trusted; each session's messages are
// re-sorted ascending by timestamp.
func (s *Store) setSessions(sessions []*repository.Session) {
	for _, session := range sessions {
		msgs := session.Messages
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
}

// Sessions returns a snapshot of all stored sessions in store order.
func (s *Store) Sessions() []*repository.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*repository.Session, len(s.sessions))
	for i, session := range s.sessions {
		out[i] = snapshotSession(session)
	}
	return out
}

// ActiveID returns the current session pointer.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Current resolves the active session. When the pointer is the sentinel or
// unset, a throwaway temp session is synthesized without being inserted into
// the store. A stale pointer falls back to the first stored session if one
// exists.
func (s *Store) Current() *repository.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session := s.find(s.activeID); session != nil {
		return snapshotSession(session)
	}

	if s.activeID == TempSessionID || s.activeID == "" {
		return s.synthesizeTemp()
	}

	if len(s.sessions) > 0 {
		return snapshotSession(s.sessions[0])
	}
	return s.synthesizeTemp()
}

func (s *Store) synthesizeTemp() *repository.Session {
	now := time.Now()
	return &repository.Session{
		ID:            TempSessionID,
		UserID:        s.userID,
		ProjectID:     s.pendingProject,
		Title:         DefaultTitle,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Messages:      []repository.Message{greetingMessage(TempSessionID, now)},
	}
}

// StartNewChat points at the sentinel and records the project the next send
// should scope its session to. No session row is created yet.
func (s *Store) StartNewChat(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingProject = projectID
	s.activeID = TempSessionID
}

// SwitchToChat moves the pointer to an existing session or to the sentinel.
// An unknown id is a no-op.
func (s *Store) SwitchToChat(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == TempSessionID || s.find(id) != nil {
		s.activeID = id
	}
}

// Delete removes a session from the store. When the deleted session was
// current, the pointer moves to another session of the same project if one
// exists, else to the first remaining session, else to a fresh chat scoped
// to the deleted session's project. Returns false when the id is unknown.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, session := range s.sessions {
		if session.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	deleted := s.sessions[idx]
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if s.activeID != id {
		return true
	}

	for _, session := range s.sessions {
		if session.ProjectID == deleted.ProjectID {
			s.activeID = session.ID
			return true
		}
	}
	if len(s.sessions) > 0 {
		s.activeID = s.sessions[0].ID
		return true
	}
	s.pendingProject = deleted.ProjectID
	s.activeID = TempSessionID
	return true
}

// ProjectChats returns the stored sessions scoped to a project, in store
// order.
func (s *Store) ProjectChats(projectID string) []*repository.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*repository.Session
	for _, session := range s.sessions {
		if session.ProjectID == projectID {
			out = append(out, snapshotSession(session))
		}
	}
	return out
}

// materialize creates a real session for the sentinel slot: greeting only,
// inserted at the front, pointer repointed. Returns a snapshot for remote
// persistence.
func (s *Store) materialize(id, projectID string, now time.Time) *repository.Session {
	session := &repository.Session{
		ID:            id,
		UserID:        s.userID,
		ProjectID:     projectID,
		Title:         DefaultTitle,
		CreatedAt:     now,
		LastUpdatedAt: now,
		Messages:      []repository.Message{greetingMessage(id, now)},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append([]*repository.Session{session}, s.sessions...)
	s.activeID = id
	return snapshotSession(session)
}

// pendingProjectFor picks the project for a lazily materialized session: the
// explicit request value wins over the value recorded by StartNewChat.
func (s *Store) pendingProjectFor(requested string) string {
	if requested != "" {
		return requested
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingProject
}

// appendMessage appends to a session located by id and refreshes its
// LastUpdatedAt. Returns false when the session is gone.
func (s *Store) appendMessage(sessionID string, msg repository.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.find(sessionID)
	if session == nil {
		return false
	}
	session.Messages = append(session.Messages, msg)
	session.LastUpdatedAt = msg.Timestamp
	return true
}

// messageCount returns the number of messages in a session, or 0 when it is
// gone.
func (s *Store) messageCount(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session := s.find(sessionID); session != nil {
		return len(session.Messages)
	}
	return 0
}

// setTitle sets a session title.
func (s *Store) setTitle(sessionID, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.find(sessionID)
	if session == nil {
		return false
	}
	session.Title = title
	return true
}

// updateMessage overwrites a message's content in place. The session is
// located strictly by the id captured at send time, so updates land on the
// right session even after the pointer moved. The streaming flag only ever
// transitions true to false: once a message finalized, a late update cannot
// resurrect it. Finalization refreshes the session's LastUpdatedAt.
func (s *Store) updateMessage(sessionID, messageID, content string, streaming bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.find(sessionID)
	if session == nil {
		return false
	}

	for i := range session.Messages {
		if session.Messages[i].ID != messageID {
			continue
		}
		if !session.Messages[i].IsStreaming && streaming {
			return false
		}
		session.Messages[i].Content = content
		if session.Messages[i].IsStreaming && !streaming {
			session.Messages[i].IsStreaming = false
			session.LastUpdatedAt = time.Now()
		}
		return true
	}
	return false
}

// find must be called with the lock held.
func (s *Store) find(id string) *repository.Session {
	for _, session := range s.sessions {
		if session.ID == id {
			return session
		}
	}
	return nil
}

func snapshotSession(session *repository.Session) *repository.Session {
	copied := *session
	copied.Messages = append([]repository.Message(nil), session.Messages...)
	return &copied
}
