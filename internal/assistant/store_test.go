package assistant

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/repository"
)

func testSession(id, projectID string, updated time.Time) *repository.Session {
	return &repository.Session{
		ID:            id,
		ProjectID:     projectID,
		Title:         DefaultTitle,
		CreatedAt:     updated,
		LastUpdatedAt: updated,
		Messages:      []repository.Message{greetingMessage(id, updated)},
	}
}

func TestStore_CurrentSynthesizesTempSession(t *testing.T) {
	store := newStore(uuid.New())
	store.StartNewChat("P1")

	current := store.Current()
	assert.Equal(t, TempSessionID, current.ID)
	assert.Equal(t, DefaultTitle, current.Title)
	assert.Equal(t, "P1", current.ProjectID)
	require.Len(t, current.Messages, 1)
	assert.Equal(t, GreetingMessageID, current.Messages[0].ID)
	assert.Equal(t, repository.SenderAI, current.Messages[0].Sender)

	// The synthesized session is never inserted into the store.
	assert.Empty(t, store.Sessions())
}

func TestStore_SwitchToChat(t *testing.T) {
	store := newStore(uuid.New())
	store.setSessions([]*repository.Session{
		testSession("a", "P1", time.Now()),
		testSession("b", "P1", time.Now()),
	})

	store.SwitchToChat("b")
	assert.Equal(t, "b", store.Current().ID)

	// Unknown ids are a no-op.
	store.SwitchToChat("nope")
	assert.Equal(t, "b", store.Current().ID)

	// The temp session is only reachable under the sentinel id.
	store.SwitchToChat(TempSessionID)
	assert.Equal(t, TempSessionID, store.Current().ID)
}

func TestStore_CurrentFallsBackToFirstStored(t *testing.T) {
	store := newStore(uuid.New())
	store.setSessions([]*repository.Session{
		testSession("a", "P1", time.Now()),
		testSession("b", "P2", time.Now()),
	})
	store.activeID = "gone" // e.g. after a failed hydrate

	assert.Equal(t, "a", store.Current().ID)
}

func TestStore_DeleteRepointsToSameProject(t *testing.T) {
	store := newStore(uuid.New())
	store.setSessions([]*repository.Session{
		testSession("a", "P1", time.Now()),
		testSession("b", "P1", time.Now()),
		testSession("c", "P2", time.Now()),
	})
	store.SwitchToChat("a")

	require.True(t, store.Delete("a"))

	assert.Equal(t, "b", store.Current().ID)
	sessions := store.Sessions()
	require.Len(t, sessions, 2)
	assert.Equal(t, "b", sessions[0].ID)
	assert.Equal(t, "c", sessions[1].ID)
}

func TestStore_DeleteFallsBackToFirstRemaining(t *testing.T) {
	store := newStore(uuid.New())
	store.setSessions([]*repository.Session{
		testSession("a", "P1", time.Now()),
		testSession("c", "P2", time.Now()),
	})
	store.SwitchToChat("a")

	require.True(t, store.Delete("a"))
	assert.Equal(t, "c", store.Current().ID)
}

func TestStore_DeleteLastStartsNewChatInProject(t *testing.T) {
	store := newStore(uuid.New())
	store.setSessions([]*repository.Session{testSession("a", "P1", time.Now())})
	store.SwitchToChat("a")

	require.True(t, store.Delete("a"))

	current := store.Current()
	assert.Equal(t, TempSessionID, current.ID)
	assert.Equal(t, "P1", current.ProjectID)
}

func TestStore_DeleteNonCurrentKeepsPointer(t *testing.T) {
	store := newStore(uuid.New())
	store.setSessions([]*repository.Session{
		testSession("a", "P1", time.Now()),
		testSession("b", "P1", time.Now()),
	})
	store.SwitchToChat("a")

	require.True(t, store.Delete("b"))
	assert.Equal(t, "a", store.Current().ID)
}

func TestStore_DeleteUnknown(t *testing.T) {
	store := newStore(uuid.New())
	assert.False(t, store.Delete("nope"))
}

func TestStore_ProjectChats(t *testing.T) {
	store := newStore(uuid.New())
	store.setSessions([]*repository.Session{
		testSession("a", "P1", time.Now()),
		testSession("b", "P2", time.Now()),
		testSession("c", "P1", time.Now()),
	})

	chats := store.ProjectChats("P1")
	require.Len(t, chats, 2)
	assert.Equal(t, "a", chats[0].ID)
	assert.Equal(t, "c", chats[1].ID)

	assert.Empty(t, store.ProjectChats("P9"))
}

func TestStore_SetSessionsSortsMessages(t *testing.T) {
	base := time.Now()
	session := &repository.Session{
		ID: "a",
		Messages: []repository.Message{
			{ID: "2", Timestamp: base.Add(2 * time.Second)},
			{ID: "0", Timestamp: base},
			{ID: "1", Timestamp: base.Add(time.Second)},
		},
	}

	store := newStore(uuid.New())
	store.setSessions([]*repository.Session{session})

	msgs := store.Sessions()[0].Messages
	assert.Equal(t, []string{"0", "1", "2"}, []string{msgs[0].ID, msgs[1].ID, msgs[2].ID})
}

func TestStore_UpdateMessageTerminalStreamingFlag(t *testing.T) {
	store := newStore(uuid.New())
	session := testSession("a", "", time.Now())
	session.Messages = append(session.Messages, repository.Message{
		ID: "m1", SessionID: "a", Sender: repository.SenderAI, IsStreaming: true,
	})
	store.setSessions([]*repository.Session{session})

	assert.True(t, store.updateMessage("a", "m1", "partial", true))
	assert.True(t, store.updateMessage("a", "m1", "final", false))

	// Once finalized the flag never goes back to streaming.
	assert.False(t, store.updateMessage("a", "m1", "late", true))

	msgs := store.Sessions()[0].Messages
	assert.Equal(t, "final", msgs[1].Content)
	assert.False(t, msgs[1].IsStreaming)
}

func TestStore_UpdateMessageTargetsCapturedSession(t *testing.T) {
	store := newStore(uuid.New())
	a := testSession("a", "", time.Now())
	a.Messages = append(a.Messages, repository.Message{ID: "m1", SessionID: "a", IsStreaming: true})
	b := testSession("b", "", time.Now())
	store.setSessions([]*repository.Session{a, b})
	store.SwitchToChat("a")

	// The user switches away mid-stream; updates keyed by the captured id
	// still land on session a.
	store.SwitchToChat("b")
	assert.True(t, store.updateMessage("a", "m1", "streamed text", true))

	assert.Equal(t, "streamed text", store.Sessions()[0].Messages[1].Content)
	require.Len(t, store.Sessions()[1].Messages, 1)
}
