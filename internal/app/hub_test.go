package app

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchparty/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHub() *RoomHub {
	return NewRoomHub(domain.DefaultGameSettings(), testLogger())
}

func TestCreateRoomCodesAreUnique(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	codes := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, host := hub.CreateRoom("host", "room", domain.GameSettings{})
		require.NotNil(t, host)
		code := session.RoomCode()
		assert.Len(t, code, DefaultRoomCodeLength)
		assert.False(t, codes[code], "join code %q issued twice", code)
		codes[code] = true
	}
}

func TestCreateRoomAppliesDefaults(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, host := hub.CreateRoom("alice", "alice's room", domain.GameSettings{MaxRounds: 5})

	snapshot := session.Snapshot()
	assert.Equal(t, 5, snapshot.MaxRounds)
	assert.Equal(t, domain.DefaultGameSettings().MaxPlayers, snapshot.MaxPlayers)
	assert.Equal(t, domain.DefaultGameSettings().TurnDuration, snapshot.TurnDuration)
	assert.True(t, host.IsHost)
	assert.Equal(t, host.ID, snapshot.HostID)
}

func TestFindByCodeAndByID(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, _ := hub.CreateRoom("alice", "room", domain.GameSettings{})

	found, err := hub.FindByCode(session.RoomCode())
	require.NoError(t, err)
	assert.Equal(t, session, found)

	found, err = hub.FindByID(session.RoomID())
	require.NoError(t, err)
	assert.Equal(t, session, found)

	_, err = hub.FindByCode("NOSUCH")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = hub.FindByID("nosuch")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestSessionBindings(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, host := hub.CreateRoom("alice", "room", domain.GameSettings{})
	hub.BindSession("sess-1", session.RoomID(), host.ID)

	resolved, playerID, err := hub.ResolveSession("sess-1")
	require.NoError(t, err)
	assert.Equal(t, session, resolved)
	assert.Equal(t, host.ID, playerID)

	hub.UnbindSession("sess-1")
	_, _, err = hub.ResolveSession("sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLeaveLastPlayerDeletesRoom(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, host := hub.CreateRoom("alice", "room", domain.GameSettings{})
	code := session.RoomCode()
	hub.BindSession("sess-1", session.RoomID(), host.ID)

	hub.Leave("sess-1")

	_, err := hub.FindByCode(code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = hub.FindByID(session.RoomID())
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, 0, hub.RoomCount())
}

func TestLeaveKeepsPopulatedRoom(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, host := hub.CreateRoom("alice", "room", domain.GameSettings{})
	bob, err := session.Join("bob")
	require.NoError(t, err)

	hub.BindSession("sess-1", session.RoomID(), host.ID)
	hub.BindSession("sess-2", session.RoomID(), bob.ID)

	hub.Leave("sess-1")

	found, err := hub.FindByCode(session.RoomCode())
	require.NoError(t, err)
	assert.Equal(t, 1, found.PlayerCount())
	assert.Equal(t, bob.ID, found.Snapshot().HostID)
}

func TestDeleteRemovesBindings(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, host := hub.CreateRoom("alice", "room", domain.GameSettings{})
	hub.BindSession("sess-1", session.RoomID(), host.ID)

	hub.Delete(session.RoomID())

	_, _, err := hub.ResolveSession("sess-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSweepReclaimsAbandonedRooms(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	// A creator who never opens a websocket leaves a room with one seated
	// player and zero connections; the sweep must still reclaim it
	abandoned, _ := hub.CreateRoom("alice", "abandoned", domain.GameSettings{})
	active, activeHost := hub.CreateRoom("bob", "active", domain.GameSettings{})
	active.RegisterClient(activeHost.ID, &fakeClient{playerID: activeHost.ID})

	abandoned.room.CreatedAt = time.Now().Add(-3 * time.Hour)
	active.room.CreatedAt = time.Now().Add(-3 * time.Hour)

	hub.cleanupStaleRooms()

	_, err := hub.FindByCode(abandoned.RoomCode())
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = hub.FindByCode(active.RoomCode())
	assert.NoError(t, err)
	assert.Equal(t, 1, hub.RoomCount())
}

func TestSweepSparesRecentRooms(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, _ := hub.CreateRoom("alice", "room", domain.GameSettings{})

	hub.cleanupStaleRooms()

	_, err := hub.FindByCode(session.RoomCode())
	assert.NoError(t, err)
}

func TestHostConnectsOnAttach(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, host := hub.CreateRoom("alice", "room", domain.GameSettings{})
	assert.False(t, host.Connected)

	_, err := session.Reconnect(host.ID)
	require.NoError(t, err)
	assert.True(t, host.Connected)
}

func TestDeleteNotifiesClients(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	session, host := hub.CreateRoom("alice", "room", domain.GameSettings{})
	client := &fakeClient{playerID: host.ID}
	session.RegisterClient(host.ID, client)

	hub.Delete(session.RoomID())

	assert.Len(t, client.eventsOfType(domain.EventRoomDeleted), 1)
}

func TestPlayerCounts(t *testing.T) {
	hub := testHub()
	defer hub.Close()

	s1, _ := hub.CreateRoom("alice", "one", domain.GameSettings{})
	s2, _ := hub.CreateRoom("bob", "two", domain.GameSettings{})
	_, err := s1.Join("carol")
	require.NoError(t, err)
	_ = s2

	assert.Equal(t, 2, hub.RoomCount())
	assert.Equal(t, 3, hub.TotalPlayerCount())
}
