package app

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sketchparty/internal/domain"
)

// fakeClient records every event delivered to it
type fakeClient struct {
	playerID string
	mu       sync.Mutex
	events   []*domain.Event
}

func (c *fakeClient) Send(message interface{}) error {
	if event, ok := message.(*domain.Event); ok {
		c.mu.Lock()
		c.events = append(c.events, event)
		c.mu.Unlock()
	}
	return nil
}

func (c *fakeClient) GetPlayerID() string { return c.playerID }
func (c *fakeClient) Close() error        { return nil }

func (c *fakeClient) eventsOfType(t domain.EventType) []*domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []*domain.Event
	for _, e := range c.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// testSession builds a session with the named players seated. Timers are
// stretched so nothing fires unless a test shortens them on purpose.
func testSession(t *testing.T, maxRounds int, names ...string) (*RoomSession, []*domain.Player) {
	t.Helper()
	require.NotEmpty(t, names)

	settings := domain.GameSettings{MaxPlayers: 8, MaxRounds: maxRounds, TurnDuration: 90}
	room := domain.NewRoom(uuid.New().String(), "test room", "ABC234", settings, GameWords)
	session := NewRoomSession(room, domain.DefaultScoringRules(), testLogger())
	session.transitionDelay = time.Hour
	session.guessGrace = time.Hour

	players := make([]*domain.Player, 0, len(names))

	host, err := session.addHost(names[0])
	require.NoError(t, err)
	players = append(players, host)

	for _, name := range names[1:] {
		p, err := session.Join(name)
		require.NoError(t, err)
		players = append(players, p)
	}

	return session, players
}

// currentTurn reads the live turn sequence and word under the session lock
func currentTurn(s *RoomSession) (seq int, word, drawerID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turnSeq, s.room.CurrentWord, s.room.CurrentDrawerID
}

func historyLen(s *RoomSession) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.room.History)
}

func TestStartGameRequiresHost(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	err := session.StartGame(players[1].ID)
	assert.ErrorIs(t, err, domain.ErrNotHost)
	assert.Equal(t, domain.StatusWaiting, session.Status())
}

func TestStartGameRequiresTwoPlayers(t *testing.T) {
	session, players := testSession(t, 3, "alice")
	defer session.Close()

	err := session.StartGame(players[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotEnoughPlayers)
}

func TestStartGameBeginsFirstTurn(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))

	assert.Equal(t, domain.StatusPlaying, session.Status())
	seq, word, drawerID := currentTurn(session)
	assert.Equal(t, 1, seq)
	assert.NotEmpty(t, word)
	assert.Equal(t, players[0].ID, drawerID)
}

func TestEndTurnIsIdempotent(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))
	seq, _, _ := currentTurn(session)

	// Two competing triggers for the same turn record exactly one result
	session.endTurnForSeq(seq, domain.CauseTimeUp)
	session.endTurnForSeq(seq, domain.CauseAllGuessed)

	assert.Equal(t, 1, historyLen(session))
	assert.Equal(t, domain.StatusTurnTransition, session.Status())

	session.mu.RLock()
	result := session.room.History[0]
	session.mu.RUnlock()
	assert.False(t, result.AllGuessed)
}

func TestStaleSeqTriggerIsIgnored(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))
	seq, _, _ := currentTurn(session)

	session.endTurnForSeq(seq+1, domain.CauseTimeUp)

	assert.Equal(t, 0, historyLen(session))
	assert.Equal(t, domain.StatusPlaying, session.Status())
}

func TestScoringFlow(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob", "carol")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))
	_, word, drawerID := currentTurn(session)
	require.Equal(t, players[0].ID, drawerID)

	// First correct guess right after turn start: 10 base + 5 time + 3 first
	require.NoError(t, session.SendChat(players[1].ID, word))
	assert.Equal(t, 18, players[1].Score)
	assert.Equal(t, 2, players[0].Score)

	// Second guesser loses the first-guess bonus: 10 + 5
	require.NoError(t, session.SendChat(players[2].ID, word))
	assert.Equal(t, 15, players[2].Score)
	assert.Equal(t, 4, players[0].Score)
}

func TestRepeatedCorrectGuessCountsOnce(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob", "carol")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))
	_, word, _ := currentTurn(session)

	require.NoError(t, session.SendChat(players[1].ID, word))
	scoreAfterFirst := players[1].Score
	require.NoError(t, session.SendChat(players[1].ID, word))

	assert.Equal(t, scoreAfterFirst, players[1].Score)

	session.mu.RLock()
	guesses := len(session.turnGuesses)
	session.mu.RUnlock()
	assert.Equal(t, 1, guesses)
}

func TestAllGuessedEndsTurn(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob", "carol", "dave")
	defer session.Close()
	session.guessGrace = 5 * time.Millisecond

	require.NoError(t, session.StartGame(players[0].ID))
	_, word, _ := currentTurn(session)

	require.NoError(t, session.SendChat(players[1].ID, word))
	require.NoError(t, session.SendChat(players[2].ID, word))

	// Two of three guessers are not enough
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, domain.StatusPlaying, session.Status())

	require.NoError(t, session.SendChat(players[3].ID, word))

	require.Eventually(t, func() bool {
		return session.Status() == domain.StatusTurnTransition
	}, time.Second, 5*time.Millisecond)

	session.mu.RLock()
	result := session.room.History[0]
	session.mu.RUnlock()
	assert.True(t, result.AllGuessed)
	assert.Len(t, result.CorrectGuesses, 3)
}

func TestSkipTurnDrawerOnly(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))

	err := session.SkipTurn(players[1].ID)
	assert.ErrorIs(t, err, domain.ErrNotCurrentDrawer)
	assert.Equal(t, domain.StatusPlaying, session.Status())

	require.NoError(t, session.SkipTurn(players[0].ID))
	assert.Equal(t, domain.StatusTurnTransition, session.Status())
	assert.Equal(t, 1, historyLen(session))
}

func TestSkipTurnOutsidePlaying(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	err := session.SkipTurn(players[0].ID)
	assert.ErrorIs(t, err, domain.ErrInvalidRoomState)
}

func TestDrawerLeavingEndsTurn(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob", "carol")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))
	_, word, drawerID := currentTurn(session)

	empty := session.Leave(drawerID)
	assert.False(t, empty)

	assert.Equal(t, domain.StatusTurnTransition, session.Status())
	require.Equal(t, 1, historyLen(session))

	session.mu.RLock()
	result := session.room.History[0]
	hostID := session.room.HostID
	session.mu.RUnlock()
	assert.Equal(t, word, result.Word)
	assert.Equal(t, players[0].ID, result.DrawerID)

	// Host status moved to the next player in join order
	assert.Equal(t, players[1].ID, hostID)
}

func TestLastPlayerLeavingReportsEmpty(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	assert.False(t, session.Leave(players[0].ID))
	assert.True(t, session.Leave(players[1].ID))
}

func TestCountdownTimeUp(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))
	seq, _, _ := currentTurn(session)

	session.mu.Lock()
	session.room.TimeLeft = 1
	session.mu.Unlock()

	assert.False(t, session.countdownTick(seq))

	assert.Equal(t, domain.StatusTurnTransition, session.Status())
	require.Equal(t, 1, historyLen(session))

	session.mu.RLock()
	timeLeft := session.room.TimeLeft
	session.mu.RUnlock()
	assert.Equal(t, 0, timeLeft)
}

func TestCountdownIgnoresStaleSeq(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))
	seq, _, _ := currentTurn(session)

	session.mu.Lock()
	before := session.room.TimeLeft
	session.mu.Unlock()

	assert.False(t, session.countdownTick(seq+1))

	session.mu.RLock()
	after := session.room.TimeLeft
	session.mu.RUnlock()
	assert.Equal(t, before, after)
}

func TestGameFinishesAfterMaxRounds(t *testing.T) {
	session, players := testSession(t, 1, "alice", "bob")
	defer session.Close()
	session.transitionDelay = 5 * time.Millisecond

	require.NoError(t, session.StartGame(players[0].ID))

	// Turn one ends, the transition elapses and turn two starts
	seq, _, _ := currentTurn(session)
	session.endTurnForSeq(seq, domain.CauseTimeUp)

	require.Eventually(t, func() bool {
		s, _, _ := currentTurn(session)
		return s == seq+1 && session.Status() == domain.StatusPlaying
	}, time.Second, 5*time.Millisecond)

	_, _, drawerID := currentTurn(session)
	assert.Equal(t, players[1].ID, drawerID)

	// Turn two was the last of the only round: the game finishes directly
	session.endTurnForSeq(seq+1, domain.CauseTimeUp)
	assert.Equal(t, domain.StatusFinished, session.Status())
	assert.Equal(t, 2, historyLen(session))
}

func TestTurnStartedWordGoesToDrawerOnly(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	drawer := &fakeClient{playerID: players[0].ID}
	guesser := &fakeClient{playerID: players[1].ID}
	session.RegisterClient(drawer.playerID, drawer)
	session.RegisterClient(guesser.playerID, guesser)

	require.NoError(t, session.StartGame(players[0].ID))
	_, word, _ := currentTurn(session)

	require.Eventually(t, func() bool {
		return len(drawer.eventsOfType(domain.EventTurnStarted)) > 0 &&
			len(guesser.eventsOfType(domain.EventTurnStarted)) > 0
	}, time.Second, 5*time.Millisecond)

	drawerPayload := drawer.eventsOfType(domain.EventTurnStarted)[0].Payload.(*domain.TurnStartedPayload)
	assert.Equal(t, word, drawerPayload.Word)

	guesserPayload := guesser.eventsOfType(domain.EventTurnStarted)[0].Payload.(*domain.TurnStartedPayload)
	assert.Empty(t, guesserPayload.Word)
}

func TestCorrectGuessTextStaysPrivate(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob", "carol")
	defer session.Close()

	guesser := &fakeClient{playerID: players[1].ID}
	bystander := &fakeClient{playerID: players[2].ID}
	session.RegisterClient(guesser.playerID, guesser)
	session.RegisterClient(bystander.playerID, bystander)

	require.NoError(t, session.StartGame(players[0].ID))
	_, word, _ := currentTurn(session)

	require.NoError(t, session.SendChat(players[1].ID, word))

	// The guesser sees their own text echoed back
	require.Eventually(t, func() bool {
		for _, e := range guesser.eventsOfType(domain.EventChatMessage) {
			if msg, ok := e.Payload.(*domain.ChatMessage); ok && msg.Text == word {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)

	// The bystander sees the announcement but never the word itself
	require.Eventually(t, func() bool {
		return len(bystander.eventsOfType(domain.EventChatMessage)) > 0
	}, time.Second, 5*time.Millisecond)

	for _, e := range bystander.eventsOfType(domain.EventChatMessage) {
		msg, ok := e.Payload.(*domain.ChatMessage)
		require.True(t, ok)
		assert.NotEqual(t, word, msg.Text)
	}
}

func TestDrawingRelayDropsNonDrawer(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	drawer := &fakeClient{playerID: players[0].ID}
	guesser := &fakeClient{playerID: players[1].ID}
	session.RegisterClient(drawer.playerID, drawer)
	session.RegisterClient(guesser.playerID, guesser)

	require.NoError(t, session.StartGame(players[0].ID))

	session.RelayDrawing(players[1].ID, map[string]interface{}{"x": 1})
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, drawer.eventsOfType(domain.EventDrawingUpdate))

	session.RelayDrawing(players[0].ID, map[string]interface{}{"x": 1})
	require.Eventually(t, func() bool {
		return len(guesser.eventsOfType(domain.EventDrawingUpdate)) == 1
	}, time.Second, 5*time.Millisecond)

	// The stroke is never echoed back to its author
	assert.Empty(t, drawer.eventsOfType(domain.EventDrawingUpdate))
}

func TestSendChatValidation(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	err := session.SendChat(players[0].ID, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	err = session.SendChat("nobody", "hello")
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
}

func TestChatBeforeGameIsNeverAGuess(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob")
	defer session.Close()

	require.NoError(t, session.SendChat(players[1].ID, "banana"))

	messages := session.MessagesSnapshot(players[1].ID)
	last := messages[len(messages)-1]
	assert.Equal(t, domain.KindChat, last.Kind)
	assert.Equal(t, 0, players[1].Score)
}

func TestHistoryReplayHidesOthersCorrectGuesses(t *testing.T) {
	session, players := testSession(t, 3, "alice", "bob", "carol")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))
	_, word, _ := currentTurn(session)
	require.NoError(t, session.SendChat(players[1].ID, word))

	// A player who has not guessed never sees the word through replay
	for _, msg := range session.MessagesSnapshot(players[2].ID) {
		assert.NotEqual(t, word, msg.Text)
	}

	// The author still sees their own guess
	found := false
	for _, msg := range session.MessagesSnapshot(players[1].ID) {
		if msg.Kind == domain.KindCorrectGuess && msg.Text == word {
			found = true
		}
	}
	assert.True(t, found)
}

func TestWordsDoNotRepeatWithinPool(t *testing.T) {
	session, players := testSession(t, 10, "alice", "bob")
	defer session.Close()

	require.NoError(t, session.StartGame(players[0].ID))

	seen := make(map[string]int)
	for i := 0; i < 10; i++ {
		seq, word, _ := currentTurn(session)
		seen[word]++
		session.endTurnForSeq(seq, domain.CauseTimeUp)

		session.mu.Lock()
		session.stopTransitionLocked()
		session.startTurnLocked()
		session.mu.Unlock()
	}

	for word, count := range seen {
		assert.Equal(t, 1, count, fmt.Sprintf("word %q repeated before pool exhaustion", word))
	}
}
