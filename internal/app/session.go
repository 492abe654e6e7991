package app

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sketchparty/internal/domain"
)

const (
	// TurnTransitionDelay is the pause between turns shown to clients
	TurnTransitionDelay = 3 * time.Second

	// AllGuessedGrace lets the final announcement render before the turn ends
	AllGuessedGrace = 1 * time.Second
)

// ClientConnection represents a connected client
type ClientConnection interface {
	Send(message interface{}) error
	GetPlayerID() string
	Close() error
}

// RoomSession wraps a room with concurrency control, client management and
// the per-room turn scheduler. All mutations of the room aggregate happen
// under the session mutex; the broadcaster only ever sees snapshots.
type RoomSession struct {
	room      *domain.Room
	rules     domain.ScoringRules
	mu        sync.RWMutex
	clients   map[string]ClientConnection // playerID -> client
	clientsMu sync.RWMutex
	logger    *slog.Logger

	// Turn runtime state, guarded by mu. turnSeq and turnEnded together make
	// end-turn idempotent per turn regardless of which trigger fires first.
	turnSeq         int
	turnEnded       bool
	correctGuessers map[string]bool
	turnGuesses     []domain.GuessResult
	countdownStop   chan struct{}
	graceTimer      *time.Timer
	transitionTimer *time.Timer

	transitionDelay time.Duration
	guessGrace      time.Duration

	// Event channel for broadcasting
	events chan *domain.Event
	done   chan struct{}
	closed bool
}

// NewRoomSession creates a new room session
func NewRoomSession(room *domain.Room, rules domain.ScoringRules, logger *slog.Logger) *RoomSession {
	session := &RoomSession{
		room:            room,
		rules:           rules,
		clients:         make(map[string]ClientConnection),
		correctGuessers: make(map[string]bool),
		transitionDelay: TurnTransitionDelay,
		guessGrace:      AllGuessedGrace,
		logger:          logger,
		events:          make(chan *domain.Event, 256),
		done:            make(chan struct{}),
	}

	// Start event broadcaster
	go session.eventLoop()

	return session
}

// RoomID returns the room identifier
func (s *RoomSession) RoomID() string {
	return s.room.ID
}

// RoomCode returns the room join code
func (s *RoomSession) RoomCode() string {
	return s.room.Code
}

// CreatedAt returns when the room was created
func (s *RoomSession) CreatedAt() time.Time {
	return s.room.CreatedAt
}

// PlayerCount returns the number of players in the room
func (s *RoomSession) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.room.Players)
}

// ClientCount returns the number of registered client connections
func (s *RoomSession) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Status returns the current room status
func (s *RoomSession) Status() domain.RoomStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room.Status
}

// CanJoin checks if a new player can join the room
func (s *RoomSession) CanJoin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room.Status == domain.StatusWaiting && len(s.room.Players) < s.room.MaxPlayers
}

// Snapshot returns a copy of the room safe to hand to transports
func (s *RoomSession) Snapshot() *domain.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// MessagesSnapshot returns the room's chat log for history replay to the
// given player. Correct-guess texts authored by other players are filtered
// out, mirroring live delivery: the verbatim text only ever reaches its
// author, everyone else got the announcement that follows it in the log.
// Messages are immutable once created, so sharing pointers is safe.
func (s *RoomSession) MessagesSnapshot(forPlayerID string) []*domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages := make([]*domain.ChatMessage, 0, len(s.room.Messages))
	for _, msg := range s.room.Messages {
		if msg.Kind == domain.KindCorrectGuess && msg.PlayerID != forPlayerID {
			continue
		}
		messages = append(messages, msg)
	}
	return messages
}

// addHost seats the host player in a freshly created room. Called by the hub
// before the session is published, so no events need to flow yet.
func (s *RoomSession) addHost(hostName string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	host, err := s.room.AddPlayer(uuid.New().String(), hostName)
	if err != nil {
		return nil, err
	}

	// The creator attaches their websocket after the HTTP response; until
	// then they are not reachable.
	host.Disconnect()

	s.room.AppendMessage(domain.NewSystemMessage(fmt.Sprintf("%s created the room", hostName)))

	return host, nil
}

// Join adds a player with the given display name to the room
func (s *RoomSession) Join(name string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.AddPlayer(uuid.New().String(), name)
	if err != nil {
		return nil, err
	}

	s.announceLocked(fmt.Sprintf("%s joined the room", name))
	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.ID, s.snapshotLocked()))

	return player, nil
}

// Leave removes a player from the room and reports whether the room is now
// empty. Host status transfers to the next player in join order, and a turn
// whose drawer departs ends immediately through the idempotent end-turn path.
func (s *RoomSession) Leave(playerID string) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, newHost, err := s.room.RemovePlayer(playerID)
	if err != nil {
		return false
	}

	s.announceLocked(fmt.Sprintf("%s left the room", removed.Name))

	if s.room.IsEmpty() {
		s.stopTurnTimersLocked()
		s.stopTransitionLocked()
		return true
	}

	if newHost != nil {
		s.announceLocked(fmt.Sprintf("%s is now the host", newHost.Name))
	}

	if s.room.Status == domain.StatusPlaying && s.room.CurrentDrawerID == removed.ID {
		s.endTurnLocked(domain.CausePlayerLeft)
	}

	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.ID, s.snapshotLocked()))

	return false
}

// Reconnect marks a player as connected again after a transport reattach
func (s *RoomSession) Reconnect(playerID string) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.GetPlayer(playerID)
	if err != nil {
		return nil, err
	}

	player.Reconnect()
	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.ID, s.snapshotLocked()))

	return player, nil
}

// StartGame starts the game (host only, needs at least two players)
func (s *RoomSession) StartGame(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.room.IsHost(playerID) {
		return domain.ErrNotHost
	}

	if err := s.room.BeginGame(); err != nil {
		return err
	}

	s.queueEvent(domain.NewEvent(domain.EventGameStarted, s.room.ID, s.snapshotLocked()))
	s.startTurnLocked()

	return nil
}

// SendChat processes an inbound chat message from a player. Correct guesses
// are scored immediately; the verbatim text is echoed only to its author
// while everyone else receives the synthesized announcement.
func (s *RoomSession) SendChat(playerID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	player, err := s.room.GetPlayer(playerID)
	if err != nil {
		return err
	}

	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyMessage
	}

	kind := domain.Classify(
		text,
		s.room.CurrentWord,
		playerID == s.room.CurrentDrawerID,
		s.room.Status == domain.StatusPlaying,
	)

	msg := domain.NewChatMessage(playerID, player.Name, text, kind)
	s.room.AppendMessage(msg)

	if kind != domain.KindCorrectGuess {
		s.queueEvent(domain.NewEvent(domain.EventChatMessage, s.room.ID, msg))
		return nil
	}

	// Echo the correct text to its author only; broadcasting it would leak
	// the word through the chat replay.
	s.queueEvent(domain.NewPlayerEvent(domain.EventChatMessage, s.room.ID, playerID, msg))

	if s.correctGuessers[playerID] {
		// Repeated correct submissions by the same player count once
		return nil
	}

	s.recordCorrectGuessLocked(player)

	return nil
}

// recordCorrectGuessLocked awards points for a first-time correct guess and
// checks the all-guessed condition. Caller must hold the lock.
func (s *RoomSession) recordCorrectGuessLocked(player *domain.Player) {
	elapsed := int(time.Since(s.room.TurnStartTime).Seconds())
	firstGuess := len(s.correctGuessers) == 0
	points := s.rules.GuessPoints(elapsed, s.room.TurnDuration, firstGuess)

	player.AddScore(points)
	if drawer, err := s.room.GetPlayer(s.room.CurrentDrawerID); err == nil {
		drawer.AddScore(s.rules.DrawerBonusPerGuess)
	}

	s.correctGuessers[player.ID] = true
	s.turnGuesses = append(s.turnGuesses, domain.GuessResult{
		PlayerID:     player.ID,
		PlayerName:   player.Name,
		GuessTime:    elapsed,
		PointsEarned: points,
	})

	announcement := domain.NewSystemMessage(fmt.Sprintf("%s guessed the word! +%d points", player.Name, points))
	s.room.AppendMessage(announcement)
	s.queueEvent(domain.NewBroadcastExcept(domain.EventChatMessage, s.room.ID, player.ID, announcement))
	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.ID, s.snapshotLocked()))

	if len(s.correctGuessers) >= s.room.NonDrawerCount() {
		s.scheduleAllGuessedLocked()
	}
}

// SkipTurn lets the current drawer voluntarily end the turn
func (s *RoomSession) SkipTurn(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room.Status != domain.StatusPlaying {
		return domain.ErrInvalidRoomState
	}
	if s.room.CurrentDrawerID != playerID {
		return domain.ErrNotCurrentDrawer
	}

	s.endTurnLocked(domain.CauseSkipped)

	return nil
}

// RelayDrawing forwards an opaque stroke payload to the other room members.
// Payloads from anyone but the current drawer are dropped.
func (s *RoomSession) RelayDrawing(playerID string, data interface{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.room.Status != domain.StatusPlaying || s.room.CurrentDrawerID != playerID {
		return
	}

	payload := &domain.DrawingPayload{Data: data}
	s.queueEvent(domain.NewBroadcastExcept(domain.EventDrawingUpdate, s.room.ID, playerID, payload))
}

// ClearDrawing relays a canvas clear from the current drawer
func (s *RoomSession) ClearDrawing(playerID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.room.Status != domain.StatusPlaying || s.room.CurrentDrawerID != playerID {
		return
	}

	s.queueEvent(domain.NewBroadcastExcept(domain.EventDrawingClear, s.room.ID, playerID, nil))
}

// announceLocked appends a system message to the log and broadcasts it.
// Caller must hold the lock.
func (s *RoomSession) announceLocked(text string) {
	msg := domain.NewSystemMessage(text)
	s.room.AppendMessage(msg)
	s.queueEvent(domain.NewEvent(domain.EventChatMessage, s.room.ID, msg))
}

// snapshotLocked copies the room for the broadcaster. Caller must hold the
// lock (read or write).
func (s *RoomSession) snapshotLocked() *domain.Room {
	return s.room.Snapshot()
}

// RegisterClient registers a client connection for a player
func (s *RoomSession) RegisterClient(playerID string, client ClientConnection) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[playerID] = client
}

// UnregisterClient removes a client connection
func (s *RoomSession) UnregisterClient(playerID string) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	delete(s.clients, playerID)
}

// queueEvent adds an event to the broadcast queue
func (s *RoomSession) queueEvent(event *domain.Event) {
	select {
	case s.events <- event:
	default:
		s.logger.Warn("event queue full, dropping event", "type", event.Type, "roomId", event.RoomID)
	}
}

// eventLoop processes events and broadcasts to clients
func (s *RoomSession) eventLoop() {
	for {
		select {
		case <-s.done:
			return
		case event := <-s.events:
			s.broadcastEvent(event)
		}
	}
}

// broadcastEvent sends an event to the appropriate clients
func (s *RoomSession) broadcastEvent(event *domain.Event) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	if event.PlayerID != "" {
		if client, ok := s.clients[event.PlayerID]; ok {
			if err := client.Send(event); err != nil {
				s.logger.Debug("failed to send to client", "playerID", event.PlayerID, "error", err)
			}
		}
		return
	}

	for playerID, client := range s.clients {
		if playerID == event.ExcludePlayerID {
			continue
		}
		if err := client.Send(event); err != nil {
			s.logger.Debug("failed to send to client", "playerID", playerID, "error", err)
		}
	}
}

// Close shuts down the session, its timers and its client connections
func (s *RoomSession) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTurnTimersLocked()
	s.stopTransitionLocked()
	s.mu.Unlock()

	close(s.done)

	s.clientsMu.Lock()
	for _, client := range s.clients {
		client.Close()
	}
	s.clients = make(map[string]ClientConnection)
	s.clientsMu.Unlock()
}
