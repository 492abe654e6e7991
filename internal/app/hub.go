package app

import (
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"sketchparty/internal/domain"
)

const (
	// DefaultRoomCodeLength is the default length for room join codes
	DefaultRoomCodeLength = 6

	// StaleRoomTimeout is how long a room with no connected clients survives
	// before the sweep reclaims it. The normal path deletes a room when its
	// last player leaves; the sweep catches rooms whose creator never
	// attached a websocket.
	StaleRoomTimeout = 2 * time.Hour
)

// RoomCodeChars are characters used for join codes (no ambiguous chars)
const RoomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// sessionBinding ties a transport session to a (room, player) pair
type sessionBinding struct {
	roomID   string
	playerID string
}

// RoomHub is the process-wide registry of rooms. It maps room identifiers and
// join codes to room sessions, and transport session identifiers to their
// (room, player) bindings.
type RoomHub struct {
	rooms          map[string]*RoomSession
	codes          map[string]string // join code -> room id
	bindings       map[string]sessionBinding
	mu             sync.RWMutex
	defaults       domain.GameSettings
	rules          domain.ScoringRules
	roomCodeLength int
	logger         *slog.Logger
	done           chan struct{}
}

// NewRoomHub creates a new room hub
func NewRoomHub(defaults domain.GameSettings, logger *slog.Logger) *RoomHub {
	hub := &RoomHub{
		rooms:          make(map[string]*RoomSession),
		codes:          make(map[string]string),
		bindings:       make(map[string]sessionBinding),
		defaults:       defaults,
		rules:          domain.DefaultScoringRules(),
		roomCodeLength: DefaultRoomCodeLength,
		logger:         logger,
		done:           make(chan struct{}),
	}

	// Start cleanup goroutine
	go hub.cleanupLoop()

	return hub
}

// CreateRoom creates a room with its host player already inside. Missing
// settings fields fall back to the hub defaults, so creation always succeeds.
func (h *RoomHub) CreateRoom(hostName, roomName string, settings domain.GameSettings) (*RoomSession, *domain.Player) {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomID := uuid.New().String()
	code := h.generateRoomCode()
	merged := settings.Merge(h.defaults)

	room := domain.NewRoom(roomID, roomName, code, merged, GameWords)
	session := NewRoomSession(room, h.rules, h.logger)
	host, _ := session.addHost(hostName)

	h.rooms[roomID] = session
	h.codes[code] = roomID

	h.logger.Info("room created", "roomId", roomID, "code", code, "host", hostName)

	return session, host
}

// FindByCode returns the room session with the given join code
func (h *RoomHub) FindByCode(code string) (*RoomSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	roomID, ok := h.codes[code]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return h.rooms[roomID], nil
}

// FindByID returns the room session with the given room identifier
func (h *RoomHub) FindByID(roomID string) (*RoomSession, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	session, ok := h.rooms[roomID]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return session, nil
}

// BindSession binds a transport session identifier to a (room, player) pair
func (h *RoomHub) BindSession(sessionID, roomID, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.bindings[sessionID] = sessionBinding{roomID: roomID, playerID: playerID}
}

// ResolveSession returns the room session and player bound to a transport
// session identifier
func (h *RoomHub) ResolveSession(sessionID string) (*RoomSession, string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	binding, ok := h.bindings[sessionID]
	if !ok {
		return nil, "", domain.ErrSessionNotFound
	}

	session, ok := h.rooms[binding.roomID]
	if !ok {
		return nil, "", domain.ErrRoomNotFound
	}

	return session, binding.playerID, nil
}

// UnbindSession removes a transport session binding
func (h *RoomHub) UnbindSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.bindings, sessionID)
}

// Leave removes the player bound to the given transport session from its
// room, unbinds the session, and deletes the room when it empties.
func (h *RoomHub) Leave(sessionID string) {
	session, playerID, err := h.ResolveSession(sessionID)
	if err != nil {
		return
	}

	h.UnbindSession(sessionID)

	empty := session.Leave(playerID)
	if empty {
		h.Delete(session.RoomID())
	}
}

// Delete removes a room session and all its derived state
func (h *RoomHub) Delete(roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.rooms[roomID]
	if !ok {
		return
	}

	// Sent directly rather than queued: Close follows immediately and would
	// race the event loop.
	session.broadcastEvent(domain.NewEvent(domain.EventRoomDeleted, roomID, nil))

	session.Close()
	delete(h.rooms, roomID)
	delete(h.codes, session.RoomCode())

	for sessionID, binding := range h.bindings {
		if binding.roomID == roomID {
			delete(h.bindings, sessionID)
		}
	}

	h.logger.Info("room deleted", "roomId", roomID)
}

// RoomCount returns the number of live rooms
func (h *RoomHub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// TotalPlayerCount returns the total number of players across all rooms
func (h *RoomHub) TotalPlayerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, session := range h.rooms {
		total += session.PlayerCount()
	}
	return total
}

// Close shuts down the hub and all room sessions
func (h *RoomHub) Close() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, session := range h.rooms {
		session.Close()
	}
	h.rooms = make(map[string]*RoomSession)
	h.codes = make(map[string]string)
	h.bindings = make(map[string]sessionBinding)
}

// generateRoomCode generates a join code that no live room currently uses.
// Caller must hold the hub lock.
func (h *RoomHub) generateRoomCode() string {
	for {
		b := make([]byte, h.roomCodeLength)
		rand.Read(b)

		code := make([]byte, h.roomCodeLength)
		for i := range code {
			code[i] = RoomCodeChars[int(b[i])%len(RoomCodeChars)]
		}

		if _, exists := h.codes[string(code)]; !exists {
			return string(code)
		}
	}
}

// cleanupLoop periodically sweeps rooms that somehow outlived their players
func (h *RoomHub) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.cleanupStaleRooms()
		}
	}
}

// cleanupStaleRooms removes old rooms that nobody is connected to. Rooms
// created over the HTTP API hold their pre-seated host before any websocket
// attaches, so player count alone cannot identify an abandoned room; the
// registered client count can.
func (h *RoomHub) cleanupStaleRooms() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()

	for roomID, session := range h.rooms {
		if session.ClientCount() == 0 && now.Sub(session.CreatedAt()) > StaleRoomTimeout {
			session.Close()
			delete(h.rooms, roomID)
			delete(h.codes, session.RoomCode())
			h.logger.Info("stale room cleaned up", "roomId", roomID)
		}
	}
}
