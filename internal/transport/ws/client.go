package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"sketchparty/internal/app"
	"sketchparty/internal/domain"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Stroke payloads are the largest
	// legitimate messages.
	maxMessageSize = 32768

	// Size of the send channel buffer
	sendBufferSize = 256

	// Inbound message budget per connection: sustained and burst
	inboundRate  = 20
	inboundBurst = 40
)

// Client represents a WebSocket client connection. Each connection carries
// one transport session; the session id is bound to a (room, player) pair
// once the peer joins a room.
type Client struct {
	conn      *websocket.Conn
	hub       *app.RoomHub
	session   *app.RoomSession
	sessionID string
	playerID  string
	limiter   *rate.Limiter
	send      chan []byte
	done      chan struct{}
	logger    *slog.Logger
	mu        sync.Mutex
	closed    bool
}

// NewClient creates a new WebSocket client attached to a room session
func NewClient(conn *websocket.Conn, hub *app.RoomHub, session *app.RoomSession, sessionID string, logger *slog.Logger) *Client {
	return &Client{
		conn:      conn,
		hub:       hub,
		session:   session,
		sessionID: sessionID,
		limiter:   rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
		send:      make(chan []byte, sendBufferSize),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// GetPlayerID returns the player ID for this client
func (c *Client) GetPlayerID() string {
	return c.playerID
}

// Send implements app.ClientConnection
func (c *Client) Send(message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	select {
	case c.send <- data:
		return nil
	default:
		// Buffer full, message dropped
		c.logger.Warn("send buffer full, message dropped", "playerID", c.playerID)
		return nil
	}
}

// Close implements app.ClientConnection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	close(c.done)
	return c.conn.Close()
}

// Run starts the client's read and write pumps
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// readPump pumps messages from the WebSocket connection. A broken connection
// counts as leaving the room.
func (c *Client) readPump() {
	defer func() {
		if c.playerID != "" {
			c.session.UnregisterClient(c.playerID)
		}
		c.hub.Leave(c.sessionID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			break
		}

		if !c.limiter.Allow() {
			c.sendError(ErrCodeRateLimited, "Too many messages, slow down")
			continue
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current websocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage processes an incoming message from the client
func (c *Client) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(ErrCodeInvalidMessage, "Invalid message format")
		return
	}

	switch msg.Type {
	case MsgJoinRoom:
		c.handleJoinRoom(msg.Payload)
	case MsgStartGame:
		c.handleStartGame()
	case MsgChatSend:
		c.handleChatSend(msg.Payload)
	case MsgSkipTurn:
		c.handleSkipTurn()
	case MsgDraw:
		c.handleDraw(msg.Payload)
	case MsgClearDrawing:
		c.handleClearDrawing()
	case MsgLeaveRoom:
		c.Close()
	case MsgPing:
		c.sendPong()
	default:
		c.sendError(ErrCodeInvalidMessage, "Unknown message type")
	}
}

// handleJoinRoom handles a join_room message
func (c *Client) handleJoinRoom(payload interface{}) {
	if c.playerID != "" {
		c.sendError(ErrCodeInvalidMessage, "Already in a room")
		return
	}

	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	name, ok := payloadMap["name"].(string)
	if !ok || name == "" {
		c.sendError(ErrCodeInvalidMessage, "Display name is required")
		return
	}

	player, err := c.session.Join(name)
	if err != nil {
		c.sendDomainError(err)
		return
	}

	c.attach(player.ID)
	c.sendConnected()
	c.replayHistory()
}

// Attach wires an already-seated player (the room creator) to this
// connection without going through join_room.
func (c *Client) Attach(playerID string) {
	c.attach(playerID)

	if _, err := c.session.Reconnect(playerID); err != nil {
		c.logger.Debug("attach to unknown player", "playerID", playerID, "error", err)
	}

	c.sendConnected()
	c.replayHistory()
}

func (c *Client) attach(playerID string) {
	c.playerID = playerID
	c.hub.BindSession(c.sessionID, c.session.RoomID(), playerID)
	c.session.RegisterClient(playerID, c)
}

// handleStartGame handles a start_game message
func (c *Client) handleStartGame() {
	if err := c.session.StartGame(c.playerID); err != nil {
		c.sendDomainError(err)
	}
}

// handleChatSend handles a chat_send message
func (c *Client) handleChatSend(payload interface{}) {
	payloadMap, ok := payload.(map[string]interface{})
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Invalid payload")
		return
	}

	text, ok := payloadMap["message"].(string)
	if !ok {
		c.sendError(ErrCodeInvalidMessage, "Message is required")
		return
	}

	if err := c.session.SendChat(c.playerID, text); err != nil {
		c.sendDomainError(err)
	}
}

// handleSkipTurn handles a skip_turn message
func (c *Client) handleSkipTurn() {
	if err := c.session.SkipTurn(c.playerID); err != nil {
		c.sendDomainError(err)
	}
}

// handleDraw relays an opaque stroke payload; the engine drops it unless the
// sender is the current drawer
func (c *Client) handleDraw(payload interface{}) {
	c.session.RelayDrawing(c.playerID, payload)
}

// handleClearDrawing relays a canvas clear
func (c *Client) handleClearDrawing() {
	c.session.ClearDrawing(c.playerID)
}

// sendConnected sends the connected confirmation with a room snapshot
func (c *Client) sendConnected() {
	payload := &ConnectedPayload{
		SessionID: c.sessionID,
		PlayerID:  c.playerID,
		RoomID:    c.session.RoomID(),
		Room:      c.session.Snapshot(),
	}

	c.Send(NewServerMessage(MsgConnected, payload))
}

// replayHistory sends the room's chat log to this client only
func (c *Client) replayHistory() {
	for _, msg := range c.session.MessagesSnapshot(c.playerID) {
		c.Send(domain.NewPlayerEvent(domain.EventChatMessage, c.session.RoomID(), c.playerID, msg))
	}
}

// sendDomainError maps a domain error to a wire error code
func (c *Client) sendDomainError(err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		c.sendError(ErrCodeRoomNotFound, "Room not found")
	case errors.Is(err, domain.ErrRoomFull):
		c.sendError(ErrCodeRoomFull, "Room is full")
	case errors.Is(err, domain.ErrGameAlreadyStarted):
		c.sendError(ErrCodeGameStarted, "Game has already started")
	case errors.Is(err, domain.ErrDuplicateName):
		c.sendError(ErrCodeDuplicateName, "That name is already taken")
	case errors.Is(err, domain.ErrNotHost):
		c.sendError(ErrCodeNotHost, "Only the host can do that")
	case errors.Is(err, domain.ErrNotEnoughPlayers):
		c.sendError(ErrCodeNotEnoughPlayers, "Not enough players to start")
	case errors.Is(err, domain.ErrNotCurrentDrawer):
		c.sendError(ErrCodeNotCurrentDrawer, "Only the current drawer can do that")
	case errors.Is(err, domain.ErrInvalidRoomState), errors.Is(err, domain.ErrEmptyMessage):
		c.sendError(ErrCodeInvalidRoomState, err.Error())
	case errors.Is(err, domain.ErrPlayerNotFound), errors.Is(err, domain.ErrSessionNotFound):
		c.sendError(ErrCodeRoomNotFound, "Not in a room")
	default:
		c.sendError(ErrCodeInternalError, err.Error())
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(code, message string) {
	c.Send(NewServerMessage(MsgError, &ErrorPayload{
		Code:    code,
		Message: message,
	}))
}

// sendPong sends a pong message in response to ping
func (c *Client) sendPong() {
	c.Send(NewServerMessage(MsgPong, nil))
}
