package ws

import "time"

// MessageType represents the type of WebSocket message
type MessageType string

// Client → Server message types
const (
	MsgJoinRoom     MessageType = "join_room"
	MsgStartGame    MessageType = "start_game"
	MsgChatSend     MessageType = "chat_send"
	MsgSkipTurn     MessageType = "skip_turn"
	MsgDraw         MessageType = "draw"
	MsgClearDrawing MessageType = "clear_drawing"
	MsgLeaveRoom    MessageType = "leave_room"
	MsgPing         MessageType = "ping"
)

// Server → Client message types. Engine events (room_updated, chat_message,
// turn_started, ...) are forwarded with the event type as the message type;
// the constants below are the transport's own messages.
const (
	MsgConnected MessageType = "connected"
	MsgError     MessageType = "error"
	MsgPong      MessageType = "pong"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ServerMessage represents a transport-level message from server to client
type ServerMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NewServerMessage creates a new server message with current timestamp
func NewServerMessage(msgType MessageType, payload interface{}) *ServerMessage {
	return &ServerMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// Client message payloads

// JoinRoomPayload is the payload for join_room
type JoinRoomPayload struct {
	Name string `json:"name"`
}

// ChatSendPayload is the payload for chat_send
type ChatSendPayload struct {
	Message string `json:"message"`
}

// Server message payloads

// ConnectedPayload is the payload for connected
type ConnectedPayload struct {
	SessionID string      `json:"sessionId"`
	PlayerID  string      `json:"playerId"`
	RoomID    string      `json:"roomId"`
	Room      interface{} `json:"room"`
}

// ErrorPayload is the payload for error
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidMessage   = "INVALID_MESSAGE"
	ErrCodeRoomNotFound     = "ROOM_NOT_FOUND"
	ErrCodeRoomFull         = "ROOM_FULL"
	ErrCodeGameStarted      = "GAME_ALREADY_STARTED"
	ErrCodeDuplicateName    = "DUPLICATE_NAME"
	ErrCodeNotHost          = "NOT_HOST"
	ErrCodeNotEnoughPlayers = "INSUFFICIENT_PLAYERS"
	ErrCodeNotCurrentDrawer = "NOT_CURRENT_DRAWER"
	ErrCodeInvalidRoomState = "INVALID_ROOM_STATE"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)
