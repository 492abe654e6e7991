package domain

import "time"

// EventType represents the type of engine event delivered to room members
type EventType string

const (
	EventRoomUpdated   EventType = "room_updated"
	EventRoomDeleted   EventType = "room_deleted"
	EventChatMessage   EventType = "chat_message"
	EventGameStarted   EventType = "game_started"
	EventTurnStarted   EventType = "turn_started"
	EventTimeUpdate    EventType = "time_update"
	EventTurnEnded     EventType = "turn_ended"
	EventGameFinished  EventType = "game_finished"
	EventDrawingUpdate EventType = "drawing_update"
	EventDrawingClear  EventType = "drawing_clear"
)

// Event is the envelope the engine hands to the broadcaster. PlayerID, when
// set, targets the event at a single member; ExcludePlayerID, when set,
// delivers to everyone except that member.
type Event struct {
	Type            EventType   `json:"type"`
	RoomID          string      `json:"roomId"`
	PlayerID        string      `json:"playerId,omitempty"`
	ExcludePlayerID string      `json:"-"`
	Payload         interface{} `json:"payload,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
}

// NewEvent creates an event delivered to every member of a room
func NewEvent(eventType EventType, roomID string, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewPlayerEvent creates an event delivered to a single member
func NewPlayerEvent(eventType EventType, roomID, playerID string, payload interface{}) *Event {
	return &Event{
		Type:      eventType,
		RoomID:    roomID,
		PlayerID:  playerID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// NewBroadcastExcept creates an event delivered to every member but one
func NewBroadcastExcept(eventType EventType, roomID, excludePlayerID string, payload interface{}) *Event {
	return &Event{
		Type:            eventType,
		RoomID:          roomID,
		ExcludePlayerID: excludePlayerID,
		Payload:         payload,
		Timestamp:       time.Now(),
	}
}

// Payload types for engine events

// TurnStartedPayload is sent when a new turn begins. Word is populated only
// in the drawer's private copy.
type TurnStartedPayload struct {
	DrawerID   string `json:"drawerId"`
	DrawerName string `json:"drawerName"`
	Round      int    `json:"round"`
	TimeLeft   int    `json:"timeLeft"`
	Word       string `json:"word,omitempty"`
}

// TimeUpdatePayload is sent every second during a turn
type TimeUpdatePayload struct {
	TimeLeft int `json:"timeLeft"`
}

// TurnEndedPayload is sent when a turn ends
type TurnEndedPayload struct {
	Result TurnResult `json:"result"`
	Cause  EndCause   `json:"cause"`
}

// DrawingPayload carries an opaque stroke payload relayed between members.
// The engine forwards it without interpreting it.
type DrawingPayload struct {
	Data interface{} `json:"data"`
}
