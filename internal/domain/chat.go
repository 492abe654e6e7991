package domain

import (
	"time"

	"github.com/google/uuid"
)

// SystemAuthorID is the sentinel author for engine-generated chat messages
const SystemAuthorID = "system"

// SystemAuthorName is the display name used for system messages
const SystemAuthorName = "System"

// MessageKind classifies a chat message
type MessageKind string

const (
	KindChat         MessageKind = "chat"
	KindGuess        MessageKind = "guess"
	KindCorrectGuess MessageKind = "correct_guess"
	KindSystem       MessageKind = "system"
)

// ChatMessage is a single entry in a room's chat log. Immutable once created.
type ChatMessage struct {
	ID        string      `json:"id"`
	PlayerID  string      `json:"playerId"`
	Name      string      `json:"playerName"`
	Text      string      `json:"message"`
	Kind      MessageKind `json:"type"`
	IsCorrect bool        `json:"isCorrectGuess,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewChatMessage creates a player-authored chat message of the given kind
func NewChatMessage(playerID, name, text string, kind MessageKind) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New().String(),
		PlayerID:  playerID,
		Name:      name,
		Text:      text,
		Kind:      kind,
		IsCorrect: kind == KindCorrectGuess,
		Timestamp: time.Now(),
	}
}

// NewSystemMessage creates an engine-generated announcement
func NewSystemMessage(text string) *ChatMessage {
	return &ChatMessage{
		ID:        uuid.New().String(),
		PlayerID:  SystemAuthorID,
		Name:      SystemAuthorName,
		Text:      text,
		Kind:      KindSystem,
		Timestamp: time.Now(),
	}
}
