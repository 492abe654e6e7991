package domain

import "time"

// Player represents a player inside a room. A player is owned exclusively by
// its room and is removed when it leaves.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	IsHost    bool      `json:"isHost"`
	Connected bool      `json:"isConnected"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// NewPlayer creates a new player with the given ID and display name
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Score:     0,
		IsHost:    false,
		Connected: true,
		JoinedAt:  time.Now(),
	}
}

// AddScore increases the player's score. Scores never decrease; negative
// deltas are ignored.
func (p *Player) AddScore(points int) {
	if points > 0 {
		p.Score += points
	}
}

// Disconnect marks the player as disconnected
func (p *Player) Disconnect() {
	p.Connected = false
}

// Reconnect marks the player as connected
func (p *Player) Reconnect() {
	p.Connected = true
}
