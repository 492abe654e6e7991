package domain

import (
	"math/rand"
	"sort"
	"time"
)

// Room is the authoritative aggregate for one game room. Player order is join
// order and defines the drawer rotation. The secret word and the word pool
// are kept out of wire snapshots; the drawer receives the word through its
// private turn-started message.
type Room struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Code            string     `json:"code"`
	HostID          string     `json:"hostId"`
	Players         []*Player  `json:"players"`
	MaxPlayers      int        `json:"maxPlayers"`
	Status          RoomStatus `json:"status"`
	CurrentRound    int        `json:"currentRound"`
	MaxRounds       int        `json:"maxRounds"`
	CurrentDrawerID string     `json:"currentDrawerId,omitempty"`
	CurrentWord     string     `json:"-"`
	TimeLeft        int        `json:"timeLeft"`
	TurnStartTime   time.Time  `json:"turnStartTime,omitempty"`
	TurnDuration    int        `json:"turnDuration"`
	GameStartTime   time.Time  `json:"gameStartTime,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`

	Messages []*ChatMessage `json:"-"`
	History  []TurnResult   `json:"-"`

	words     []string
	usedWords []string
}

// NewRoom creates a room in the waiting state with the given word pool
func NewRoom(id, name, code string, settings GameSettings, words []string) *Room {
	pool := make([]string, len(words))
	copy(pool, words)

	return &Room{
		ID:           id,
		Name:         name,
		Code:         code,
		Players:      make([]*Player, 0, settings.MaxPlayers),
		MaxPlayers:   settings.MaxPlayers,
		Status:       StatusWaiting,
		CurrentRound: 0,
		MaxRounds:    settings.MaxRounds,
		TurnDuration: settings.TurnDuration,
		CreatedAt:    time.Now(),
		words:        pool,
		usedWords:    make([]string, 0, len(pool)),
	}
}

// AddPlayer adds a player to the room. The first player becomes host.
func (r *Room) AddPlayer(playerID, name string) (*Player, error) {
	if r.Status != StatusWaiting {
		return nil, ErrGameAlreadyStarted
	}

	if len(r.Players) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}

	for _, p := range r.Players {
		if p.Name == name {
			return nil, ErrDuplicateName
		}
	}

	player := NewPlayer(playerID, name)
	if len(r.Players) == 0 {
		player.IsHost = true
		r.HostID = playerID
	}
	r.Players = append(r.Players, player)

	return player, nil
}

// RemovePlayer removes a player from the room. If the departing player was
// host and players remain, host status transfers to the next player in join
// order; the new host is returned alongside the removed player.
func (r *Room) RemovePlayer(playerID string) (removed, newHost *Player, err error) {
	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, nil, ErrPlayerNotFound
	}

	removed = r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if removed.IsHost && len(r.Players) > 0 {
		newHost = r.Players[0]
		newHost.IsHost = true
		r.HostID = newHost.ID
	}

	return removed, newHost, nil
}

// GetPlayer returns a player by ID
func (r *Room) GetPlayer(playerID string) (*Player, error) {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, ErrPlayerNotFound
}

// IsHost checks if the given player is the host
func (r *Room) IsHost(playerID string) bool {
	return r.HostID == playerID
}

// IsEmpty reports whether the room has no players left
func (r *Room) IsEmpty() bool {
	return len(r.Players) == 0
}

// BeginGame moves the room from waiting to playing: scores reset, round one
// begins. The first turn is started separately by the scheduler.
func (r *Room) BeginGame() error {
	if r.Status != StatusWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.Players) < 2 {
		return ErrNotEnoughPlayers
	}

	for _, p := range r.Players {
		p.Score = 0
	}

	r.Status = StatusPlaying
	r.CurrentRound = 1
	r.GameStartTime = time.Now()

	return nil
}

// BeginTurn advances the drawer pointer circularly and sets up the next turn.
// Wrapping back to the first player after a drawer had been set completes a
// lap and increments the round; when the incoming round exceeds the maximum,
// no turn is started and gameOver is true.
func (r *Room) BeginTurn() (drawer *Player, gameOver bool, err error) {
	if len(r.Players) == 0 {
		return nil, false, ErrInvalidRoomState
	}
	if r.Status != StatusPlaying && r.Status != StatusTurnTransition {
		return nil, false, ErrInvalidRoomState
	}

	currentIdx := -1
	if r.CurrentDrawerID != "" {
		for i, p := range r.Players {
			if p.ID == r.CurrentDrawerID {
				currentIdx = i
				break
			}
		}
	}

	nextIdx := (currentIdx + 1) % len(r.Players)
	if nextIdx == 0 && r.CurrentDrawerID != "" {
		r.CurrentRound++
		if r.CurrentRound > r.MaxRounds {
			return nil, true, nil
		}
	}

	drawer = r.Players[nextIdx]
	r.CurrentDrawerID = drawer.ID
	r.CurrentWord = r.pickWord()
	r.TimeLeft = r.TurnDuration
	r.TurnStartTime = time.Now()
	r.Status = StatusPlaying

	return drawer, false, nil
}

// pickWord selects a word uniformly at random from the unused pool. The pool
// is replenished only once every word has been used.
func (r *Room) pickWord() string {
	if len(r.words) == 0 {
		return ""
	}

	used := make(map[string]bool, len(r.usedWords))
	for _, w := range r.usedWords {
		used[w] = true
	}

	available := make([]string, 0, len(r.words))
	for _, w := range r.words {
		if !used[w] {
			available = append(available, w)
		}
	}

	if len(available) == 0 {
		r.usedWords = r.usedWords[:0]
		available = r.words
	}

	word := available[rand.Intn(len(available))]
	r.usedWords = append(r.usedWords, word)
	return word
}

// NonDrawerCount returns the number of eligible guessers for the current turn
func (r *Room) NonDrawerCount() int {
	count := 0
	for _, p := range r.Players {
		if p.ID != r.CurrentDrawerID {
			count++
		}
	}
	return count
}

// Finish freezes the game: standings are ranked by score (highest first,
// ties broken by join order) and a results summary is produced. The winner is
// absent when no players remain.
func (r *Room) Finish() *GameResults {
	r.Status = StatusFinished
	r.CurrentDrawerID = ""
	r.CurrentWord = ""
	r.TimeLeft = 0

	standings := make([]*Player, len(r.Players))
	copy(standings, r.Players)
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})

	totalTime := 0
	if !r.GameStartTime.IsZero() {
		totalTime = int(time.Since(r.GameStartTime).Seconds())
	}

	results := &GameResults{
		FinalScores: standings,
		TurnResults: r.History,
		TotalTime:   totalTime,
	}
	if len(standings) > 0 {
		results.Winner = standings[0]
	}

	return results
}

// WouldFinish reports whether advancing the drawer rotation from the current
// position would exceed the round limit, i.e. whether the turn that just
// ended was the game's last.
func (r *Room) WouldFinish() bool {
	if len(r.Players) == 0 || r.CurrentDrawerID == "" {
		return false
	}

	currentIdx := -1
	for i, p := range r.Players {
		if p.ID == r.CurrentDrawerID {
			currentIdx = i
			break
		}
	}

	nextIdx := (currentIdx + 1) % len(r.Players)
	return nextIdx == 0 && r.CurrentRound+1 > r.MaxRounds
}

// Snapshot returns a copy of the room safe to marshal outside the engine
// lock. Players are copied by value; the chat log, turn history and word pool
// are omitted because they travel through their own channels.
func (r *Room) Snapshot() *Room {
	snapshot := *r
	snapshot.Players = make([]*Player, len(r.Players))
	for i, p := range r.Players {
		playerCopy := *p
		snapshot.Players[i] = &playerCopy
	}
	snapshot.Messages = nil
	snapshot.History = nil
	snapshot.words = nil
	snapshot.usedWords = nil
	return &snapshot
}

// AppendMessage appends a message to the room's chat log
func (r *Room) AppendMessage(msg *ChatMessage) {
	r.Messages = append(r.Messages, msg)
}

// AppendTurnResult appends a completed turn to the room's history
func (r *Room) AppendTurnResult(result TurnResult) {
	r.History = append(r.History, result)
}
