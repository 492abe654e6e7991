package domain

// RoomStatus represents the current lifecycle status of a room
type RoomStatus string

const (
	StatusWaiting        RoomStatus = "waiting"         // Lobby, waiting for players to join
	StatusPlaying        RoomStatus = "playing"         // A turn is in progress
	StatusTurnTransition RoomStatus = "turn_transition" // Pause between turns, no scoring happens here
	StatusFinished       RoomStatus = "finished"        // Game over, final standings frozen
)

// String returns the string representation of the status
func (s RoomStatus) String() string {
	return string(s)
}

// HasActiveDrawer reports whether a drawer and word are valid for this status
func (s RoomStatus) HasActiveDrawer() bool {
	return s == StatusPlaying || s == StatusTurnTransition
}

// CanTransitionTo checks if a transition from current status to target status is valid
func (s RoomStatus) CanTransitionTo(target RoomStatus) bool {
	validTransitions := map[RoomStatus][]RoomStatus{
		StatusWaiting:        {StatusPlaying},
		StatusPlaying:        {StatusTurnTransition, StatusFinished},
		StatusTurnTransition: {StatusPlaying, StatusFinished},
		StatusFinished:       {},
	}

	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}
