package domain

// GameSettings holds configurable game parameters, supplied at room creation
// and immutable for the life of the room.
type GameSettings struct {
	MaxPlayers   int `json:"maxPlayers"`
	MaxRounds    int `json:"maxRounds"`
	TurnDuration int `json:"turnDuration"` // seconds
}

// DefaultGameSettings returns the default game settings
func DefaultGameSettings() GameSettings {
	return GameSettings{
		MaxPlayers:   8,
		MaxRounds:    3,
		TurnDuration: 90,
	}
}

// Merge fills in zero-valued fields from the defaults, so a partial settings
// override on room creation always yields a usable configuration.
func (s GameSettings) Merge(defaults GameSettings) GameSettings {
	if s.MaxPlayers <= 0 {
		s.MaxPlayers = defaults.MaxPlayers
	}
	if s.MaxRounds <= 0 {
		s.MaxRounds = defaults.MaxRounds
	}
	if s.TurnDuration <= 0 {
		s.TurnDuration = defaults.TurnDuration
	}
	return s
}
