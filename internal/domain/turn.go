package domain

// EndCause identifies which trigger ended a turn
type EndCause string

const (
	CauseTimeUp     EndCause = "time_up"
	CauseAllGuessed EndCause = "all_guessed"
	CauseSkipped    EndCause = "skipped"
	CausePlayerLeft EndCause = "player_left"
)

// GuessResult records one player's correct guess within a turn
type GuessResult struct {
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	GuessTime    int    `json:"guessTime"` // seconds into the turn
	PointsEarned int    `json:"pointsEarned"`
}

// TurnResult summarizes one completed turn. Created exactly once per turn and
// appended to the room's history.
type TurnResult struct {
	DrawerID       string        `json:"drawerId"`
	DrawerName     string        `json:"drawerName"`
	Word           string        `json:"word"`
	CorrectGuesses []GuessResult `json:"correctGuesses"`
	TimeElapsed    int           `json:"timeElapsed"`
	AllGuessed     bool          `json:"allGuessed"`
}

// GameResults is the frozen end-of-game summary
type GameResults struct {
	FinalScores []*Player    `json:"finalScores"`
	TurnResults []TurnResult `json:"turnResults"`
	TotalTime   int          `json:"totalTime"` // seconds since game start
	Winner      *Player      `json:"winner,omitempty"`
}
