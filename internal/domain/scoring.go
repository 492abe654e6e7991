package domain

// ScoringRules are the fixed constants of the scoring ruleset
type ScoringRules struct {
	CorrectGuessBase    int
	TimeBonusMax        int
	FirstGuessBonus     int
	DrawerBonusPerGuess int
}

// DefaultScoringRules returns the standard ruleset
func DefaultScoringRules() ScoringRules {
	return ScoringRules{
		CorrectGuessBase:    10,
		TimeBonusMax:        5,
		FirstGuessBonus:     3,
		DrawerBonusPerGuess: 2,
	}
}

// GuessPoints computes the award for a correct guess made at elapsedSeconds
// into a turn of turnDuration seconds. Elapsed time is clamped to
// [0, turnDuration] before use; all arithmetic is in integer seconds.
func (r ScoringRules) GuessPoints(elapsedSeconds, turnDuration int, firstGuess bool) int {
	if turnDuration <= 0 {
		return r.CorrectGuessBase
	}

	t := elapsedSeconds
	if t < 0 {
		t = 0
	}
	if t > turnDuration {
		t = turnDuration
	}

	timeBonus := r.TimeBonusMax * (turnDuration - t) / turnDuration

	points := r.CorrectGuessBase + timeBonus
	if firstGuess {
		points += r.FirstGuessBonus
	}
	return points
}

// DrawerPoints computes the drawer's award for a turn with the given number
// of distinct correct guessers.
func (r ScoringRules) DrawerPoints(correctGuessers int) int {
	if correctGuessers <= 0 {
		return 0
	}
	return correctGuessers * r.DrawerBonusPerGuess
}
