package domain

import "strings"

// Classify decides the kind of an inbound chat message. Drawer messages are
// never evaluated as guesses, and nothing counts as a guess outside an active
// playing turn. The correct/incorrect signal is the only load-bearing output;
// the guess-vs-chat label for incorrect messages is advisory.
func Classify(text, currentWord string, authorIsDrawer, playing bool) MessageKind {
	if !playing || currentWord == "" || authorIsDrawer {
		return KindChat
	}

	if MatchesWord(text, currentWord) {
		return KindCorrectGuess
	}
	return KindGuess
}

// MatchesWord compares a guess against the secret word: both sides are
// trimmed and compared under Unicode case folding, so accented words from the
// pool match regardless of the guesser's casing.
func MatchesWord(guess, word string) bool {
	return strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(word))
}
