package app

import (
	"fmt"
	"time"

	"sketchparty/internal/domain"
)

// Turn scheduling. One countdown goroutine per active turn; every scheduled
// callback carries the turn sequence number it was armed for and becomes a
// no-op the moment a newer turn starts or the turn has already ended. This is
// what keeps time-up, all-guessed, skip and drawer-left from ever ending the
// same turn twice.

// startTurnLocked rotates the drawer and begins the next turn, or finishes
// the game when the rotation would exceed the round limit. Caller must hold
// the lock.
func (s *RoomSession) startTurnLocked() {
	s.stopTurnTimersLocked()
	s.stopTransitionLocked()

	drawer, gameOver, err := s.room.BeginTurn()
	if err != nil {
		// The room emptied out under a pending callback; expected race.
		s.logger.Debug("turn start aborted", "roomId", s.room.ID, "error", err)
		return
	}

	if gameOver {
		s.finishGameLocked()
		return
	}

	s.turnSeq++
	s.turnEnded = false
	s.correctGuessers = make(map[string]bool)
	s.turnGuesses = nil

	s.announceLocked(fmt.Sprintf("It's %s's turn to draw", drawer.Name))

	started := &domain.TurnStartedPayload{
		DrawerID:   drawer.ID,
		DrawerName: drawer.Name,
		Round:      s.room.CurrentRound,
		TimeLeft:   s.room.TimeLeft,
	}
	s.queueEvent(domain.NewBroadcastExcept(domain.EventTurnStarted, s.room.ID, drawer.ID, started))

	// Only the drawer learns the word.
	drawerCopy := *started
	drawerCopy.Word = s.room.CurrentWord
	s.queueEvent(domain.NewPlayerEvent(domain.EventTurnStarted, s.room.ID, drawer.ID, &drawerCopy))

	s.queueEvent(domain.NewEvent(domain.EventDrawingClear, s.room.ID, nil))
	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.ID, s.snapshotLocked()))

	stop := make(chan struct{})
	s.countdownStop = stop
	go s.runCountdown(s.turnSeq, stop)
}

// runCountdown drives the per-second countdown for one turn
func (s *RoomSession) runCountdown(seq int, stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-s.done:
			return
		case <-ticker.C:
			if !s.countdownTick(seq) {
				return
			}
		}
	}
}

// countdownTick advances the countdown by one second and reports whether the
// countdown should keep running
func (s *RoomSession) countdownTick(seq int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.turnSeq || s.turnEnded || s.room.Status != domain.StatusPlaying {
		return false
	}

	s.room.TimeLeft--
	if s.room.TimeLeft <= 0 {
		s.room.TimeLeft = 0
		s.endTurnLocked(domain.CauseTimeUp)
		return false
	}

	s.queueEvent(domain.NewEvent(domain.EventTimeUpdate, s.room.ID, &domain.TimeUpdatePayload{
		TimeLeft: s.room.TimeLeft,
	}))

	return true
}

// scheduleAllGuessedLocked arms the short grace delay before an all-guessed
// turn end, so the final announcement reaches clients first. Caller must hold
// the lock.
func (s *RoomSession) scheduleAllGuessedLocked() {
	seq := s.turnSeq
	if s.graceTimer != nil {
		s.graceTimer.Stop()
	}
	s.graceTimer = time.AfterFunc(s.guessGrace, func() {
		s.endTurnForSeq(seq, domain.CauseAllGuessed)
	})
}

// endTurnForSeq ends the turn identified by seq, if it is still the live one
func (s *RoomSession) endTurnForSeq(seq int, cause domain.EndCause) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.turnSeq {
		return
	}
	s.endTurnLocked(cause)
}

// endTurnLocked is the single end-turn path for all four causes. It records
// exactly one TurnResult per turn; a second trigger for the same turn is a
// no-op. Caller must hold the lock.
func (s *RoomSession) endTurnLocked(cause domain.EndCause) {
	if s.turnEnded || s.room.Status != domain.StatusPlaying {
		return
	}
	s.turnEnded = true

	if s.countdownStop != nil {
		close(s.countdownStop)
		s.countdownStop = nil
	}
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}

	drawerName := ""
	if drawer, err := s.room.GetPlayer(s.room.CurrentDrawerID); err == nil {
		drawerName = drawer.Name
	}

	result := domain.TurnResult{
		DrawerID:       s.room.CurrentDrawerID,
		DrawerName:     drawerName,
		Word:           s.room.CurrentWord,
		CorrectGuesses: s.turnGuesses,
		TimeElapsed:    s.room.TurnDuration - s.room.TimeLeft,
		AllGuessed:     cause == domain.CauseAllGuessed,
	}
	s.room.AppendTurnResult(result)

	switch cause {
	case domain.CauseTimeUp:
		s.announceLocked(fmt.Sprintf("Time's up! The word was: %s", s.room.CurrentWord))
	case domain.CauseAllGuessed:
		s.announceLocked("Everyone guessed the word!")
	case domain.CauseSkipped:
		s.announceLocked(fmt.Sprintf("%s skipped their turn. The word was: %s", drawerName, s.room.CurrentWord))
	case domain.CausePlayerLeft:
		s.announceLocked(fmt.Sprintf("The drawer left. The word was: %s", s.room.CurrentWord))
	}

	s.queueEvent(domain.NewEvent(domain.EventTurnEnded, s.room.ID, &domain.TurnEndedPayload{
		Result: result,
		Cause:  cause,
	}))

	if s.room.WouldFinish() {
		s.finishGameLocked()
		return
	}

	s.room.Status = domain.StatusTurnTransition
	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.ID, s.snapshotLocked()))

	seq := s.turnSeq
	s.transitionTimer = time.AfterFunc(s.transitionDelay, func() {
		s.advanceTurn(seq)
	})
}

// advanceTurn starts the next turn once the transition pause elapses
func (s *RoomSession) advanceTurn(seq int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || seq != s.turnSeq || s.room.Status != domain.StatusTurnTransition {
		return
	}

	s.startTurnLocked()
}

// finishGameLocked freezes the final standings and announces the outcome.
// Caller must hold the lock.
func (s *RoomSession) finishGameLocked() {
	s.stopTurnTimersLocked()
	s.stopTransitionLocked()

	results := s.room.Finish()

	if results.Winner != nil {
		s.announceLocked(fmt.Sprintf("Game over! Winner: %s with %d points", results.Winner.Name, results.Winner.Score))
	} else {
		s.announceLocked("Game over!")
	}

	s.queueEvent(domain.NewEvent(domain.EventGameFinished, s.room.ID, results))
	s.queueEvent(domain.NewEvent(domain.EventRoomUpdated, s.room.ID, s.snapshotLocked()))
}

// stopTurnTimersLocked cancels the countdown and the all-guessed grace timer.
// Caller must hold the lock.
func (s *RoomSession) stopTurnTimersLocked() {
	if s.countdownStop != nil {
		close(s.countdownStop)
		s.countdownStop = nil
	}
	if s.graceTimer != nil {
		s.graceTimer.Stop()
		s.graceTimer = nil
	}
}

// stopTransitionLocked cancels a pending between-turns transition callback.
// Caller must hold the lock.
func (s *RoomSession) stopTransitionLocked() {
	if s.transitionTimer != nil {
		s.transitionTimer.Stop()
		s.transitionTimer = nil
	}
}
