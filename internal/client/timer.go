package client

import (
	"time"

	"quiz-master-client/internal/protocol"
)

// questionTimer owns one countdown. Starting a new question always stops
// the previous timer first; the generation counter makes late ticks from a
// replaced timer inert.
type questionTimer struct {
	ticker Ticker
	stop   chan struct{}
}

func (s *Session) startTimerLocked(index, seconds int) {
	s.stopTimerLocked()

	s.timerGen++
	gen := s.timerGen
	timer := &questionTimer{
		ticker: s.clock.NewTicker(time.Second),
		stop:   make(chan struct{}),
	}
	s.timer = timer

	go func() {
		remaining := seconds
		for {
			select {
			case <-timer.stop:
				return
			case <-timer.ticker.C():
				remaining--
				if done := s.tick(gen, index, remaining); done {
					return
				}
			}
		}
	}()
}

func (s *Session) stopTimerLocked() {
	if s.timer == nil {
		return
	}
	s.timer.ticker.Stop()
	close(s.timer.stop)
	s.timer = nil
}

// tick handles one second elapsing. At zero, exactly one auto-submit of
// the no-answer sentinel fires for an unanswered question; advancement to
// the next question stays server-driven.
func (s *Session) tick(gen, index, remaining int) (done bool) {
	s.mu.Lock()
	if s.timerGen != gen || s.phase != PhaseInGame || s.game == nil ||
		s.game.CurrentQuestionIndex != index {
		s.mu.Unlock()
		return true
	}
	if remaining < 0 {
		remaining = 0
	}
	s.publishLocked(Notice{
		Kind:          NoticeTimer,
		QuestionIndex: index,
		Seconds:       remaining,
		TimerState:    TimerStateFor(remaining),
	})

	if remaining > 0 {
		s.mu.Unlock()
		return false
	}

	s.stopTimerLocked()
	var submit *protocol.SubmitAnswerPayload
	if !s.answered {
		s.answered = true
		s.markSelfAnsweredLocked(false)
		submit = &protocol.SubmitAnswerPayload{
			GameCode:      s.room.Code,
			PlayerID:      s.selfID,
			QuestionIndex: index,
			SelectedIndex: protocol.NoAnswerIndex,
		}
		s.publishScoreboardLocked()
	}
	s.mu.Unlock()

	if submit != nil {
		s.emitAsync(protocol.EventSubmitAnswer, *submit)
	}
	return true
}
