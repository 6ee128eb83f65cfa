package client

import (
	"encoding/json"

	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/protocol"
)

// handleEvent applies one server broadcast to the session. Events that do
// not fit the current phase, or that reference unknown state, are dropped
// defensively; the session never crashes on malformed input.
func (s *Session) handleEvent(ev protocol.Event) {
	switch ev.Type {
	case protocol.EventGameCreated, protocol.EventGameJoined:
		var payload protocol.RoomSnapshotPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyRoomSnapshot(ev.Type, payload)
	case protocol.EventPlayerJoined:
		var payload protocol.PlayerJoinedPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyPlayerJoined(payload)
	case protocol.EventPlayerLeft:
		var payload protocol.PlayerLeftPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyPlayerLeft(payload)
	case protocol.EventPlayerReadyChanged:
		var payload protocol.PlayerReadyChangedPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyReadyChanged(payload)
	case protocol.EventNewHost:
		var payload protocol.NewHostPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyNewHost(payload)
	case protocol.EventGameStarting:
		var payload protocol.GameStartingPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyGameStarting(payload)
	case protocol.EventGameStarted:
		var payload protocol.GameStartedPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyGameStarted(payload)
	case protocol.EventNextQuestion:
		var payload protocol.NextQuestionPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyNextQuestion(payload)
	case protocol.EventPlayerAnswered:
		var payload protocol.PlayerAnsweredPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyPlayerAnswered(payload)
	case protocol.EventGameFinished:
		var payload protocol.GameFinishedPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.applyGameFinished(payload)
	case protocol.EventChatMessage:
		var payload protocol.ChatMessagePayload
		if !s.decode(ev, &payload) {
			return
		}
		s.mu.Lock()
		s.publishLocked(Notice{Kind: NoticeChat, Chat: &payload, Text: payload.Message})
		s.mu.Unlock()
	case protocol.EventGameError:
		var payload protocol.GameErrorPayload
		if !s.decode(ev, &payload) {
			return
		}
		s.mu.Lock()
		s.publishLocked(Notice{Kind: NoticeError, Text: payload.Message})
		s.mu.Unlock()
	default:
		s.violation(ev.Type, "unknown event")
	}
}

func (s *Session) decode(ev protocol.Event, out any) bool {
	if err := json.Unmarshal(ev.Payload, out); err != nil {
		s.violation(ev.Type, "bad payload: "+err.Error())
		return false
	}
	return true
}

func (s *Session) applyRoomSnapshot(event string, payload protocol.RoomSnapshotPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.room != nil && s.phase != PhaseIdle:
		if payload.GameCode != s.room.Code {
			s.violation(event, "code mismatch "+payload.GameCode)
			return
		}
	case s.awaitedSnapshotLocked(event, payload.GameCode):
		// The server sends the snapshot right behind the ack, so it can be
		// handled before the create/join caller reacquires the lock. Adopt
		// it; the pending caller finds the room installed and keeps it.
		s.room = &domain.Room{Code: payload.GameCode, Status: domain.RoomWaiting}
		s.setPhaseLocked(PhaseLobby)
	default:
		s.violation(event, "no room")
		return
	}
	// Authoritative snapshot: replace, never merge.
	s.room.HostID = payload.HostID
	s.room.Settings = payload.Settings
	s.room.Players = append([]domain.Player(nil), payload.Players...)
	s.publishRosterLocked()
}

// awaitedSnapshotLocked reports whether this snapshot answers the create or
// join request currently in flight.
func (s *Session) awaitedSnapshotLocked(event, code string) bool {
	if !s.pending {
		return false
	}
	if event == protocol.EventGameCreated {
		return s.pendingJoin == ""
	}
	return s.pendingJoin == code
}

func (s *Session) applyPlayerJoined(payload protocol.PlayerJoinedPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		s.violation(protocol.EventPlayerJoined, "no room")
		return
	}
	if existing, ok := s.room.FindPlayer(payload.Player.ID); ok {
		*existing = payload.Player
	} else {
		s.room.Players = append(s.room.Players, payload.Player)
	}
	s.publishRosterLocked()
}

func (s *Session) applyPlayerLeft(payload protocol.PlayerLeftPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		s.violation(protocol.EventPlayerLeft, "no room")
		return
	}
	players := s.room.Players[:0]
	for _, p := range s.room.Players {
		if p.ID != payload.PlayerID {
			players = append(players, p)
		}
	}
	s.room.Players = players
	s.publishRosterLocked()
}

func (s *Session) applyReadyChanged(payload protocol.PlayerReadyChangedPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		s.violation(protocol.EventPlayerReadyChanged, "no room")
		return
	}
	p, ok := s.room.FindPlayer(payload.PlayerID)
	if !ok {
		s.violation(protocol.EventPlayerReadyChanged, "unknown player "+payload.PlayerID)
		return
	}
	p.Ready = payload.Ready
	s.publishRosterLocked()
}

// applyNewHost flips exactly one IsHost; there is no client-side election.
func (s *Session) applyNewHost(payload protocol.NewHostPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		s.violation(protocol.EventNewHost, "no room")
		return
	}
	if _, ok := s.room.FindPlayer(payload.PlayerID); !ok {
		s.violation(protocol.EventNewHost, "unknown player "+payload.PlayerID)
		return
	}
	s.room.HostID = payload.PlayerID
	for i := range s.room.Players {
		s.room.Players[i].IsHost = s.room.Players[i].ID == payload.PlayerID
	}
	s.publishRosterLocked()
}

func (s *Session) applyGameStarting(payload protocol.GameStartingPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil || s.phase != PhaseLobby {
		s.violation(protocol.EventGameStarting, "phase "+s.phase.String())
		return
	}
	s.room.Status = domain.RoomStarting
	s.setPhaseLocked(PhaseStarting)
	s.publishLocked(Notice{Kind: NoticeCountdown, Seconds: payload.Countdown})
}

func (s *Session) applyGameStarted(payload protocol.GameStartedPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil || (s.phase != PhaseLobby && s.phase != PhaseStarting) {
		s.violation(protocol.EventGameStarted, "phase "+s.phase.String())
		return
	}
	if len(payload.Questions) == 0 || payload.TimePerQuestion <= 0 {
		s.violation(protocol.EventGameStarted, "empty question set")
		return
	}
	s.room.Status = domain.RoomInProgress
	if len(payload.Players) > 0 {
		s.room.Players = append([]domain.Player(nil), payload.Players...)
	}
	s.game = &domain.GameState{
		Questions:       payload.Questions,
		TimePerQuestion: payload.TimePerQuestion,
		Players:         append([]domain.Player(nil), s.room.Players...),
	}
	s.setPhaseLocked(PhaseInGame)
	s.loadQuestionLocked(0)
}

// applyNextQuestion only moves forward; the client never decides to
// advance on its own and ignores stale or out-of-range indices.
func (s *Session) applyNextQuestion(payload protocol.NextQuestionPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseInGame || s.game == nil {
		s.violation(protocol.EventNextQuestion, "phase "+s.phase.String())
		return
	}
	if payload.Index <= s.game.CurrentQuestionIndex || payload.Index > len(s.game.Questions) {
		s.violation(protocol.EventNextQuestion, "index out of order")
		return
	}
	s.loadQuestionLocked(payload.Index)
}

func (s *Session) applyPlayerAnswered(payload protocol.PlayerAnsweredPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		s.violation(protocol.EventPlayerAnswered, "no room")
		return
	}
	p, ok := s.room.FindPlayer(payload.PlayerID)
	if !ok {
		s.violation(protocol.EventPlayerAnswered, "unknown player "+payload.PlayerID)
		return
	}
	// Authoritative overwrite of any optimistic local increment.
	p.Score = payload.Score
	p.HasAnswered = true
	if s.game != nil {
		for i := range s.game.Players {
			if s.game.Players[i].ID == payload.PlayerID {
				s.game.Players[i].Score = payload.Score
				s.game.Players[i].HasAnswered = true
			}
		}
	}
	s.publishScoreboardLocked()
}

func (s *Session) applyGameFinished(payload protocol.GameFinishedPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		s.violation(protocol.EventGameFinished, "no room")
		return
	}
	players := payload.Players
	if len(players) == 0 && s.game != nil {
		// Disconnected-mid-game fallback: local snapshot.
		players = s.game.Players
	}
	s.finishLocked(players)
}

// loadQuestionLocked presents question index, or transitions to results
// when index is past the last question. Every path cancels the previous
// countdown before anything else happens.
func (s *Session) loadQuestionLocked(index int) {
	if s.game == nil {
		return
	}
	if index >= len(s.game.Questions) {
		s.finishLocked(s.game.Players)
		return
	}

	s.game.CurrentQuestionIndex = index
	s.answered = false
	s.lastCorrect = false
	for i := range s.room.Players {
		s.room.Players[i].HasAnswered = false
	}
	for i := range s.game.Players {
		s.game.Players[i].HasAnswered = false
	}

	s.startTimerLocked(index, s.game.TimePerQuestion)

	question := s.game.Questions[index]
	s.publishLocked(Notice{
		Kind:          NoticeQuestion,
		QuestionIndex: index,
		Question:      &question,
		Seconds:       s.game.TimePerQuestion,
	})
	s.publishScoreboardLocked()
}

func (s *Session) finishLocked(players []domain.Player) {
	s.stopTimerLocked()
	s.final = append([]domain.Player(nil), players...)
	if s.room != nil {
		s.room.Status = domain.RoomFinished
	}
	s.setPhaseLocked(PhaseFinished)
	summary := Results(s.final)
	s.publishLocked(Notice{Kind: NoticeResults, Results: &summary})
}
