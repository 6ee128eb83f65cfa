package server

import (
	"encoding/json"
	"sync"
	"time"

	"quiz-master-client/internal/chans"
	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/protocol"
)

// Room is the authoritative server-side session for one game code. All
// clients mirror what it broadcasts; it never trusts client-side state.
type Room struct {
	code string

	mu          sync.Mutex
	hostID      string
	settings    domain.QuizSettings
	status      domain.RoomStatus
	players     []domain.Player
	questions   []domain.Question
	current     int
	answered    map[string]bool
	advance     chan struct{}
	advanced    bool
	subscribers map[chan protocol.Event]struct{}
}

func newRoom(code string, settings domain.QuizSettings, host domain.Player) *Room {
	host.IsHost = true
	host.JoinOrder = 0
	return &Room{
		code:        code,
		hostID:      host.ID,
		settings:    settings,
		status:      domain.RoomWaiting,
		players:     []domain.Player{host},
		answered:    make(map[string]bool),
		subscribers: make(map[chan protocol.Event]struct{}),
	}
}

// Code returns the room's 4-character identifier.
func (r *Room) Code() string { return r.code }

// Snapshot returns the authoritative roster for gameCreated/gameJoined.
func (r *Room) Snapshot() protocol.RoomSnapshotPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return protocol.RoomSnapshotPayload{
		GameCode: r.code,
		HostID:   r.hostID,
		Settings: r.settings,
		Players:  append([]domain.Player(nil), r.players...),
	}
}

// IsEmpty reports whether no players remain.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0
}

// Subscribe registers a listener for this room's broadcasts. The caller
// must invoke cancel to avoid leaks.
func (r *Room) Subscribe() (<-chan protocol.Event, func()) {
	ch := make(chan protocol.Event, 32)
	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

func (r *Room) join(player domain.Player) (protocol.RoomSnapshotPayload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing := r.findLocked(player.ID); existing != nil {
		// Rejoin with the same persisted id: refresh the profile, keep the
		// recorded score and position.
		existing.Name = player.Name
		existing.Avatar = player.Avatar
		return r.snapshotLocked(), nil
	}
	if r.status != domain.RoomWaiting {
		return protocol.RoomSnapshotPayload{}, domain.ErrGameInProgress
	}

	player.IsHost = false
	player.Ready = false
	player.Score = 0
	player.JoinOrder = r.nextJoinOrderLocked()
	r.players = append(r.players, player)
	r.broadcastLocked(protocol.EventPlayerJoined, protocol.PlayerJoinedPayload{Player: player})
	return r.snapshotLocked(), nil
}

func (r *Room) leave(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	players := r.players[:0]
	for _, p := range r.players {
		if p.ID == playerID {
			found = true
			continue
		}
		players = append(players, p)
	}
	if !found {
		return
	}
	r.players = players
	delete(r.answered, playerID)
	r.broadcastLocked(protocol.EventPlayerLeft, protocol.PlayerLeftPayload{PlayerID: playerID})

	if r.hostID == playerID && len(r.players) > 0 {
		// No election: the earliest remaining joiner becomes host and the
		// decision is broadcast.
		next := &r.players[0]
		for i := range r.players {
			if r.players[i].JoinOrder < next.JoinOrder {
				next = &r.players[i]
			}
		}
		r.hostID = next.ID
		for i := range r.players {
			r.players[i].IsHost = r.players[i].ID == r.hostID
		}
		r.broadcastLocked(protocol.EventNewHost, protocol.NewHostPayload{PlayerID: r.hostID})
	}
	r.checkAdvanceLocked()
}

func (r *Room) setReady(playerID string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(playerID)
	if p == nil {
		return domain.ErrNotInRoom
	}
	p.Ready = ready
	r.broadcastLocked(protocol.EventPlayerReadyChanged, protocol.PlayerReadyChangedPayload{
		PlayerID: playerID,
		Ready:    ready,
	})
	return nil
}

// validateStart re-checks the gating server-side; client state may be stale.
func (r *Room) validateStart(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != domain.RoomWaiting {
		return domain.ErrGameInProgress
	}
	if playerID != r.hostID {
		return domain.ErrNotHost
	}
	if len(r.players) < 2 {
		return domain.ErrTooFewPlayers
	}
	for _, p := range r.players {
		if !p.Ready {
			return domain.ErrNotAllReady
		}
	}
	return nil
}

func (r *Room) beginStarting(questions []domain.Question) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = domain.RoomStarting
	r.questions = questions
}

func (r *Room) beginQuestion(index int) (remaining int, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index >= len(r.questions) || len(r.players) == 0 {
		return 0, true
	}
	r.current = index
	r.answered = make(map[string]bool)
	r.advance = make(chan struct{})
	r.advanced = false
	for i := range r.players {
		r.players[i].HasAnswered = false
	}
	if r.status == domain.RoomStarting {
		r.status = domain.RoomInProgress
	} else {
		r.broadcastLocked(protocol.EventNextQuestion, protocol.NextQuestionPayload{Index: index})
	}
	return len(r.players), false
}

func (r *Room) advanceSignal() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.advance
}

func (r *Room) submitAnswer(playerID string, questionIndex, selectedIndex, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != domain.RoomInProgress {
		return domain.ErrGameInProgress
	}
	if questionIndex != r.current {
		// Late or stale submission; the aggregate has moved on.
		return nil
	}
	p := r.findLocked(playerID)
	if p == nil {
		return domain.ErrNotInRoom
	}
	if r.answered[playerID] {
		return nil
	}
	r.answered[playerID] = true
	p.HasAnswered = true

	question := r.questions[questionIndex]
	if selectedIndex >= 0 && selectedIndex < len(question.Options) &&
		selectedIndex == question.CorrectOptionIndex {
		p.Score += points
	}
	r.broadcastLocked(protocol.EventPlayerAnswered, protocol.PlayerAnsweredPayload{
		PlayerID: playerID,
		Score:    p.Score,
	})
	r.checkAdvanceLocked()
	return nil
}

// checkAdvanceLocked releases the game loop once every remaining player
// has a recorded response for the current question.
func (r *Room) checkAdvanceLocked() {
	if r.status != domain.RoomInProgress || r.advance == nil || r.advanced {
		return
	}
	for _, p := range r.players {
		if !r.answered[p.ID] {
			return
		}
	}
	r.advanced = true
	close(r.advance)
}

func (r *Room) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = domain.RoomFinished
	r.broadcastLocked(protocol.EventGameFinished, protocol.GameFinishedPayload{
		Players: append([]domain.Player(nil), r.players...),
	})
}

func (r *Room) broadcast(eventType string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(eventType, payload)
}

func (r *Room) broadcastLocked(eventType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	ev := protocol.Event{Type: eventType, Payload: raw}
	for ch := range r.subscribers {
		// Drop the oldest update rather than block the room on a slow
		// subscriber.
		chans.OfferLatest(ch, ev)
	}
}

func (r *Room) snapshotLocked() protocol.RoomSnapshotPayload {
	return protocol.RoomSnapshotPayload{
		GameCode: r.code,
		HostID:   r.hostID,
		Settings: r.settings,
		Players:  append([]domain.Player(nil), r.players...),
	}
}

func (r *Room) findLocked(playerID string) *domain.Player {
	for i := range r.players {
		if r.players[i].ID == playerID {
			return &r.players[i]
		}
	}
	return nil
}

func (r *Room) nextJoinOrderLocked() int {
	next := 0
	for _, p := range r.players {
		if p.JoinOrder >= next {
			next = p.JoinOrder + 1
		}
	}
	return next
}

// waitAnswers blocks until all players answered or the deadline passes.
func (r *Room) waitAnswers(timeout time.Duration) {
	signal := r.advanceSignal()
	if signal == nil {
		return
	}
	select {
	case <-signal:
	case <-time.After(timeout):
	}
}
