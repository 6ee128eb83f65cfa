package client

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/protocol"
)

type emitted struct {
	Event   string
	Payload any
}

// fakeTransport records emits and replies with configured acks.
type fakeTransport struct {
	mu       sync.Mutex
	acks     map[string]protocol.Ack
	errs     map[string]error
	emits    chan emitted
	events   chan protocol.Event
	statuses chan Status
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		acks:     make(map[string]protocol.Ack),
		errs:     make(map[string]error),
		emits:    make(chan emitted, 32),
		events:   make(chan protocol.Event, 32),
		statuses: make(chan Status, 8),
	}
}

func (f *fakeTransport) Emit(_ context.Context, event string, payload any) (protocol.Ack, error) {
	f.mu.Lock()
	ack, ok := f.acks[event]
	err := f.errs[event]
	f.mu.Unlock()
	f.emits <- emitted{Event: event, Payload: payload}
	if err != nil {
		return protocol.Ack{}, err
	}
	if !ok {
		ack = protocol.Ack{Success: true}
	}
	return ack, nil
}

func (f *fakeTransport) Events() <-chan protocol.Event { return f.events }

func (f *fakeTransport) StatusChanges() <-chan Status { return f.statuses }

func (f *fakeTransport) Close() error { return nil }

func (f *fakeTransport) ackWith(event string, ack protocol.Ack) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acks[event] = ack
}

func (f *fakeTransport) failWith(event string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[event] = err
}

func (f *fakeTransport) nextEmit(t *testing.T) emitted {
	t.Helper()
	select {
	case e := <-f.emits:
		return e
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for emit")
		return emitted{}
	}
}

// manualClock feeds ticks by hand for deterministic countdowns.
type manualClock struct{ ch chan time.Time }

type manualTicker struct{ ch chan time.Time }

func newManualClock() *manualClock { return &manualClock{ch: make(chan time.Time)} }

func (c *manualClock) NewTicker(time.Duration) Ticker { return manualTicker{ch: c.ch} }

func (c *manualClock) tick() { c.ch <- time.Now() }

func (t manualTicker) C() <-chan time.Time { return t.ch }

func (manualTicker) Stop() {}

func event(t *testing.T, eventType string, payload any) protocol.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", eventType, err)
	}
	return protocol.Event{Type: eventType, Payload: raw}
}

func testSettings() domain.QuizSettings {
	return domain.QuizSettings{Category: "primary", Subject: "mathematics", Difficulty: "medium", QuestionCount: 2}
}

func testQuestions() []domain.Question {
	return []domain.Question{
		{Text: "What is 5 + 7?", Options: []string{"11", "12", "13", "14"}, CorrectOptionIndex: 1, Explanation: "5 + 7 equals 12."},
		{Text: "How many sides does a triangle have?", Options: []string{"2", "3", "4", "5"}, CorrectOptionIndex: 1, Explanation: "A triangle has 3 sides."},
	}
}

// lobbySession builds a two-player lobby with this client as host u1.
func lobbySession(t *testing.T, transport *fakeTransport, clock Clock) *Session {
	t.Helper()
	transport.ackWith(protocol.EventCreateGame, protocol.Ack{Success: true, GameCode: "X7K2"})

	session := NewSessionWithClock(transport, "u1", clock)
	if _, err := session.CreateRoom(context.Background(), "Alice", "🤖", testSettings()); err != nil {
		t.Fatalf("create room: %v", err)
	}
	transport.nextEmit(t)

	session.handleEvent(event(t, protocol.EventGameCreated, protocol.RoomSnapshotPayload{
		GameCode: "X7K2",
		HostID:   "u1",
		Settings: testSettings(),
		Players: []domain.Player{
			{ID: "u1", Name: "Alice", Avatar: "🤖", IsHost: true, JoinOrder: 0},
		},
	}))
	session.handleEvent(event(t, protocol.EventPlayerJoined, protocol.PlayerJoinedPayload{
		Player: domain.Player{ID: "u2", Name: "Bob", Avatar: "🦊", JoinOrder: 1},
	}))
	return session
}

func startGame(t *testing.T, session *Session, transport *fakeTransport) {
	t.Helper()
	session.handleEvent(event(t, protocol.EventPlayerReadyChanged, protocol.PlayerReadyChangedPayload{PlayerID: "u1", Ready: true}))
	session.handleEvent(event(t, protocol.EventPlayerReadyChanged, protocol.PlayerReadyChangedPayload{PlayerID: "u2", Ready: true}))
	session.handleEvent(event(t, protocol.EventGameStarted, protocol.GameStartedPayload{
		Questions:       testQuestions(),
		Players:         mustRoomPlayers(t, session),
		TimePerQuestion: 30,
	}))
	if session.Phase() != PhaseInGame {
		t.Fatalf("expected in_game phase, got %v", session.Phase())
	}
}

func mustRoomPlayers(t *testing.T, session *Session) []domain.Player {
	t.Helper()
	room, ok := session.Room()
	if !ok {
		t.Fatalf("expected a room")
	}
	return room.Players
}

func TestCreateRoomUsesServerCode(t *testing.T) {
	transport := newFakeTransport()
	transport.ackWith(protocol.EventCreateGame, protocol.Ack{Success: true, GameCode: "AB12"})

	session := NewSession(transport, "u1")
	room, err := session.CreateRoom(context.Background(), "", "🤖", testSettings())
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.Code != "AB12" {
		t.Fatalf("expected server code AB12, got %s", room.Code)
	}
	if len(room.Players) != 1 || !room.Players[0].IsHost {
		t.Fatalf("expected single host player, got %+v", room.Players)
	}
	if room.Players[0].Name != "Player" {
		t.Fatalf("expected default name Player, got %s", room.Players[0].Name)
	}

	sent := transport.nextEmit(t)
	if sent.Event != protocol.EventCreateGame {
		t.Fatalf("expected createGame emission, got %s", sent.Event)
	}
}

func TestCreateRoomFailureLeavesNoRoom(t *testing.T) {
	transport := newFakeTransport()
	transport.failWith(protocol.EventCreateGame, errors.New("dial tcp: timeout"))

	session := NewSession(transport, "u1")
	_, err := session.CreateRoom(context.Background(), "Alice", "🤖", testSettings())
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if _, ok := session.Room(); ok {
		t.Fatalf("expected no room after failed create")
	}
	if session.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase, got %v", session.Phase())
	}
}

func TestSecondCreateWhilePendingRejected(t *testing.T) {
	blocking := &blockingTransport{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	session := NewSession(blocking, "u1")

	firstDone := make(chan error, 1)
	go func() {
		_, err := session.CreateRoom(context.Background(), "Alice", "🤖", testSettings())
		firstDone <- err
	}()

	<-blocking.entered
	if _, err := session.CreateRoom(context.Background(), "Alice", "🤖", testSettings()); !errors.Is(err, domain.ErrRequestPending) {
		t.Fatalf("expected pending-request rejection, got %v", err)
	}

	close(blocking.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first create: %v", err)
	}
}

// blockingTransport parks the first Emit until released.
type blockingTransport struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingTransport) Emit(context.Context, string, any) (protocol.Ack, error) {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	<-b.release
	return protocol.Ack{Success: true, GameCode: "X7K2"}, nil
}

func (b *blockingTransport) Events() <-chan protocol.Event { return nil }

func (b *blockingTransport) StatusChanges() <-chan Status { return nil }

func (b *blockingTransport) Close() error { return nil }

func TestJoinRoomNormalizesCode(t *testing.T) {
	transport := newFakeTransport()
	session := NewSession(transport, "u2")

	if _, err := session.JoinRoom(context.Background(), "ab12", "Bob", "🦊"); err != nil {
		t.Fatalf("join room: %v", err)
	}
	sent := transport.nextEmit(t)
	payload, ok := sent.Payload.(protocol.JoinGamePayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", sent.Payload)
	}
	if payload.GameCode != "AB12" {
		t.Fatalf("expected uppercase AB12 on the wire, got %s", payload.GameCode)
	}
}

func TestJoinRoomRejectsMalformedCodeLocally(t *testing.T) {
	transport := newFakeTransport()
	session := NewSession(transport, "u2")

	for _, code := range []string{"", "abc", "ab123", "ab!2"} {
		if _, err := session.JoinRoom(context.Background(), code, "Bob", "🦊"); !errors.Is(err, domain.ErrInvalidRoomCode) {
			t.Fatalf("code %q: expected validation error, got %v", code, err)
		}
	}
	select {
	case sent := <-transport.emits:
		t.Fatalf("expected no network call for malformed codes, got %s", sent.Event)
	default:
	}
}

// earlySnapshotTransport hands the room snapshot to the session before the
// ack returns, the way a server that sends both back-to-back can be observed.
type earlySnapshotTransport struct {
	session   *Session
	eventType string
	snapshot  protocol.RoomSnapshotPayload
	ack       protocol.Ack
}

func (e *earlySnapshotTransport) Emit(_ context.Context, eventName string, _ any) (protocol.Ack, error) {
	if eventName == protocol.EventCreateGame || eventName == protocol.EventJoinGame {
		raw, err := json.Marshal(e.snapshot)
		if err != nil {
			return protocol.Ack{}, err
		}
		e.session.handleEvent(protocol.Event{Type: e.eventType, Payload: raw})
	}
	return e.ack, nil
}

func (e *earlySnapshotTransport) Events() <-chan protocol.Event { return nil }

func (e *earlySnapshotTransport) StatusChanges() <-chan Status { return nil }

func (e *earlySnapshotTransport) Close() error { return nil }

func TestJoinRoomAdoptsSnapshotArrivingBeforeAck(t *testing.T) {
	transport := &earlySnapshotTransport{
		eventType: protocol.EventGameJoined,
		ack:       protocol.Ack{Success: true, GameCode: "AB12"},
		snapshot: protocol.RoomSnapshotPayload{
			GameCode: "AB12",
			HostID:   "u1",
			Settings: testSettings(),
			Players: []domain.Player{
				{ID: "u1", Name: "Alice", IsHost: true, JoinOrder: 0},
				{ID: "u2", Name: "Bob", JoinOrder: 1},
			},
		},
	}
	session := NewSession(transport, "u2")
	transport.session = session

	room, err := session.JoinRoom(context.Background(), "ab12", "Bob", "🦊")
	if err != nil {
		t.Fatalf("join room: %v", err)
	}
	if len(room.Players) != 2 {
		t.Fatalf("expected the authoritative 2-player roster, got %+v", room.Players)
	}
	host, ok := room.FindPlayer("u1")
	if !ok || !host.IsHost {
		t.Fatalf("expected host u1 in the adopted roster, got %+v", room.Players)
	}

	// Follow-up events for the host must apply, not be dropped as unknown.
	session.handleEvent(event(t, protocol.EventPlayerReadyChanged, protocol.PlayerReadyChangedPayload{PlayerID: "u1", Ready: true}))
	room, _ = session.Room()
	host, _ = room.FindPlayer("u1")
	if !host.Ready {
		t.Fatalf("expected ready change for u1 applied to the adopted roster")
	}
}

func TestCreateRoomAdoptsSnapshotArrivingBeforeAck(t *testing.T) {
	transport := &earlySnapshotTransport{
		eventType: protocol.EventGameCreated,
		ack:       protocol.Ack{Success: true, GameCode: "QW34"},
		snapshot: protocol.RoomSnapshotPayload{
			GameCode: "QW34",
			HostID:   "u1",
			Settings: testSettings(),
			Players: []domain.Player{
				{ID: "u1", Name: "Alice", Avatar: "🤖", IsHost: true, JoinOrder: 0},
			},
		},
	}
	session := NewSession(transport, "u1")
	transport.session = session

	room, err := session.CreateRoom(context.Background(), "Alice", "🤖", testSettings())
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	if room.Code != "QW34" || room.HostID != "u1" {
		t.Fatalf("expected adopted snapshot room, got %+v", room)
	}
	if len(room.Players) != 1 || room.Players[0].JoinOrder != 0 {
		t.Fatalf("expected the server roster, got %+v", room.Players)
	}
	if session.Phase() != PhaseLobby {
		t.Fatalf("expected lobby phase, got %v", session.Phase())
	}
}

func TestSnapshotForUnrequestedRoomStillDropped(t *testing.T) {
	transport := newFakeTransport()
	session := NewSession(transport, "u2")

	session.handleEvent(event(t, protocol.EventGameJoined, protocol.RoomSnapshotPayload{
		GameCode: "ZZ99",
		HostID:   "u1",
		Players:  []domain.Player{{ID: "u1", IsHost: true}},
	}))
	if _, ok := session.Room(); ok {
		t.Fatalf("expected unsolicited snapshot dropped")
	}
	if session.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase, got %v", session.Phase())
	}
}

func TestJoinRoomDistinguishesFailures(t *testing.T) {
	transport := newFakeTransport()
	transport.ackWith(protocol.EventJoinGame, protocol.Ack{Success: false, Error: "room not found"})
	session := NewSession(transport, "u2")
	if _, err := session.JoinRoom(context.Background(), "AB12", "Bob", "🦊"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected room-not-found, got %v", err)
	}
	transport.nextEmit(t)

	transport.ackWith(protocol.EventJoinGame, protocol.Ack{Success: false, Error: "game already started"})
	session = NewSession(transport, "u2")
	if _, err := session.JoinRoom(context.Background(), "AB12", "Bob", "🦊"); !errors.Is(err, domain.ErrGameInProgress) {
		t.Fatalf("expected game-in-progress, got %v", err)
	}
}

func TestStartGameGating(t *testing.T) {
	transport := newFakeTransport()
	transport.ackWith(protocol.EventCreateGame, protocol.Ack{Success: true, GameCode: "X7K2"})
	session := NewSession(transport, "u1")
	if _, err := session.CreateRoom(context.Background(), "Alice", "🤖", testSettings()); err != nil {
		t.Fatalf("create room: %v", err)
	}
	transport.nextEmit(t)

	// Alone in the room: too few players regardless of readiness.
	if err := session.StartGame(context.Background()); !errors.Is(err, domain.ErrTooFewPlayers) {
		t.Fatalf("expected too-few-players, got %v", err)
	}

	session.handleEvent(event(t, protocol.EventPlayerJoined, protocol.PlayerJoinedPayload{
		Player: domain.Player{ID: "u2", Name: "Bob", JoinOrder: 1},
	}))
	if err := session.StartGame(context.Background()); !errors.Is(err, domain.ErrNotAllReady) {
		t.Fatalf("expected not-all-ready with 2 players, got %v", err)
	}
	if session.CanStart() {
		t.Fatalf("start gating should be closed while players are not ready")
	}

	session.handleEvent(event(t, protocol.EventPlayerReadyChanged, protocol.PlayerReadyChangedPayload{PlayerID: "u1", Ready: true}))
	session.handleEvent(event(t, protocol.EventPlayerReadyChanged, protocol.PlayerReadyChangedPayload{PlayerID: "u2", Ready: true}))
	if !session.CanStart() {
		t.Fatalf("start gating should be open with 2 ready players")
	}

	if err := session.StartGame(context.Background()); err != nil {
		t.Fatalf("start game: %v", err)
	}
	sent := transport.nextEmit(t)
	if sent.Event != protocol.EventStartGame {
		t.Fatalf("expected startGame emission, got %s", sent.Event)
	}
	payload := sent.Payload.(protocol.StartGamePayload)
	if payload.GameCode != "X7K2" {
		t.Fatalf("expected gameCode X7K2, got %s", payload.GameCode)
	}
}

func TestStartGameRejectedForNonHost(t *testing.T) {
	transport := newFakeTransport()
	session := NewSession(transport, "u2")
	if _, err := session.JoinRoom(context.Background(), "X7K2", "Bob", "🦊"); err != nil {
		t.Fatalf("join: %v", err)
	}
	transport.nextEmit(t)
	session.handleEvent(event(t, protocol.EventGameJoined, protocol.RoomSnapshotPayload{
		GameCode: "X7K2",
		HostID:   "u1",
		Players: []domain.Player{
			{ID: "u1", Name: "Alice", IsHost: true, Ready: true, JoinOrder: 0},
			{ID: "u2", Name: "Bob", Ready: true, JoinOrder: 1},
		},
	}))

	if err := session.StartGame(context.Background()); !errors.Is(err, domain.ErrNotHost) {
		t.Fatalf("expected non-host rejection, got %v", err)
	}
}

func TestSelectAnswerIdempotent(t *testing.T) {
	transport := newFakeTransport()
	session := lobbySession(t, transport, newManualClock())
	startGame(t, session, transport)

	correct, err := session.SelectAnswer(context.Background(), 1)
	if err != nil {
		t.Fatalf("select answer: %v", err)
	}
	if !correct {
		t.Fatalf("expected option 1 to be correct")
	}
	sent := transport.nextEmit(t)
	if sent.Event != protocol.EventSubmitAnswer {
		t.Fatalf("expected submitAnswer, got %s", sent.Event)
	}

	room, _ := session.Room()
	self, _ := room.FindPlayer("u1")
	if self.Score != PointsPerCorrect {
		t.Fatalf("expected optimistic score %d, got %d", PointsPerCorrect, self.Score)
	}

	// Second call for the same question: no scoring effect, no new emit.
	if again, err := session.SelectAnswer(context.Background(), 3); err != nil || !again {
		t.Fatalf("expected idempotent repeat reporting first correctness, got %v %v", again, err)
	}
	room, _ = session.Room()
	self, _ = room.FindPlayer("u1")
	if self.Score != PointsPerCorrect {
		t.Fatalf("expected unchanged score, got %d", self.Score)
	}
	select {
	case sent := <-transport.emits:
		t.Fatalf("expected no second submission, got %s", sent.Event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPlayerAnsweredOverridesOptimisticScore(t *testing.T) {
	transport := newFakeTransport()
	session := lobbySession(t, transport, newManualClock())
	startGame(t, session, transport)

	if _, err := session.SelectAnswer(context.Background(), 1); err != nil {
		t.Fatalf("select answer: %v", err)
	}
	transport.nextEmit(t)

	// The server awarded a different total; the broadcast wins.
	session.handleEvent(event(t, protocol.EventPlayerAnswered, protocol.PlayerAnsweredPayload{PlayerID: "u1", Score: 40}))
	room, _ := session.Room()
	self, _ := room.FindPlayer("u1")
	if self.Score != 40 {
		t.Fatalf("expected authoritative score 40, got %d", self.Score)
	}
}

func TestTimerAutoSubmitsSentinelOnce(t *testing.T) {
	transport := newFakeTransport()
	clock := newManualClock()
	session := lobbySession(t, transport, clock)
	startGame(t, session, transport)

	for i := 0; i < 30; i++ {
		clock.tick()
	}

	sent := transport.nextEmit(t)
	if sent.Event != protocol.EventSubmitAnswer {
		t.Fatalf("expected auto-submit, got %s", sent.Event)
	}
	payload := sent.Payload.(protocol.SubmitAnswerPayload)
	if payload.SelectedIndex != protocol.NoAnswerIndex {
		t.Fatalf("expected no-answer sentinel, got %d", payload.SelectedIndex)
	}
	if payload.QuestionIndex != 0 {
		t.Fatalf("expected question 0, got %d", payload.QuestionIndex)
	}

	select {
	case extra := <-transport.emits:
		t.Fatalf("expected exactly one auto-submit, got extra %s", extra.Event)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerDisplayThresholds(t *testing.T) {
	if got := TimerStateFor(11); got != TimerNormal {
		t.Fatalf("11s should be normal, got %v", got)
	}
	if got := TimerStateFor(10); got != TimerWarning {
		t.Fatalf("10s should be warning, got %v", got)
	}
	if got := TimerStateFor(6); got != TimerWarning {
		t.Fatalf("6s should be warning, got %v", got)
	}
	if got := TimerStateFor(5); got != TimerDanger {
		t.Fatalf("5s should be danger, got %v", got)
	}
	if got := TimerStateFor(0); got != TimerDanger {
		t.Fatalf("0s should be danger, got %v", got)
	}
}

func TestNextQuestionAdvancesForwardOnly(t *testing.T) {
	transport := newFakeTransport()
	session := lobbySession(t, transport, newManualClock())
	startGame(t, session, transport)

	session.handleEvent(event(t, protocol.EventNextQuestion, protocol.NextQuestionPayload{Index: 1}))
	game, _ := session.Game()
	if game.CurrentQuestionIndex != 1 {
		t.Fatalf("expected question 1, got %d", game.CurrentQuestionIndex)
	}

	// Stale or backward indices are dropped.
	session.handleEvent(event(t, protocol.EventNextQuestion, protocol.NextQuestionPayload{Index: 0}))
	game, _ = session.Game()
	if game.CurrentQuestionIndex != 1 {
		t.Fatalf("expected backward advance rejected, got %d", game.CurrentQuestionIndex)
	}
}

func TestLoadQuestionPastEndFinishes(t *testing.T) {
	transport := newFakeTransport()
	session := lobbySession(t, transport, newManualClock())
	startGame(t, session, transport)

	session.handleEvent(event(t, protocol.EventNextQuestion, protocol.NextQuestionPayload{Index: 1}))
	session.handleEvent(event(t, protocol.EventNextQuestion, protocol.NextQuestionPayload{Index: 2}))

	if session.Phase() != PhaseFinished {
		t.Fatalf("expected finished phase past the last question, got %v", session.Phase())
	}
	summary := session.FinalResults()
	if len(summary.Entries) != 2 {
		t.Fatalf("expected 2 final entries, got %d", len(summary.Entries))
	}
}

func TestNextQuestionWhileIdleIsIgnored(t *testing.T) {
	transport := newFakeTransport()
	session := NewSession(transport, "u1")

	session.handleEvent(event(t, protocol.EventNextQuestion, protocol.NextQuestionPayload{Index: 1}))
	if session.Phase() != PhaseIdle {
		t.Fatalf("expected idle session to ignore nextQuestion, got %v", session.Phase())
	}
}

func TestSingleHostInvariantOnHandover(t *testing.T) {
	transport := newFakeTransport()
	session := lobbySession(t, transport, newManualClock())

	session.handleEvent(event(t, protocol.EventPlayerJoined, protocol.PlayerJoinedPayload{
		Player: domain.Player{ID: "u3", Name: "Cara", JoinOrder: 2},
	}))
	session.handleEvent(event(t, protocol.EventNewHost, protocol.NewHostPayload{PlayerID: "u2"}))

	room, _ := session.Room()
	hosts := 0
	for _, p := range room.Players {
		if p.IsHost {
			hosts++
			if p.ID != "u2" {
				t.Fatalf("expected u2 to be host, got %s", p.ID)
			}
		}
	}
	if hosts != 1 {
		t.Fatalf("expected exactly one host, got %d", hosts)
	}
	if room.HostID != "u2" {
		t.Fatalf("expected hostId u2, got %s", room.HostID)
	}
}

func TestGameFinishedWithEmptyPayloadFallsBackToLocal(t *testing.T) {
	transport := newFakeTransport()
	session := lobbySession(t, transport, newManualClock())
	startGame(t, session, transport)

	session.handleEvent(event(t, protocol.EventGameFinished, protocol.GameFinishedPayload{}))
	if session.Phase() != PhaseFinished {
		t.Fatalf("expected finished phase, got %v", session.Phase())
	}
	summary := session.FinalResults()
	if len(summary.Entries) != 2 || summary.Winner == nil {
		t.Fatalf("expected local fallback results, got %+v", summary)
	}
}

func TestLeaveRoomReleasesStateSynchronously(t *testing.T) {
	transport := newFakeTransport()
	session := lobbySession(t, transport, newManualClock())
	startGame(t, session, transport)

	session.LeaveRoom()
	if _, ok := session.Room(); ok {
		t.Fatalf("expected room released")
	}
	if _, ok := session.Game(); ok {
		t.Fatalf("expected game state released")
	}
	if session.Phase() != PhaseIdle {
		t.Fatalf("expected idle phase, got %v", session.Phase())
	}
}
