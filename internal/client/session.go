// Package client implements the multiplayer session core: room lifecycle,
// readiness gating, server-driven question progression and score
// reconciliation against an authoritative server.
package client

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"quiz-master-client/internal/chans"
	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/protocol"
)

// Phase is the explicit session state machine. Events that do not fit the
// current phase are dropped as protocol violations instead of applied.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLobby
	PhaseStarting
	PhaseInGame
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLobby:
		return "lobby"
	case PhaseStarting:
		return "starting"
	case PhaseInGame:
		return "in_game"
	default:
		return "finished"
	}
}

// NoticeKind tags updates pushed to the UI collaborator.
type NoticeKind int

const (
	NoticePhase NoticeKind = iota
	NoticeConnection
	NoticeRoster
	NoticeCountdown
	NoticeQuestion
	NoticeTimer
	NoticeScoreboard
	NoticeResults
	NoticeChat
	NoticeError
)

// Notice is a single UI-facing update. Only the fields relevant to Kind
// are populated.
type Notice struct {
	Kind          NoticeKind
	Text          string
	Phase         Phase
	Status        Status
	Seconds       int
	TimerState    TimerState
	QuestionIndex int
	Question      *domain.Question
	Standings     []StandingEntry
	Results       *ResultSummary
	Chat          *protocol.ChatMessagePayload
}

// PointsPerCorrect is the score increment for a correct answer.
const PointsPerCorrect = 10

const defaultEmitTimeout = 5 * time.Second

// Session owns the client-side view of one multiplayer game. All state is
// mutated either by UI-triggered calls or by events consumed in Run; the
// server remains authoritative and its snapshots always replace local
// predictions.
type Session struct {
	transport   Transport
	clock       Clock
	logger      *log.Logger
	emitTimeout time.Duration

	selfID     string
	selfName   string
	selfAvatar string

	mu          sync.Mutex
	phase       Phase
	status      Status
	room        *domain.Room
	game        *domain.GameState
	final       []domain.Player
	pending     bool
	pendingJoin string
	answered    bool
	lastCorrect bool
	timerGen    int
	timer       *questionTimer
	notices     chan Notice
}

// NewSession builds a session for the given persisted player id.
func NewSession(transport Transport, playerID string) *Session {
	return NewSessionWithClock(transport, playerID, realClock{})
}

// NewSessionWithClock is test-only for deterministic countdowns.
func NewSessionWithClock(transport Transport, playerID string, clock Clock) *Session {
	return &Session{
		transport:   transport,
		clock:       clock,
		logger:      log.Default(),
		emitTimeout: defaultEmitTimeout,
		selfID:      playerID,
		phase:       PhaseIdle,
		status:      StatusConnecting,
		notices:     make(chan Notice, 64),
	}
}

// Notices returns the stream of UI updates. Slow consumers lose the oldest
// update rather than blocking the session.
func (s *Session) Notices() <-chan Notice { return s.notices }

// Run consumes transport events and status changes until ctx is done or
// the transport closes its event stream.
func (s *Session) Run(ctx context.Context) {
	events := s.transport.Events()
	statuses := s.transport.StatusChanges()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				s.setStatus(StatusDisconnected)
				return
			}
			s.handleEvent(ev)
		case st, ok := <-statuses:
			if !ok {
				statuses = nil
				continue
			}
			s.setStatus(st)
		}
	}
}

// Phase returns the current state machine phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ConnectionStatus returns the last observed transport status.
func (s *Session) ConnectionStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Room returns a copy of the current room view, if any.
func (s *Session) Room() (domain.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return domain.Room{}, false
	}
	return copyRoom(s.room), true
}

// Game returns a copy of the in-progress game state, if any.
func (s *Session) Game() (domain.GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.game == nil {
		return domain.GameState{}, false
	}
	game := *s.game
	game.Questions = append([]domain.Question(nil), s.game.Questions...)
	game.Players = append([]domain.Player(nil), s.game.Players...)
	return game, true
}

// PlayerID returns the persisted identity this session acts as.
func (s *Session) PlayerID() string { return s.selfID }

// NormalizeRoomCode uppercases and validates a user-entered room code
// before any network call.
func NormalizeRoomCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 4 {
		return "", domain.ErrInvalidRoomCode
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", domain.ErrInvalidRoomCode
		}
	}
	return code, nil
}

// CreateRoom asks the server to open a room and enters the lobby as host.
// A second call while one is pending is rejected, and a failed request
// leaves no room behind.
func (s *Session) CreateRoom(ctx context.Context, name, avatar string, settings domain.QuizSettings) (domain.Room, error) {
	name = playerNameOrDefault(name)

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return domain.Room{}, domain.ErrRequestPending
	}
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return domain.Room{}, domain.ErrAlreadyInRoom
	}
	s.pending = true
	s.selfName, s.selfAvatar = name, avatar
	s.mu.Unlock()

	ack, err := s.emit(ctx, protocol.EventCreateGame, protocol.CreateGamePayload{
		PlayerID:   s.selfID,
		PlayerName: name,
		Avatar:     avatar,
		Settings:   settings,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	if err != nil {
		s.clearEntryLocked()
		return domain.Room{}, fmt.Errorf("create room: %w: %v", domain.ErrTransport, err)
	}
	if !ack.Success {
		s.clearEntryLocked()
		return domain.Room{}, fmt.Errorf("create room: %w: %s", domain.ErrTransport, ack.Error)
	}

	// The gameCreated snapshot may already be applied if it outran the ack;
	// keep it. Otherwise install the optimistic view under the authoritative
	// server-assigned code until the snapshot lands.
	if s.room == nil || s.room.Code != ack.GameCode {
		s.room = &domain.Room{
			Code:     ack.GameCode,
			HostID:   s.selfID,
			Settings: settings,
			Status:   domain.RoomWaiting,
			Players: []domain.Player{{
				ID:     s.selfID,
				Name:   name,
				Avatar: avatar,
				IsHost: true,
			}},
		}
	}
	s.setPhaseLocked(PhaseLobby)
	return copyRoom(s.room), nil
}

// JoinRoom validates the code locally, then joins and adopts the server's
// roster. Distinct errors separate a bad code, an unknown room, a started
// game and an unreachable server.
func (s *Session) JoinRoom(ctx context.Context, code, name, avatar string) (domain.Room, error) {
	normalized, err := NormalizeRoomCode(code)
	if err != nil {
		return domain.Room{}, err
	}
	name = playerNameOrDefault(name)

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return domain.Room{}, domain.ErrRequestPending
	}
	if s.phase != PhaseIdle {
		s.mu.Unlock()
		return domain.Room{}, domain.ErrAlreadyInRoom
	}
	s.pending = true
	s.pendingJoin = normalized
	s.selfName, s.selfAvatar = name, avatar
	s.mu.Unlock()

	ack, emitErr := s.emit(ctx, protocol.EventJoinGame, protocol.JoinGamePayload{
		GameCode:   normalized,
		PlayerID:   s.selfID,
		PlayerName: name,
		Avatar:     avatar,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false
	s.pendingJoin = ""
	if emitErr != nil {
		s.clearEntryLocked()
		return domain.Room{}, fmt.Errorf("join room: %w: %v", domain.ErrTransport, emitErr)
	}
	if !ack.Success {
		s.clearEntryLocked()
		return domain.Room{}, joinError(ack.Error)
	}

	// The gameJoined snapshot may already be applied if it outran the ack;
	// keep it. Otherwise hold a minimal local view until it arrives; the
	// server roster is never fabricated client-side.
	if s.room == nil {
		s.room = &domain.Room{
			Code:   normalized,
			Status: domain.RoomWaiting,
			Players: []domain.Player{{
				ID:     s.selfID,
				Name:   name,
				Avatar: avatar,
			}},
		}
	}
	s.setPhaseLocked(PhaseLobby)
	return copyRoom(s.room), nil
}

// SetReady toggles this player's readiness. The server broadcast remains
// the source of truth; the local flip is optimistic.
func (s *Session) SetReady(ctx context.Context, ready bool) error {
	s.mu.Lock()
	if s.room == nil || s.phase != PhaseLobby {
		s.mu.Unlock()
		return domain.ErrNotInRoom
	}
	code := s.room.Code
	s.mu.Unlock()

	ack, err := s.emit(ctx, protocol.EventPlayerReady, protocol.PlayerReadyPayload{
		GameCode: code,
		PlayerID: s.selfID,
		Ready:    ready,
	})
	if err != nil {
		return fmt.Errorf("set ready: %w: %v", domain.ErrTransport, err)
	}
	if !ack.Success {
		return fmt.Errorf("set ready: %w: %s", domain.ErrTransport, ack.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != nil {
		if p, ok := s.room.FindPlayer(s.selfID); ok {
			p.Ready = ready
		}
		s.publishRosterLocked()
	}
	return nil
}

// CanStart reports the advisory host gating: at least two players and
// every player ready. The server re-validates on the actual start.
func (s *Session) CanStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room != nil && canStart(s.room.Players)
}

func canStart(players []domain.Player) bool {
	if len(players) < 2 {
		return false
	}
	for _, p := range players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// StartGame requests a game start. Only the host may call it, and the
// gating failures are reported distinctly.
func (s *Session) StartGame(ctx context.Context) error {
	s.mu.Lock()
	if s.room == nil || s.phase != PhaseLobby {
		s.mu.Unlock()
		return domain.ErrNotInRoom
	}
	self, ok := s.room.FindPlayer(s.selfID)
	if !ok || !self.IsHost {
		s.mu.Unlock()
		return domain.ErrNotHost
	}
	if len(s.room.Players) < 2 {
		s.mu.Unlock()
		return domain.ErrTooFewPlayers
	}
	for _, p := range s.room.Players {
		if !p.Ready {
			s.mu.Unlock()
			return domain.ErrNotAllReady
		}
	}
	code := s.room.Code
	s.mu.Unlock()

	ack, err := s.emit(ctx, protocol.EventStartGame, protocol.StartGamePayload{
		GameCode: code,
		PlayerID: s.selfID,
	})
	if err != nil {
		return fmt.Errorf("start game: %w: %v", domain.ErrTransport, err)
	}
	if !ack.Success {
		return fmt.Errorf("start game: %w: %s", domain.ErrTransport, ack.Error)
	}
	return nil
}

// SelectAnswer records the local player's answer for the current question.
// Only the first selection counts; repeated calls report the original
// correctness without further effect. The returned correctness is local
// feedback; the next playerAnswered broadcast overwrites the score.
func (s *Session) SelectAnswer(ctx context.Context, optionIndex int) (bool, error) {
	s.mu.Lock()
	if s.phase != PhaseInGame || s.game == nil || s.room == nil {
		s.mu.Unlock()
		return false, domain.ErrNotInRoom
	}
	if s.answered {
		correct := s.lastCorrect
		s.mu.Unlock()
		return correct, nil
	}

	index := s.game.CurrentQuestionIndex
	question := s.game.Questions[index]
	correct := optionIndex >= 0 && optionIndex < len(question.Options) &&
		optionIndex == question.CorrectOptionIndex

	s.answered = true
	s.lastCorrect = correct
	s.markSelfAnsweredLocked(correct)
	code := s.room.Code
	s.publishScoreboardLocked()
	s.mu.Unlock()

	_, err := s.emit(ctx, protocol.EventSubmitAnswer, protocol.SubmitAnswerPayload{
		GameCode:      code,
		PlayerID:      s.selfID,
		QuestionIndex: index,
		SelectedIndex: optionIndex,
	})
	if err != nil {
		// The answer stays recorded locally; the server reconciles on the
		// next authoritative snapshot.
		return correct, fmt.Errorf("submit answer: %w: %v", domain.ErrTransport, err)
	}
	return correct, nil
}

// SendChat relays a chat line to the room.
func (s *Session) SendChat(ctx context.Context, message string) error {
	s.mu.Lock()
	if s.room == nil {
		s.mu.Unlock()
		return domain.ErrNotInRoom
	}
	code := s.room.Code
	name := s.selfName
	s.mu.Unlock()

	if strings.TrimSpace(message) == "" {
		return nil
	}
	_, err := s.emit(ctx, protocol.EventChatMessage, protocol.ChatMessagePayload{
		GameCode:   code,
		Message:    message,
		PlayerName: name,
		PlayerID:   s.selfID,
	})
	if err != nil {
		return fmt.Errorf("send chat: %w: %v", domain.ErrTransport, err)
	}
	return nil
}

// LeaveRoom releases the timer and all local room/game state synchronously,
// regardless of connectivity, then notifies the server best-effort.
func (s *Session) LeaveRoom() {
	s.mu.Lock()
	var code string
	if s.room != nil {
		code = s.room.Code
	}
	s.stopTimerLocked()
	s.room = nil
	s.game = nil
	s.final = nil
	s.answered = false
	s.pending = false
	s.pendingJoin = ""
	s.setPhaseLocked(PhaseIdle)
	s.mu.Unlock()

	if code == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.emitTimeout)
		defer cancel()
		if _, err := s.transport.Emit(ctx, protocol.EventLeaveGame, protocol.LeaveGamePayload{
			GameCode: code,
			PlayerID: s.selfID,
		}); err != nil {
			s.logger.Printf("leave room %s: %v", code, err)
		}
	}()
}

// Scoreboard ranks the current roster for the mid-game display.
func (s *Session) Scoreboard() []StandingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return nil
	}
	return Standings(s.room.Players)
}

// FinalResults returns the final leaderboard. It is safe to call with no
// recorded players; the summary is then a defined empty state.
func (s *Session) FinalResults() ResultSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Results(s.final)
}

func (s *Session) emit(ctx context.Context, event string, payload any) (protocol.Ack, error) {
	ctx, cancel := context.WithTimeout(ctx, s.emitTimeout)
	defer cancel()
	return s.transport.Emit(ctx, event, payload)
}

func (s *Session) emitAsync(event string, payload any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.emitTimeout)
		defer cancel()
		if _, err := s.transport.Emit(ctx, event, payload); err != nil {
			s.logger.Printf("emit %s: %v", event, err)
		}
	}()
}

func playerNameOrDefault(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Player"
	}
	return name
}

func joinError(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "not found"):
		return domain.ErrRoomNotFound
	case strings.Contains(lower, "progress") || strings.Contains(lower, "started"):
		return domain.ErrGameInProgress
	default:
		return fmt.Errorf("join room: %w: %s", domain.ErrTransport, message)
	}
}

func copyRoom(room *domain.Room) domain.Room {
	out := *room
	out.Players = append([]domain.Player(nil), room.Players...)
	return out
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == status {
		return
	}
	s.status = status
	s.publishLocked(Notice{Kind: NoticeConnection, Status: status, Text: status.String()})
}

// clearEntryLocked rolls back any room state installed while a create/join
// was pending (including an early-arriving snapshot) after the request
// itself failed.
func (s *Session) clearEntryLocked() {
	s.room = nil
	s.setPhaseLocked(PhaseIdle)
}

func (s *Session) setPhaseLocked(phase Phase) {
	if s.phase == phase {
		return
	}
	s.phase = phase
	s.publishLocked(Notice{Kind: NoticePhase, Phase: phase, Text: phase.String()})
}

func (s *Session) publishRosterLocked() {
	if s.room == nil {
		return
	}
	s.publishLocked(Notice{Kind: NoticeRoster, Standings: Standings(s.room.Players)})
}

func (s *Session) publishScoreboardLocked() {
	if s.room == nil {
		return
	}
	s.publishLocked(Notice{Kind: NoticeScoreboard, Standings: Standings(s.room.Players)})
}

func (s *Session) publishLocked(n Notice) {
	chans.OfferLatest(s.notices, n)
}

func (s *Session) markSelfAnsweredLocked(correct bool) {
	if p, ok := s.room.FindPlayer(s.selfID); ok {
		p.HasAnswered = true
		if correct {
			p.Score += PointsPerCorrect
		}
	}
	if s.game != nil {
		for i := range s.game.Players {
			if s.game.Players[i].ID == s.selfID {
				s.game.Players[i].HasAnswered = true
				if correct {
					s.game.Players[i].Score += PointsPerCorrect
				}
			}
		}
	}
}

func (s *Session) violation(event string, detail string) {
	s.logger.Printf("%v: dropping %s (%s)", domain.ErrProtocolViolation, event, detail)
}
