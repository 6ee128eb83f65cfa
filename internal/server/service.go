// Package server hosts the authoritative room/game lifecycle the clients
// synchronize against: room registry, readiness gating, timed question
// progression and scoring.
package server

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"time"

	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/protocol"
)

// RoomRepository abstracts how rooms are stored (in-memory, Redis, etc).
type RoomRepository interface {
	Put(room *Room)
	Get(code string) (*Room, bool)
	Exists(code string) bool
	DeleteIfEmpty(code string)
}

// QuestionRepository loads question banks (from cache/backing store).
type QuestionRepository interface {
	GetBank(ctx context.Context, settings domain.QuizSettings) (domain.QuestionBank, error)
}

// Config tunes the game flow.
type Config struct {
	TimePerQuestion  int
	CountdownSeconds int
	PointsPerCorrect int
	// AnswerGrace pads the question deadline so in-flight submissions from
	// clients whose timers drifted still land.
	AnswerGrace time.Duration
}

// DefaultConfig mirrors the observed client behavior: 30s questions,
// 3s countdown, 10 points per correct answer.
func DefaultConfig() Config {
	return Config{
		TimePerQuestion:  30,
		CountdownSeconds: 3,
		PointsPerCorrect: 10,
		AnswerGrace:      2 * time.Second,
	}
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomService contains the server-side use cases.
type RoomService struct {
	rooms     RoomRepository
	questions QuestionRepository
	cfg       Config
	logger    *log.Logger
}

func NewRoomService(rooms RoomRepository, questions QuestionRepository, cfg Config) *RoomService {
	if cfg.TimePerQuestion <= 0 {
		cfg.TimePerQuestion = 30
	}
	if cfg.PointsPerCorrect <= 0 {
		cfg.PointsPerCorrect = 10
	}
	return &RoomService{
		rooms:     rooms,
		questions: questions,
		cfg:       cfg,
		logger:    log.Default(),
	}
}

// CreateRoom opens a room under a fresh server-assigned code. The bank is
// preloaded so unknown settings fail at creation, not at start.
func (s *RoomService) CreateRoom(ctx context.Context, host domain.Player, settings domain.QuizSettings) (*Room, error) {
	if strings.TrimSpace(host.Name) == "" {
		return nil, domain.ErrMissingName
	}
	if settings.QuestionCount <= 0 {
		settings.QuestionCount = 5
	}
	if _, err := s.questions.GetBank(ctx, settings); err != nil {
		return nil, err
	}

	room := newRoom(s.newCode(), settings, host)
	s.rooms.Put(room)
	return room, nil
}

// JoinRoom adds a player to an existing waiting room, or refreshes a
// rejoining player's profile without resetting their score.
func (s *RoomService) JoinRoom(_ context.Context, code string, player domain.Player) (*Room, protocol.RoomSnapshotPayload, error) {
	room, ok := s.rooms.Get(code)
	if !ok {
		return nil, protocol.RoomSnapshotPayload{}, domain.ErrRoomNotFound
	}
	snapshot, err := room.join(player)
	if err != nil {
		return nil, protocol.RoomSnapshotPayload{}, err
	}
	return room, snapshot, nil
}

// SetReady toggles readiness and broadcasts the change.
func (s *RoomService) SetReady(code, playerID string, ready bool) error {
	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return room.setReady(playerID, ready)
}

// StartGame re-validates the gating independently of the client, loads the
// finalized question set and drives the game loop.
func (s *RoomService) StartGame(ctx context.Context, code, playerID string) error {
	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if err := room.validateStart(playerID); err != nil {
		return err
	}

	bank, err := s.questions.GetBank(ctx, room.settingsCopy())
	if err != nil {
		return err
	}
	questions := trimBank(bank, room.settingsCopy().QuestionCount)
	if len(questions) == 0 {
		return domain.ErrBankNotFound
	}

	room.beginStarting(questions)
	go s.runGame(room, questions)
	return nil
}

// runGame owns question progression for one room. Clients only react to
// the broadcasts, which keeps every player on the same question.
func (s *RoomService) runGame(room *Room, questions []domain.Question) {
	room.broadcast(protocol.EventGameStarting, protocol.GameStartingPayload{
		Countdown: s.cfg.CountdownSeconds,
	})
	if s.cfg.CountdownSeconds > 0 {
		time.Sleep(time.Duration(s.cfg.CountdownSeconds) * time.Second)
	}

	deadline := time.Duration(s.cfg.TimePerQuestion)*time.Second + s.cfg.AnswerGrace
	for index := 0; ; index++ {
		if _, done := room.beginQuestion(index); done {
			break
		}
		if index == 0 {
			room.broadcast(protocol.EventGameStarted, protocol.GameStartedPayload{
				Questions:       questions,
				Players:         room.Snapshot().Players,
				TimePerQuestion: s.cfg.TimePerQuestion,
			})
		}
		room.waitAnswers(deadline)
	}
	room.finish()
	s.logger.Printf("room %s: game finished", room.Code())
}

// SubmitAnswer records a player's single response for the current question.
func (s *RoomService) SubmitAnswer(code, playerID string, questionIndex, selectedIndex int) error {
	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	return room.submitAnswer(playerID, questionIndex, selectedIndex, s.cfg.PointsPerCorrect)
}

// Leave removes a player, reassigns the host if needed and drops the room
// once empty.
func (s *RoomService) Leave(code, playerID string) {
	room, ok := s.rooms.Get(code)
	if !ok {
		return
	}
	room.leave(playerID)
	if room.IsEmpty() {
		s.rooms.DeleteIfEmpty(code)
	}
}

// Chat relays a chat line to everyone in the room.
func (s *RoomService) Chat(payload protocol.ChatMessagePayload) error {
	room, ok := s.rooms.Get(payload.GameCode)
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.broadcast(protocol.EventChatMessage, payload)
	return nil
}

// Subscribe returns the room's broadcast stream.
func (s *RoomService) Subscribe(code string) (<-chan protocol.Event, func(), error) {
	room, ok := s.rooms.Get(code)
	if !ok {
		return nil, nil, domain.ErrRoomNotFound
	}
	ch, cancel := room.Subscribe()
	return ch, cancel, nil
}

// newCode draws from the locked global source; connection goroutines call
// this concurrently.
func (s *RoomService) newCode() string {
	for {
		buf := make([]byte, 4)
		for i := range buf {
			buf[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(buf)
		if !s.rooms.Exists(code) {
			return code
		}
	}
}

func trimBank(bank domain.QuestionBank, count int) []domain.Question {
	questions := bank.Questions
	if count > 0 && count < len(questions) {
		questions = questions[:count]
	}
	return append([]domain.Question(nil), questions...)
}

func (r *Room) settingsCopy() domain.QuizSettings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}
