package protocol

import "quiz-master-client/internal/domain"

// CreateGamePayload asks the server to open a room. The server assigns the
// authoritative code; any client-side candidate is replaced by the ack.
type CreateGamePayload struct {
	PlayerID   string              `json:"playerId"`
	PlayerName string              `json:"playerName"`
	Avatar     string              `json:"avatar"`
	Settings   domain.QuizSettings `json:"settings"`
}

type JoinGamePayload struct {
	GameCode   string `json:"gameCode"`
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Avatar     string `json:"avatar"`
}

type PlayerReadyPayload struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
	Ready    bool   `json:"ready"`
}

type StartGamePayload struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
}

type SubmitAnswerPayload struct {
	GameCode      string `json:"gameCode"`
	PlayerID      string `json:"playerId"`
	QuestionIndex int    `json:"questionIndex"`
	SelectedIndex int    `json:"selectedIndex"`
}

type LeaveGamePayload struct {
	GameCode string `json:"gameCode"`
	PlayerID string `json:"playerId"`
}

type ChatMessagePayload struct {
	GameCode   string `json:"gameCode"`
	Message    string `json:"message"`
	PlayerName string `json:"playerName"`
	PlayerID   string `json:"playerId"`
}

// RoomSnapshotPayload carries the authoritative room on gameCreated/gameJoined.
type RoomSnapshotPayload struct {
	GameCode string              `json:"gameCode"`
	HostID   string              `json:"hostId"`
	Settings domain.QuizSettings `json:"settings"`
	Players  []domain.Player     `json:"players"`
}

type PlayerJoinedPayload struct {
	Player domain.Player `json:"player"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerReadyChangedPayload struct {
	PlayerID string `json:"playerId"`
	Ready    bool   `json:"ready"`
}

type GameStartingPayload struct {
	Countdown int `json:"countdown"`
}

type GameStartedPayload struct {
	Questions       []domain.Question `json:"questions"`
	Players         []domain.Player   `json:"players"`
	TimePerQuestion int               `json:"timePerQuestion"`
}

type NextQuestionPayload struct {
	Index int `json:"index"`
}

type PlayerAnsweredPayload struct {
	PlayerID string `json:"playerId"`
	Score    int    `json:"score"`
}

type GameFinishedPayload struct {
	Players []domain.Player `json:"players"`
}

type NewHostPayload struct {
	PlayerID string `json:"playerId"`
}

type GameErrorPayload struct {
	Message string `json:"message"`
}
