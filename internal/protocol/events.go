// Package protocol defines the named events and payload shapes exchanged
// between quiz clients and the game server. Both sides serialize frames as
// a small JSON envelope; requests carry a correlation id that the server
// echoes back on the matching ack.
package protocol

import "encoding/json"

// Client -> server event names.
const (
	EventCreateGame   = "createGame"
	EventJoinGame     = "joinGame"
	EventPlayerReady  = "playerReady"
	EventStartGame    = "startGame"
	EventSubmitAnswer = "submitAnswer"
	EventLeaveGame    = "leaveGame"
)

// Server -> client event names.
const (
	EventGameCreated        = "gameCreated"
	EventGameJoined         = "gameJoined"
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeft         = "playerLeft"
	EventPlayerReadyChanged = "playerReadyChanged"
	EventGameStarting       = "gameStarting"
	EventGameStarted        = "gameStarted"
	EventNextQuestion       = "nextQuestion"
	EventPlayerAnswered     = "playerAnswered"
	EventGameFinished       = "gameFinished"
	EventNewHost            = "newHost"
	EventGameError          = "gameError"
)

// EventChatMessage flows both directions.
const EventChatMessage = "chatMessage"

// NoAnswerIndex is the sentinel submitted when the question timer expires
// without a selection, so every player has exactly one recorded response
// per question.
const NoAnswerIndex = -1

// Envelope frames every message on the wire. ID is set on client requests
// and echoed on the matching ack; broadcasts leave it zero.
type Envelope struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is a decoded inbound broadcast handed to the client core.
type Event struct {
	Type    string
	Payload json.RawMessage
}

// Ack is the server's response to a correlated request.
type Ack struct {
	Success  bool   `json:"success"`
	GameCode string `json:"gameCode,omitempty"`
	Error    string `json:"error,omitempty"`
}
