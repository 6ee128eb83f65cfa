package domain

import "errors"

var (
	// ErrInvalidRoomCode is returned before any network call when a room
	// code is not exactly four alphanumeric characters.
	ErrInvalidRoomCode = errors.New("room code must be 4 letters or digits")
	// ErrMissingName is returned when a player name is empty after trimming.
	ErrMissingName = errors.New("player name required")
	// ErrRequestPending guards against a second create/join while one is in flight.
	ErrRequestPending = errors.New("another room request is already pending")
	// ErrNotInRoom is returned when an action needs a joined room.
	ErrNotInRoom = errors.New("not in a room")
	// ErrAlreadyInRoom is returned when create/join is invoked mid-session.
	ErrAlreadyInRoom = errors.New("already in a room")
	// ErrNotHost is returned when a non-host invokes a host-only action.
	ErrNotHost = errors.New("only the host can start the game")
	// ErrTooFewPlayers blocks a start with fewer than two players.
	ErrTooFewPlayers = errors.New("need at least 2 players to start")
	// ErrNotAllReady blocks a start while any player is not ready.
	ErrNotAllReady = errors.New("all players must be ready to start")
	// ErrTransport wraps timeouts, disconnects and server rejections.
	ErrTransport = errors.New("server unavailable")
	// ErrRoomNotFound indicates the server rejected a join for an unknown code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrGameInProgress indicates a join was rejected because the game already started.
	ErrGameInProgress = errors.New("game already in progress")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
	// ErrProtocolViolation marks server events referencing unknown state;
	// such events are logged and dropped, never applied.
	ErrProtocolViolation = errors.New("protocol violation")
)
