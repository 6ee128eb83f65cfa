// Package http exposes the room service over websockets. Every frame is a
// protocol.Envelope; client requests carry a correlation id that the matching
// ack echoes back, room broadcasts are pushed with a zero id.
package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/protocol"
	"quiz-master-client/internal/server"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *server.RoomService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *server.RoomService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades the request and runs the connection's read loop. A single
// writer goroutine owns the socket's write side; the read loop and the room
// subscription pump both feed it through the send channel.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan protocol.Envelope, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// Connection-local session: which room this socket is attached to, and
	// the subscription feeding it. Only the read loop touches these.
	var (
		gameCode  string
		playerID  string
		subCancel func()
		pumpDone  chan struct{}
	)
	detach := func() {
		if subCancel != nil {
			subCancel()
			<-pumpDone
			subCancel = nil
			pumpDone = nil
		}
		gameCode = ""
	}
	attach := func(code string) error {
		detach()
		events, cancel, err := h.service.Subscribe(code)
		if err != nil {
			return err
		}
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					select {
					case send <- protocol.Envelope{Type: ev.Type, Payload: ev.Payload}:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
		gameCode = code
		subCancel = cancel
		pumpDone = done
		return nil
	}

	for {
		var inbound protocol.Envelope
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case protocol.EventCreateGame:
			var payload protocol.CreateGamePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- nack(inbound, "invalid createGame payload")
				continue
			}
			room, err := h.service.CreateRoom(r.Context(), domain.Player{
				ID:     payload.PlayerID,
				Name:   payload.PlayerName,
				Avatar: payload.Avatar,
			}, payload.Settings)
			if err != nil {
				send <- nack(inbound, err.Error())
				continue
			}
			if err := attach(room.Code()); err != nil {
				send <- nack(inbound, err.Error())
				continue
			}
			playerID = payload.PlayerID
			send <- ack(inbound, room.Code())
			send <- event(protocol.EventGameCreated, room.Snapshot())

		case protocol.EventJoinGame:
			var payload protocol.JoinGamePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- nack(inbound, "invalid joinGame payload")
				continue
			}
			_, snapshot, err := h.service.JoinRoom(r.Context(), payload.GameCode, domain.Player{
				ID:     payload.PlayerID,
				Name:   payload.PlayerName,
				Avatar: payload.Avatar,
			})
			if err != nil {
				send <- nack(inbound, err.Error())
				continue
			}
			if err := attach(payload.GameCode); err != nil {
				send <- nack(inbound, err.Error())
				continue
			}
			playerID = payload.PlayerID
			send <- ack(inbound, payload.GameCode)
			send <- event(protocol.EventGameJoined, snapshot)

		case protocol.EventPlayerReady:
			var payload protocol.PlayerReadyPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- nack(inbound, "invalid playerReady payload")
				continue
			}
			if err := h.service.SetReady(payload.GameCode, payload.PlayerID, payload.Ready); err != nil {
				send <- nack(inbound, err.Error())
				continue
			}
			send <- ack(inbound, payload.GameCode)

		case protocol.EventStartGame:
			var payload protocol.StartGamePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- nack(inbound, "invalid startGame payload")
				continue
			}
			if err := h.service.StartGame(r.Context(), payload.GameCode, payload.PlayerID); err != nil {
				send <- nack(inbound, err.Error())
				continue
			}
			send <- ack(inbound, payload.GameCode)

		case protocol.EventSubmitAnswer:
			var payload protocol.SubmitAnswerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- nack(inbound, "invalid submitAnswer payload")
				continue
			}
			if err := h.service.SubmitAnswer(payload.GameCode, payload.PlayerID, payload.QuestionIndex, payload.SelectedIndex); err != nil {
				send <- nack(inbound, err.Error())
				continue
			}
			send <- ack(inbound, payload.GameCode)

		case protocol.EventChatMessage:
			var payload protocol.ChatMessagePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- nack(inbound, "invalid chatMessage payload")
				continue
			}
			if err := h.service.Chat(payload); err != nil {
				send <- nack(inbound, err.Error())
				continue
			}
			send <- ack(inbound, payload.GameCode)

		case protocol.EventLeaveGame:
			var payload protocol.LeaveGamePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- nack(inbound, "invalid leaveGame payload")
				continue
			}
			h.service.Leave(payload.GameCode, payload.PlayerID)
			detach()
			playerID = ""
			send <- ack(inbound, "")

		default:
			send <- event(protocol.EventGameError, protocol.GameErrorPayload{
				Message: "unsupported message type: " + inbound.Type,
			})
		}
	}

	close(closeSignals)
	leftCode := gameCode
	detach()
	if leftCode != "" && playerID != "" {
		h.service.Leave(leftCode, playerID)
	}
	close(send)
	<-writerDone
}

func ack(req protocol.Envelope, gameCode string) protocol.Envelope {
	raw, _ := json.Marshal(protocol.Ack{Success: true, GameCode: gameCode})
	return protocol.Envelope{Type: req.Type, ID: req.ID, Payload: raw}
}

func nack(req protocol.Envelope, message string) protocol.Envelope {
	raw, _ := json.Marshal(protocol.Ack{Success: false, Error: message})
	return protocol.Envelope{Type: req.Type, ID: req.ID, Payload: raw}
}

func event(eventType string, payload any) protocol.Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		return protocol.Envelope{Type: protocol.EventGameError}
	}
	return protocol.Envelope{Type: eventType, Payload: raw}
}
