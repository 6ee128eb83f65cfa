// Package ws implements the client.Transport contract over a websocket
// connection. Requests are framed as protocol envelopes with a correlation
// id; the matching ack is routed back to the caller, everything else flows
// out as the event stream.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"quiz-master-client/internal/chans"
	"quiz-master-client/internal/client"
	"quiz-master-client/internal/domain"
	"quiz-master-client/internal/protocol"

	"github.com/gorilla/websocket"
)

type Client struct {
	conn *websocket.Conn

	nextID   atomic.Uint64
	writeMu  sync.Mutex
	events   chan protocol.Event
	statuses chan client.Status
	done     chan struct{}

	mu      sync.Mutex
	pending map[uint64]chan protocol.Ack
	closed  bool
}

// Dial connects to a game server websocket endpoint and starts the read
// pump. The returned client reports Connected on its status stream.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrTransport, url, err)
	}
	c := &Client{
		conn:     conn,
		events:   make(chan protocol.Event, 32),
		statuses: make(chan client.Status, 4),
		done:     make(chan struct{}),
		pending:  make(map[uint64]chan protocol.Ack),
	}
	c.pushStatus(client.StatusConnected)
	go c.readPump()
	return c, nil
}

// Emit sends one correlated request and blocks until the ack, the context
// deadline, or connection loss.
func (c *Client) Emit(ctx context.Context, event string, payload any) (protocol.Ack, error) {
	raw, err := marshalPayload(payload)
	if err != nil {
		return protocol.Ack{}, err
	}
	id := c.nextID.Add(1)
	ackCh := make(chan protocol.Ack, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return protocol.Ack{}, fmt.Errorf("%w: connection closed", domain.ErrTransport)
	}
	c.pending[id] = ackCh
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	env := protocol.Envelope{Type: event, ID: id, Payload: raw}
	c.writeMu.Lock()
	err = c.conn.WriteJSON(env)
	c.writeMu.Unlock()
	if err != nil {
		return protocol.Ack{}, fmt.Errorf("%w: write %s: %v", domain.ErrTransport, event, err)
	}

	select {
	case ack := <-ackCh:
		return ack, nil
	case <-ctx.Done():
		return protocol.Ack{}, fmt.Errorf("%w: %s: %v", domain.ErrTransport, event, ctx.Err())
	case <-c.done:
		return protocol.Ack{}, fmt.Errorf("%w: connection lost awaiting %s ack", domain.ErrTransport, event)
	}
}

func (c *Client) Events() <-chan protocol.Event { return c.events }

func (c *Client) StatusChanges() <-chan client.Status { return c.statuses }

func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	return c.conn.Close()
}

func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		c.pushStatus(client.StatusDisconnected)
		close(c.done)
		close(c.events)
	}()
	for {
		var env protocol.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		if env.ID != 0 {
			var ack protocol.Ack
			if err := json.Unmarshal(env.Payload, &ack); err != nil {
				continue
			}
			c.mu.Lock()
			waiter, ok := c.pending[env.ID]
			c.mu.Unlock()
			if ok {
				waiter <- ack
			}
			continue
		}
		// Shed the oldest broadcast rather than stall the socket.
		chans.OfferLatest(c.events, protocol.Event{Type: env.Type, Payload: env.Payload})
	}
}

func (c *Client) pushStatus(s client.Status) {
	select {
	case c.statuses <- s:
	default:
	}
}

func marshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %v", domain.ErrTransport, err)
	}
	return raw, nil
}
