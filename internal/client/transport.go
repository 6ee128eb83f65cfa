package client

import (
	"context"
	"time"

	"quiz-master-client/internal/protocol"
)

// Status is the observable connection state of a transport.
type Status int

const (
	StatusConnecting Status = iota
	StatusConnected
	StatusDisconnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Transport is the bidirectional message channel the session consumes.
// The core never implements the network itself; it emits correlated
// requests and reacts to a single inbound event stream.
type Transport interface {
	// Emit sends a named request and waits for the matching ack. A context
	// deadline or transport failure surfaces as an error.
	Emit(ctx context.Context, event string, payload any) (protocol.Ack, error)
	// Events delivers server broadcasts in server-send order.
	Events() <-chan protocol.Event
	// StatusChanges reports connecting/connected/disconnected transitions.
	StatusChanges() <-chan Status
	Close() error
}

// Ticker abstracts time.Ticker so question countdowns are testable.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock builds tickers; tests substitute a manual implementation.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

type realTicker struct{ t *time.Ticker }

func (realClock) NewTicker(d time.Duration) Ticker { return realTicker{t: time.NewTicker(d)} }

func (t realTicker) C() <-chan time.Time { return t.t.C }

func (t realTicker) Stop() { t.t.Stop() }
