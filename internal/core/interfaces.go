package core

import "github.com/dkeye/Poker/internal/domain"

// Frame is a serialized payload ready for the wire.
type Frame []byte

// ConnID identifies one live client connection.
type ConnID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// Subscriber is one connection listening to a session room, together with
// the participant it renders frames for.
type Subscriber struct {
	Conn   ConnID
	Viewer domain.ParticipantID
	Signal SignalConnection
}

// RenderFunc builds the frame a given subscriber receives.
type RenderFunc func(Subscriber) (Frame, error)

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []Subscriber
}
