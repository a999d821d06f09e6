package core

import "errors"

// Frame is a raw text payload for one connection.
type Frame []byte

// ConnID identifies one open signaling connection for its lifetime.
type ConnID string

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	ID() ConnID
	// TrySend never blocks. A full buffer yields ErrBackpressure.
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats of a fan-out.
type PublishResult struct {
	SendTo  int
	Dropped []SignalConnection
}
