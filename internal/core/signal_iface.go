package core

import "errors"

// ErrConnClosed is returned by TrySend once the connection is closed.
var ErrConnClosed = errors.New("connection closed")

// Frame is a raw encoded event ready for the wire.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend enqueues without blocking and fails when the buffer is full
	// or the connection is already closed.
	TrySend(Frame) error
	Close()
}
