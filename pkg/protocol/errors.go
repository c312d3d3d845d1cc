package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrNotApplicable means the buffer belongs to a different decoder. It is a
	// routing outcome, not a failure.
	ErrNotApplicable = errors.New("protocol: packet not applicable")
	// ErrShortBuffer means the buffer ends before the structure its kind
	// requires.
	ErrShortBuffer = errors.New("protocol: short buffer")
	// ErrInvalidCount means a declared count or selector index exceeds its
	// fixed maximum.
	ErrInvalidCount = errors.New("protocol: invalid count")
	// ErrUnknownEvent is returned for an unrecognised event code.
	ErrUnknownEvent = fmt.Errorf("%w: unknown event code", ErrNotApplicable)
	// ErrUnknownPacket is returned for a packet id outside 0..14.
	ErrUnknownPacket = errors.New("protocol: unknown packet id")
	// ErrDecodePanic wraps a recovered panic from a decoder.
	ErrDecodePanic = errors.New("protocol: decoder panic")
)

// DecodeError attaches the packet kind and datagram size to a decode failure.
type DecodeError struct {
	ID   PacketID
	Size int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %s (%d bytes): %v", e.ID, e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Reason maps a decode error onto a short stable label for metrics and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnknownEvent):
		return "unknown_event"
	case errors.Is(err, ErrNotApplicable):
		return "not_applicable"
	case errors.Is(err, ErrShortBuffer):
		return "short_buffer"
	case errors.Is(err, ErrInvalidCount):
		return "invalid_count"
	case errors.Is(err, ErrUnknownPacket):
		return "unknown_packet"
	case errors.Is(err, ErrDecodePanic):
		return "panic"
	default:
		return "other"
	}
}

func shortBuffer(id PacketID, need, have int) error {
	return fmt.Errorf("%w: %s needs %d bytes, have %d", ErrShortBuffer, id, need, have)
}

func invalidCount(id PacketID, field string, got, limit int) error {
	return fmt.Errorf("%w: %s %s %d exceeds %d", ErrInvalidCount, id, field, got, limit)
}
