package protocol

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Diagnostics receives the outcome of every Dispatcher.Decode call. Dropped
// gets InvalidPacketID when the buffer is too short to carry a kind.
// Implementations must be safe for concurrent use.
type Diagnostics interface {
	Decoded(id PacketID)
	Dropped(id PacketID, err error)
}

type nopDiagnostics struct{}

func (nopDiagnostics) Decoded(PacketID)        {}
func (nopDiagnostics) Dropped(PacketID, error) {}

// Dispatcher is the failure boundary between the network and the decoders:
// every malformed datagram becomes an absent result plus a diagnostic.
type Dispatcher struct {
	log  *zap.Logger
	diag Diagnostics
}

type Option func(*Dispatcher)

func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

func WithDiagnostics(diag Diagnostics) Option {
	return func(d *Dispatcher) {
		if diag != nil {
			d.diag = diag
		}
	}
}

func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		log:  zap.NewNop(),
		diag: nopDiagnostics{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Supports reports whether buf names one of the fifteen known packet kinds.
// It does not validate length.
func (d *Dispatcher) Supports(buf []byte) bool {
	id, err := PeekKind(buf)
	return err == nil && id.Known()
}

// Decode returns the typed record for buf, or false if buf could not be
// decoded. It never panics.
func (d *Dispatcher) Decode(buf []byte) (t Telemetry, ok bool) {
	id, err := PeekKind(buf)
	if err != nil {
		d.drop(InvalidPacketID, len(buf), err)
		return nil, false
	}
	if !id.Known() {
		d.drop(id, len(buf), fmt.Errorf("%w 0x%02x", ErrUnknownPacket, uint8(id)))
		return nil, false
	}

	defer func() {
		if r := recover(); r != nil {
			d.drop(id, len(buf), fmt.Errorf("%w: %v", ErrDecodePanic, r))
			t, ok = nil, false
		}
	}()

	t, err = Decode(buf)
	if err != nil {
		d.drop(id, len(buf), err)
		return nil, false
	}
	d.diag.Decoded(id)
	return t, true
}

func (d *Dispatcher) drop(id PacketID, size int, err error) {
	derr := &DecodeError{ID: id, Size: size, Err: err}
	fields := []zap.Field{
		zap.Stringer("kind", id),
		zap.Uint8("id", uint8(id)),
		zap.Int("size", size),
		zap.String("reason", Reason(err)),
		zap.Error(err),
	}
	if errors.Is(err, ErrNotApplicable) || errors.Is(err, ErrUnknownPacket) {
		d.log.Debug("packet ignored", fields...)
	} else {
		d.log.Warn("packet dropped", fields...)
	}
	d.diag.Dropped(id, derr)
}
