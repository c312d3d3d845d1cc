package protocol_test

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

type drop struct {
	id  protocol.PacketID
	err error
}

type recorder struct {
	mu      sync.Mutex
	decoded []protocol.PacketID
	dropped []drop
}

func (r *recorder) Decoded(id protocol.PacketID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoded = append(r.decoded, id)
}

func (r *recorder) Dropped(id protocol.PacketID, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped = append(r.dropped, drop{id: id, err: err})
}

func TestDispatcherDecodesLap(t *testing.T) {
	rec := &recorder{}
	d := protocol.NewDispatcher(protocol.WithDiagnostics(rec))

	buf := datagram(protocol.PacketLap, protocol.LapSize, 0)
	binary.LittleEndian.PutUint32(buf[29:], 83456)

	if !d.Supports(buf) {
		t.Fatalf("expected lap datagram to be supported")
	}
	got, ok := d.Decode(buf)
	if !ok {
		t.Fatalf("expected lap datagram to decode")
	}
	lap, ok := got.(protocol.LapPacket)
	if !ok {
		t.Fatalf("expected LapPacket, got %T", got)
	}
	if lap.LastLapTimeMs != 83456 {
		t.Fatalf("unexpected lastLapTimeMs: %d", lap.LastLapTimeMs)
	}
	if len(rec.decoded) != 1 || rec.decoded[0] != protocol.PacketLap || len(rec.dropped) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", rec)
	}
}

func TestDispatcherSupports(t *testing.T) {
	d := protocol.NewDispatcher()
	for _, id := range protocol.Kinds() {
		if !d.Supports(datagram(id, 7, 0)) {
			t.Fatalf("expected %s to be supported", id)
		}
	}
	if d.Supports(datagram(protocol.PacketID(15), 64, 0)) {
		t.Fatalf("kind 15 should not be supported")
	}
	if d.Supports([]byte{0x01, 0x02}) {
		t.Fatalf("two-byte buffer should not be supported")
	}
}

func TestDispatcherDropsMalformed(t *testing.T) {
	cases := []struct {
		name   string
		buf    []byte
		id     protocol.PacketID
		reason string
	}{
		{"tiny", []byte{0xE8, 0x07, 0x18}, protocol.InvalidPacketID, "short_buffer"},
		{"unknown kind", datagram(protocol.PacketID(42), 64, 0), protocol.PacketID(42), "unknown_packet"},
		{"short lap", datagram(protocol.PacketLap, 60, 0), protocol.PacketLap, "short_buffer"},
		{"participants over max", func() []byte {
			b := datagram(protocol.PacketParticipants, 1350, 0)
			b[29] = 23
			return b
		}(), protocol.PacketParticipants, "invalid_count"},
		{"unknown event", func() []byte {
			b := datagram(protocol.PacketEvent, 40, 0)
			copy(b[9:], "ZZZZ")
			return b
		}(), protocol.PacketEvent, "unknown_event"},
	}
	for _, tc := range cases {
		rec := &recorder{}
		d := protocol.NewDispatcher(protocol.WithDiagnostics(rec))
		got, ok := d.Decode(tc.buf)
		if ok || got != nil {
			t.Fatalf("%s: expected absent result, got %T", tc.name, got)
		}
		if len(rec.dropped) != 1 || len(rec.decoded) != 0 {
			t.Fatalf("%s: unexpected diagnostics: %+v", tc.name, rec)
		}
		dr := rec.dropped[0]
		if dr.id != tc.id {
			t.Fatalf("%s: dropped id %s want %s", tc.name, dr.id, tc.id)
		}
		if reason := protocol.Reason(dr.err); reason != tc.reason {
			t.Fatalf("%s: reason %q want %q (%v)", tc.name, reason, tc.reason, dr.err)
		}
		var derr *protocol.DecodeError
		if !errors.As(dr.err, &derr) || derr.Size != len(tc.buf) {
			t.Fatalf("%s: expected DecodeError with size %d, got %v", tc.name, len(tc.buf), dr.err)
		}
	}
}

func TestDispatcherLogLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := protocol.NewDispatcher(protocol.WithLogger(zap.New(core)))

	unknown := datagram(protocol.PacketEvent, 20, 0)
	copy(unknown[9:], "QQQQ")
	d.Decode(unknown)
	d.Decode(datagram(protocol.PacketMotion, 100, 0))

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[0].Message != "packet ignored" {
		t.Fatalf("unexpected entry for unknown event: %v %q", entries[0].Level, entries[0].Message)
	}
	if entries[1].Level != zapcore.WarnLevel || entries[1].Message != "packet dropped" {
		t.Fatalf("unexpected entry for short motion: %v %q", entries[1].Level, entries[1].Message)
	}
	if got := entries[1].ContextMap()["kind"]; got != "motion" {
		t.Fatalf("unexpected kind field: %v", got)
	}
	if got := entries[1].ContextMap()["reason"]; got != "short_buffer" {
		t.Fatalf("unexpected reason field: %v", got)
	}
}

func TestDispatcherConcurrentUse(t *testing.T) {
	rec := &recorder{}
	d := protocol.NewDispatcher(protocol.WithDiagnostics(rec))
	buf := datagram(protocol.PacketLap, protocol.LapSize, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, ok := d.Decode(buf); !ok {
					t.Errorf("decode failed")
					return
				}
			}
		}()
	}
	wg.Wait()
	if len(rec.decoded) != 400 {
		t.Fatalf("expected 400 decoded, got %d", len(rec.decoded))
	}
}
