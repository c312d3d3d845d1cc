package diag_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Wesleyxl/pitcrew-ai/pkg/diag"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

func shortLap() error {
	return &protocol.DecodeError{
		ID:   protocol.PacketLap,
		Size: 40,
		Err:  fmt.Errorf("%w: lap needs 86 bytes, have 40", protocol.ErrShortBuffer),
	}
}

func TestTrackerCountsAndLogsFirstSighting(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	now := time.Unix(1700000000, 0)
	tr := diag.NewTracker(
		diag.WithTrackerLogger(zap.New(core)),
		diag.WithClock(func() time.Time { return now }),
	)

	tr.Decoded(protocol.PacketLap)
	now = now.Add(time.Second)
	tr.Decoded(protocol.PacketLap)
	tr.Dropped(protocol.PacketLap, shortLap())
	tr.Decoded(protocol.PacketMotion)

	if logs.FilterMessage("new packet kind").Len() != 2 {
		t.Fatalf("expected one log per new kind, got %d", logs.Len())
	}
	if !tr.Seen(protocol.PacketLap) || tr.Seen(protocol.PacketEvent) {
		t.Fatalf("unexpected seen set")
	}

	snap := tr.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(snap))
	}
	if snap[0].ID != protocol.PacketMotion || snap[1].ID != protocol.PacketLap {
		t.Fatalf("snapshot not ordered by id: %+v", snap)
	}
	lap := snap[1]
	if lap.Decoded != 2 || lap.Dropped != 1 {
		t.Fatalf("unexpected lap counters: %+v", lap)
	}
	if lap.LastReason != "short_buffer" || !strings.Contains(lap.LastError, "86 bytes") {
		t.Fatalf("unexpected last cause: %q %q", lap.LastReason, lap.LastError)
	}
	if !lap.FirstSeen.Equal(time.Unix(1700000000, 0)) || !lap.LastSeen.Equal(now) {
		t.Fatalf("unexpected timestamps: %v %v", lap.FirstSeen, lap.LastSeen)
	}
}

func TestMetricsCountsByKindAndReason(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := diag.NewMetrics(diag.WithRegistry(reg), diag.WithNamespace("test"))

	m.Decoded(protocol.PacketLap)
	m.Decoded(protocol.PacketLap)
	m.Dropped(protocol.PacketLap, shortLap())
	m.Dropped(protocol.PacketEvent, protocol.ErrUnknownEvent)

	expected := `
# HELP test_decode_failures_total Datagrams dropped by the dispatcher, by packet kind and reason.
# TYPE test_decode_failures_total counter
test_decode_failures_total{kind="event",reason="unknown_event"} 1
test_decode_failures_total{kind="lap",reason="short_buffer"} 1
# HELP test_decode_packets_total Datagrams decoded into a telemetry record, by packet kind.
# TYPE test_decode_packets_total counter
test_decode_packets_total{kind="lap"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected)); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
}

type countingSink struct {
	decoded int
	dropped int
}

func (c *countingSink) Decoded(protocol.PacketID)        { c.decoded++ }
func (c *countingSink) Dropped(protocol.PacketID, error) { c.dropped++ }

func TestMultiFansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	sink := diag.Multi(a, nil, b)
	sink.Decoded(protocol.PacketSession)
	sink.Dropped(protocol.PacketSession, errors.New("x"))
	if a.decoded != 1 || b.decoded != 1 || a.dropped != 1 || b.dropped != 1 {
		t.Fatalf("unexpected fan out: %+v %+v", a, b)
	}
}

func TestTrackerWithDispatcher(t *testing.T) {
	tr := diag.NewTracker()
	d := protocol.NewDispatcher(protocol.WithDiagnostics(tr))
	buf := make([]byte, protocol.LapSize)
	buf[6] = uint8(protocol.PacketLap)
	if _, ok := d.Decode(buf); !ok {
		t.Fatalf("expected decode")
	}
	if _, ok := d.Decode(buf[:50]); ok {
		t.Fatalf("expected drop")
	}
	snap := tr.Snapshot()
	if len(snap) != 1 || snap[0].Decoded != 1 || snap[0].Dropped != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
