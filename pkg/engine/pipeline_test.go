package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/Wesleyxl/pitcrew-ai/pkg/engine"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

func TestRunDecodersPublishesDecodedPackets(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := engine.NewHub()
	go hub.Run(ctx)
	sub := hub.SubscribeWithBuffer(8)

	lap, err := protocol.Encode(protocol.LapPacket{LastLapTimeMs: 83456}, 4)
	if err != nil {
		t.Fatalf("encode lap: %v", err)
	}
	event, err := protocol.Encode(protocol.EventPacket{Detail: protocol.LightsOut{}}, 0)
	if err != nil {
		t.Fatalf("encode event: %v", err)
	}
	unknown := make([]byte, 40)
	unknown[6] = 0x30
	short := lap[:40]

	in := make(chan []byte, 4)
	in <- unknown
	in <- short
	in <- lap
	in <- event
	close(in)

	ts := time.Unix(1700000000, 0)
	if err := engine.RunDecoders(ctx, in, protocol.NewDispatcher(), hub, engine.WithClock(func() time.Time { return ts })); err != nil {
		t.Fatalf("run decoders: %v", err)
	}

	first := readPacket(t, sub)
	if first.ID != protocol.PacketLap || first.Kind != "lap" || first.PlayerCarIndex != 4 || first.Size != protocol.LapSize {
		t.Fatalf("unexpected lap packet: %+v", first)
	}
	if !first.Timestamp.Equal(ts) {
		t.Fatalf("unexpected timestamp: %v", first.Timestamp)
	}
	if got := first.Data.(protocol.LapPacket).LastLapTimeMs; got != 83456 {
		t.Fatalf("unexpected lap data: %d", got)
	}

	second := readPacket(t, sub)
	ev, ok := second.Data.(protocol.EventPacket)
	if !ok || ev.Code != protocol.EventLightsOut {
		t.Fatalf("unexpected event packet: %+v", second)
	}

	select {
	case p := <-sub:
		t.Fatalf("unexpected extra packet: %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunDecodersStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := engine.NewHub()
	go hub.Run(ctx)

	done := make(chan error, 1)
	go func() {
		done <- engine.RunDecoders(ctx, make(chan []byte), protocol.NewDispatcher(), hub, engine.WithWorkers(4))
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("decoders did not stop")
	}
}

func readPacket(t *testing.T, ch <-chan engine.Packet) engine.Packet {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for packet")
		return engine.Packet{}
	}
}
