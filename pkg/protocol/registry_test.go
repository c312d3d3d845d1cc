package protocol_test

import (
	"errors"
	"math"
	"testing"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

func TestKindsAndNames(t *testing.T) {
	kinds := protocol.Kinds()
	if len(kinds) != 15 {
		t.Fatalf("expected 15 kinds, got %d", len(kinds))
	}
	for i, id := range kinds {
		if int(id) != i {
			t.Fatalf("kind %d out of order: %d", i, id)
		}
		parsed, err := protocol.ParseKind(id.String())
		if err != nil || parsed != id {
			t.Fatalf("ParseKind(%q) = %v, %v", id.String(), parsed, err)
		}
	}
	if protocol.PacketCarDamage.String() != "car_damage" {
		t.Fatalf("unexpected name: %s", protocol.PacketCarDamage)
	}
	if protocol.PacketID(0x20).String() != "unknown(0x20)" {
		t.Fatalf("unexpected unknown name: %s", protocol.PacketID(0x20))
	}
}

func TestParseKindNumeric(t *testing.T) {
	id, err := protocol.ParseKind("0x0a")
	if err != nil || id != protocol.PacketCarDamage {
		t.Fatalf("ParseKind(0x0a) = %v, %v", id, err)
	}
	id, err = protocol.ParseKind(" Lap ")
	if err != nil || id != protocol.PacketLap {
		t.Fatalf("ParseKind(Lap) = %v, %v", id, err)
	}
	if _, err := protocol.ParseKind("15"); !errors.Is(err, protocol.ErrUnknownPacket) {
		t.Fatalf("expected ErrUnknownPacket, got %v", err)
	}
	if _, err := protocol.ParseKind("telemetry"); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}

func TestParseText(t *testing.T) {
	if got := protocol.ParseText([]byte{'h', 'i', 0x00, 'x'}); got != "hi" {
		t.Fatalf("unexpected text: %q", got)
	}
	if got := protocol.ParseText([]byte("abc")); got != "abc" {
		t.Fatalf("unexpected text without NUL: %q", got)
	}
	if got := protocol.ParseText([]byte{0xFF, 'a', 0x00}); got != "�a" {
		t.Fatalf("unexpected sanitised text: %q", got)
	}
}

func TestFormatLapTime(t *testing.T) {
	cases := map[uint32]string{
		0:      "0:00.000",
		83456:  "1:23.456",
		600001: "10:00.001",
	}
	for ms, want := range cases {
		if got := protocol.FormatLapTime(ms); got != want {
			t.Fatalf("FormatLapTime(%d) = %q want %q", ms, got, want)
		}
	}
	if got := protocol.FormatSeconds(81.25); got != "1:21.250" {
		t.Fatalf("FormatSeconds(81.25) = %q", got)
	}
	for _, s := range []float32{-1, 1e10, float32(math.NaN()), float32(math.Inf(1))} {
		if got := protocol.FormatSeconds(s); got != "-:--.---" {
			t.Fatalf("FormatSeconds(%v) = %q want placeholder", s, got)
		}
	}
	got := protocol.Describe(protocol.FastestLap{VehicleIdx: 2, LapTime: 1e10})
	if got != "fastest lap: car 2 -:--.---" {
		t.Fatalf("unexpected description: %q", got)
	}
}
