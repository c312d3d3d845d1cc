package protocol

import (
	"errors"
	"testing"
)

func checkStride[T any](t *testing.T, name string, l layout[T]) {
	t.Helper()
	buf := make([]byte, l.base+l.stride)
	var zero T
	w := newWriter(buf, l.base)
	l.write(w, zero)
	if got := w.off - l.base; got != l.stride {
		t.Fatalf("%s: writer consumed %d bytes, stride is %d", name, got, l.stride)
	}
	r := newReader(buf[l.base:], 0)
	l.read(r)
	if r.err != nil {
		t.Fatalf("%s: read error: %v", name, r.err)
	}
	if r.off != l.stride {
		t.Fatalf("%s: reader consumed %d bytes, stride is %d", name, r.off, l.stride)
	}
}

func TestLayoutStrides(t *testing.T) {
	checkStride(t, "car motion", carMotionLayout)
	checkStride(t, "marshal zone", marshalZoneLayout)
	checkStride(t, "participant", participantLayout)
	checkStride(t, "car setup", carSetupLayout)
	checkStride(t, "car telemetry", carTelemetryLayout)
	checkStride(t, "car status", carStatusLayout)
	checkStride(t, "classification", classificationLayout)
	checkStride(t, "lobby player", lobbyPlayerLayout)
	checkStride(t, "car damage", carDamageLayout)
	checkStride(t, "lap history", lapHistoryLayout)
	checkStride(t, "tyre stint history", tyreStintHistoryLayout)
	checkStride(t, "tyre set", tyreSetLayout)
	checkStride(t, "time trial set", timeTrialSetLayout)
}

func TestReaderLatchesFirstError(t *testing.T) {
	r := newReader([]byte{0x01, 0x02, 0x03}, 0)
	if r.u16() != 0x0201 {
		t.Fatalf("unexpected u16")
	}
	if r.u32() != 0 || !errors.Is(r.err, ErrShortBuffer) {
		t.Fatalf("expected short buffer after overrun, err=%v", r.err)
	}
	if r.u8() != 0 {
		t.Fatalf("reads after failure must return zero")
	}
	r.fail(ErrInvalidCount)
	if !errors.Is(r.err, ErrShortBuffer) {
		t.Fatalf("fail must not replace the first error: %v", r.err)
	}
}

func TestPacketSizes(t *testing.T) {
	sizes := map[string][2]int{
		"motion":               {MotionSize, 1349},
		"session no zones":     {SessionSize(0), 55},
		"session all zones":    {SessionSize(MaxMarshalZones), 160},
		"lap":                  {LapSize, 86},
		"participants full":    {participantLayout.end(MaxCars), 1350},
		"car setup":            {CarSetupSize, 1133},
		"car telemetry":        {CarTelemetrySize, 1352},
		"car status":           {CarStatusSize, 1239},
		"final classification": {classificationLayout.end(MaxCars), 1020},
		"lobby info full":      {lobbyPlayerLayout.end(MaxCars), 1306},
		"car damage":           {CarDamageSize, 953},
		"session history":      {SessionHistorySize, 1460},
		"tyre sets":            {TyreSetsSize, 231},
		"motion ex":            {MotionExSize, 237},
		"time trial":           {TimeTrialSize, 101},
	}
	for name, s := range sizes {
		if s[0] != s[1] {
			t.Fatalf("%s: size %d want %d", name, s[0], s[1])
		}
	}
}
