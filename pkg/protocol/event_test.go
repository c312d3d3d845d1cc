package protocol_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

func TestEventCodesRoundTrip(t *testing.T) {
	cases := []struct {
		code   protocol.EventCode
		detail protocol.Event
		size   int
	}{
		{protocol.EventFastestLap, protocol.FastestLap{VehicleIdx: 4, LapTime: 83.5}, 18},
		{protocol.EventRetirement, protocol.Retirement{VehicleIdx: 11}, 14},
		{protocol.EventDRSEnabled, protocol.DRS{Enabled: true}, 13},
		{protocol.EventDRSDisabled, protocol.DRS{}, 13},
		{protocol.EventTeammateInPits, protocol.TeammateInPits{VehicleIdx: 2}, 14},
		{protocol.EventChequeredFlag, protocol.ChequeredFlag{}, 13},
		{protocol.EventRaceWinner, protocol.RaceWinner{VehicleIdx: 1}, 14},
		{protocol.EventPenalty, protocol.Penalty{PenaltyType: 4, InfringementType: 7, VehicleIdx: 3, OtherVehicleIdx: 255, Time: 5, LapNum: 12, PlacesGained: 1}, 20},
		{protocol.EventSpeedTrap, protocol.SpeedTrap{VehicleIdx: 6, Speed: 331.5, IsOverallFastestInSession: 1, FastestVehicleIdxInSession: 6, FastestSpeedInSession: 331.5}, 25},
		{protocol.EventStartLights, protocol.StartLights{NumLights: 3}, 14},
		{protocol.EventLightsOut, protocol.LightsOut{}, 13},
		{protocol.EventDriveThroughServed, protocol.DriveThroughServed{VehicleIdx: 8}, 14},
		{protocol.EventStopGoServed, protocol.StopGoServed{VehicleIdx: 9}, 14},
		{protocol.EventFlashback, protocol.Flashback{FrameIdentifier: 123456, SessionTime: 605.25}, 21},
		{protocol.EventButtons, protocol.Buttons{ButtonStatus: 0x00100001}, 17},
		{protocol.EventOvertake, protocol.Overtake{OvertakingVehicleIdx: 1, BeingOvertakenVehicleIdx: 2}, 15},
		{protocol.EventSafetyCar, protocol.SafetyCar{SafetyCarType: 2, EventType: 1}, 15},
		{protocol.EventCollision, protocol.Collision{Vehicle1Idx: 5, Vehicle2Idx: 6}, 15},
	}
	if len(cases) != 18 {
		t.Fatalf("expected 18 event codes, have %d", len(cases))
	}
	for _, tc := range cases {
		if tc.detail.Code() != tc.code {
			t.Fatalf("%T reports code %s, want %s", tc.detail, tc.detail.Code(), tc.code)
		}
		if got := protocol.EventSize(tc.code); got != tc.size {
			t.Fatalf("%s: EventSize %d want %d", tc.code, got, tc.size)
		}
		buf, err := protocol.Encode(protocol.EventPacket{Code: tc.code, Detail: tc.detail}, 0)
		if err != nil {
			t.Fatalf("%s: encode: %v", tc.code, err)
		}
		if len(buf) != tc.size {
			t.Fatalf("%s: encoded %d bytes want %d", tc.code, len(buf), tc.size)
		}
		if string(buf[9:13]) != string(tc.code) {
			t.Fatalf("%s: code bytes %q", tc.code, buf[9:13])
		}
		ev, err := protocol.DecodeEvent(buf)
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.code, err)
		}
		if ev.Code != tc.code || !reflect.DeepEqual(ev.Detail, tc.detail) {
			t.Fatalf("%s: unexpected event %+v", tc.code, ev)
		}
		if protocol.Describe(ev.Detail) == "" {
			t.Fatalf("%s: empty description", tc.code)
		}
	}
}

func TestDecodeEventBodyAtOffset13(t *testing.T) {
	buf := datagram(protocol.PacketEvent, 18, 0)
	copy(buf[9:], "FTLP")
	buf[13] = 7
	putF32(buf, 14, 81.25)

	ev, err := protocol.DecodeEvent(buf)
	if err != nil {
		t.Fatalf("decode event: %v", err)
	}
	fl, ok := ev.Detail.(protocol.FastestLap)
	if !ok {
		t.Fatalf("expected FastestLap, got %T", ev.Detail)
	}
	if fl.VehicleIdx != 7 || fl.LapTime != 81.25 {
		t.Fatalf("unexpected fastest lap: %+v", fl)
	}
	if got := protocol.Describe(fl); got != "fastest lap: car 7 1:21.250" {
		t.Fatalf("unexpected description: %q", got)
	}
}

func TestDecodeEventUnknownCode(t *testing.T) {
	buf := datagram(protocol.PacketEvent, 40, 0)
	copy(buf[9:], "XXXX")
	_, err := protocol.DecodeEvent(buf)
	if !errors.Is(err, protocol.ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
	if !errors.Is(err, protocol.ErrNotApplicable) {
		t.Fatalf("unknown event should be not applicable, got %v", err)
	}
}

func TestDecodeEventShortBody(t *testing.T) {
	buf := datagram(protocol.PacketEvent, 20, 0)
	copy(buf[9:], "SPTP")
	if _, err := protocol.DecodeEvent(buf); !errors.Is(err, protocol.ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}

	header := datagram(protocol.PacketEvent, 12, 0)
	if _, err := protocol.DecodeEvent(header); !errors.Is(err, protocol.ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer for missing code, got %v", err)
	}
}

func TestEncodeEventWithoutDetail(t *testing.T) {
	if _, err := protocol.Encode(protocol.EventPacket{Code: protocol.EventButtons}, 0); err == nil {
		t.Fatalf("expected error for event without detail")
	}
}
