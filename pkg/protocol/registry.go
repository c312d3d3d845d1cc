package protocol

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

var kindNames = [packetCount]string{
	PacketMotion:              "motion",
	PacketSession:             "session",
	PacketLap:                 "lap",
	PacketEvent:               "event",
	PacketParticipants:        "participants",
	PacketCarSetup:            "car_setup",
	PacketCarTelemetry:        "car_telemetry",
	PacketCarStatus:           "car_status",
	PacketFinalClassification: "final_classification",
	PacketLobbyInfo:           "lobby_info",
	PacketCarDamage:           "car_damage",
	PacketSessionHistory:      "session_history",
	PacketTyreSets:            "tyre_sets",
	PacketMotionEx:            "motion_ex",
	PacketTimeTrial:           "time_trial",
}

func (id PacketID) String() string {
	if id.Known() {
		return kindNames[id]
	}
	return fmt.Sprintf("unknown(0x%02x)", uint8(id))
}

// Kinds returns every decodable packet kind in id order.
func Kinds() []PacketID {
	out := make([]PacketID, 0, packetCount)
	for id := PacketID(0); id.Known(); id++ {
		out = append(out, id)
	}
	return out
}

// ParseKind resolves a kind name ("car_damage") or a numeric id ("10", "0x0a").
func ParseKind(s string) (PacketID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for id, name := range kindNames {
		if name == s {
			return PacketID(id), nil
		}
	}
	if n, err := strconv.ParseUint(s, 0, 8); err == nil && PacketID(n).Known() {
		return PacketID(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPacket, s)
}

// ParseText converts a fixed-width NUL-padded field into a Go string. Bytes
// after the first NUL are discarded; invalid UTF-8 is replaced.
func ParseText(field []byte) string {
	if idx := bytes.IndexByte(field, 0x00); idx >= 0 {
		field = field[:idx]
	}
	return strings.ToValidUTF8(string(field), "�")
}
