package protocol

import "fmt"

// Decode routes buf to the decoder for its packet kind and returns the typed
// record. Failures carry the sentinels in errors.go.
func Decode(buf []byte) (Telemetry, error) {
	id, err := PeekKind(buf)
	if err != nil {
		return nil, err
	}
	switch id {
	case PacketMotion:
		return wrap(DecodeMotion(buf))
	case PacketSession:
		return wrap(DecodeSession(buf))
	case PacketLap:
		return wrap(DecodeLap(buf))
	case PacketEvent:
		return wrap(DecodeEvent(buf))
	case PacketParticipants:
		return wrap(DecodeParticipants(buf))
	case PacketCarSetup:
		return wrap(DecodeCarSetup(buf))
	case PacketCarTelemetry:
		return wrap(DecodeCarTelemetry(buf))
	case PacketCarStatus:
		return wrap(DecodeCarStatus(buf))
	case PacketFinalClassification:
		return wrap(DecodeFinalClassification(buf))
	case PacketLobbyInfo:
		return wrap(DecodeLobbyInfo(buf))
	case PacketCarDamage:
		return wrap(DecodeCarDamage(buf))
	case PacketSessionHistory:
		return wrap(DecodeSessionHistory(buf))
	case PacketTyreSets:
		return wrap(DecodeTyreSets(buf))
	case PacketMotionEx:
		return wrap(DecodeMotionEx(buf))
	case PacketTimeTrial:
		return wrap(DecodeTimeTrial(buf))
	}
	return nil, fmt.Errorf("%w 0x%02x", ErrUnknownPacket, uint8(id))
}

func wrap[T Telemetry](v T, err error) (Telemetry, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Encode serialises t into a datagram that Decode maps back to t. The
// envelope carries playerCarIndex; CarDamage also uses it to pick the slot.
func Encode(t Telemetry, playerCarIndex uint8) ([]byte, error) {
	switch p := t.(type) {
	case MotionPacket:
		return encodeMotion(p, playerCarIndex)
	case SessionPacket:
		return encodeSession(p, playerCarIndex)
	case LapPacket:
		return encodeLap(p, playerCarIndex)
	case EventPacket:
		return encodeEvent(p)
	case ParticipantsPacket:
		return encodeParticipants(p, playerCarIndex)
	case CarSetupPacket:
		return encodeCarSetup(p, playerCarIndex)
	case CarTelemetryPacket:
		return encodeCarTelemetry(p, playerCarIndex)
	case CarStatusPacket:
		return encodeCarStatus(p, playerCarIndex)
	case FinalClassificationPacket:
		return encodeFinalClassification(p, playerCarIndex)
	case LobbyInfoPacket:
		return encodeLobbyInfo(p, playerCarIndex)
	case CarDamagePacket:
		return encodeCarDamage(p, playerCarIndex)
	case SessionHistoryPacket:
		return encodeSessionHistory(p, playerCarIndex)
	case TyreSetsPacket:
		return encodeTyreSets(p, playerCarIndex)
	case MotionExPacket:
		return encodeMotionEx(p, playerCarIndex)
	case TimeTrialPacket:
		return encodeTimeTrial(p, playerCarIndex)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownPacket, t)
}
