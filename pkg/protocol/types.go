package protocol

// PacketID is the packet-kind discriminant carried at byte 6 of every datagram.
type PacketID uint8

const (
	PacketMotion PacketID = iota
	PacketSession
	PacketLap
	PacketEvent
	PacketParticipants
	PacketCarSetup
	PacketCarTelemetry
	PacketCarStatus
	PacketFinalClassification
	PacketLobbyInfo
	PacketCarDamage
	PacketSessionHistory
	PacketTyreSets
	PacketMotionEx
	PacketTimeTrial

	packetCount = iota
)

// InvalidPacketID is reported to diagnostics when a buffer is too short to
// carry a packet kind at all.
const InvalidPacketID PacketID = 0xFF

// Known reports whether id is one of the fifteen decodable packet kinds.
func (id PacketID) Known() bool {
	return int(id) < packetCount
}

// Telemetry is the closed set of decoded packet records. Every record type in
// this package implements it; no other package can.
type Telemetry interface {
	PacketID() PacketID
	telemetry()
}

func (MotionPacket) PacketID() PacketID              { return PacketMotion }
func (SessionPacket) PacketID() PacketID             { return PacketSession }
func (LapPacket) PacketID() PacketID                 { return PacketLap }
func (EventPacket) PacketID() PacketID               { return PacketEvent }
func (ParticipantsPacket) PacketID() PacketID        { return PacketParticipants }
func (CarSetupPacket) PacketID() PacketID            { return PacketCarSetup }
func (CarTelemetryPacket) PacketID() PacketID        { return PacketCarTelemetry }
func (CarStatusPacket) PacketID() PacketID           { return PacketCarStatus }
func (FinalClassificationPacket) PacketID() PacketID { return PacketFinalClassification }
func (LobbyInfoPacket) PacketID() PacketID           { return PacketLobbyInfo }
func (CarDamagePacket) PacketID() PacketID           { return PacketCarDamage }
func (SessionHistoryPacket) PacketID() PacketID      { return PacketSessionHistory }
func (TyreSetsPacket) PacketID() PacketID            { return PacketTyreSets }
func (MotionExPacket) PacketID() PacketID            { return PacketMotionEx }
func (TimeTrialPacket) PacketID() PacketID           { return PacketTimeTrial }

func (MotionPacket) telemetry()              {}
func (SessionPacket) telemetry()             {}
func (LapPacket) telemetry()                 {}
func (EventPacket) telemetry()               {}
func (ParticipantsPacket) telemetry()        {}
func (CarSetupPacket) telemetry()            {}
func (CarTelemetryPacket) telemetry()        {}
func (CarStatusPacket) telemetry()           {}
func (FinalClassificationPacket) telemetry() {}
func (LobbyInfoPacket) telemetry()           {}
func (CarDamagePacket) telemetry()           {}
func (SessionHistoryPacket) telemetry()      {}
func (TyreSetsPacket) telemetry()            {}
func (MotionExPacket) telemetry()            {}
func (TimeTrialPacket) telemetry()           {}
