package engine

import (
	"time"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

// Packet is a decoded datagram as it travels through the hub.
type Packet struct {
	ID             protocol.PacketID
	Kind           string
	Timestamp      time.Time
	Size           int
	PlayerCarIndex uint8
	Data           protocol.Telemetry
}

// NewPacket wraps a decoded record. Kind is derived from the record's id.
func NewPacket(data protocol.Telemetry, size int, playerCarIndex uint8, ts time.Time) Packet {
	id := data.PacketID()
	return Packet{
		ID:             id,
		Kind:           id.String(),
		Timestamp:      ts,
		Size:           size,
		PlayerCarIndex: playerCarIndex,
		Data:           data,
	}
}
