package protocol

const (
	// HeaderSize is the envelope length preceding every payload except Event bodies.
	HeaderSize = 29
	// MaxCars is the number of car slots in every per-car array.
	MaxCars = 22

	PacketFormat = 2024
	GameYear     = 24

	kindOffset           = 6
	playerCarIndexOffset = 27
	eventCodeOffset      = 9
	eventCodeSize        = 4
	eventBodyOffset      = eventCodeOffset + eventCodeSize
)

// PeekKind returns the packet-kind byte without validating anything else.
func PeekKind(buf []byte) (PacketID, error) {
	if len(buf) <= kindOffset {
		return InvalidPacketID, shortBuffer(InvalidPacketID, kindOffset+1, len(buf))
	}
	return PacketID(buf[kindOffset]), nil
}

// PeekPlayerCarIndex returns the envelope's player car slot.
func PeekPlayerCarIndex(buf []byte) (uint8, error) {
	if len(buf) <= playerCarIndexOffset {
		id, _ := PeekKind(buf)
		return 0, shortBuffer(id, playerCarIndexOffset+1, len(buf))
	}
	return buf[playerCarIndexOffset], nil
}

// expectKind is the first step of every decoder.
func expectKind(buf []byte, want PacketID) error {
	id, err := PeekKind(buf)
	if err != nil {
		return err
	}
	if id != want {
		return ErrNotApplicable
	}
	return nil
}

func requireLen(buf []byte, id PacketID, need int) error {
	if len(buf) < need {
		return shortBuffer(id, need, len(buf))
	}
	return nil
}

func putEnvelope(buf []byte, id PacketID, playerCarIndex uint8) {
	w := &writer{buf: buf}
	w.u16(PacketFormat)
	w.u8(GameYear)
	w.u8(1) // game major version
	w.u8(0)
	w.u8(1) // packet version
	w.u8(uint8(id))
	if len(buf) > playerCarIndexOffset && id != PacketEvent {
		buf[playerCarIndexOffset] = playerCarIndex
	}
}
