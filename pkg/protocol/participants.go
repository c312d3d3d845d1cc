package protocol

const (
	nameFieldSize   = 48
	participantSize = 60
	countOffset     = HeaderSize
	entriesOffset   = HeaderSize + 1
)

type Participant struct {
	AIControlled    uint8  `json:"aiControlled"`
	DriverID        uint8  `json:"driverId"`
	NetworkID       uint8  `json:"networkId"`
	TeamID          uint8  `json:"teamId"`
	MyTeam          uint8  `json:"myTeam"`
	RaceNumber      uint8  `json:"raceNumber"`
	Nationality     uint8  `json:"nationality"`
	Name            string `json:"name"`
	YourTelemetry   uint8  `json:"yourTelemetry"`
	ShowOnlineNames uint8  `json:"showOnlineNames"`
	TechLevel       uint16 `json:"techLevel"`
	Platform        uint8  `json:"platform"`
}

// ParticipantsPacket carries exactly numActiveCars entries.
type ParticipantsPacket struct {
	Participants []Participant `json:"participants"`
}

var participantLayout = layout[Participant]{
	base:   entriesOffset,
	stride: participantSize,
	read: func(r *reader) Participant {
		return Participant{
			AIControlled:    r.u8(),
			DriverID:        r.u8(),
			NetworkID:       r.u8(),
			TeamID:          r.u8(),
			MyTeam:          r.u8(),
			RaceNumber:      r.u8(),
			Nationality:     r.u8(),
			Name:            r.text(nameFieldSize),
			YourTelemetry:   r.u8(),
			ShowOnlineNames: r.u8(),
			TechLevel:       r.u16(),
			Platform:        r.u8(),
		}
	},
	write: func(w *writer, p Participant) {
		w.u8(p.AIControlled)
		w.u8(p.DriverID)
		w.u8(p.NetworkID)
		w.u8(p.TeamID)
		w.u8(p.MyTeam)
		w.u8(p.RaceNumber)
		w.u8(p.Nationality)
		w.text(p.Name, nameFieldSize)
		w.u8(p.YourTelemetry)
		w.u8(p.ShowOnlineNames)
		w.u16(p.TechLevel)
		w.u8(p.Platform)
	},
}

// readCount reads the leading entry count of a count-driven packet, rejects
// it above limit and checks the buffer holds that many entries.
func readCount[T any](buf []byte, id PacketID, field string, limit int, l layout[T]) (int, error) {
	if err := requireLen(buf, id, entriesOffset); err != nil {
		return 0, err
	}
	n := int(buf[countOffset])
	if n > limit {
		return 0, invalidCount(id, field, n, limit)
	}
	if err := requireLen(buf, id, l.end(n)); err != nil {
		return 0, err
	}
	return n, nil
}

func DecodeParticipants(buf []byte) (ParticipantsPacket, error) {
	if err := expectKind(buf, PacketParticipants); err != nil {
		return ParticipantsPacket{}, err
	}
	n, err := readCount(buf, PacketParticipants, "numActiveCars", MaxCars, participantLayout)
	if err != nil {
		return ParticipantsPacket{}, err
	}
	entries, err := participantLayout.decode(buf, n)
	if err != nil {
		return ParticipantsPacket{}, err
	}
	return ParticipantsPacket{Participants: entries}, nil
}

func encodeParticipants(p ParticipantsPacket, playerCarIndex uint8) ([]byte, error) {
	n := len(p.Participants)
	if n > MaxCars {
		return nil, invalidCount(PacketParticipants, "numActiveCars", n, MaxCars)
	}
	buf := make([]byte, participantLayout.end(n))
	putEnvelope(buf, PacketParticipants, playerCarIndex)
	buf[countOffset] = uint8(n)
	participantLayout.encode(buf, p.Participants)
	return buf, nil
}
