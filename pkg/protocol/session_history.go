package protocol

const (
	// MaxLapHistory is the fixed number of lap slots in SessionHistory.
	MaxLapHistory = 100

	lapHistorySize         = 14
	stintHistorySize       = 3
	sessionHistoryScalars  = 7
	lapHistoryOffset       = HeaderSize + sessionHistoryScalars
	tyreStintHistoryOffset = lapHistoryOffset + MaxLapHistory*lapHistorySize
	// SessionHistorySize is the minimum length of a SessionHistory datagram.
	SessionHistorySize = tyreStintHistoryOffset + MaxTyreStints*stintHistorySize
)

type LapHistory struct {
	LapTimeMs              uint32 `json:"lapTimeMs"`
	Sector1TimeMsPart      uint16 `json:"sector1TimeMsPart"`
	Sector1TimeMinutesPart uint8  `json:"sector1TimeMinutesPart"`
	Sector2TimeMsPart      uint16 `json:"sector2TimeMsPart"`
	Sector2TimeMinutesPart uint8  `json:"sector2TimeMinutesPart"`
	Sector3TimeMsPart      uint16 `json:"sector3TimeMsPart"`
	Sector3TimeMinutesPart uint8  `json:"sector3TimeMinutesPart"`
	LapValidBitFlags       uint8  `json:"lapValidBitFlags"`
}

type TyreStintHistory struct {
	EndLap             uint8 `json:"endLap"`
	TyreActualCompound uint8 `json:"tyreActualCompound"`
	TyreVisualCompound uint8 `json:"tyreVisualCompound"`
}

// SessionHistoryPacket always carries the full 100 lap slots and 8 stint
// slots; NumLaps and NumTyreStints say how many are populated.
type SessionHistoryPacket struct {
	CarIdx            uint8              `json:"carIdx"`
	NumLaps           uint8              `json:"numLaps"`
	NumTyreStints     uint8              `json:"numTyreStints"`
	BestLapTimeLapNum uint8              `json:"bestLapTimeLapNum"`
	BestSector1LapNum uint8              `json:"bestSector1LapNum"`
	BestSector2LapNum uint8              `json:"bestSector2LapNum"`
	BestSector3LapNum uint8              `json:"bestSector3LapNum"`
	Laps              []LapHistory       `json:"laps"`
	TyreStints        []TyreStintHistory `json:"tyreStints"`
}

var lapHistoryLayout = layout[LapHistory]{
	base:   lapHistoryOffset,
	stride: lapHistorySize,
	read: func(r *reader) LapHistory {
		return LapHistory{
			LapTimeMs:              r.u32(),
			Sector1TimeMsPart:      r.u16(),
			Sector1TimeMinutesPart: r.u8(),
			Sector2TimeMsPart:      r.u16(),
			Sector2TimeMinutesPart: r.u8(),
			Sector3TimeMsPart:      r.u16(),
			Sector3TimeMinutesPart: r.u8(),
			LapValidBitFlags:       r.u8(),
		}
	},
	write: func(w *writer, l LapHistory) {
		w.u32(l.LapTimeMs)
		w.u16(l.Sector1TimeMsPart)
		w.u8(l.Sector1TimeMinutesPart)
		w.u16(l.Sector2TimeMsPart)
		w.u8(l.Sector2TimeMinutesPart)
		w.u16(l.Sector3TimeMsPart)
		w.u8(l.Sector3TimeMinutesPart)
		w.u8(l.LapValidBitFlags)
	},
}

var tyreStintHistoryLayout = layout[TyreStintHistory]{
	base:   tyreStintHistoryOffset,
	stride: stintHistorySize,
	read: func(r *reader) TyreStintHistory {
		return TyreStintHistory{
			EndLap:             r.u8(),
			TyreActualCompound: r.u8(),
			TyreVisualCompound: r.u8(),
		}
	},
	write: func(w *writer, s TyreStintHistory) {
		w.u8(s.EndLap)
		w.u8(s.TyreActualCompound)
		w.u8(s.TyreVisualCompound)
	},
}

func DecodeSessionHistory(buf []byte) (SessionHistoryPacket, error) {
	if err := expectKind(buf, PacketSessionHistory); err != nil {
		return SessionHistoryPacket{}, err
	}
	if err := requireLen(buf, PacketSessionHistory, SessionHistorySize); err != nil {
		return SessionHistoryPacket{}, err
	}

	r := newReader(buf, HeaderSize)
	p := SessionHistoryPacket{
		CarIdx:            r.u8(),
		NumLaps:           r.u8(),
		NumTyreStints:     r.u8(),
		BestLapTimeLapNum: r.u8(),
		BestSector1LapNum: r.u8(),
		BestSector2LapNum: r.u8(),
		BestSector3LapNum: r.u8(),
	}
	if r.err != nil {
		return SessionHistoryPacket{}, shortBuffer(PacketSessionHistory, SessionHistorySize, len(buf))
	}

	var err error
	if p.Laps, err = lapHistoryLayout.decode(buf, MaxLapHistory); err != nil {
		return SessionHistoryPacket{}, err
	}
	if p.TyreStints, err = tyreStintHistoryLayout.decode(buf, MaxTyreStints); err != nil {
		return SessionHistoryPacket{}, err
	}
	return p, nil
}

func encodeSessionHistory(p SessionHistoryPacket, playerCarIndex uint8) ([]byte, error) {
	if len(p.Laps) > MaxLapHistory {
		return nil, invalidCount(PacketSessionHistory, "laps", len(p.Laps), MaxLapHistory)
	}
	if len(p.TyreStints) > MaxTyreStints {
		return nil, invalidCount(PacketSessionHistory, "tyreStints", len(p.TyreStints), MaxTyreStints)
	}
	buf := make([]byte, SessionHistorySize)
	putEnvelope(buf, PacketSessionHistory, playerCarIndex)

	w := newWriter(buf, HeaderSize)
	w.u8(p.CarIdx)
	w.u8(p.NumLaps)
	w.u8(p.NumTyreStints)
	w.u8(p.BestLapTimeLapNum)
	w.u8(p.BestSector1LapNum)
	w.u8(p.BestSector2LapNum)
	w.u8(p.BestSector3LapNum)
	lapHistoryLayout.encode(buf, p.Laps)
	tyreStintHistoryLayout.encode(buf, p.TyreStints)
	return buf, nil
}
