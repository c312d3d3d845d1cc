package protocol

const (
	lapDataSize = 57
	// LapSize is the minimum length of a Lap datagram.
	LapSize = HeaderSize + lapDataSize
)

// LapPacket is the lap record of car slot 0, the first record of the Lap
// payload; playerCarIndex is not consulted. Split times are carried as
// millisecond part plus minute part, as on the wire.
type LapPacket struct {
	LastLapTimeMs                uint32  `json:"lastLapTimeMs"`
	CurrentLapTimeMs             uint32  `json:"currentLapTimeMs"`
	Sector1TimeMsPart            uint16  `json:"sector1TimeMsPart"`
	Sector1TimeMinutesPart       uint8   `json:"sector1TimeMinutesPart"`
	Sector2TimeMsPart            uint16  `json:"sector2TimeMsPart"`
	Sector2TimeMinutesPart       uint8   `json:"sector2TimeMinutesPart"`
	DeltaToCarInFrontMsPart      uint16  `json:"deltaToCarInFrontMsPart"`
	DeltaToCarInFrontMinutesPart uint8   `json:"deltaToCarInFrontMinutesPart"`
	DeltaToRaceLeaderMsPart      uint16  `json:"deltaToRaceLeaderMsPart"`
	DeltaToRaceLeaderMinutesPart uint8   `json:"deltaToRaceLeaderMinutesPart"`
	LapDistance                  float32 `json:"lapDistance"`
	TotalDistance                float32 `json:"totalDistance"`
	SafetyCarDelta               float32 `json:"safetyCarDelta"`
	CarPosition                  uint8   `json:"carPosition"`
	CurrentLapNum                uint8   `json:"currentLapNum"`
	PitStatus                    uint8   `json:"pitStatus"`
	NumPitStops                  uint8   `json:"numPitStops"`
	Sector                       uint8   `json:"sector"`
	CurrentLapInvalid            uint8   `json:"currentLapInvalid"`
	Penalties                    uint8   `json:"penalties"`
	TotalWarnings                uint8   `json:"totalWarnings"`
	CornerCuttingWarnings        uint8   `json:"cornerCuttingWarnings"`
	NumUnservedDriveThroughPens  uint8   `json:"numUnservedDriveThroughPens"`
	NumUnservedStopGoPens        uint8   `json:"numUnservedStopGoPens"`
	GridPosition                 uint8   `json:"gridPosition"`
	DriverStatus                 uint8   `json:"driverStatus"`
	ResultStatus                 uint8   `json:"resultStatus"`
	PitLaneTimerActive           uint8   `json:"pitLaneTimerActive"`
	PitLaneTimeInLaneMs          uint16  `json:"pitLaneTimeInLaneMs"`
	PitStopTimerMs               uint16  `json:"pitStopTimerMs"`
	PitStopShouldServePen        uint8   `json:"pitStopShouldServePen"`
	SpeedTrapFastestSpeed        float32 `json:"speedTrapFastestSpeed"`
	SpeedTrapFastestLap          uint8   `json:"speedTrapFastestLap"`
}

// Sector1TimeMs folds the minute part into a single millisecond value.
func (p LapPacket) Sector1TimeMs() uint32 {
	return uint32(p.Sector1TimeMinutesPart)*60000 + uint32(p.Sector1TimeMsPart)
}

func (p LapPacket) Sector2TimeMs() uint32 {
	return uint32(p.Sector2TimeMinutesPart)*60000 + uint32(p.Sector2TimeMsPart)
}

func DecodeLap(buf []byte) (LapPacket, error) {
	if err := expectKind(buf, PacketLap); err != nil {
		return LapPacket{}, err
	}
	if err := requireLen(buf, PacketLap, LapSize); err != nil {
		return LapPacket{}, err
	}

	r := newReader(buf, HeaderSize)
	p := LapPacket{
		LastLapTimeMs:                r.u32(),
		CurrentLapTimeMs:             r.u32(),
		Sector1TimeMsPart:            r.u16(),
		Sector1TimeMinutesPart:       r.u8(),
		Sector2TimeMsPart:            r.u16(),
		Sector2TimeMinutesPart:       r.u8(),
		DeltaToCarInFrontMsPart:      r.u16(),
		DeltaToCarInFrontMinutesPart: r.u8(),
		DeltaToRaceLeaderMsPart:      r.u16(),
		DeltaToRaceLeaderMinutesPart: r.u8(),
		LapDistance:                  r.f32(),
		TotalDistance:                r.f32(),
		SafetyCarDelta:               r.f32(),
		CarPosition:                  r.u8(),
		CurrentLapNum:                r.u8(),
		PitStatus:                    r.u8(),
		NumPitStops:                  r.u8(),
		Sector:                       r.u8(),
		CurrentLapInvalid:            r.u8(),
		Penalties:                    r.u8(),
		TotalWarnings:                r.u8(),
		CornerCuttingWarnings:        r.u8(),
		NumUnservedDriveThroughPens:  r.u8(),
		NumUnservedStopGoPens:        r.u8(),
		GridPosition:                 r.u8(),
		DriverStatus:                 r.u8(),
		ResultStatus:                 r.u8(),
		PitLaneTimerActive:           r.u8(),
		PitLaneTimeInLaneMs:          r.u16(),
		PitStopTimerMs:               r.u16(),
		PitStopShouldServePen:        r.u8(),
		SpeedTrapFastestSpeed:        r.f32(),
		SpeedTrapFastestLap:          r.u8(),
	}
	if r.err != nil {
		return LapPacket{}, shortBuffer(PacketLap, LapSize, len(buf))
	}
	return p, nil
}

func encodeLap(p LapPacket, playerCarIndex uint8) ([]byte, error) {
	buf := make([]byte, LapSize)
	putEnvelope(buf, PacketLap, playerCarIndex)

	w := newWriter(buf, HeaderSize)
	w.u32(p.LastLapTimeMs)
	w.u32(p.CurrentLapTimeMs)
	w.u16(p.Sector1TimeMsPart)
	w.u8(p.Sector1TimeMinutesPart)
	w.u16(p.Sector2TimeMsPart)
	w.u8(p.Sector2TimeMinutesPart)
	w.u16(p.DeltaToCarInFrontMsPart)
	w.u8(p.DeltaToCarInFrontMinutesPart)
	w.u16(p.DeltaToRaceLeaderMsPart)
	w.u8(p.DeltaToRaceLeaderMinutesPart)
	w.f32(p.LapDistance)
	w.f32(p.TotalDistance)
	w.f32(p.SafetyCarDelta)
	w.u8(p.CarPosition)
	w.u8(p.CurrentLapNum)
	w.u8(p.PitStatus)
	w.u8(p.NumPitStops)
	w.u8(p.Sector)
	w.u8(p.CurrentLapInvalid)
	w.u8(p.Penalties)
	w.u8(p.TotalWarnings)
	w.u8(p.CornerCuttingWarnings)
	w.u8(p.NumUnservedDriveThroughPens)
	w.u8(p.NumUnservedStopGoPens)
	w.u8(p.GridPosition)
	w.u8(p.DriverStatus)
	w.u8(p.ResultStatus)
	w.u8(p.PitLaneTimerActive)
	w.u16(p.PitLaneTimeInLaneMs)
	w.u16(p.PitStopTimerMs)
	w.u8(p.PitStopShouldServePen)
	w.f32(p.SpeedTrapFastestSpeed)
	w.u8(p.SpeedTrapFastestLap)
	return buf, nil
}
