package protocol

const (
	// MaxTyreStints is the width of every tyre-stint history array.
	MaxTyreStints = 8

	classificationSize = 45
)

type TyreStint struct {
	ActualCompound uint8 `json:"actualCompound"`
	VisualCompound uint8 `json:"visualCompound"`
	EndLap         uint8 `json:"endLap"`
}

// Classification is one finisher. Stints holds numTyreStints entries taken
// from the three fixed eight-wide stint arrays.
type Classification struct {
	Position      uint8       `json:"position"`
	NumLaps       uint8       `json:"numLaps"`
	GridPosition  uint8       `json:"gridPosition"`
	Points        uint8       `json:"points"`
	NumPitStops   uint8       `json:"numPitStops"`
	ResultStatus  uint8       `json:"resultStatus"`
	BestLapTimeMs uint32      `json:"bestLapTimeMs"`
	TotalRaceTime float64     `json:"totalRaceTime"`
	PenaltiesTime uint8       `json:"penaltiesTime"`
	NumPenalties  uint8       `json:"numPenalties"`
	Stints        []TyreStint `json:"stints"`
}

type FinalClassificationPacket struct {
	Cars []Classification `json:"cars"`
}

var classificationLayout = layout[Classification]{
	base:   entriesOffset,
	stride: classificationSize,
	read: func(r *reader) Classification {
		c := Classification{
			Position:      r.u8(),
			NumLaps:       r.u8(),
			GridPosition:  r.u8(),
			Points:        r.u8(),
			NumPitStops:   r.u8(),
			ResultStatus:  r.u8(),
			BestLapTimeMs: r.u32(),
			TotalRaceTime: r.f64(),
			PenaltiesTime: r.u8(),
			NumPenalties:  r.u8(),
		}
		n := int(r.u8())
		var actual, visual, end [MaxTyreStints]uint8
		for i := range actual {
			actual[i] = r.u8()
		}
		for i := range visual {
			visual[i] = r.u8()
		}
		for i := range end {
			end[i] = r.u8()
		}
		if n > MaxTyreStints {
			r.fail(invalidCount(PacketFinalClassification, "numTyreStints", n, MaxTyreStints))
			return c
		}
		c.Stints = make([]TyreStint, n)
		for i := range c.Stints {
			c.Stints[i] = TyreStint{ActualCompound: actual[i], VisualCompound: visual[i], EndLap: end[i]}
		}
		return c
	},
	write: func(w *writer, c Classification) {
		w.u8(c.Position)
		w.u8(c.NumLaps)
		w.u8(c.GridPosition)
		w.u8(c.Points)
		w.u8(c.NumPitStops)
		w.u8(c.ResultStatus)
		w.u32(c.BestLapTimeMs)
		w.f64(c.TotalRaceTime)
		w.u8(c.PenaltiesTime)
		w.u8(c.NumPenalties)
		w.u8(uint8(len(c.Stints)))
		start := w.off
		for i, s := range c.Stints {
			w.buf[start+i] = s.ActualCompound
			w.buf[start+MaxTyreStints+i] = s.VisualCompound
			w.buf[start+2*MaxTyreStints+i] = s.EndLap
		}
		w.skip(3 * MaxTyreStints)
	},
}

func DecodeFinalClassification(buf []byte) (FinalClassificationPacket, error) {
	if err := expectKind(buf, PacketFinalClassification); err != nil {
		return FinalClassificationPacket{}, err
	}
	n, err := readCount(buf, PacketFinalClassification, "numCars", MaxCars, classificationLayout)
	if err != nil {
		return FinalClassificationPacket{}, err
	}
	cars, err := classificationLayout.decode(buf, n)
	if err != nil {
		return FinalClassificationPacket{}, err
	}
	return FinalClassificationPacket{Cars: cars}, nil
}

func encodeFinalClassification(p FinalClassificationPacket, playerCarIndex uint8) ([]byte, error) {
	n := len(p.Cars)
	if n > MaxCars {
		return nil, invalidCount(PacketFinalClassification, "numCars", n, MaxCars)
	}
	for _, c := range p.Cars {
		if len(c.Stints) > MaxTyreStints {
			return nil, invalidCount(PacketFinalClassification, "numTyreStints", len(c.Stints), MaxTyreStints)
		}
	}
	buf := make([]byte, classificationLayout.end(n))
	putEnvelope(buf, PacketFinalClassification, playerCarIndex)
	buf[countOffset] = uint8(n)
	classificationLayout.encode(buf, p.Cars)
	return buf, nil
}
