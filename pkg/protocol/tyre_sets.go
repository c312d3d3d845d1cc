package protocol

const (
	// MaxTyreSets is the fixed number of tyre sets per car (13 dry, 7 wet).
	MaxTyreSets = 20

	tyreSetSize = 10
	// TyreSetsSize is the minimum length of a TyreSets datagram.
	TyreSetsSize = HeaderSize + 1 + MaxTyreSets*tyreSetSize + 1
)

type TyreSet struct {
	ActualTyreCompound uint8 `json:"actualTyreCompound"`
	VisualTyreCompound uint8 `json:"visualTyreCompound"`
	Wear               uint8 `json:"wear"`
	Available          uint8 `json:"available"`
	RecommendedSession uint8 `json:"recommendedSession"`
	LifeSpan           uint8 `json:"lifeSpan"`
	UsableLife         uint8 `json:"usableLife"`
	LapDeltaTime       int16 `json:"lapDeltaTime"`
	Fitted             uint8 `json:"fitted"`
}

type TyreSetsPacket struct {
	CarIdx    uint8     `json:"carIdx"`
	Sets      []TyreSet `json:"sets"`
	FittedIdx uint8     `json:"fittedIdx"`
}

var tyreSetLayout = layout[TyreSet]{
	base:   HeaderSize + 1,
	stride: tyreSetSize,
	read: func(r *reader) TyreSet {
		return TyreSet{
			ActualTyreCompound: r.u8(),
			VisualTyreCompound: r.u8(),
			Wear:               r.u8(),
			Available:          r.u8(),
			RecommendedSession: r.u8(),
			LifeSpan:           r.u8(),
			UsableLife:         r.u8(),
			LapDeltaTime:       r.i16(),
			Fitted:             r.u8(),
		}
	},
	write: func(w *writer, t TyreSet) {
		w.u8(t.ActualTyreCompound)
		w.u8(t.VisualTyreCompound)
		w.u8(t.Wear)
		w.u8(t.Available)
		w.u8(t.RecommendedSession)
		w.u8(t.LifeSpan)
		w.u8(t.UsableLife)
		w.i16(t.LapDeltaTime)
		w.u8(t.Fitted)
	},
}

func DecodeTyreSets(buf []byte) (TyreSetsPacket, error) {
	if err := expectKind(buf, PacketTyreSets); err != nil {
		return TyreSetsPacket{}, err
	}
	if err := requireLen(buf, PacketTyreSets, TyreSetsSize); err != nil {
		return TyreSetsPacket{}, err
	}
	sets, err := tyreSetLayout.decode(buf, MaxTyreSets)
	if err != nil {
		return TyreSetsPacket{}, err
	}
	return TyreSetsPacket{
		CarIdx:    buf[HeaderSize],
		Sets:      sets,
		FittedIdx: buf[tyreSetLayout.end(MaxTyreSets)],
	}, nil
}

func encodeTyreSets(p TyreSetsPacket, playerCarIndex uint8) ([]byte, error) {
	if len(p.Sets) > MaxTyreSets {
		return nil, invalidCount(PacketTyreSets, "sets", len(p.Sets), MaxTyreSets)
	}
	buf := make([]byte, TyreSetsSize)
	putEnvelope(buf, PacketTyreSets, playerCarIndex)
	buf[HeaderSize] = p.CarIdx
	tyreSetLayout.encode(buf, p.Sets)
	buf[tyreSetLayout.end(MaxTyreSets)] = p.FittedIdx
	return buf, nil
}
