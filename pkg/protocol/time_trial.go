package protocol

const (
	timeTrialSetSize = 24
	// TimeTrialSize is the minimum length of a TimeTrial datagram.
	TimeTrialSize = HeaderSize + 3*timeTrialSetSize
)

type TimeTrialDataSet struct {
	CarIdx              uint8  `json:"carIdx"`
	TeamID              uint8  `json:"teamId"`
	LapTimeMs           uint32 `json:"lapTimeMs"`
	Sector1TimeMs       uint32 `json:"sector1TimeMs"`
	Sector2TimeMs       uint32 `json:"sector2TimeMs"`
	Sector3TimeMs       uint32 `json:"sector3TimeMs"`
	TractionControl     uint8  `json:"tractionControl"`
	GearboxAssist       uint8  `json:"gearboxAssist"`
	AntiLockBrakes      uint8  `json:"antiLockBrakes"`
	EqualCarPerformance uint8  `json:"equalCarPerformance"`
	CustomSetup         uint8  `json:"customSetup"`
	Valid               uint8  `json:"valid"`
}

type TimeTrialPacket struct {
	PlayerSessionBest TimeTrialDataSet `json:"playerSessionBest"`
	PersonalBest      TimeTrialDataSet `json:"personalBest"`
	Rival             TimeTrialDataSet `json:"rival"`
}

var timeTrialSetLayout = layout[TimeTrialDataSet]{
	base:   HeaderSize,
	stride: timeTrialSetSize,
	read: func(r *reader) TimeTrialDataSet {
		return TimeTrialDataSet{
			CarIdx:              r.u8(),
			TeamID:              r.u8(),
			LapTimeMs:           r.u32(),
			Sector1TimeMs:       r.u32(),
			Sector2TimeMs:       r.u32(),
			Sector3TimeMs:       r.u32(),
			TractionControl:     r.u8(),
			GearboxAssist:       r.u8(),
			AntiLockBrakes:      r.u8(),
			EqualCarPerformance: r.u8(),
			CustomSetup:         r.u8(),
			Valid:               r.u8(),
		}
	},
	write: func(w *writer, s TimeTrialDataSet) {
		w.u8(s.CarIdx)
		w.u8(s.TeamID)
		w.u32(s.LapTimeMs)
		w.u32(s.Sector1TimeMs)
		w.u32(s.Sector2TimeMs)
		w.u32(s.Sector3TimeMs)
		w.u8(s.TractionControl)
		w.u8(s.GearboxAssist)
		w.u8(s.AntiLockBrakes)
		w.u8(s.EqualCarPerformance)
		w.u8(s.CustomSetup)
		w.u8(s.Valid)
	},
}

func DecodeTimeTrial(buf []byte) (TimeTrialPacket, error) {
	if err := expectKind(buf, PacketTimeTrial); err != nil {
		return TimeTrialPacket{}, err
	}
	if err := requireLen(buf, PacketTimeTrial, TimeTrialSize); err != nil {
		return TimeTrialPacket{}, err
	}
	sets, err := timeTrialSetLayout.decode(buf, 3)
	if err != nil {
		return TimeTrialPacket{}, err
	}
	return TimeTrialPacket{PlayerSessionBest: sets[0], PersonalBest: sets[1], Rival: sets[2]}, nil
}

func encodeTimeTrial(p TimeTrialPacket, playerCarIndex uint8) ([]byte, error) {
	buf := make([]byte, TimeTrialSize)
	putEnvelope(buf, PacketTimeTrial, playerCarIndex)
	timeTrialSetLayout.encode(buf, []TimeTrialDataSet{p.PlayerSessionBest, p.PersonalBest, p.Rival})
	return buf, nil
}
