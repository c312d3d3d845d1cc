package protocol

import "fmt"

// EventCode is the four-character discriminant of an Event packet.
type EventCode string

const (
	EventFastestLap         EventCode = "FTLP"
	EventRetirement         EventCode = "RTMT"
	EventDRSEnabled         EventCode = "DRSE"
	EventDRSDisabled        EventCode = "DRSD"
	EventTeammateInPits     EventCode = "TMPT"
	EventChequeredFlag      EventCode = "CHQF"
	EventRaceWinner         EventCode = "RCWN"
	EventPenalty            EventCode = "PENA"
	EventSpeedTrap          EventCode = "SPTP"
	EventStartLights        EventCode = "STLG"
	EventLightsOut          EventCode = "LGOT"
	EventDriveThroughServed EventCode = "DTSV"
	EventStopGoServed       EventCode = "SGSV"
	EventFlashback          EventCode = "FLBK"
	EventButtons            EventCode = "BUTN"
	EventOvertake           EventCode = "OVTK"
	EventSafetyCar          EventCode = "SCAR"
	EventCollision          EventCode = "COLL"
)

// Event is the closed set of event bodies.
type Event interface {
	Code() EventCode
	event()
}

type FastestLap struct {
	VehicleIdx uint8   `json:"vehicleIdx"`
	LapTime    float32 `json:"lapTime"`
}

type Retirement struct {
	VehicleIdx uint8 `json:"vehicleIdx"`
}

// DRS covers both DRSE and DRSD; Enabled selects the code.
type DRS struct {
	Enabled bool `json:"enabled"`
}

type TeammateInPits struct {
	VehicleIdx uint8 `json:"vehicleIdx"`
}

type ChequeredFlag struct{}

type RaceWinner struct {
	VehicleIdx uint8 `json:"vehicleIdx"`
}

type Penalty struct {
	PenaltyType      uint8 `json:"penaltyType"`
	InfringementType uint8 `json:"infringementType"`
	VehicleIdx       uint8 `json:"vehicleIdx"`
	OtherVehicleIdx  uint8 `json:"otherVehicleIdx"`
	Time             uint8 `json:"time"`
	LapNum           uint8 `json:"lapNum"`
	PlacesGained     uint8 `json:"placesGained"`
}

type SpeedTrap struct {
	VehicleIdx                 uint8   `json:"vehicleIdx"`
	Speed                      float32 `json:"speed"`
	IsOverallFastestInSession  uint8   `json:"isOverallFastestInSession"`
	IsDriverFastestInSession   uint8   `json:"isDriverFastestInSession"`
	FastestVehicleIdxInSession uint8   `json:"fastestVehicleIdxInSession"`
	FastestSpeedInSession      float32 `json:"fastestSpeedInSession"`
}

type StartLights struct {
	NumLights uint8 `json:"numLights"`
}

type LightsOut struct{}

type DriveThroughServed struct {
	VehicleIdx uint8 `json:"vehicleIdx"`
}

type StopGoServed struct {
	VehicleIdx uint8 `json:"vehicleIdx"`
}

type Flashback struct {
	FrameIdentifier uint32  `json:"flashbackFrameIdentifier"`
	SessionTime     float32 `json:"flashbackSessionTime"`
}

type Buttons struct {
	ButtonStatus uint32 `json:"buttonStatus"`
}

type Overtake struct {
	OvertakingVehicleIdx     uint8 `json:"overtakingVehicleIdx"`
	BeingOvertakenVehicleIdx uint8 `json:"beingOvertakenVehicleIdx"`
}

type SafetyCar struct {
	SafetyCarType uint8 `json:"safetyCarType"`
	EventType     uint8 `json:"eventType"`
}

type Collision struct {
	Vehicle1Idx uint8 `json:"vehicle1Idx"`
	Vehicle2Idx uint8 `json:"vehicle2Idx"`
}

func (FastestLap) Code() EventCode         { return EventFastestLap }
func (Retirement) Code() EventCode         { return EventRetirement }
func (TeammateInPits) Code() EventCode     { return EventTeammateInPits }
func (ChequeredFlag) Code() EventCode      { return EventChequeredFlag }
func (RaceWinner) Code() EventCode         { return EventRaceWinner }
func (Penalty) Code() EventCode            { return EventPenalty }
func (SpeedTrap) Code() EventCode          { return EventSpeedTrap }
func (StartLights) Code() EventCode        { return EventStartLights }
func (LightsOut) Code() EventCode          { return EventLightsOut }
func (DriveThroughServed) Code() EventCode { return EventDriveThroughServed }
func (StopGoServed) Code() EventCode       { return EventStopGoServed }
func (Flashback) Code() EventCode          { return EventFlashback }
func (Buttons) Code() EventCode            { return EventButtons }
func (Overtake) Code() EventCode           { return EventOvertake }
func (SafetyCar) Code() EventCode          { return EventSafetyCar }
func (Collision) Code() EventCode          { return EventCollision }

func (d DRS) Code() EventCode {
	if d.Enabled {
		return EventDRSEnabled
	}
	return EventDRSDisabled
}

func (FastestLap) event()         {}
func (Retirement) event()         {}
func (DRS) event()                {}
func (TeammateInPits) event()     {}
func (ChequeredFlag) event()      {}
func (RaceWinner) event()         {}
func (Penalty) event()            {}
func (SpeedTrap) event()          {}
func (StartLights) event()        {}
func (LightsOut) event()          {}
func (DriveThroughServed) event() {}
func (StopGoServed) event()       {}
func (Flashback) event()          {}
func (Buttons) event()            {}
func (Overtake) event()           {}
func (SafetyCar) event()          {}
func (Collision) event()          {}

// EventPacket pairs the wire discriminant with its decoded body.
type EventPacket struct {
	Code   EventCode `json:"code"`
	Detail Event     `json:"detail"`
}

// eventBodySize returns the body length for code, or false for an unknown code.
func eventBodySize(code EventCode) (int, bool) {
	switch code {
	case EventDRSEnabled, EventDRSDisabled, EventChequeredFlag, EventLightsOut:
		return 0, true
	case EventRetirement, EventTeammateInPits, EventRaceWinner,
		EventDriveThroughServed, EventStopGoServed, EventStartLights:
		return 1, true
	case EventOvertake, EventSafetyCar, EventCollision:
		return 2, true
	case EventButtons:
		return 4, true
	case EventFastestLap:
		return 5, true
	case EventPenalty:
		return 7, true
	case EventFlashback:
		return 8, true
	case EventSpeedTrap:
		return 12, true
	}
	return 0, false
}

// EventSize returns the datagram length for code, or 0 for an unknown code.
func EventSize(code EventCode) int {
	n, ok := eventBodySize(code)
	if !ok {
		return 0
	}
	return eventBodyOffset + n
}

func DecodeEvent(buf []byte) (EventPacket, error) {
	if err := expectKind(buf, PacketEvent); err != nil {
		return EventPacket{}, err
	}
	if err := requireLen(buf, PacketEvent, eventBodyOffset); err != nil {
		return EventPacket{}, err
	}
	code := EventCode(buf[eventCodeOffset:eventBodyOffset])
	size, ok := eventBodySize(code)
	if !ok {
		return EventPacket{}, fmt.Errorf("%w %q", ErrUnknownEvent, string(code))
	}
	if err := requireLen(buf, PacketEvent, eventBodyOffset+size); err != nil {
		return EventPacket{}, err
	}

	r := newReader(buf, eventBodyOffset)
	var detail Event
	switch code {
	case EventFastestLap:
		detail = FastestLap{VehicleIdx: r.u8(), LapTime: r.f32()}
	case EventRetirement:
		detail = Retirement{VehicleIdx: r.u8()}
	case EventDRSEnabled:
		detail = DRS{Enabled: true}
	case EventDRSDisabled:
		detail = DRS{Enabled: false}
	case EventTeammateInPits:
		detail = TeammateInPits{VehicleIdx: r.u8()}
	case EventChequeredFlag:
		detail = ChequeredFlag{}
	case EventRaceWinner:
		detail = RaceWinner{VehicleIdx: r.u8()}
	case EventPenalty:
		detail = Penalty{
			PenaltyType:      r.u8(),
			InfringementType: r.u8(),
			VehicleIdx:       r.u8(),
			OtherVehicleIdx:  r.u8(),
			Time:             r.u8(),
			LapNum:           r.u8(),
			PlacesGained:     r.u8(),
		}
	case EventSpeedTrap:
		detail = SpeedTrap{
			VehicleIdx:                 r.u8(),
			Speed:                      r.f32(),
			IsOverallFastestInSession:  r.u8(),
			IsDriverFastestInSession:   r.u8(),
			FastestVehicleIdxInSession: r.u8(),
			FastestSpeedInSession:      r.f32(),
		}
	case EventStartLights:
		detail = StartLights{NumLights: r.u8()}
	case EventLightsOut:
		detail = LightsOut{}
	case EventDriveThroughServed:
		detail = DriveThroughServed{VehicleIdx: r.u8()}
	case EventStopGoServed:
		detail = StopGoServed{VehicleIdx: r.u8()}
	case EventFlashback:
		detail = Flashback{FrameIdentifier: r.u32(), SessionTime: r.f32()}
	case EventButtons:
		detail = Buttons{ButtonStatus: r.u32()}
	case EventOvertake:
		detail = Overtake{OvertakingVehicleIdx: r.u8(), BeingOvertakenVehicleIdx: r.u8()}
	case EventSafetyCar:
		detail = SafetyCar{SafetyCarType: r.u8(), EventType: r.u8()}
	case EventCollision:
		detail = Collision{Vehicle1Idx: r.u8(), Vehicle2Idx: r.u8()}
	}
	if r.err != nil {
		return EventPacket{}, shortBuffer(PacketEvent, eventBodyOffset+size, len(buf))
	}
	return EventPacket{Code: code, Detail: detail}, nil
}

func encodeEvent(p EventPacket) ([]byte, error) {
	if p.Detail == nil {
		return nil, fmt.Errorf("%w: event without detail", ErrUnknownEvent)
	}
	code := p.Detail.Code()
	size, ok := eventBodySize(code)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownEvent, string(code))
	}
	buf := make([]byte, eventBodyOffset+size)
	putEnvelope(buf, PacketEvent, 0)
	copy(buf[eventCodeOffset:eventBodyOffset], code)

	w := newWriter(buf, eventBodyOffset)
	switch e := p.Detail.(type) {
	case FastestLap:
		w.u8(e.VehicleIdx)
		w.f32(e.LapTime)
	case Retirement:
		w.u8(e.VehicleIdx)
	case TeammateInPits:
		w.u8(e.VehicleIdx)
	case RaceWinner:
		w.u8(e.VehicleIdx)
	case Penalty:
		w.u8(e.PenaltyType)
		w.u8(e.InfringementType)
		w.u8(e.VehicleIdx)
		w.u8(e.OtherVehicleIdx)
		w.u8(e.Time)
		w.u8(e.LapNum)
		w.u8(e.PlacesGained)
	case SpeedTrap:
		w.u8(e.VehicleIdx)
		w.f32(e.Speed)
		w.u8(e.IsOverallFastestInSession)
		w.u8(e.IsDriverFastestInSession)
		w.u8(e.FastestVehicleIdxInSession)
		w.f32(e.FastestSpeedInSession)
	case StartLights:
		w.u8(e.NumLights)
	case DriveThroughServed:
		w.u8(e.VehicleIdx)
	case StopGoServed:
		w.u8(e.VehicleIdx)
	case Flashback:
		w.u32(e.FrameIdentifier)
		w.f32(e.SessionTime)
	case Buttons:
		w.u32(e.ButtonStatus)
	case Overtake:
		w.u8(e.OvertakingVehicleIdx)
		w.u8(e.BeingOvertakenVehicleIdx)
	case SafetyCar:
		w.u8(e.SafetyCarType)
		w.u8(e.EventType)
	case Collision:
		w.u8(e.Vehicle1Idx)
		w.u8(e.Vehicle2Idx)
	case DRS, ChequeredFlag, LightsOut:
	}
	return buf, nil
}
