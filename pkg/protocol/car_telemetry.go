package protocol

const (
	carTelemetrySize = 60
	// CarTelemetrySize is the minimum length of a CarTelemetry datagram.
	CarTelemetrySize = HeaderSize + MaxCars*carTelemetrySize + 3
)

// Four-wheel arrays are ordered rear-left, rear-right, front-left, front-right.
type CarTelemetry struct {
	Speed                   uint16     `json:"speed"`
	Throttle                float32    `json:"throttle"`
	Steer                   float32    `json:"steer"`
	Brake                   float32    `json:"brake"`
	Clutch                  uint8      `json:"clutch"`
	Gear                    int8       `json:"gear"`
	EngineRPM               uint16     `json:"engineRPM"`
	DRS                     uint8      `json:"drs"`
	RevLightsPercent        uint8      `json:"revLightsPercent"`
	RevLightsBitValue       uint16     `json:"revLightsBitValue"`
	BrakesTemperature       [4]uint16  `json:"brakesTemperature"`
	TyresSurfaceTemperature [4]uint8   `json:"tyresSurfaceTemperature"`
	TyresInnerTemperature   [4]uint8   `json:"tyresInnerTemperature"`
	EngineTemperature       uint16     `json:"engineTemperature"`
	TyresPressure           [4]float32 `json:"tyresPressure"`
	SurfaceType             [4]uint8   `json:"surfaceType"`
}

type CarTelemetryPacket struct {
	Cars                         []CarTelemetry `json:"cars"`
	MFDPanelIndex                uint8          `json:"mfdPanelIndex"`
	MFDPanelIndexSecondaryPlayer uint8          `json:"mfdPanelIndexSecondaryPlayer"`
	SuggestedGear                int8           `json:"suggestedGear"`
}

var carTelemetryLayout = layout[CarTelemetry]{
	base:   HeaderSize,
	stride: carTelemetrySize,
	read: func(r *reader) CarTelemetry {
		return CarTelemetry{
			Speed:                   r.u16(),
			Throttle:                r.f32(),
			Steer:                   r.f32(),
			Brake:                   r.f32(),
			Clutch:                  r.u8(),
			Gear:                    r.i8(),
			EngineRPM:               r.u16(),
			DRS:                     r.u8(),
			RevLightsPercent:        r.u8(),
			RevLightsBitValue:       r.u16(),
			BrakesTemperature:       r.u16x4(),
			TyresSurfaceTemperature: r.u8x4(),
			TyresInnerTemperature:   r.u8x4(),
			EngineTemperature:       r.u16(),
			TyresPressure:           r.f32x4(),
			SurfaceType:             r.u8x4(),
		}
	},
	write: func(w *writer, c CarTelemetry) {
		w.u16(c.Speed)
		w.f32(c.Throttle)
		w.f32(c.Steer)
		w.f32(c.Brake)
		w.u8(c.Clutch)
		w.i8(c.Gear)
		w.u16(c.EngineRPM)
		w.u8(c.DRS)
		w.u8(c.RevLightsPercent)
		w.u16(c.RevLightsBitValue)
		w.u16x4(c.BrakesTemperature)
		w.u8x4(c.TyresSurfaceTemperature)
		w.u8x4(c.TyresInnerTemperature)
		w.u16(c.EngineTemperature)
		w.f32x4(c.TyresPressure)
		w.u8x4(c.SurfaceType)
	},
}

func DecodeCarTelemetry(buf []byte) (CarTelemetryPacket, error) {
	if err := expectKind(buf, PacketCarTelemetry); err != nil {
		return CarTelemetryPacket{}, err
	}
	if err := requireLen(buf, PacketCarTelemetry, CarTelemetrySize); err != nil {
		return CarTelemetryPacket{}, err
	}
	cars, err := carTelemetryLayout.decode(buf, MaxCars)
	if err != nil {
		return CarTelemetryPacket{}, err
	}
	r := newReader(buf, carTelemetryLayout.end(MaxCars))
	p := CarTelemetryPacket{
		Cars:                         cars,
		MFDPanelIndex:                r.u8(),
		MFDPanelIndexSecondaryPlayer: r.u8(),
		SuggestedGear:                r.i8(),
	}
	if r.err != nil {
		return CarTelemetryPacket{}, shortBuffer(PacketCarTelemetry, CarTelemetrySize, len(buf))
	}
	return p, nil
}

func encodeCarTelemetry(p CarTelemetryPacket, playerCarIndex uint8) ([]byte, error) {
	if len(p.Cars) > MaxCars {
		return nil, invalidCount(PacketCarTelemetry, "cars", len(p.Cars), MaxCars)
	}
	buf := make([]byte, CarTelemetrySize)
	putEnvelope(buf, PacketCarTelemetry, playerCarIndex)
	carTelemetryLayout.encode(buf, p.Cars)
	w := newWriter(buf, carTelemetryLayout.end(MaxCars))
	w.u8(p.MFDPanelIndex)
	w.u8(p.MFDPanelIndexSecondaryPlayer)
	w.i8(p.SuggestedGear)
	return buf, nil
}
