package protocol

const (
	carSetupSize = 50
	// CarSetupSize is the minimum length of a CarSetup datagram.
	CarSetupSize = HeaderSize + MaxCars*carSetupSize + 4
)

type CarSetup struct {
	FrontWing              uint8   `json:"frontWing"`
	RearWing               uint8   `json:"rearWing"`
	OnThrottle             uint8   `json:"onThrottle"`
	OffThrottle            uint8   `json:"offThrottle"`
	FrontCamber            float32 `json:"frontCamber"`
	RearCamber             float32 `json:"rearCamber"`
	FrontToe               float32 `json:"frontToe"`
	RearToe                float32 `json:"rearToe"`
	FrontSuspension        uint8   `json:"frontSuspension"`
	RearSuspension         uint8   `json:"rearSuspension"`
	FrontAntiRollBar       uint8   `json:"frontAntiRollBar"`
	RearAntiRollBar        uint8   `json:"rearAntiRollBar"`
	FrontSuspensionHeight  uint8   `json:"frontSuspensionHeight"`
	RearSuspensionHeight   uint8   `json:"rearSuspensionHeight"`
	BrakePressure          uint8   `json:"brakePressure"`
	BrakeBias              uint8   `json:"brakeBias"`
	EngineBraking          uint8   `json:"engineBraking"`
	RearLeftTyrePressure   float32 `json:"rearLeftTyrePressure"`
	RearRightTyrePressure  float32 `json:"rearRightTyrePressure"`
	FrontLeftTyrePressure  float32 `json:"frontLeftTyrePressure"`
	FrontRightTyrePressure float32 `json:"frontRightTyrePressure"`
	Ballast                uint8   `json:"ballast"`
	FuelLoad               float32 `json:"fuelLoad"`
}

type CarSetupPacket struct {
	Cars               []CarSetup `json:"cars"`
	NextFrontWingValue float32    `json:"nextFrontWingValue"`
}

var carSetupLayout = layout[CarSetup]{
	base:   HeaderSize,
	stride: carSetupSize,
	read: func(r *reader) CarSetup {
		return CarSetup{
			FrontWing:              r.u8(),
			RearWing:               r.u8(),
			OnThrottle:             r.u8(),
			OffThrottle:            r.u8(),
			FrontCamber:            r.f32(),
			RearCamber:             r.f32(),
			FrontToe:               r.f32(),
			RearToe:                r.f32(),
			FrontSuspension:        r.u8(),
			RearSuspension:         r.u8(),
			FrontAntiRollBar:       r.u8(),
			RearAntiRollBar:        r.u8(),
			FrontSuspensionHeight:  r.u8(),
			RearSuspensionHeight:   r.u8(),
			BrakePressure:          r.u8(),
			BrakeBias:              r.u8(),
			EngineBraking:          r.u8(),
			RearLeftTyrePressure:   r.f32(),
			RearRightTyrePressure:  r.f32(),
			FrontLeftTyrePressure:  r.f32(),
			FrontRightTyrePressure: r.f32(),
			Ballast:                r.u8(),
			FuelLoad:               r.f32(),
		}
	},
	write: func(w *writer, c CarSetup) {
		w.u8(c.FrontWing)
		w.u8(c.RearWing)
		w.u8(c.OnThrottle)
		w.u8(c.OffThrottle)
		w.f32(c.FrontCamber)
		w.f32(c.RearCamber)
		w.f32(c.FrontToe)
		w.f32(c.RearToe)
		w.u8(c.FrontSuspension)
		w.u8(c.RearSuspension)
		w.u8(c.FrontAntiRollBar)
		w.u8(c.RearAntiRollBar)
		w.u8(c.FrontSuspensionHeight)
		w.u8(c.RearSuspensionHeight)
		w.u8(c.BrakePressure)
		w.u8(c.BrakeBias)
		w.u8(c.EngineBraking)
		w.f32(c.RearLeftTyrePressure)
		w.f32(c.RearRightTyrePressure)
		w.f32(c.FrontLeftTyrePressure)
		w.f32(c.FrontRightTyrePressure)
		w.u8(c.Ballast)
		w.f32(c.FuelLoad)
	},
}

func DecodeCarSetup(buf []byte) (CarSetupPacket, error) {
	if err := expectKind(buf, PacketCarSetup); err != nil {
		return CarSetupPacket{}, err
	}
	if err := requireLen(buf, PacketCarSetup, CarSetupSize); err != nil {
		return CarSetupPacket{}, err
	}
	cars, err := carSetupLayout.decode(buf, MaxCars)
	if err != nil {
		return CarSetupPacket{}, err
	}
	r := newReader(buf, carSetupLayout.end(MaxCars))
	next := r.f32()
	if r.err != nil {
		return CarSetupPacket{}, shortBuffer(PacketCarSetup, CarSetupSize, len(buf))
	}
	return CarSetupPacket{Cars: cars, NextFrontWingValue: next}, nil
}

func encodeCarSetup(p CarSetupPacket, playerCarIndex uint8) ([]byte, error) {
	if len(p.Cars) > MaxCars {
		return nil, invalidCount(PacketCarSetup, "cars", len(p.Cars), MaxCars)
	}
	buf := make([]byte, CarSetupSize)
	putEnvelope(buf, PacketCarSetup, playerCarIndex)
	carSetupLayout.encode(buf, p.Cars)
	newWriter(buf, carSetupLayout.end(MaxCars)).f32(p.NextFrontWingValue)
	return buf, nil
}
