package protocol

// CarMotion is one car slot of the Motion packet.
type CarMotion struct {
	WorldPositionX     float32 `json:"worldPositionX"`
	WorldPositionY     float32 `json:"worldPositionY"`
	WorldPositionZ     float32 `json:"worldPositionZ"`
	WorldVelocityX     float32 `json:"worldVelocityX"`
	WorldVelocityY     float32 `json:"worldVelocityY"`
	WorldVelocityZ     float32 `json:"worldVelocityZ"`
	WorldForwardDirX   int16   `json:"worldForwardDirX"`
	WorldForwardDirY   int16   `json:"worldForwardDirY"`
	WorldForwardDirZ   int16   `json:"worldForwardDirZ"`
	WorldRightDirX     int16   `json:"worldRightDirX"`
	WorldRightDirY     int16   `json:"worldRightDirY"`
	WorldRightDirZ     int16   `json:"worldRightDirZ"`
	GForceLateral      float32 `json:"gForceLateral"`
	GForceLongitudinal float32 `json:"gForceLongitudinal"`
	GForceVertical     float32 `json:"gForceVertical"`
	Yaw                float32 `json:"yaw"`
	Pitch              float32 `json:"pitch"`
	Roll               float32 `json:"roll"`
}

const (
	carMotionSize = 60
	// MotionSize is the minimum length of a Motion datagram.
	MotionSize = HeaderSize + MaxCars*carMotionSize
)

type MotionPacket struct {
	Cars []CarMotion `json:"cars"`
}

var carMotionLayout = layout[CarMotion]{
	base:   HeaderSize,
	stride: carMotionSize,
	read: func(r *reader) CarMotion {
		return CarMotion{
			WorldPositionX:     r.f32(),
			WorldPositionY:     r.f32(),
			WorldPositionZ:     r.f32(),
			WorldVelocityX:     r.f32(),
			WorldVelocityY:     r.f32(),
			WorldVelocityZ:     r.f32(),
			WorldForwardDirX:   r.i16(),
			WorldForwardDirY:   r.i16(),
			WorldForwardDirZ:   r.i16(),
			WorldRightDirX:     r.i16(),
			WorldRightDirY:     r.i16(),
			WorldRightDirZ:     r.i16(),
			GForceLateral:      r.f32(),
			GForceLongitudinal: r.f32(),
			GForceVertical:     r.f32(),
			Yaw:                r.f32(),
			Pitch:              r.f32(),
			Roll:               r.f32(),
		}
	},
	write: func(w *writer, c CarMotion) {
		w.f32(c.WorldPositionX)
		w.f32(c.WorldPositionY)
		w.f32(c.WorldPositionZ)
		w.f32(c.WorldVelocityX)
		w.f32(c.WorldVelocityY)
		w.f32(c.WorldVelocityZ)
		w.i16(c.WorldForwardDirX)
		w.i16(c.WorldForwardDirY)
		w.i16(c.WorldForwardDirZ)
		w.i16(c.WorldRightDirX)
		w.i16(c.WorldRightDirY)
		w.i16(c.WorldRightDirZ)
		w.f32(c.GForceLateral)
		w.f32(c.GForceLongitudinal)
		w.f32(c.GForceVertical)
		w.f32(c.Yaw)
		w.f32(c.Pitch)
		w.f32(c.Roll)
	},
}

func DecodeMotion(buf []byte) (MotionPacket, error) {
	if err := expectKind(buf, PacketMotion); err != nil {
		return MotionPacket{}, err
	}
	if err := requireLen(buf, PacketMotion, MotionSize); err != nil {
		return MotionPacket{}, err
	}
	cars, err := carMotionLayout.decode(buf, MaxCars)
	if err != nil {
		return MotionPacket{}, err
	}
	return MotionPacket{Cars: cars}, nil
}

func encodeMotion(p MotionPacket, playerCarIndex uint8) ([]byte, error) {
	if len(p.Cars) > MaxCars {
		return nil, invalidCount(PacketMotion, "cars", len(p.Cars), MaxCars)
	}
	buf := make([]byte, MotionSize)
	putEnvelope(buf, PacketMotion, playerCarIndex)
	carMotionLayout.encode(buf, p.Cars)
	return buf, nil
}
