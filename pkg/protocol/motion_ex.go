package protocol

const (
	motionExSize = 52 * 4
	// MotionExSize is the minimum length of a MotionEx datagram.
	MotionExSize = HeaderSize + motionExSize
)

// MotionExPacket is extended motion data for the player car. Wheel arrays
// are ordered rear-left, rear-right, front-left, front-right.
type MotionExPacket struct {
	SuspensionPosition     [4]float32 `json:"suspensionPosition"`
	SuspensionVelocity     [4]float32 `json:"suspensionVelocity"`
	SuspensionAcceleration [4]float32 `json:"suspensionAcceleration"`
	WheelSpeed             [4]float32 `json:"wheelSpeed"`
	WheelSlipRatio         [4]float32 `json:"wheelSlipRatio"`
	WheelSlipAngle         [4]float32 `json:"wheelSlipAngle"`
	WheelLatForce          [4]float32 `json:"wheelLatForce"`
	WheelLongForce         [4]float32 `json:"wheelLongForce"`
	HeightOfCOGAboveGround float32    `json:"heightOfCOGAboveGround"`
	LocalVelocityX         float32    `json:"localVelocityX"`
	LocalVelocityY         float32    `json:"localVelocityY"`
	LocalVelocityZ         float32    `json:"localVelocityZ"`
	AngularVelocityX       float32    `json:"angularVelocityX"`
	AngularVelocityY       float32    `json:"angularVelocityY"`
	AngularVelocityZ       float32    `json:"angularVelocityZ"`
	AngularAccelerationX   float32    `json:"angularAccelerationX"`
	AngularAccelerationY   float32    `json:"angularAccelerationY"`
	AngularAccelerationZ   float32    `json:"angularAccelerationZ"`
	FrontWheelsAngle       float32    `json:"frontWheelsAngle"`
	WheelVertForce         [4]float32 `json:"wheelVertForce"`
	FrontAeroHeight        float32    `json:"frontAeroHeight"`
	RearAeroHeight         float32    `json:"rearAeroHeight"`
	FrontRollAngle         float32    `json:"frontRollAngle"`
	RearRollAngle          float32    `json:"rearRollAngle"`
	ChassisYaw             float32    `json:"chassisYaw"`
}

func DecodeMotionEx(buf []byte) (MotionExPacket, error) {
	if err := expectKind(buf, PacketMotionEx); err != nil {
		return MotionExPacket{}, err
	}
	if err := requireLen(buf, PacketMotionEx, MotionExSize); err != nil {
		return MotionExPacket{}, err
	}

	r := newReader(buf, HeaderSize)
	p := MotionExPacket{
		SuspensionPosition:     r.f32x4(),
		SuspensionVelocity:     r.f32x4(),
		SuspensionAcceleration: r.f32x4(),
		WheelSpeed:             r.f32x4(),
		WheelSlipRatio:         r.f32x4(),
		WheelSlipAngle:         r.f32x4(),
		WheelLatForce:          r.f32x4(),
		WheelLongForce:         r.f32x4(),
		HeightOfCOGAboveGround: r.f32(),
		LocalVelocityX:         r.f32(),
		LocalVelocityY:         r.f32(),
		LocalVelocityZ:         r.f32(),
		AngularVelocityX:       r.f32(),
		AngularVelocityY:       r.f32(),
		AngularVelocityZ:       r.f32(),
		AngularAccelerationX:   r.f32(),
		AngularAccelerationY:   r.f32(),
		AngularAccelerationZ:   r.f32(),
		FrontWheelsAngle:       r.f32(),
		WheelVertForce:         r.f32x4(),
		FrontAeroHeight:        r.f32(),
		RearAeroHeight:         r.f32(),
		FrontRollAngle:         r.f32(),
		RearRollAngle:          r.f32(),
		ChassisYaw:             r.f32(),
	}
	if r.err != nil {
		return MotionExPacket{}, shortBuffer(PacketMotionEx, MotionExSize, len(buf))
	}
	return p, nil
}

func encodeMotionEx(p MotionExPacket, playerCarIndex uint8) ([]byte, error) {
	buf := make([]byte, MotionExSize)
	putEnvelope(buf, PacketMotionEx, playerCarIndex)

	w := newWriter(buf, HeaderSize)
	w.f32x4(p.SuspensionPosition)
	w.f32x4(p.SuspensionVelocity)
	w.f32x4(p.SuspensionAcceleration)
	w.f32x4(p.WheelSpeed)
	w.f32x4(p.WheelSlipRatio)
	w.f32x4(p.WheelSlipAngle)
	w.f32x4(p.WheelLatForce)
	w.f32x4(p.WheelLongForce)
	w.f32(p.HeightOfCOGAboveGround)
	w.f32(p.LocalVelocityX)
	w.f32(p.LocalVelocityY)
	w.f32(p.LocalVelocityZ)
	w.f32(p.AngularVelocityX)
	w.f32(p.AngularVelocityY)
	w.f32(p.AngularVelocityZ)
	w.f32(p.AngularAccelerationX)
	w.f32(p.AngularAccelerationY)
	w.f32(p.AngularAccelerationZ)
	w.f32(p.FrontWheelsAngle)
	w.f32x4(p.WheelVertForce)
	w.f32(p.FrontAeroHeight)
	w.f32(p.RearAeroHeight)
	w.f32(p.FrontRollAngle)
	w.f32(p.RearRollAngle)
	w.f32(p.ChassisYaw)
	return buf, nil
}
