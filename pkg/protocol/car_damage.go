package protocol

const (
	carDamageSize = 42
	// CarDamageSize is the minimum length of a CarDamage datagram.
	CarDamageSize = HeaderSize + MaxCars*carDamageSize
)

// CarDamagePacket is the damage state of the player's car only. Wear and
// damage arrays are ordered rear-left, rear-right, front-left, front-right.
type CarDamagePacket struct {
	CarIndex             uint8      `json:"carIndex"`
	TyresWear            [4]float32 `json:"tyresWear"`
	TyresDamage          [4]uint8   `json:"tyresDamage"`
	BrakesDamage         [4]uint8   `json:"brakesDamage"`
	FrontLeftWingDamage  uint8      `json:"frontLeftWingDamage"`
	FrontRightWingDamage uint8      `json:"frontRightWingDamage"`
	RearWingDamage       uint8      `json:"rearWingDamage"`
	FloorDamage          uint8      `json:"floorDamage"`
	DiffuserDamage       uint8      `json:"diffuserDamage"`
	SidepodDamage        uint8      `json:"sidepodDamage"`
	DRSFault             uint8      `json:"drsFault"`
	ERSFault             uint8      `json:"ersFault"`
	GearBoxDamage        uint8      `json:"gearBoxDamage"`
	EngineDamage         uint8      `json:"engineDamage"`
	EngineMGUHWear       uint8      `json:"engineMGUHWear"`
	EngineESWear         uint8      `json:"engineESWear"`
	EngineCEWear         uint8      `json:"engineCEWear"`
	EngineICEWear        uint8      `json:"engineICEWear"`
	EngineMGUKWear       uint8      `json:"engineMGUKWear"`
	EngineTCWear         uint8      `json:"engineTCWear"`
	EngineBlown          uint8      `json:"engineBlown"`
	EngineSeized         uint8      `json:"engineSeized"`
}

var carDamageLayout = layout[CarDamagePacket]{
	base:   HeaderSize,
	stride: carDamageSize,
	read: func(r *reader) CarDamagePacket {
		return CarDamagePacket{
			TyresWear:            r.f32x4(),
			TyresDamage:          r.u8x4(),
			BrakesDamage:         r.u8x4(),
			FrontLeftWingDamage:  r.u8(),
			FrontRightWingDamage: r.u8(),
			RearWingDamage:       r.u8(),
			FloorDamage:          r.u8(),
			DiffuserDamage:       r.u8(),
			SidepodDamage:        r.u8(),
			DRSFault:             r.u8(),
			ERSFault:             r.u8(),
			GearBoxDamage:        r.u8(),
			EngineDamage:         r.u8(),
			EngineMGUHWear:       r.u8(),
			EngineESWear:         r.u8(),
			EngineCEWear:         r.u8(),
			EngineICEWear:        r.u8(),
			EngineMGUKWear:       r.u8(),
			EngineTCWear:         r.u8(),
			EngineBlown:          r.u8(),
			EngineSeized:         r.u8(),
		}
	},
	write: func(w *writer, d CarDamagePacket) {
		w.f32x4(d.TyresWear)
		w.u8x4(d.TyresDamage)
		w.u8x4(d.BrakesDamage)
		w.u8(d.FrontLeftWingDamage)
		w.u8(d.FrontRightWingDamage)
		w.u8(d.RearWingDamage)
		w.u8(d.FloorDamage)
		w.u8(d.DiffuserDamage)
		w.u8(d.SidepodDamage)
		w.u8(d.DRSFault)
		w.u8(d.ERSFault)
		w.u8(d.GearBoxDamage)
		w.u8(d.EngineDamage)
		w.u8(d.EngineMGUHWear)
		w.u8(d.EngineESWear)
		w.u8(d.EngineCEWear)
		w.u8(d.EngineICEWear)
		w.u8(d.EngineMGUKWear)
		w.u8(d.EngineTCWear)
		w.u8(d.EngineBlown)
		w.u8(d.EngineSeized)
	},
}

// DecodeCarDamage reads only the slot named by the envelope's playerCarIndex.
func DecodeCarDamage(buf []byte) (CarDamagePacket, error) {
	if err := expectKind(buf, PacketCarDamage); err != nil {
		return CarDamagePacket{}, err
	}
	if err := requireLen(buf, PacketCarDamage, CarDamageSize); err != nil {
		return CarDamagePacket{}, err
	}
	idx, err := PeekPlayerCarIndex(buf)
	if err != nil {
		return CarDamagePacket{}, err
	}
	if int(idx) >= MaxCars {
		return CarDamagePacket{}, invalidCount(PacketCarDamage, "playerCarIndex", int(idx), MaxCars-1)
	}
	d, err := carDamageLayout.decodeAt(buf, int(idx))
	if err != nil {
		return CarDamagePacket{}, shortBuffer(PacketCarDamage, CarDamageSize, len(buf))
	}
	d.CarIndex = idx
	return d, nil
}

// encodeCarDamage places p in the slot named by playerCarIndex; the other
// slots stay zero.
func encodeCarDamage(p CarDamagePacket, playerCarIndex uint8) ([]byte, error) {
	if int(playerCarIndex) >= MaxCars {
		return nil, invalidCount(PacketCarDamage, "playerCarIndex", int(playerCarIndex), MaxCars-1)
	}
	buf := make([]byte, CarDamageSize)
	putEnvelope(buf, PacketCarDamage, playerCarIndex)
	carDamageLayout.encodeAt(buf, int(playerCarIndex), p)
	return buf, nil
}
