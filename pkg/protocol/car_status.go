package protocol

const (
	carStatusSize = 55
	// CarStatusSize is the minimum length of a CarStatus datagram.
	CarStatusSize = HeaderSize + MaxCars*carStatusSize
)

type CarStatus struct {
	TractionControl         uint8   `json:"tractionControl"`
	AntiLockBrakes          uint8   `json:"antiLockBrakes"`
	FuelMix                 uint8   `json:"fuelMix"`
	FrontBrakeBias          uint8   `json:"frontBrakeBias"`
	PitLimiterStatus        uint8   `json:"pitLimiterStatus"`
	FuelInTank              float32 `json:"fuelInTank"`
	FuelCapacity            float32 `json:"fuelCapacity"`
	FuelRemainingLaps       float32 `json:"fuelRemainingLaps"`
	MaxRPM                  uint16  `json:"maxRPM"`
	IdleRPM                 uint16  `json:"idleRPM"`
	MaxGears                uint8   `json:"maxGears"`
	DRSAllowed              uint8   `json:"drsAllowed"`
	DRSActivationDistance   uint16  `json:"drsActivationDistance"`
	ActualTyreCompound      uint8   `json:"actualTyreCompound"`
	VisualTyreCompound      uint8   `json:"visualTyreCompound"`
	TyresAgeLaps            uint8   `json:"tyresAgeLaps"`
	VehicleFIAFlags         int8    `json:"vehicleFiaFlags"`
	EnginePowerICE          float32 `json:"enginePowerICE"`
	EnginePowerMGUK         float32 `json:"enginePowerMGUK"`
	ERSStoreEnergy          float32 `json:"ersStoreEnergy"`
	ERSDeployMode           uint8   `json:"ersDeployMode"`
	ERSHarvestedThisLapMGUK float32 `json:"ersHarvestedThisLapMGUK"`
	ERSHarvestedThisLapMGUH float32 `json:"ersHarvestedThisLapMGUH"`
	ERSDeployedThisLap      float32 `json:"ersDeployedThisLap"`
	NetworkPaused           uint8   `json:"networkPaused"`
}

type CarStatusPacket struct {
	Cars []CarStatus `json:"cars"`
}

var carStatusLayout = layout[CarStatus]{
	base:   HeaderSize,
	stride: carStatusSize,
	read: func(r *reader) CarStatus {
		return CarStatus{
			TractionControl:         r.u8(),
			AntiLockBrakes:          r.u8(),
			FuelMix:                 r.u8(),
			FrontBrakeBias:          r.u8(),
			PitLimiterStatus:        r.u8(),
			FuelInTank:              r.f32(),
			FuelCapacity:            r.f32(),
			FuelRemainingLaps:       r.f32(),
			MaxRPM:                  r.u16(),
			IdleRPM:                 r.u16(),
			MaxGears:                r.u8(),
			DRSAllowed:              r.u8(),
			DRSActivationDistance:   r.u16(),
			ActualTyreCompound:      r.u8(),
			VisualTyreCompound:      r.u8(),
			TyresAgeLaps:            r.u8(),
			VehicleFIAFlags:         r.i8(),
			EnginePowerICE:          r.f32(),
			EnginePowerMGUK:         r.f32(),
			ERSStoreEnergy:          r.f32(),
			ERSDeployMode:           r.u8(),
			ERSHarvestedThisLapMGUK: r.f32(),
			ERSHarvestedThisLapMGUH: r.f32(),
			ERSDeployedThisLap:      r.f32(),
			NetworkPaused:           r.u8(),
		}
	},
	write: func(w *writer, c CarStatus) {
		w.u8(c.TractionControl)
		w.u8(c.AntiLockBrakes)
		w.u8(c.FuelMix)
		w.u8(c.FrontBrakeBias)
		w.u8(c.PitLimiterStatus)
		w.f32(c.FuelInTank)
		w.f32(c.FuelCapacity)
		w.f32(c.FuelRemainingLaps)
		w.u16(c.MaxRPM)
		w.u16(c.IdleRPM)
		w.u8(c.MaxGears)
		w.u8(c.DRSAllowed)
		w.u16(c.DRSActivationDistance)
		w.u8(c.ActualTyreCompound)
		w.u8(c.VisualTyreCompound)
		w.u8(c.TyresAgeLaps)
		w.i8(c.VehicleFIAFlags)
		w.f32(c.EnginePowerICE)
		w.f32(c.EnginePowerMGUK)
		w.f32(c.ERSStoreEnergy)
		w.u8(c.ERSDeployMode)
		w.f32(c.ERSHarvestedThisLapMGUK)
		w.f32(c.ERSHarvestedThisLapMGUH)
		w.f32(c.ERSDeployedThisLap)
		w.u8(c.NetworkPaused)
	},
}

func DecodeCarStatus(buf []byte) (CarStatusPacket, error) {
	if err := expectKind(buf, PacketCarStatus); err != nil {
		return CarStatusPacket{}, err
	}
	if err := requireLen(buf, PacketCarStatus, CarStatusSize); err != nil {
		return CarStatusPacket{}, err
	}
	cars, err := carStatusLayout.decode(buf, MaxCars)
	if err != nil {
		return CarStatusPacket{}, err
	}
	return CarStatusPacket{Cars: cars}, nil
}

func encodeCarStatus(p CarStatusPacket, playerCarIndex uint8) ([]byte, error) {
	if len(p.Cars) > MaxCars {
		return nil, invalidCount(PacketCarStatus, "cars", len(p.Cars), MaxCars)
	}
	buf := make([]byte, CarStatusSize)
	putEnvelope(buf, PacketCarStatus, playerCarIndex)
	carStatusLayout.encode(buf, p.Cars)
	return buf, nil
}
