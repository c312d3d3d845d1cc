package protocol

const (
	// MaxMarshalZones bounds the Session packet's zone count.
	MaxMarshalZones = 21

	marshalZoneSize    = 5
	sessionPrefixSize  = 19
	sessionTrailerSize = 7
	marshalZonesOffset = HeaderSize + sessionPrefixSize
	numMarshalZonesOff = HeaderSize + sessionPrefixSize - 1
)

type MarshalZone struct {
	ZoneStart float32 `json:"zoneStart"`
	ZoneFlag  int8    `json:"zoneFlag"`
}

// SessionPacket holds the session scalars. The marshal zone region is sized
// by NumMarshalZones and the trailing groups sit directly after it.
type SessionPacket struct {
	Weather             uint8         `json:"weather"`
	TrackTemperature    int8          `json:"trackTemperature"`
	AirTemperature      int8          `json:"airTemperature"`
	TotalLaps           uint8         `json:"totalLaps"`
	TrackLength         uint16        `json:"trackLength"`
	SessionType         uint8         `json:"sessionType"`
	TrackID             int8          `json:"trackId"`
	Formula             uint8         `json:"formula"`
	SessionTimeLeft     uint16        `json:"sessionTimeLeft"`
	SessionDuration     uint16        `json:"sessionDuration"`
	PitSpeedLimit       uint8         `json:"pitSpeedLimit"`
	GamePaused          uint8         `json:"gamePaused"`
	IsSpectating        uint8         `json:"isSpectating"`
	SpectatorCarIndex   uint8         `json:"spectatorCarIndex"`
	SliProNativeSupport uint8         `json:"sliProNativeSupport"`
	MarshalZones        []MarshalZone `json:"marshalZones"`

	SafetyCarStatus uint8 `json:"safetyCarStatus"`
	NetworkGame     uint8 `json:"networkGame"`

	ForecastAccuracy       uint8 `json:"forecastAccuracy"`
	AIDifficulty           uint8 `json:"aiDifficulty"`
	PitStopWindowIdealLap  uint8 `json:"pitStopWindowIdealLap"`
	PitStopWindowLatestLap uint8 `json:"pitStopWindowLatestLap"`
	PitStopRejoinPosition  uint8 `json:"pitStopRejoinPosition"`
}

var marshalZoneLayout = layout[MarshalZone]{
	base:   marshalZonesOffset,
	stride: marshalZoneSize,
	read: func(r *reader) MarshalZone {
		return MarshalZone{ZoneStart: r.f32(), ZoneFlag: r.i8()}
	},
	write: func(w *writer, z MarshalZone) {
		w.f32(z.ZoneStart)
		w.i8(z.ZoneFlag)
	},
}

// SessionSize returns the datagram length for a given zone count.
func SessionSize(zones int) int {
	return marshalZoneLayout.end(zones) + sessionTrailerSize
}

func DecodeSession(buf []byte) (SessionPacket, error) {
	if err := expectKind(buf, PacketSession); err != nil {
		return SessionPacket{}, err
	}
	if err := requireLen(buf, PacketSession, SessionSize(0)); err != nil {
		return SessionPacket{}, err
	}
	n := int(buf[numMarshalZonesOff])
	if n > MaxMarshalZones {
		return SessionPacket{}, invalidCount(PacketSession, "numMarshalZones", n, MaxMarshalZones)
	}
	if err := requireLen(buf, PacketSession, SessionSize(n)); err != nil {
		return SessionPacket{}, err
	}

	r := newReader(buf, HeaderSize)
	p := SessionPacket{
		Weather:             r.u8(),
		TrackTemperature:    r.i8(),
		AirTemperature:      r.i8(),
		TotalLaps:           r.u8(),
		TrackLength:         r.u16(),
		SessionType:         r.u8(),
		TrackID:             r.i8(),
		Formula:             r.u8(),
		SessionTimeLeft:     r.u16(),
		SessionDuration:     r.u16(),
		PitSpeedLimit:       r.u8(),
		GamePaused:          r.u8(),
		IsSpectating:        r.u8(),
		SpectatorCarIndex:   r.u8(),
		SliProNativeSupport: r.u8(),
	}
	r.skip(1) // numMarshalZones, read above

	zones, err := marshalZoneLayout.decode(buf, n)
	if err != nil {
		return SessionPacket{}, err
	}
	p.MarshalZones = zones

	r.off = marshalZoneLayout.end(n)
	p.SafetyCarStatus = r.u8()
	p.NetworkGame = r.u8()
	p.ForecastAccuracy = r.u8()
	p.AIDifficulty = r.u8()
	p.PitStopWindowIdealLap = r.u8()
	p.PitStopWindowLatestLap = r.u8()
	p.PitStopRejoinPosition = r.u8()
	if r.err != nil {
		return SessionPacket{}, shortBuffer(PacketSession, SessionSize(n), len(buf))
	}
	return p, nil
}

func encodeSession(p SessionPacket, playerCarIndex uint8) ([]byte, error) {
	n := len(p.MarshalZones)
	if n > MaxMarshalZones {
		return nil, invalidCount(PacketSession, "numMarshalZones", n, MaxMarshalZones)
	}
	buf := make([]byte, SessionSize(n))
	putEnvelope(buf, PacketSession, playerCarIndex)

	w := newWriter(buf, HeaderSize)
	w.u8(p.Weather)
	w.i8(p.TrackTemperature)
	w.i8(p.AirTemperature)
	w.u8(p.TotalLaps)
	w.u16(p.TrackLength)
	w.u8(p.SessionType)
	w.i8(p.TrackID)
	w.u8(p.Formula)
	w.u16(p.SessionTimeLeft)
	w.u16(p.SessionDuration)
	w.u8(p.PitSpeedLimit)
	w.u8(p.GamePaused)
	w.u8(p.IsSpectating)
	w.u8(p.SpectatorCarIndex)
	w.u8(p.SliProNativeSupport)
	w.u8(uint8(n))

	marshalZoneLayout.encode(buf, p.MarshalZones)

	w.off = marshalZoneLayout.end(n)
	w.u8(p.SafetyCarStatus)
	w.u8(p.NetworkGame)
	w.u8(p.ForecastAccuracy)
	w.u8(p.AIDifficulty)
	w.u8(p.PitStopWindowIdealLap)
	w.u8(p.PitStopWindowLatestLap)
	w.u8(p.PitStopRejoinPosition)
	return buf, nil
}
