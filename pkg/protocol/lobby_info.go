package protocol

const lobbyPlayerSize = 58

type LobbyPlayer struct {
	AIControlled    uint8  `json:"aiControlled"`
	TeamID          uint8  `json:"teamId"`
	Nationality     uint8  `json:"nationality"`
	Platform        uint8  `json:"platform"`
	Name            string `json:"name"`
	CarNumber       uint8  `json:"carNumber"`
	YourTelemetry   uint8  `json:"yourTelemetry"`
	ShowOnlineNames uint8  `json:"showOnlineNames"`
	TechLevel       uint16 `json:"techLevel"`
	ReadyStatus     uint8  `json:"readyStatus"`
}

type LobbyInfoPacket struct {
	Players []LobbyPlayer `json:"players"`
}

var lobbyPlayerLayout = layout[LobbyPlayer]{
	base:   entriesOffset,
	stride: lobbyPlayerSize,
	read: func(r *reader) LobbyPlayer {
		return LobbyPlayer{
			AIControlled:    r.u8(),
			TeamID:          r.u8(),
			Nationality:     r.u8(),
			Platform:        r.u8(),
			Name:            r.text(nameFieldSize),
			CarNumber:       r.u8(),
			YourTelemetry:   r.u8(),
			ShowOnlineNames: r.u8(),
			TechLevel:       r.u16(),
			ReadyStatus:     r.u8(),
		}
	},
	write: func(w *writer, p LobbyPlayer) {
		w.u8(p.AIControlled)
		w.u8(p.TeamID)
		w.u8(p.Nationality)
		w.u8(p.Platform)
		w.text(p.Name, nameFieldSize)
		w.u8(p.CarNumber)
		w.u8(p.YourTelemetry)
		w.u8(p.ShowOnlineNames)
		w.u16(p.TechLevel)
		w.u8(p.ReadyStatus)
	},
}

func DecodeLobbyInfo(buf []byte) (LobbyInfoPacket, error) {
	if err := expectKind(buf, PacketLobbyInfo); err != nil {
		return LobbyInfoPacket{}, err
	}
	n, err := readCount(buf, PacketLobbyInfo, "numPlayers", MaxCars, lobbyPlayerLayout)
	if err != nil {
		return LobbyInfoPacket{}, err
	}
	players, err := lobbyPlayerLayout.decode(buf, n)
	if err != nil {
		return LobbyInfoPacket{}, err
	}
	return LobbyInfoPacket{Players: players}, nil
}

func encodeLobbyInfo(p LobbyInfoPacket, playerCarIndex uint8) ([]byte, error) {
	n := len(p.Players)
	if n > MaxCars {
		return nil, invalidCount(PacketLobbyInfo, "numPlayers", n, MaxCars)
	}
	buf := make([]byte, lobbyPlayerLayout.end(n))
	putEnvelope(buf, PacketLobbyInfo, playerCarIndex)
	buf[countOffset] = uint8(n)
	lobbyPlayerLayout.encode(buf, p.Players)
	return buf, nil
}
