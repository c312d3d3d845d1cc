package protocol

import (
	"fmt"
	"math"
)

// FormatLapTime renders milliseconds as M:SS.mmm.
func FormatLapTime(ms uint32) string {
	minutes := ms / 60000
	seconds := (ms % 60000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%d:%02d.%03d", minutes, seconds, millis)
}

// FormatSeconds renders a float seconds value as M:SS.mmm.
func FormatSeconds(s float32) string {
	ms := math.Round(float64(s) * 1000)
	if math.IsNaN(ms) || ms < 0 || ms > math.MaxUint32 {
		return "-:--.---"
	}
	return FormatLapTime(uint32(ms))
}

// Describe returns a one-line human description of an event.
func Describe(e Event) string {
	switch v := e.(type) {
	case FastestLap:
		return fmt.Sprintf("fastest lap: car %d %s", v.VehicleIdx, FormatSeconds(v.LapTime))
	case Retirement:
		return fmt.Sprintf("retirement: car %d", v.VehicleIdx)
	case DRS:
		if v.Enabled {
			return "DRS enabled"
		}
		return "DRS disabled"
	case TeammateInPits:
		return fmt.Sprintf("teammate in pits: car %d", v.VehicleIdx)
	case ChequeredFlag:
		return "chequered flag"
	case RaceWinner:
		return fmt.Sprintf("race winner: car %d", v.VehicleIdx)
	case Penalty:
		return fmt.Sprintf("penalty: car %d type %d infringement %d lap %d", v.VehicleIdx, v.PenaltyType, v.InfringementType, v.LapNum)
	case SpeedTrap:
		return fmt.Sprintf("speed trap: car %d %.1f km/h", v.VehicleIdx, v.Speed)
	case StartLights:
		return fmt.Sprintf("start lights: %d", v.NumLights)
	case LightsOut:
		return "lights out"
	case DriveThroughServed:
		return fmt.Sprintf("drive through served: car %d", v.VehicleIdx)
	case StopGoServed:
		return fmt.Sprintf("stop go served: car %d", v.VehicleIdx)
	case Flashback:
		return fmt.Sprintf("flashback to frame %d", v.FrameIdentifier)
	case Buttons:
		return fmt.Sprintf("buttons 0x%08x", v.ButtonStatus)
	case Overtake:
		return fmt.Sprintf("overtake: car %d passed car %d", v.OvertakingVehicleIdx, v.BeingOvertakenVehicleIdx)
	case SafetyCar:
		return fmt.Sprintf("safety car: type %d event %d", v.SafetyCarType, v.EventType)
	case Collision:
		return fmt.Sprintf("collision: car %d and car %d", v.Vehicle1Idx, v.Vehicle2Idx)
	case nil:
		return ""
	}
	return string(e.Code())
}
