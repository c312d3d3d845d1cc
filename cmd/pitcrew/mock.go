package main

import (
	"context"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

const (
	mockRollAmplitudeRad  = 3.0 * math.Pi / 180.0
	mockPitchAmplitudeRad = 2.0 * math.Pi / 180.0

	mockRollFreqHz  = 0.23
	mockPitchFreqHz = 0.31

	mockPitchPhaseRad = math.Pi / 3.0

	mockTrackLength = 5000
	mockTotalLaps   = 10
)

func mockCmd() *cobra.Command {
	var (
		addr    string
		hz      int
		player  uint8
		lapTime time.Duration
		count   int
	)

	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Send a synthetic F1 24 feed over UDP",
		Long: `Send motion, lap, car telemetry, car status, car damage, session and
event datagrams as the game would, for testing serve and tui without a
console.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if int(player) >= protocol.MaxCars {
				return fmt.Errorf("player index out of range: %d", player)
			}
			conn, err := net.Dial("udp", addr)
			if err != nil {
				return fmt.Errorf("dial %s: %w", addr, err)
			}
			defer conn.Close()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			sent, err := runMock(ctx, conn, newMockFeed(player, lapTime), hz, count)
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d datagrams to %s\n", sent, addr)
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:20777", "UDP destination")
	cmd.Flags().IntVar(&hz, "hz", 20, "ticks per second")
	cmd.Flags().Uint8Var(&player, "player", 0, "player car index")
	cmd.Flags().DurationVar(&lapTime, "lap-time", 90*time.Second, "duration of one mock lap")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many ticks (0 = until interrupted)")

	return cmd
}

// runMock sends one tick of datagrams per interval until ctx is done or
// ticks reaches limit. Slow-changing kinds go out once per second.
func runMock(ctx context.Context, conn net.Conn, feed *mockFeed, hz int, limit int) (int, error) {
	if hz <= 0 {
		hz = 20
	}
	interval := time.Second / time.Duration(hz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	sent := 0
	for tick := 0; limit <= 0 || tick < limit; tick++ {
		frames, err := feed.frames(time.Since(start), tick%hz == 0)
		if err != nil {
			return sent, err
		}
		for _, frame := range frames {
			if _, err := conn.Write(frame); err != nil {
				return sent, fmt.Errorf("send: %w", err)
			}
			sent++
		}
		select {
		case <-ctx.Done():
			return sent, nil
		case <-ticker.C:
		}
	}
	return sent, nil
}

type mockFeed struct {
	player    uint8
	lapTime   time.Duration
	lap       uint8
	lastLapMs uint32
	bestLapMs uint32
	started   bool
	drsOpen   bool
}

func newMockFeed(player uint8, lapTime time.Duration) *mockFeed {
	if lapTime <= 0 {
		lapTime = 90 * time.Second
	}
	return &mockFeed{player: player, lapTime: lapTime}
}

// frames encodes every datagram for the tick at elapsed. slow adds the
// session, car status and car damage kinds.
func (f *mockFeed) frames(elapsed time.Duration, slow bool) ([][]byte, error) {
	t := elapsed.Seconds()
	lap := uint8(elapsed/f.lapTime) + 1
	inLap := elapsed % f.lapTime

	packets := []protocol.Telemetry{
		f.motion(t, inLap),
		f.telemetry(t),
	}
	if slow {
		packets = append(packets, f.session(elapsed), f.status(t), f.damage(t))
	}
	packets = append(packets, f.events(lap, elapsed)...)
	packets = append(packets, protocol.LapPacket{
		LastLapTimeMs:    f.lastLapMs,
		CurrentLapTimeMs: uint32(inLap.Milliseconds()),
		LapDistance:      float32(mockTrackLength * inLap.Seconds() / f.lapTime.Seconds()),
		TotalDistance:    float32(mockTrackLength * t / f.lapTime.Seconds()),
		CarPosition:      1,
		CurrentLapNum:    f.lap,
		Sector:           uint8(3 * inLap / f.lapTime),
		GridPosition:     1,
		DriverStatus:     4,
		ResultStatus:     2,
	})

	out := make([][]byte, 0, len(packets))
	for _, p := range packets {
		frame, err := protocol.Encode(p, f.player)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.PacketID(), err)
		}
		out = append(out, frame)
	}
	return out, nil
}

// events advances lap state and reports the race events it produced.
func (f *mockFeed) events(lap uint8, elapsed time.Duration) []protocol.Telemetry {
	var out []protocol.Telemetry
	if !f.started {
		f.started = true
		f.lap = lap
		out = append(out, protocol.EventPacket{Code: protocol.EventLightsOut, Detail: protocol.LightsOut{}})
	}
	if lap > f.lap {
		f.lastLapMs = uint32(f.lapTime.Milliseconds())
		f.lap = lap
		if f.bestLapMs == 0 || f.lastLapMs < f.bestLapMs {
			f.bestLapMs = f.lastLapMs
			out = append(out, protocol.EventPacket{
				Code:   protocol.EventFastestLap,
				Detail: protocol.FastestLap{VehicleIdx: f.player, LapTime: float32(f.lapTime.Seconds())},
			})
		}
		if !f.drsOpen && lap >= 3 {
			f.drsOpen = true
			out = append(out, protocol.EventPacket{Code: protocol.EventDRSEnabled, Detail: protocol.DRS{Enabled: true}})
		}
	}
	return out
}

func (f *mockFeed) motion(t float64, inLap time.Duration) protocol.MotionPacket {
	radius := mockTrackLength / (2 * math.Pi)
	roll, pitch := mockBodyAngles(t)
	cars := make([]protocol.CarMotion, protocol.MaxCars)
	for i := range cars {
		progress := inLap.Seconds()/f.lapTime.Seconds() - float64(i)*0.01
		theta := 2 * math.Pi * progress
		cars[i] = protocol.CarMotion{
			WorldPositionX: float32(radius * math.Cos(theta)),
			WorldPositionZ: float32(radius * math.Sin(theta)),
			Yaw:            float32(theta + math.Pi/2),
			Roll:           float32(roll),
			Pitch:          float32(pitch),
		}
	}
	return protocol.MotionPacket{Cars: cars}
}

func (f *mockFeed) telemetry(t float64) protocol.CarTelemetryPacket {
	cars := make([]protocol.CarTelemetry, protocol.MaxCars)
	for i := range cars {
		phase := 2*math.Pi*t/(f.lapTime.Seconds()/6) - float64(i)*0.3
		speed := 200 + 110*math.Sin(phase)
		gear := int8(min(8, max(1, 1+int(speed)/40)))
		throttle := (1 + math.Cos(phase)) / 2
		drs := uint8(0)
		if f.drsOpen && speed > 280 {
			drs = 1
		}
		cars[i] = protocol.CarTelemetry{
			Speed:     uint16(speed),
			Throttle:  float32(throttle),
			Brake:     float32(max(0, -math.Cos(phase))),
			Gear:      gear,
			EngineRPM: uint16(7000 + int(speed)%40*200),
			DRS:       drs,
		}
	}
	return protocol.CarTelemetryPacket{Cars: cars}
}

func (f *mockFeed) session(elapsed time.Duration) protocol.SessionPacket {
	left := time.Duration(mockTotalLaps)*f.lapTime - elapsed
	return protocol.SessionPacket{
		Weather:          0,
		TrackTemperature: 32,
		AirTemperature:   24,
		TotalLaps:        mockTotalLaps,
		TrackLength:      mockTrackLength,
		SessionType:      15,
		SessionTimeLeft:  uint16(max(0, left.Seconds())),
		SessionDuration:  uint16((time.Duration(mockTotalLaps) * f.lapTime).Seconds()),
		PitSpeedLimit:    80,
		MarshalZones: []protocol.MarshalZone{
			{ZoneStart: 0.1},
			{ZoneStart: 0.45},
			{ZoneStart: 0.8},
		},
	}
}

func (f *mockFeed) status(t float64) protocol.CarStatusPacket {
	cars := make([]protocol.CarStatus, protocol.MaxCars)
	for i := range cars {
		cars[i] = protocol.CarStatus{
			FuelInTank:         float32(max(0, 100-t*0.05)),
			FuelCapacity:       110,
			MaxRPM:             13000,
			IdleRPM:            4000,
			MaxGears:           8,
			ActualTyreCompound: 17,
			VisualTyreCompound: 17,
			TyresAgeLaps:       uint8(t / f.lapTime.Seconds()),
			ERSStoreEnergy:     2e6,
		}
	}
	return protocol.CarStatusPacket{Cars: cars}
}

// damage wears the rear tyres a little faster than the fronts.
func (f *mockFeed) damage(t float64) protocol.CarDamagePacket {
	perLap := t / f.lapTime.Seconds()
	return protocol.CarDamagePacket{
		TyresWear: [4]float32{
			float32(perLap * 2.4),
			float32(perLap * 2.6),
			float32(perLap * 1.9),
			float32(perLap * 2.1),
		},
	}
}

func mockBodyAngles(t float64) (roll float64, pitch float64) {
	roll = mockRollAmplitudeRad * math.Sin(2.0*math.Pi*mockRollFreqHz*t)
	pitch = mockPitchAmplitudeRad * math.Sin(2.0*math.Pi*mockPitchFreqHz*t+mockPitchPhaseRad)
	return
}
