// Package dashboard renders the player car's live state in the terminal.
package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Wesleyxl/pitcrew-ai/pkg/engine"
	"github.com/Wesleyxl/pitcrew-ai/pkg/protocol"
)

// MaxEvents is how many race events the dashboard keeps on screen.
const MaxEvents = 8

var weatherNames = [...]string{"clear", "light cloud", "overcast", "light rain", "heavy rain", "storm"}

// PacketMsg delivers one hub packet to the model.
type PacketMsg engine.Packet

// ClosedMsg reports that the packet subscription has ended.
type ClosedMsg struct{}

// WaitForPacket blocks on sub and turns the next packet into a message.
func WaitForPacket(sub <-chan engine.Packet) tea.Cmd {
	return func() tea.Msg {
		pkt, ok := <-sub
		if !ok {
			return ClosedMsg{}
		}
		return PacketMsg(pkt)
	}
}

type carState struct {
	speed    uint16
	gear     int8
	rpm      uint16
	throttle float32
	brake    float32
	drs      uint8
}

type lapState struct {
	seen      bool
	num       uint8
	position  uint8
	lastMs    uint32
	currentMs uint32
}

type sessionState struct {
	seen      bool
	weather   uint8
	trackTemp int8
	airTemp   int8
	totalLaps uint8
}

type Model struct {
	sub <-chan engine.Packet

	player   uint8
	driver   string
	car      carState
	lap      lapState
	session  sessionState
	tyreWear [4]float32
	damage   bool
	events   []string
	packets  uint64
	width    int
	closed   bool
}

// Kinds lists the packet kinds the dashboard renders.
func Kinds() []protocol.PacketID {
	return []protocol.PacketID{
		protocol.PacketSession,
		protocol.PacketLap,
		protocol.PacketEvent,
		protocol.PacketParticipants,
		protocol.PacketCarTelemetry,
		protocol.PacketCarDamage,
	}
}

func New(sub <-chan engine.Packet) Model {
	return Model{sub: sub}
}

func (m Model) Init() tea.Cmd {
	return WaitForPacket(m.sub)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case PacketMsg:
		m = m.apply(engine.Packet(msg))
		return m, WaitForPacket(m.sub)
	case ClosedMsg:
		m.closed = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) apply(pkt engine.Packet) Model {
	m.packets++
	if pkt.ID != protocol.PacketEvent {
		m.player = pkt.PlayerCarIndex
	}

	switch data := pkt.Data.(type) {
	case protocol.CarTelemetryPacket:
		if int(m.player) < len(data.Cars) {
			c := data.Cars[m.player]
			m.car = carState{
				speed:    c.Speed,
				gear:     c.Gear,
				rpm:      c.EngineRPM,
				throttle: c.Throttle,
				brake:    c.Brake,
				drs:      c.DRS,
			}
		}
	case protocol.LapPacket:
		// Lap carries car slot 0, which is the player only when the game
		// puts the player there.
		if m.lap.seen && data.CurrentLapNum > m.lap.num {
			m = m.pushEvent(fmt.Sprintf("lap %d completed in %s", m.lap.num, protocol.FormatLapTime(data.LastLapTimeMs)))
		}
		m.lap = lapState{
			seen:      true,
			num:       data.CurrentLapNum,
			position:  data.CarPosition,
			lastMs:    data.LastLapTimeMs,
			currentMs: data.CurrentLapTimeMs,
		}
	case protocol.SessionPacket:
		m.session = sessionState{
			seen:      true,
			weather:   data.Weather,
			trackTemp: data.TrackTemperature,
			airTemp:   data.AirTemperature,
			totalLaps: data.TotalLaps,
		}
	case protocol.CarDamagePacket:
		m.tyreWear = data.TyresWear
		m.damage = true
	case protocol.ParticipantsPacket:
		if int(m.player) < len(data.Participants) {
			m.driver = data.Participants[m.player].Name
		}
	case protocol.EventPacket:
		switch data.Detail.(type) {
		case protocol.Buttons, protocol.SpeedTrap:
			// too frequent to be useful on screen
		default:
			m = m.pushEvent(protocol.Describe(data.Detail))
		}
	}
	return m
}

func (m Model) pushEvent(text string) Model {
	if text == "" {
		return m
	}
	events := append(append([]string(nil), m.events...), text)
	if len(events) > MaxEvents {
		events = events[len(events)-MaxEvents:]
	}
	m.events = events
	return m
}

// Events returns the race events currently shown, oldest first.
func (m Model) Events() []string {
	return append([]string(nil), m.events...)
}

func (m Model) View() string {
	title := "pitcrew"
	if m.driver != "" {
		title += " | " + m.driver
	}

	car := lipgloss.JoinVertical(lipgloss.Left,
		row("speed", fmt.Sprintf("%d km/h", m.car.speed)),
		row("gear", gearLabel(m.car.gear)),
		row("rpm", fmt.Sprintf("%d", m.car.rpm)),
		row("throttle", percent(m.car.throttle)),
		row("brake", percent(m.car.brake)),
		drsRow(m.car.drs),
	)

	lap := lipgloss.JoinVertical(lipgloss.Left,
		row("lap", m.lapLabel()),
		row("position", positionLabel(m.lap)),
		row("current", lapTime(m.lap.seen, m.lap.currentMs)),
		row("last", lapTime(m.lap.seen, m.lap.lastMs)),
		row("weather", m.weatherLabel()),
		row("track", m.tempLabel(m.session.trackTemp)),
		row("air", m.tempLabel(m.session.airTemp)),
	)

	top := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(car), panelStyle.Render(lap), panelStyle.Render(m.tyresView()))

	var b strings.Builder
	header := titleStyle
	if m.width > 0 {
		header = header.Width(m.width)
	}
	b.WriteString(header.Render(title))
	b.WriteString("\n")
	b.WriteString(top)
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.eventsView()))
	b.WriteString("\n")
	status := fmt.Sprintf("%d packets", m.packets)
	if m.closed {
		status += " | feed closed"
	}
	b.WriteString(helpStyle.Render(status + " | q to quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) lapLabel() string {
	if !m.lap.seen {
		return "-"
	}
	if m.session.seen && m.session.totalLaps > 0 {
		return fmt.Sprintf("%d/%d", m.lap.num, m.session.totalLaps)
	}
	return fmt.Sprintf("%d", m.lap.num)
}

func (m Model) weatherLabel() string {
	if !m.session.seen {
		return "-"
	}
	if int(m.session.weather) < len(weatherNames) {
		return weatherNames[m.session.weather]
	}
	return fmt.Sprintf("weather %d", m.session.weather)
}

func (m Model) tempLabel(c int8) string {
	if !m.session.seen {
		return "-"
	}
	return fmt.Sprintf("%d°C", c)
}

// tyresView lays the wear out as the car is seen from above; the wire order
// is rear-left, rear-right, front-left, front-right.
func (m Model) tyresView() string {
	if !m.damage {
		return lipgloss.JoinVertical(lipgloss.Left, labelStyle.Render("tyre wear"), valueStyle.Render("-"))
	}
	w := m.tyreWear
	return lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render("tyre wear"),
		wearStyle.Render(fmt.Sprintf("FL %5.1f%%  FR %5.1f%%", w[2], w[3])),
		wearStyle.Render(fmt.Sprintf("RL %5.1f%%  RR %5.1f%%", w[0], w[1])),
	)
}

func (m Model) eventsView() string {
	if len(m.events) == 0 {
		return helpStyle.Render("no race events yet")
	}
	lines := make([]string, 0, len(m.events))
	for _, e := range m.events {
		lines = append(lines, eventStyle.Render(e))
	}
	return strings.Join(lines, "\n")
}

func row(label, value string) string {
	return labelStyle.Render(label) + valueStyle.Render(value)
}

func drsRow(drs uint8) string {
	if drs != 0 {
		return labelStyle.Render("drs") + drsOnStyle.Render("open")
	}
	return row("drs", "closed")
}

func gearLabel(g int8) string {
	switch {
	case g < 0:
		return "R"
	case g == 0:
		return "N"
	default:
		return fmt.Sprintf("%d", g)
	}
}

func percent(v float32) string {
	return fmt.Sprintf("%3.0f%%", v*100)
}

func positionLabel(l lapState) string {
	if !l.seen || l.position == 0 {
		return "-"
	}
	return fmt.Sprintf("P%d", l.position)
}

func lapTime(seen bool, ms uint32) string {
	if !seen {
		return "-:--.---"
	}
	return protocol.FormatLapTime(ms)
}
