package viz

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/protocol"
)

const historyCapacity = 600

// TickMsg carries one decided tick into the dashboard.
type TickMsg struct {
	Tick     int
	Speed    float64
	Dist     float64
	TrackPos float64
	Angle    float64
	RacePos  float64
	Sensors  [protocol.TrackSensors]float64
	Command  protocol.Command
	Laps     int
	Phase    control.Phase
}

// DoneMsg ends the dashboard once the session has returned.
type DoneMsg struct {
	Summary string
	Err     error
}

type Dashboard struct {
	title    string
	cancel   context.CancelFunc
	last     TickMsg
	seen     bool
	speeds   []float64
	steers   []float64
	fan      *Canvas
	done     bool
	summary  string
	err      error
	showHelp bool
}

// NewDashboard builds the model. cancel stops the race when the user quits.
func NewDashboard(title string, cancel context.CancelFunc) Dashboard {
	return Dashboard{
		title:  title,
		cancel: cancel,
		speeds: make([]float64, 0, historyCapacity),
		steers: make([]float64, 0, historyCapacity),
		fan:    NewCanvas(24, 8),
	}
}

func (m Dashboard) Init() tea.Cmd { return nil }

func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.last = msg
		m.seen = true
		m.speeds = appendCapped(m.speeds, msg.Speed)
		m.steers = appendCapped(m.steers, msg.Command.Steer)
	case DoneMsg:
		m.done = true
		m.summary = msg.Summary
		m.err = msg.Err
		return m, tea.Quit
	}
	return m, nil
}

func appendCapped(buf []float64, v float64) []float64 {
	if len(buf) == historyCapacity {
		copy(buf, buf[1:])
		buf = buf[:len(buf)-1]
	}
	return append(buf, v)
}

func (m Dashboard) View() string {
	st := stylesFor(CurrentTheme)
	var s strings.Builder

	status := st.good.Render("RACING")
	switch {
	case m.err != nil:
		status = st.bad.Render("ERROR " + m.err.Error())
	case m.done:
		status = st.muted.Render("FINISHED " + m.summary)
	case !m.seen:
		status = st.warn.Render("WAITING FOR TELEMETRY")
	case m.last.Phase != control.Normal:
		status = st.warn.Render(strings.ToUpper(m.last.Phase.String()))
	}
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(status + "\n\n")

	if len(m.speeds) > 1 {
		s.WriteString(Chart(m.speeds, "speed km/h", 40, 5) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	c := m.last.Command
	row("Tick", fmt.Sprintf("%d", m.last.Tick))
	row("Lap", fmt.Sprintf("%d", m.last.Laps))
	row("Position", fmt.Sprintf("%.0f", m.last.RacePos))
	row("Speed", fmt.Sprintf("%.1f km/h", m.last.Speed))
	row("Distance", fmt.Sprintf("%.0f m", m.last.Dist))
	row("Gear", fmt.Sprintf("%d", c.Gear))
	s.WriteString("\n")
	s.WriteString(st.label.Render("Steer") + SteerBar(c.Steer, 20, st.good) + "\n")
	s.WriteString(st.label.Render("Throttle") + Bar(c.Accel, 20, st.good) + "\n")
	s.WriteString(st.label.Render("Brake") + Bar(c.Brake, 20, st.bad) + "\n")
	s.WriteString(st.label.Render("Steer hist") + Sparkline(m.steers, 30) + "\n")

	m.fan.Clear()
	m.fan.Fan(m.last.Sensors[:], protocol.SensorAngles, protocol.DefaultTrackRange)
	sensors := st.panel.Render(m.fan.String())

	main := lipgloss.JoinHorizontal(lipgloss.Top, st.panel.Render(s.String()), sensors)
	help := st.muted.Render("Q:Quit  T:Theme  ?:Help")
	if m.showHelp {
		help = st.muted.Render("Q/Ctrl+C  stop the race and quit\nT         cycle themes (" +
			strings.Join(ThemeNames(), ", ") + ")\n?         toggle this help")
	}
	return main + "\n" + help + "\n"
}
