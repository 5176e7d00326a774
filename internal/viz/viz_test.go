package viz

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/protocol"
)

func TestDashboardTicks(t *testing.T) {
	m := NewDashboard("corkscrew", nil)

	var sent []tea.Msg
	feed := &Feed{send: func(msg tea.Msg) { sent = append(sent, msg) }}
	snap := protocol.NewSnapshot(map[string][]float64{"speedX": {120}, "racePos": {2}})
	for i := 1; i <= 3; i++ {
		feed.OnTick(i, snap, protocol.Command{Accel: 1, Gear: 4, Steer: 0.3}, control.Memory{Laps: 1})
	}
	if len(sent) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(sent))
	}

	var model tea.Model = m
	for _, msg := range sent {
		model, _ = model.Update(msg)
	}
	view := model.View()

	for _, want := range []string{"CORKSCREW", "RACING", "120.0 km/h", "Gear"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDashboardQuitCancels(t *testing.T) {
	canceled := false
	m := NewDashboard("race", func() { canceled = true })

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !canceled {
		t.Error("expected the race to be canceled")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestDashboardDone(t *testing.T) {
	m := NewDashboard("race", nil)
	model, cmd := m.Update(DoneMsg{Summary: "3 laps"})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !strings.Contains(model.View(), "FINISHED 3 laps") {
		t.Error("expected summary in view")
	}
}

func TestAppendCapped(t *testing.T) {
	buf := make([]float64, 0, historyCapacity)
	for i := 0; i < historyCapacity+10; i++ {
		buf = appendCapped(buf, float64(i))
	}
	if len(buf) != historyCapacity || buf[0] != 10 {
		t.Errorf("unexpected buffer head %v len %d", buf[0], len(buf))
	}
}

func TestCanvasFan(t *testing.T) {
	c := NewCanvas(10, 4)
	blank := c.String()

	readings := make([]float64, protocol.TrackSensors)
	for i := range readings {
		readings[i] = 200
	}
	c.Fan(readings, protocol.SensorAngles, protocol.DefaultTrackRange)
	if c.String() == blank {
		t.Error("expected rays on the canvas")
	}
	if lines := strings.Count(c.String(), "\n"); lines != 4 {
		t.Errorf("expected 4 rows, got %d", lines)
	}

	c.Clear()
	if c.String() != blank {
		t.Error("expected blank canvas after clear")
	}
}

func TestBarsAndCharts(t *testing.T) {
	st := stylesFor(ThemeMinimal)
	if got := Bar(0.5, 10, st.good); strings.Count(got, "░") != 5 {
		t.Errorf("unexpected bar %q", got)
	}
	if got := SteerBar(0, 10, st.good); got != "░░░░░│░░░░░" {
		t.Errorf("unexpected steer bar %q", got)
	}
	if got := Sparkline([]float64{1, 2, 3}, 10); len([]rune(got)) != 3 {
		t.Errorf("unexpected sparkline %q", got)
	}
	if Chart(nil, "x", 10, 3) != "" {
		t.Error("expected empty chart without data")
	}
	if !strings.Contains(Chart([]float64{1, 5, 3}, "speed", 10, 3), "speed") {
		t.Error("expected caption in chart")
	}
}

func TestThemes(t *testing.T) {
	defer SetTheme(CurrentTheme.Name)

	SetTheme("retro")
	NextTheme()
	if CurrentTheme.Name != "minimal" {
		t.Errorf("expected minimal, got %s", CurrentTheme.Name)
	}
	NextTheme()
	if CurrentTheme.Name != "pitlane" {
		t.Errorf("expected wrap to pitlane, got %s", CurrentTheme.Name)
	}
	if GetTheme("nope").Name != "pitlane" {
		t.Error("expected default theme")
	}
}
