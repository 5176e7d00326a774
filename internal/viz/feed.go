package viz

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/protocol"
)

// Feed is a session observer forwarding every tick to a running program.
type Feed struct {
	send func(tea.Msg)
}

func NewFeed(p *tea.Program) *Feed {
	return &Feed{send: p.Send}
}

func (f *Feed) OnTick(tick int, s protocol.Snapshot, cmd protocol.Command, mem control.Memory) {
	f.send(TickMsg{
		Tick:     tick,
		Speed:    s.SpeedX(),
		Dist:     s.DistFromStart(),
		TrackPos: s.TrackPos(),
		Angle:    s.Angle(),
		RacePos:  s.RacePos(),
		Sensors:  s.Track(),
		Command:  cmd,
		Laps:     mem.Laps,
		Phase:    mem.Phase,
	})
}
