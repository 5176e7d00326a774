package metrics

import "github.com/san-kum/torcsdrive/internal/protocol"

type MaxSpeed struct {
	max float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(s protocol.Snapshot, cmd protocol.Command, tick int) {
	m.max = max(m.max, s.SpeedX())
}

func (m *MaxSpeed) Value() float64 { return m.max }
func (m *MaxSpeed) Reset()         { m.max = 0 }

type AvgSpeed struct {
	sum     float64
	samples int
}

func NewAvgSpeed() *AvgSpeed { return &AvgSpeed{} }

func (a *AvgSpeed) Name() string { return "avg_speed" }

func (a *AvgSpeed) Observe(s protocol.Snapshot, cmd protocol.Command, tick int) {
	a.sum += s.SpeedX()
	a.samples++
}

func (a *AvgSpeed) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

func (a *AvgSpeed) Reset() {
	a.sum = 0
	a.samples = 0
}
