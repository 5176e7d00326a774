package metrics

import "github.com/san-kum/torcsdrive/internal/protocol"

// BrakeDuty is the fraction of ticks with the brake applied.
type BrakeDuty struct {
	braking int
	samples int
}

func NewBrakeDuty() *BrakeDuty { return &BrakeDuty{} }

func (b *BrakeDuty) Name() string { return "brake_duty" }

func (b *BrakeDuty) Observe(s protocol.Snapshot, cmd protocol.Command, tick int) {
	b.samples++
	if cmd.Brake > 0 {
		b.braking++
	}
}

func (b *BrakeDuty) Value() float64 {
	if b.samples == 0 {
		return 0
	}
	return float64(b.braking) / float64(b.samples)
}

func (b *BrakeDuty) Reset() {
	b.braking = 0
	b.samples = 0
}

// GearChanges counts shifts between consecutive commands.
type GearChanges struct {
	last    int
	started bool
	changes int
}

func NewGearChanges() *GearChanges { return &GearChanges{} }

func (g *GearChanges) Name() string { return "gear_changes" }

func (g *GearChanges) Observe(s protocol.Snapshot, cmd protocol.Command, tick int) {
	if g.started && cmd.Gear != g.last {
		g.changes++
	}
	g.last = cmd.Gear
	g.started = true
}

func (g *GearChanges) Value() float64 { return float64(g.changes) }

func (g *GearChanges) Reset() {
	g.last = 0
	g.started = false
	g.changes = 0
}

// Metric matches session.Metric without importing it.
type Metric interface {
	Name() string
	Observe(s protocol.Snapshot, cmd protocol.Command, tick int)
	Value() float64
	Reset()
}

// Default returns a fresh set of the race metrics.
func Default() []Metric {
	return []Metric{
		NewMaxSpeed(),
		NewAvgSpeed(),
		NewControlEffort(),
		NewOffTrack(1.0),
		NewBrakeDuty(),
		NewGearChanges(),
	}
}
