package metrics

import (
	"math"

	"github.com/san-kum/torcsdrive/internal/protocol"
)

// ControlEffort is the mean of |steer| + accel + brake per tick.
type ControlEffort struct {
	name    string
	sum     float64
	samples int
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(s protocol.Snapshot, cmd protocol.Command, tick int) {
	c.sum += math.Abs(cmd.Steer) + cmd.Accel + cmd.Brake
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ControlEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
