package metrics

import (
	"math"

	"github.com/san-kum/torcsdrive/internal/protocol"
)

// OffTrack is the fraction of ticks spent with |trackPos| above the
// threshold. The track edges sit at ±1.
type OffTrack struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewOffTrack(threshold float64) *OffTrack {
	return &OffTrack{
		name:      "off_track",
		threshold: threshold,
	}
}

func (o *OffTrack) Name() string {
	return o.name
}

func (o *OffTrack) Observe(s protocol.Snapshot, cmd protocol.Command, tick int) {
	o.samples++
	if math.Abs(s.TrackPos()) > o.threshold {
		o.violations++
	}
}

func (o *OffTrack) Value() float64 {
	if o.samples == 0 {
		return 0
	}
	return float64(o.violations) / float64(o.samples)
}

func (o *OffTrack) Reset() {
	o.violations = 0
	o.samples = 0
}
