package track

import "math"

// Corner is the next segment found inside the lookahead window.
type Corner struct {
	Segment
	Distance float64 // metres from the current position to the segment start
}

// Upcoming returns the first segment whose start lies strictly between dist
// and dist+lookahead. The window wraps over the finish line.
func (m *Map) Upcoming(dist, lookahead float64) (Corner, bool) {
	if m.length > 0 {
		dist = math.Mod(dist, m.length)
		if dist < 0 {
			dist += m.length
		}
	}
	end := dist + lookahead
	for i, seg := range m.segments {
		if start := m.starts[i]; dist < start && start < end {
			return Corner{Segment: seg, Distance: start - dist}, true
		}
	}
	if end > m.length {
		for i, seg := range m.segments {
			if start := m.starts[i] + m.length; dist < start && start < end {
				return Corner{Segment: seg, Distance: start - dist}, true
			}
		}
	}
	return Corner{}, false
}

// AdaptiveBrake blends heading based braking with braking ahead of the next
// corner from the segment table. angle is the absolute heading error.
// Straights never contribute anticipatory braking.
func (m *Map) AdaptiveBrake(dist, angle float64) float64 {
	brake := 0.0
	switch {
	case angle > 0.5:
		brake = 0.8
	case angle > 0.35:
		brake = 0.6
	case angle > 0.25:
		brake = 0.4
	}

	if c, ok := m.Upcoming(dist, DefaultLookahead); ok && c.Kind != Straight && c.Distance < 50 {
		if c.Distance < 20 {
			brake = math.Max(brake, c.BrakeThreshold+0.1)
		} else {
			brake = math.Max(brake, c.BrakeThreshold-0.1)
		}
	}
	return math.Max(0, math.Min(1, brake))
}

// CornerSpeed returns a speed cap in km/h when a significant corner is close.
func (m *Map) CornerSpeed(dist float64) (float64, bool) {
	c, ok := m.Upcoming(dist, DefaultLookahead)
	if !ok {
		return 0, false
	}
	switch {
	case c.BrakeThreshold > 0.50 && c.Distance < 100:
		return 60, true
	case c.BrakeThreshold > 0.35 && c.BrakeThreshold <= 0.50 && c.Distance < 80:
		return 75, true
	case c.BrakeThreshold > 0.25 && c.BrakeThreshold <= 0.35 && c.Distance < 60:
		return 90, true
	}
	return 0, false
}
