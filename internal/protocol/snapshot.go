package protocol

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	TrackSensors = 19
	Wheels       = 4

	// DefaultTrackRange is the reading of a range sensor that sees no edge.
	DefaultTrackRange = 200.0
)

// Value is the payload of one telemetry group. A single token is a scalar,
// several tokens form an ordered sequence. NaN and Inf count as text.
type Value struct {
	raw  []string
	nums []float64
	ok   []bool
}

func newValue(tokens []string) Value {
	v := Value{
		raw:  tokens,
		nums: make([]float64, len(tokens)),
		ok:   make([]bool, len(tokens)),
	}
	for i, tok := range tokens {
		f, err := strconv.ParseFloat(tok, 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			v.nums[i] = f
			v.ok[i] = true
		}
	}
	return v
}

func (v Value) Len() int { return len(v.raw) }

func (v Value) IsScalar() bool { return len(v.raw) == 1 }

// Float returns the scalar number, false for sequences and non-numeric text.
func (v Value) Float() (float64, bool) {
	if !v.IsScalar() || !v.ok[0] {
		return 0, false
	}
	return v.nums[0], true
}

// Floats returns the values as numbers, false if any token is not numeric.
func (v Value) Floats() ([]float64, bool) {
	if len(v.raw) == 0 {
		return nil, false
	}
	for _, ok := range v.ok {
		if !ok {
			return nil, false
		}
	}
	out := make([]float64, len(v.nums))
	copy(out, v.nums)
	return out, true
}

// Text returns the original tokens joined by a space.
func (v Value) Text() string { return strings.Join(v.raw, " ") }

// Snapshot is one tick of telemetry keyed by channel name. It is never
// mutated after Decode returns it.
type Snapshot struct {
	values map[string]Value
}

func (s Snapshot) Get(name string) (Value, bool) {
	v, ok := s.values[name]
	return v, ok
}

func (s Snapshot) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

func (s Snapshot) Len() int { return len(s.values) }

// Channels returns the channel names in lexical order.
func (s Snapshot) Channels() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scalar reads a numeric scalar channel, returning def when it is missing
// or not a number.
func (s Snapshot) Scalar(name string, def float64) float64 {
	v, ok := s.values[name]
	if !ok {
		return def
	}
	f, ok := v.Float()
	if !ok {
		return def
	}
	return f
}

func (s Snapshot) Angle() float64         { return s.Scalar("angle", 0) }
func (s Snapshot) TrackPos() float64      { return s.Scalar("trackPos", 0) }
func (s Snapshot) SpeedX() float64        { return s.Scalar("speedX", 0) }
func (s Snapshot) SpeedY() float64        { return s.Scalar("speedY", 0) }
func (s Snapshot) SpeedZ() float64        { return s.Scalar("speedZ", 0) }
func (s Snapshot) DistFromStart() float64 { return s.Scalar("distFromStart", 0) }
func (s Snapshot) DistRaced() float64     { return s.Scalar("distRaced", 0) }
func (s Snapshot) RacePos() float64       { return s.Scalar("racePos", 0) }
func (s Snapshot) Damage() float64        { return s.Scalar("damage", 0) }
func (s Snapshot) Fuel() float64          { return s.Scalar("fuel", 0) }
func (s Snapshot) StuckTimer() float64    { return s.Scalar("stucktimer", 0) }

// Track returns the range sensor array. Anything but exactly 19 numeric
// readings yields the all-open default.
func (s Snapshot) Track() [TrackSensors]float64 {
	var out [TrackSensors]float64
	for i := range out {
		out[i] = DefaultTrackRange
	}
	if v, ok := s.values["track"]; ok && v.Len() == TrackSensors {
		if nums, ok := v.Floats(); ok {
			copy(out[:], nums)
		}
	}
	return out
}

// WheelSpinVel returns front-left, front-right, rear-left, rear-right
// wheel spin velocities, zeros when the channel is missing or malformed.
func (s Snapshot) WheelSpinVel() [Wheels]float64 {
	var out [Wheels]float64
	if v, ok := s.values["wheelSpinVel"]; ok && v.Len() == Wheels {
		if nums, ok := v.Floats(); ok {
			copy(out[:], nums)
		}
	}
	return out
}
