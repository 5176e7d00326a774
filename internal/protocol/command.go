package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const MaxFocus = 5

var ErrIncompleteCommand = errors.New("protocol: command is missing fields")

// DefaultFocus returns the fan of focus sensor directions requested every
// tick. Each call returns a fresh slice.
func DefaultFocus() []float64 { return []float64{-90, -45, 0, 45, 90} }

// commandKeys is the field order on the wire.
var commandKeys = []string{"accel", "brake", "clutch", "gear", "steer", "focus", "meta"}

// Command is the client's answer for one tick. Fields may hold out of range
// values until Clamp or Encode is applied.
type Command struct {
	Accel  float64
	Brake  float64
	Clutch float64
	Gear   int
	Steer  float64
	Focus  []float64
	Meta   int
}

// Clamp returns a copy with every field forced into its legal range. Illegal
// gear, meta and focus values are reset to 0 rather than clipped.
func (c Command) Clamp() Command {
	out := c
	out.Steer = clip(c.Steer, -1, 1)
	out.Brake = clip(c.Brake, 0, 1)
	out.Accel = clip(c.Accel, 0, 1)
	out.Clutch = clip(c.Clutch, 0, 1)
	if c.Gear < -1 || c.Gear > 6 {
		out.Gear = 0
	}
	if c.Meta != 0 && c.Meta != 1 {
		out.Meta = 0
	}
	if validFocus(c.Focus) {
		out.Focus = append([]float64(nil), c.Focus...)
	} else {
		out.Focus = []float64{0}
	}
	return out
}

func validFocus(focus []float64) bool {
	if len(focus) == 0 || len(focus) > MaxFocus {
		return false
	}
	for _, f := range focus {
		if math.IsNaN(f) || f < -180 || f > 180 {
			return false
		}
	}
	return true
}

// Encode clamps c and renders it in wire order.
func Encode(c Command) string {
	c = c.Clamp()
	var b strings.Builder
	b.Grow(96)
	for _, key := range commandKeys {
		b.WriteByte('(')
		b.WriteString(key)
		b.WriteByte(' ')
		switch key {
		case "accel":
			b.WriteString(fixed(c.Accel))
		case "brake":
			b.WriteString(fixed(c.Brake))
		case "clutch":
			b.WriteString(fixed(c.Clutch))
		case "gear":
			b.WriteString(fixed(float64(c.Gear)))
		case "steer":
			b.WriteString(fixed(c.Steer))
		case "focus":
			for i, f := range c.Focus {
				if i > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(formatFloat(f))
			}
		case "meta":
			b.WriteString(fixed(float64(c.Meta)))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// ParseCommand reads an encoded command back. All seven keys must be present.
func ParseCommand(s string) (Command, error) {
	snap := Decode([]byte(s))
	var missing []string
	for _, key := range commandKeys {
		if !snap.Has(key) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Command{}, fmt.Errorf("%w: %s", ErrIncompleteCommand, strings.Join(missing, ", "))
	}

	c := Command{
		Accel:  snap.Scalar("accel", 0),
		Brake:  snap.Scalar("brake", 0),
		Clutch: snap.Scalar("clutch", 0),
		Gear:   int(math.Round(snap.Scalar("gear", 0))),
		Steer:  snap.Scalar("steer", 0),
		Meta:   int(math.Round(snap.Scalar("meta", 0))),
	}
	focus, _ := snap.Get("focus")
	if nums, ok := focus.Floats(); ok {
		c.Focus = nums
	} else {
		return Command{}, fmt.Errorf("protocol: focus is not numeric: %q", focus.Text())
	}
	return c, nil
}

func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
