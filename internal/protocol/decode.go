package protocol

import (
	"math"
	"strings"
)

// Decode parses one server datagram into a fresh Snapshot. Groups without
// tokens are dropped; a channel seen twice keeps its last value.
func Decode(datagram []byte) Snapshot {
	snap := Snapshot{values: make(map[string]Value)}
	for _, group := range splitGroups(string(datagram)) {
		tokens := strings.Fields(group)
		if len(tokens) == 0 {
			continue
		}
		snap.values[tokens[0]] = newValue(tokens[1:])
	}
	return snap
}

// NewSnapshot builds a snapshot from already typed channels, mostly for
// scripted scenarios and tests.
func NewSnapshot(channels map[string][]float64) Snapshot {
	snap := Snapshot{values: make(map[string]Value, len(channels))}
	for name, vals := range channels {
		v := Value{
			raw:  make([]string, len(vals)),
			nums: make([]float64, len(vals)),
			ok:   make([]bool, len(vals)),
		}
		for i, f := range vals {
			v.raw[i] = formatFloat(f)
			v.nums[i] = f
			v.ok[i] = !math.IsNaN(f) && !math.IsInf(f, 0)
		}
		snap.values[name] = v
	}
	return snap
}

func splitGroups(s string) []string {
	s = strings.TrimRight(strings.TrimSpace(s), "\x00")
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "(")
	s = strings.TrimRight(s, ")")
	if s == "" {
		return nil
	}
	return strings.Split(s, ")(")
}
