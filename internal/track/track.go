package track

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultLookahead is how far ahead, in metres, corners are searched for.
const DefaultLookahead = 100.0

var ErrUnknownTrack = errors.New("track: unknown track")

type Kind string

const (
	Left     Kind = "lft"
	Right    Kind = "rgt"
	Straight Kind = "str"
)

func (k Kind) Valid() bool { return k == Left || k == Right || k == Straight }

// Segment is one piece of the track as described in the track XML. Radius
// is zero for straights.
type Segment struct {
	Name           string  `yaml:"name"`
	Kind           Kind    `yaml:"kind"`
	Length         float64 `yaml:"length"`
	Radius         float64 `yaml:"radius,omitempty"`
	Arc            float64 `yaml:"arc,omitempty"`
	BrakeThreshold float64 `yaml:"brake_threshold"`
}

func (s Segment) HasRadius() bool { return s.Radius > 0 }

// Map is an ordered, read-only segment table with the cumulative start
// distance of every segment.
type Map struct {
	name     string
	segments []Segment
	starts   []float64
	byName   map[string]int
	length   float64
}

func NewMap(name string, segments []Segment) (*Map, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("track %s: no segments", name)
	}
	m := &Map{
		name:     name,
		segments: make([]Segment, len(segments)),
		starts:   make([]float64, len(segments)),
		byName:   make(map[string]int, len(segments)),
	}
	copy(m.segments, segments)

	dist := 0.0
	for i, seg := range m.segments {
		if !seg.Kind.Valid() {
			return nil, fmt.Errorf("track %s: segment %s has kind %q", name, seg.Name, seg.Kind)
		}
		if seg.Length <= 0 {
			return nil, fmt.Errorf("track %s: segment %s has length %g", name, seg.Name, seg.Length)
		}
		if _, dup := m.byName[seg.Name]; dup {
			return nil, fmt.Errorf("track %s: duplicate segment %s", name, seg.Name)
		}
		m.byName[seg.Name] = i
		m.starts[i] = dist
		dist += seg.Length
	}
	m.length = dist
	return m, nil
}

func (m *Map) Name() string    { return m.name }
func (m *Map) Length() float64 { return m.length }
func (m *Map) Len() int        { return len(m.segments) }

func (m *Map) Segments() []Segment {
	out := make([]Segment, len(m.segments))
	copy(out, m.segments)
	return out
}

// Start returns the cumulative distance at which the named segment begins.
func (m *Map) Start(name string) (float64, bool) {
	i, ok := m.byName[name]
	if !ok {
		return 0, false
	}
	return m.starts[i], true
}

type trackFile struct {
	Name     string    `yaml:"name"`
	Segments []Segment `yaml:"segments"`
}

// Load reads a YAML track description:
//
//	name: corkscrew
//	segments:
//	  - {name: s1, kind: lft, length: 32, radius: 153.7, arc: 12, brake_threshold: 0.15}
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f trackFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("track %s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = path
	}
	return NewMap(f.Name, f.Segments)
}

func Save(path string, m *Map) error {
	data, err := yaml.Marshal(trackFile{Name: m.name, Segments: m.segments})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var builtin = map[string]func() *Map{
	"corkscrew": Corkscrew,
}

func Lookup(name string) (*Map, error) {
	fn, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrack, name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
