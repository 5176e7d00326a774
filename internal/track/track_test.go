package track

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorkscrewStarts(t *testing.T) {
	m := Corkscrew()

	assert.Equal(t, 21, m.Len())
	assert.InDelta(t, 1347.0, m.Length(), 1e-9)

	want := map[string]float64{
		"s1": 0, "s2": 32, "s3": 184, "s5": 222, "s6": 300, "s7": 327,
		"s8": 372, "s9": 407, "s10": 447, "s11": 479, "s14": 604, "s16": 684,
		"s17": 778, "s18": 813, "s20": 883, "s21": 918, "s23": 1035,
		"s24": 1085, "s25": 1120, "s26": 1155, "s27": 1187,
	}
	for name, start := range want {
		got, ok := m.Start(name)
		require.True(t, ok, name)
		assert.InDelta(t, start, got, 1e-9, name)
	}

	_, ok := m.Start("s4")
	assert.False(t, ok)
}

func TestUpcoming(t *testing.T) {
	m := Corkscrew()

	tests := []struct {
		dist     float64
		found    bool
		name     string
		distance float64
	}{
		{0, true, "s2", 32},
		{100, true, "s3", 84},
		{300, true, "s7", 27},
		{500, false, "", 0},
		{900, true, "s21", 18},
		{1200, false, "", 0},
		{1300, true, "s1", 47},
	}

	for _, tt := range tests {
		c, ok := m.Upcoming(tt.dist, DefaultLookahead)
		require.Equal(t, tt.found, ok, "dist %v", tt.dist)
		if ok {
			assert.Equal(t, tt.name, c.Name, "dist %v", tt.dist)
			assert.InDelta(t, tt.distance, c.Distance, 1e-9, "dist %v", tt.dist)
		}
	}
}

func TestAdaptiveBrake(t *testing.T) {
	m := Corkscrew()

	assert.InDelta(t, 0.65, m.AdaptiveBrake(900, 0), 1e-9, "close to s21")
	assert.InDelta(t, 0.45, m.AdaptiveBrake(890, 0), 1e-9, "approaching s21")
	assert.InDelta(t, 0.8, m.AdaptiveBrake(1200, 0.6), 1e-9, "heading only")
	assert.InDelta(t, 0.8, m.AdaptiveBrake(900, 0.6), 1e-9, "heading wins")
	assert.Zero(t, m.AdaptiveBrake(20, 0), "straights never brake")
	assert.Zero(t, m.AdaptiveBrake(500, 0.1))
}

func TestCornerSpeed(t *testing.T) {
	m := Corkscrew()

	speed, ok := m.CornerSpeed(900)
	require.True(t, ok)
	assert.Equal(t, 60.0, speed)

	speed, ok = m.CornerSpeed(450)
	require.True(t, ok)
	assert.Equal(t, 75.0, speed)

	speed, ok = m.CornerSpeed(150)
	require.True(t, ok)
	assert.Equal(t, 90.0, speed)

	_, ok = m.CornerSpeed(0)
	assert.False(t, ok)
}

func TestNewMapRejectsBadSegments(t *testing.T) {
	_, err := NewMap("x", nil)
	assert.Error(t, err)

	_, err = NewMap("x", []Segment{{Name: "a", Kind: "zig", Length: 10}})
	assert.Error(t, err)

	_, err = NewMap("x", []Segment{{Name: "a", Kind: Left, Length: 0}})
	assert.Error(t, err)

	_, err = NewMap("x", []Segment{
		{Name: "a", Kind: Left, Length: 10},
		{Name: "a", Kind: Right, Length: 10},
	})
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corkscrew.yaml")
	require.NoError(t, Save(path, Corkscrew()))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "corkscrew", m.Name())
	assert.InDelta(t, 1347.0, m.Length(), 1e-9)

	segs := m.Segments()
	assert.True(t, segs[0].HasRadius())
	assert.False(t, segs[1].HasRadius())
}

func TestLookup(t *testing.T) {
	m, err := Lookup("corkscrew")
	require.NoError(t, err)
	assert.Equal(t, "corkscrew", m.Name())

	_, err = Lookup("monza")
	assert.ErrorIs(t, err, ErrUnknownTrack)
	assert.Equal(t, []string{"corkscrew"}, Names())
}
