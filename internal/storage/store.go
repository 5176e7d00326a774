package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/torcsdrive/internal/config"
)

const (
	metadataFile = "metadata.json"
	ticksFile    = "ticks.csv"
)

var tickHeader = []string{
	"episode", "tick", "dist_from_start", "speed_x", "track_pos", "angle",
	"steer", "accel", "brake", "gear", "lap", "phase",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type Episode struct {
	Episode  int     `json:"episode"`
	Ticks    int     `json:"ticks"`
	Laps     int     `json:"laps"`
	RacePos  float64 `json:"race_pos"`
	Reason   string  `json:"reason"`
	Timeouts int     `json:"timeouts"`
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Finished  time.Time          `json:"finished"`
	Policy    string             `json:"policy"`
	Preset    string             `json:"preset"`
	Track     string             `json:"track"`
	Server    string             `json:"server"`
	Driver    config.Config      `json:"driver"`
	Episodes  []Episode          `json:"episodes"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Tick is one recorded row of ticks.csv.
type Tick struct {
	Episode       int     `json:"episode"`
	Tick          int     `json:"tick"`
	DistFromStart float64 `json:"dist_from_start"`
	SpeedX        float64 `json:"speed_x"`
	TrackPos      float64 `json:"track_pos"`
	Angle         float64 `json:"angle"`
	Steer         float64 `json:"steer"`
	Accel         float64 `json:"accel"`
	Brake         float64 `json:"brake"`
	Gear          int     `json:"gear"`
	Lap           int     `json:"lap"`
	Phase         string  `json:"phase"`
}

func newRunID(policy string) string {
	return fmt.Sprintf("%s_%s_%s", policy, time.Now().Format("20060102-150405"), uuid.NewString()[:8])
}

func (s *Store) writeMetadata(meta RunMetadata) error {
	f, err := os.Create(filepath.Join(s.baseDir, meta.ID, metadataFile))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// List returns the recorded runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTicks reads ticks.csv. Rows that do not parse are skipped.
func (s *Store) LoadTicks(runID string) ([]Tick, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, ticksFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Tick{}, nil
	}

	ticks := make([]Tick, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) != len(tickHeader) {
			continue
		}
		t, ok := parseTick(record)
		if !ok {
			continue
		}
		ticks = append(ticks, t)
	}
	return ticks, nil
}

func parseTick(record []string) (Tick, bool) {
	ints := make([]int, 0, 4)
	for _, i := range []int{0, 1, 9, 10} {
		v, err := strconv.Atoi(record[i])
		if err != nil {
			return Tick{}, false
		}
		ints = append(ints, v)
	}
	floats := make([]float64, 0, 7)
	for _, field := range record[2:9] {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return Tick{}, false
		}
		floats = append(floats, v)
	}
	return Tick{
		Episode:       ints[0],
		Tick:          ints[1],
		DistFromStart: floats[0],
		SpeedX:        floats[1],
		TrackPos:      floats[2],
		Angle:         floats[3],
		Steer:         floats[4],
		Accel:         floats[5],
		Brake:         floats[6],
		Gear:          ints[2],
		Lap:           ints[3],
		Phase:         record[11],
	}, true
}

func formatTick(t Tick) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		strconv.Itoa(t.Episode),
		strconv.Itoa(t.Tick),
		f(t.DistFromStart),
		f(t.SpeedX),
		f(t.TrackPos),
		f(t.Angle),
		f(t.Steer),
		f(t.Accel),
		f(t.Brake),
		strconv.Itoa(t.Gear),
		strconv.Itoa(t.Lap),
		t.Phase,
	}
}
