package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/protocol"
)

// Recorder streams every tick of a run to ticks.csv and writes the run
// metadata when finished. It is write-only: nothing reads a recording back
// into a driver.
type Recorder struct {
	store   *Store
	meta    RunMetadata
	file    *os.File
	w       *csv.Writer
	episode int
	err     error
}

// Begin creates the run directory. meta.ID and meta.Timestamp are filled in
// when empty.
func (s *Store) Begin(meta RunMetadata) (*Recorder, error) {
	if meta.ID == "" {
		meta.ID = newRunID(meta.Policy)
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}

	dir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.Create(filepath.Join(dir, ticksFile))
	if err != nil {
		return nil, err
	}

	r := &Recorder{store: s, meta: meta, file: f, w: csv.NewWriter(f)}
	if err := r.w.Write(tickHeader); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) ID() string { return r.meta.ID }

// OnTick appends one row. Tick numbering restarts with each episode.
func (r *Recorder) OnTick(tick int, s protocol.Snapshot, cmd protocol.Command, mem control.Memory) {
	if r.err != nil {
		return
	}
	if tick == 1 || r.episode == 0 {
		r.episode++
	}
	r.err = r.w.Write(formatTick(Tick{
		Episode:       r.episode,
		Tick:          tick,
		DistFromStart: s.DistFromStart(),
		SpeedX:        s.SpeedX(),
		TrackPos:      s.TrackPos(),
		Angle:         s.Angle(),
		Steer:         cmd.Steer,
		Accel:         cmd.Accel,
		Brake:         cmd.Brake,
		Gear:          cmd.Gear,
		Lap:           mem.Laps,
		Phase:         mem.Phase.String(),
	}))
}

// Finish flushes the ticks and writes metadata.json with the episode
// summaries and final metrics.
func (r *Recorder) Finish(episodes []Episode, metrics map[string]float64) error {
	r.w.Flush()
	if err := r.w.Error(); err != nil && r.err == nil {
		r.err = err
	}
	if err := r.file.Close(); err != nil && r.err == nil {
		r.err = err
	}

	r.meta.Finished = time.Now()
	r.meta.Episodes = episodes
	r.meta.Metrics = metrics
	if err := r.store.writeMetadata(r.meta); err != nil {
		return err
	}
	return r.err
}
