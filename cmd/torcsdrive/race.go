package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/san-kum/torcsdrive/internal/config"
	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/log"
	"github.com/san-kum/torcsdrive/internal/metrics"
	"github.com/san-kum/torcsdrive/internal/session"
	"github.com/san-kum/torcsdrive/internal/storage"
	"github.com/san-kum/torcsdrive/internal/supervisor"
	"github.com/san-kum/torcsdrive/internal/track"
	"github.com/san-kum/torcsdrive/internal/viz"
)

var (
	host        string
	port        int
	clientID    string
	maxSteps    int
	episodes    int
	trackName   string
	stage       int
	debug       bool
	timeout     time.Duration
	retries     int
	maxRestarts int
	record      bool
	tui         bool
	supervise   bool
	restartCmd  string
	killCmd     string
)

func addRaceFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&host, "host", "H", session.DefaultHost, "server host")
	fs.IntVarP(&port, "port", "p", session.DefaultPort, "server port")
	fs.StringVarP(&clientID, "id", "i", session.DefaultID, "client id sent in the init message")
	fs.IntVarP(&maxSteps, "steps", "m", session.DefaultMaxSteps, "tick budget per session, 0 for none")
	fs.IntVarP(&episodes, "episodes", "e", 1, "sessions to run across server restarts")
	fs.StringVarP(&trackName, "track", "t", session.DefaultTrack, "track name")
	fs.IntVarP(&stage, "stage", "s", int(session.Race), "stage: 0 warmup, 1 qualifying, 2 race, 3 unknown")
	fs.BoolVarP(&debug, "debug", "d", false, "log every tick")
	fs.DurationVar(&timeout, "timeout", session.DefaultTimeout, "receive timeout")
	fs.IntVar(&retries, "retries", session.DefaultHandshakeRetries, "handshake timeouts before restarting the simulator")
	fs.IntVar(&maxRestarts, "max-restarts", 0, "simulator restarts per handshake, 0 for no limit")
	fs.BoolVar(&record, "record", false, "record the run under --data")
	fs.BoolVar(&tui, "tui", false, "show the live dashboard")
	fs.BoolVar(&supervise, "supervise", false, "kill and relaunch torcs when the handshake keeps failing")
	fs.StringVar(&restartCmd, "restart-cmd", "", "command launching the simulator when the handshake keeps failing")
	fs.StringVar(&killCmd, "kill-cmd", "", "command stopping a stale simulator before --restart-cmd")
}

func runRace(cmd *cobra.Command, args []string) error {
	if err := log.Init(logLevel, logFormat); err != nil {
		return err
	}
	defer log.Sync()

	drvCfg, presetName, err := loadDriverConfig()
	if err != nil {
		return err
	}
	drv, err := buildDriver(drvCfg)
	if err != nil {
		return err
	}

	scfg := session.DefaultConfig()
	scfg.Host = host
	scfg.Port = port
	scfg.ID = clientID
	scfg.MaxSteps = maxSteps
	scfg.Episodes = episodes
	scfg.Track = trackName
	scfg.Stage = session.Stage(stage)
	scfg.Debug = debug
	scfg.Timeout = timeout
	scfg.HandshakeRetries = retries
	scfg.MaxRestarts = maxRestarts
	if err := scfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []session.Option{session.WithLogger(log.Named("session"))}
	if supervise || restartCmd != "" || killCmd != "" {
		cmds := supervisor.DefaultCommands()
		if restartCmd != "" {
			cmds.Launch = supervisor.ParseCommand(restartCmd)
		}
		if killCmd != "" {
			cmds.Kill = supervisor.ParseCommand(killCmd)
		}
		opts = append(opts, session.WithSupervisor(supervisor.NewExec(cmds, log.Named("supervisor"))))
	}
	sess := session.New(scfg, drv, opts...)
	for _, m := range metrics.Default() {
		sess.AddMetric(m)
	}

	var rec *storage.Recorder
	if record {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		rec, err = st.Begin(storage.RunMetadata{
			Policy: drv.Name(),
			Preset: presetName,
			Track:  scfg.Track,
			Server: scfg.Addr(),
			Driver: drv.Config(),
		})
		if err != nil {
			return err
		}
		sess.AddObserver(rec)
		log.Logger.Info("recording", zap.String("run", rec.ID()), zap.String("dir", st.Dir()))
	}

	log.Logger.Info("starting",
		zap.String("policy", drv.Name()),
		zap.String("preset", presetName),
		zap.Int("episodes", scfg.Episodes))

	var results []*session.Result
	if tui {
		results, err = raceWithDashboard(ctx, cancel, sess, drv.Name())
	} else {
		results, err = sess.RunEpisodes(ctx)
	}

	if rec != nil {
		if ferr := rec.Finish(episodeRecords(results), lastMetrics(results)); ferr != nil {
			log.Logger.Warn("could not finish recording", zap.Error(ferr))
		}
	}
	fmt.Print(summarize(results))
	return err
}

// raceWithDashboard runs the episodes in the background while the
// dashboard owns the terminal. Quitting the dashboard cancels the race.
func raceWithDashboard(ctx context.Context, cancel context.CancelFunc, sess *session.Session, name string) ([]*session.Result, error) {
	title := fmt.Sprintf("torcsdrive · %s · %s", name, sess.Config().Addr())
	p := tea.NewProgram(viz.NewDashboard(title, cancel), tea.WithAltScreen(), tea.WithContext(ctx))
	sess.AddObserver(viz.NewFeed(p))

	var (
		results []*session.Result
		runErr  error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		results, runErr = sess.RunEpisodes(ctx)
		p.Send(viz.DoneMsg{Summary: summarize(results), Err: runErr})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		<-done
		return results, fmt.Errorf("dashboard: %w", err)
	}
	cancel()
	<-done
	return results, runErr
}

// loadDriverConfig resolves the driving config from --driver-config or
// --preset and returns it with the name recorded for the run.
func loadDriverConfig() (config.Config, string, error) {
	if driverConfig != "" {
		cfg, err := config.Load(driverConfig)
		if err != nil {
			return config.Config{}, "", err
		}
		return cfg, driverConfig, nil
	}
	cfg, err := config.Preset(preset)
	if err != nil {
		return config.Config{}, "", err
	}
	return cfg, strings.ToLower(preset), nil
}

func buildDriver(cfg config.Config) (*control.Driver, error) {
	name := policy
	if lookahead {
		name = control.Lookahead
	}
	tm, err := loadTrack(trackName)
	if err != nil && name == control.Lookahead {
		return nil, err
	}
	return control.New(name, cfg, tm)
}

// loadTrack prefers --track-file and otherwise looks the name up among the
// built-in segment tables.
func loadTrack(name string) (*track.Map, error) {
	if trackFile != "" {
		return track.Load(trackFile)
	}
	return track.Lookup(name)
}

func episodeRecords(results []*session.Result) []storage.Episode {
	eps := make([]storage.Episode, 0, len(results))
	for _, r := range results {
		eps = append(eps, storage.Episode{
			Episode:  r.Episode,
			Ticks:    r.Ticks,
			Laps:     r.Laps,
			RacePos:  r.RacePos,
			Reason:   r.Reason.String(),
			Timeouts: r.Timeouts,
		})
	}
	return eps
}

func lastMetrics(results []*session.Result) map[string]float64 {
	if len(results) == 0 {
		return nil
	}
	return results[len(results)-1].Metrics
}

func summarize(results []*session.Result) string {
	if len(results) == 0 {
		return "no session completed\n"
	}
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "episode %d: %s after %d ticks, %d laps, position %.0f, %d timeouts\n",
			r.Episode, r.Reason, r.Ticks, r.Laps, r.RacePos, r.Timeouts)
	}
	last := results[len(results)-1]
	for _, m := range metrics.Default() {
		if v, ok := last.Metrics[m.Name()]; ok {
			fmt.Fprintf(&b, "  %-14s %.3f\n", m.Name(), v)
		}
	}
	return b.String()
}
