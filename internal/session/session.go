package session

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/protocol"
	"github.com/san-kum/torcsdrive/internal/supervisor"
)

type Session struct {
	cfg        Config
	policy     control.Policy
	dialer     Dialer
	supervisor Supervisor
	logger     *zap.Logger
	metrics    []Metric
	observers  []Observer
}

type Option func(*Session)

func WithDialer(d Dialer) Option          { return func(s *Session) { s.dialer = d } }
func WithSupervisor(sv Supervisor) Option { return func(s *Session) { s.supervisor = sv } }
func WithLogger(l *zap.Logger) Option     { return func(s *Session) { s.logger = l } }

func New(cfg Config, policy control.Policy, opts ...Option) *Session {
	s := &Session{
		cfg:        cfg,
		policy:     policy,
		dialer:     UDPDialer{},
		supervisor: supervisor.Nop{},
		logger:     zap.NewNop(),
		metrics:    make([]Metric, 0),
		observers:  make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Session) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Session) Config() Config { return s.cfg }

// RunEpisodes runs sessions back to back. A new session, with a fresh
// socket and fresh driver memory, starts only after the server asked for a
// restart and while episodes remain.
func (s *Session) RunEpisodes(ctx context.Context) ([]*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	results := make([]*Result, 0, s.cfg.Episodes)
	for ep := 1; ep <= s.cfg.Episodes; ep++ {
		res, err := s.run(ctx, ep)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, err
		}
		if res.Reason != ReasonRestart {
			break
		}
	}
	return results, nil
}

// Run drives a single session until shutdown, restart, the step budget or
// cancellation. Cancellation is not an error.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s.run(ctx, 1)
}

func (s *Session) run(ctx context.Context, episode int) (*Result, error) {
	log := s.logger.With(zap.Int("episode", episode))
	res := &Result{
		Episode: episode,
		State:   Disconnected,
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}

	conn, err := s.dialer.Dial(ctx, s.cfg.Addr())
	if err != nil {
		return res, &Error{State: Disconnected, Wrapped: fmt.Errorf("%w: %w", ErrSocket, err)}
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	log.Info("connecting",
		zap.String("addr", s.cfg.Addr()),
		zap.String("id", s.cfg.ID),
		zap.String("track", s.cfg.Track),
		zap.Stringer("stage", s.cfg.Stage))

	res.State = Handshaking
	if err := s.handshake(ctx, conn, log); err != nil {
		if ctx.Err() != nil {
			res.Reason = ReasonCanceled
			log.Info("interrupted during handshake")
			return res, nil
		}
		return res, &Error{State: Handshaking, Wrapped: err}
	}
	res.State = Connected
	log.Info("connected")

	s.loop(ctx, conn, res, log)

	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	log.Info("session finished",
		zap.Stringer("reason", res.Reason),
		zap.Stringer("state", res.State),
		zap.Int("laps", res.Laps),
		zap.Int("ticks", res.Ticks),
		zap.Int("timeouts", res.Timeouts))
	return res, nil
}

func (s *Session) handshake(ctx context.Context, conn Conn, log *zap.Logger) error {
	hello := []byte(protocol.InitMessage(s.cfg.ID, protocol.SensorAngles))
	retries := s.cfg.HandshakeRetries
	restarts := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := conn.Send(hello); err != nil {
			log.Warn("send init failed", zap.Error(err))
		}

		data, err := conn.Receive(s.cfg.Timeout)
		if err == nil {
			if protocol.Classify(data) == protocol.KindIdentified {
				return nil
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !errors.Is(err, ErrTimeout) {
			log.Warn("receive failed", zap.Error(err))
		}

		retries--
		log.Info("waiting for server", zap.Int("port", s.cfg.Port), zap.Int("retries_left", retries))
		if retries > 0 {
			continue
		}

		restarts++
		if s.cfg.MaxRestarts > 0 && restarts > s.cfg.MaxRestarts {
			return fmt.Errorf("%w after %d simulator restarts", ErrHandshake, s.cfg.MaxRestarts)
		}
		log.Warn("restarting simulator", zap.Int("restart", restarts))
		if err := s.supervisor.Restart(ctx); err != nil {
			log.Error("simulator restart failed", zap.Error(err))
		}
		retries = s.cfg.HandshakeRetries
	}
}

func (s *Session) loop(ctx context.Context, conn Conn, res *Result, log *zap.Logger) {
	mem := control.NewMemory()
	var last protocol.Snapshot

	for {
		if ctx.Err() != nil {
			res.Reason = ReasonCanceled
			return
		}
		if s.cfg.MaxSteps > 0 && res.Ticks >= s.cfg.MaxSteps {
			res.Reason = ReasonStepBudget
			log.Info("step budget reached", zap.Int("steps", s.cfg.MaxSteps))
			return
		}

		data, err := conn.Receive(s.cfg.Timeout)
		if err != nil {
			if ctx.Err() != nil {
				res.Reason = ReasonCanceled
				return
			}
			res.Timeouts++
			if errors.Is(err, ErrTimeout) {
				log.Debug("waiting for telemetry", zap.Int("timeouts", res.Timeouts))
			} else {
				log.Warn("receive failed", zap.Error(err))
			}
			continue
		}

		switch protocol.Classify(data) {
		case protocol.KindIdentified, protocol.KindEmpty:
			continue
		case protocol.KindShutdown:
			res.State = Shutdown
			res.Reason = ReasonShutdown
			res.RacePos = last.RacePos()
			log.Info("race finished", zap.Float64("race_pos", res.RacePos))
			_ = conn.Close()
			return
		case protocol.KindRestart:
			res.State = Restarted
			res.Reason = ReasonRestart
			log.Info("race restarted")
			_ = conn.Close()
			return
		}

		snap := protocol.Decode(data)
		var cmd protocol.Command
		cmd, mem = s.policy.Decide(snap, mem)
		if err := conn.Send([]byte(protocol.Encode(cmd))); err != nil {
			log.Warn("send command failed", zap.Error(err), zap.Int("tick", res.Ticks))
		}

		res.Ticks++
		res.Laps = mem.Laps
		last = snap

		for _, m := range s.metrics {
			m.Observe(snap, cmd, res.Ticks)
		}
		for _, o := range s.observers {
			o.OnTick(res.Ticks, snap, cmd, mem)
		}

		if s.cfg.Debug {
			log.Debug("tick",
				zap.Int("tick", res.Ticks),
				zap.Strings("channels", snap.Channels()),
				zap.String("command", protocol.Encode(cmd)))
		}
		if s.cfg.ProgressEvery > 0 && res.Ticks%s.cfg.ProgressEvery == 0 {
			log.Info("progress",
				zap.Int("tick", res.Ticks),
				zap.Int("lap", mem.Laps),
				zap.Float64("speed", snap.SpeedX()),
				zap.Float64("dist", snap.DistFromStart()),
				zap.Stringer("phase", mem.Phase))
		}
	}
}
