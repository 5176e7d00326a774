// Package supervisor restarts the simulator process on behalf of a session
// whose handshake keeps failing.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

var ErrNoCommand = errors.New("supervisor: empty launch command")

// Nop never restarts anything.
type Nop struct{}

func (Nop) Restart(context.Context) error { return nil }

type Commands struct {
	Kill   []string
	Launch []string

	// KillSettle is waited after the kill command, LaunchSettle after the
	// launch.
	KillSettle   time.Duration
	LaunchSettle time.Duration
}

func DefaultCommands() Commands {
	return Commands{
		Kill:         []string{"pkill", "torcs"},
		Launch:       []string{"torcs", "-nofuel", "-nodamage", "-nolaptime"},
		KillSettle:   time.Second,
		LaunchSettle: 2 * time.Second,
	}
}

// ParseCommand splits a shell-like command line on whitespace.
func ParseCommand(line string) []string {
	return strings.Fields(line)
}

// Exec kills the running simulator and launches a new one in the
// background. A failing kill command is logged and ignored since there may
// be nothing to kill.
type Exec struct {
	cmds   Commands
	logger *zap.Logger
	run    func(ctx context.Context, argv []string) error
	start  func(argv []string) error
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewExec(cmds Commands, logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{
		cmds:   cmds,
		logger: logger,
		run:    runCommand,
		start:  startDetached,
		sleep:  sleep,
	}
}

func (e *Exec) Restart(ctx context.Context) error {
	if len(e.cmds.Launch) == 0 {
		return ErrNoCommand
	}

	if len(e.cmds.Kill) > 0 {
		if err := e.run(ctx, e.cmds.Kill); err != nil {
			e.logger.Debug("kill command failed", zap.Strings("argv", e.cmds.Kill), zap.Error(err))
		}
	}
	if err := e.sleep(ctx, e.cmds.KillSettle); err != nil {
		return err
	}

	e.logger.Info("launching simulator", zap.Strings("argv", e.cmds.Launch))
	if err := e.start(e.cmds.Launch); err != nil {
		return fmt.Errorf("supervisor: launch %s: %w", e.cmds.Launch[0], err)
	}
	return e.sleep(ctx, e.cmds.LaunchSettle)
}

func runCommand(ctx context.Context, argv []string) error {
	return exec.CommandContext(ctx, argv[0], argv[1:]...).Run()
}

// startDetached starts the process and reaps it in the background.
func startDetached(argv []string) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
