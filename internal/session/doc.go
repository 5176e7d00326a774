// Package session runs one SCR client connection: the init handshake, the
// telemetry/command loop and the shutdown or restart that ends it.
//
// A session moves through [Disconnected], [Handshaking], [Connected] and
// ends in [Shutdown] or [Restarted]. Exactly one tick is in flight at a
// time; the loop owns its [control.Memory] and its socket.
//
// # Usage
//
//	drv, _ := control.New("guarded", config.DefaultConfig(), nil)
//	s := session.New(session.DefaultConfig(), drv,
//		session.WithLogger(log.Named("session")),
//		session.WithSupervisor(supervisor.NewExec(supervisor.DefaultCommands())),
//	)
//	s.AddMetric(metrics.NewMaxSpeed())
//	results, err := s.RunEpisodes(ctx)
package session
