package session_test

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/torcsdrive/internal/config"
	"github.com/san-kum/torcsdrive/internal/control"
	"github.com/san-kum/torcsdrive/internal/protocol"
	"github.com/san-kum/torcsdrive/internal/session"
)

var _ = Describe("Session", func() {
	var (
		cfg    session.Config
		driver *control.Driver
		sup    *fakeSupervisor
	)

	newSession := func(d session.Dialer) *session.Session {
		return session.New(cfg, driver,
			session.WithDialer(d),
			session.WithSupervisor(sup))
	}

	BeforeEach(func() {
		cfg = session.DefaultConfig()
		cfg.Timeout = 10 * time.Millisecond
		sup = &fakeSupervisor{}

		var err error
		driver, err = control.New(control.Guarded, config.DefaultConfig(), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("DefaultConfig", func() {
		It("uses the documented defaults", func() {
			def := session.DefaultConfig()
			Expect(def.Host).To(Equal("localhost"))
			Expect(def.Port).To(Equal(3001))
			Expect(def.ID).To(Equal("SCR"))
			Expect(def.MaxSteps).To(Equal(session.DefaultMaxSteps))
			Expect(def.Episodes).To(Equal(1))
			Expect(def.Stage).To(Equal(session.Race))
			Expect(def.Timeout).To(Equal(time.Second))
			Expect(def.HandshakeRetries).To(Equal(5))
			Expect(def.Addr()).To(Equal("localhost:3001"))
			Expect(def.Validate()).To(Succeed())
		})

		It("rejects a config without episodes", func() {
			cfg.Episodes = 0
			_, err := newSession(&fakeDialer{}).RunEpisodes(context.Background())
			Expect(err).To(HaveOccurred())
		})
	})

	Context("when the race runs to a shutdown", func() {
		It("handshakes, drives and reports the final position", func() {
			conn := &fakeConn{script: []reply{
				msg("***identified***"),
				telemetry(50, 10, 4),
				telemetry(55, 12, 3),
				msg("***shutdown***"),
			}}
			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.State).To(Equal(session.Shutdown))
			Expect(res.Reason).To(Equal(session.ReasonShutdown))
			Expect(res.Ticks).To(Equal(2))
			Expect(res.RacePos).To(Equal(3.0))
			Expect(conn.Closes()).To(BeNumerically(">=", 1))

			sent := conn.Sent()
			Expect(sent).To(HaveLen(3))
			Expect(string(sent[0])).To(Equal(protocol.InitMessage("SCR", protocol.SensorAngles)))
			for _, cmd := range sent[1:] {
				parsed, err := protocol.ParseCommand(string(cmd))
				Expect(err).NotTo(HaveOccurred())
				Expect(parsed.Gear).To(BeNumerically(">=", 1))
			}
		})

		It("ignores empty datagrams and repeated acknowledgments", func() {
			conn := &fakeConn{script: []reply{
				msg("***identified***"),
				msg(""),
				msg("***identified***"),
				telemetry(50, 10, 1),
				msg("***shutdown***"),
			}}
			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(1))
		})
	})

	Context("when the server is slow to answer the handshake", func() {
		It("resends the init message without restarting below the retry budget", func() {
			conn := &fakeConn{script: []reply{
				timeout(), timeout(), timeout(), timeout(),
				msg("***identified***"),
				msg("***shutdown***"),
			}}
			_, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(sup.restarts).To(Equal(0))
			inits := 0
			for _, b := range conn.Sent() {
				if strings.Contains(string(b), "(init ") {
					inits++
				}
			}
			Expect(inits).To(Equal(5))
		})

		It("restarts the simulator when the retry budget is exhausted", func() {
			script := []reply{}
			for i := 0; i < 7; i++ {
				script = append(script, timeout())
			}
			script = append(script, msg("***identified***"), msg("***shutdown***"))
			conn := &fakeConn{script: script}

			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.State).To(Equal(session.Shutdown))
			Expect(sup.restarts).To(Equal(1))
		})

		It("gives up after the allowed restarts", func() {
			cfg.HandshakeRetries = 2
			cfg.MaxRestarts = 3
			sup.err = errors.New("torcs not installed")
			conn := &fakeConn{}

			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).To(MatchError(session.ErrHandshake))
			var serr *session.Error
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.State).To(Equal(session.Handshaking))
			Expect(res.State).To(Equal(session.Handshaking))
			Expect(sup.restarts).To(Equal(3))
		})
	})

	Context("while connected", func() {
		It("counts receive timeouts without failing", func() {
			conn := &fakeConn{script: []reply{
				msg("***identified***"),
				timeout(),
				timeout(),
				telemetry(60, 20, 2),
				timeout(),
				msg("***shutdown***"),
			}}
			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Timeouts).To(Equal(3))
			Expect(res.Ticks).To(Equal(1))
		})

		It("keeps driving when a command cannot be sent", func() {
			conn := &fakeConn{
				script: []reply{
					msg("***identified***"),
					telemetry(60, 20, 2),
					telemetry(60, 21, 2),
					msg("***shutdown***"),
				},
				failSends: true,
			}
			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(2))
		})

		It("stops gracefully at the step budget", func() {
			cfg.MaxSteps = 10
			conn := &fakeConn{
				script: []reply{msg("***identified***")},
				repeat: telemetry(80, 100, 1).data,
			}
			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Reason).To(Equal(session.ReasonStepBudget))
			Expect(res.State).To(Equal(session.Connected))
			Expect(res.Ticks).To(Equal(10))
			Expect(conn.Closes()).To(BeNumerically(">=", 1))
		})

		It("counts laps from the distance channel", func() {
			conn := &fakeConn{script: []reply{
				msg("***identified***"),
				telemetry(100, 500, 1),
				telemetry(100, 1300, 1),
				telemetry(100, 5, 1),
				telemetry(100, 50, 1),
				msg("***shutdown***"),
			}}
			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Laps).To(Equal(1))
		})

		It("feeds metrics and observers every tick", func() {
			conn := &fakeConn{
				script: []reply{msg("***identified***")},
				repeat: telemetry(80, 100, 1).data,
			}
			cfg.MaxSteps = 25
			s := newSession(&fakeDialer{conns: []*fakeConn{conn}})
			counter := &tickCounter{}
			obs := &memoryLog{}
			s.AddMetric(counter)
			s.AddObserver(obs)

			res, err := s.Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKeyWithValue("ticks", 25.0))
			Expect(obs.ticks).To(HaveLen(25))
			Expect(obs.ticks[0]).To(Equal(1))
			Expect(obs.mems[24].LastDistFromStart).To(Equal(100.0))
		})
	})

	Context("when the context is canceled", func() {
		It("closes the socket and returns without error", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			conn := &fakeConn{
				script: []reply{msg("***identified***")},
				repeat: telemetry(80, 100, 1).data,
				onReceive: func(n int) {
					if n == 4 {
						cancel()
					}
				},
			}
			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Reason).To(Equal(session.ReasonCanceled))
			Eventually(conn.Closes).Should(BeNumerically(">=", 1))
		})

		It("stops during the handshake", func() {
			ctx, cancel := context.WithCancel(context.Background())
			conn := &fakeConn{onReceive: func(n int) {
				if n == 2 {
					cancel()
				}
			}}
			res, err := newSession(&fakeDialer{conns: []*fakeConn{conn}}).Run(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Reason).To(Equal(session.ReasonCanceled))
			Expect(res.State).To(Equal(session.Handshaking))
		})
	})

	Context("when the socket cannot be opened", func() {
		It("fails with ErrSocket", func() {
			_, err := newSession(&fakeDialer{err: errors.New("too many open files")}).Run(context.Background())

			Expect(err).To(MatchError(session.ErrSocket))
			var serr *session.Error
			Expect(errors.As(err, &serr)).To(BeTrue())
			Expect(serr.State).To(Equal(session.Disconnected))
		})
	})

	Describe("RunEpisodes", func() {
		It("reconnects with fresh state after a restart", func() {
			cfg.Episodes = 3
			first := &fakeConn{script: []reply{
				msg("***identified***"),
				telemetry(100, 1300, 1),
				telemetry(100, 5, 1),
				msg("***restart***"),
			}}
			second := &fakeConn{script: []reply{
				msg("***identified***"),
				telemetry(100, 5, 1),
				msg("***shutdown***"),
			}}
			dialer := &fakeDialer{conns: []*fakeConn{first, second}}

			results, err := newSession(dialer).RunEpisodes(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(dialer.dials).To(Equal(2))
			Expect(results).To(HaveLen(2))
			Expect(results[0].State).To(Equal(session.Restarted))
			Expect(results[0].Laps).To(Equal(1))
			Expect(results[1].State).To(Equal(session.Shutdown))
			Expect(results[1].Laps).To(Equal(0))
			Expect(results[1].Episode).To(Equal(2))
		})

		It("does not reconnect after a shutdown", func() {
			cfg.Episodes = 2
			conn := &fakeConn{script: []reply{msg("***identified***"), msg("***shutdown***")}}
			dialer := &fakeDialer{conns: []*fakeConn{conn}}

			results, err := newSession(dialer).RunEpisodes(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(dialer.dials).To(Equal(1))
		})
	})

	Describe("UDPDialer", func() {
		It("talks to a datagram server end to end", func() {
			server, err := net.ListenPacket("udp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			defer server.Close()

			commands := make(chan string, 8)
			go func() {
				defer GinkgoRecover()
				buf := make([]byte, 1024)

				_ = server.SetReadDeadline(time.Now().Add(5 * time.Second))
				n, client, err := server.ReadFrom(buf)
				if err != nil {
					return
				}
				commands <- string(buf[:n])
				_, _ = server.WriteTo([]byte("***identified***"), client)

				for i := 0; i < 3; i++ {
					_, _ = server.WriteTo(telemetry(50, float64(i), 1).data, client)
					n, _, err := server.ReadFrom(buf)
					if err != nil {
						return
					}
					commands <- string(buf[:n])
				}
				_, _ = server.WriteTo([]byte("***shutdown***"), client)
			}()

			addr := server.LocalAddr().(*net.UDPAddr)
			cfg.Host = "127.0.0.1"
			cfg.Port = addr.Port
			cfg.Timeout = time.Second
			s := session.New(cfg, driver, session.WithSupervisor(sup))

			res, err := s.Run(context.Background())

			Expect(err).NotTo(HaveOccurred())
			Expect(res.State).To(Equal(session.Shutdown))
			Expect(res.Ticks).To(Equal(3))
			Expect(commands).To(Receive(HavePrefix("SCR(init ")))
			Expect(commands).To(Receive(HavePrefix("(accel ")))
		})

		It("times out with ErrTimeout", func() {
			server, err := net.ListenPacket("udp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			defer server.Close()

			conn, err := session.UDPDialer{}.Dial(context.Background(), server.LocalAddr().String())
			Expect(err).NotTo(HaveOccurred())
			defer conn.Close()

			_, err = conn.Receive(20 * time.Millisecond)
			Expect(err).To(MatchError(session.ErrTimeout))
			Expect(conn.Close()).To(Succeed())
		})
	})
})
