package process

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Daemon represents an external process supervised by the controller.
type Daemon interface {
	Name() string
	Command() (bin string, args []string)
	ReadyCheck() ReadyProbe
	Healthy(ctx context.Context) bool
}

type ReadyProbe struct {
	Check    func(ctx context.Context) bool
	Interval time.Duration
	Timeout  time.Duration
}

// Supervisor runs a single daemon as a child process, waits for it to become
// ready, and restarts it when it stops answering health checks.
type Supervisor struct {
	mu     sync.Mutex
	daemon Daemon
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

func NewSupervisor(d Daemon) *Supervisor {
	return &Supervisor{daemon: d}
}

// Start launches the daemon and blocks until its ready probe passes.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx)
}

func (s *Supervisor) startLocked(ctx context.Context) error {
	bin, args := s.daemon.Command()
	// Use a dedicated context so the child is not killed by parent context
	// cancellation; Stop handles graceful shutdown explicitly.
	dCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	cmd := exec.CommandContext(dCtx, bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	s.cmd = cmd

	log.Info().Str("daemon", s.daemon.Name()).Str("bin", bin).Msg("starting daemon")

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start process: %w", err)
	}

	probe := s.daemon.ReadyCheck()
	deadline := time.Now().Add(probe.Timeout)
	for time.Now().Before(deadline) {
		if probe.Check(ctx) {
			log.Info().Str("daemon", s.daemon.Name()).Msg("daemon ready")
			return nil
		}
		time.Sleep(probe.Interval)
	}

	return fmt.Errorf("daemon %s not ready after %s", s.daemon.Name(), probe.Timeout)
}

const stopGracePeriod = 5 * time.Second

// Stop sends SIGTERM and kills the process if it has not exited within the
// grace period.
func (s *Supervisor) Stop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.cmd.Process == nil {
		return nil
	}

	log.Info().Str("daemon", s.daemon.Name()).Msg("stopping daemon")

	_ = s.cmd.Process.Signal(os.Interrupt)

	done := make(chan struct{})
	go func() {
		_ = s.cmd.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(stopGracePeriod):
		_ = s.cmd.Process.Kill()
	}

	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// Watch monitors the daemon and restarts it when unhealthy.
func (s *Supervisor) Watch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
			s.checkAndRestart(ctx)
		}
	}
}

func (s *Supervisor) checkAndRestart(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd == nil || s.cmd.Process == nil {
		return
	}
	if s.daemon.Healthy(ctx) {
		return
	}

	log.Warn().Str("daemon", s.daemon.Name()).Msg("daemon unhealthy, restarting")
	if s.cancel != nil {
		s.cancel()
	}
	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()

	if err := s.startLocked(ctx); err != nil {
		log.Error().Err(err).Str("daemon", s.daemon.Name()).Msg("restart failed")
	}
}
