package engine

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	supMaxFastFails = 5
	supFastFailSec  = 5.0
	supMaxBackoff   = 30 * time.Second
	supBackoffReset = 30 * time.Second // reset backoff if the process ran this long
	supTermTimeout  = 3 * time.Second
)

// supervisor keeps one player subprocess alive with exponential-backoff
// restarts. It gives up after repeated fast failures or a missing binary.
type supervisor struct {
	name     string
	buildCmd func() *exec.Cmd

	mu        sync.Mutex
	pid       int
	backoff   time.Duration
	failCount int
	stopCh    chan struct{}
	doneCh    chan struct{}
	running   bool
}

func newSupervisor(name string, buildCmd func() *exec.Cmd) *supervisor {
	return &supervisor{
		name:     name,
		buildCmd: buildCmd,
		backoff:  500 * time.Millisecond,
	}
}

// Start launches the subprocess and the supervision goroutine. Returns
// immediately; safe to call when already running.
func (s *supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.failCount = 0
	s.backoff = 500 * time.Millisecond
	s.running = true
	go s.supervise(ctx)
	return nil
}

// Stop terminates the subprocess and waits for supervision to end.
func (s *supervisor) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
	case <-time.After(10 * time.Second):
		slog.Warn("supervisor: stop timed out", "name", s.name)
	}
	return nil
}

func (s *supervisor) supervise(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.pid = 0
		doneCh := s.doneCh
		s.mu.Unlock()
		close(doneCh)
	}()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.mu.Lock()
		if s.failCount >= supMaxFastFails {
			slog.Error("supervisor: giving up after repeated fast failures", "name", s.name, "fails", s.failCount)
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		cmd := s.buildCmd()
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

		start := time.Now()
		if err := cmd.Start(); err != nil {
			if isBinaryMissing(err) {
				slog.Error("supervisor: binary not found, giving up", "name", s.name, "cmd", cmd.Path, "err", err)
				return
			}
			slog.Error("supervisor: failed to start process", "name", s.name, "err", err)
			s.bumpBackoff()
			s.sleepOrStop(ctx)
			continue
		}

		pid := cmd.Process.Pid
		s.mu.Lock()
		s.pid = pid
		s.mu.Unlock()
		slog.Info("supervisor: process running", "name", s.name, "pid", pid)

		exitCh := make(chan error, 1)
		go func() { exitCh <- cmd.Wait() }()

		select {
		case err := <-exitCh:
			elapsed := time.Since(start)
			slog.Info("supervisor: process exited", "name", s.name, "pid", pid, "elapsed", elapsed, "err", err)
			s.mu.Lock()
			s.pid = 0
			switch {
			case elapsed >= supBackoffReset:
				s.failCount = 0
				s.backoff = 500 * time.Millisecond
			case elapsed.Seconds() < supFastFailSec:
				s.failCount++
				s.backoff = min(s.backoff*2, supMaxBackoff)
			default:
				s.failCount = 0
			}
			s.mu.Unlock()
			s.sleepOrStop(ctx)
		case <-s.stopCh:
			killGroup(pid)
			<-exitCh
			return
		case <-ctx.Done():
			killGroup(pid)
			<-exitCh
			return
		}
	}
}

func (s *supervisor) bumpBackoff() {
	s.mu.Lock()
	s.failCount++
	s.backoff = min(s.backoff*2, supMaxBackoff)
	s.mu.Unlock()
}

func (s *supervisor) sleepOrStop(ctx context.Context) {
	s.mu.Lock()
	d := s.backoff
	s.mu.Unlock()
	select {
	case <-time.After(d):
	case <-s.stopCh:
	case <-ctx.Done():
	}
}

// killGroup sends SIGTERM to the process group and escalates to SIGKILL if
// it does not die within supTermTimeout.
func killGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGTERM)

	deadline := time.Now().Add(supTermTimeout)
	for time.Now().Before(deadline) {
		if syscall.Kill(-pid, 0) != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	slog.Warn("supervisor: SIGTERM timed out, sending SIGKILL", "pid", pid)
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

func isBinaryMissing(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "no such file or directory")
}
