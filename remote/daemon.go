package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"
)

// Daemon process state.
type daemonState int

const (
	daemonStopped daemonState = iota
	daemonStarting
	daemonRunning
	daemonStopping
)

// ErrDaemonExited is returned by Start when the process exits before it
// becomes ready.
var ErrDaemonExited = errors.New("daemon exited during startup")

// Daemon manages a local codex-monitor daemon process.
type Daemon struct {
	cfg DaemonConfig

	mu      sync.RWMutex
	state   daemonState
	cmd     *exec.Cmd
	done    chan struct{} // Closed when process exits
	exitErr error
	binary  string
}

// NewDaemon creates a new daemon manager.
func NewDaemon(cfg DaemonConfig) *Daemon {
	return &Daemon{
		cfg:   cfg.WithDefaults(),
		state: daemonStopped,
	}
}

// Start launches the daemon and waits until it accepts connections or
// StartupTimeout passes.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid daemon config: %w", err)
	}

	d.mu.Lock()
	if d.state != daemonStopped {
		state := d.stateString()
		d.mu.Unlock()
		return fmt.Errorf("daemon already %s", state)
	}
	d.state = daemonStarting
	d.mu.Unlock()

	binary := d.cfg.Binary
	if binary == "" {
		var err error
		if binary, err = d.cfg.Locate(); err != nil {
			d.setState(daemonStopped)
			return err
		}
	}

	// The process outlives ctx; Stop ends it.
	cmd := exec.Command(binary, d.cfg.Args()...)
	if len(d.cfg.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range d.cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		d.setState(daemonStopped)
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		_ = stdout.Close()
		d.setState(daemonStopped)
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdout.Close()
		_ = stderr.Close()
		d.setState(daemonStopped)
		return fmt.Errorf("start daemon: %w", err)
	}

	var drained sync.WaitGroup
	drained.Add(2)
	go drain(&drained, "daemon stdout", stdout)
	go drain(&drained, "daemon stderr", stderr)

	d.mu.Lock()
	d.cmd = cmd
	d.binary = binary
	d.exitErr = nil
	d.done = make(chan struct{})
	d.mu.Unlock()

	go d.waitForExit(cmd, &drained)

	readyCtx, cancel := context.WithTimeout(ctx, d.cfg.StartupTimeout)
	defer cancel()
	if err := d.waitReady(readyCtx); err != nil {
		_ = d.Stop()
		return fmt.Errorf("wait for daemon: %w", err)
	}

	d.setState(daemonRunning)
	slog.Info("daemon started",
		slog.String("binary", binary),
		slog.String("listen", d.cfg.Listen),
		slog.Int("pid", cmd.Process.Pid))
	return nil
}

// waitReady polls the readiness probe until it succeeds, the process
// exits, or ctx ends.
func (d *Daemon) waitReady(ctx context.Context) error {
	done := d.Done()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if err := d.cfg.Ready(ctx, d.cfg.Listen); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			if exitErr := d.ExitError(); exitErr != nil {
				return fmt.Errorf("%w: %w", ErrDaemonExited, exitErr)
			}
			return ErrDaemonExited
		case <-ticker.C:
		}
	}
}

// Stop interrupts the daemon and kills it if it has not exited within
// StopTimeout.
func (d *Daemon) Stop() error {
	d.mu.Lock()
	if d.state == daemonStopped || d.state == daemonStopping {
		d.mu.Unlock()
		return nil
	}
	d.state = daemonStopping
	cmd, done := d.cmd, d.done
	d.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		if err := cmd.Process.Signal(os.Interrupt); err != nil {
			_ = cmd.Process.Kill()
		}
		select {
		case <-done:
		case <-time.After(d.cfg.StopTimeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}

	d.setState(daemonStopped)
	slog.Debug("daemon stopped")
	return nil
}

// IsRunning returns true if the daemon is running.
func (d *Daemon) IsRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state == daemonRunning
}

// Binary returns the executable the daemon was started from.
func (d *Daemon) Binary() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.binary
}

// Done returns a channel that's closed when the daemon process exits.
func (d *Daemon) Done() <-chan struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.done == nil {
		// Return a closed channel if never started
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return d.done
}

// ExitError returns the error from the daemon process exit, if any.
func (d *Daemon) ExitError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.exitErr
}

// waitForExit waits for the process to exit and captures the error.
func (d *Daemon) waitForExit(cmd *exec.Cmd, drained *sync.WaitGroup) {
	// Wait closes the pipes, so the drains finish first.
	drained.Wait()
	err := cmd.Wait()

	d.mu.Lock()
	d.exitErr = err
	done := d.done
	if d.state == daemonRunning {
		d.state = daemonStopped
		slog.Warn("daemon exited", slog.Any("error", err))
	}
	d.mu.Unlock()

	close(done)
}

// drain logs output lines at debug level.
func drain(wg *sync.WaitGroup, stream string, r io.Reader) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		slog.Debug(stream, slog.String("output", scanner.Text()))
	}
}

func (d *Daemon) setState(state daemonState) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
}

// stateString returns a human-readable state string. Callers hold mu.
func (d *Daemon) stateString() string {
	switch d.state {
	case daemonStopped:
		return "stopped"
	case daemonStarting:
		return "starting"
	case daemonRunning:
		return "running"
	case daemonStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

func dialReady(ctx context.Context, listen string) error {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", listen)
	if err != nil {
		return err
	}
	return conn.Close()
}
