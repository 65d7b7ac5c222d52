package browser

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	xvfbReadyTimeout = 5 * time.Second
	xvfbPollInterval = 50 * time.Millisecond
	xvfbStopTimeout  = 2 * time.Second
)

// x11SocketDir is where an X server creates its listening sockets.
var x11SocketDir = "/tmp/.X11-unix"

// displaySocket maps an X display name such as ":99" or ":99.0" to the
// server's Unix socket path.
func displaySocket(display string) (string, error) {
	_, num, ok := strings.Cut(display, ":")
	if !ok {
		return "", fmt.Errorf("display %q: missing ':'", display)
	}
	num, _, _ = strings.Cut(num, ".")
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 {
		return "", fmt.Errorf("display %q: bad number", display)
	}
	return fmt.Sprintf("%s/X%d", x11SocketDir, n), nil
}

// waitSocket polls until path exists, the process exits, or timeout.
func waitSocket(path string, exited <-chan error, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(xvfbPollInterval)
	defer tick.Stop()

	for {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		select {
		case err := <-exited:
			if err == nil {
				err = errors.New("exited")
			}
			return fmt.Errorf("exited before %s appeared: %w", path, err)
		case <-deadline.C:
			return fmt.Errorf("%s not ready after %s", path, timeout)
		case <-tick.C:
		}
	}
}

// startXvfb launches the virtual display used by headful mode and blocks
// until its socket accepts connections.
func (m *Manager) startXvfb() error {
	if m.xvfb != nil {
		return nil
	}

	display := m.cfg.XvfbDisplay
	sock, err := displaySocket(display)
	if err != nil {
		return err
	}
	if _, err := os.Stat(sock); err == nil {
		m.cfg.Logger.Warn("browser: x socket already present, display may be in use", "display", display, "socket", sock)
	}

	cmd := exec.Command("Xvfb", display, "-screen", "0", m.cfg.XvfbScreen, "-ac", "-nolisten", "tcp")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start xvfb: %w", err)
	}
	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	if err := waitSocket(sock, exited, xvfbReadyTimeout); err != nil {
		cmd.Process.Kill()
		return err
	}
	m.xvfb = cmd
	m.xvfbExited = exited

	m.cfg.Logger.Info("browser: xvfb ready",
		"display", display, "screen", m.cfg.XvfbScreen, "pid", cmd.Process.Pid)
	return nil
}

// stopXvfb asks Xvfb to terminate and kills it if it lingers.
func (m *Manager) stopXvfb() {
	if m.xvfb == nil {
		return
	}
	pid := m.xvfb.Process.Pid
	m.xvfb.Process.Signal(syscall.SIGTERM)
	select {
	case <-m.xvfbExited:
	case <-time.After(xvfbStopTimeout):
		m.xvfb.Process.Kill()
		<-m.xvfbExited
		m.cfg.Logger.Warn("browser: xvfb killed after stop timeout", "pid", pid)
	}
	m.cfg.Logger.Info("browser: xvfb stopped", "display", m.cfg.XvfbDisplay, "pid", pid)
	m.xvfb = nil
	m.xvfbExited = nil
}
