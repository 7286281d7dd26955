package screensaver

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultStopTimeout bounds how long Stop waits for a preview to exit.
const DefaultStopTimeout = 2 * time.Second

// Process is a started child process.
type Process interface {
	Pid() int
	// Terminate asks the process to exit. It returns os.ErrProcessDone when
	// the process is already gone.
	Terminate() error
	// Done is closed once the process has exited.
	Done() <-chan struct{}
}

// Launcher starts detached child processes.
type Launcher interface {
	Start(path string, args []string) (Process, error)
}

// PreviewOption configures a Preview.
type PreviewOption func(*Preview)

// WithLauncher replaces the process launcher.
func WithLauncher(l Launcher) PreviewOption {
	return func(p *Preview) {
		p.launcher = l
	}
}

// WithKillByName replaces the by-name kill used when a tracked handle
// cannot be signalled.
func WithKillByName(fn func(name string) error) PreviewOption {
	return func(p *Preview) {
		p.killByName = fn
	}
}

// WithStopTimeout sets how long Stop waits for each preview to exit.
func WithStopTimeout(d time.Duration) PreviewOption {
	return func(p *Preview) {
		p.timeout = d
	}
}

// WithPreviewLogger sets the logger.
func WithPreviewLogger(logger hclog.Logger) PreviewOption {
	return func(p *Preview) {
		p.logger = logger
	}
}

type trackedProcess struct {
	exec string
	proc Process
}

// Preview runs screensaver programs inside a preview surface. At most one
// preview runs at a time.
type Preview struct {
	launcher   Launcher
	killByName func(name string) error
	timeout    time.Duration
	running    []trackedProcess
	logger     hclog.Logger
}

// NewPreview creates a preview controller.
func NewPreview(opts ...PreviewOption) *Preview {
	p := &Preview{
		launcher:   NewLauncher(),
		killByName: killProcessesByName,
		timeout:    DefaultStopTimeout,
		logger:     hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start stops any running preview and launches exec drawing into the
// window winID.
func (p *Preview) Start(exec string, winID uint64) error {
	p.Stop()

	args := []string{"-window-id", strconv.FormatUint(winID, 10)}
	proc, err := p.launcher.Start(exec, args)
	if err != nil {
		return err
	}
	p.running = append(p.running, trackedProcess{exec: exec, proc: proc})
	p.logger.Debug("preview started", "exec", exec, "pid", proc.Pid(), "window", winID)
	return nil
}

// Stop terminates every tracked preview. Each is given the stop timeout to
// exit and is then considered gone regardless.
func (p *Preview) Stop() {
	for _, t := range p.running {
		err := t.proc.Terminate()
		switch {
		case err == nil:
			select {
			case <-t.proc.Done():
			case <-time.After(p.timeout):
				p.logger.Warn("preview did not exit in time", "exec", t.exec, "pid", t.proc.Pid())
			}
		case errors.Is(err, os.ErrProcessDone):
		default:
			name := filepath.Base(t.exec)
			p.logger.Debug("falling back to kill by name", "name", name, "error", err)
			if err := p.killByName(name); err != nil {
				p.logger.Warn("failed to stop preview", "name", name, "error", err)
			}
		}
	}
	p.running = nil
}

// Running returns the programs of the tracked previews.
func (p *Preview) Running() []string {
	out := make([]string, 0, len(p.running))
	for _, t := range p.running {
		out = append(out, t.exec)
	}
	return out
}

// Launch starts path detached without tracking it.
func (p *Preview) Launch(path string, args ...string) error {
	proc, err := p.launcher.Start(path, args)
	if err != nil {
		return err
	}
	p.logger.Debug("launched", "path", path, "pid", proc.Pid())
	return nil
}
