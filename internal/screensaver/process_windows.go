//go:build windows

package screensaver

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mitchellh/go-ps"
)

type execLauncher struct{}

// NewLauncher returns a launcher that starts programs directly.
func NewLauncher() Launcher {
	return execLauncher{}
}

func (execLauncher) Start(path string, args []string) (Process, error) {
	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", path, err)
	}
	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Done() <-chan struct{} { return p.done }

func (p *execProcess) Terminate() error {
	select {
	case <-p.done:
		return os.ErrProcessDone
	default:
	}
	return p.cmd.Process.Kill()
}

func killProcessesByName(name string) error {
	processes, err := ps.Processes()
	if err != nil {
		return fmt.Errorf("failed to get process list: %w", err)
	}
	for _, p := range processes {
		if !strings.EqualFold(strings.TrimSuffix(p.Executable(), ".exe"), name) {
			continue
		}
		proc, err := os.FindProcess(p.Pid())
		if err != nil {
			continue
		}
		if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("failed to kill %s (PID %d): %w", name, p.Pid(), err)
		}
	}
	return nil
}
