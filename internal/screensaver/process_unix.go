//go:build unix

package screensaver

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/mitchellh/go-ps"
)

// commLen is the length the kernel truncates executable names to.
const commLen = 15

type execLauncher struct{}

// NewLauncher returns a launcher that starts each program in its own process
// group with its standard streams on the null device.
func NewLauncher() Launcher {
	return execLauncher{}
}

func (execLauncher) Start(path string, args []string) (Process, error) {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
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

// Terminate sends SIGTERM to the process group.
func (p *execProcess) Terminate() error {
	select {
	case <-p.done:
		return os.ErrProcessDone
	default:
	}
	if err := syscall.Kill(-p.Pid(), syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return fmt.Errorf("failed to signal process group %d: %w", p.Pid(), err)
	}
	return nil
}

// killProcessesByName sends SIGTERM to every process running name.
func killProcessesByName(name string) error {
	pids, err := findProcessByName(name)
	if err != nil {
		return err
	}
	for _, pid := range pids {
		if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
			return fmt.Errorf("failed to signal %s (PID %d): %w", name, pid, err)
		}
	}
	return nil
}

// findProcessByName finds all processes with the given executable name.
func findProcessByName(name string) ([]int, error) {
	processes, err := ps.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to get process list: %w", err)
	}

	if len(name) > commLen {
		name = name[:commLen]
	}
	var pids []int
	for _, p := range processes {
		if p.Executable() == name {
			pids = append(pids, p.Pid())
		}
	}
	return pids, nil
}
