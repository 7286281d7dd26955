package screensaver

import (
	"errors"
	"os"
	"sync"
)

// LaunchCall records one MockLauncher.Start invocation.
type LaunchCall struct {
	Path string
	Args []string
}

// MockLauncher is a Launcher for tests that starts no real processes.
type MockLauncher struct {
	// StartFunc allows tests to provide custom behavior
	StartFunc func(path string, args []string) (Process, error)

	// Calls records every Start in order
	Calls []LaunchCall

	// Processes holds every process handed out by the default behavior
	Processes []*MockProcess

	// IgnoreTerminate makes default processes keep running when terminated
	IgnoreTerminate bool

	// TerminateErr is returned by Terminate of default processes
	TerminateErr error

	nextPid int
}

// Start records the call and returns a mock process.
func (m *MockLauncher) Start(path string, args []string) (Process, error) {
	m.Calls = append(m.Calls, LaunchCall{Path: path, Args: append([]string(nil), args...)})
	if m.StartFunc != nil {
		return m.StartFunc(path, args)
	}

	m.nextPid++
	p := NewMockProcess(1000 + m.nextPid)
	p.IgnoreTerminate = m.IgnoreTerminate
	p.TerminateErr = m.TerminateErr
	m.Processes = append(m.Processes, p)
	return p, nil
}

// NewMockLauncher creates a mock launcher whose processes exit when
// terminated.
func NewMockLauncher() *MockLauncher {
	return &MockLauncher{}
}

// NewStuckMockLauncher creates a mock launcher whose processes ignore
// termination.
func NewStuckMockLauncher() *MockLauncher {
	return &MockLauncher{IgnoreTerminate: true}
}

// NewUnsignalableMockLauncher creates a mock launcher whose processes cannot
// be signalled.
func NewUnsignalableMockLauncher(errMsg string) *MockLauncher {
	return &MockLauncher{TerminateErr: errors.New(errMsg)}
}

// NewErrorMockLauncher creates a mock launcher that fails every start.
func NewErrorMockLauncher(errMsg string) *MockLauncher {
	return &MockLauncher{
		StartFunc: func(path string, args []string) (Process, error) {
			return nil, errors.New(errMsg)
		},
	}
}

// MockProcess is a Process for tests.
type MockProcess struct {
	pid  int
	done chan struct{}
	once sync.Once

	// IgnoreTerminate keeps the process running when terminated
	IgnoreTerminate bool

	// TerminateErr is returned by Terminate when set
	TerminateErr error

	// TerminateCount tracks how many times Terminate was called
	TerminateCount int
}

// NewMockProcess creates a running mock process.
func NewMockProcess(pid int) *MockProcess {
	return &MockProcess{pid: pid, done: make(chan struct{})}
}

// Pid returns the fake process id.
func (p *MockProcess) Pid() int { return p.pid }

// Done is closed when the process exits.
func (p *MockProcess) Done() <-chan struct{} { return p.done }

// Exit marks the process as finished.
func (p *MockProcess) Exit() {
	p.once.Do(func() { close(p.done) })
}

// Exited reports whether the process has finished.
func (p *MockProcess) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Terminate executes the mock behavior.
func (p *MockProcess) Terminate() error {
	p.TerminateCount++
	if p.Exited() {
		return os.ErrProcessDone
	}
	if p.TerminateErr != nil {
		return p.TerminateErr
	}
	if p.IgnoreTerminate {
		return nil
	}
	p.Exit()
	return nil
}
