package process

import (
	"sync"

	"github.com/gregfurman/zproc/signal"
)

// FeatureProcess surfaces the live pid of a running child and lets a caller
// signal it directly via kill(2), independent of the process-wide signal
// bus.
type FeatureProcess struct {
	mu  sync.Mutex
	pid int
}

// NewFeatureProcess returns a feature ready to be passed to a Supervisor run.
func NewFeatureProcess() *FeatureProcess {
	return &FeatureProcess{pid: signal.NoHandle}
}

// OnLaunch implements ProcessHook.
func (f *FeatureProcess) OnLaunch(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pid = pid
}

// OnExit implements ProcessHook.
func (f *FeatureProcess) OnExit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pid = signal.NoHandle
}

// Pid returns the live child pid, or signal.NoHandle if no run is in flight.
func (f *FeatureProcess) Pid() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pid
}

// Stop sends SIGTERM to the live child. A no-op if no run is in flight.
func (f *FeatureProcess) Stop() error {
	return signal.Send(f.Pid(), signal.Terminate)
}

// Kill sends SIGKILL to the live child. A no-op if no run is in flight.
func (f *FeatureProcess) Kill() error {
	return signal.Send(f.Pid(), signal.Kill)
}
