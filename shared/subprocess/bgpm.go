// Package subprocess is a small facade over a zproc.Supervisor, shaped
// like a classic "background process manager": Start, Signal, Stop, Wait.
// It exists for callers that want process lifecycle management without
// touching the Supervisor's stream-binding API directly.
package subprocess

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/gregfurman/zproc"
	"github.com/gregfurman/zproc/process"
	"github.com/gregfurman/zproc/signal"
)

// numberToType maps a raw OS signal number (as the caller might already
// have from a config file or CLI flag) back to our abstract Type.
var numberToType = map[int]signal.Type{
	1:  signal.HangUp,
	2:  signal.Interrupt,
	3:  signal.Quit,
	4:  signal.Ill,
	5:  signal.Trap,
	6:  signal.Abort,
	7:  signal.BusError,
	8:  signal.FloatingPointException,
	9:  signal.Kill,
	10: signal.User1,
	11: signal.SegmentationViolation,
	12: signal.User2,
	13: signal.Pipe,
	14: signal.Alarm,
	15: signal.Terminate,
	16: signal.StackFault,
	17: signal.Child,
}

// Process manages the lifecycle of one external command: where its output
// goes, how it is signalled, and how a caller waits for it to finish.
type Process struct {
	sup     *zproc.Supervisor
	feature *process.FeatureProcess
	outFile string
	inFile  string

	mu     sync.Mutex
	done   chan struct{}
	status int
	runErr error
}

// NewProcess builds a Process ready to Start. outfile/infile may be empty,
// meaning stdout/stdin are closed in the child rather than wired anywhere.
func NewProcess(name string, args []string, outfile, infile string) (*Process, error) {
	argv := append([]string{name}, args...)
	return &Process{
		sup:     zproc.New(process.NewArguments(argv...)),
		feature: process.NewFeatureProcess(),
		outFile: outfile,
		inFile:  infile,
	}, nil
}

// Start launches the command and returns immediately; use Wait to block
// for its exit status.
func (p *Process) Start() error {
	opts := []zproc.Option{zproc.With(p.feature)}

	if p.outFile != "" {
		out, err := process.OpenFile(p.outFile, false, true, true)
		if err != nil {
			return errors.Wrap(err, "open out file")
		}
		opts = append(opts, zproc.Consume(process.NewFileConsumer(out), process.Stdout))
	}

	if p.inFile != "" {
		in, err := process.OpenFile(p.inFile, true, false, false)
		if err != nil {
			return errors.Wrap(err, "open in file")
		}
		opts = append(opts, zproc.Produce(process.NewFileProducer(in), process.Stdin))
	}

	p.mu.Lock()
	p.done = make(chan struct{})
	p.mu.Unlock()

	go func() {
		status, err := p.sup.Run(opts...)
		p.mu.Lock()
		p.status, p.runErr = status, err
		p.mu.Unlock()
		close(p.done)
	}()

	return nil
}

// Reload sends SIGHUP, the conventional "reread configuration" signal.
func (p *Process) Reload() error {
	return signal.Send(p.feature.Pid(), signal.HangUp)
}

// Signal sends the OS signal numbered sig to the running process.
func (p *Process) Signal(sig int) error {
	t, ok := numberToType[sig]
	if !ok {
		return fmt.Errorf("subprocess: unsupported signal number %d", sig)
	}
	return signal.Send(p.feature.Pid(), t)
}

// Stop sends SIGTERM.
func (p *Process) Stop() error {
	return p.feature.Stop()
}

// Wait blocks until the process exits, returning its status. A non-zero
// status is also reported as a non-nil error, matching shell conventions.
func (p *Process) Wait() (int, error) {
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.runErr != nil {
		return p.status, p.runErr
	}
	if p.status != 0 {
		return p.status, fmt.Errorf("subprocess: exit status %d", p.status)
	}
	return p.status, nil
}
