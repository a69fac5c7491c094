package zproc

import (
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/Rican7/retry"
	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/gregfurman/zproc/process"
	"github.com/gregfurman/zproc/shared/logger"
	"github.com/gregfurman/zproc/signal"
)

// forkRetryAttempts bounds how many times Run retries a fork(2) that failed
// with EAGAIN (the kernel is transiently out of pids or the RLIMIT_NPROC for
// this user is momentarily exhausted by some other process tearing down).
const forkRetryAttempts = 5

// Supervisor owns an argument vector, an optional working directory and
// environment, and the single live pid of whichever child its current Run
// call launched. It is built once and reused across any number of
// sequential runs; Run is synchronous and the Supervisor is idle again the
// moment it returns.
type Supervisor struct {
	args    process.Arguments
	env     *process.Environment
	workDir string

	log *logger.SafeLogger

	mu      sync.Mutex
	running bool
	pid     int
}

// New builds a Supervisor around the given argument vector. argv[0] is both
// the executable to resolve via PATH and the name the child sees as its own
// argv[0].
func New(args process.Arguments) *Supervisor {
	runID := uuid.NewString()
	return &Supervisor{
		args: args,
		log:  logger.NewSilentLogger(runID),
		pid:  signal.NoHandle,
	}
}

// SetWorkDir sets the directory the child chdir's into before exec.
func (s *Supervisor) SetWorkDir(dir string) { s.workDir = dir }

// SetEnvironment sets the envp the child execs with. A nil Environment (the
// default) means the child inherits this process's environment.
func (s *Supervisor) SetEnvironment(env *process.Environment) { s.env = env }

// Logger returns the Supervisor's run-tagged logger, so a caller can raise
// its level to see pump and fork diagnostics.
func (s *Supervisor) Logger() *logger.SafeLogger { return s.log }

// Pid returns the live child pid, or signal.NoHandle between runs.
func (s *Supervisor) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// Option is one stream or feature parameter to Run. Options are applied in
// order to a runConfig; conflicting bindings surface as ErrConflictingBinding
// from Run before anything is forked.
type Option func(*runConfig) error

type binding struct {
	producer process.Producer
	consumer process.Consumer
}

type runConfig struct {
	bindings map[process.Handle]*binding
	order    []process.Handle
	features []process.Feature
}

func newRunConfig() *runConfig {
	return &runConfig{bindings: make(map[process.Handle]*binding)}
}

func (rc *runConfig) bindingFor(handle process.Handle) *binding {
	b, ok := rc.bindings[handle]
	if !ok {
		b = &binding{}
		rc.bindings[handle] = b
		rc.order = append(rc.order, handle)
	}
	return b
}

// Close closes handle in the child; it is a binding with neither a producer
// nor a consumer.
func Close(handle process.Handle) Option {
	return func(rc *runConfig) error {
		if _, exists := rc.bindings[handle]; exists {
			return errors.Wrapf(ErrConflictingBinding, "handle %d bound more than once", handle)
		}
		rc.bindingFor(handle)
		return nil
	}
}

// Produce binds p as the data source for handle.
func Produce(p process.Producer, handle process.Handle) Option {
	return func(rc *runConfig) error {
		b := rc.bindingFor(handle)
		if b.producer != nil {
			return errors.Wrapf(ErrConflictingBinding, "duplicate producer for handle %d", handle)
		}
		b.producer = p
		return nil
	}
}

// Consume binds c as the data sink for handle.
func Consume(c process.Consumer, handle process.Handle) Option {
	return func(rc *runConfig) error {
		b := rc.bindingFor(handle)
		if b.consumer != nil {
			return errors.Wrapf(ErrConflictingBinding, "duplicate consumer for handle %d", handle)
		}
		b.consumer = c
		return nil
	}
}

// ProduceConsume binds both p and c to handle, realized as a bidirectional
// socketpair.
func ProduceConsume(p process.Producer, c process.Consumer, handle process.Handle) Option {
	return func(rc *runConfig) error {
		if err := Produce(p, handle)(rc); err != nil {
			return err
		}
		return Consume(c, handle)(rc)
	}
}

// With attaches a Feature to the run. The supervisor calls whichever of
// ProcessHook/TimeHook the feature implements.
func With(f process.Feature) Option {
	return func(rc *runConfig) error {
		rc.features = append(rc.features, f)
		return nil
	}
}

// Run launches one child and blocks until it exits, returning its exit
// status (0..127, or 128+signum for a signal termination). The Supervisor
// is reusable for another Run once this one returns.
func (s *Supervisor) Run(opts ...Option) (int, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return 0, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.pid = signal.NoHandle
		s.mu.Unlock()
	}()

	if s.args.Empty() {
		return 0, ErrEmptyArguments
	}

	rc := newRunConfig()
	for _, opt := range opts {
		if err := opt(rc); err != nil {
			return 0, err
		}
	}

	resolvedPath, err := exec.LookPath(s.args.Argv()[0])
	if err != nil {
		return 0, errors.Wrapf(err, "resolve %q", s.args.Argv()[0])
	}

	realized, err := realizeBindings(rc)
	if err != nil {
		return 0, err
	}
	defer realized.closeParentSide()

	var timingCell *process.TimingRecord
	var sharedTiming *SharedMemory[process.TimingRecord]
	for _, f := range rc.features {
		if _, ok := f.(process.TimeHook); ok {
			sharedTiming, err = NewSharedMemory[process.TimingRecord]()
			if err != nil {
				return 0, err
			}
			timingCell = sharedTiming.Data()
			break
		}
	}
	if sharedTiming != nil {
		defer sharedTiming.Close()
	}

	// A nil Environment means the child inherits this process's environment
	// (execvp semantics), not an empty one (execve with an empty envp).
	envp := s.env.Envp()
	if s.env == nil {
		envp = os.Environ()
	}

	s.log.Debug("forking child", nil)

	// syscall.ForkLock serializes against any goroutine creating a file
	// descriptor without O_CLOEXEC around the fork, the same discipline
	// os/exec itself relies on. The fork itself is retried a bounded number
	// of times on EAGAIN: fork(2) can transiently fail this way under pid or
	// RLIMIT_NPROC pressure from unrelated processes, with nothing wrong on
	// our side to fix by giving up immediately.
	var pid uintptr
	var forkErrno syscall.Errno
	err = retry.Retry(func(attempt uint) error {
		syscall.ForkLock.Lock()
		pid, _, forkErrno = syscall.RawSyscall(syscall.SYS_FORK, 0, 0, 0)
		if forkErrno != 0 {
			syscall.ForkLock.Unlock()
			if forkErrno == syscall.EAGAIN {
				return forkErrno
			}
			return nil
		}

		if pid == 0 {
			runChild(resolvedPath, s.args.Argv(), envp, s.workDir, realized.childFDs, realized.keepFDs, timingCell)
			unix.Exit(1)
		}
		syscall.ForkLock.Unlock()
		return nil
	}, strategy.Limit(forkRetryAttempts), strategy.Backoff(backoff.BinaryExponential(time.Millisecond)))
	if err != nil {
		return 0, errors.Wrap(err, "fork")
	}
	if forkErrno != 0 {
		return 0, errors.Wrap(forkErrno, "fork")
	}

	realized.closeChildSide()

	s.mu.Lock()
	s.pid = int(pid)
	s.mu.Unlock()

	for _, f := range rc.features {
		if hook, ok := f.(process.ProcessHook); ok {
			hook.OnLaunch(int(pid))
		}
		if hook, ok := f.(process.TimeHook); ok && timingCell != nil {
			hook.AttachShared(timingCell)
		}
	}

	status, err := runPump(realized.entries, int(pid))

	for _, f := range rc.features {
		if hook, ok := f.(process.TimeHook); ok {
			hook.DetachShared()
		}
		if hook, ok := f.(process.ProcessHook); ok {
			hook.OnExit()
		}
	}

	s.mu.Lock()
	s.pid = signal.NoHandle
	s.mu.Unlock()

	if err != nil {
		return 0, err
	}

	s.log.Debug("child reaped", nil)
	return status, nil
}
