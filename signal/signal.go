// Package signal maps a portable set of signal types to their OS numbers and
// provides the Send() façade over kill(2). It has no dependency on the
// process or supervisor packages so that both can use it without an import
// cycle.
package signal

import (
	"os"

	"golang.org/x/sys/unix"
)

// Type is one of the sixteen signal types this library recognizes.
type Type int

// The recognized signal types, plus Kill (for Send; a bus callback
// installed for it never runs, since SIGKILL cannot be caught).
const (
	HangUp Type = iota
	Interrupt
	Quit
	Ill
	Trap
	Abort
	BusError
	FloatingPointException
	SegmentationViolation
	User1
	User2
	Pipe
	Alarm
	StackFault
	Terminate
	Child
	Kill
)

var names = map[Type]string{
	HangUp:                  "hangup",
	Interrupt:               "interrupt",
	Quit:                    "quit",
	Ill:                     "ill",
	Trap:                    "trap",
	Abort:                   "abort",
	BusError:                "bus-error",
	FloatingPointException:  "floating-point-exception",
	SegmentationViolation:   "segmentation-violation",
	User1:                   "user1",
	User2:                   "user2",
	Pipe:                    "pipe",
	Alarm:                   "alarm",
	StackFault:              "stack-fault",
	Terminate:               "terminate",
	Child:                   "child",
	Kill:                    "kill",
}

// String implements fmt.Stringer.
func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "unknown"
}

var osSignals = map[Type]unix.Signal{
	HangUp:                  unix.SIGHUP,
	Interrupt:               unix.SIGINT,
	Quit:                    unix.SIGQUIT,
	Ill:                     unix.SIGILL,
	Trap:                    unix.SIGTRAP,
	Abort:                   unix.SIGABRT,
	BusError:                unix.SIGBUS,
	FloatingPointException:  unix.SIGFPE,
	SegmentationViolation:   unix.SIGSEGV,
	User1:                   unix.SIGUSR1,
	User2:                   unix.SIGUSR2,
	Pipe:                    unix.SIGPIPE,
	Alarm:                   unix.SIGALRM,
	StackFault:              unix.SIGSTKFLT,
	Terminate:               unix.SIGTERM,
	Child:                   unix.SIGCHLD,
	Kill:                    unix.SIGKILL,
}

// Number returns the OS signal number for t, and false for an unknown type.
func (t Type) Number() (unix.Signal, bool) {
	n, ok := osSignals[t]
	return n, ok
}

// OSSignal returns the os.Signal this type corresponds to, for use with
// os/signal.Notify.
func (t Type) OSSignal() (os.Signal, bool) {
	n, ok := osSignals[t]
	if !ok {
		return nil, false
	}
	return n, true
}

// NoHandle is the sentinel pid meaning "no live process".
const NoHandle = -1

// Send delivers the OS signal for t to pid via kill(2). A NoHandle pid is a
// no-op: there is no process to signal.
func Send(pid int, t Type) error {
	if pid == NoHandle {
		return nil
	}

	n, ok := t.Number()
	if !ok {
		return nil
	}

	return unix.Kill(pid, n)
}
