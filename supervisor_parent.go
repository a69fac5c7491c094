package zproc

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/gregfurman/zproc/process"
)

// pumpEntry is one parent-side fd under the pump's management, alongside
// whichever of producer/consumer is still live for it. Both nil means the
// entry is retired; its fd is closed and it drops out of the poll set.
type pumpEntry struct {
	fd       process.FileDescriptor
	producer process.Producer
	consumer process.Consumer
}

func (e *pumpEntry) retired() bool {
	return e.producer == nil && e.consumer == nil
}

// runPump drives the parent side of one child's lifetime: poll, service,
// reap. It returns once the child has been reaped, decoding its exit
// status under the 128+signum shell convention.
func runPump(entries []*pumpEntry, pid int) (int, error) {
	for {
		pollFDs := make([]unix.PollFd, 0, len(entries))
		live := make([]*pumpEntry, 0, len(entries))

		for _, e := range entries {
			if !e.fd.Valid() || e.retired() {
				continue
			}

			var events int16
			if e.producer != nil {
				events |= unix.POLLOUT
			}
			if e.consumer != nil {
				events |= unix.POLLIN
			}

			pollFDs = append(pollFDs, unix.PollFd{Fd: int32(e.fd.Handle()), Events: events})
			live = append(live, e)
		}

		anyWork := false

		if len(pollFDs) > 0 {
			if err := pollRetry(pollFDs); err != nil {
				return 0, errors.Wrap(err, "poll")
			}

			for i := range pollFDs {
				e := live[i]
				revents := pollFDs[i].Revents

				if revents&unix.POLLOUT != 0 && e.producer != nil {
					n := e.producer.Produce(e.fd)
					if n == process.NPos {
						e.producer = nil
					} else if n > 0 {
						anyWork = true
					}
				}

				if revents&(unix.POLLIN|unix.POLLHUP) != 0 && e.consumer != nil {
					if e.consumer.Consume(e.fd) {
						anyWork = true
					} else {
						e.consumer = nil
					}
				}

				if e.retired() {
					e.fd.Close()
				}
			}
		}

		if anyWork {
			continue
		}

		status, done, err := reap(pid)
		if err != nil {
			return 0, errors.Wrap(err, "wait4")
		}
		if done {
			return status, nil
		}
	}
}

// pollRetry runs poll(2) with an infinite timeout, transparently retrying
// on EINTR.
func pollRetry(fds []unix.PollFd) error {
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

// reap waits for pid to change state, retrying on EINTR, and decodes a
// terminal status. done is false for a non-terminal wake, meaning the
// caller should wait again.
func reap(pid int) (status int, done bool, err error) {
	for {
		var ws unix.WaitStatus
		_, err := unix.Wait4(pid, &ws, 0, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, false, err
		}

		switch {
		case ws.Exited():
			return ws.ExitStatus(), true, nil
		case ws.Signaled():
			return 128 + int(ws.Signal()), true, nil
		default:
			return 0, false, nil
		}
	}
}
