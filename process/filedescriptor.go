package process

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/gregfurman/zproc/shared/eagain"
)

// Handle is a child-side descriptor number, e.g. Stdin, Stdout, Stderr, or
// any other fd number a bound producer/consumer is attached to.
type Handle = int

// Well-known handles.
const (
	Stdin    Handle = 0
	Stdout   Handle = 1
	Stderr   Handle = 2
	NoHandle Handle = -1
)

// NPos is the sentinel returned by Read/Write on a terminal error, the Go
// stand-in for SIZE_MAX.
const NPos = ^uint64(0)

// FileDescriptor owns a single OS descriptor. The zero value holds
// NoHandle and is safe to Close repeatedly. FileDescriptor is not safe for
// concurrent use; ownership transfers by assignment the way a move would in
// the original, so callers must stop using a FileDescriptor once it has been
// passed elsewhere or Closed.
type FileDescriptor struct {
	fd Handle
}

// New wraps an already-open raw descriptor.
func New(fd Handle) FileDescriptor {
	return FileDescriptor{fd: fd}
}

// Valid reports whether the handle holds an open descriptor.
func (f FileDescriptor) Valid() bool {
	return f.fd != NoHandle
}

// Handle inspects the raw descriptor number without releasing ownership.
func (f FileDescriptor) Handle() Handle {
	return f.fd
}

// Release relinquishes ownership, returning the raw descriptor and resetting
// the receiver to NoHandle so a later Close is a no-op.
func (f *FileDescriptor) Release() Handle {
	fd := f.fd
	f.fd = NoHandle
	return fd
}

// Close closes the descriptor. Idempotent when already NoHandle.
func (f *FileDescriptor) Close() error {
	if f.fd == NoHandle {
		return nil
	}
	fd := f.fd
	f.fd = NoHandle
	return retryEINTR(func() error { return unix.Close(fd) })
}

// SetBlocking clears (true) or sets (false) O_NONBLOCK on the descriptor.
func (f FileDescriptor) SetBlocking(blocking bool) error {
	if !f.Valid() {
		return errors.New("SetBlocking on an empty FileDescriptor")
	}

	var flags int
	var err error
	err = retryEINTR(func() error {
		var e error
		flags, e = unix.FcntlInt(uintptr(f.fd), unix.F_GETFL, 0)
		return e
	})
	if err != nil {
		return errors.Wrap(err, "fcntl(F_GETFL)")
	}

	if blocking {
		flags &^= unix.O_NONBLOCK
	} else {
		flags |= unix.O_NONBLOCK
	}

	return retryEINTR(func() error {
		_, e := unix.FcntlInt(uintptr(f.fd), unix.F_SETFL, flags)
		return e
	})
}

// GetFileSize fstats the descriptor and returns its size.
func (f FileDescriptor) GetFileSize() (uint64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		return 0, errors.Wrap(err, "fstat")
	}
	return uint64(st.Size), nil
}

type rawFD Handle

func (r rawFD) Read(p []byte) (int, error)  { return unix.Read(int(r), p) }
func (r rawFD) Write(p []byte) (int, error) { return unix.Write(int(r), p) }

// Read transfers up to len(p) bytes into p, transparently retrying EAGAIN
// and EINTR. It returns the number of bytes transferred, or NPos on a
// terminal error (end of file is a plain 0, nil error, per POSIX read()).
func (f FileDescriptor) Read(p []byte) uint64 {
	r := eagain.Reader{Reader: rawFD(f.fd)}
	n, err := r.Read(p)
	if err != nil && err != io.EOF {
		return NPos
	}
	return uint64(n)
}

// Write transfers len(p) bytes from p, transparently retrying EAGAIN and
// EINTR. It returns the number of bytes transferred, or NPos on a terminal
// error.
func (f FileDescriptor) Write(p []byte) uint64 {
	w := eagain.Writer{Writer: rawFD(f.fd)}
	n, err := w.Write(p)
	if err != nil {
		return NPos
	}
	return uint64(n)
}

// OpenUnidirectional returns (readEnd, writeEnd) of a pipe.
func OpenUnidirectional() (FileDescriptor, FileDescriptor, error) {
	var fds [2]int
	if err := retryEINTR(func() error { return unix.Pipe2(fds[:], 0) }); err != nil {
		return FileDescriptor{}, FileDescriptor{}, errors.Wrap(err, "pipe2")
	}
	return FileDescriptor{fd: fds[0]}, FileDescriptor{fd: fds[1]}, nil
}

// OpenBidirectional returns (endA, endB) of a UNIX-domain stream socketpair.
func OpenBidirectional() (FileDescriptor, FileDescriptor, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return FileDescriptor{}, FileDescriptor{}, errors.Wrap(err, "socketpair")
	}
	return FileDescriptor{fd: fds[0]}, FileDescriptor{fd: fds[1]}, nil
}

// OpenFile opens path according to the requested direction: neither read nor
// write yields an empty handle; read-only is O_RDONLY; write-only is
// O_WRONLY|O_CREAT; both is O_RDWR|O_CREAT; writing truncates when
// doOverwrite, else appends. Mode 0644.
func OpenFile(path string, isRead, isWrite, doOverwrite bool) (FileDescriptor, error) {
	if !isRead && !isWrite {
		return FileDescriptor{fd: NoHandle}, nil
	}

	var flags int
	switch {
	case isRead && !isWrite:
		flags = unix.O_RDONLY
	case !isRead && isWrite:
		flags = unix.O_WRONLY | unix.O_CREAT
	default:
		flags = unix.O_RDWR | unix.O_CREAT
	}

	if isWrite {
		if doOverwrite {
			flags |= unix.O_TRUNC
		} else {
			flags |= unix.O_APPEND
		}
	}

	var fd int
	err := retryEINTR(func() error {
		var e error
		fd, e = unix.Open(path, flags, 0644)
		return e
	})
	if err != nil {
		return FileDescriptor{}, errors.Wrapf(err, "open %q", path)
	}

	return FileDescriptor{fd: fd}, nil
}

// retryEINTR runs op until it returns something other than EINTR.
func retryEINTR(op func() error) error {
	for {
		err := op()
		if err == unix.EINTR {
			continue
		}
		return err
	}
}
