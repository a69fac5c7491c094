//go:build linux

// Package eagain wraps [io.Reader] and [io.Writer] implementations that
// transparently retry on EAGAIN and EINTR, the two transient syscall errors
// the process-supervision engine is required to absorb on every blocking
// read or write.
package eagain

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Reader retries the wrapped [io.Reader] when it reports EAGAIN or EINTR.
type Reader struct {
	io.Reader
}

// Read implements [io.Reader].
func (r Reader) Read(p []byte) (int, error) {
	for {
		n, err := r.Reader.Read(p)
		if !isRetryable(err) {
			return n, err
		}
	}
}

// Writer retries the wrapped [io.Writer] when it reports EAGAIN or EINTR.
type Writer struct {
	io.Writer
}

// Write implements [io.Writer].
func (w Writer) Write(p []byte) (int, error) {
	for {
		n, err := w.Writer.Write(p)
		if !isRetryable(err) {
			return n, err
		}
	}
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno == unix.EAGAIN || errno == unix.EINTR
	}

	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Err == unix.EAGAIN || sysErr.Err == unix.EINTR
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err == unix.EAGAIN || pathErr.Err == unix.EINTR
	}

	return false
}
