package zproc

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// SharedMemory is an anonymous MAP_SHARED region sized for exactly one
// value of T. Mapped before fork, it is inherited by every descendant
// process created afterwards, giving the timing wrapper a channel back to
// the parent that needs no pipe, no fd passing and no re-exec.
type SharedMemory[T any] struct {
	region []byte
}

// NewSharedMemory allocates and zeroes a shared cell for one T.
func NewSharedMemory[T any]() (*SharedMemory[T], error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		size = 1
	}

	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrap(err, "Map shared memory cell")
	}

	return &SharedMemory[T]{region: region}, nil
}

// Data returns a pointer into the mapped region, valid in this process and
// in any process forked after the mapping was created. The pointer becomes
// invalid once Close runs.
func (s *SharedMemory[T]) Data() *T {
	return (*T)(unsafe.Pointer(&s.region[0]))
}

// Close unmaps the region. Idempotent: a second call finds the region
// already released and returns nil.
func (s *SharedMemory[T]) Close() error {
	if s.region == nil {
		return nil
	}

	err := unix.Munmap(s.region)
	s.region = nil
	if err != nil {
		return errors.Wrap(err, "Unmap shared memory cell")
	}

	return nil
}
