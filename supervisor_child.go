package zproc

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gregfurman/zproc/process"
)

// childDirent mirrors the fixed linux_dirent64 layout Getdents fills in,
// just enough to read the inode and record length; the name bytes follow
// immediately after this header.
type childDirent struct {
	ino    uint64
	off    int64
	reclen uint16
	typ    uint8
}

const direntBufSize = 4096

// direntHeaderSize is sizeof(linux_dirent64) up to but excluding the
// variable-length name, per the kernel ABI. It is hardcoded rather than
// taken from unsafe.Sizeof(childDirent{}), which would include Go's
// trailing struct padding and misplace the name offset.
const direntHeaderSize = 19

// procSelfFDPath is the null-terminated "/proc/self/fd" path, built once at
// package init so the post-fork open below never calls BytePtrFromString —
// a heap allocation the single-threaded child must not risk (see runChild).
var procSelfFDPath = [...]byte{'/', 'p', 'r', 'o', 'c', '/', 's', 'e', 'l', 'f', '/', 'f', 'd', 0}

// runChild executes everything between the raw fork and exec. Every step is
// a direct syscall and every buffer it touches (childFDs, keepFDs,
// procSelfFDPath, the getdents buffer) was allocated before the fork that
// reached here: the forked process is single-threaded, and if some other M
// held the Go runtime's allocator or GC lock at the instant of fork, this
// process inherits that lock held forever — any allocation here would hang
// forever rather than panic or error.
func runChild(resolvedPath string, argv []string, envp []string, workDir string, childFDs map[process.Handle]int, keepFDs map[int]struct{}, timingCell *process.TimingRecord) {
	unix.Prctl(unix.PR_SET_PDEATHSIG, uintptr(unix.SIGTERM), 0, 0, 0)

	for handle, fd := range childFDs {
		unix.Close(handle)
		if fd == process.NoHandle {
			continue
		}
		for {
			err := unix.Dup2(fd, handle)
			if err == unix.EINTR {
				continue
			}
			break
		}
	}

	sweepLeakedFDs(keepFDs)

	if workDir != "" {
		if errno := chdirRaw(workDir); errno != 0 {
			fatalChild("chdir: " + errno.Error())
		}
	}

	if timingCell != nil {
		runTimingWrapper(resolvedPath, argv, envp, timingCell)
		return
	}

	execOrDie(resolvedPath, argv, envp)
}

// openProcSelfFD opens /proc/self/fd via a raw openat(AT_FDCWD, ...) against
// the package-level procSelfFDPath, avoiding the string-to-*byte conversion
// unix.Open would perform on every call.
func openProcSelfFD() (int, unix.Errno) {
	fd, _, errno := syscall.RawSyscall6(syscall.SYS_OPENAT,
		uintptr(unix.AT_FDCWD),
		uintptr(unsafe.Pointer(&procSelfFDPath[0])),
		uintptr(unix.O_RDONLY|unix.O_DIRECTORY),
		0, 0, 0)
	return int(fd), unix.Errno(errno)
}

// sweepLeakedFDs enumerates /proc/self/fd and closes every numeric entry not
// in keepFDs, catching any descriptor a library elsewhere in the process
// opened without O_CLOEXEC. keepFDs is built by the parent before the fork;
// the fd names found in the directory listing are parsed directly out of
// the getdents buffer without ever forming a string.
func sweepLeakedFDs(keepFDs map[int]struct{}) {
	dirFD, errno := openProcSelfFD()
	if errno != 0 {
		fatalChild("open /proc/self/fd: " + errno.Error())
	}
	defer unix.Close(dirFD)

	var buf [direntBufSize]byte
	for {
		n, err := unix.Getdents(dirFD, buf[:])
		if err != nil || n == 0 {
			break
		}

		offset := 0
		for offset+direntHeaderSize <= n {
			d := (*childDirent)(unsafe.Pointer(&buf[offset]))
			if d.reclen == 0 {
				break
			}

			nameOffset := offset + direntHeaderSize
			fd, ok := parseFDName(buf[:n], nameOffset)
			offset += int(d.reclen)

			if !ok || fd == dirFD {
				continue
			}
			if _, keep := keepFDs[fd]; keep {
				continue
			}

			unix.Close(fd)
		}
	}
}

// parseFDName reads the NUL-terminated decimal fd number starting at start,
// directly off the getdents buffer — no substring or string conversion, so
// it performs no allocation. It reports false for "." and ".." (and
// anything else non-numeric), which is also what the original string-based
// check excluded.
func parseFDName(buf []byte, start int) (int, bool) {
	end := start
	for end < len(buf) && buf[end] != 0 {
		end++
	}
	if end == start {
		return 0, false
	}

	n := 0
	for _, c := range buf[start:end] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func chdirRaw(dir string) unix.Errno {
	err := unix.Chdir(dir)
	if err == nil {
		return 0
	}
	if errno, ok := err.(unix.Errno); ok {
		return errno
	}
	return unix.EINVAL
}

// fatalChild writes a short diagnostic to fd 2 and exits, the only two
// operations the pre-exec child path is allowed per the error design: no
// logging, no panics, no richer primitives before exec replaces the image.
func fatalChild(msg string) {
	unix.Write(2, []byte("zproc: "+msg+"\n"))
	unix.Exit(1)
}

// execOrDie calls execve; on failure it reports to fd 2 and exits, which
// the parent observes as an ordinary (non-zero) exit status.
func execOrDie(resolvedPath string, argv []string, envp []string) {
	err := syscall.Exec(resolvedPath, argv, envp)
	fatalChild("exec " + resolvedPath + ": " + err.Error())
}

// runTimingWrapper is the outer half of the timing double-fork: it raw-forks
// once more, lets the inner child exec the target, and waits for it,
// recomputing elapsed real/user/system time into the shared cell on every
// wake. It never returns; it exits under the 128+signal convention, which
// the outer waitpid in the parent observes as the wrapper's own status.
func runTimingWrapper(resolvedPath string, argv []string, envp []string, cell *process.TimingRecord) {
	startReal := nowMonotonicMs()
	startUser, startSys := cpuTimesMs()

	pid, _, errno := syscall.RawSyscall(syscall.SYS_FORK, 0, 0, 0)
	if errno != 0 {
		fatalChild("timing fork: " + errno.Error())
	}

	if pid == 0 {
		execOrDie(resolvedPath, argv, envp)
		return
	}

	for {
		var ws unix.WaitStatus
		_, err := unix.Wait4(int(pid), &ws, 0, nil)
		if err == unix.EINTR {
			cell.RealMs = uint32(nowMonotonicMs() - startReal)
			u, s := cpuTimesMs()
			cell.UserMs = uint32(u - startUser)
			cell.SysMs = uint32(s - startSys)
			continue
		}
		if err != nil {
			fatalChild("timing wait4: " + err.Error())
		}

		cell.RealMs = uint32(nowMonotonicMs() - startReal)
		u, s := cpuTimesMs()
		cell.UserMs = uint32(u - startUser)
		cell.SysMs = uint32(s - startSys)

		switch {
		case ws.Exited():
			unix.Exit(ws.ExitStatus())
		case ws.Signaled():
			unix.Exit(128 + int(ws.Signal()))
		}
	}
}
