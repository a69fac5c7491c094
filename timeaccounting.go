package zproc

import "golang.org/x/sys/unix"

// clockTicksPerSec is the USER_HZ value this library assumes for times(2)
// accounting. It is universally 100 on Linux regardless of CONFIG_HZ; a
// portable sysconf(_SC_CLK_TCK) is not exposed by golang.org/x/sys/unix, so
// the constant is hardcoded rather than shelling out to getconf.
const clockTicksPerSec = 100

// nowMonotonicMs returns the current wall-clock time in milliseconds,
// suitable only for measuring elapsed intervals within one run.
func nowMonotonicMs() int64 {
	var tv unix.Timeval
	if err := unix.Gettimeofday(&tv); err != nil {
		return 0
	}
	return tv.Sec*1000 + int64(tv.Usec)/1000
}

// cpuTimesMs returns cumulative user and system CPU time in milliseconds
// for this process and its terminated children, per times(2). This is what
// lets the timing wrapper see the exec target's CPU usage after it exits:
// times() accounts a terminated child's usage into the parent's cutime and
// cstime once the parent reaps it.
func cpuTimesMs() (userMs, sysMs int64) {
	var tms unix.Tms
	if _, err := unix.Times(&tms); err != nil {
		return 0, 0
	}
	user := int64(tms.Utime) + int64(tms.Cutime)
	sys := int64(tms.Stime) + int64(tms.Cstime)
	return user * 1000 / clockTicksPerSec, sys * 1000 / clockTicksPerSec
}
