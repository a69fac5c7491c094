// Package zproc supervises a single external process through its full
// lifecycle: fork, descriptor wiring, a producer/consumer I/O pump, signal
// delivery, and an optional wall/user/system timing wrapper.
//
// A Supervisor is built once and reused across an arbitrary number of
// sequential Run calls, each one binding fresh producers, consumers and
// features to one child process.
package zproc
