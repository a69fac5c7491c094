package zproc

import (
	"os"
	"os/signal"
	"sync"

	zsignal "github.com/gregfurman/zproc/signal"
)

// signalCallback is one installed listener, kept in insertion order.
type signalCallback struct {
	id uint64
	fn func()
}

// signalBus multiplexes each OS signal the process receives to every
// callback bound to it, in the style of lxc/utils.CancelableWait's single
// signal.Notify channel, generalized from one signal and one listener to
// all sixteen types and any number of listeners, invoked in the order they
// were installed.
type signalBus struct {
	mu      sync.Mutex
	table   map[zsignal.Type][]signalCallback
	seq     uint64
	ch      chan os.Signal
	done    chan struct{}
	watched []os.Signal
}

func newSignalBus() *signalBus {
	return &signalBus{table: make(map[zsignal.Type][]signalCallback)}
}

// signalBinding is the handle returned by Install; Remove detaches the
// callback. Calling Remove twice is a no-op.
type signalBinding struct {
	bus *signalBus
	t   zsignal.Type
	id  uint64
}

// Remove detaches the callback this binding was created for. If that was
// the last callback for its type, the bus stops watching that OS signal
// entirely, restoring its original disposition.
func (b *signalBinding) Remove() {
	b.bus.mu.Lock()
	defer b.bus.mu.Unlock()

	set := b.bus.table[b.t]
	for i, cb := range set {
		if cb.id == b.id {
			b.bus.table[b.t] = append(set[:i:i], set[i+1:]...)
			break
		}
	}

	b.bus.ensureWatchingLocked()
}

// Install registers fn to run whenever t is delivered to this process.
// Callbacks for the same type run in the order they were installed.
func (b *signalBus) Install(t zsignal.Type, fn func()) *signalBinding {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	id := b.seq
	b.table[t] = append(b.table[t], signalCallback{id: id, fn: fn})

	b.ensureWatchingLocked()

	return &signalBinding{bus: b, t: t, id: id}
}

// ensureWatchingLocked (re)starts the OS-level signal.Notify subscription
// covering every type that currently has at least one callback. Must be
// called with b.mu held. signal.Notify with zero signals relays everything,
// not nothing, so an empty watch set stops the subscription instead.
func (b *signalBus) ensureWatchingLocked() {
	if b.ch == nil {
		b.ch = make(chan os.Signal, 16)
		b.done = make(chan struct{})
		go b.dispatch()
	} else {
		signal.Stop(b.ch)
	}

	b.watched = b.watched[:0]
	for t, set := range b.table {
		if len(set) == 0 {
			continue
		}
		if osSig, ok := t.OSSignal(); ok {
			b.watched = append(b.watched, osSig)
		}
	}

	if len(b.watched) > 0 {
		signal.Notify(b.ch, b.watched...)
	}
}

func (b *signalBus) dispatch() {
	for {
		select {
		case <-b.done:
			return
		case got := <-b.ch:
			b.deliver(got)
		}
	}
}

func (b *signalBus) deliver(got os.Signal) {
	b.mu.Lock()
	var fns []func()
	for t, set := range b.table {
		osSig, ok := t.OSSignal()
		if !ok || osSig != got {
			continue
		}
		for _, cb := range set {
			fns = append(fns, cb.fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Close tears down the OS-level subscription. Safe to call on an idle bus.
func (b *signalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ch == nil {
		return
	}

	signal.Stop(b.ch)
	close(b.done)
	b.ch = nil
}

var globalSignalBus = newSignalBus()

// SignalBinding is a handle returned by Install. Remove detaches the
// callback it was created for; removing it twice is a no-op.
type SignalBinding struct {
	inner *signalBinding
}

// Remove detaches the callback this binding was installed for.
func (b *SignalBinding) Remove() { b.inner.Remove() }

// Install registers fn to run, on the goroutine that dispatches OS signals,
// every time this process receives t. Any number of callbacks may be
// installed for the same type; all of them run on every delivery. Install is
// the process-wide registry a Supervisor's own ProcessHook features sit
// alongside: a caller can watch the same signal a FeatureProcess forwards,
// or watch a type no Supervisor forwards at all (e.g. signal.HangUp for a
// config-reload trigger).
func Install(t zsignal.Type, fn func()) *SignalBinding {
	return &SignalBinding{inner: globalSignalBus.Install(t, fn)}
}
