package process

// Producer is a byte source the pump drains into a child-side descriptor.
// Produce writes what it can to fd and returns the number of bytes written,
// or NPos to signal end of stream — after which the pump drops the
// producer from its interest set. Returning 0 is legal and means "no
// progress this cycle".
type Producer interface {
	Produce(fd FileDescriptor) uint64
}

// FDOwner is implemented by producers/consumers that already hold an open
// file descriptor of their own (FileProducer, FileConsumer). When a
// Supervisor binds such a producer/consumer alone to a handle, it adopts
// the owned descriptor directly as the child-side fd instead of opening a
// pipe. This is a capability check, not a type switch: any Producer or
// Consumer can opt in by implementing this one method.
type FDOwner interface {
	OwnedFD() (FileDescriptor, bool)
}

const dynamicBufferSize = 4096

// ProducerFunc adapts a plain function to the Producer interface.
type ProducerFunc func(fd FileDescriptor) uint64

// Produce implements Producer.
func (f ProducerFunc) Produce(fd FileDescriptor) uint64 { return f(fd) }
