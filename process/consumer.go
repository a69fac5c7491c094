package process

// Consumer is a byte sink the pump feeds from a child-side descriptor.
// Consume reads what it can from fd; true means "did some work, keep me
// registered", false means "finished, drop me".
type Consumer interface {
	Consume(fd FileDescriptor) bool
}

// ConsumerFunc adapts a plain function to the Consumer interface.
type ConsumerFunc func(fd FileDescriptor) bool

// Consume implements Consumer.
func (f ConsumerFunc) Consume(fd FileDescriptor) bool { return f(fd) }

// BufferConsumer accumulates everything read from fd into an in-memory
// buffer, for callers that just want the child's output as a []byte.
type BufferConsumer struct {
	data []byte
}

// NewBufferConsumer returns an empty accumulating consumer.
func NewBufferConsumer() *BufferConsumer {
	return &BufferConsumer{}
}

// Consume implements Consumer.
func (c *BufferConsumer) Consume(fd FileDescriptor) bool {
	var buf [dynamicBufferSize]byte
	n := fd.Read(buf[:])
	if n == NPos || n == 0 {
		return false
	}
	c.data = append(c.data, buf[:n]...)
	return true
}

// Bytes returns everything accumulated so far.
func (c *BufferConsumer) Bytes() []byte {
	return c.data
}
