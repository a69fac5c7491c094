package process

// DynamicProducer refills an internal 4 KiB buffer on demand from a
// callback and forwards it to the child. The callback returns the number
// of bytes it placed into buf; returning 0 signals end of stream.
type DynamicProducer struct {
	fill func(buf []byte) int
	buf  [dynamicBufferSize]byte
	pos  int
	len  int
	done bool
}

// NewDynamicProducer wraps a refill callback.
func NewDynamicProducer(fill func(buf []byte) int) *DynamicProducer {
	return &DynamicProducer{fill: fill}
}

// NewDynamicProducerFromString wraps an owned byte string, handing it out
// in 4 KiB chunks exactly like the callback form.
func NewDynamicProducerFromString(s string) *DynamicProducer {
	data := []byte(s)
	off := 0
	return NewDynamicProducer(func(buf []byte) int {
		if off >= len(data) {
			return 0
		}
		n := copy(buf, data[off:])
		off += n
		return n
	})
}

// Produce implements Producer.
func (p *DynamicProducer) Produce(fd FileDescriptor) uint64 {
	if p.done {
		return NPos
	}

	if p.pos >= p.len {
		n := p.fill(p.buf[:])
		if n == 0 {
			p.done = true
			return NPos
		}
		p.pos, p.len = 0, n
	}

	written := fd.Write(p.buf[p.pos:p.len])
	if written == NPos {
		return NPos
	}

	p.pos += int(written)
	return written
}
