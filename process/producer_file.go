package process

// FileProducer wraps an owned input file descriptor and forwards its
// contents to the child, 4 KiB at a time. A Supervisor that binds a
// FileProducer alone to a handle (no consumer on the same handle) adopts
// the file descriptor directly instead of piping through this type — see
// FDOwner.
type FileProducer struct {
	file FileDescriptor
	buf  [dynamicBufferSize]byte
	pos  int
	len  int
	done bool
}

// NewFileProducer takes ownership of file.
func NewFileProducer(file FileDescriptor) *FileProducer {
	return &FileProducer{file: file}
}

// OwnedFD implements FDOwner. Adopting a FileProducer's descriptor is a
// move: the returned FileDescriptor is p.file itself, and p no longer owns
// it, so a later Close on p cannot double-close a descriptor number the OS
// may since have reassigned to something unrelated.
func (p *FileProducer) OwnedFD() (FileDescriptor, bool) {
	if !p.file.Valid() {
		return FileDescriptor{}, false
	}
	return New(p.file.Release()), true
}

// Produce implements Producer. Only reached when the owned fd was not
// adopted directly (i.e. a consumer is also bound to the same handle).
func (p *FileProducer) Produce(fd FileDescriptor) uint64 {
	if p.done {
		return NPos
	}

	if p.pos >= p.len {
		n := p.file.Read(p.buf[:])
		if n == NPos {
			p.done = true
			return NPos
		}
		if n == 0 {
			p.done = true
			return NPos
		}
		p.pos, p.len = 0, int(n)
	}

	written := fd.Write(p.buf[p.pos:p.len])
	if written == NPos {
		return NPos
	}

	p.pos += int(written)
	return written
}

// Close releases the owned input file descriptor.
func (p *FileProducer) Close() error {
	return p.file.Close()
}
