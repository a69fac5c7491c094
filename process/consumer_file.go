package process

// FileConsumer reads up to 4 KiB at a time from the child's descriptor and
// writes it to an owned output file descriptor. A Supervisor that binds a
// FileConsumer alone to a handle (no producer on the same handle) adopts
// the file descriptor directly instead of piping through this type — see
// FDOwner.
type FileConsumer struct {
	file FileDescriptor
}

// NewFileConsumer takes ownership of file.
func NewFileConsumer(file FileDescriptor) *FileConsumer {
	return &FileConsumer{file: file}
}

// OwnedFD implements FDOwner. Adopting a FileConsumer's descriptor is a
// move: the returned FileDescriptor is c.file itself, and c no longer owns
// it, so a later Close on c cannot double-close a descriptor number the OS
// may since have reassigned to something unrelated.
func (c *FileConsumer) OwnedFD() (FileDescriptor, bool) {
	if !c.file.Valid() {
		return FileDescriptor{}, false
	}
	return New(c.file.Release()), true
}

// Consume implements Consumer. Only reached when the owned fd was not
// adopted directly (i.e. a producer is also bound to the same handle).
func (c *FileConsumer) Consume(fd FileDescriptor) bool {
	var buf [dynamicBufferSize]byte
	n := fd.Read(buf[:])
	if n == NPos || n == 0 {
		return false
	}

	written := c.file.Write(buf[:n])
	return written != NPos
}

// Close releases the owned output file descriptor.
func (c *FileConsumer) Close() error {
	return c.file.Close()
}
