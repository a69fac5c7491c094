package process_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gregfurman/zproc/process"
)

func TestBufferConsumerAccumulatesThenFalseOnEOF(t *testing.T) {
	r, w, err := process.OpenUnidirectional()
	require.NoError(t, err)
	defer r.Close()

	w.Write([]byte("chunk1"))

	c := process.NewBufferConsumer()
	require.True(t, c.Consume(r))
	require.Equal(t, "chunk1", string(c.Bytes()))

	w.Close()
	require.False(t, c.Consume(r))
}

func TestFileConsumerWritesToOwnedFile(t *testing.T) {
	r, w, err := process.OpenUnidirectional()
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(t.TempDir(), "consumed.txt")
	out, err := process.OpenFile(path, false, true, true)
	require.NoError(t, err)

	c := process.NewFileConsumer(out)

	w.Write([]byte("data"))
	require.True(t, c.Consume(r))
	require.NoError(t, c.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "data", string(got))
}

func TestFileConsumerExposesOwnedFD(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	out, err := process.OpenFile(path, false, true, true)
	require.NoError(t, err)

	c := process.NewFileConsumer(out)
	fd, ok := c.OwnedFD()
	require.True(t, ok)
	require.Equal(t, out.Handle(), fd.Handle())
	c.Close()
}

func TestConsumerFuncAdapter(t *testing.T) {
	called := false
	var c process.Consumer = process.ConsumerFunc(func(fd process.FileDescriptor) bool {
		called = true
		return false
	})

	require.False(t, c.Consume(process.FileDescriptor{}))
	require.True(t, called)
}
