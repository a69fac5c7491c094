package zproc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gregfurman/zproc/process"
)

func TestRealizeBindingsAdoptsFileProducerFDDirectly(t *testing.T) {
	r, w, err := process.OpenUnidirectional()
	require.NoError(t, err)
	defer w.Close()

	rc := newRunConfig()
	require.NoError(t, Produce(process.NewFileProducer(r), process.Stdin)(rc))

	realized, err := realizeBindings(rc)
	require.NoError(t, err)
	defer realized.closeParentSide()
	defer realized.closeChildSide()

	require.Empty(t, realized.entries, "an adopted FDOwner needs no pump entry")
	require.Equal(t, r.Handle(), realized.childFDs[process.Stdin])
}

func TestRealizeBindingsOpensPipeForPlainProducer(t *testing.T) {
	rc := newRunConfig()
	p := process.NewStaticProducer([]byte("hi"))
	require.NoError(t, Produce(p, process.Stdin)(rc))

	realized, err := realizeBindings(rc)
	require.NoError(t, err)
	defer realized.closeParentSide()
	defer realized.closeChildSide()

	require.Len(t, realized.entries, 1)
	require.NotEqual(t, process.NoHandle, realized.childFDs[process.Stdin])
}

func TestRealizeBindingsOpensSocketpairForBothDirections(t *testing.T) {
	rc := newRunConfig()
	p := process.NewStaticProducer([]byte("hi"))
	c := process.NewBufferConsumer()
	require.NoError(t, ProduceConsume(p, c, 5)(rc))

	realized, err := realizeBindings(rc)
	require.NoError(t, err)
	defer realized.closeParentSide()
	defer realized.closeChildSide()

	require.Len(t, realized.entries, 1)
	require.NotNil(t, realized.entries[0].producer)
	require.NotNil(t, realized.entries[0].consumer)
}

func TestRealizeBindingsReservesCloseOnlySlot(t *testing.T) {
	rc := newRunConfig()
	require.NoError(t, Close(process.Stderr)(rc))

	realized, err := realizeBindings(rc)
	require.NoError(t, err)
	defer realized.closeParentSide()
	defer realized.closeChildSide()

	require.Empty(t, realized.entries)
	require.Equal(t, process.NoHandle, realized.childFDs[process.Stderr])
}

func TestRealizeBindingsIgnoresBareNoHandle(t *testing.T) {
	rc := newRunConfig()
	require.NoError(t, Close(process.NoHandle)(rc))

	realized, err := realizeBindings(rc)
	require.NoError(t, err)
	require.Empty(t, realized.childFDs)
}
