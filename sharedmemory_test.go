package zproc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedMemoryRoundTrips(t *testing.T) {
	cell, err := NewSharedMemory[int64]()
	require.NoError(t, err)
	defer cell.Close()

	*cell.Data() = 42
	require.Equal(t, int64(42), *cell.Data())
}

func TestSharedMemoryCloseIsIdempotent(t *testing.T) {
	cell, err := NewSharedMemory[struct{ A, B uint32 }]()
	require.NoError(t, err)
	require.NoError(t, cell.Close())
	require.NoError(t, cell.Close())
}
