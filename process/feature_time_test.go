package process_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gregfurman/zproc/process"
)

func TestFeatureTimeReadsLiveCellThenSnapshotsOnDetach(t *testing.T) {
	f := process.NewFeatureTime()
	require.Equal(t, uint32(0), f.RealMs())

	cell := &process.TimingRecord{RealMs: 10, UserMs: 2, SysMs: 1}
	f.AttachShared(cell)
	require.Equal(t, uint32(10), f.RealMs())

	cell.RealMs = 20
	require.Equal(t, uint32(20), f.RealMs(), "reads through the live pointer while attached")

	f.DetachShared()
	require.Equal(t, uint32(20), f.RealMs(), "snapshot survives after detach")
	require.Equal(t, uint32(2), f.UserMs())
	require.Equal(t, uint32(1), f.SysMs())

	cell.RealMs = 999
	require.Equal(t, uint32(20), f.RealMs(), "no longer tracks the cell once detached")
}

func TestFeatureTimeImplementsTimeHook(t *testing.T) {
	var hook process.TimeHook = process.NewFeatureTime()
	cell := &process.TimingRecord{}
	hook.AttachShared(cell)
	hook.DetachShared()
}
