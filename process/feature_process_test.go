package process_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gregfurman/zproc/process"
	"github.com/gregfurman/zproc/signal"
)

func TestFeatureProcessTracksLaunchAndExit(t *testing.T) {
	f := process.NewFeatureProcess()
	require.Equal(t, signal.NoHandle, f.Pid())

	f.OnLaunch(4242)
	require.Equal(t, 4242, f.Pid())

	f.OnExit()
	require.Equal(t, signal.NoHandle, f.Pid())
}

func TestFeatureProcessStopKillNoopWithoutLaunch(t *testing.T) {
	f := process.NewFeatureProcess()
	require.NoError(t, f.Stop())
	require.NoError(t, f.Kill())
}

func TestFeatureProcessImplementsProcessHook(t *testing.T) {
	var hook process.ProcessHook = process.NewFeatureProcess()
	hook.OnLaunch(1)
	hook.OnExit()
}
