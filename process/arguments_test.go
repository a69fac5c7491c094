package process_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gregfurman/zproc/process"
)

func TestParseArgumentsSplitsOnSpaces(t *testing.T) {
	a := process.ParseArguments("echo hello world")
	require.Equal(t, []string{"echo", "hello", "world"}, a.Argv())
	require.Equal(t, 3, a.Argc())
}

func TestParseArgumentsEscapesSpaceAndBackslash(t *testing.T) {
	a := process.ParseArguments(`sed -n w\ /dev/stdout`)
	require.Equal(t, []string{"sed", "-n", "w /dev/stdout"}, a.Argv())
}

func TestParseArgumentsTrailingBackslashEndsInput(t *testing.T) {
	a := process.ParseArguments(`foo\`)
	require.Equal(t, []string{"foo"}, a.Argv())
}

func TestParseArgumentsEmpty(t *testing.T) {
	a := process.ParseArguments("")
	require.True(t, a.Empty())
	require.Equal(t, 0, a.Argc())
}

func TestParseArgumentsCollapsesRepeatedSpaces(t *testing.T) {
	a := process.ParseArguments("a   b")
	require.Equal(t, []string{"a", "b"}, a.Argv())
}

func TestEncodeArgumentsIsLeftInverseOfParse(t *testing.T) {
	cases := [][]string{
		{"a"},
		{"a", "b", "c"},
		{"with space"},
		{`with\backslash`},
		{"mix of\\ both", "plain"},
	}

	for _, tokens := range cases {
		encoded := process.EncodeArguments(tokens)
		parsed := process.ParseArguments(encoded)
		require.Equal(t, tokens, parsed.Argv(), "round trip of %q", tokens)
	}
}

func TestNewArgumentsFromTokens(t *testing.T) {
	a := process.NewArguments("ls", "-la", "/tmp")
	require.Equal(t, 3, a.Argc())
	require.Equal(t, []string{"ls", "-la", "/tmp"}, a.Argv())
}
