package console

import (
	"bytes"
	"testing"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var echoTwice = intcode.Program{3, 0, 4, 0, 3, 0, 4, 0, 99}

func TestNumericSession(t *testing.T) {
	var out bytes.Buffer
	s := New(echoTwice, &out, false)
	require.NoError(t, s.Drive())
	assert.Equal(t, intcode.SuspendedForInput, s.Machine().State())

	quit, err := s.Eval("5")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Equal(t, "5\n", out.String())

	_, err = s.Eval("  ")
	require.NoError(t, err)

	_, err = s.Eval("6")
	require.NoError(t, err)
	assert.True(t, s.Halted())
	assert.Contains(t, out.String(), "6\n")
	assert.Contains(t, out.String(), "[halt 6")
	assert.Equal(t, []int64{5, 6}, s.Outputs())

	_, err = s.Eval("x")
	assert.Error(t, err)
}

func TestASCIISession(t *testing.T) {
	// echo characters until a newline, then halt
	prog := intcode.Program{3, 100, 4, 100, 1008, 100, 10, 101, 1006, 101, 0, 99}
	var out bytes.Buffer
	s := New(prog, &out, true)
	require.NoError(t, s.Drive())

	_, err := s.Eval("hi")
	require.NoError(t, err)
	assert.True(t, s.Halted())
	assert.Contains(t, out.String(), "hi\n")
	assert.Equal(t, []int64{'h', 'i', '\n'}, s.Outputs())
}

func TestCommands(t *testing.T) {
	var out bytes.Buffer
	s := New(echoTwice, &out, false)
	require.NoError(t, s.Drive())

	_, err := s.Eval(":state")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "state=suspended_input pc=0")

	out.Reset()
	_, err = s.Eval(":js send(7); outputs().length")
	require.NoError(t, err)
	assert.Equal(t, "7\n1\n", out.String())

	out.Reset()
	_, err = s.Eval(":js peek(0) * 2")
	require.NoError(t, err)
	assert.Equal(t, "14\n", out.String())

	_, err = s.Eval(":js nope(")
	assert.Error(t, err)

	require.NoError(t, s.Send(8))
	assert.True(t, s.Halted())
	_, err = s.Eval(":reset")
	require.NoError(t, err)
	assert.Empty(t, s.Outputs())
	assert.Equal(t, intcode.SuspendedForInput, s.Machine().State())

	_, err = s.Eval(":bogus")
	assert.Error(t, err)
	quit, err := s.Eval(":quit")
	require.NoError(t, err)
	assert.True(t, quit)
}
