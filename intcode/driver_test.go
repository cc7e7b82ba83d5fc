package intcode

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCollectsOutputs(t *testing.T) {
	res, err := Run([]int64{3, 0, 4, 0, 3, 0, 4, 0, 99}, []int64{4, 5})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, res.Outputs)
	assert.Equal(t, int64(5), res.Halt)
	assert.Equal(t, uint64(5), res.Steps)
}

func TestRunOutOfInput(t *testing.T) {
	res, err := Run([]int64{104, 1, 3, 0, 99}, nil)
	assert.True(t, errors.Is(err, vmerrors.ErrOutOfInput))
	assert.Equal(t, []int64{1}, res.Outputs)
}

func TestScriptedInput(t *testing.T) {
	next := ScriptedInput(1, 2)
	v, ok := next()
	assert.True(t, ok)
	assert.Equal(t, int64(1), v)
	v, ok = next()
	assert.True(t, ok)
	assert.Equal(t, int64(2), v)
	_, ok = next()
	assert.False(t, ok)
}

func TestParseProgram(t *testing.T) {
	p, err := ParseProgram(" 1,2, -3\n")
	require.NoError(t, err)
	assert.Equal(t, Program{1, 2, -3}, p)
	assert.Equal(t, "1,2,-3", p.String())

	for _, bad := range []string{"", "\n", "1,,2", "1,x", "1;2"} {
		_, err := ParseProgram(bad)
		assert.True(t, errors.Is(err, vmerrors.ErrInvalidProgramImage), "input %q", bad)
	}

	path := filepath.Join(t.TempDir(), "prog.txt")
	require.NoError(t, os.WriteFile(path, []byte("1,0,0,0,99\n"), 0o644))
	p, err = LoadProgram(path)
	require.NoError(t, err)
	assert.Equal(t, Program{1, 0, 0, 0, 99}, p)

	_, err = LoadProgram(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestProgramHash(t *testing.T) {
	a := Program{1, 0, 0, 0, 99}
	b := a.Clone()
	assert.Equal(t, a.Hash(), b.Hash())
	b[0] = 2
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.Equal(t, int64(1), a[0])
}

func TestParseInputs(t *testing.T) {
	in, err := ParseInputs("")
	require.NoError(t, err)
	assert.Nil(t, in)
	in, err = ParseInputs("5, -1,0")
	require.NoError(t, err)
	assert.Equal(t, []int64{5, -1, 0}, in)
	_, err = ParseInputs("a")
	assert.Error(t, err)
}
