package compare

import (
	"testing"

	"github.com/colorfulnotion/intcode/intcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trace(t *testing.T, prog []int64, inputs ...int64) []intcode.StepRecord {
	t.Helper()
	rec := &intcode.RecordingTracer{}
	_, err := intcode.Run(prog, inputs, intcode.WithTracer(rec))
	require.NoError(t, err)
	return rec.Records()
}

const eq8 = "3,9,8,9,10,9,4,9,99,-1,8"

func TestTracesMatch(t *testing.T) {
	prog, err := intcode.ParseProgram(eq8)
	require.NoError(t, err)
	r, err := Traces(trace(t, prog, 8), trace(t, prog, 8))
	require.NoError(t, err)
	assert.True(t, r.Match)
	assert.Equal(t, -1, r.FirstDivergence)
	assert.Empty(t, r.Diff)
}

func TestTracesDiverge(t *testing.T) {
	a := trace(t, []int64{1101, 1, 2, 5, 99, 0})
	b := trace(t, []int64{1102, 1, 2, 5, 99, 0})
	r, err := Traces(a, b)
	require.NoError(t, err)
	assert.False(t, r.Match)
	assert.Equal(t, 0, r.FirstDivergence)
	assert.Contains(t, r.Diff, "add")
	assert.Contains(t, r.Diff, "mul")

	// same prefix, one trace longer
	r, err = Traces(a, a[:1])
	require.NoError(t, err)
	assert.False(t, r.Match)
	assert.Equal(t, 1, r.FirstDivergence)
	assert.Equal(t, 2, r.LeftSteps)
	assert.Equal(t, 1, r.RightSteps)
	assert.NotEmpty(t, r.Diff)
}

func TestDiffStepsUnmodified(t *testing.T) {
	a := trace(t, []int64{1101, 1, 2, 5, 99, 0})
	b := make([]intcode.StepRecord, len(a))
	copy(b, a)
	b[1].Args = []intcode.Argument{}

	diff, modified, err := diffSteps(a, b)
	require.NoError(t, err)
	assert.False(t, modified)
	assert.Empty(t, diff)

	r, err := Traces(a, b)
	require.NoError(t, err)
	assert.True(t, r.Match)
	assert.Equal(t, -1, r.FirstDivergence)
	assert.Empty(t, r.Diff)
}

func TestSnapshots(t *testing.T) {
	m1 := intcode.New([]int64{3, 0, 4, 0, 99})
	m2 := intcode.New([]int64{3, 0, 4, 0, 99})
	_, err := m1.Execute()
	require.NoError(t, err)
	_, err = m2.Execute()
	require.NoError(t, err)

	match, _, err := Snapshots(m1.Snapshot(), m2.Snapshot())
	require.NoError(t, err)
	assert.True(t, match)

	_, err = m2.Feed(5)
	require.NoError(t, err)
	match, desc, err := Snapshots(m1.Snapshot(), m2.Snapshot())
	require.NoError(t, err)
	assert.False(t, match)
	assert.Contains(t, desc, "suspended_output")
}
