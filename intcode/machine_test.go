package intcode

import (
	"errors"
	"testing"

	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

const comparisonProgram = "3,21,1008,21,8,20,1005,20,22,107,8,21,20,1006,20,31,1106,0,36,98,0,0,1002,21,125,20,4,20,1105,1,46,104,999,1105,1,46,1101,1000,1,20,4,20,1105,1,46,98,99"

func mustParse(t *testing.T, text string) Program {
	t.Helper()
	p, err := ParseProgram(text)
	require.NoError(t, err)
	return p
}

func TestHaltReportsCellZero(t *testing.T) {
	m := New([]int64{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50})
	res, err := m.Execute()
	require.NoError(t, err)
	assert.Equal(t, HaltResult(3500), res)
	assert.Equal(t, Halted, m.State())
	assert.Equal(t, []int64{3500, 9, 10, 70, 2, 3, 11, 0, 99, 30, 40, 50}, m.Memory().Cells())
	assert.Equal(t, uint64(3), m.Steps())
}

func TestParameterModes(t *testing.T) {
	m := New([]int64{1002, 4, 3, 4, 33})
	res, err := m.Execute()
	require.NoError(t, err)
	assert.True(t, res.IsHalt())
	v, _ := m.Memory().Peek(4)
	assert.Equal(t, int64(99), v)

	m = New([]int64{1101, 100, -1, 4, 0})
	res, err = m.Execute()
	require.NoError(t, err)
	assert.Equal(t, HaltResult(1101), res)
	v, _ = m.Memory().Peek(4)
	assert.Equal(t, int64(99), v)
}

func TestInputOutputRoundTrip(t *testing.T) {
	m := New([]int64{3, 0, 4, 0, 99})
	assert.Equal(t, Ready, m.State())

	res, err := m.Execute()
	require.NoError(t, err)
	assert.True(t, res.NeedsInput())
	assert.Equal(t, SuspendedForInput, m.State())
	assert.Equal(t, int64(0), m.PC())
	assert.Equal(t, uint64(0), m.Steps())

	// asking again without input changes nothing
	res, err = m.Execute()
	require.NoError(t, err)
	assert.True(t, res.NeedsInput())
	assert.Equal(t, int64(0), m.PC())

	res, err = m.Feed(42)
	require.NoError(t, err)
	assert.Equal(t, OutputResult(42), res)
	assert.Equal(t, SuspendedAfterOutput, m.State())
	assert.Equal(t, int64(4), m.PC())

	res, err = m.Execute()
	require.NoError(t, err)
	assert.Equal(t, HaltResult(42), res)

	_, err = m.Execute()
	assert.True(t, errors.Is(err, vmerrors.ErrMachineHalted))
	_, err = m.Feed(1)
	assert.True(t, errors.Is(err, vmerrors.ErrMachineHalted))
}

func TestInputDroppedWhenOutputComesFirst(t *testing.T) {
	m := New([]int64{104, 7, 3, 0, 99})
	res, err := m.Feed(5)
	require.NoError(t, err)
	assert.Equal(t, OutputResult(7), res)

	res, err = m.Execute()
	require.NoError(t, err)
	assert.True(t, res.NeedsInput())
}

func TestComparisons(t *testing.T) {
	prog := mustParse(t, comparisonProgram)
	for input, want := range map[int64]int64{5: 999, 7: 999, 8: 1000, 9: 1001, 100: 1001} {
		res, err := Run(prog, []int64{input})
		require.NoError(t, err)
		assert.Equal(t, []int64{want}, res.Outputs, "input %d", input)
	}

	eq8 := []int64{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8}
	lt8imm := []int64{3, 3, 1107, -1, 8, 3, 4, 3, 99}
	for _, tc := range []struct {
		prog  []int64
		input int64
		want  int64
	}{
		{eq8, 8, 1},
		{eq8, 7, 0},
		{lt8imm, 7, 1},
		{lt8imm, 8, 0},
	} {
		res, err := Run(tc.prog, []int64{tc.input})
		require.NoError(t, err)
		assert.Equal(t, []int64{tc.want}, res.Outputs)
	}
}

func TestJumps(t *testing.T) {
	posJump := []int64{3, 12, 6, 12, 15, 1, 13, 14, 13, 4, 13, 99, -1, 0, 1, 9}
	immJump := []int64{3, 3, 1105, -1, 9, 1101, 0, 0, 12, 4, 12, 99, 1}
	for _, prog := range [][]int64{posJump, immJump} {
		res, err := Run(prog, []int64{0})
		require.NoError(t, err)
		assert.Equal(t, []int64{0}, res.Outputs)
		res, err = Run(prog, []int64{3})
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, res.Outputs)
	}
}

func TestQuine(t *testing.T) {
	quine := []int64{109, 1, 204, -1, 1001, 100, 1, 100, 1008, 100, 16, 101, 1006, 101, 0, 99}
	res, err := Run(quine, nil)
	require.NoError(t, err)
	assert.Equal(t, quine, res.Outputs)
}

func TestLargeNumbers(t *testing.T) {
	res, err := Run([]int64{104, 1125899906842624, 99}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1125899906842624}, res.Outputs)

	res, err = Run([]int64{1102, 34915192, 34915192, 7, 4, 7, 99, 0}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1219070632396864}, res.Outputs)
}

func TestRelativeBaseFarBeyondProgram(t *testing.T) {
	m := New([]int64{109, 1000, 21101, 3, 4, 0, 204, 0, 99})
	res, err := m.Execute()
	require.NoError(t, err)
	assert.Equal(t, OutputResult(7), res)
	assert.Equal(t, int64(1000), m.Memory().RelativeBase())
	assert.Equal(t, 1001, m.Memory().Len())

	rr, err := Run([]int64{4, 5000, 99}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{0}, rr.Outputs)
}

func TestInputSuspensionLeavesMemoryAlone(t *testing.T) {
	m := New([]int64{1101, 2, 3, 0, 3})
	res, err := m.Execute()
	require.NoError(t, err)
	assert.Equal(t, InputRequiredResult(), res)
	assert.Equal(t, int64(4), m.PC())
	assert.Equal(t, []int64{5, 2, 3, 0, 3}, m.Memory().Cells())

	res, err = m.Execute()
	require.NoError(t, err)
	assert.True(t, res.NeedsInput())
	assert.Equal(t, 5, m.Memory().Len())
	assert.Equal(t, int64(4), m.PC())
}

func TestFaultIsSticky(t *testing.T) {
	m := New([]int64{1101, 1, 1, 0, 98})
	_, err := m.Execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, vmerrors.ErrUnrecognizedOpcode))
	assert.Equal(t, Faulted, m.State())
	assert.Equal(t, int64(4), m.PC())

	_, err = m.Execute()
	assert.True(t, errors.Is(err, vmerrors.ErrMachineFaulted))
	assert.True(t, errors.Is(err, vmerrors.ErrUnrecognizedOpcode))
	var ferr *vmerrors.FaultedError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, m.Err(), ferr.Cause)
}

func TestNegativeJumpTarget(t *testing.T) {
	m := New([]int64{1105, 1, -1})
	_, err := m.Execute()
	assert.True(t, errors.Is(err, vmerrors.ErrNegativeAddress))
	assert.Equal(t, Faulted, m.State())
}

func TestStepBudget(t *testing.T) {
	m := New([]int64{1105, 1, 0}, WithStepBudget(10))
	_, err := m.Execute()
	var berr *vmerrors.StepBudgetError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, uint64(10), berr.Limit)
	assert.Equal(t, uint64(10), m.Steps())

	// the budget spans resumes and an unserved input costs nothing
	m = New([]int64{3, 0, 4, 0, 3, 0, 4, 0, 99}, WithStepBudget(3))
	res, err := m.Execute()
	require.NoError(t, err)
	require.True(t, res.NeedsInput())
	res, err = m.Feed(1)
	require.NoError(t, err)
	assert.Equal(t, OutputResult(1), res)
	res, err = m.Execute()
	require.NoError(t, err)
	require.True(t, res.NeedsInput())
	_, err = m.Feed(2)
	assert.True(t, errors.Is(err, vmerrors.ErrStepBudgetExceeded))
	assert.Equal(t, uint64(3), m.Budget().Used())
}

func TestMemoryLimitOption(t *testing.T) {
	_, err := Run([]int64{4, 5000, 99}, nil, WithMemoryLimit(100))
	assert.True(t, errors.Is(err, vmerrors.ErrMemoryLimitExceeded))
}

func TestTracerSeesEveryStep(t *testing.T) {
	rec := &RecordingTracer{}
	res, err := Run([]int64{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50}, nil, WithTracer(rec))
	require.NoError(t, err)
	require.Equal(t, 3, rec.Len())
	steps := rec.Records()
	assert.Equal(t, res.Steps, uint64(len(steps)))
	assert.Equal(t, []string{"add", "mul", "halt"}, []string{steps[0].Op, steps[1].Op, steps[2].Op})
	assert.Equal(t, []int64{0, 4, 8}, []int64{steps[0].PC, steps[1].PC, steps[2].PC})
	assert.Equal(t, uint64(2), steps[2].Step)
}

func TestIdentifier(t *testing.T) {
	m := New([]int64{99})
	assert.Equal(t, Program{99}.Hash().String_short(), m.Identifier())
	m = New([]int64{99}, WithIdentifier("amp-A"))
	assert.Equal(t, "amp-A", m.Identifier())
}

func randomProgram(r *rand.Rand, n int) []int64 {
	words := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 99, 101, 1001, 1101, 1002, 104, 204, 109, 1105, 1106, 1107, 1108, 2101, 21101}
	prog := make([]int64, n)
	for i := range prog {
		if r.Intn(2) == 0 {
			prog[i] = words[r.Intn(len(words))]
		} else {
			prog[i] = r.Int63n(64) - 8
		}
	}
	return prog
}

func TestDeterminism(t *testing.T) {
	r := rand.New(rand.NewSource(2019))
	for i := 0; i < 200; i++ {
		prog := randomProgram(r, 40)
		run := func() (RunResult, string) {
			k := int64(0)
			m := New(prog, WithStepBudget(500), WithMemoryLimit(1<<12))
			res, err := RunWithProvider(m, func() (int64, bool) {
				k++
				return k * 3, k < 20
			})
			if err != nil {
				return res, err.Error()
			}
			return res, ""
		}
		a, aerr := run()
		b, berr := run()
		assert.Equal(t, a, b, "program %v", prog)
		assert.Equal(t, aerr, berr, "program %v", prog)
	}
}
