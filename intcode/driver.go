package intcode

import (
	"fmt"

	"github.com/colorfulnotion/intcode/vmerrors"
)

// RunResult is everything a machine produced between its first resume and its halt.
type RunResult struct {
	Outputs []int64
	Halt    int64
	Steps   uint64
}

// InputProvider supplies the next input value, or false when none is left.
type InputProvider func() (int64, bool)

// ScriptedInput returns a provider that yields inputs in order.
func ScriptedInput(inputs ...int64) InputProvider {
	i := 0
	return func() (int64, bool) {
		if i >= len(inputs) {
			return 0, false
		}
		v := inputs[i]
		i++
		return v, true
	}
}

// RunWithProvider drives m to completion, asking next for a value every time the machine
// suspends for input. Outputs collected before an error are returned alongside it.
func RunWithProvider(m *Machine, next InputProvider) (RunResult, error) {
	var res RunResult
	var pending *int64
	for {
		r, err := m.Resume(pending)
		pending = nil
		res.Steps = m.Steps()
		if err != nil {
			return res, err
		}
		switch r.Kind {
		case Output:
			res.Outputs = append(res.Outputs, r.Value)
		case InputRequired:
			v, ok := next()
			if !ok {
				return res, fmt.Errorf("pc %d: %w", m.PC(), vmerrors.ErrOutOfInput)
			}
			pending = &v
		case Halt:
			res.Halt = r.Value
			return res, nil
		default:
			return res, fmt.Errorf("%v: %w", r, vmerrors.ErrUnexpectedResult)
		}
	}
}

// Run executes program with a fixed list of inputs.
func Run(program []int64, inputs []int64, opts ...Option) (RunResult, error) {
	return RunWithProvider(New(program, opts...), ScriptedInput(inputs...))
}
