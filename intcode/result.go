package intcode

import "fmt"

type ResultKind uint8

const (
	InputRequired ResultKind = iota
	Output
	Halt
)

func (k ResultKind) String() string {
	switch k {
	case InputRequired:
		return "input"
	case Output:
		return "output"
	case Halt:
		return "halt"
	default:
		return "unknown"
	}
}

// IOResult is what a single Resume call observed. Value is the emitted value for Output
// and memory[0] for Halt; it is unused for InputRequired.
type IOResult struct {
	Kind  ResultKind
	Value int64
}

func InputRequiredResult() IOResult { return IOResult{Kind: InputRequired} }
func OutputResult(v int64) IOResult { return IOResult{Kind: Output, Value: v} }
func HaltResult(v int64) IOResult { return IOResult{Kind: Halt, Value: v} }
func (r IOResult) NeedsInput() bool { return r.Kind == InputRequired }
func (r IOResult) IsOutput() bool { return r.Kind == Output }
func (r IOResult) IsHalt() bool { return r.Kind == Halt }

func (r IOResult) String() string {
	switch r.Kind {
	case InputRequired:
		return "InputRequired"
	case Output:
		return fmt.Sprintf("Output(%d)", r.Value)
	case Halt:
		return fmt.Sprintf("Halt(%d)", r.Value)
	default:
		return "Unknown"
	}
}
