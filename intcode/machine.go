package intcode

import (
	"fmt"

	"github.com/colorfulnotion/intcode/common"
	"github.com/colorfulnotion/intcode/log"
	"github.com/colorfulnotion/intcode/vmerrors"
)

// IntcodeTrace logs every executed instruction under the intcode module when set.
var IntcodeTrace = false

type State uint8

const (
	Ready State = iota
	Running
	SuspendedForInput
	SuspendedAfterOutput
	Halted
	Faulted
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case SuspendedForInput:
		return "suspended_input"
	case SuspendedAfterOutput:
		return "suspended_output"
	case Halted:
		return "halted"
	case Faulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Machine executes one Intcode program. All execution happens inside Resume; between
// calls the machine is parked on an input instruction, just past an output, or halted.
type Machine struct {
	mem         *Memory
	pc          int64
	state       State
	steps       uint64
	budget      *StepBudget
	tracers     []Tracer
	err         error
	programHash common.Hash

	identifier string
	logging    string
}

type Option func(*Machine)

// WithStepBudget limits the total number of instructions executed across all resumes.
func WithStepBudget(limit uint64) Option {
	return func(m *Machine) {
		if limit > 0 {
			m.budget = NewStepBudget(limit)
		}
	}
}

// WithMemoryLimit caps the number of addressable cells.
func WithMemoryLimit(cells int64) Option {
	return func(m *Machine) {
		m.mem.limit = cells
	}
}

func WithTracer(t Tracer) Option {
	return func(m *Machine) {
		if t != nil {
			m.tracers = append(m.tracers, t)
		}
	}
}

func WithIdentifier(id string) Option {
	return func(m *Machine) {
		m.identifier = id
	}
}

// WithLogging selects the log module the machine reports under.
func WithLogging(module string) Option {
	return func(m *Machine) {
		m.logging = module
	}
}

// New builds a machine over a private copy of program.
func New(program []int64, opts ...Option) *Machine {
	m := &Machine{
		mem:         NewMemory(program),
		programHash: Program(program).Hash(),
		logging:     log.IntcodeMonitoring,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) PC() int64 { return m.pc }
func (m *Machine) State() State { return m.state }
func (m *Machine) Steps() uint64 { return m.steps }
func (m *Machine) Memory() *Memory { return m.mem }
func (m *Machine) Err() error { return m.err }
func (m *Machine) ProgramHash() common.Hash { return m.programHash }
func (m *Machine) Budget() *StepBudget { return m.budget }

func (m *Machine) Identifier() string {
	if m.identifier == "" {
		return m.programHash.String_short()
	}
	return m.identifier
}

// Execute resumes without input. It is the usual first call.
func (m *Machine) Execute() (IOResult, error) {
	return m.Resume(nil)
}

// Feed resumes with one input value.
func (m *Machine) Feed(v int64) (IOResult, error) {
	return m.Resume(&v)
}

// Resume runs until the machine needs input that was not supplied, emits one output, or
// halts. input is consumed by the first input instruction reached; if an output or halt
// comes first it is dropped. Once halted or faulted the machine cannot be resumed.
func (m *Machine) Resume(input *int64) (IOResult, error) {
	switch m.state {
	case Halted:
		return IOResult{}, vmerrors.ErrMachineHalted
	case Faulted:
		return IOResult{}, &vmerrors.FaultedError{Cause: m.err}
	}
	m.state = Running

	for {
		op, err := Decode(m.mem, m.pc)
		if err != nil {
			return m.fault(err)
		}
		if op.Opcode == INPUT && input == nil {
			m.state = SuspendedForInput
			log.Debug(m.logging, "suspended for input", "id", m.Identifier(), "pc", m.pc, "steps", m.steps)
			return InputRequiredResult(), nil
		}
		if err := m.budget.Charge(m.pc); err != nil {
			return m.fault(err)
		}
		m.trace(op)
		m.steps++

		switch op.Opcode {
		case ADD, MUL, LESS_THAN, EQUALS:
			a, err := m.mem.Get(op.Args[0])
			if err != nil {
				return m.fault(err)
			}
			b, err := m.mem.Get(op.Args[1])
			if err != nil {
				return m.fault(err)
			}
			if err := m.mem.Set(op.Args[2], arithmetic(op.Opcode, a, b)); err != nil {
				return m.fault(err)
			}
			m.pc += op.Width()

		case INPUT:
			if err := m.mem.Set(op.Args[0], *input); err != nil {
				return m.fault(err)
			}
			input = nil
			m.pc += op.Width()

		case OUTPUT:
			v, err := m.mem.Get(op.Args[0])
			if err != nil {
				return m.fault(err)
			}
			m.pc += op.Width()
			m.state = SuspendedAfterOutput
			return OutputResult(v), nil

		case JUMP_IF_TRUE, JUMP_IF_FALSE:
			cond, err := m.mem.Get(op.Args[0])
			if err != nil {
				return m.fault(err)
			}
			if (cond != 0) == (op.Opcode == JUMP_IF_TRUE) {
				target, err := m.mem.Get(op.Args[1])
				if err != nil {
					return m.fault(err)
				}
				if target < 0 {
					return m.fault(&vmerrors.NegativeAddressError{Address: target})
				}
				m.pc = target
			} else {
				m.pc += op.Width()
			}

		case ADJUST_BASE:
			delta, err := m.mem.Get(op.Args[0])
			if err != nil {
				return m.fault(err)
			}
			m.mem.AdjustBase(delta)
			m.pc += op.Width()

		case HALT:
			v, err := m.mem.Peek(0)
			if err != nil {
				return m.fault(err)
			}
			m.state = Halted
			log.Debug(m.logging, "halted", "id", m.Identifier(), "result", v, "steps", m.steps)
			return HaltResult(v), nil
		}
	}
}

func arithmetic(op Opcode, a, b int64) int64 {
	switch op {
	case ADD:
		return a + b
	case MUL:
		return a * b
	case LESS_THAN:
		if a < b {
			return 1
		}
		return 0
	case EQUALS:
		if a == b {
			return 1
		}
		return 0
	}
	panic(fmt.Sprintf("arithmetic: %v is not an arithmetic opcode", op))
}

func (m *Machine) fault(err error) (IOResult, error) {
	m.state = Faulted
	m.err = err
	log.Warn(m.logging, "machine faulted", "id", m.Identifier(), "pc", m.pc, "steps", m.steps, "err", err)
	return IOResult{}, err
}

func (m *Machine) trace(op Operation) {
	if IntcodeTrace {
		log.Trace(m.logging, op.String(), "id", m.Identifier(), "step", m.steps, "pc", m.pc, "rb", m.mem.relativeBase)
	}
	if len(m.tracers) == 0 {
		return
	}
	rec := StepRecord{
		Step:         m.steps,
		PC:           m.pc,
		Word:         op.Word,
		Op:           op.Mnemonic(),
		Args:         op.Args,
		RelativeBase: m.mem.relativeBase,
	}
	for _, t := range m.tracers {
		t.Step(rec)
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	for st := Ready; st <= Faulted; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown machine state %q", b)
}
