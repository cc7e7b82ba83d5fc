package intcode

import "fmt"

type Opcode int64

const (
	ADD           Opcode = 1
	MUL           Opcode = 2
	INPUT         Opcode = 3
	OUTPUT        Opcode = 4
	JUMP_IF_TRUE  Opcode = 5
	JUMP_IF_FALSE Opcode = 6
	LESS_THAN     Opcode = 7
	EQUALS        Opcode = 8
	ADJUST_BASE   Opcode = 9
	HALT          Opcode = 99
)

// OpcodeNames maps opcode values to their mnemonics
var OpcodeNames = map[Opcode]string{
	ADD:           "add",
	MUL:           "mul",
	INPUT:         "in",
	OUTPUT:        "out",
	JUMP_IF_TRUE:  "jnz",
	JUMP_IF_FALSE: "jz",
	LESS_THAN:     "lt",
	EQUALS:        "eq",
	ADJUST_BASE:   "arb",
	HALT:          "halt",
}

var operandCount = map[Opcode]int{
	ADD:           3,
	MUL:           3,
	INPUT:         1,
	OUTPUT:        1,
	JUMP_IF_TRUE:  2,
	JUMP_IF_FALSE: 2,
	LESS_THAN:     3,
	EQUALS:        3,
	ADJUST_BASE:   1,
	HALT:          0,
}

// writeOperand is the operand slot each instruction stores into, -1 when it stores nothing.
func writeOperand(op Opcode) int {
	switch op {
	case ADD, MUL, LESS_THAN, EQUALS:
		return 2
	case INPUT:
		return 0
	default:
		return -1
	}
}

// OperandCount reports how many operands follow the instruction word, and whether op is known.
func OperandCount(op Opcode) (int, bool) {
	n, ok := operandCount[op]
	return n, ok
}

// IsBlockTerminator reports whether op ends a basic block.
func IsBlockTerminator(op Opcode) bool {
	switch op {
	case JUMP_IF_TRUE, JUMP_IF_FALSE, HALT:
		return true
	}
	return false
}

func (op Opcode) String() string {
	if name, ok := OpcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int64(op))
}

type Mode int64

const (
	Position  Mode = 0
	Immediate Mode = 1
	Relative  Mode = 2
)

func (m Mode) Valid() bool {
	return m == Position || m == Immediate || m == Relative
}

func (m Mode) String() string {
	switch m {
	case Position:
		return "position"
	case Immediate:
		return "immediate"
	case Relative:
		return "relative"
	default:
		return fmt.Sprintf("mode(%d)", int64(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "position":
		*m = Position
	case "immediate":
		*m = Immediate
	case "relative":
		*m = Relative
	default:
		return fmt.Errorf("unknown parameter mode %q", b)
	}
	return nil
}

// Argument is one operand together with the addressing mode it is resolved through.
type Argument struct {
	Mode  Mode  `json:"mode"`
	Value int64 `json:"value"`
}

func PositionArg(addr int64) Argument { return Argument{Mode: Position, Value: addr} }
func ImmediateArg(v int64) Argument { return Argument{Mode: Immediate, Value: v} }
func RelativeArg(offset int64) Argument { return Argument{Mode: Relative, Value: offset} }

func (a Argument) String() string {
	switch a.Mode {
	case Position:
		return fmt.Sprintf("[%d]", a.Value)
	case Immediate:
		return fmt.Sprintf("%d", a.Value)
	case Relative:
		if a.Value < 0 {
			return fmt.Sprintf("[rb%d]", a.Value)
		}
		return fmt.Sprintf("[rb+%d]", a.Value)
	default:
		return fmt.Sprintf("?%d", a.Value)
	}
}
