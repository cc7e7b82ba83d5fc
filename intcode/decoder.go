package intcode

import (
	"fmt"
	"strings"

	"github.com/colorfulnotion/intcode/vmerrors"
)

// OpcodeWithModes is an instruction word split into its opcode (low two digits) and the
// parameter modes of up to three operands (next digits, least significant first).
type OpcodeWithModes struct {
	Word   int64
	Opcode Opcode
	Modes  [3]Mode
}

// DecodeWord splits an instruction word. Missing mode digits are position mode. Mode digits
// are not validated here; only the operands an instruction actually uses are checked.
func DecodeWord(word int64) OpcodeWithModes {
	ow := OpcodeWithModes{Word: word, Opcode: Opcode(word % 100)}
	rest := word / 100
	for i := range ow.Modes {
		ow.Modes[i] = Mode(rest % 10)
		rest /= 10
	}
	return ow
}

func (ow OpcodeWithModes) modeDigits() []int64 {
	return []int64{int64(ow.Modes[0]), int64(ow.Modes[1]), int64(ow.Modes[2])}
}

// Operation is one decoded instruction.
type Operation struct {
	PC     int64
	Word   int64
	Opcode Opcode
	Args   []Argument
}

// Width is the number of memory cells the instruction occupies.
func (op Operation) Width() int64 {
	return 1 + int64(len(op.Args))
}

func (op Operation) Mnemonic() string {
	return op.Opcode.String()
}

func (op Operation) String() string {
	if len(op.Args) == 0 {
		return op.Mnemonic()
	}
	args := make([]string, len(op.Args))
	for i, a := range op.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s %s", op.Mnemonic(), strings.Join(args, ", "))
}

// Decode reads the instruction at pc together with its operands. Cells past the end of
// memory are read as zero; decoding never grows memory.
func Decode(mem *Memory, pc int64) (Operation, error) {
	word, err := mem.load(pc)
	if err != nil {
		return Operation{}, err
	}
	ow := DecodeWord(word)
	n, ok := operandCount[ow.Opcode]
	if !ok {
		return Operation{}, &vmerrors.UnrecognizedOpcodeError{
			PC:     pc,
			Word:   word,
			Opcode: int64(ow.Opcode),
			Modes:  ow.modeDigits(),
		}
	}

	op := Operation{PC: pc, Word: word, Opcode: ow.Opcode}
	if n == 0 {
		return op, nil
	}
	target := writeOperand(ow.Opcode)
	op.Args = make([]Argument, n)
	for i := 0; i < n; i++ {
		mode := ow.Modes[i]
		if !mode.Valid() {
			return Operation{}, &vmerrors.InvalidModeError{PC: pc, Word: word, Operand: i, Mode: int64(mode)}
		}
		if i == target && mode == Immediate {
			return Operation{}, &vmerrors.InvalidWriteTargetError{PC: pc, Word: word, Operand: i}
		}
		v, err := mem.load(pc + 1 + int64(i))
		if err != nil {
			return Operation{}, err
		}
		op.Args[i] = Argument{Mode: mode, Value: v}
	}
	return op, nil
}
