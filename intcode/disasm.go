package intcode

import (
	"fmt"
	"io"
	"strings"
)

// Line is one row of a disassembly listing.
type Line struct {
	Addr  int64
	Words []int64
	Op    *Operation // nil for data
	Text  string
}

func (l Line) IsData() bool {
	return l.Op == nil
}

// Disassemble walks the image linearly from address 0. Words that do not decode, and
// instructions whose operands run past the end of the image, are emitted as data.
// Self-modifying programs will of course disassemble differently at run time.
func Disassemble(program []int64) []Line {
	mem := NewMemory(program)
	end := int64(len(program))
	lines := make([]Line, 0, len(program))
	for pc := int64(0); pc < end; {
		op, err := Decode(mem, pc)
		if err != nil || pc+op.Width() > end {
			lines = append(lines, Line{
				Addr:  pc,
				Words: []int64{program[pc]},
				Text:  fmt.Sprintf("data %d", program[pc]),
			})
			pc++
			continue
		}
		lines = append(lines, Line{
			Addr:  pc,
			Words: append([]int64(nil), program[pc:pc+op.Width()]...),
			Op:    &op,
			Text:  op.String(),
		})
		pc += op.Width()
	}
	return lines
}

// WriteListing prints lines as "addr: words  text".
func WriteListing(w io.Writer, lines []Line) error {
	for _, l := range lines {
		words := make([]string, len(l.Words))
		for i, v := range l.Words {
			words[i] = fmt.Sprint(v)
		}
		if _, err := fmt.Fprintf(w, "%5d: %-28s %s\n", l.Addr, strings.Join(words, ","), l.Text); err != nil {
			return err
		}
	}
	return nil
}
