package intcode

import (
	"github.com/colorfulnotion/intcode/vmerrors"
	"golang.org/x/exp/slices"
)

const minCapacity = 64

// MaxAddressable is the number of cells any machine may address, whatever its memory limit.
const MaxAddressable int64 = 1 << 26

// Memory is the machine's integer store. Any address that is read or written becomes valid,
// zero filled; memory never shrinks.
type Memory struct {
	cells        []int64
	relativeBase int64
	limit        int64 // max cells, 0 = MaxAddressable
}

// NewMemory returns memory holding a private copy of program.
func NewMemory(program []int64) *Memory {
	cells := make([]int64, len(program), max(len(program), minCapacity))
	copy(cells, program)
	return &Memory{cells: cells}
}

func (m *Memory) Len() int {
	return len(m.cells)
}

func (m *Memory) RelativeBase() int64 {
	return m.relativeBase
}

func (m *Memory) AdjustBase(delta int64) {
	m.relativeBase += delta
}

// Limit is the number of addressable cells.
func (m *Memory) Limit() int64 {
	if m.limit > 0 && m.limit < MaxAddressable {
		return m.limit
	}
	return MaxAddressable
}

// Cells returns a copy of the current contents.
func (m *Memory) Cells() []int64 {
	return slices.Clone(m.cells)
}

// ensure grows the store so that addr is addressable. Cells between the old length and
// the old capacity were never written, so reslicing exposes zeros.
func (m *Memory) ensure(addr int64) error {
	if addr < 0 {
		return &vmerrors.NegativeAddressError{Address: addr}
	}
	if addr < int64(len(m.cells)) {
		return nil
	}
	limit := m.Limit()
	if addr >= limit {
		return &vmerrors.MemoryLimitError{Limit: limit, Address: addr}
	}
	need := addr + 1
	if need > int64(cap(m.cells)) {
		newCap := min(max(need, 2*int64(cap(m.cells)), minCapacity), limit)
		grown := make([]int64, len(m.cells), newCap)
		copy(grown, m.cells)
		m.cells = grown
	}
	m.cells = m.cells[:need]
	return nil
}

// load reads addr without extending memory; cells past the end read as zero.
func (m *Memory) load(addr int64) (int64, error) {
	if addr < 0 {
		return 0, &vmerrors.NegativeAddressError{Address: addr}
	}
	if addr < int64(len(m.cells)) {
		return m.cells[addr], nil
	}
	if limit := m.Limit(); addr >= limit {
		return 0, &vmerrors.MemoryLimitError{Limit: limit, Address: addr}
	}
	return 0, nil
}

// Peek reads one cell, extending memory if needed.
func (m *Memory) Peek(addr int64) (int64, error) {
	if err := m.ensure(addr); err != nil {
		return 0, err
	}
	return m.cells[addr], nil
}

// Poke writes one cell, extending memory if needed.
func (m *Memory) Poke(addr int64, value int64) error {
	if err := m.ensure(addr); err != nil {
		return err
	}
	m.cells[addr] = value
	return nil
}

// Address resolves a position or relative operand to its effective address.
func (m *Memory) Address(arg Argument) int64 {
	if arg.Mode == Relative {
		return m.relativeBase + arg.Value
	}
	return arg.Value
}

// Get returns the effective value of arg.
func (m *Memory) Get(arg Argument) (int64, error) {
	if arg.Mode == Immediate {
		return arg.Value, nil
	}
	return m.Peek(m.Address(arg))
}

// Set stores value through arg. Immediate operands are never write targets: the decoder
// rejects them, so reaching here with one is a bug and panics.
func (m *Memory) Set(arg Argument, value int64) error {
	if arg.Mode == Immediate {
		panic(&vmerrors.InvalidWriteTargetError{PC: -1, Word: arg.Value, Operand: -1})
	}
	return m.Poke(m.Address(arg), value)
}
