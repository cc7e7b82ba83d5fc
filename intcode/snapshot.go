package intcode

import (
	"fmt"

	"github.com/colorfulnotion/intcode/common"
	"github.com/colorfulnotion/intcode/vmerrors"
	"github.com/fxamacker/cbor/v2"
)

// Snapshot is the complete resumable state of a machine between Resume calls.
type Snapshot struct {
	PC           int64       `json:"pc" cbor:"1,keyasint"`
	RelativeBase int64       `json:"relative_base" cbor:"2,keyasint"`
	Steps        uint64      `json:"steps" cbor:"3,keyasint"`
	State        State       `json:"state" cbor:"4,keyasint"`
	Memory       []int64     `json:"memory" cbor:"5,keyasint"`
	ProgramHash  common.Hash `json:"program_hash" cbor:"6,keyasint"`
}

var snapshotEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("intcode: failed to create CBOR enc mode: %v", err))
	}
	snapshotEncMode = em
}

// Snapshot captures the machine's state. The memory is copied.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		PC:           m.pc,
		RelativeBase: m.mem.relativeBase,
		Steps:        m.steps,
		State:        m.state,
		Memory:       m.mem.Cells(),
		ProgramHash:  m.programHash,
	}
}

// Restore builds a new machine from s. Options apply as for New; a step budget starts
// counting afresh. Faulted snapshots cannot be restored.
func Restore(s Snapshot, opts ...Option) (*Machine, error) {
	switch s.State {
	case Faulted:
		return nil, fmt.Errorf("Restore: snapshot of a faulted machine")
	case Running:
		return nil, fmt.Errorf("Restore: snapshot taken mid-run")
	}
	if s.State > Faulted {
		return nil, fmt.Errorf("Restore: unknown state %d", s.State)
	}
	if s.PC < 0 {
		return nil, fmt.Errorf("Restore: %w", &vmerrors.NegativeAddressError{Address: s.PC})
	}
	m := New(s.Memory, opts...)
	m.pc = s.PC
	m.mem.relativeBase = s.RelativeBase
	m.steps = s.Steps
	m.state = s.State
	m.programHash = s.ProgramHash
	return m, nil
}

func MarshalSnapshot(s Snapshot) ([]byte, error) {
	return snapshotEncMode.Marshal(s)
}

func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("intcode: unmarshal snapshot: %w", err)
	}
	return s, nil
}
