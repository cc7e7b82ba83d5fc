package intcode

import "github.com/colorfulnotion/intcode/vmerrors"

// StepBudget bounds how many instructions a machine may execute over its lifetime.
// A nil budget or a zero limit is unlimited.
type StepBudget struct {
	limit uint64
	used  uint64
}

func NewStepBudget(limit uint64) *StepBudget {
	return &StepBudget{limit: limit}
}

func (b *StepBudget) Limit() uint64 {
	if b == nil {
		return 0
	}
	return b.limit
}

func (b *StepBudget) Used() uint64 {
	if b == nil {
		return 0
	}
	return b.used
}

// Remaining is meaningless for an unlimited budget and reports 0 there.
func (b *StepBudget) Remaining() uint64 {
	if b == nil || b.limit == 0 {
		return 0
	}
	return b.limit - b.used
}

// Charge accounts for one instruction about to run at pc.
func (b *StepBudget) Charge(pc int64) error {
	if b == nil || b.limit == 0 {
		return nil
	}
	if b.used >= b.limit {
		return &vmerrors.StepBudgetError{Limit: b.limit, PC: pc}
	}
	b.used++
	return nil
}
