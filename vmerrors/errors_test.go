package vmerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorNames(t *testing.T) {
	cases := []struct {
		err  error
		code string
		name string
	}{
		{ErrUnrecognizedOpcode, "I1", "UnrecognizedOpcode"},
		{&UnrecognizedOpcodeError{PC: 0, Word: 98, Opcode: 98, Modes: []int64{0, 0, 0}}, "I1", "UnrecognizedOpcode"},
		{&StepBudgetError{Limit: 10}, "I5", "StepBudgetExceeded"},
		{fmt.Errorf("run: %w", ErrOutOfInput), "run: D1", "OutOfInput"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, GetErrorCode(tc.err))
		assert.Equal(t, tc.name, GetErrorName(tc.err))
	}
	assert.Equal(t, "No Error", GetErrorName(nil))
	assert.Equal(t, "I4_NegativeAddress", GetErrorCodeWithName(&NegativeAddressError{Address: -3}))
	assert.Equal(t, []string{"MachineHalted", "plain"}, GetErrorNames([]error{ErrMachineHalted, errors.New("plain")}))
}

func TestTypedErrorsUnwrap(t *testing.T) {
	var err error = &InvalidWriteTargetError{PC: 4, Word: 11101, Operand: 2}
	assert.ErrorIs(t, err, ErrInvalidWriteTarget)

	faulted := &FaultedError{Cause: &InvalidModeError{Word: 301, Mode: 3}}
	assert.ErrorIs(t, faulted, ErrMachineFaulted)
	assert.ErrorIs(t, faulted, ErrInvalidMode)

	var modeErr *InvalidModeError
	assert.True(t, errors.As(faulted, &modeErr))
	assert.EqualValues(t, 3, modeErr.Mode)
}

func TestCode(t *testing.T) {
	assert.Equal(t, "D1", Code(fmt.Errorf("run: %w", ErrOutOfInput)))
	assert.Equal(t, "I4", Code(fmt.Errorf("Restore: %w", &NegativeAddressError{Address: -1})))
	assert.Equal(t, "I7", Code(&FaultedError{Cause: &StepBudgetError{Limit: 1}}))
	assert.Equal(t, "", Code(errors.New("plain")))
	assert.Equal(t, "", Code(nil))
}
