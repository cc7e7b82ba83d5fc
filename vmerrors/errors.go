package vmerrors

import (
	"errors"
	"fmt"
	"strings"
)

// Intcode (I) Errors
var (
	ErrUnrecognizedOpcode  = errors.New("I1|UnrecognizedOpcode: Instruction word does not name a known opcode.")
	ErrInvalidWriteTarget  = errors.New("I2|InvalidWriteTarget: Write destination uses immediate mode.")
	ErrInvalidMode         = errors.New("I3|InvalidMode: Parameter mode digit is not 0, 1 or 2.")
	ErrNegativeAddress     = errors.New("I4|NegativeAddress: Resolved address or jump target is below zero.")
	ErrStepBudgetExceeded  = errors.New("I5|StepBudgetExceeded: Machine executed more instructions than its budget allows.")
	ErrMachineHalted       = errors.New("I6|MachineHalted: Machine already halted and cannot be resumed.")
	ErrMachineFaulted      = errors.New("I7|MachineFaulted: Machine stopped on an earlier error and cannot be resumed.")
	ErrInvalidProgramImage = errors.New("I8|InvalidProgramImage: Program text is not a comma separated list of integers.")
	ErrMemoryLimitExceeded = errors.New("I9|MemoryLimitExceeded: Address lies beyond the machine's memory limit.")
)

// Driver (D) Errors
var (
	ErrOutOfInput       = errors.New("D1|OutOfInput: Machine requested input but no scripted input remains.")
	ErrUnexpectedResult = errors.New("D2|UnexpectedResult: Machine returned a result the driver cannot handle.")
	ErrNoMachineLoaded  = errors.New("D3|NoMachineLoaded: No program has been loaded into this session.")
	ErrSnapshotNotFound = errors.New("D4|SnapshotNotFound: No snapshot is stored under that name.")
)

// UnrecognizedOpcodeError carries the offending instruction word and its decoded modes.
type UnrecognizedOpcodeError struct {
	PC     int64
	Word   int64
	Opcode int64
	Modes  []int64
}

func (e *UnrecognizedOpcodeError) Error() string {
	return fmt.Sprintf("%v (pc=%d word=%d opcode=%d modes=%v)", ErrUnrecognizedOpcode, e.PC, e.Word, e.Opcode, e.Modes)
}

func (e *UnrecognizedOpcodeError) Unwrap() error { return ErrUnrecognizedOpcode }

// InvalidWriteTargetError names the instruction and operand slot that asked for an immediate write.
type InvalidWriteTargetError struct {
	PC      int64
	Word    int64
	Operand int
}

func (e *InvalidWriteTargetError) Error() string {
	return fmt.Sprintf("%v (pc=%d word=%d operand=%d)", ErrInvalidWriteTarget, e.PC, e.Word, e.Operand)
}

func (e *InvalidWriteTargetError) Unwrap() error { return ErrInvalidWriteTarget }

type InvalidModeError struct {
	PC      int64
	Word    int64
	Operand int
	Mode    int64
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("%v (pc=%d word=%d operand=%d mode=%d)", ErrInvalidMode, e.PC, e.Word, e.Operand, e.Mode)
}

func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

type NegativeAddressError struct {
	Address int64
}

func (e *NegativeAddressError) Error() string {
	return fmt.Sprintf("%v (address=%d)", ErrNegativeAddress, e.Address)
}

func (e *NegativeAddressError) Unwrap() error { return ErrNegativeAddress }

type MemoryLimitError struct {
	Limit   int64
	Address int64
}

func (e *MemoryLimitError) Error() string {
	return fmt.Sprintf("%v (limit=%d address=%d)", ErrMemoryLimitExceeded, e.Limit, e.Address)
}

func (e *MemoryLimitError) Unwrap() error { return ErrMemoryLimitExceeded }

type StepBudgetError struct {
	Limit uint64
	PC    int64
}

func (e *StepBudgetError) Error() string {
	return fmt.Sprintf("%v (limit=%d pc=%d)", ErrStepBudgetExceeded, e.Limit, e.PC)
}

func (e *StepBudgetError) Unwrap() error { return ErrStepBudgetExceeded }

// FaultedError is returned by every resume after the first failure.
type FaultedError struct {
	Cause error
}

func (e *FaultedError) Error() string {
	return fmt.Sprintf("%v: %v", ErrMachineFaulted, e.Cause)
}

func (e *FaultedError) Unwrap() []error { return []error{ErrMachineFaulted, e.Cause} }

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	nameParts := strings.SplitN(parts[1], ":", 2)
	return strings.TrimSpace(nameParts[0])
}

func GetErrorNames(errs []error) []string {
	errStrs := make([]string, len(errs))
	for i, err := range errs {
		errStrs[i] = GetErrorName(err)
	}
	return errStrs
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// sentinels is searched in order by Code; MachineFaulted comes first so that a faulted
// machine reports I7 rather than its original cause.
var sentinels = []error{
	ErrMachineFaulted,
	ErrUnrecognizedOpcode, ErrInvalidWriteTarget, ErrInvalidMode, ErrNegativeAddress,
	ErrStepBudgetExceeded, ErrMachineHalted, ErrInvalidProgramImage, ErrMemoryLimitExceeded,
	ErrOutOfInput, ErrUnexpectedResult, ErrNoMachineLoaded, ErrSnapshotNotFound,
}

// Code returns the code of the first known sentinel err wraps, or "" if it wraps none.
func Code(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return GetErrorCode(s)
		}
	}
	return ""
}
