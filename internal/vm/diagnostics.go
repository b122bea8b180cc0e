package vm

import (
	"errors"
	"fmt"

	"github.com/xirelogy/go-hymn/internal/bytecode"
)

var (
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrStackOverflow    = errors.New("stack overflow")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrUndefinedGlobal  = errors.New("undefined global")
	ErrIntegerOverflow  = errors.New("integer overflow")
	ErrDivisionByZero   = errors.New("division by zero")
	ErrNegativeShift    = errors.New("negative shift count")
	ErrInstructionLimit = errors.New("instruction limit exceeded")
	ErrInvalidBytecode  = errors.New("invalid bytecode")
)

// TraceInfo describes a single instruction dispatch for debugging/tracing.
type TraceInfo struct {
	Op     byte
	Name   string
	Script string
	Row    int
	Column int
	IP     int
	Depth  int
}

// TraceHook observes instruction dispatch for debugging/profiling.
type TraceHook func(TraceInfo)

// RuntimeFault reports a failure while executing a chunk. Row and Column
// come from the chunk's position table for the faulting instruction.
type RuntimeFault struct {
	Script  string
	Row     int
	Column  int
	IP      int
	Op      byte
	Message string
	Cause   error
}

func (e *RuntimeFault) Error() string {
	msg := "Runtime error: " + e.Message
	if e.Row > 0 {
		msg = fmt.Sprintf("[Line %d:%d] %s", e.Row, e.Column, msg)
	}
	if e.Script != "" {
		msg = e.Script + ": " + msg
	}
	return msg
}

// Unwrap exposes the sentinel classifying the fault.
func (e *RuntimeFault) Unwrap() error {
	return e.Cause
}

// opError is returned by operators and builtin handlers; the VM turns it
// into a RuntimeFault positioned at the current instruction.
type opError struct {
	cause error
	msg   string
}

func (e *opError) Error() string { return e.msg }
func (e *opError) Unwrap() error { return e.cause }

func opErrorf(cause error, format string, args ...interface{}) error {
	return &opError{cause: cause, msg: fmt.Sprintf(format, args...)}
}

func (vm *VM) faultf(cause error, format string, args ...interface{}) *RuntimeFault {
	return vm.newFault(fmt.Sprintf(format, args...), cause)
}

func (vm *VM) wrapError(err error) *RuntimeFault {
	var fault *RuntimeFault
	if errors.As(err, &fault) {
		return fault
	}
	var oe *opError
	if errors.As(err, &oe) {
		return vm.newFault(oe.msg, oe.cause)
	}
	return vm.newFault(err.Error(), err)
}

func (vm *VM) newFault(msg string, cause error) *RuntimeFault {
	fault := &RuntimeFault{
		IP:      vm.lastOp,
		Message: msg,
		Cause:   cause,
	}
	if vm.chunk != nil {
		fault.Script = vm.chunk.Name
		if vm.lastOp >= 0 && vm.lastOp < len(vm.chunk.Code) {
			fault.Op = vm.chunk.Code[vm.lastOp]
		}
		fault.Row, fault.Column = vm.chunk.Position(vm.lastOp)
	}
	log().Debugf("fault at %04d: %s", vm.lastOp, msg)
	return fault
}

func (vm *VM) trace(op byte) {
	if vm.traceHook == nil {
		return
	}
	info := TraceInfo{
		Op:    op,
		Name:  bytecode.Name(op),
		IP:    vm.lastOp,
		Depth: len(vm.stack),
	}
	if vm.chunk != nil {
		info.Script = vm.chunk.Name
		info.Row, info.Column = vm.chunk.Position(vm.lastOp)
	}
	vm.traceHook(info)
}
