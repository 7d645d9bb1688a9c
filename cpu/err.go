package cpu

import (
	"errors"

	"github.com/codeboard/mips/translate"
)

var f = translate.From

var (
	// Loader errors
	ErrProgramEmpty    = errors.New(f("program contains no instructions"))
	ErrEquateSyntax    = errors.New(f(".eqv syntax"))
	ErrEquateDuplicate = errors.New(f(".eqv duplicated"))
)

// ErrSyntax indicates the location of a load-time failure.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err *ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

type ErrBadMemArg string

func (err ErrBadMemArg) Error() string {
	return f("'%v' is not a memory operand", string(err))
}

type ErrUnknownRegister string

func (err ErrUnknownRegister) Error() string {
	return f("unknown register '%v'", string(err))
}

type ErrUnknownLabel string

func (err ErrUnknownLabel) Error() string {
	return f("unknown label '%v'", string(err))
}

type ErrBadInstruction string

func (err ErrBadInstruction) Error() string {
	return f("unsupported instruction '%v'", string(err))
}

type ErrBadSyscall int32

func (err ErrBadSyscall) Error() string {
	return f("unsupported syscall %v", int32(err))
}

type ErrTimeout int

func (err ErrTimeout) Error() string {
	return f("timed out after %v steps", int(err))
}
