package cpu

import (
	"fmt"
)

// InstrOp is a decoded instruction operation.
type InstrOp int

//go:generate go tool stringer -linecomment -type=InstrOp
const (
	OP_INVALID = InstrOp(0)  // invalid
	OP_LI      = InstrOp(1)  // li
	OP_LA      = InstrOp(2)  // la
	OP_MOVE    = InstrOp(3)  // move
	OP_ADDI    = InstrOp(4)  // addi
	OP_ADD     = InstrOp(5)  // add
	OP_SUB     = InstrOp(6)  // sub
	OP_LW      = InstrOp(7)  // lw
	OP_SW      = InstrOp(8)  // sw
	OP_BEQ     = InstrOp(9)  // beq
	OP_BNE     = InstrOp(10) // bne
	OP_J       = InstrOp(11) // j
	OP_SYSCALL = InstrOp(12) // syscall
)

// Syscall selector values, dispatched on $v0.
const (
	SYSCALL_PRINT_INT    = int32(1)  // Print $a0 as a decimal integer.
	SYSCALL_PRINT_STRING = int32(4)  // Print the string at data address $a0.
	SYSCALL_EXIT         = int32(10) // Halt the machine.
	SYSCALL_PRINT_CHAR   = int32(11) // Print the low byte of $a0.
)

// MemArg is a memory operand: either offset(base), or an absolute
// address from a literal or a data label. Label operands carry the
// label name until the assembler's link pass fills in Offset.
type MemArg struct {
	Base    Reg
	HasBase bool
	Offset  int32
	Label   string
}

func (mem MemArg) String() (out string) {
	switch {
	case mem.HasBase:
		out = fmt.Sprintf("%v(%v)", mem.Offset, mem.Base)
	case mem.Label != "":
		out = mem.Label
	default:
		out = fmt.Sprintf("%v", mem.Offset)
	}
	return
}

// Instr is one decoded instruction. Text and LineNo always hold the
// source form for listings and error reporting. An instruction that
// failed to decode or link keeps Op == OP_INVALID and the deferred
// error in Err; the error is raised only if the instruction is reached.
type Instr struct {
	Op     InstrOp
	Text   string
	LineNo int

	Rd, Rs, Rt Reg
	Imm        int32
	Label      string
	Target     int
	Mem        MemArg

	Err error
}

// String returns the assembly language representation of the instruction.
func (in Instr) String() (out string) {
	switch in.Op {
	case OP_LI:
		out = fmt.Sprintf("%v %v, %v", in.Op, in.Rd, in.Imm)
	case OP_LA:
		out = fmt.Sprintf("%v %v, %v", in.Op, in.Rd, in.Label)
	case OP_MOVE:
		out = fmt.Sprintf("%v %v, %v", in.Op, in.Rd, in.Rs)
	case OP_ADDI:
		out = fmt.Sprintf("%v %v, %v, %v", in.Op, in.Rd, in.Rs, in.Imm)
	case OP_ADD, OP_SUB:
		out = fmt.Sprintf("%v %v, %v, %v", in.Op, in.Rd, in.Rs, in.Rt)
	case OP_LW:
		out = fmt.Sprintf("%v %v, %v", in.Op, in.Rd, in.Mem)
	case OP_SW:
		out = fmt.Sprintf("%v %v, %v", in.Op, in.Rs, in.Mem)
	case OP_BEQ, OP_BNE:
		out = fmt.Sprintf("%v %v, %v, %v", in.Op, in.Rs, in.Rt, in.Label)
	case OP_J:
		out = fmt.Sprintf("%v %v", in.Op, in.Label)
	case OP_SYSCALL:
		out = in.Op.String()
	default:
		out = fmt.Sprintf("%v '%v'", in.Op, in.Text)
	}
	return
}
