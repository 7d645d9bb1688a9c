package cpu

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
)

const (
	// MAX_STEPS is the execution step bound. A machine that has not
	// halted after this many executed instructions errors out; this is
	// the sole termination guarantee against infinite loops.
	MAX_STEPS = 10000

	// DATA_BASE is the address where data segment allocation starts.
	DATA_BASE = int32(0x10010000)
)

var _cpu_defines = map[string]string{
	"DATA_BASE": fmt.Sprintf("%#x", uint32(DATA_BASE)),
	"MAX_STEPS": fmt.Sprintf("%v", MAX_STEPS),
}

// Status is the execution status of a machine snapshot.
type Status int

//go:generate go tool stringer -linecomment -type=Status
const (
	STATUS_READY  = Status(0) // ready
	STATUS_HALTED = Status(1) // halted
	STATUS_ERROR  = Status(2) // error
)

// Machine is one execution snapshot. Step derives the next snapshot
// from the current one; a snapshot is never modified after it is
// returned, so any number of them may be retained or run in parallel
// against the same shared Program.
type Machine struct {
	Program *Program // Read-only, shared between snapshots.

	Register [REG_COUNT]int32 // Register file.
	Memory   map[int32]int32  // Sparse word memory, unset addresses read 0.

	Output string // Accumulated syscall output.
	Status Status // ready, halted or error.
	Err    error  // Failure cause when Status is STATUS_ERROR.
	Pc     int    // Index into Program.Instrs.
	Steps  int    // Completed instruction executions.

	// First-write ordered sets, kept for display highlighting only.
	TouchedRegisters []Reg
	TouchedMemory    []int32
}

// NewMachine creates a ready machine for a program, applying the
// caller's initial register values (keyed by register name; the zero
// register is ignored) and memory values (keyed by a textual address,
// parsed like an immediate).
func NewMachine(prog *Program, registers map[string]int32, memory map[string]int32) (m *Machine, err error) {
	m = &Machine{
		Program: prog,
		Memory:  make(map[int32]int32, len(memory)),
		Status:  STATUS_READY,
	}

	for name, value := range registers {
		reg, ok := LookupReg(name)
		if !ok {
			err = ErrUnknownRegister(name)
			return
		}
		if reg == REG_ZERO {
			continue
		}
		m.Register[reg] = value
	}

	for text, value := range memory {
		var addr int32
		addr, err = ParseImm(text)
		if err != nil {
			return
		}
		m.Memory[addr] = value
	}

	return
}

// Defines for the machine
func (m *Machine) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Registers returns the register file in canonical order, keyed by name.
func (m *Machine) Registers() iter.Seq2[string, int32] {
	return func(yield func(name string, value int32) bool) {
		for reg := range Reg(REG_COUNT) {
			if !yield(reg.String(), m.Register[reg]) {
				return
			}
		}
	}
}

// String returns the current machine state as a string.
func (m *Machine) String() (text string) {
	text = fmt.Sprintf("status: %v  pc: %v  steps: %v\n", m.Status, m.Pc, m.Steps)
	if m.Err != nil {
		text += fmt.Sprintf("error: %v\n", m.Err)
	}
	for name, value := range m.Registers() {
		text += fmt.Sprintf("%5s: %08X\n", name, uint32(value))
	}
	for _, addr := range slices.Sorted(maps.Keys(m.Memory)) {
		text += fmt.Sprintf("[%08X]: %08X\n", uint32(addr), uint32(m.Memory[addr]))
	}
	return
}

// clone copies the snapshot, sharing nothing mutable with the original.
func (m *Machine) clone() (next *Machine) {
	next = &Machine{}
	*next = *m
	next.Memory = maps.Clone(m.Memory)
	next.TouchedRegisters = slices.Clone(m.TouchedRegisters)
	next.TouchedMemory = slices.Clone(m.TouchedMemory)
	return
}

// setReg writes a register and records the touch. Writes to the zero
// register are discarded.
func (next *Machine) setReg(reg Reg, value int32) {
	if reg == REG_ZERO {
		return
	}
	next.Register[reg] = value
	if !slices.Contains(next.TouchedRegisters, reg) {
		next.TouchedRegisters = append(next.TouchedRegisters, reg)
	}
}

// setMem writes a memory word and records the touch.
func (next *Machine) setMem(addr int32, value int32) {
	next.Memory[addr] = value
	if !slices.Contains(next.TouchedMemory, addr) {
		next.TouchedMemory = append(next.TouchedMemory, addr)
	}
}

// memAddr computes the effective address of a memory operand.
func (next *Machine) memAddr(mem MemArg) (addr int32) {
	addr = mem.Offset
	if mem.HasBase {
		addr += next.Register[mem.Base]
	}
	return
}

// Step executes the instruction at the program counter and returns the
// resulting snapshot. On a terminal status the receiver is returned
// unchanged. A program counter outside the instruction sequence halts
// the machine; exceeding MAX_STEPS errors it. The zero register
// invariant is re-asserted and the step counter bumped after every
// executed instruction, including one that raises the error state.
func (m *Machine) Step() (next *Machine) {
	if m.Status != STATUS_READY {
		return m
	}

	next = m.clone()

	if m.Pc < 0 || m.Pc >= len(m.Program.Instrs) {
		next.Status = STATUS_HALTED
		return
	}

	if m.Steps >= MAX_STEPS {
		next.Status = STATUS_ERROR
		next.Err = ErrTimeout(MAX_STEPS)
		return
	}

	next.execute(&m.Program.Instrs[m.Pc])

	next.Register[REG_ZERO] = 0
	next.Steps += 1

	return
}

// execute applies a single decoded instruction to the snapshot.
func (next *Machine) execute(in *Instr) {
	next.Pc += 1

	switch in.Op {
	case OP_LI, OP_LA:
		next.setReg(in.Rd, in.Imm)
	case OP_MOVE:
		next.setReg(in.Rd, next.Register[in.Rs])
	case OP_ADDI:
		next.setReg(in.Rd, next.Register[in.Rs]+in.Imm)
	case OP_ADD:
		next.setReg(in.Rd, next.Register[in.Rs]+next.Register[in.Rt])
	case OP_SUB:
		next.setReg(in.Rd, next.Register[in.Rs]-next.Register[in.Rt])
	case OP_LW:
		next.setReg(in.Rd, next.Memory[next.memAddr(in.Mem)])
	case OP_SW:
		next.setMem(next.memAddr(in.Mem), next.Register[in.Rs])
	case OP_BEQ:
		if next.Register[in.Rs] == next.Register[in.Rt] {
			next.Pc = in.Target
		}
	case OP_BNE:
		if next.Register[in.Rs] != next.Register[in.Rt] {
			next.Pc = in.Target
		}
	case OP_J:
		next.Pc = in.Target
	case OP_SYSCALL:
		next.syscall()
	default:
		next.Status = STATUS_ERROR
		next.Err = in.Err
		if next.Err == nil {
			next.Err = ErrBadInstruction(in.Text)
		}
	}
}

// syscall dispatches on the selector in $v0.
func (next *Machine) syscall() {
	arg := next.Register[REG_A0]

	switch selector := next.Register[REG_V0]; selector {
	case SYSCALL_PRINT_INT:
		next.Output += strconv.FormatInt(int64(arg), 10)
	case SYSCALL_PRINT_STRING:
		// Unrecorded addresses print as the empty string.
		next.Output += next.Program.DataValue[arg]
	case SYSCALL_EXIT:
		next.Status = STATUS_HALTED
	case SYSCALL_PRINT_CHAR:
		next.Output += string(rune(arg & 0xff))
	default:
		next.Status = STATUS_ERROR
		next.Err = ErrBadSyscall(selector)
	}
}
