// Package emulator drives a loaded program: single stepping, running to
// a terminal state, snapshot history with step-back, and source line
// mapping for an inspector front end.
package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/codeboard/mips/cpu"
	"github.com/codeboard/mips/internal"
)

const (
	// HISTORY_LIMIT caps the snapshots retained for step-back. The
	// step bound means a run can never produce more than this many.
	HISTORY_LIMIT = cpu.MAX_STEPS + 1
)

var _emulator_defines = map[string]string{
	"HISTORY_LIMIT": fmt.Sprintf("%v", HISTORY_LIMIT),
}

// Emulator binds a program to its current machine snapshot.
type Emulator struct {
	Verbose bool         // If set, enables verbose logging.
	Program *cpu.Program // Reference to the loaded program.
	Machine *cpu.Machine // Current snapshot.

	history []*cpu.Machine
}

// NewEmulator creates an emulator for a loaded program, with a fresh
// machine and no initial overrides.
func NewEmulator(prog *cpu.Program) (emu *Emulator, err error) {
	emu = &Emulator{
		Program: prog,
	}

	err = emu.Reset(nil, nil)

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Machine.Defines(),
	)
}

// Reset replaces the machine with a fresh snapshot built from the
// caller's initial register and memory values, and clears the history.
func (emu *Emulator) Reset(registers map[string]int32, memory map[string]int32) (err error) {
	machine, err := cpu.NewMachine(emu.Program, registers, memory)
	if err != nil {
		return
	}

	emu.Machine = machine
	emu.history = emu.history[:0]

	return
}

// LineNo returns the source line number for the current program counter.
func (emu *Emulator) LineNo() int {
	return emu.Program.LineNo(emu.Machine.Pc)
}

// Steps returns the executed instruction count of the current snapshot.
func (emu *Emulator) Steps() int {
	return emu.Machine.Steps
}

// Output returns the accumulated output of the current snapshot.
func (emu *Emulator) Output() string {
	return emu.Machine.Output
}

// Tick advances the machine by one step. It reports done when the
// machine is in a terminal state afterwards, and a located error when
// the step entered the error state. Ticking a terminal machine is a
// no-op.
func (emu *Emulator) Tick() (done bool, err error) {
	if emu.Machine.Status != cpu.STATUS_READY {
		done = true
		return
	}

	lineno := emu.LineNo()

	if emu.Verbose && emu.Machine.Pc < len(emu.Program.Instrs) {
		log.Printf("%3d: %v", emu.Machine.Pc, emu.Program.Instrs[emu.Machine.Pc])
	}

	next := emu.Machine.Step()
	if len(emu.history) < HISTORY_LIMIT {
		emu.history = append(emu.history, emu.Machine)
	}
	emu.Machine = next

	switch next.Status {
	case cpu.STATUS_HALTED:
		done = true
	case cpu.STATUS_ERROR:
		done = true
		err = &ErrRuntime{LineNo: lineno, Err: next.Err}
	}

	return
}

// Run ticks until the machine reaches a terminal state.
func (emu *Emulator) Run() (err error) {
	var done bool
	for !done {
		done, err = emu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// StepBack rewinds the machine to the previous snapshot. It reports
// false when there is no history left.
func (emu *Emulator) StepBack() (ok bool) {
	if len(emu.history) == 0 {
		return
	}

	emu.Machine = emu.history[len(emu.history)-1]
	emu.history = emu.history[:len(emu.history)-1]
	ok = true

	return
}

// RunToEnd steps a machine until it leaves the ready state. The result
// is always halted or errored; the step bound guarantees termination.
func RunToEnd(m *cpu.Machine) *cpu.Machine {
	for m.Status == cpu.STATUS_READY {
		m = m.Step()
	}

	return m
}
