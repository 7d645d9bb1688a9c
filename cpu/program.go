package cpu

import (
	"iter"
)

// Program is the immutable, loaded form of assembly source.
type Program struct {
	Instrs      []Instr          // Decoded instructions, in source order.
	Labels      map[string]int   // Text label to instruction index.
	DataAddress map[string]int32 // Data label to allocated address.
	DataValue   map[int32]string // Allocated address to string payload.
}

// Instructions iterates the instruction sequence with its indexes.
func (prog *Program) Instructions() iter.Seq2[int, Instr] {
	return func(yield func(pc int, in Instr) bool) {
		for pc, in := range prog.Instrs {
			if !yield(pc, in) {
				return
			}
		}
	}
}

// LineNo returns the source line number for an instruction index, or 0
// when the index is outside the program.
func (prog *Program) LineNo(pc int) int {
	if pc < 0 || pc >= len(prog.Instrs) {
		return 0
	}

	return prog.Instrs[pc].LineNo
}
