// Package cpu implements the assembler and virtual machine for the
// MIPS-subset assembly runner.
//
// The Assembler turns assembly source text into an immutable Program:
// decoded instructions, a label table, and a data segment of string and
// word allocations. A Machine holds one execution snapshot (registers,
// sparse memory, program counter, output, status); Step produces the
// next snapshot without mutating the previous one, so callers can keep
// the whole chain for inspection and replay.
package cpu
