package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func parse(t *testing.T, lines ...string) *Program {
	t.Helper()

	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	return prog
}

func TestAssembler(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}

	_, err := asm.Parse(strings.NewReader(""))
	assert.ErrorIs(err, ErrProgramEmpty)

	assert.Equal("0", asm.Equate["LINENO"])
	assert.Equal(fmt.Sprintf("%#x", uint32(DATA_BASE)), asm.Equate["DATA_BASE"])
	assert.Equal(fmt.Sprintf("%v", MAX_STEPS), asm.Equate["MAX_STEPS"])

	// Comments and blank lines alone are still an empty program.
	_, err = asm.Parse(strings.NewReader("# comment only\n\n   \n.text\n"))
	assert.ErrorIs(err, ErrProgramEmpty)

	var syn *ErrSyntax
	assert.True(errors.As(err, &syn))
}

func TestAssemblerDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		line string
		want Instr
	}){
		{"li", "li $t0, 42", Instr{Op: OP_LI, Rd: REG_T0, Imm: 42}},
		{"li_hex", "li $t0, 0x2a", Instr{Op: OP_LI, Rd: REG_T0, Imm: 42}},
		{"li_neg", "li $v1, -1", Instr{Op: OP_LI, Rd: REG_V1, Imm: -1}},
		{"li_wrap", "li $t1, 0xffffffff", Instr{Op: OP_LI, Rd: REG_T1, Imm: -1}},
		{"move", "move $s0, $a3", Instr{Op: OP_MOVE, Rd: REG_S0, Rs: REG_A3}},
		{"addi", "addi $sp, $sp, -4", Instr{Op: OP_ADDI, Rd: REG_SP, Rs: REG_SP, Imm: -4}},
		{"add", "add $t2, $t0, $t1", Instr{Op: OP_ADD, Rd: REG_T2, Rs: REG_T0, Rt: REG_T1}},
		{"sub", "sub $t2, $t0, $t1", Instr{Op: OP_SUB, Rd: REG_T2, Rs: REG_T0, Rt: REG_T1}},
		{"lw", "lw $t0, 8($sp)", Instr{Op: OP_LW, Rd: REG_T0, Mem: MemArg{Base: REG_SP, HasBase: true, Offset: 8}}},
		{"lw_neg", "lw $t0, -8($fp)", Instr{Op: OP_LW, Rd: REG_T0, Mem: MemArg{Base: REG_FP, HasBase: true, Offset: -8}}},
		{"lw_bare", "lw $t0, ($gp)", Instr{Op: OP_LW, Rd: REG_T0, Mem: MemArg{Base: REG_GP, HasBase: true}}},
		{"lw_lit", "lw $t0, 0x100", Instr{Op: OP_LW, Rd: REG_T0, Mem: MemArg{Offset: 0x100}}},
		{"sw", "sw $ra, 0($sp)", Instr{Op: OP_SW, Rs: REG_RA, Mem: MemArg{Base: REG_SP, HasBase: true}}},
		{"syscall", "syscall", Instr{Op: OP_SYSCALL}},
		{"upper", "LI $T0, 7", Instr{Op: OP_LI, Rd: REG_T0, Imm: 7}},
	}

	for _, entry := range table {
		prog := parse(t, entry.line)
		assert.Equal(1, len(prog.Instrs), entry.name)

		in := prog.Instrs[0]
		entry.want.Text = in.Text
		entry.want.LineNo = in.LineNo
		assert.Equal(entry.want, in, entry.name)
		assert.Equal(1, in.LineNo, entry.name)
	}
}

func TestAssemblerLabels(t *testing.T) {
	assert := assert.New(t)

	prog := parse(t,
		"start:",
		"li $t0, 1",
		"mid: li $t1, 2",
		"j start",
		"end:",
	)

	assert.Equal(3, len(prog.Instrs))
	assert.Equal(0, prog.Labels["start"])
	assert.Equal(1, prog.Labels["mid"])
	assert.Equal(3, prog.Labels["end"])

	assert.Equal(OP_J, prog.Instrs[2].Op)
	assert.Equal(0, prog.Instrs[2].Target)
}

func TestAssemblerData(t *testing.T) {
	assert := assert.New(t)

	prog := parse(t,
		".data",
		`msg: .asciiz "Hi\n"`,
		`quote: .asciiz "say \"hi\""`,
		"vec: .word 1, 2, 3",
		"one: .word",
		"pad: .space 64", // unsupported directive, allocates nothing
		"last: .word 9",
		".text",
		"la $a0, msg",
		"la $a1, last",
		"lw $t0, vec",
	)

	base := DATA_BASE
	assert.Equal(base, prog.DataAddress["msg"])
	assert.Equal("Hi\n", prog.DataValue[base])

	// "Hi\n" is 3 bytes plus the terminator.
	quote := base + 4
	assert.Equal(quote, prog.DataAddress["quote"])
	assert.Equal(`say "hi"`, prog.DataValue[quote])

	vec := quote + int32(len(`say "hi"`)) + 1
	assert.Equal(vec, prog.DataAddress["vec"])
	one := vec + 3*4
	assert.Equal(one, prog.DataAddress["one"])

	// A bare .word still reserves one word; .space reserves nothing.
	assert.Equal(one+4, prog.DataAddress["pad"])
	assert.Equal(one+4, prog.DataAddress["last"])

	assert.Equal(base, prog.Instrs[0].Imm)
	assert.Equal(one+4, prog.Instrs[1].Imm)
	assert.Equal(vec, prog.Instrs[2].Mem.Offset)
	assert.False(prog.Instrs[2].Mem.HasBase)
}

func TestAssemblerComments(t *testing.T) {
	assert := assert.New(t)

	prog := parse(t,
		"# leading comment",
		".globl main",
		"main:",
		"li $t0, 1 # trailing comment",
	)

	assert.Equal(1, len(prog.Instrs))
	assert.Equal(OP_LI, prog.Instrs[0].Op)
	assert.Equal(4, prog.Instrs[0].LineNo)
	assert.Equal(0, prog.Labels["main"])
}

func TestAssemblerLazyErrors(t *testing.T) {
	assert := assert.New(t)

	// Malformed and unresolvable lines load fine; only execution of
	// the line raises the deferred error.
	table := [](struct {
		name string
		line string
		err  error
	}){
		{"mnemonic", "foo $t0,$t1", ErrBadInstruction("foo $t0,$t1")},
		{"commas", ",", ErrBadInstruction(",")},
		{"commas-spaced", ", ,", ErrBadInstruction(", ,")},
		{"operands", "add $t0, $t1", ErrBadInstruction("add $t0, $t1")},
		{"register", "li $t9x, 1", ErrBadInstruction("li $t9x, 1")},
		{"immediate", "li $t0, bogus", ErrParseNumber("bogus")},
		{"memarg", "lw $t0, 4[$sp]", ErrBadMemArg("4[$sp]")},
		{"jump", "j nowhere", ErrUnknownLabel("nowhere")},
		{"branch", "beq $t0, $t1, nowhere", ErrUnknownLabel("nowhere")},
		{"la", "la $a0, nothing", ErrUnknownLabel("nothing")},
	}

	for _, entry := range table {
		prog := parse(t, entry.line)
		in := prog.Instrs[0]
		assert.Equal(OP_INVALID, in.Op, entry.name)
		assert.Equal(entry.err, in.Err, entry.name)
	}
}

func TestAssemblerLongLine(t *testing.T) {
	assert := assert.New(t)

	// A line beyond the scanner's token limit fails the load instead of
	// truncating the program.
	asm := &Assembler{}
	source := "li $t0, 1\n# " + strings.Repeat("a", bufio.MaxScanTokenSize+1) + "\n"
	_, err := asm.Parse(strings.NewReader(source))
	assert.ErrorIs(err, bufio.ErrTooLong)

	var syn *ErrSyntax
	assert.ErrorAs(err, &syn)
	assert.Equal(2, syn.LineNo)
}

func TestAssemblerEquates(t *testing.T) {
	assert := assert.New(t)

	prog := parse(t,
		".eqv LIMIT 12",
		"li $t0, LIMIT",
		"li $t1, $(LIMIT * 2 + 1)",
		"li $t2, $(DATA_BASE)",
	)

	assert.Equal(int32(12), prog.Instrs[0].Imm)
	assert.Equal(int32(25), prog.Instrs[1].Imm)
	assert.Equal(DATA_BASE, prog.Instrs[2].Imm)

	asm := &Assembler{}
	_, err := asm.Parse(strings.NewReader(".eqv A 1\n.eqv A 2\nli $t0, A\n"))
	assert.ErrorIs(err, ErrEquateDuplicate)

	_, err = asm.Parse(strings.NewReader(".eqv ONLY\nli $t0, 1\n"))
	assert.ErrorIs(err, ErrEquateSyntax)
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := &Assembler{}
	asm.Predefine("ANSWER", "42")

	prog, err := asm.Parse(strings.NewReader("li $v0, ANSWER\n"))
	assert.NoError(err)
	assert.Equal(int32(42), prog.Instrs[0].Imm)
}

func TestParseImm(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word  string
		value int32
		ok    bool
	}){
		{"0", 0, true},
		{"42", 42, true},
		{"-42", -42, true},
		{"0x10", 16, true},
		{"0X10", 16, true},
		{"-0x10", -16, true},
		{"0x7fffffff", 0x7fffffff, true},
		{"0x80000000", -0x80000000, true},
		{"4294967295", -1, true},
		{"", 0, false},
		{"0x", 0, false},
		{"ten", 0, false},
		{"1e3", 0, false},
	}

	for _, entry := range table {
		value, err := ParseImm(entry.word)
		if entry.ok {
			assert.NoError(err, entry.word)
			assert.Equal(entry.value, value, entry.word)
		} else {
			assert.Equal(ErrParseNumber(entry.word), err, entry.word)
		}
	}
}
