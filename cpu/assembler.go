package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// segment selects which section of the source is being assembled.
type segment int

const (
	segText = segment(0)
	segData = segment(1)
)

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO":    "0",
	"DATA_BASE": fmt.Sprintf("%#x", uint32(DATA_BASE)),
	"MAX_STEPS": fmt.Sprintf("%v", MAX_STEPS),
}

var (
	labelRe     = regexp.MustCompile(`^([A-Za-z_]\w*):\s*(.*)$`)
	labelNameRe = regexp.MustCompile(`^[A-Za-z_]\w*$`)
	asciizRe    = regexp.MustCompile(`^\.asciiz\s+"(.*)"`)
	memRe       = regexp.MustCompile(`^(-?\w*)\((\$\w+)\)$`)
	parenRe     = regexp.MustCompile(`\$\([^\$]*\)`)
	wordRe      = regexp.MustCompile(`\b[A-Za-z_]\w*\b`)
)

// dataEscapes expands the escape sequences recognized inside .asciiz.
var dataEscapes = strings.NewReplacer(`\n`, "\n", `\"`, `"`)

// Assembler is a single pass assembler for the MIPS subset.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	Label       map[string]int    // Map of text labels to instruction indexes.
	DataAddress map[string]int32  // Map of data labels to allocated addresses.
	DataValue   map[int32]string  // Map of allocated addresses to string payloads.
	Equate      map[string]string // Map of equates.

	predefine map[string]string // Predefines

	instrs  []Instr
	segment segment
	cursor  int32
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// ParseImm parses a signed integer literal, decimal or 0x-prefixed hex,
// normalized to a 32-bit two's-complement value.
func ParseImm(word string) (value int32, err error) {
	text := word
	negative := strings.HasPrefix(text, "-")
	if negative {
		text = text[1:]
	}
	base := 10
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		base = 16
		text = text[2:]
	}
	v64, perr := strconv.ParseUint(text, base, 64)
	if perr != nil {
		err = ErrParseNumber(word)
		return
	}
	value = int32(uint32(v64))
	if negative {
		value = -value
	}
	return
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int32, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		value32, verr := ParseImm(str)
		if verr != nil {
			// Ignore non-integer equates. They may be labels
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(int(value32))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int32(st_int64)
	return
}

// parenExpand substitutes $() evaluations into a source line.
func (asm *Assembler) parenExpand(line string) (out string, err error) {
	out = parenRe.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	return
}

// equateExpand substitutes equates into a source line, word by word.
func (asm *Assembler) equateExpand(line string) string {
	return wordRe.ReplaceAllStringFunc(line, func(word string) string {
		equate, ok := asm.Equate[word]
		if ok {
			return equate
		}
		return word
	})
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	scanner := bufio.NewScanner(input)

	var line string
	var lineno int

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]int, 16)
	asm.DataAddress = make(map[string]int32, 16)
	asm.DataValue = make(map[int32]string, 16)
	asm.instrs = asm.instrs[:0]
	asm.segment = segText
	asm.cursor = DATA_BASE
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		comment := strings.IndexByte(text, '#')
		if comment >= 0 {
			text = text[:comment]
		}
		line = strings.TrimSpace(text)
		if len(line) == 0 {
			continue
		}

		err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}
	}

	if err = scanner.Err(); err != nil {
		lineno += 1
		line = ""
		return
	}

	if len(asm.instrs) == 0 {
		err = ErrProgramEmpty
		return
	}

	// Final linking of label references.
	asm.link()

	prog = &Program{
		Instrs:      slices.Clone(asm.instrs),
		Labels:      maps.Clone(asm.Label),
		DataAddress: maps.Clone(asm.DataAddress),
		DataValue:   maps.Clone(asm.DataValue),
	}

	return
}

// parseLine assembles a single comment-stripped, non-empty line.
func (asm *Assembler) parseLine(line string, lineno int) (err error) {
	// Set line number.
	asm.Equate["LINENO"] = strconv.Itoa(lineno)

	line, err = asm.parenExpand(line)
	if err != nil {
		return
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return
	}

	switch words[0] {
	case ".text":
		asm.segment = segText
		return
	case ".data":
		asm.segment = segData
		return
	case ".globl":
		// Recognized, no entry-point effect.
		return
	case ".eqv":
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		return
	}

	// Label definitions, possibly stacked on one line. A text label
	// maps to the index the next instruction will occupy; a data label
	// maps to the current allocation cursor.
	for {
		m := labelRe.FindStringSubmatch(line)
		if m == nil {
			break
		}
		if asm.segment == segText {
			asm.Label[m[1]] = len(asm.instrs)
		} else {
			asm.DataAddress[m[1]] = asm.cursor
		}
		line = strings.TrimSpace(m[2])
		if len(line) == 0 {
			return
		}
	}

	if asm.segment == segData {
		// Equates never expand into string payloads.
		if !strings.HasPrefix(line, ".asciiz") {
			line = asm.equateExpand(line)
		}
		asm.parseData(line)
		return
	}

	asm.instrs = append(asm.instrs, asm.decode(asm.equateExpand(line), lineno))

	return
}

// parseData handles a .data segment directive. An .asciiz allocation
// reserves the string plus a null terminator; a .word allocation
// reserves four bytes per value and at least one word. Unsupported
// directives are skipped.
func (asm *Assembler) parseData(line string) {
	switch {
	case strings.HasPrefix(line, ".asciiz"):
		m := asciizRe.FindStringSubmatch(line)
		if m == nil {
			return
		}
		str := dataEscapes.Replace(m[1])
		asm.DataValue[asm.cursor] = str
		asm.cursor += int32(len(str)) + 1
	case strings.HasPrefix(line, ".word"):
		rest := strings.TrimSpace(line[len(".word"):])
		count := 0
		if len(rest) != 0 {
			count = len(strings.Split(rest, ","))
		}
		asm.cursor += int32(max(1, count)) * 4
	}
}

// decode matches an instruction line against the supported patterns.
// A line that matches no pattern, or has an unparsable operand, decodes
// to OP_INVALID carrying the deferred error; dead code with bad syntax
// loads cleanly and only errors if executed.
func (asm *Assembler) decode(text string, lineno int) (in Instr) {
	in = Instr{Op: OP_INVALID, Text: text, LineNo: lineno, Err: ErrBadInstruction(text)}

	words := strings.Fields(strings.ReplaceAll(text, ",", " "))
	if len(words) == 0 {
		return
	}
	op := strings.ToLower(words[0])
	args := words[1:]

	switch {
	case op == "li" && len(args) == 2:
		rd, ok := LookupReg(args[0])
		if !ok {
			return
		}
		imm, err := ParseImm(args[1])
		if err != nil {
			in.Err = err
			return
		}
		in = Instr{Op: OP_LI, Text: text, LineNo: lineno, Rd: rd, Imm: imm}
	case op == "la" && len(args) == 2:
		rd, ok := LookupReg(args[0])
		if !ok {
			return
		}
		in = Instr{Op: OP_LA, Text: text, LineNo: lineno, Rd: rd, Label: args[1]}
	case op == "move" && len(args) == 2:
		rd, ok := LookupReg(args[0])
		rs, ok2 := LookupReg(args[1])
		if !ok || !ok2 {
			return
		}
		in = Instr{Op: OP_MOVE, Text: text, LineNo: lineno, Rd: rd, Rs: rs}
	case op == "addi" && len(args) == 3:
		rd, ok := LookupReg(args[0])
		rs, ok2 := LookupReg(args[1])
		if !ok || !ok2 {
			return
		}
		imm, err := ParseImm(args[2])
		if err != nil {
			in.Err = err
			return
		}
		in = Instr{Op: OP_ADDI, Text: text, LineNo: lineno, Rd: rd, Rs: rs, Imm: imm}
	case (op == "add" || op == "sub") && len(args) == 3:
		rd, ok := LookupReg(args[0])
		rs, ok2 := LookupReg(args[1])
		rt, ok3 := LookupReg(args[2])
		if !ok || !ok2 || !ok3 {
			return
		}
		code := OP_ADD
		if op == "sub" {
			code = OP_SUB
		}
		in = Instr{Op: code, Text: text, LineNo: lineno, Rd: rd, Rs: rs, Rt: rt}
	case (op == "lw" || op == "sw") && len(args) == 2:
		reg, ok := LookupReg(args[0])
		if !ok {
			return
		}
		mem, err := asm.parseMemArg(args[1])
		if err != nil {
			in.Err = err
			return
		}
		if op == "lw" {
			in = Instr{Op: OP_LW, Text: text, LineNo: lineno, Rd: reg, Mem: mem}
		} else {
			in = Instr{Op: OP_SW, Text: text, LineNo: lineno, Rs: reg, Mem: mem}
		}
	case (op == "beq" || op == "bne") && len(args) == 3:
		rs, ok := LookupReg(args[0])
		rt, ok2 := LookupReg(args[1])
		if !ok || !ok2 {
			return
		}
		code := OP_BEQ
		if op == "bne" {
			code = OP_BNE
		}
		in = Instr{Op: code, Text: text, LineNo: lineno, Rs: rs, Rt: rt, Label: args[2]}
	case op == "j" && len(args) == 1:
		in = Instr{Op: OP_J, Text: text, LineNo: lineno, Label: args[0]}
	case op == "syscall" && len(args) == 0:
		in = Instr{Op: OP_SYSCALL, Text: text, LineNo: lineno}
	}

	return
}

// parseMemArg parses a memory operand: offset(base), a bare data
// label, or a literal address.
func (asm *Assembler) parseMemArg(word string) (mem MemArg, err error) {
	m := memRe.FindStringSubmatch(word)
	if m != nil {
		base, ok := LookupReg(m[2])
		if !ok {
			err = ErrBadMemArg(word)
			return
		}
		var offset int32
		if len(m[1]) != 0 {
			offset, err = ParseImm(m[1])
			if err != nil {
				return
			}
		}
		mem = MemArg{Base: base, HasBase: true, Offset: offset}
		return
	}

	if labelNameRe.MatchString(word) {
		mem = MemArg{Label: word}
		return
	}

	var addr int32
	addr, err = ParseImm(word)
	if err != nil {
		err = ErrBadMemArg(word)
		return
	}
	mem = MemArg{Offset: addr}

	return
}

// link resolves label references against the completed label tables.
// An unresolved label degrades the instruction to OP_INVALID so that
// the failure surfaces only when the instruction is reached.
func (asm *Assembler) link() {
	for n := range asm.instrs {
		in := &asm.instrs[n]

		switch in.Op {
		case OP_LA:
			addr, ok := asm.DataAddress[in.Label]
			if !ok {
				in.Op = OP_INVALID
				in.Err = ErrUnknownLabel(in.Label)
				continue
			}
			in.Imm = addr
		case OP_LW, OP_SW:
			if len(in.Mem.Label) == 0 {
				continue
			}
			addr, ok := asm.DataAddress[in.Mem.Label]
			if !ok {
				in.Op = OP_INVALID
				in.Err = ErrUnknownLabel(in.Mem.Label)
				continue
			}
			in.Mem.Offset = addr
		case OP_BEQ, OP_BNE, OP_J:
			target, ok := asm.Label[in.Label]
			if !ok {
				in.Op = OP_INVALID
				in.Err = ErrUnknownLabel(in.Label)
				continue
			}
			in.Target = target
		}
	}
}
