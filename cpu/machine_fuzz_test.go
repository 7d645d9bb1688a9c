package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func FuzzMachine(f *testing.F) {
	f.Add(".data\nmsg: .asciiz \"Hi\\n\"\n.text\nli $v0,4\nla $a0,msg\nsyscall\nli $v0,10\nsyscall\n")
	f.Add("li $t0,5\nli $t1,7\nadd $t2,$t0,$t1\n")
	f.Add("loop:\nbeq $zero,$zero,loop\n")
	f.Add("foo $t0,$t1\n")
	f.Add("j nowhere\n")
	f.Add(",\nli $t0, 1\n")
	f.Add(".eqv N 3\nli $t0, $(N * N)\nsw $t0, -4($t0)\nlw $t1, -4($t0)\n")
	f.Add(".data\n.word 1, 2\nx:\n.text\nlw $t0, x\nli $v0, 1\nsyscall\n")

	f.Fuzz(func(t *testing.T, source string) {
		assert := assert.New(t)

		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(source))
		if err != nil {
			// Load failures must be tagged with their location.
			assert.ErrorAs(err, new(*ErrSyntax))
			return
		}

		m, err := NewMachine(prog, nil, nil)
		assert.NoError(err)

		steps := 0
		for m.Status == STATUS_READY {
			m = m.Step()
			steps += 1
			if steps > MAX_STEPS+1 {
				t.Fatalf("machine did not terminate: %v", m.Status)
			}
		}

		assert.LessOrEqual(m.Steps, MAX_STEPS)
		assert.Equal(int32(0), m.Register[REG_ZERO])
		if m.Status == STATUS_ERROR {
			assert.Error(m.Err)
		} else {
			assert.Equal(STATUS_HALTED, m.Status)
		}
	})
}
