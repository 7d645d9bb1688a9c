package cpu

import (
	"strings"
)

// Reg is a register index into the machine's register file.
type Reg int

//go:generate go tool stringer -linecomment -type=Reg
const (
	REG_ZERO = Reg(0)  // $zero
	REG_AT   = Reg(1)  // $at
	REG_V0   = Reg(2)  // $v0
	REG_V1   = Reg(3)  // $v1
	REG_A0   = Reg(4)  // $a0
	REG_A1   = Reg(5)  // $a1
	REG_A2   = Reg(6)  // $a2
	REG_A3   = Reg(7)  // $a3
	REG_T0   = Reg(8)  // $t0
	REG_T1   = Reg(9)  // $t1
	REG_T2   = Reg(10) // $t2
	REG_T3   = Reg(11) // $t3
	REG_T4   = Reg(12) // $t4
	REG_T5   = Reg(13) // $t5
	REG_T6   = Reg(14) // $t6
	REG_T7   = Reg(15) // $t7
	REG_S0   = Reg(16) // $s0
	REG_S1   = Reg(17) // $s1
	REG_S2   = Reg(18) // $s2
	REG_S3   = Reg(19) // $s3
	REG_S4   = Reg(20) // $s4
	REG_S5   = Reg(21) // $s5
	REG_S6   = Reg(22) // $s6
	REG_S7   = Reg(23) // $s7
	REG_T8   = Reg(24) // $t8
	REG_T9   = Reg(25) // $t9
	REG_K0   = Reg(26) // $k0
	REG_K1   = Reg(27) // $k1
	REG_GP   = Reg(28) // $gp
	REG_SP   = Reg(29) // $sp
	REG_FP   = Reg(30) // $fp
	REG_RA   = Reg(31) // $ra
)

const (
	REG_COUNT = 32 // Size of the register file.
)

// regMap maps register names to register indexes.
var regMap = func() map[string]Reg {
	m := make(map[string]Reg, REG_COUNT)
	for reg := range Reg(REG_COUNT) {
		m[reg.String()] = reg
	}
	return m
}()

// LookupReg resolves a register name, case-insensitively.
func LookupReg(name string) (reg Reg, ok bool) {
	reg, ok = regMap[strings.ToLower(name)]
	return
}
