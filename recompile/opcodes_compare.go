package recompile

import (
	"strconv"

	"golang.org/x/arch/ppc64/ppc64asm"
)

func init() {
	register(translateCMP(true, false), ppc64asm.CMPW)
	register(translateCMP(false, false), ppc64asm.CMPLW)
	register(translateCMP(true, true), ppc64asm.CMPD)
	register(translateCMP(false, true), ppc64asm.CMPLD)
	register(translateCMPI(true, false), ppc64asm.CMPWI)
	register(translateCMPI(false, false), ppc64asm.CMPLWI)
	register(translateCMPI(true, true), ppc64asm.CMPDI)
	register(translateCMPI(false, true), ppc64asm.CMPLDI)
}

// crFieldOf returns the destination cr field an X/D-form compare targets:
// its first operand when a non-default field is given, else cr0 — mirroring
// the original's handling of the optional leading BF operand.
func crFieldOf(insn Instruction) int {
	if cr, ok := insn.Args[0].(ppc64asm.CondReg); ok {
		return int(cr - ppc64asm.CR0)
	}
	return 0
}

// translateCMP builds cmpw/cmplw/cmpd/cmpld: a signed or unsigned compare
// between two GPRs, 32- or 64-bit wide, written into the specified cr field.
func translateCMP(signed, doubleword bool) opcodeFunc {
	return func(c *ctx) {
		args := c.insn.Args
		field := 0
		idx := 0
		if _, ok := args[0].(ppc64asm.CondReg); ok {
			field = crFieldOf(c.insn)
			idx = 1
		}
		ra, rb := gpr(args[idx]), gpr(args[idx+1])
		width, sign := "32", "s"
		if doubleword {
			width = "64"
		}
		if !signed {
			sign = "u"
		}
		c.em.Line("\tctx.cr%s.compare<%sint%s_t>(ctx.r%d.%s%s, ctx.r%d.%s%s, ctx.xer);",
			strconv.Itoa(field), sign, width, ra, sign, width, rb, sign, width)
	}
}

// translateCMPI builds cmpwi/cmplwi/cmpdi/cmpldi: same shape as translateCMP
// but against a sign- or zero-extended immediate.
func translateCMPI(signed, doubleword bool) opcodeFunc {
	return func(c *ctx) {
		args := c.insn.Args
		field := 0
		idx := 0
		if _, ok := args[0].(ppc64asm.CondReg); ok {
			field = crFieldOf(c.insn)
			idx = 1
		}
		ra := gpr(args[idx])
		width, sign := "32", "s"
		if doubleword {
			width = "64"
		}
		if !signed {
			sign = "u"
		}
		c.em.Line("\tctx.cr%s.compare<%sint%s_t>(ctx.r%d.%s%s, %d, ctx.xer);",
			strconv.Itoa(field), sign, width, ra, sign, width, simm(args[idx+1]))
	}
}
