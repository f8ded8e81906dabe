package recompile

import "golang.org/x/arch/ppc64/ppc64asm"

// gpr returns a General-Purpose-Register operand's index (0-31).
func gpr(arg ppc64asm.Arg) int { return int(arg.(ppc64asm.Reg) - ppc64asm.R0) }

// fpr returns a Floating-Point-Register operand's index (0-31).
func fpr(arg ppc64asm.Arg) int { return int(arg.(ppc64asm.Reg) - ppc64asm.F0) }

// vr returns an Altivec Vector-Register operand's index (0-31).
func vr(arg ppc64asm.Arg) int { return int(arg.(ppc64asm.Reg) - ppc64asm.V0) }

// simm sign-extends a signed-immediate operand to int32, the width every
// D-form immediate in this ISA carries.
func simm(arg ppc64asm.Arg) int32 {
	switch v := arg.(type) {
	case ppc64asm.Imm:
		return int32(v)
	case ppc64asm.Offset:
		return int32(v)
	default:
		return 0
	}
}

// uimm returns an unsigned-immediate operand widened to uint32.
func uimm(arg ppc64asm.Arg) uint32 {
	return uint32(arg.(ppc64asm.Imm))
}

// ea formats a D-form effective-address expression: "ctx.rRA.u32 + disp"
// when RA != r0, else just "disp", mirroring main.cpp's "if operand != 0"
// guard around the base-register term (PowerPC hardwires r0 to the
// constant zero in every address-forming context).
func ea(ra int, disp int32) string {
	if ra == 0 {
		return itoaSigned(disp)
	}
	return "ctx.r" + itoaInt(ra) + ".u32 + " + itoaSigned(disp)
}

// eaX formats an X-form (register + register) effective-address
// expression, same r0-is-zero special case as ea.
func eaX(ra, rb int) string {
	if ra == 0 {
		return "ctx.r" + itoaInt(rb) + ".u32"
	}
	return "ctx.r" + itoaInt(ra) + ".u32 + ctx.r" + itoaInt(rb) + ".u32"
}

func itoaInt(n int) string   { return itoaSigned(int32(n)) }
func itoaSigned(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	u := uint32(n)
	if neg {
		u = uint32(-n)
	}
	var buf [12]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// recordBit reports whether the instruction's Rc bit is set: ppc64asm gives
// record-form instructions a distinct Op (e.g. ADDCC for "add."), so this
// checks the decoded mnemonic's trailing ".".
func recordBit(insn Instruction) bool {
	s := insn.Op.String()
	return len(s) > 0 && s[len(s)-1] == '.'
}

// emitRecordCR0 appends the cr0 compare every record-form fixed-point
// instruction performs on its destination register, so from xer.so.
func (c *ctx) emitRecordCR0(rt int) {
	if recordBit(c.insn) {
		c.em.Line("\tctx.cr0.compare<int32_t>(ctx.r%d.s32, 0, ctx.xer);", rt)
	}
}
