package recompile

import "golang.org/x/arch/ppc64/ppc64asm"

func init() {
	register(translateRLWINM, ppc64asm.RLWINM, ppc64asm.RLWINMCC)
	register(translateRLWIMI, ppc64asm.RLWIMI, ppc64asm.RLWIMICC)
	register(translateRLWNM, ppc64asm.RLWNM, ppc64asm.RLWNMCC)
	register(translateRLDICL, ppc64asm.RLDICL, ppc64asm.RLDICLCC)
	register(translateRLDICR, ppc64asm.RLDICR, ppc64asm.RLDICRCC)
	register(translateRLDIMI, ppc64asm.RLDIMI, ppc64asm.RLDIMICC)
	register(translateRLDCL, ppc64asm.RLDCL, ppc64asm.RLDCLCC)

	register(translateSLW, ppc64asm.SLW, ppc64asm.SLWCC)
	register(translateSRW, ppc64asm.SRW, ppc64asm.SRWCC)
	register(translateSRAW, ppc64asm.SRAW, ppc64asm.SRAWCC)
	register(translateSRAWI, ppc64asm.SRAWI, ppc64asm.SRAWICC)
	register(translateSLD, ppc64asm.SLD, ppc64asm.SLDCC)
	register(translateSRD, ppc64asm.SRD, ppc64asm.SRDCC)
	register(translateSRAD, ppc64asm.SRAD, ppc64asm.SRADCC)
	register(translateSRADI, ppc64asm.SRADI, ppc64asm.SRADICC)
}

// mask32 builds the 32-bit rotate-mask the Power ISA defines for mb..me:
// a run of 1 bits from bit mb through bit me inclusive (IBM bit numbering,
// bit 0 is the MSB), wrapping when mb > me. Ported directly from the
// interpreter's rotate-mask helper rather than hand-expanded per caller,
// since every rlwinm-family instruction needs the identical computation.
func mask32(mb, me uint32) uint32 {
	if mb > me {
		if mb == me+1 {
			return 0xFFFFFFFF
		}
		return ^mask32(me+1, mb-1)
	}
	if mb == 0 && me == 31 {
		return 0xFFFFFFFF
	}
	return (uint32(0xFFFFFFFF) >> mb) & (uint32(0xFFFFFFFF) << (31 - me))
}

func mask64(mb, me uint32) uint64 {
	if mb > me {
		if mb == me+1 {
			return 0xFFFFFFFFFFFFFFFF
		}
		return ^mask64(me+1, mb-1)
	}
	if mb == 0 && me == 63 {
		return 0xFFFFFFFFFFFFFFFF
	}
	return (uint64(0xFFFFFFFFFFFFFFFF) >> mb) & (uint64(0xFFFFFFFFFFFFFFFF) << (63 - me))
}

func translateRLWINM(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	sh := uint32(uimm(c.insn.Args[2]))
	mb := uint32(uimm(c.insn.Args[3]))
	me := uint32(uimm(c.insn.Args[4]))
	m := mask32(mb, me)
	c.em.Line("\tctx.r%d.u64 = rotl32(ctx.r%d.u32, %d) & 0x%X;", ra, rs, sh, m)
	c.emitRecordCR0(ra)
}

func translateRLWIMI(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	sh := uint32(uimm(c.insn.Args[2]))
	mb := uint32(uimm(c.insn.Args[3]))
	me := uint32(uimm(c.insn.Args[4]))
	m := mask32(mb, me)
	c.em.Line("\tctx.r%d.u32 = (rotl32(ctx.r%d.u32, %d) & 0x%X) | (ctx.r%d.u32 & ~0x%Xu);", ra, rs, sh, m, ra, m)
	c.emitRecordCR0(ra)
}

func translateRLWNM(c *ctx) {
	ra, rs, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	mb := uint32(uimm(c.insn.Args[3]))
	me := uint32(uimm(c.insn.Args[4]))
	m := mask32(mb, me)
	c.em.Line("\tctx.r%d.u64 = rotl32(ctx.r%d.u32, ctx.r%d.u32 & 0x1F) & 0x%X;", ra, rs, rb, m)
	c.emitRecordCR0(ra)
}

func translateRLDICL(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	sh := uint32(uimm(c.insn.Args[2]))
	mb := uint32(uimm(c.insn.Args[3]))
	m := mask64(mb, 63)
	c.em.Line("\tctx.r%d.u64 = rotl64(ctx.r%d.u64, %d) & 0x%XULL;", ra, rs, sh, m)
	c.emitRecordCR0(ra)
}

func translateRLDICR(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	sh := uint32(uimm(c.insn.Args[2]))
	me := uint32(uimm(c.insn.Args[3]))
	m := mask64(0, me)
	c.em.Line("\tctx.r%d.u64 = rotl64(ctx.r%d.u64, %d) & 0x%XULL;", ra, rs, sh, m)
	c.emitRecordCR0(ra)
}

func translateRLDIMI(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	sh := uint32(uimm(c.insn.Args[2]))
	mb := uint32(uimm(c.insn.Args[3]))
	m := mask64(mb, 63)
	c.em.Line("\tctx.r%d.u64 = (rotl64(ctx.r%d.u64, %d) & 0x%XULL) | (ctx.r%d.u64 & ~0x%XULL);", ra, rs, sh, m, ra, m)
	c.emitRecordCR0(ra)
}

func translateRLDCL(c *ctx) {
	ra, rs, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	mb := uint32(uimm(c.insn.Args[3]))
	m := mask64(mb, 63)
	c.em.Line("\tctx.r%d.u64 = rotl64(ctx.r%d.u64, ctx.r%d.u64 & 0x3F) & 0x%XULL;", ra, rs, rb, m)
	c.emitRecordCR0(ra)
}

func translateSLW(c *ctx) {
	ra, rs, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = (ctx.r%d.u32 & 0x3F) >= 32 ? 0 : ctx.r%d.u32 << (ctx.r%d.u32 & 0x3F);", ra, rb, rs, rb)
	c.emitRecordCR0(ra)
}

func translateSRW(c *ctx) {
	ra, rs, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = (ctx.r%d.u32 & 0x3F) >= 32 ? 0 : ctx.r%d.u32 >> (ctx.r%d.u32 & 0x3F);", ra, rb, rs, rb)
	c.emitRecordCR0(ra)
}

func translateSRAW(c *ctx) {
	ra, rs, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.s64 = sraw(ctx.r%d.s32, ctx.r%d.u32 & 0x3F, ctx.xer);", ra, rs, rb)
	c.emitRecordCR0(ra)
}

func translateSRAWI(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	sh := uint32(uimm(c.insn.Args[2]))
	c.em.Line("\tctx.r%d.s64 = sraw(ctx.r%d.s32, %d, ctx.xer);", ra, rs, sh)
	c.emitRecordCR0(ra)
}

func translateSLD(c *ctx) {
	ra, rs, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = (ctx.r%d.u64 & 0x7F) >= 64 ? 0 : ctx.r%d.u64 << (ctx.r%d.u64 & 0x7F);", ra, rb, rs, rb)
	c.emitRecordCR0(ra)
}

func translateSRD(c *ctx) {
	ra, rs, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = (ctx.r%d.u64 & 0x7F) >= 64 ? 0 : ctx.r%d.u64 >> (ctx.r%d.u64 & 0x7F);", ra, rb, rs, rb)
	c.emitRecordCR0(ra)
}

func translateSRAD(c *ctx) {
	ra, rs, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.s64 = srad(ctx.r%d.s64, ctx.r%d.u64 & 0x7F, ctx.xer);", ra, rs, rb)
	c.emitRecordCR0(ra)
}

func translateSRADI(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	sh := uint32(uimm(c.insn.Args[2]))
	c.em.Line("\tctx.r%d.s64 = srad(ctx.r%d.s64, %d, ctx.xer);", ra, rs, sh)
	c.emitRecordCR0(ra)
}
