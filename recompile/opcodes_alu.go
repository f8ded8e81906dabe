package recompile

import "golang.org/x/arch/ppc64/ppc64asm"

func init() {
	register(translateADD, ppc64asm.ADD, ppc64asm.ADDCC, ppc64asm.ADDO, ppc64asm.ADDOCC)
	register(translateADDI, ppc64asm.ADDI)
	register(translateADDIS, ppc64asm.ADDIS)
	register(translateADDIC, ppc64asm.ADDIC)
	register(translateSUBF, ppc64asm.SUBF, ppc64asm.SUBFCC, ppc64asm.SUBFO, ppc64asm.SUBFOCC)
	register(translateSUBFIC, ppc64asm.SUBFIC)
	register(translateNEG, ppc64asm.NEG, ppc64asm.NEGCC)

	register(translateBitwise(" & "), ppc64asm.AND, ppc64asm.ANDCC)
	register(translateBitwise(" | "), ppc64asm.OR, ppc64asm.ORCC)
	register(translateBitwise(" ^ "), ppc64asm.XOR, ppc64asm.XORCC)
	register(translateBitwiseNot(" & "), ppc64asm.ANDC, ppc64asm.ANDCCC)
	register(translateBitwiseNot(" | "), ppc64asm.ORC, ppc64asm.ORCCC)
	register(translateBitwiseInverted(" | "), ppc64asm.NOR, ppc64asm.NORCC)
	register(translateBitwiseInverted(" ^ "), ppc64asm.EQV, ppc64asm.EQVCC)
	register(translateBitwiseInverted(" & "), ppc64asm.NAND, ppc64asm.NANDCC)

	register(translateANDI, ppc64asm.ANDICC)
	register(translateANDIS, ppc64asm.ANDISCC)
	register(translateORI, ppc64asm.ORI)
	register(translateORIS, ppc64asm.ORIS)
	register(translateXORI, ppc64asm.XORI)
	register(translateXORIS, ppc64asm.XORIS)

	register(translateEXTSB, ppc64asm.EXTSB, ppc64asm.EXTSBCC)
	register(translateEXTSH, ppc64asm.EXTSH, ppc64asm.EXTSHCC)
	register(translateEXTSW, ppc64asm.EXTSW, ppc64asm.EXTSWCC)
	register(translateCNTLZW, ppc64asm.CNTLZW, ppc64asm.CNTLZWCC)
	register(translateCNTLZD, ppc64asm.CNTLZD, ppc64asm.CNTLZDCC)

	register(translateMULLW, ppc64asm.MULLW, ppc64asm.MULLWCC, ppc64asm.MULLWO, ppc64asm.MULLWOCC)
	register(translateMULHW, ppc64asm.MULHW, ppc64asm.MULHWCC)
	register(translateMULHWU, ppc64asm.MULHWU, ppc64asm.MULHWUCC)
	register(translateMULLI, ppc64asm.MULLI)
	register(translateMULLD, ppc64asm.MULLD, ppc64asm.MULLDCC, ppc64asm.MULLDO, ppc64asm.MULLDOCC)
	register(translateDIVW, ppc64asm.DIVW, ppc64asm.DIVWCC)
	register(translateDIVWU, ppc64asm.DIVWU, ppc64asm.DIVWUCC)
	register(translateDIVD, ppc64asm.DIVD, ppc64asm.DIVDCC)
	register(translateDIVDU, ppc64asm.DIVDU, ppc64asm.DIVDUCC)

	register(translateADDZE, ppc64asm.ADDZE, ppc64asm.ADDZECC)
	register(translateADDME, ppc64asm.ADDME, ppc64asm.ADDMECC)
	register(translateSUBFZE, ppc64asm.SUBFZE, ppc64asm.SUBFZECC)
	register(translateADDC, ppc64asm.ADDC, ppc64asm.ADDCCC)
	register(translateSUBFC, ppc64asm.SUBFC, ppc64asm.SUBFCCC)
	register(translateADDE, ppc64asm.ADDE, ppc64asm.ADDECC)
	register(translateSUBFE, ppc64asm.SUBFE, ppc64asm.SUBFECC)
}

// translateADD covers add/add./addo/addo. — the overflow-checking variants
// differ only in xer.ov/so bookkeeping the interpreter leaves to the
// surrounding context struct's arithmetic helpers, so one handler suffices.
func translateADD(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 + ctx.r%d.u64;", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateADDI(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.s64 = %s;", rt, ea(ra, simm(c.insn.Args[2])))
}

func translateADDIS(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	disp := int64(simm(c.insn.Args[2])) << 16
	if ra == 0 {
		c.em.Line("\tctx.r%d.s64 = %d;", rt, disp)
		return
	}
	c.em.Line("\tctx.r%d.s64 = ctx.r%d.s64 + %d;", rt, ra, disp)
}

func translateADDIC(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 + %d;", rt, ra, simm(c.insn.Args[2]))
}

func translateSUBF(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 - ctx.r%d.u64;", rt, rb, ra)
	c.emitRecordCR0(rt)
}

func translateSUBFIC(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.s64 = %d - ctx.r%d.s64;", rt, simm(c.insn.Args[2]), ra)
}

func translateNEG(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = -ctx.r%d.u64;", rt, ra)
	c.emitRecordCR0(rt)
}

func translateBitwise(op string) opcodeFunc {
	return func(c *ctx) {
		rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
		c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64%sctx.r%d.u64;", rt, ra, op, rb)
		c.emitRecordCR0(rt)
	}
}

// translateBitwiseNot covers andc/orc: op applied between RA and the
// bitwise-complement of RB.
func translateBitwiseNot(op string) opcodeFunc {
	return func(c *ctx) {
		rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
		c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64%s~ctx.r%d.u64;", rt, ra, op, rb)
		c.emitRecordCR0(rt)
	}
}

// translateBitwiseInverted covers nor/eqv/nand: op applied between RA and
// RB, then the whole result complemented.
func translateBitwiseInverted(op string) opcodeFunc {
	return func(c *ctx) {
		rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
		c.em.Line("\tctx.r%d.u64 = ~(ctx.r%d.u64%sctx.r%d.u64);", rt, ra, op, rb)
		c.emitRecordCR0(rt)
	}
}

func translateANDI(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 & 0x%X;", ra, rs, uimm(c.insn.Args[2]))
	c.em.Line("\tctx.cr0.compare<int64_t>(ctx.r%d.s64, 0, ctx.xer);", ra)
}

func translateANDIS(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 & 0x%XULL;", ra, rs, uint64(uimm(c.insn.Args[2]))<<16)
	c.em.Line("\tctx.cr0.compare<int64_t>(ctx.r%d.s64, 0, ctx.xer);", ra)
}

func translateORI(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 | 0x%X;", ra, rs, uimm(c.insn.Args[2]))
}

func translateORIS(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 | 0x%XULL;", ra, rs, uint64(uimm(c.insn.Args[2]))<<16)
}

func translateXORI(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 ^ 0x%X;", ra, rs, uimm(c.insn.Args[2]))
}

func translateXORIS(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 ^ 0x%XULL;", ra, rs, uint64(uimm(c.insn.Args[2]))<<16)
}

func translateEXTSB(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.s64 = ctx.r%d.s8;", ra, rs)
	c.emitRecordCR0(ra)
}

func translateEXTSH(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.s64 = ctx.r%d.s16;", ra, rs)
	c.emitRecordCR0(ra)
}

func translateEXTSW(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.s64 = ctx.r%d.s32;", ra, rs)
	c.emitRecordCR0(ra)
}

func translateCNTLZW(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u32 == 0 ? 32 : __builtin_clz(ctx.r%d.u32);", ra, rs, rs)
	c.emitRecordCR0(ra)
}

func translateCNTLZD(c *ctx) {
	ra, rs := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 == 0 ? 64 : __builtin_clzll(ctx.r%d.u64);", ra, rs, rs)
	c.emitRecordCR0(ra)
}

func translateMULLW(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.s64 = int64_t(ctx.r%d.s32) * int64_t(ctx.r%d.s32);", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateMULHW(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.s64 = (int64_t(ctx.r%d.s32) * int64_t(ctx.r%d.s32)) >> 32;", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateMULHWU(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = (uint64_t(ctx.r%d.u32) * uint64_t(ctx.r%d.u32)) >> 32;", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateMULLI(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.s64 = ctx.r%d.s64 * %d;", rt, ra, simm(c.insn.Args[2]))
}

func translateMULLD(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.s64 = ctx.r%d.s64 * ctx.r%d.s64;", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateDIVW(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.s64 = ctx.r%d.s32 / ctx.r%d.s32;", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateDIVWU(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u32 / ctx.r%d.u32;", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateDIVD(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.s64 = ctx.r%d.s64 / ctx.r%d.s64;", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateDIVDU(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = ctx.r%d.u64 / ctx.r%d.u64;", rt, ra, rb)
	c.emitRecordCR0(rt)
}

// Carry-producing/consuming forms: xer.ca is threaded through the context's
// xer field the same way main.cpp's interpreter does, via helper calls
// rather than inline bit tricks, since the carry-out computation differs
// per operand width in ways that read poorly unrolled at each call site.

func translateADDC(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = addCarry(ctx.r%d.u32, ctx.r%d.u32, 0, ctx.xer);", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateSUBFC(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = subCarry(ctx.r%d.u32, ctx.r%d.u32, ctx.xer);", rt, rb, ra)
	c.emitRecordCR0(rt)
}

func translateADDE(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = addCarry(ctx.r%d.u32, ctx.r%d.u32, ctx.xer.ca, ctx.xer);", rt, ra, rb)
	c.emitRecordCR0(rt)
}

func translateSUBFE(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = addCarry(ctx.r%d.u32, ~ctx.r%d.u32, ctx.xer.ca, ctx.xer);", rt, rb, ra)
	c.emitRecordCR0(rt)
}

func translateADDZE(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = addCarry(ctx.r%d.u32, 0, ctx.xer.ca, ctx.xer);", rt, ra)
	c.emitRecordCR0(rt)
}

func translateADDME(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = addCarry(ctx.r%d.u32, 0xFFFFFFFF, ctx.xer.ca, ctx.xer);", rt, ra)
	c.emitRecordCR0(rt)
}

func translateSUBFZE(c *ctx) {
	rt, ra := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tctx.r%d.u64 = addCarry(~ctx.r%d.u32, 0, ctx.xer.ca, ctx.xer);", rt, ra)
	c.emitRecordCR0(rt)
}
