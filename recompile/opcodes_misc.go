package recompile

import "golang.org/x/arch/ppc64/ppc64asm"

func init() {
	register(translateNop, ppc64asm.NOP, ppc64asm.SYNC, ppc64asm.LWSYNC, ppc64asm.ISYNC, ppc64asm.EIEIO,
		ppc64asm.DCBT, ppc64asm.DCBTST, ppc64asm.DCBF, ppc64asm.ATTN)
	register(translateDCBZ, ppc64asm.DCBZ)
	register(translateMFCR, ppc64asm.MFCR)
	register(translateMTCRF, ppc64asm.MTCRF)
	register(translateMFLR, ppc64asm.MFSPR)
	register(translateMTLR, ppc64asm.MTSPR)
	register(translateMFTB, ppc64asm.MFTB)
}

// translateNop covers the cache-hint and memory-barrier instructions that
// are all no-ops for a single-threaded recompilation target: their entire
// purpose is influencing instruction/memory ordering and cache residency
// on real hardware, neither of which this translation models.
func translateNop(c *ctx) {
	c.em.Line("\t;")
}

// translateDCBZ zero-fills the 32-byte cache line containing its effective
// address, the one cache-management instruction with an architecturally
// visible effect outside the cache itself.
func translateDCBZ(c *ctx) {
	ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1])
	c.em.Line("\tmemset(base + ((%s) & ~31u), 0, 32);", eaX(ra, rb))
}

func translateMFCR(c *ctx) {
	rt := gpr(c.insn.Args[0])
	c.em.Line("\tctx.r%d.u64 = ctx.cr0.value() << 28 | ctx.cr1.value() << 24 | ctx.cr2.value() << 20 | ctx.cr3.value() << 16 | ctx.cr4.value() << 12 | ctx.cr5.value() << 8 | ctx.cr6.value() << 4 | ctx.cr7.value();", rt)
}

func translateMTCRF(c *ctx) {
	mask, rs := uimm(c.insn.Args[0]), gpr(c.insn.Args[1])
	for field := 0; field < 8; field++ {
		if mask&(1<<(7-field)) == 0 {
			continue
		}
		shift := (7 - field) * 4
		c.em.Line("\tctx.cr%d.setFromBits((ctx.r%d.u32 >> %d) & 0xF);", field, rs, shift)
	}
}

// translateMFLR and translateMTLR both decode from the generic MFSPR/MTSPR
// ops, since ppc64asm keys the special register off an operand rather than
// minting a distinct mnemonic per SPR. Only LR, CTR, and XER are handled:
// the three SPRs code emitted by this toolchain actually touches.
func translateMFLR(c *ctx) {
	rt := gpr(c.insn.Args[0])
	spr := c.insn.Args[1].(ppc64asm.SpReg)
	switch spr {
	case ppc64asm.SpReg(8):
		c.em.Line("\tctx.r%d.u64 = ctx.lr;", rt)
	case ppc64asm.SpReg(9):
		c.em.Line("\tctx.r%d.u64 = ctx.ctr;", rt)
	case ppc64asm.SpReg(1):
		c.em.Line("\tctx.r%d.u64 = ctx.xer.value();", rt)
	default:
		c.em.Line("\tctx.r%d.u64 = 0; // unhandled mfspr", rt)
	}
}

func translateMTLR(c *ctx) {
	spr := c.insn.Args[0].(ppc64asm.SpReg)
	rs := gpr(c.insn.Args[1])
	switch spr {
	case ppc64asm.SpReg(8):
		c.em.Line("\tctx.lr = ctx.r%d.u64;", rs)
	case ppc64asm.SpReg(9):
		c.em.Line("\tctx.ctr = ctx.r%d.u64;", rs)
	case ppc64asm.SpReg(1):
		c.em.Line("\tctx.xer.setFromValue(ctx.r%d.u32);", rs)
	default:
		c.em.Line("\t; // unhandled mtspr")
	}
}

// translateMFTB reads the time base as a host timestamp-counter read.
func translateMFTB(c *ctx) {
	rt := gpr(c.insn.Args[0])
	c.em.Line("\tctx.r%d.u64 = __rdtsc();", rt)
}
