package recompile

import "golang.org/x/arch/ppc64/ppc64asm"

// This file covers the Altivec/VMX instruction set exercised by compiled
// vertex/pixel shader code: the loads/stores (with the whole-vector
// endian reversal the interpreter's host requires), arithmetic/logical/
// compare forms, saturating arithmetic and pack, per-lane compares that
// feed cr6, merge high/low, perm, and the float<->fixed conversions. It
// is not exhaustive; DESIGN.md records the opcodes left untranslated,
// including why `vmsum3fp`/`vmsum4fp` specifically cannot be wired.
func init() {
	register(translateLVX, ppc64asm.LVX)
	register(translateSTVX, ppc64asm.STVX)

	register(translateVectorBin("vec_add", "+"), ppc64asm.VADDFP)
	register(translateVectorBin("vec_sub", "-"), ppc64asm.VSUBFP)
	register(translateVMADDFP, ppc64asm.VMADDFP)
	register(translateVNMSUBFP, ppc64asm.VNMSUBFP)
	register(translateVectorLogic(" & "), ppc64asm.VAND)
	register(translateVectorLogic(" | "), ppc64asm.VOR)
	register(translateVectorLogic(" ^ "), ppc64asm.VXOR)
	register(translateVANDC, ppc64asm.VANDC)
	register(translateVectorMinMax("min"), ppc64asm.VMINFP)
	register(translateVectorMinMax("max"), ppc64asm.VMAXFP)
	register(translateVREFP, ppc64asm.VREFP)
	register(translateVRSQRTEFP, ppc64asm.VRSQRTEFP)
	register(translateVSLDOI, ppc64asm.VSLDOI)
	register(translateVSPLTISW, ppc64asm.VSPLTISW)
	register(translateVSPLTW, ppc64asm.VSPLTW)
	register(translateVCTSXS, ppc64asm.VCTSXS)
	register(translateVCFSX, ppc64asm.VCFSX)
	register(translateVCFUX, ppc64asm.VCFUX)

	register(translateVectorSatBin("vec_adds_u32", "adds"), ppc64asm.VADDUWS)
	register(translateVectorSatBin("vec_subs_u32", "subs"), ppc64asm.VSUBUWS)
	register(translateVectorSatBin("vec_adds_s16", "adds"), ppc64asm.VADDSHS)
	register(translateVectorSatBin("vec_subs_s16", "subs"), ppc64asm.VSUBSHS)

	register(translateVectorPack("vec_packus_u8"), ppc64asm.VPKSHUS)
	register(translateVectorPack("vec_packus_u16"), ppc64asm.VPKUHUS)
	register(translateVectorPack("vec_packus_u32"), ppc64asm.VPKUWUS)
	register(translateVectorPack("vec_packss_s32"), ppc64asm.VPKSWSS)

	register(translateVectorCompare("vec_cmpeq", false), ppc64asm.VCMPEQFP)
	register(translateVectorCompare("vec_cmpeq", true), ppc64asm.VCMPEQFPCC)
	register(translateVectorCompare("vec_cmpgt", false), ppc64asm.VCMPGTFP)
	register(translateVectorCompare("vec_cmpgt", true), ppc64asm.VCMPGTFPCC)
	register(translateVectorCompare("vec_cmpge", false), ppc64asm.VCMPGEFP)
	register(translateVectorCompare("vec_cmpge", true), ppc64asm.VCMPGEFPCC)

	register(translateVectorMerge("vec_mergeh"), ppc64asm.VMRGHW)
	register(translateVectorMerge("vec_mergel"), ppc64asm.VMRGLW)

	register(translateVPERM, ppc64asm.VPERM)
}

// Altivec loads/stores round the effective address down to a 16-byte
// boundary (the hardware ignores the low 4 bits of EA) and reverse the
// whole 16-byte vector rather than each lane, so that a compiled dot
// product summing lanes y,z,w instead of x,y,z still produces the correct
// result once every vector in memory has gone through the same reversal.

func translateLVX(c *ctx) {
	vt, ra, rb := vr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.v%d = loadVectorReversed(base + ((%s) & ~15u));", vt, eaX(ra, rb))
}

func translateSTVX(c *ctx) {
	vs, ra, rb := vr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tstoreVectorReversed(base + ((%s) & ~15u), ctx.v%d);", eaX(ra, rb), vs)
}

func translateVectorBin(fn, _ string) opcodeFunc {
	return func(c *ctx) {
		vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
		c.em.Line("\tctx.v%d = %s(ctx.v%d, ctx.v%d);", vd, fn, va, vb)
	}
}

func translateVMADDFP(c *ctx) {
	vd, va, vc, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2]), vr(c.insn.Args[3])
	c.em.Line("\tctx.v%d = vec_madd(ctx.v%d, ctx.v%d, ctx.v%d);", vd, va, vc, vb)
}

func translateVNMSUBFP(c *ctx) {
	vd, va, vc, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2]), vr(c.insn.Args[3])
	c.em.Line("\tctx.v%d = vec_nmsub(ctx.v%d, ctx.v%d, ctx.v%d);", vd, va, vc, vb)
}

func translateVectorLogic(op string) opcodeFunc {
	return func(c *ctx) {
		vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
		c.em.Line("\tctx.v%d.u32x4 = ctx.v%d.u32x4%sctx.v%d.u32x4;", vd, va, op, vb)
	}
}

func translateVANDC(c *ctx) {
	vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
	c.em.Line("\tctx.v%d.u32x4 = ctx.v%d.u32x4 & ~ctx.v%d.u32x4;", vd, va, vb)
}

func translateVectorMinMax(fn string) opcodeFunc {
	return func(c *ctx) {
		vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
		c.em.Line("\tctx.v%d = vec_%s(ctx.v%d, ctx.v%d);", vd, fn, va, vb)
	}
}

func translateVREFP(c *ctx) {
	vd, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1])
	c.em.Line("\tctx.v%d = vec_re(ctx.v%d);", vd, vb)
}

func translateVRSQRTEFP(c *ctx) {
	vd, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1])
	c.em.Line("\tctx.v%d = vec_rsqrte(ctx.v%d);", vd, vb)
}

// translateVSLDOI shifts the concatenation of VA:VB left by SH bytes and
// keeps the high 16 — the lane-rearrangement primitive compiled shuffles
// compile down to.
func translateVSLDOI(c *ctx) {
	vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
	sh := uimm(c.insn.Args[3])
	c.em.Line("\tctx.v%d = vec_sld(ctx.v%d, ctx.v%d, %d);", vd, va, vb, sh)
}

func translateVSPLTISW(c *ctx) {
	vd := vr(c.insn.Args[0])
	imm := simm(c.insn.Args[1])
	c.em.Line("\tctx.v%d = vec_splatsw(%d);", vd, imm)
}

func translateVSPLTW(c *ctx) {
	vd, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1])
	uim := uimm(c.insn.Args[2])
	c.em.Line("\tctx.v%d = vec_splat(ctx.v%d, %d);", vd, vb, uim)
}

// translateVCTSXS converts each float lane to a saturated signed 32-bit
// integer, clamping to [INT32_MIN, INT32_MAX] rather than wrapping — the
// decision this translator makes for float-to-fixed conversions whenever
// the source value overflows the target's range.
func translateVCTSXS(c *ctx) {
	vd, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1])
	uim := uimm(c.insn.Args[2])
	c.em.Line("\tctx.v%d = vec_ctsxs_saturate(ctx.v%d, %d);", vd, vb, uim)
}

func translateVCFSX(c *ctx) {
	vd, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1])
	uim := uimm(c.insn.Args[2])
	c.em.Line("\tctx.v%d = vec_cfsx(ctx.v%d, %d);", vd, vb, uim)
}

// translateVCFUX is vec_cfsx's unsigned counterpart: each u32 lane
// converts to float and scales by 2^-uim instead of treating the lane as
// signed.
func translateVCFUX(c *ctx) {
	vd, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1])
	uim := uimm(c.insn.Args[2])
	c.em.Line("\tctx.v%d = vec_cfux(ctx.v%d, %d);", vd, vb, uim)
}

// translateVectorSatBin covers the saturating integer add/sub family
// (vaddshs/vadduws/vsubshs/vsubuws, ...): each lane saturates to its
// type's range instead of wrapping on overflow.
func translateVectorSatBin(fn, _ string) opcodeFunc {
	return func(c *ctx) {
		vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
		c.em.Line("\tctx.v%d = %s(ctx.v%d, ctx.v%d);", vd, fn, va, vb)
	}
}

// translateVectorPack covers the saturating pack family (vpkshus,
// vpkuhus, vpkuwus, vpkswss): VA's and VB's lanes each narrow to half
// width, clamped to the destination type's range, and concatenate into
// VD.
func translateVectorPack(fn string) opcodeFunc {
	return func(c *ctx) {
		vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
		c.em.Line("\tctx.v%d = %s(ctx.v%d, ctx.v%d);", vd, fn, va, vb)
	}
}

// translateVectorCompare covers the per-lane floating-point compares
// (vcmpeqfp/vcmpgtfp/vcmpgefp). The record-bit ("CC") forms additionally
// write a 6-bit predicate summary to cr6 the way the integer/float
// compares all do; the plain forms only produce the lane mask in VD.
func translateVectorCompare(fn string, recordForm bool) opcodeFunc {
	return func(c *ctx) {
		vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
		c.em.Line("\tctx.v%d = %s(ctx.v%d, ctx.v%d);", vd, fn, va, vb)
		if recordForm {
			c.em.Line("\tctx.cr6.setFromMask(ctx.v%d, 0xF);", vd)
		}
	}
}

// translateVectorMerge covers vmrghw/vmrglw: interleave the high (or low)
// two lanes of VA and VB into VD.
func translateVectorMerge(fn string) opcodeFunc {
	return func(c *ctx) {
		vd, va, vb := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2])
		c.em.Line("\tctx.v%d = %s(ctx.v%d, ctx.v%d);", vd, fn, va, vb)
	}
}

// translateVPERM selects, for each of VD's 16 bytes, the byte named by
// the matching index nibble in VC out of the 32-byte concatenation of
// VA:VB.
func translateVPERM(c *ctx) {
	vd, va, vb, vc := vr(c.insn.Args[0]), vr(c.insn.Args[1]), vr(c.insn.Args[2]), vr(c.insn.Args[3])
	c.em.Line("\tctx.v%d = vec_perm(ctx.v%d, ctx.v%d, ctx.v%d);", vd, va, vb, vc)
}
