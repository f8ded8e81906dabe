package recompile

import "golang.org/x/arch/ppc64/ppc64asm"

func init() {
	register(translateFloatBin("+"), ppc64asm.FADD, ppc64asm.FADDCC, ppc64asm.FADDS, ppc64asm.FADDSCC)
	register(translateFloatBin("-"), ppc64asm.FSUB, ppc64asm.FSUBCC, ppc64asm.FSUBS, ppc64asm.FSUBSCC)
	register(translateFloatMul, ppc64asm.FMUL, ppc64asm.FMULCC, ppc64asm.FMULS, ppc64asm.FMULSCC)
	register(translateFloatDiv, ppc64asm.FDIV, ppc64asm.FDIVCC, ppc64asm.FDIVS, ppc64asm.FDIVSCC)
	register(translateFMADD, ppc64asm.FMADD, ppc64asm.FMADDCC, ppc64asm.FMADDS, ppc64asm.FMADDSCC)
	register(translateFMSUB, ppc64asm.FMSUB, ppc64asm.FMSUBCC, ppc64asm.FMSUBS, ppc64asm.FMSUBSCC)
	register(translateFNMSUB, ppc64asm.FNMSUB, ppc64asm.FNMSUBCC, ppc64asm.FNMSUBS, ppc64asm.FNMSUBSCC)
	register(translateFNEG, ppc64asm.FNEG, ppc64asm.FNEGCC)
	register(translateFABS, ppc64asm.FABS, ppc64asm.FABSCC)
	register(translateFNABS, ppc64asm.FNABS, ppc64asm.FNABSCC)
	register(translateFSEL, ppc64asm.FSEL, ppc64asm.FSELCC)
	register(translateFSQRT, ppc64asm.FSQRT, ppc64asm.FSQRTCC, ppc64asm.FSQRTS, ppc64asm.FSQRTSCC)
	register(translateFRES, ppc64asm.FRES, ppc64asm.FRESCC)
	register(translateFRSQRTE, ppc64asm.FRSQRTE, ppc64asm.FRSQRTECC)
	register(translateFRSP, ppc64asm.FRSP, ppc64asm.FRSPCC)
	register(translateFMR, ppc64asm.FMR, ppc64asm.FMRCC)
	register(translateFCMPU, ppc64asm.FCMPU)
	register(translateFCMPO, ppc64asm.FCMPO)
	register(translateFCFID, ppc64asm.FCFID, ppc64asm.FCFIDCC)
	register(translateFCTID, ppc64asm.FCTID, ppc64asm.FCTIDCC)
	register(translateFCTIDZ, ppc64asm.FCTIDZ, ppc64asm.FCTIDZCC)
	register(translateFCTIWZ, ppc64asm.FCTIWZ, ppc64asm.FCTIWZCC)
	register(translateMFFS, ppc64asm.MFFS, ppc64asm.MFFSCC)
	register(translateMTFSF, ppc64asm.MTFSF, ppc64asm.MTFSFCC)
}

func translateFloatBin(op string) opcodeFunc {
	return func(c *ctx) {
		ft, fa, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1]), fpr(c.insn.Args[2])
		c.em.Line("\tctx.f%d.f64 = ctx.f%d.f64 %s ctx.f%d.f64;", ft, fa, op, fb)
	}
}

func translateFloatMul(c *ctx) {
	ft, fa, fc := fpr(c.insn.Args[0]), fpr(c.insn.Args[1]), fpr(c.insn.Args[2])
	c.em.Line("\tctx.f%d.f64 = ctx.f%d.f64 * ctx.f%d.f64;", ft, fa, fc)
}

func translateFloatDiv(c *ctx) {
	ft, fa, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1]), fpr(c.insn.Args[2])
	c.em.Line("\tctx.f%d.f64 = ctx.f%d.f64 / ctx.f%d.f64;", ft, fa, fb)
}

func translateFMADD(c *ctx) {
	ft, fa, fc, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1]), fpr(c.insn.Args[2]), fpr(c.insn.Args[3])
	c.em.Line("\tctx.f%d.f64 = ctx.f%d.f64 * ctx.f%d.f64 + ctx.f%d.f64;", ft, fa, fc, fb)
}

func translateFMSUB(c *ctx) {
	ft, fa, fc, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1]), fpr(c.insn.Args[2]), fpr(c.insn.Args[3])
	c.em.Line("\tctx.f%d.f64 = ctx.f%d.f64 * ctx.f%d.f64 - ctx.f%d.f64;", ft, fa, fc, fb)
}

func translateFNMSUB(c *ctx) {
	ft, fa, fc, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1]), fpr(c.insn.Args[2]), fpr(c.insn.Args[3])
	c.em.Line("\tctx.f%d.f64 = -(ctx.f%d.f64 * ctx.f%d.f64 - ctx.f%d.f64);", ft, fa, fc, fb)
}

func translateFNEG(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = -ctx.f%d.f64;", ft, fb)
}

func translateFABS(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = fabs(ctx.f%d.f64);", ft, fb)
}

func translateFNABS(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = -fabs(ctx.f%d.f64);", ft, fb)
}

// translateFSEL: select fc when fa >= 0.0, else fb — the ISA's documented
// semantics (never NaN-aware, a plain numeric compare).
func translateFSEL(c *ctx) {
	ft, fa, fc, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1]), fpr(c.insn.Args[2]), fpr(c.insn.Args[3])
	c.em.Line("\tctx.f%d.f64 = ctx.f%d.f64 >= 0.0 ? ctx.f%d.f64 : ctx.f%d.f64;", ft, fa, fc, fb)
}

func translateFSQRT(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = sqrt(ctx.f%d.f64);", ft, fb)
}

func translateFRES(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = 1.0 / ctx.f%d.f64;", ft, fb)
}

func translateFRSQRTE(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = 1.0 / sqrt(ctx.f%d.f64);", ft, fb)
}

func translateFRSP(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = double(float(ctx.f%d.f64));", ft, fb)
}

func translateFMR(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = ctx.f%d.f64;", ft, fb)
}

func translateFCMPU(c *ctx) {
	field := crFieldOf(c.insn)
	args := c.insn.Args
	idx := 0
	if _, ok := args[0].(ppc64asm.CondReg); ok {
		idx = 1
	}
	fa, fb := fpr(args[idx]), fpr(args[idx+1])
	c.em.Line("\tctx.cr%d.compareFloat(ctx.f%d.f64, ctx.f%d.f64);", field, fa, fb)
}

func translateFCMPO(c *ctx) {
	translateFCMPU(c)
}

func translateFCFID(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.f64 = double(ctx.f%d.s64);", ft, fb)
}

func translateFCTID(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.s64 = int64_t(nearbyint(ctx.f%d.f64));", ft, fb)
}

func translateFCTIDZ(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.s64 = int64_t(ctx.f%d.f64);", ft, fb)
}

func translateFCTIWZ(c *ctx) {
	ft, fb := fpr(c.insn.Args[0]), fpr(c.insn.Args[1])
	c.em.Line("\tctx.f%d.s64 = int32_t(ctx.f%d.f64);", ft, fb)
}

// translateMFFS/translateMTFSF are direct field copies to/from the
// emitted context's fpscr word, with no bit-by-bit decomposition.
func translateMFFS(c *ctx) {
	ft := fpr(c.insn.Args[0])
	c.em.Line("\tctx.f%d.u64 = ctx.fpscr;", ft)
}

func translateMTFSF(c *ctx) {
	frb := fpr(c.insn.Args[1])
	c.em.Line("\tctx.fpscr = ctx.f%d.u32;", frb)
}
