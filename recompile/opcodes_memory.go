package recompile

import "golang.org/x/arch/ppc64/ppc64asm"

// memLoad describes one scalar-load family member: the C field suffix to
// read into (u8/u16/u32/u64), whether the original's "a" (algebraic, i.e.
// sign-extending) form applies, and whether it is the X-form (base+index)
// or D-form (base+displacement) addressing shape.
type memLoad struct {
	width    string // "u8", "u16", "u32", "u64"
	signed   bool
	indexed  bool
	update   bool
}

func init() {
	register(makeLoad(memLoad{"u8", false, false, false}), ppc64asm.LBZ)
	register(makeLoad(memLoad{"u8", false, false, true}), ppc64asm.LBZU)
	register(makeLoad(memLoad{"u8", false, true, false}), ppc64asm.LBZX)
	register(makeLoad(memLoad{"u8", false, true, true}), ppc64asm.LBZUX)

	register(makeLoad(memLoad{"u16", false, false, false}), ppc64asm.LHZ)
	register(makeLoad(memLoad{"u16", false, false, true}), ppc64asm.LHZU)
	register(makeLoad(memLoad{"u16", false, true, false}), ppc64asm.LHZX)
	register(makeLoad(memLoad{"u16", false, true, true}), ppc64asm.LHZUX)

	register(makeLoad(memLoad{"u16", true, false, false}), ppc64asm.LHA)
	register(makeLoad(memLoad{"u16", true, false, true}), ppc64asm.LHAU)
	register(makeLoad(memLoad{"u16", true, true, false}), ppc64asm.LHAX)
	register(makeLoad(memLoad{"u16", true, true, true}), ppc64asm.LHAUX)

	register(makeLoad(memLoad{"u32", false, false, false}), ppc64asm.LWZ)
	register(makeLoad(memLoad{"u32", false, false, true}), ppc64asm.LWZU)
	register(makeLoad(memLoad{"u32", false, true, false}), ppc64asm.LWZX)
	register(makeLoad(memLoad{"u32", false, true, true}), ppc64asm.LWZUX)

	register(makeLoad(memLoad{"u32", true, false, false}), ppc64asm.LWA)
	register(makeLoad(memLoad{"u32", true, true, false}), ppc64asm.LWAX)
	register(makeLoad(memLoad{"u32", true, true, true}), ppc64asm.LWAUX)

	register(makeLoad(memLoad{"u64", false, false, false}), ppc64asm.LD)
	register(makeLoad(memLoad{"u64", false, false, true}), ppc64asm.LDU)
	register(makeLoad(memLoad{"u64", false, true, false}), ppc64asm.LDX)
	register(makeLoad(memLoad{"u64", false, true, true}), ppc64asm.LDUX)

	register(makeStore(memLoad{"u8", false, false, false}), ppc64asm.STB)
	register(makeStore(memLoad{"u8", false, false, true}), ppc64asm.STBU)
	register(makeStore(memLoad{"u8", false, true, false}), ppc64asm.STBX)
	register(makeStore(memLoad{"u8", false, true, true}), ppc64asm.STBUX)

	register(makeStore(memLoad{"u16", false, false, false}), ppc64asm.STH)
	register(makeStore(memLoad{"u16", false, false, true}), ppc64asm.STHU)
	register(makeStore(memLoad{"u16", false, true, false}), ppc64asm.STHX)
	register(makeStore(memLoad{"u16", false, true, true}), ppc64asm.STHUX)

	register(makeStore(memLoad{"u32", false, false, false}), ppc64asm.STW)
	register(makeStore(memLoad{"u32", false, false, true}), ppc64asm.STWU)
	register(makeStore(memLoad{"u32", false, true, false}), ppc64asm.STWX)
	register(makeStore(memLoad{"u32", false, true, true}), ppc64asm.STWUX)

	register(makeStore(memLoad{"u64", false, false, false}), ppc64asm.STD)
	register(makeStore(memLoad{"u64", false, false, true}), ppc64asm.STDU)
	register(makeStore(memLoad{"u64", false, true, false}), ppc64asm.STDX)
	register(makeStore(memLoad{"u64", false, true, true}), ppc64asm.STDUX)

	register(translateLFS, ppc64asm.LFS)
	register(translateLFSU, ppc64asm.LFSU)
	register(translateLFSX, ppc64asm.LFSX)
	register(translateLFSUX, ppc64asm.LFSUX)
	register(translateLFD, ppc64asm.LFD)
	register(translateLFDU, ppc64asm.LFDU)
	register(translateLFDX, ppc64asm.LFDX)
	register(translateLFDUX, ppc64asm.LFDUX)

	register(translateSTFS, ppc64asm.STFS)
	register(translateSTFSU, ppc64asm.STFSU)
	register(translateSTFSX, ppc64asm.STFSX)
	register(translateSTFSUX, ppc64asm.STFSUX)
	register(translateSTFD, ppc64asm.STFD)
	register(translateSTFDU, ppc64asm.STFDU)
	register(translateSTFDX, ppc64asm.STFDX)
	register(translateSTFDUX, ppc64asm.STFDUX)

	register(translateLWBRX, ppc64asm.LWBRX)
	register(translateSTWBRX, ppc64asm.STWBRX)
	register(translateLHBRX, ppc64asm.LHBRX)
	register(translateSTHBRX, ppc64asm.STHBRX)

	register(translateLWARX, ppc64asm.LWARX)
	register(translateLDARX, ppc64asm.LDARX)
	register(translateSTWCX, ppc64asm.STWCX_)
	register(translateSTDCX, ppc64asm.STDCX_)
}

// operands extracts {RT, RA, displacement-or-RB} from a load's Args,
// handling both D-form (Offset) and X-form (Reg) shapes.
func (m memLoad) operands(insn Instruction) (rt, ra int, dispOrRB string) {
	rt = gpr(insn.Args[0])
	if m.indexed {
		ra = gpr(insn.Args[1])
		rb := gpr(insn.Args[2])
		return rt, ra, eaX(ra, rb)
	}
	ra = gpr(insn.Args[2])
	disp := simm(insn.Args[1])
	return rt, ra, ea(ra, disp)
}

func makeLoad(m memLoad) opcodeFunc {
	return func(c *ctx) {
		rt, ra, addr := m.operands(c.insn)
		field := m.width
		if m.signed {
			field = "s" + field[1:]
		}
		if m.update {
			c.em.Line("\tea = %s;", addr)
			c.em.Line("\tctx.r%d.%s = PPC_LOAD_%s(ea);", rt, field, loadSuffix(m.width))
			c.em.Line("\tctx.r%d.u64 = ea;", ra)
			return
		}
		c.em.Line("\tctx.r%d.%s = PPC_LOAD_%s(%s);", rt, field, loadSuffix(m.width), addr)
	}
}

func makeStore(m memLoad) opcodeFunc {
	return func(c *ctx) {
		rt, ra, addr := m.operands(c.insn)
		if m.update {
			c.em.Line("\tea = %s;", addr)
			c.em.Line("\tPPC_STORE_%s(ea, ctx.r%d.%s);", loadSuffix(m.width), rt, m.width)
			c.em.Line("\tctx.r%d.u64 = ea;", ra)
			return
		}
		c.em.Line("\tPPC_STORE_%s(%s, ctx.r%d.%s);", loadSuffix(m.width), addr, rt, m.width)
	}
}

func loadSuffix(width string) string {
	switch width {
	case "u8":
		return "U8"
	case "u16":
		return "U16"
	case "u32":
		return "U32"
	default:
		return "U64"
	}
}

// Float loads/stores always traffic in a fixed width (f32 for the "s"
// forms, f64 for the "d" forms), so they get their own handlers instead of
// sharing memLoad's generic machinery.

func translateLFS(c *ctx) {
	ft, ra := fpr(c.insn.Args[0]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.f%d.f64 = double(PPC_LOAD_F32(%s));", ft, ea(ra, simm(c.insn.Args[1])))
}

func translateLFSU(c *ctx) {
	ft, ra := fpr(c.insn.Args[0]), gpr(c.insn.Args[2])
	c.em.Line("\tea = %s;", ea(ra, simm(c.insn.Args[1])))
	c.em.Line("\tctx.f%d.f64 = double(PPC_LOAD_F32(ea));", ft)
	c.em.Line("\tctx.r%d.u64 = ea;", ra)
}

func translateLFSX(c *ctx) {
	ft, ra, rb := fpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.f%d.f64 = double(PPC_LOAD_F32(%s));", ft, eaX(ra, rb))
}

func translateLFSUX(c *ctx) {
	ft, ra, rb := fpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tea = %s;", eaX(ra, rb))
	c.em.Line("\tctx.f%d.f64 = double(PPC_LOAD_F32(ea));", ft)
	c.em.Line("\tctx.r%d.u64 = ea;", ra)
}

func translateLFD(c *ctx) {
	ft, ra := fpr(c.insn.Args[0]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.f%d.f64 = PPC_LOAD_F64(%s);", ft, ea(ra, simm(c.insn.Args[1])))
}

func translateLFDU(c *ctx) {
	ft, ra := fpr(c.insn.Args[0]), gpr(c.insn.Args[2])
	c.em.Line("\tea = %s;", ea(ra, simm(c.insn.Args[1])))
	c.em.Line("\tctx.f%d.f64 = PPC_LOAD_F64(ea);", ft)
	c.em.Line("\tctx.r%d.u64 = ea;", ra)
}

func translateLFDX(c *ctx) {
	ft, ra, rb := fpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.f%d.f64 = PPC_LOAD_F64(%s);", ft, eaX(ra, rb))
}

func translateLFDUX(c *ctx) {
	ft, ra, rb := fpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tea = %s;", eaX(ra, rb))
	c.em.Line("\tctx.f%d.f64 = PPC_LOAD_F64(ea);", ft)
	c.em.Line("\tctx.r%d.u64 = ea;", ra)
}

func translateSTFS(c *ctx) {
	ft, ra := fpr(c.insn.Args[0]), gpr(c.insn.Args[2])
	c.em.Line("\tPPC_STORE_F32(%s, float(ctx.f%d.f64));", ea(ra, simm(c.insn.Args[1])), ft)
}

func translateSTFSU(c *ctx) {
	ft, ra := fpr(c.insn.Args[0]), gpr(c.insn.Args[2])
	c.em.Line("\tea = %s;", ea(ra, simm(c.insn.Args[1])))
	c.em.Line("\tPPC_STORE_F32(ea, float(ctx.f%d.f64));", ft)
	c.em.Line("\tctx.r%d.u64 = ea;", ra)
}

func translateSTFSX(c *ctx) {
	ft, ra, rb := fpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tPPC_STORE_F32(%s, float(ctx.f%d.f64));", eaX(ra, rb), ft)
}

func translateSTFSUX(c *ctx) {
	ft, ra, rb := fpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tea = %s;", eaX(ra, rb))
	c.em.Line("\tPPC_STORE_F32(ea, float(ctx.f%d.f64));", ft)
	c.em.Line("\tctx.r%d.u64 = ea;", ra)
}

func translateSTFD(c *ctx) {
	ft, ra := fpr(c.insn.Args[0]), gpr(c.insn.Args[2])
	c.em.Line("\tPPC_STORE_F64(%s, ctx.f%d.f64);", ea(ra, simm(c.insn.Args[1])), ft)
}

func translateSTFDU(c *ctx) {
	ft, ra := fpr(c.insn.Args[0]), gpr(c.insn.Args[2])
	c.em.Line("\tea = %s;", ea(ra, simm(c.insn.Args[1])))
	c.em.Line("\tPPC_STORE_F64(ea, ctx.f%d.f64);", ft)
	c.em.Line("\tctx.r%d.u64 = ea;", ra)
}

func translateSTFDX(c *ctx) {
	ft, ra, rb := fpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tPPC_STORE_F64(%s, ctx.f%d.f64);", eaX(ra, rb), ft)
}

func translateSTFDUX(c *ctx) {
	ft, ra, rb := fpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tea = %s;", eaX(ra, rb))
	c.em.Line("\tPPC_STORE_F64(ea, ctx.f%d.f64);", ft)
	c.em.Line("\tctx.r%d.u64 = ea;", ra)
}

// Byte-reversed loads/stores: the interpreter's host is little-endian and
// these instructions reverse a big-endian guest word in one step, so they
// translate to a plain same-endianness load/store instead of the
// byte-swapping PPC_LOAD_* macros every other access goes through.

func translateLWBRX(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u32 = PPC_LOAD_U32_RAW(%s);", rt, eaX(ra, rb))
}

func translateSTWBRX(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tPPC_STORE_U32_RAW(%s, ctx.r%d.u32);", eaX(ra, rb), rt)
}

func translateLHBRX(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u16 = PPC_LOAD_U16_RAW(%s);", rt, eaX(ra, rb))
}

func translateSTHBRX(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tPPC_STORE_U16_RAW(%s, ctx.r%d.u16);", eaX(ra, rb), rt)
}

// Load/store-with-reservation: the reservation itself is irrelevant to a
// single-threaded static recompilation target (no other core can observe
// it between the two), so lwarx/ldarx/stwcx./stdcx. translate to a plain
// load and an always-succeeding store that still sets cr0[eq] per the
// architecture's documented behavior for a reservation that succeeds.

func translateLWARX(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u32 = PPC_LOAD_U32(%s);", rt, eaX(ra, rb))
}

func translateLDARX(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tctx.r%d.u64 = PPC_LOAD_U64(%s);", rt, eaX(ra, rb))
}

func translateSTWCX(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tPPC_STORE_U32(%s, ctx.r%d.u32);", eaX(ra, rb), rt)
	c.em.Line("\tctx.cr0.compare<uint32_t>(0, 0, ctx.xer);")
}

func translateSTDCX(c *ctx) {
	rt, ra, rb := gpr(c.insn.Args[0]), gpr(c.insn.Args[1]), gpr(c.insn.Args[2])
	c.em.Line("\tPPC_STORE_U64(%s, ctx.r%d.u64);", eaX(ra, rb), rt)
	c.em.Line("\tctx.cr0.compare<uint64_t>(0, 0, ctx.xer);")
}
