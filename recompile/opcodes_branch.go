package recompile

import (
	"strconv"

	"golang.org/x/arch/ppc64/ppc64asm"

	"github.com/xenonrecomp/recomp/symtab"
)

// condField maps a decoded CondReg bit operand (Cond0LT..Cond7SO) to its
// cr field index (0-7) and mnemonic ("lt"/"gt"/"eq"/"so"). This is a
// general decode keyed off the actual operand rather than assuming a
// fixed cr bit, so bdnzf/bdnzt translate correctly regardless of which
// field they test.
func condField(bi ppc64asm.CondReg) (field int, name string) {
	n := int(bi - ppc64asm.Cond0LT)
	return n / 4, [4]string{"lt", "gt", "eq", "so"}[n%4]
}

// branchOperands pulls BO and BI out of a conditional branch's Args, per
// the shared layout {Imm(BO), CondReg(BI), ...}; any target operand is
// left to the caller.
func branchOperands(insn Instruction) (bo uint32, bi ppc64asm.CondReg) {
	bo = uint32(insn.Args[0].(ppc64asm.Imm))
	bi = insn.Args[1].(ppc64asm.CondReg)
	return
}

// decodeBO splits the 5-bit BO field per the Power ISA's branch-conditional
// encoding: whether CTR is decremented-and-tested, the CTR branch
// condition, whether the CR bit is tested at all, and the CR test polarity.
// Bit assignment (BO0 is the field's MSB, weight 16): BO0==0 means the CR
// condition is tested at all (1 means branch regardless of it); BO1 is the
// CR test's polarity; BO2==0 means CTR is decremented and tested (1 means
// CTR is ignored); BO3 is the CTR test's polarity. Confirmed against the
// well-known extended-mnemonic encodings (bdnzf=0, bf=4, bdnzt=8, bt=12,
// bdnz=16, unconditional=20): e.g. bt/bf share BO2=1 (CTR ignored) and
// differ only in BO1 (branch-true vs branch-false).
func decodeBO(bo uint32) (testCTR, branchCTRNonZero, testCR, branchIfTrue bool) {
	testCR = bo&0x10 == 0           // BO0 == 0: condition is actually tested
	branchIfTrue = bo&0x08 != 0     // BO1: polarity of the CR test
	testCTR = bo&0x04 == 0          // BO2 == 0: decrement and test CTR
	branchCTRNonZero = bo&0x02 == 0 // BO3 == 0: branch when CTR != 0
	return
}

func init() {
	register(translateB, ppc64asm.B, ppc64asm.BA, ppc64asm.BL, ppc64asm.BLA)
	register(translateBC, ppc64asm.BC, ppc64asm.BCA, ppc64asm.BCL, ppc64asm.BCLA)
	register(translateBCCTR, ppc64asm.BCCTR, ppc64asm.BCCTRL)
	register(translateBCLR, ppc64asm.BCLR, ppc64asm.BCLRL)
}

// branchTargetAbsolute resolves a B-form target operand to an absolute
// virtual address: Label operands already are absolute (AA=1 forms); PCRel
// operands are relative to the branch instruction's own address.
func (c *ctx) branchTargetAbsolute(arg ppc64asm.Arg) uint32 {
	switch t := arg.(type) {
	case ppc64asm.Label:
		return uint32(t)
	case ppc64asm.PCRel:
		return uint32(int64(c.addr) + int64(t))
	default:
		return 0
	}
}

func isLinkForm(op ppc64asm.Op) bool {
	switch op {
	case ppc64asm.BL, ppc64asm.BLA, ppc64asm.BCL, ppc64asm.BCLA, ppc64asm.BCCTRL, ppc64asm.BCLRL:
		return true
	}
	return false
}

// translateB handles the unconditional b/ba/bl/bla forms.
func translateB(c *ctx) {
	target := c.branchTargetAbsolute(c.insn.Args[0])
	if isLinkForm(c.insn.Op) {
		c.em.Line("\tctx.lr = 0x%X;", c.next)
	}

	if c.inFunction(target) && !isLinkForm(c.insn.Op) {
		c.em.Line("\tgoto loc_%X;", target)
		return
	}
	c.callTarget(target)
	if !isLinkForm(c.insn.Op) {
		c.em.Line("\treturn;")
	}
}

// translateBC handles the conditional branch-to-address forms (beq/bne/
// bgt/bge/blt/ble and the bdnz/bdnzf family), by decoding BO/BI generally
// rather than matching a fixed extended-mnemonic set.
func translateBC(c *ctx) {
	bo, bi := branchOperands(c.insn)
	testCTR, branchCTRNonZero, testCR, branchIfTrue := decodeBO(bo)
	target := c.branchTargetAbsolute(c.insn.Args[2])
	link := isLinkForm(c.insn.Op)

	var cond string
	switch {
	case testCTR && testCR:
		field, name := condField(bi)
		ctrCmp := "!= 0"
		if !branchCTRNonZero {
			ctrCmp = "== 0"
		}
		polarity := ""
		if !branchIfTrue {
			polarity = "!"
		}
		cond = "--ctx.ctr " + ctrCmp + " && " + polarity + fieldExpr(field, name)
	case testCTR:
		ctrCmp := "!= 0"
		if !branchCTRNonZero {
			ctrCmp = "== 0"
		}
		cond = "--ctx.ctr " + ctrCmp
	case testCR:
		field, name := condField(bi)
		polarity := ""
		if !branchIfTrue {
			polarity = "!"
		}
		cond = polarity + fieldExpr(field, name)
	default:
		cond = "true"
	}

	if link {
		c.em.Line("\tif (%s) {", cond)
		c.em.Line("\t\tctx.lr = 0x%X;", c.next)
		c.callTargetIndented(target, "\t\t")
		c.em.Line("\t\treturn;")
		c.em.Line("\t}")
		return
	}

	if c.inFunction(target) {
		c.em.Line("\tif (%s) goto loc_%X;", cond, target)
		return
	}

	c.em.Line("\tif (%s) {", cond)
	c.callTargetIndented(target, "\t\t")
	c.em.Line("\t\treturn;")
	c.em.Line("\t}")
}

func fieldExpr(field int, name string) string {
	return "ctx.cr" + strconv.Itoa(field) + "." + name
}

// callTargetIndented is callTarget with an explicit indent, for emission
// inside an already-opened `if` block.
func (c *ctx) callTargetIndented(ea uint32, indent string) {
	if sym, ok := c.syms.FindExact(ea); ok && sym.Kind == symtab.KindFunction {
		c.em.Line("%s%s(ctx, base);", indent, sym.Name)
		return
	}
	c.em.Line("%sctx.fn[0x%X](ctx, base);", indent, ea/4)
}

// translateBCCTR handles bctr/bctrl: switch-table consultation and the
// indirect-call forms. A bctr (no link) whose BO does not test a CR bit
// consults the manifest; a CR-testing BO, a link form, or an address with
// no manifest entry falls back to the indirect function-pointer call.
func translateBCCTR(c *ctx) {
	bo, _ := branchOperands(c.insn)
	_, _, testCR, _ := decodeBO(bo)
	link := isLinkForm(c.insn.Op)

	if !testCR && !link {
		if sw, ok := c.switches.Lookup(c.addr); ok {
			c.em.Line("\tswitch (ctx.r%d.u64) {", sw.R)
			for i, label := range sw.Labels {
				c.em.Line("\t\tcase %d: goto loc_%X;", i, label)
			}
			c.em.Line("\t\tdefault: __unreachable();")
			c.em.Line("\t}")
			return
		}
	}

	if link {
		c.em.Line("\tctx.lr = 0x%X;", c.next)
	}
	c.em.Line("\tctx.fn[ctx.ctr / 4](ctx, base);")
	if !link {
		c.em.Line("\treturn;")
	}
}

// translateBCLR handles blr/blrl and the conditional return forms
// (beqlr/bnelr/...), again decoding BO/BI generally instead of matching a
// fixed mnemonic set.
func translateBCLR(c *ctx) {
	bo, bi := branchOperands(c.insn)
	testCTR, branchCTRNonZero, testCR, branchIfTrue := decodeBO(bo)
	link := isLinkForm(c.insn.Op)

	if !testCTR && !testCR {
		if link {
			c.em.Line("\tctx.fn[ctx.lr / 4](ctx, base);")
		} else {
			c.em.Line("\treturn;")
		}
		return
	}

	var cond string
	switch {
	case testCTR && testCR:
		field, name := condField(bi)
		ctrCmp := "!= 0"
		if !branchCTRNonZero {
			ctrCmp = "== 0"
		}
		polarity := ""
		if !branchIfTrue {
			polarity = "!"
		}
		cond = "--ctx.ctr " + ctrCmp + " && " + polarity + fieldExpr(field, name)
	case testCTR:
		ctrCmp := "!= 0"
		if !branchCTRNonZero {
			ctrCmp = "== 0"
		}
		cond = "--ctx.ctr " + ctrCmp
	default:
		field, name := condField(bi)
		polarity := ""
		if !branchIfTrue {
			polarity = "!"
		}
		cond = polarity + fieldExpr(field, name)
	}

	if link {
		c.em.Line("\tif (%s) ctx.fn[ctx.lr / 4](ctx, base);", cond)
		return
	}
	c.em.Line("\tif (%s) return;", cond)
}
