package recompile

import (
	"fmt"

	"golang.org/x/arch/ppc64/ppc64asm"

	"github.com/xenonrecomp/recomp/funcs"
	"github.com/xenonrecomp/recomp/switchtbl"
	"github.com/xenonrecomp/recomp/symtab"
)

// ctx is the per-instruction translation context threaded through every
// opcode handler: the emission sink, the owning Function's bounds (for
// branch resolution), the symbol table (for call-target naming), the
// switch-table manifest (for bctr resolution), and the instruction itself.
// Unexported: opcode handlers live in this package only.
type ctx struct {
	em       *Emitter
	syms     *symtab.SymbolTable
	switches switchtbl.Table
	fn       funcs.Function
	addr     uint32 // virtual address of the instruction being translated
	next     uint32 // address of the instruction immediately following it
	insn     Instruction
}

// opcodeFunc emits one instruction's translation. It must not touch c.addr
// past reading it — label emission and loop advancement are the caller's
// job, not the handler's.
type opcodeFunc func(c *ctx)

// table dispatches a decoded Op to its translation. Built up by the
// opcodes_*.go files' init functions, one per instruction family — a
// table-driven compression of what would otherwise be one long opcode
// switch.
var table = map[ppc64asm.Op]opcodeFunc{}

// register records fn as the translation for every op in ops. Opcode files
// call this from init() so the table is fully built before Translate ever
// runs.
func register(fn opcodeFunc, ops ...ppc64asm.Op) {
	for _, op := range ops {
		table[op] = fn
	}
}

// Translate emits one host function for fn: a prologue, then one labelled
// block per 4-byte instruction word in [fn.Base, fn.Base+fn.Size). Every
// address gets exactly one loc_<HEX> label, even when the opcode is
// unrecognized.
//
// data must hold exactly fn.Size bytes of raw big-endian instruction words
// for the function, name is the symbol this function should be emitted
// under (already resolved to "sub_<HEX>" by the caller when no named symbol
// exists), and dec decodes each word.
func Translate(em *Emitter, name string, fn funcs.Function, data []byte, syms *symtab.SymbolTable, switches switchtbl.Table, dec Decoder) {
	em.Line("PPC_FUNC void %s(PPCContext& __restrict ctx, uint8_t* base) {", name)
	em.Line("\tPPCRegister temp;")
	em.Line("\tuint32_t ea;")
	em.Line("")

	c := &ctx{em: em, syms: syms, switches: switches, fn: fn}

	end := fn.Base + fn.Size
	for addr := fn.Base; addr < end; addr += 4 {
		em.Line("loc_%X:", addr)

		off := addr - fn.Base
		var word [4]byte
		copy(word[:], data[off:off+4])

		insn, err := dec.Decode(word, addr)
		c.addr = addr
		c.next = addr + 4
		c.insn = insn

		if err != nil || insn.Op == 0 {
			em.Line("\t// %X %s", addr, rawWordString(word))
			continue
		}

		handler, ok := table[insn.Op]
		if !ok {
			em.Line("\t// %X %s", addr, insn.String())
			continue
		}

		em.Line("\t// %X %s", addr, insn.String())
		handler(c)
	}

	em.Line("}")
	em.Line("")
}

func rawWordString(word [4]byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x", word[0], word[1], word[2], word[3])
}

// callTarget emits a call to the function covering ea: a direct call by
// name when a Function symbol exists there, else an indirect call through
// the context's function-pointer table, grounded on main.cpp's
// printFunctionCall lambda.
func (c *ctx) callTarget(ea uint32) {
	if sym, ok := c.syms.FindExact(ea); ok && sym.Kind == symtab.KindFunction {
		c.em.Line("\t%s(ctx, base);", sym.Name)
		return
	}
	c.em.Line("\tctx.fn[0x%X](ctx, base);", ea/4)
}

// inFunction reports whether ea lies within the function currently being
// translated, the branch-resolution test applied to every direct branch
// form.
func (c *ctx) inFunction(ea uint32) bool {
	return ea >= c.fn.Base && ea < c.fn.Base+c.fn.Size
}
