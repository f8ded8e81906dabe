// Package recompile also exposes the top-level driver that ties function
// discovery, symbol naming, and per-function translation into a single
// emission: one self-contained host source file per image, a forward
// declaration per discovered function, then each function's translated
// body in discovery order.
package recompile

import (
	"fmt"

	"github.com/xenonrecomp/recomp/funcs"
	"github.com/xenonrecomp/recomp/switchtbl"
	"github.com/xenonrecomp/recomp/symtab"
)

// Result is one image's full translation.
type Result struct {
	Source       []byte
	FunctionCount int
}

// Run translates every Function in fns against sections/syms, consulting
// switches for indirect-branch resolution, and returns the assembled
// source. dec decodes each instruction word; a nil Decoder defaults to
// NewDecoder().
func Run(fns []funcs.Function, sections *symtab.SectionTable, syms *symtab.SymbolTable, switches switchtbl.Table, dec Decoder) (Result, error) {
	if dec == nil {
		dec = NewDecoder()
	}

	em := NewEmitter()
	em.Line("#include \"ppc_context.h\"")
	em.Line("")

	for _, fn := range fns {
		em.Line("PPC_FUNC void %s(PPCContext& __restrict ctx, uint8_t* base);", functionName(fn, syms))
	}
	em.Line("")

	for _, fn := range fns {
		data, ok := sections.Bytes(fn.Base, fn.Size)
		if !ok {
			return Result{}, fmt.Errorf("recompile: function at 0x%X has no backing section data", fn.Base)
		}
		Translate(em, functionName(fn, syms), fn, data, syms, switches, dec)
	}

	return Result{Source: em.Bytes(), FunctionCount: len(fns)}, nil
}

// functionName resolves a Function to the symbol name it should be emitted
// under: the discovered symbol's own name if one covers its exact start
// address, else the sub_<HEX> fallback discovery itself already registers
// (see funcs.Discover), so this should always hit.
func functionName(fn funcs.Function, syms *symtab.SymbolTable) string {
	if sym, ok := syms.FindExact(fn.Base); ok {
		return sym.Name
	}
	return fmt.Sprintf("sub_%X", fn.Base)
}
