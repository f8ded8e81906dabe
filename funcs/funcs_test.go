package funcs

import (
	"testing"

	"github.com/xenonrecomp/recomp/symtab"
)

func beBytes(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func TestPdataPassRegistersFunctionSymbols(t *testing.T) {
	var syms symtab.SymbolTable

	var pdata []byte
	pdata = append(pdata, beBytes(0x82000F00)...)
	pdata = append(pdata, beBytes(0x00000080)...) // length = 0x80 words = 0x200 bytes

	functions := pdataPass(&syms, pdata)
	if len(functions) != 1 {
		t.Fatalf("len(functions) = %d, want 1", len(functions))
	}
	if functions[0].Base != 0x82000F00 || functions[0].Size != 0x200 {
		t.Fatalf("functions[0] = %+v", functions[0])
	}

	sym, ok := syms.FindExact(0x82000F00)
	if !ok || sym.Name != "sub_82000F00" || sym.Kind != symtab.KindFunction {
		t.Fatalf("FindExact() = %+v, %v", sym, ok)
	}
}

func TestAnalyzeCutsAtBLR(t *testing.T) {
	var data []byte
	data = append(data, beBytes(0x38600000)...) // li r3, 0
	data = append(data, beBytes(0x4E800020)...) // blr
	data = append(data, beBytes(0x60000000)...) // next function's nop, must not be included

	fn := Analyze(data, 0x82001000)
	if fn.Size != 8 {
		t.Fatalf("fn.Size = %#x, want 8", fn.Size)
	}
}

func TestDiscoverSkipsZeroPaddingAndFrameHandlers(t *testing.T) {
	var sections symtab.SectionTable
	var syms symtab.SymbolTable

	var data []byte
	data = append(data, beBytes(0)...)          // padding
	data = append(data, beBytes(0xAABBCCDD)...) // frame handler span lead word
	data = append(data, beBytes(0)...)          // second word of the span
	data = append(data, beBytes(0x38600000)...) // function body
	data = append(data, beBytes(0x4E800020)...) // blr

	sections.Insert(symtab.Section{Name: ".text", Base: 0x82000000, Size: uint32(len(data)), Flags: symtab.SectionCode, Data: data})

	functions := Discover(&sections, &syms, nil, nil, []FrameHandlerSpan{{LeadWord: 0xAABBCCDD}})
	if len(functions) != 1 {
		t.Fatalf("len(functions) = %d, want 1: %+v", len(functions), functions)
	}
	if functions[0].Base != 0x8200000C {
		t.Fatalf("functions[0].Base = %#x, want 0x8200000C", functions[0].Base)
	}
}
