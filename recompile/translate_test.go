package recompile

import (
	"strings"
	"testing"

	"github.com/xenonrecomp/recomp/funcs"
	"github.com/xenonrecomp/recomp/switchtbl"
	"github.com/xenonrecomp/recomp/symtab"
)

// encode assembles a big-endian PowerPC instruction word from its opcode
// and raw field bits, just enough of the common forms this package's tests
// need, without pulling in an assembler.
func encode(op uint32, bits ...uint32) [4]byte {
	word := op << 26
	for _, b := range bits {
		word |= b
	}
	var out [4]byte
	out[0] = byte(word >> 24)
	out[1] = byte(word >> 16)
	out[2] = byte(word >> 8)
	out[3] = byte(word)
	return out
}

func wordsToBytes(words [][4]byte) []byte {
	out := make([]byte, 0, len(words)*4)
	for _, w := range words {
		out = append(out, w[:]...)
	}
	return out
}

// blrWord is `blr`: bclr with BO=20 (branch always), BI=0, LK=0.
func blrWord() [4]byte {
	return encode(19, 20<<21, 0<<16, 16<<1)
}

func TestTranslateEmitsOneLabelPerInstruction(t *testing.T) {
	words := [][4]byte{blrWord(), blrWord()}
	data := wordsToBytes(words)

	fn := funcs.Function{Base: 0x1000, Size: 8}
	syms := &symtab.SymbolTable{}
	em := NewEmitter()

	Translate(em, "sub_1000", fn, data, syms, nil, NewDecoder())

	out := em.String()
	if !strings.Contains(out, "loc_1000:") || !strings.Contains(out, "loc_1004:") {
		t.Fatalf("Translate(...) output missing a per-instruction label:\n%s", out)
	}
	if strings.Count(out, "return;") != 2 {
		t.Fatalf("Translate(...) got %d returns, want 2:\n%s", strings.Count(out, "return;"), out)
	}
}

func TestTranslateUnrecognizedWordFallsBackToComment(t *testing.T) {
	// An all-zero word decodes to an illegal/zero Op in ppc64asm.
	data := []byte{0, 0, 0, 0}
	fn := funcs.Function{Base: 0x2000, Size: 4}
	syms := &symtab.SymbolTable{}
	em := NewEmitter()

	Translate(em, "sub_2000", fn, data, syms, nil, NewDecoder())

	out := em.String()
	if !strings.Contains(out, "loc_2000:") {
		t.Fatalf("Translate(...) dropped the label for an unrecognized word:\n%s", out)
	}
	if !strings.Contains(out, "// 2000 00000000") {
		t.Fatalf("Translate(...) missing the fallback comment for an unrecognized word:\n%s", out)
	}
}

func TestDecodeBOGeneralCondition(t *testing.T) {
	tests := []struct {
		name                                   string
		bo                                     uint32
		testCTR, branchCTRNonZero, testCR, branchIfTrue bool
	}{
		{"beq (BO=12)", 12, false, true, true, true},
		{"bne (BO=4)", 4, false, true, true, false},
		{"bdnz (BO=16)", 16, true, true, false, false},
		{"bdnzf-eq (BO=0)", 0, true, true, true, false},
		{"branch-always (BO=20)", 20, false, true, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testCTR, branchCTRNonZero, testCR, branchIfTrue := decodeBO(tt.bo)
			if testCTR != tt.testCTR || branchCTRNonZero != tt.branchCTRNonZero ||
				testCR != tt.testCR || branchIfTrue != tt.branchIfTrue {
				t.Fatalf("decodeBO(%d) = (%v,%v,%v,%v), want (%v,%v,%v,%v)",
					tt.bo, testCTR, branchCTRNonZero, testCR, branchIfTrue,
					tt.testCTR, tt.branchCTRNonZero, tt.testCR, tt.branchIfTrue)
			}
		})
	}
}

func TestTranslateBCCTRConsultsSwitchManifest(t *testing.T) {
	// bcctr with BO=20 (branch always), BI=0, LK=0.
	word := encode(19, 20<<21, 0<<16, 528<<1)
	fn := funcs.Function{Base: 0x3000, Size: 4}
	syms := &symtab.SymbolTable{}
	switches := switchtbl.Table{
		0x3000: switchtbl.Switch{Base: 0x3000, R: 5, Labels: []uint64{0x3100, 0x3200}},
	}
	em := NewEmitter()

	Translate(em, "sub_3000", fn, []byte{word[0], word[1], word[2], word[3]}, syms, switches, NewDecoder())

	out := em.String()
	if !strings.Contains(out, "switch (ctx.r5.u64)") {
		t.Fatalf("Translate(...) did not consult the switch manifest:\n%s", out)
	}
	if !strings.Contains(out, "case 0: goto loc_3100;") || !strings.Contains(out, "case 1: goto loc_3200;") {
		t.Fatalf("Translate(...) emitted wrong switch cases:\n%s", out)
	}
}

func TestCallTargetPrefersDirectSymbol(t *testing.T) {
	syms := &symtab.SymbolTable{}
	syms.Insert(symtab.Symbol{Name: "memcpy", Address: 0x5000, Size: 0x40, Kind: symtab.KindFunction})

	fn := funcs.Function{Base: 0x1000, Size: 4}
	em := NewEmitter()
	c := &ctx{em: em, syms: syms, fn: fn}

	c.callTarget(0x5000)
	if !strings.Contains(em.String(), "memcpy(ctx, base);") {
		t.Fatalf("callTarget(0x5000) = %q, want a direct call to memcpy", em.String())
	}
}

func TestCallTargetFallsBackToIndirectTable(t *testing.T) {
	syms := &symtab.SymbolTable{}
	fn := funcs.Function{Base: 0x1000, Size: 4}
	em := NewEmitter()
	c := &ctx{em: em, syms: syms, fn: fn}

	c.callTarget(0x6004)
	if !strings.Contains(em.String(), "ctx.fn[0x1801](ctx, base);") {
		t.Fatalf("callTarget(0x6004) = %q, want the indirect fn-table call", em.String())
	}
}
