package symtab

import "testing"

func TestSectionFind(t *testing.T) {
	var t1 SectionTable
	t1.Insert(Section{Name: ".data", Base: 0x82002000, Size: 0x1000})
	t1.Insert(Section{Name: ".text", Base: 0x82000000, Size: 0x2000, Flags: SectionCode})

	s, ok := t1.Find(0x82000100)
	if !ok || s.Name != ".text" {
		t.Fatalf("Find(0x82000100) = %+v, %v", s, ok)
	}

	if _, ok := t1.Find(0x81000000); ok {
		t.Fatalf("expected no section before the first base")
	}

	if _, ok := t1.Find(0x82003000); ok {
		t.Fatalf("expected no section past the last section's end")
	}
}

func TestSymbolFindPrefersTightestContainment(t *testing.T) {
	var st SymbolTable
	st.Insert(Symbol{Name: ".text", Address: 0x82000000, Size: 0x10000, Kind: KindSection})
	st.Insert(Symbol{Name: "sub_82000F00", Address: 0x82000F00, Size: 0x200, Kind: KindFunction})

	sym, ok := st.Find(0x82000F10)
	if !ok || sym.Kind != KindFunction || sym.Name != "sub_82000F00" {
		t.Fatalf("Find() = %+v, %v, want the function symbol", sym, ok)
	}
}

func TestSymbolFindFunctionRejectsNonFunction(t *testing.T) {
	var st SymbolTable
	st.Insert(Symbol{Name: ".text", Address: 0x82000000, Size: 0x10000, Kind: KindSection})

	if _, ok := st.FindFunction(0x82000010); ok {
		t.Fatalf("expected no function match against a section-only symbol")
	}
}
