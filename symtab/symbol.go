package symtab

import "sort"

// Kind distinguishes what an address range names.
type Kind uint8

const (
	// KindNone is the zero value: a symbol of unspecified kind.
	KindNone Kind = iota
	// KindSection names a whole section.
	KindSection
	// KindFunction names a Function record (see package funcs).
	KindFunction
	// KindComment is a non-authoritative annotation, never used for
	// containment lookups that matter to the translator.
	KindComment
)

// Symbol is a named address range.
type Symbol struct {
	Name    string
	Address uint32
	Size    uint32
	Kind    Kind
}

func (s Symbol) end() uint32 { return s.Address + s.Size }

// SymbolTable is a multiset of symbols ordered by end-address, with an
// address lookup that returns the tightest containing symbol so a
// Function symbol wins over a Section symbol covering the same address.
type SymbolTable struct {
	byEnd []Symbol
}

// Insert adds sym, keeping the table ordered by end address. Inserted
// Function symbols must have Size > 0 and a 4-byte-aligned address; the
// caller is expected to uphold that invariant (this store does not
// special-case Kind).
func (t *SymbolTable) Insert(sym Symbol) {
	i := sort.Search(len(t.byEnd), func(i int) bool { return t.byEnd[i].end() >= sym.end() })
	t.byEnd = append(t.byEnd, Symbol{})
	copy(t.byEnd[i+1:], t.byEnd[i:])
	t.byEnd[i] = sym
}

// All returns every symbol, ordered by end address.
func (t *SymbolTable) All() []Symbol { return t.byEnd }

// Find returns the tightest symbol containing addr: among every symbol
// whose range includes addr, the one with the smallest
// (addr - symbol.Address). Mirrors XenonUtils/symbol_table.h's
// equal_range-then-shrink lookup, generalized to a full scan since this
// store only expects the handful-to-low-thousands of symbols a single
// Xenon image carries.
func (t *SymbolTable) Find(addr uint32) (Symbol, bool) {
	var (
		match   Symbol
		found   bool
		closest uint32
	)
	for _, s := range t.byEnd {
		if addr < s.Address || addr >= s.end() {
			continue
		}
		distance := addr - s.Address
		if !found || distance < closest {
			match = s
			closest = distance
			found = true
		}
	}
	return match, found
}

// FindExact returns the symbol whose Address equals addr exactly.
func (t *SymbolTable) FindExact(addr uint32) (Symbol, bool) {
	for _, s := range t.byEnd {
		if s.Address == addr {
			return s, true
		}
	}
	return Symbol{}, false
}

// FindFunction is Find narrowed to KindFunction, the lookup the
// instruction translator performs at every call site.
func (t *SymbolTable) FindFunction(addr uint32) (Symbol, bool) {
	s, ok := t.Find(addr)
	if !ok || s.Kind != KindFunction {
		return Symbol{}, false
	}
	return s, true
}
