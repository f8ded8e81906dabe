// Package symtab holds address-keyed section and symbol stores: sections
// ordered by base with a largest-base-less-or-equal lookup, and a symbol
// multiset whose address lookup returns the tightest containing range
// rather than merely the first overlapping one.
//
// Grounded on github.com/saferwall/pe's Section/symbol model (section.go,
// symbol.go), generalized from PE's flat section table to a sorted slice
// with binary-search lookup — the ordered std::set<Section, SectionComparer>
// of XenonUtils/image.h has no direct Go standard-library analog, so this
// is the documented stdlib fallback (sort.Search over a slice kept sorted
// on insert) rather than reaching for a third-party ordered-set package;
// none of the retrieved examples provide one of those.
package symtab

import "sort"

// SectionFlags is a bitset over a Section's characteristics.
type SectionFlags uint8

const (
	// SectionCode marks a section that contains executable code.
	SectionCode SectionFlags = 1 << iota
	// SectionData marks a section that contains data.
	SectionData
)

// Section is a single mapped region of the image, addressed by virtual
// base address.
type Section struct {
	Name  string
	Base  uint32
	Size  uint32
	Flags SectionFlags
	Data  []byte
}

// Contains reports whether addr falls within [Base, Base+Size).
func (s Section) Contains(addr uint32) bool {
	return addr >= s.Base && addr < s.Base+s.Size
}

// IsCode reports whether the section carries the Code flag.
func (s Section) IsCode() bool { return s.Flags&SectionCode != 0 }

// SectionTable is an ordered, non-overlapping set of Sections keyed by
// base address.
type SectionTable struct {
	sections []Section
}

// Insert adds a section, keeping the table ordered by base address.
func (t *SectionTable) Insert(s Section) {
	i := sort.Search(len(t.sections), func(i int) bool { return t.sections[i].Base >= s.Base })
	t.sections = append(t.sections, Section{})
	copy(t.sections[i+1:], t.sections[i:])
	t.sections[i] = s
}

// All returns the sections in base-address order. The returned slice must
// not be mutated.
func (t *SectionTable) All() []Section { return t.sections }

// Find returns the section with the largest base address that is
// <= addr, mirroring Image::Find's std::prev(upper_bound(address)).
// It reports false if addr precedes every section or falls past the last
// section's end.
func (t *SectionTable) Find(addr uint32) (Section, bool) {
	i := sort.Search(len(t.sections), func(i int) bool { return t.sections[i].Base > addr })
	if i == 0 {
		return Section{}, false
	}
	s := t.sections[i-1]
	if !s.Contains(addr) {
		return Section{}, false
	}
	return s, true
}

// ByName returns the first section with the given name.
func (t *SectionTable) ByName(name string) (Section, bool) {
	for _, s := range t.sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Bytes returns the slice of image bytes at [addr, addr+size), or false if
// the range is not fully contained in a single mapped section — a
// discovery gap that callers treat as a programmer assertion.
func (t *SectionTable) Bytes(addr, size uint32) ([]byte, bool) {
	s, ok := t.Find(addr)
	if !ok {
		return nil, false
	}
	off := addr - s.Base
	if uint64(off)+uint64(size) > uint64(s.Size) {
		return nil, false
	}
	return s.Data[off : off+size], true
}
