// Package switchtbl loads a switch-table manifest: a small TOML-shaped
// side-channel file mapping indirect-branch (bctr) sites to a register
// index and a dense jump-target list. The translator consults it at
// emission time instead of attempting jump-table recovery from the code
// itself.
//
// Grounded on the saferwall/pe file.go Options-style loader shape, adapted
// to a TOML document via github.com/BurntSushi/toml rather than byte-
// oriented binary parsing — this is a declarative text manifest, not a
// binary container, so the file-format library changes but the "load once
// into a lookup map" idiom does not.
package switchtbl

import (
	"errors"
	"os"

	"github.com/BurntSushi/toml"
)

// ErrDuplicateBase is returned when the manifest declares the same bctr
// site more than once; a manifest is meant to be hand-maintained, and a
// duplicate almost always signals a copy-paste mistake rather than
// intentional override semantics.
var ErrDuplicateBase = errors.New("switchtbl: duplicate base address in manifest")

// Switch is one `[[switch]]` entry: the register holding the computed
// index at a bctr site, and the dense list of jump targets it indexes
// into.
type Switch struct {
	Base   uint64   `toml:"base"`
	R      int      `toml:"r"`
	Labels []uint64 `toml:"labels"`
}

// document is the raw shape of the manifest file; Table re-keys it by
// Base for the translator's lookup.
type document struct {
	Switch []Switch `toml:"switch"`
}

// Table is the manifest loaded into a map keyed by the virtual address of
// the bctr instruction it applies to.
type Table map[uint32]Switch

// Load reads and parses a switch-table manifest from name. `recomp
// translate` passes the value of its --switch-table flag here and loads no
// manifest when that flag is empty; no default path is read.
func Load(name string) (Table, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a switch-table manifest already held in memory, for
// callers that already have the bytes (tests, embedded defaults).
func Parse(data []byte) (Table, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	t := make(Table, len(doc.Switch))
	for _, sw := range doc.Switch {
		base := uint32(sw.Base)
		if _, exists := t[base]; exists {
			return nil, ErrDuplicateBase
		}
		t[base] = sw
	}
	return t, nil
}

// Lookup returns the switch-table entry for a bctr at base, and whether
// the manifest covers that site at all.
func (t Table) Lookup(base uint32) (Switch, bool) {
	sw, ok := t[base]
	return sw, ok
}
