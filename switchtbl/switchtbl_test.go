package switchtbl

import "testing"

func TestParseBuildsLookupTable(t *testing.T) {
	doc := []byte(`
[[switch]]
base = 0x82010000
r = 5
labels = [0x82010020, 0x82010030]

[[switch]]
base = 0x82020000
r = 3
labels = [0x82020100]
`)

	tbl, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	sw, ok := tbl.Lookup(0x82010000)
	if !ok {
		t.Fatal("Lookup() miss for 0x82010000")
	}
	if sw.R != 5 || len(sw.Labels) != 2 || sw.Labels[0] != 0x82010020 || sw.Labels[1] != 0x82010030 {
		t.Fatalf("Lookup() = %+v, unexpected fields", sw)
	}

	if _, ok := tbl.Lookup(0x83000000); ok {
		t.Fatal("Lookup() hit for address absent from manifest")
	}
}

func TestParseRejectsDuplicateBase(t *testing.T) {
	doc := []byte(`
[[switch]]
base = 0x1000
r = 0
labels = [0x1010]

[[switch]]
base = 0x1000
r = 1
labels = [0x1020]
`)

	if _, err := Parse(doc); err != ErrDuplicateBase {
		t.Fatalf("Parse() error = %v, want ErrDuplicateBase", err)
	}
}
