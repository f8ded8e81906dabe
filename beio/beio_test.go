package beio

import "testing"

func TestU32RoundTrip(t *testing.T) {
	var v U32
	v.Set(0x82010020)
	if got := v.Get(); got != 0x82010020 {
		t.Fatalf("Get() = %#x, want %#x", got, 0x82010020)
	}
	if v[0] != 0x82 || v[3] != 0x20 {
		t.Fatalf("unexpected byte order: %v", v)
	}
}

func TestReaderSequential(t *testing.T) {
	buf := []byte{
		0x00, 0x01, // u16 = 1
		0x00, 0x00, 0x00, 0x02, // u32 = 2
		'h', 'i', 0, // cstring "hi"
		0xAA, // padding target
	}
	r := NewReader(buf)

	u16, err := r.U16()
	if err != nil || u16 != 1 {
		t.Fatalf("U16() = %v, %v", u16, err)
	}

	u32, err := r.U32()
	if err != nil || u32 != 2 {
		t.Fatalf("U32() = %v, %v", u32, err)
	}

	s, err := r.CString()
	if err != nil || s != "hi" {
		t.Fatalf("CString() = %q, %v", s, err)
	}

	if r.Offset() != 9 {
		t.Fatalf("Offset() = %d, want 9", r.Offset())
	}
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.U32(); err != ErrShortRead {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

func TestAlignUp4(t *testing.T) {
	r := NewReader(make([]byte, 16))
	r.Skip(5)
	r.AlignUp4()
	if r.Offset() != 8 {
		t.Fatalf("Offset() = %d, want 8", r.Offset())
	}
}
