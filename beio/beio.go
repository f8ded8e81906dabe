// Package beio provides typed big-endian scalar accessors over raw bytes.
//
// The Xenon image this module ingests is pervasively big-endian while the
// host toolchain is little-endian. These typed accessors keep the swap in
// one place for code that uses them. No other package in this module
// imports beio: the xex, xexpatch and funcs parsers decode their fields
// with their own local big-endian helpers.
package beio

import "encoding/binary"

// U16 is a big-endian uint16 stored in its on-disk byte order.
type U16 [2]byte

// Get returns the native-endian value.
func (v U16) Get() uint16 { return binary.BigEndian.Uint16(v[:]) }

// Set stores x in big-endian order.
func (v *U16) Set(x uint16) { binary.BigEndian.PutUint16(v[:], x) }

// U32 is a big-endian uint32 stored in its on-disk byte order.
type U32 [4]byte

// Get returns the native-endian value.
func (v U32) Get() uint32 { return binary.BigEndian.Uint32(v[:]) }

// Set stores x in big-endian order.
func (v *U32) Set(x uint32) { binary.BigEndian.PutUint32(v[:], x) }

// S32 returns the value reinterpreted as signed.
func (v U32) S32() int32 { return int32(v.Get()) }

// U64 is a big-endian uint64 stored in its on-disk byte order.
type U64 [8]byte

// Get returns the native-endian value.
func (v U64) Get() uint64 { return binary.BigEndian.Uint64(v[:]) }

// Set stores x in big-endian order.
func (v *U64) Set(x uint64) { binary.BigEndian.PutUint64(v[:], x) }

// Reader walks a byte slice sequentially, decoding big-endian scalars and
// advancing an internal cursor, for variable-length structures (optional
// headers, import tables, delta-patch records) where a fixed Go struct
// plus encoding/binary.Read can't express the layout.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps buf for sequential big-endian decoding starting at
// offset 0.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Offset returns the reader's current cursor position.
func (r *Reader) Offset() int { return r.off }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.buf) - r.off }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(off int) { r.off = off }

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) { r.off += n }

// Bytes returns the underlying buffer.
func (r *Reader) Bytes() []byte { return r.buf }

// ErrShortRead is returned by any accessor that would read past the end of
// the buffer.
var ErrShortRead = shortReadError{}

type shortReadError struct{}

func (shortReadError) Error() string { return "beio: short read" }

func (r *Reader) require(n int) error {
	if r.off < 0 || r.off+n > len(r.buf) {
		return ErrShortRead
	}
	return nil
}

// U8 reads one byte and advances the cursor.
func (r *Reader) U8() (uint8, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

// U16 reads a big-endian uint16 and advances the cursor.
func (r *Reader) U16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

// U32 reads a big-endian uint32 and advances the cursor.
func (r *Reader) U32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

// U64 reads a big-endian uint64 and advances the cursor.
func (r *Reader) U64() (uint64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

// Take returns the next n bytes without copying and advances the cursor.
func (r *Reader) Take(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	v := r.buf[r.off : r.off+n]
	r.off += n
	return v, nil
}

// CString reads a NUL-terminated string starting at the cursor, consuming
// through (and including) the terminator.
func (r *Reader) CString() (string, error) {
	start := r.off
	for r.off < len(r.buf) {
		if r.buf[r.off] == 0 {
			s := string(r.buf[start:r.off])
			r.off++
			return s, nil
		}
		r.off++
	}
	return "", ErrShortRead
}

// AlignUp4 advances the cursor to the next multiple of 4 relative to the
// buffer start, the padding rule used by the XEX2 import string table.
func (r *Reader) AlignUp4() { r.off = (r.off + 3) &^ 3 }
