package xexpatch

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"testing"

	"github.com/xenonrecomp/recomp/xex"
)

func putBE32(b []byte, off int, v uint32) {
	b[off] = byte(v >> 24)
	b[off+1] = byte(v >> 16)
	b[off+2] = byte(v >> 8)
	b[off+3] = byte(v)
}

func putBE16(b []byte, off int, v uint16) {
	b[off] = byte(v >> 8)
	b[off+1] = byte(v)
}

func cbcEncrypt(key, iv [16]byte, data []byte) []byte {
	c, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err)
	}
	out := append([]byte(nil), data...)
	cipher.NewCBCEncrypter(c, iv[:]).CryptBlocks(out, out)
	return out
}

// buildTestXex wraps an uncompressed, unencrypted payload in a minimal
// XEX2 header carrying the given AES key bytes, mirroring the layout
// xex_test.go's buildXex2Container uses.
func buildTestXex(payload []byte, loadAddress uint32, aesKey [16]byte) []byte {
	const (
		headerSize     = 448
		securityOffset = 32
		ffiOffset      = 432
	)
	file := make([]byte, headerSize+len(payload))

	copy(file[0:4], []byte("XEX2"))
	putBE32(file, 8, headerSize)
	putBE32(file, 16, securityOffset)
	putBE32(file, 20, 1) // headerCount

	putBE32(file, 24, 0x000003FF) // FILE_FORMAT_INFO key
	putBE32(file, 28, ffiOffset)

	putBE32(file, securityOffset+4, uint32(len(payload))) // imageSize
	putBE32(file, securityOffset+272, loadAddress)
	copy(file[securityOffset+336:], aesKey[:])

	putBE32(file, ffiOffset, 8)
	putBE16(file, ffiOffset+4, 0) // encryption: NONE
	putBE16(file, ffiOffset+6, 0) // compression: NONE

	copy(file[headerSize:], payload)
	return file
}

// buildTestPatch builds a minimal delta patch: an empty header delta (no
// header bytes change) and a single body block that zero-fills the first
// 4 bytes of the target image.
func buildTestPatch(imageKeySource [16]byte, patchKey [16]byte) []byte {
	const (
		headerSize = 576
		// securityOffset must sit past the two-entry opt-header table
		// (24 + 2*8 = 40).
		securityOffset = 48
		descOffset     = 448
		// descOffset+76 is the descriptor's fixed part; its embedded
		// 12-byte terminator record runs to descOffset+88, so ffiOffset
		// must sit past that.
		ffiOffset = 536
	)

	// Body block: one zero-fill record (oldAddr=0, newAddr=0, uncompLen=4,
	// compLen=0) followed by an all-zero terminator record. This is the
	// only block, so its own leading 24 bytes (which describe whatever
	// block follows it in the hash chain) are a zero terminator.
	var records []byte
	rec := make([]byte, 12)
	putBE32(rec, 0, 0)
	putBE32(rec, 4, 0)
	putBE16(rec, 8, 4)
	putBE16(rec, 10, 0)
	records = append(records, rec...)
	records = append(records, make([]byte, 12)...) // terminator

	block := make([]byte, 24+len(records))
	copy(block[24:], records)

	body := block
	rootSize := uint32(len(block))
	rootHash := sha1.Sum(block)

	file := make([]byte, headerSize+len(body))
	copy(file[0:4], []byte("XEX2"))
	putBE32(file, 4, 0x10) // moduleFlags: PATCH
	putBE32(file, 8, headerSize)
	putBE32(file, 16, securityOffset)
	putBE32(file, 20, 2) // headerCount

	putBE32(file, 24, 0x000005FF) // DELTA_PATCH_DESCRIPTOR key
	putBE32(file, 28, descOffset)
	putBE32(file, 32, 0x000003FF) // FILE_FORMAT_INFO key
	putBE32(file, 36, ffiOffset)

	copy(file[securityOffset+336:], patchKey[:])

	// Delta patch descriptor (76-byte fixed part, then an all-zero header
	// terminator record as its embedded info stream).
	putBE32(file, descOffset+0, 76+12) // size: fixed part + one terminator record
	copy(file[descOffset+32:], imageKeySource[:])
	const baseHeaderSize = 448
	putBE32(file, descOffset+48, baseHeaderSize) // sizeOfTargetHeaders: header layout unchanged
	putBE32(file, descOffset+52, 0)               // deltaHeadersSourceOffset
	putBE32(file, descOffset+56, 0)               // deltaHeadersSourceSize
	putBE32(file, descOffset+60, 0)               // deltaHeadersTargetOffset
	putBE32(file, descOffset+64, 0)               // deltaImageSourceOffset
	putBE32(file, descOffset+68, 0)               // deltaImageSourceSize
	putBE32(file, descOffset+72, 0)               // deltaImageTargetOffset
	// descOffset+76: embedded header delta stream, an all-zero terminator
	// record (already zero-filled by make).

	// FILE_FORMAT_INFO: fixed fields (8 bytes), then the
	// Xex2FileNormalCompressionInfo layout this patch body reuses —
	// windowSize followed by the hash-chain root for the one body block.
	putBE32(file, ffiOffset, 8+28)
	putBE16(file, ffiOffset+4, 0) // encryption: NONE
	putBE16(file, ffiOffset+6, 3) // compression: DELTA
	putBE32(file, ffiOffset+8, 0x8000) // windowSize
	putBE32(file, ffiOffset+12, rootSize)
	copy(file[ffiOffset+16:], rootHash[:])

	copy(file[headerSize:], body)
	return file
}

func TestApplyZeroFillsPatchedBytes(t *testing.T) {
	var retailIV [16]byte
	var key [16]byte
	copy(key[:], []byte("0123456789abcdef"))

	var patchKey [16]byte
	copy(patchKey[:], []byte("fedcba9876543210"))

	wrappedKey := [16]byte{}
	copy(wrappedKey[:], cbcEncrypt(xex.Xex2RetailKey, retailIV, key[:]))

	payload := []byte{0x60, 0x00, 0x00, 0x00, 0x4E, 0x80, 0x00, 0x20}
	base := buildTestXex(payload, 0x82000000, wrappedKey)
	patch := buildTestPatch(wrappedKey, patchKey)

	out, err := Apply(base, patch)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	const headerSize = 448
	body := out[headerSize:]
	if len(body) != len(payload) {
		t.Fatalf("body length = %d, want %d", len(body), len(payload))
	}
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x4E, 0x80, 0x00, 0x20}
	if !bytes.Equal(body, want) {
		t.Fatalf("patched body = %x, want %x", body, want)
	}
}

func TestApplyRejectsBadMagic(t *testing.T) {
	if _, err := Apply([]byte("nope"), []byte("XEX2")); err == nil {
		t.Fatal("expected error for bad base magic")
	}
	if _, err := Apply([]byte("XEX2"), []byte("nope")); err == nil {
		t.Fatal("expected error for bad patch magic")
	}
}
