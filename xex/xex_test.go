package xex

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/xenonrecomp/recomp/internal/rlog"
	"github.com/xenonrecomp/recomp/symtab"
)

func putBE32Test(b []byte, off int, v uint32) {
	b[off] = byte(v >> 24)
	b[off+1] = byte(v >> 16)
	b[off+2] = byte(v >> 8)
	b[off+3] = byte(v)
}

func putBE16Test(b []byte, off int, v uint16) {
	b[off] = byte(v >> 8)
	b[off+1] = byte(v)
}

func putLE32Test(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

// buildMinimalPE constructs the smallest payload mapPESections can parse:
// a DOS header with e_lfanew, one NT header with a 224-byte optional
// header, and a single ".text" code section immediately following the
// section header table.
func buildMinimalPE(codeBytes []byte) []byte {
	const (
		eLfanew              = 0x40
		fileHeaderOff        = eLfanew + 4
		sizeOfOptionalHeader = 0xE0
		sectionsOff          = fileHeaderOff + 20 + sizeOfOptionalHeader
		sectionVA            = sectionsOff + 40
	)

	total := sectionVA + len(codeBytes)
	pe := make([]byte, total)

	putLE32Test(pe, 0x3C, eLfanew)
	copy(pe[eLfanew:], []byte("PE\x00\x00"))
	// NumberOfSections/SizeOfOptionalHeader are little-endian, matching the
	// native IMAGE_FILE_HEADER layout mapPESections reads with leU16At.
	pe[fileHeaderOff+2] = 1
	pe[fileHeaderOff+3] = 0
	pe[fileHeaderOff+16] = byte(sizeOfOptionalHeader)
	pe[fileHeaderOff+17] = byte(sizeOfOptionalHeader >> 8)

	copy(pe[sectionsOff:], []byte(".text\x00\x00\x00"))
	putLE32Test(pe, sectionsOff+8, uint32(len(codeBytes))) // VirtualSize
	putLE32Test(pe, sectionsOff+12, sectionVA)             // VirtualAddress
	putLE32Test(pe, sectionsOff+36, 0x20)                  // Characteristics: CNT_CODE

	copy(pe[sectionVA:], codeBytes)
	return pe
}

// buildXex2Container wraps payload (an uncompressed, unencrypted PE image)
// in a minimal XEX2 header with a FILE_FORMAT_INFO optional header and a
// security block, matching the field offsets types.go's ParseSecurityInfo
// expects.
func buildXex2Container(payload []byte, loadAddress uint32) []byte {
	const (
		headerSize     = 448
		securityOffset = 32
		ffiOffset      = 432
	)

	file := make([]byte, headerSize+len(payload))

	copy(file[0:4], []byte("XEX2"))
	putBE32Test(file, 8, headerSize)
	putBE32Test(file, 16, securityOffset)
	putBE32Test(file, 20, 1) // headerCount

	putBE32Test(file, 24, 0x000003FF) // FILE_FORMAT_INFO key
	putBE32Test(file, 28, ffiOffset)

	putBE32Test(file, securityOffset+4, uint32(len(payload))) // imageSize
	putBE32Test(file, securityOffset+272, loadAddress)

	putBE32Test(file, ffiOffset, 8)  // infoSize
	putBE16Test(file, ffiOffset+4, 0) // encryptionType: NONE
	putBE16Test(file, ffiOffset+6, 0) // compressionType: NONE

	copy(file[headerSize:], payload)
	return file
}

func TestOpenXex2UncompressedUnencrypted(t *testing.T) {
	code := []byte{0x60, 0x00, 0x00, 0x00, 0x4E, 0x80, 0x00, 0x20}
	pe := buildMinimalPE(code)
	file := buildXex2Container(pe, 0x82000000)

	img, err := Open(file, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if img.Base != 0x82000000 {
		t.Fatalf("Base = %#x, want 0x82000000", img.Base)
	}

	sec, ok := img.Sections.ByName(".text")
	if !ok {
		t.Fatal(".text section not found")
	}
	if !sec.IsCode() {
		t.Fatal(".text section not marked as code")
	}
	if !bytes.Equal(sec.Data, code) {
		t.Fatalf("section data = %x, want %x", sec.Data, code)
	}
}

func TestDecryptAES128CBCRoundTrip(t *testing.T) {
	var fileKey [16]byte
	copy(fileKey[:], []byte("0123456789abcdef"))

	keyCipher, err := aes.NewCipher(Xex2RetailKey[:])
	if err != nil {
		t.Fatal(err)
	}
	var zeroIV [16]byte
	wrappedKey := fileKey
	cipher.NewCBCEncrypter(keyCipher, zeroIV[:]).CryptBlocks(wrappedKey[:], wrappedKey[:])

	plaintext := bytes.Repeat([]byte("A"), 32)
	payloadCipher, err := aes.NewCipher(fileKey[:])
	if err != nil {
		t.Fatal(err)
	}
	encrypted := append([]byte(nil), plaintext...)
	cipher.NewCBCEncrypter(payloadCipher, zeroIV[:]).CryptBlocks(encrypted, encrypted)

	got, err := DecryptAES128CBC(wrappedKey, encrypted)
	if err != nil {
		t.Fatalf("DecryptAES128CBC() error = %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("DecryptAES128CBC() = %x, want %x", got, plaintext)
	}
}

func TestOpenELFMapsSections(t *testing.T) {
	const (
		shoff    = 64
		phoff    = 52
		strTabOff = shoff + 3*40
	)
	codeBytes := []byte{0x4E, 0x80, 0x00, 0x20}
	strTab := []byte("\x00.text\x00")
	total := strTabOff + len(strTab) + len(codeBytes)
	data := make([]byte, total)

	data[0], data[1], data[2], data[3] = 0x7F, 'E', 'L', 'F'
	data[4] = 1 // ELFCLASS32
	data[5] = 2 // ELFDATA2MSB

	putBE32Test(data, 24, 0x82000100) // e_entry
	putBE32Test(data, 28, phoff)      // e_phoff
	putBE32Test(data, 32, shoff)      // e_shoff
	putBE16Test(data, 44, 1)          // e_phnum
	putBE16Test(data, 48, 3)          // e_shnum
	putBE16Test(data, 50, 2)          // e_shstrndx

	// Program header 0: PT_LOAD, p_vaddr = 0x82000000
	putBE32Test(data, phoff, 1)
	putBE32Test(data, phoff+8, 0x82000000)

	// Section 0: null section (sh_type == 0, skipped).

	// Section 1: .text, SHF_EXECINSTR, name offset 1 into string table.
	codeOff := strTabOff + len(strTab)
	putBE32Test(data, shoff+40, 1)            // sh_name
	putBE32Test(data, shoff+40+4, 1)          // sh_type != 0
	putBE32Test(data, shoff+40+8, 0x4)        // sh_flags: SHF_EXECINSTR
	putBE32Test(data, shoff+40+12, 0x82000000) // sh_addr
	putBE32Test(data, shoff+40+16, uint32(codeOff))
	putBE32Test(data, shoff+40+20, uint32(len(codeBytes)))

	// Section 2: the section-name string table (SHT_STRTAB).
	putBE32Test(data, shoff+80+4, 3) // sh_type: SHT_STRTAB
	putBE32Test(data, shoff+80+16, strTabOff)
	putBE32Test(data, shoff+80+20, uint32(len(strTab)))

	copy(data[strTabOff:], strTab)
	copy(data[codeOff:], codeBytes)

	img, err := Open(data, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if img.Base != 0x82000000 {
		t.Fatalf("Base = %#x, want 0x82000000", img.Base)
	}
	if img.EntryPoint != 0x82000100 {
		t.Fatalf("EntryPoint = %#x, want 0x82000100", img.EntryPoint)
	}

	sec, ok := img.Sections.ByName(".text")
	if !ok {
		t.Fatal(".text section not found")
	}
	if !bytes.Equal(sec.Data, codeBytes) {
		t.Fatalf("section data = %x, want %x", sec.Data, codeBytes)
	}
}

func TestPatchThunkOverwritesUnresolvedImportAndRegistersSymbol(t *testing.T) {
	img := &Image{
		Data:    make([]byte, 16),
		Base:    0x82000000,
		Symbols: &symtab.SymbolTable{},
	}
	// originalData.type=1, ordinal=0x0000 (ExAllocatePoolTypeWithTag).
	putBE32Test(img.Data, 0, 0x01000000)

	patchThunk(img, 0x82000000, xboxKernelExports, rlog.Discard)

	for i, want := range trapSequence {
		got := uint32(img.Data[i*4])<<24 | uint32(img.Data[i*4+1])<<16 | uint32(img.Data[i*4+2])<<8 | uint32(img.Data[i*4+3])
		if got != want {
			t.Fatalf("word %d = %#x, want %#x", i, got, want)
		}
	}

	sym, ok := img.Symbols.FindExact(0x82000000)
	if !ok {
		t.Fatal("expected thunk symbol to be registered")
	}
	if sym.Name != "ExAllocatePoolTypeWithTag" {
		t.Fatalf("symbol name = %q, want ExAllocatePoolTypeWithTag", sym.Name)
	}
}
