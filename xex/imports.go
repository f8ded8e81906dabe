package xex

import (
	"github.com/xenonrecomp/recomp/internal/rlog"
	"github.com/xenonrecomp/recomp/symtab"
)

const (
	importHeaderSize  = 12 // Xex2ImportHeader: sizeOfHeader, sizeOfStringTable, numImports
	importLibrarySize = 40 // Xex2ImportLibrary fixed record size
)

// trapSequence is the canonical return stub the loader writes over every
// unresolved import thunk: three leading zero words followed by 4E800020
// (PowerPC blr). Note this differs from XenonUtils/xex.cpp's literal
// thunk bytes, which write three nop (0x60000000) words instead of zero
// words before the trailing blr; DESIGN.md records the discrepancy and
// the decision behind this choice.
var trapSequence = [4]uint32{0x00000000, 0x00000000, 0x00000000, 0x4E800020}

// rewriteImports walks the IMPORT_LIBRARIES optional header — a packed,
// NUL-terminated and 4-byte-padded string table followed by one library
// record (and its thunk-address descriptor array) per imported module —
// and overwrites every unresolved thunk with trapSequence, registering a
// Function symbol when the import resolves against a recognized system
// library. Grounded on xex.cpp's Xex2LoadImage import-rewriting loop.
func rewriteImports(fileData []byte, importsOffset int, img *Image, maxImportCount uint32, log rlog.Logger) error {
	if importsOffset+importHeaderSize > len(fileData) {
		return ErrBadOptHeader
	}

	numImports := int(be32At(fileData, importsOffset+8))
	stringTableSize := int(be32At(fileData, importsOffset+4))

	stringTableOff := importsOffset + importHeaderSize
	if stringTableOff+stringTableSize > len(fileData) {
		return ErrBadOptHeader
	}

	names := make([]string, 0, numImports)
	cursor := 0
	for i := 0; i < numImports; i++ {
		start := stringTableOff + cursor
		s := cstringTrim(fileData[start:stringTableOff+stringTableSize])
		names = append(names, s)
		padded := ((len(s) + 1) + 3) &^ 3
		cursor += padded
	}

	libOff := stringTableOff + stringTableSize
	for i := 0; i < numImports; i++ {
		if libOff+importLibrarySize > len(fileData) {
			return ErrBadOptHeader
		}
		numberOfImports := int(be16At(fileData, libOff+36))
		exports := exportsForLibrary(names[i])

		descOff := libOff + importLibrarySize
		for im := 0; im < numberOfImports; im++ {
			if maxImportCount != 0 && uint32(im) >= maxImportCount {
				log.Warnf("xex: library %q exceeds MaxImportCount, truncating at %d imports", names[i], maxImportCount)
				break
			}
			thunkAddr := be32At(fileData, descOff+im*4)
			patchThunk(img, thunkAddr, exports, log)
		}

		libOff = descOff + numberOfImports*4
	}

	return nil
}

// patchThunk inspects one Xex2ThunkData word. If it describes an
// unresolved variable/function import (type != 0), it is overwritten with
// trapSequence and, when the ordinal resolves in exports, a Function
// symbol is registered at the thunk address.
func patchThunk(img *Image, thunkAddr uint32, exports map[uint32]string, log rlog.Logger) {
	off := int(thunkAddr - img.Base)
	if off < 0 || off+4 > len(img.Data) {
		return
	}

	original := be32At(img.Data, off)
	ordinal := original & 0xFFFF
	thunkType := (original >> 24) & 0xFF
	if thunkType == 0 {
		return
	}

	if exports != nil {
		if name, ok := exports[ordinal]; ok {
			img.Symbols.Insert(symtab.Symbol{
				Name:    name,
				Address: thunkAddr,
				Size:    uint32(len(trapSequence) * 4),
				Kind:    symtab.KindFunction,
			})
		} else {
			log.Debugf("xex: unresolved import ordinal %#x at %#x", ordinal, thunkAddr)
		}
	}

	for i, word := range trapSequence {
		putBE32(img.Data[off+i*4:], word)
	}
}

func putBE32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
