package xex

import "github.com/xenonrecomp/recomp/symtab"

const imageScnCntCode = 0x00000020

// mapPESections reads the decompressed payload's DOS/NT headers and
// registers each section into img.Sections — grounded on xex.cpp's
// post-decompression mapping loop (IMAGE_DOS_HEADER -> IMAGE_NT_HEADERS32
// -> IMAGE_SECTION_HEADER[]).
func mapPESections(img *Image) error {
	data := img.Data
	if len(data) < 0x40 {
		return ErrBadSectionTable
	}

	eLfanew := int(leU32At(data, 0x3C))
	if eLfanew < 0 || eLfanew+0x18+0xE0 > len(data) {
		return ErrBadSectionTable
	}

	// IMAGE_NT_HEADERS32: Signature(4) FileHeader(20) OptionalHeader(224 for PE32)
	fileHeaderOff := eLfanew + 4
	numSections := int(leU16At(data, fileHeaderOff+2))
	sizeOfOptionalHeader := int(leU16At(data, fileHeaderOff+16))

	sectionsOff := fileHeaderOff + 20 + sizeOfOptionalHeader
	sectionTable := &symtab.SectionTable{}

	for i := 0; i < numSections; i++ {
		off := sectionsOff + i*40
		if off+40 > len(data) {
			return ErrBadSectionTable
		}

		name := cstringTrim(data[off : off+8])
		virtualSize := leU32At(data, off+8)
		virtualAddress := leU32At(data, off+12)
		characteristics := leU32At(data, off+36)

		var flags symtab.SectionFlags
		if characteristics&imageScnCntCode != 0 {
			flags |= symtab.SectionCode
		} else {
			flags |= symtab.SectionData
		}

		base := img.Base + virtualAddress
		secData := img.Read(base, int(virtualSize))
		sectionTable.Insert(symtab.Section{
			Name:  name,
			Base:  base,
			Size:  virtualSize,
			Flags: flags,
			Data:  secData,
		})
	}

	img.Sections = sectionTable
	img.Symbols = &symtab.SymbolTable{}
	return nil
}

func leU32At(data []byte, off int) uint32 {
	return uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
}

func leU16At(data []byte, off int) uint16 {
	return uint16(data[off]) | uint16(data[off+1])<<8
}

func cstringTrim(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
