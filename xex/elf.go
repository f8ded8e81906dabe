package xex

import "github.com/xenonrecomp/recomp/symtab"

const (
	elfPTLoad      = 1
	elfSHFExecinstr = 0x4
)

// openELF loads a raw 32-bit big-endian ELF image directly, a fallback
// used for already-decrypted/decompressed executables that skip the XEX2
// container entirely, grounded on XenonUtils/image.cpp's ElfLoadImage.
func openELF(data []byte) (*Image, error) {
	if len(data) < 52 {
		return nil, ErrHeaderTooShort
	}
	if data[4] != 1 { // EI_CLASS: ELFCLASS32
		return nil, ErrBadMagic
	}
	if data[5] != 2 { // EI_DATA: ELFDATA2MSB
		return nil, ErrBadMagic
	}

	entry := be32At(data, 24)
	phoff := be32At(data, 28)
	shoff := be32At(data, 32)
	phnum := be16At(data, 44)
	shnum := be16At(data, 48)
	shstrndx := be16At(data, 50)

	img := &Image{
		Data:       append([]byte(nil), data...),
		EntryPoint: entry,
		Sections:   &symtab.SectionTable{},
		Symbols:    &symtab.SymbolTable{},
	}

	for i := 0; i < int(phnum); i++ {
		off := int(phoff) + i*32
		if off+32 > len(data) {
			break
		}
		if be32At(data, off) == elfPTLoad {
			img.Base = be32At(data, off+8) // p_vaddr
			break
		}
	}

	if int(shstrndx) < int(shnum) {
		strTabHdrOff := int(shoff) + int(shstrndx)*40
		if strTabHdrOff+40 <= len(data) {
			strTabOff := be32At(data, strTabHdrOff+16)

			for i := 0; i < int(shnum); i++ {
				off := int(shoff) + i*40
				if off+40 > len(data) {
					break
				}
				shType := be32At(data, off+4)
				if shType == 0 {
					continue
				}
				shFlags := be32At(data, off+8)
				shAddr := be32At(data, off+12)
				shOffset := be32At(data, off+16)
				shSize := be32At(data, off+20)
				shName := be32At(data, off)

				var flags symtab.SectionFlags
				if shFlags&elfSHFExecinstr != 0 {
					flags |= symtab.SectionCode
				} else {
					flags |= symtab.SectionData
				}

				name := ""
				if shName != 0 {
					nameOff := int(strTabOff) + int(shName)
					if nameOff < len(data) {
						name = cstringTrim(data[nameOff:])
					}
				}

				var secData []byte
				if int(shOffset)+int(shSize) <= len(data) {
					secData = data[shOffset : shOffset+shSize]
				}

				img.Sections.Insert(symtab.Section{
					Name:  name,
					Base:  shAddr,
					Size:  shSize,
					Flags: flags,
					Data:  secData,
				})
			}
		}
	}

	return img, nil
}

func be16At(data []byte, off int) uint16 {
	return uint16(data[off])<<8 | uint16(data[off+1])
}
