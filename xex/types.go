package xex

// Header key constants for locating the FILE_FORMAT_INFO optional header,
// the IMPORT_LIBRARIES optional header, the image-base override and the
// entry-point override — values grounded on XenonUtils/xex.h's
// Xex2HeaderKeys enum. Exported so the xexpatch package can locate the
// same optional headers without duplicating this table.
const (
	HeaderKeyResourceInfo         = 0x000002FF
	HeaderKeyFileFormatInfo       = 0x000003FF
	HeaderKeyDeltaPatchDescriptor = 0x000005FF
	HeaderKeyBaseReference        = 0x00000405
	HeaderKeyOriginalBaseAddress  = 0x00010001
	HeaderKeyEntryPoint           = 0x00010100
	HeaderKeyImageBaseAddress     = 0x00010201
	HeaderKeyImportLibraries      = 0x000103FF
)

// ModuleFlags is the XEX2 header's moduleFlags bitset.
type ModuleFlags uint32

// Patch-related module flags, grounded on xex.h's Xex2ModuleFlags; used by
// xexpatch to tell a full XEX from a patch module.
const (
	ModuleFlagPatch      ModuleFlags = 0x10
	ModuleFlagPatchFull  ModuleFlags = 0x20
	ModuleFlagPatchDelta ModuleFlags = 0x40
)

// EncryptionType identifies whether the image payload is AES-128-CBC
// encrypted.
type EncryptionType uint16

const (
	EncryptionNone   EncryptionType = 0
	EncryptionNormal EncryptionType = 1
)

// CompressionType identifies the image payload's compression scheme.
// Delta is recognized only by the xexpatch package — patch application is
// the only context a delta-compressed payload is valid in.
type CompressionType uint16

const (
	CompressionNone   CompressionType = 0
	CompressionBasic  CompressionType = 1
	CompressionNormal CompressionType = 2
	CompressionDelta  CompressionType = 3
)

// Header mirrors XenonUtils/xex.h's Xex2Header: six big-endian uint32
// fields naming the optional-header array's location and size.
type Header struct {
	Magic          uint32
	ModuleFlags    ModuleFlags
	HeaderSize     uint32
	Reserved       uint32
	SecurityOffset uint32
	HeaderCount    uint32
}

const HeaderSizeBytes = 24

// ParseHeader decodes the fixed 24-byte XEX2 header.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSizeBytes {
		return Header{}, ErrHeaderTooShort
	}
	return Header{
		Magic:          be32At(data, 0),
		ModuleFlags:    ModuleFlags(be32At(data, 4)),
		HeaderSize:     be32At(data, 8),
		Reserved:       be32At(data, 12),
		SecurityOffset: be32At(data, 16),
		HeaderCount:    be32At(data, 20),
	}, nil
}

// SecurityInfo mirrors XenonUtils/xex.h's Xex2SecurityInfo. The RSA
// signature and per-page digests are left opaque since this loader only
// needs to load an image, not validate its signing trust; the rest of
// the fixed-layout fields are decoded, including the export table
// pointer and page descriptor count the `dump` subcommand reports.
type SecurityInfo struct {
	HeaderSize          uint32
	ImageSize           uint32
	LoadAddress         uint32
	AESKey              [16]byte
	ExportTableAddress  uint32
	PageDescriptorCount uint32
}

// ParseSecurityInfo decodes the Xex2SecurityInfo record at offset.
func ParseSecurityInfo(data []byte, offset uint32) (SecurityInfo, error) {
	if int(offset)+0x18C > len(data) {
		return SecurityInfo{}, ErrHeaderTooShort
	}
	b := data[offset:]
	var s SecurityInfo
	s.HeaderSize = be32At(b, 0)
	s.ImageSize = be32At(b, 4)
	// rsaSignature[0x100] starts at 8, unknown/imageFlags/loadAddress follow.
	s.LoadAddress = be32At(b, 8+0x100+4+4)
	aesKeyOffset := 8 + 0x100 + 4 + 4 + 4 + 0x14 + 4 + 0x14 + 0x10
	copy(s.AESKey[:], b[aesKeyOffset:aesKeyOffset+16])
	// exportTable follows aesKey directly; pageDescriptorCount is the
	// record's trailing field, after headerDigest/region/allowedMediaTypes.
	s.ExportTableAddress = be32At(b, aesKeyOffset+0x10)
	s.PageDescriptorCount = be32At(b, aesKeyOffset+0x10+4+0x14+4+4)
	return s, nil
}

// OptHeader mirrors Xex2OptHeader: {key, value-or-offset}.
type OptHeader struct {
	Key   uint32
	Value uint32
}

// ParseOptHeaders decodes the variable-length optional-header array that
// immediately follows the fixed Header.
func ParseOptHeaders(data []byte, h Header) ([]OptHeader, error) {
	base := HeaderSizeBytes
	need := base + int(h.HeaderCount)*8
	if need > len(data) {
		return nil, ErrBadOptHeader
	}
	out := make([]OptHeader, h.HeaderCount)
	for i := range out {
		off := base + i*8
		out[i] = OptHeader{
			Key:   be32At(data, off),
			Value: be32At(data, off+4),
		}
	}
	return out, nil
}

func be32At(data []byte, off int) uint32 {
	return uint32(data[off])<<24 | uint32(data[off+1])<<16 | uint32(data[off+2])<<8 | uint32(data[off+3])
}

// FindOptHeader returns the raw OptHeader record for key, and whether it
// was found. Per getOptHeaderPtr's rule, when the key's low byte is zero
// the Value IS the inline field; otherwise it is a byte offset from the
// start of the file into the header region.
func FindOptHeader(headers []OptHeader, key uint32) (OptHeader, bool) {
	for _, h := range headers {
		if h.Key == key {
			return h, true
		}
	}
	return OptHeader{}, false
}

// FileFormatInfo mirrors Xex2OptFileFormatInfo's leading fields.
type FileFormatInfo struct {
	InfoSize        uint32
	EncryptionType  EncryptionType
	CompressionType CompressionType
	FieldOffset     int // offset of the byte right after CompressionType, within data
}

// ParseFileFormatInfo decodes the Xex2OptFileFormatInfo record at offset.
func ParseFileFormatInfo(data []byte, offset int) (FileFormatInfo, error) {
	if offset+8 > len(data) {
		return FileFormatInfo{}, ErrMissingFileFormatInfo
	}
	infoSize := be32At(data, offset)
	encType := uint16(data[offset+4])<<8 | uint16(data[offset+5])
	compType := uint16(data[offset+6])<<8 | uint16(data[offset+7])
	return FileFormatInfo{
		InfoSize:        infoSize,
		EncryptionType:  EncryptionType(encType),
		CompressionType: CompressionType(compType),
		FieldOffset:     offset + 8,
	}, nil
}

// NormalCompressionRoot mirrors Xex2FileNormalCompressionInfo: the window
// size for CompressionNormal, plus the hash-chain's root link describing
// the first outer block (Xex2CompressedBlockInfo). Every block after the
// first instead embeds the descriptor for the block that follows it.
type NormalCompressionRoot struct {
	WindowSize     uint32
	FirstBlockSize uint32
	FirstBlockHash [20]byte
}

// ParseNormalCompressionRoot decodes the Xex2FileNormalCompressionInfo
// record immediately following a FileFormatInfo's fixed fields, i.e. at
// FileFormatInfo.FieldOffset within data.
func ParseNormalCompressionRoot(data []byte, fieldOffset int) (NormalCompressionRoot, error) {
	if fieldOffset+28 > len(data) {
		return NormalCompressionRoot{}, ErrBadOptHeader
	}
	var r NormalCompressionRoot
	r.WindowSize = be32At(data, fieldOffset)
	r.FirstBlockSize = be32At(data, fieldOffset+4)
	copy(r.FirstBlockHash[:], data[fieldOffset+8:fieldOffset+28])
	return r, nil
}
