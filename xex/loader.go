// Package xex implements the container loader and decryptor/decompressor:
// parsing an XEX2 (or raw ELF) file into a flat virtual-memory image with
// its section table and import symbols, decrypting AES-128-CBC payloads,
// and decompressing stored/basic/LZX payloads.
//
// Grounded on XenonUtils/xex.cpp's Xex2LoadImage and image.cpp's
// ElfLoadImage/ParseImage dispatch; the sliding-window LZX decoder itself
// lives in the sibling lzx package.
package xex

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/xenonrecomp/recomp/internal/rlog"
	"github.com/xenonrecomp/recomp/lzx"
	"github.com/xenonrecomp/recomp/symtab"
)

// Options mirrors saferwall/pe's pe.Options: a Fast/skip-work toggle, a
// size cap, and a pluggable Logger, threaded through Open the same way
// pe.New threads *pe.Options through its file-backed constructor.
type Options struct {
	// SkipImportRewrite leaves import thunks untouched and skips symbol
	// registration for them, for callers that only need the raw image.
	SkipImportRewrite bool

	// MaxImportCount caps the number of thunks rewritten per library
	// record, guarding against a corrupt or adversarial import table
	// running away; zero means unbounded.
	MaxImportCount uint32

	// Logger receives parse-time diagnostics (unresolved imports, etc).
	Logger rlog.Logger
}

// Xex2RetailKey is the fixed AES-128 key XEX2 title keys are wrapped
// under: the per-file key is decrypted with this well-known retail key.
var Xex2RetailKey = [16]byte{
	0x20, 0xB1, 0x85, 0xA5, 0x9D, 0x28, 0xFD, 0xC3,
	0x40, 0x58, 0x3F, 0xBB, 0x08, 0x96, 0xBF, 0x91,
}

// Image is a loaded, flattened virtual-memory image: its raw bytes, base
// load address, entry point, section table, and the symbols discovered
// while rewriting import thunks. funcs.Discover consumes Sections and
// Symbols; recompile works from the section bytes and the symbol table it
// is handed, not from Data.
type Image struct {
	Data       []byte
	Base       uint32
	EntryPoint uint32
	Sections   *symtab.SectionTable
	Symbols    *symtab.SymbolTable
	Security   SecurityInfo
}

// Read reads address-length bytes from the image, relative to Base.
func (img *Image) Read(address uint32, length int) []byte {
	off := int(address - img.Base)
	if off < 0 || off+length > len(img.Data) {
		return nil
	}
	return img.Data[off : off+length]
}

// OpenFile memory-maps name and parses it, the same way file.go's New maps
// its input instead of reading it into a heap buffer. The mapping is
// released once parsing completes; Image.Data owns its own copy.
func OpenFile(name string, opts *Options) (*Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer data.Unmap()

	return Open(data, opts)
}

// Open parses raw file bytes into an Image, dispatching on magic the same
// way XenonUtils/image.cpp's Image::ParseImage does: ELF magic routes to
// the ELF fallback loader, "XEX2" routes to the XEX2 loader.
func Open(data []byte, opts *Options) (*Image, error) {
	if opts == nil {
		opts = &Options{}
	}
	log := opts.Logger
	if log == nil {
		log = rlog.Discard
	}
	switch {
	case len(data) >= 4 && bytes.Equal(data[:4], []byte{0x7F, 'E', 'L', 'F'}):
		return openELF(data)
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("XEX2")):
		return openXex2(data, opts, log)
	default:
		return nil, ErrBadMagic
	}
}

func openXex2(data []byte, opts *Options, log rlog.Logger) (*Image, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Magic != 0x58455832 { // "XEX2"
		return nil, ErrBadMagic
	}

	sec, err := ParseSecurityInfo(data, h.SecurityOffset)
	if err != nil {
		return nil, err
	}

	optHeaders, err := ParseOptHeaders(data, h)
	if err != nil {
		return nil, err
	}

	ffiHeader, ok := FindOptHeader(optHeaders, HeaderKeyFileFormatInfo)
	if !ok {
		return nil, ErrMissingFileFormatInfo
	}
	// FILE_FORMAT_INFO's key low byte is 0xFF, so the stored value is a
	// byte offset from the start of the file, per getOptHeaderPtr.
	ffi, err := ParseFileFormatInfo(data, int(ffiHeader.Value))
	if err != nil {
		return nil, err
	}
	if ffi.CompressionType > CompressionNormal {
		return nil, ErrUnsupportedCompression
	}

	src := data[h.HeaderSize:]
	if ffi.EncryptionType == EncryptionNormal {
		decrypted, err := DecryptAES128CBC(sec.AESKey, src)
		if err != nil {
			return nil, err
		}
		src = decrypted
	} else if ffi.EncryptionType != EncryptionNone {
		return nil, ErrUnsupportedEncryption
	}

	var imageBytes []byte
	switch ffi.CompressionType {
	case CompressionNone:
		if int(sec.ImageSize) > len(src) {
			return nil, ErrImageSizeMismatch
		}
		imageBytes = append([]byte(nil), src[:sec.ImageSize]...)

	case CompressionBasic:
		imageBytes, err = decompressBasic(src, data, ffi.FieldOffset)
		if err != nil {
			return nil, err
		}

	case CompressionNormal:
		imageBytes, err = decompressNormal(src, data, ffi.FieldOffset, sec.ImageSize)
		if err != nil {
			return nil, err
		}

	default:
		return nil, ErrUnsupportedCompression
	}

	img := &Image{Data: imageBytes, Base: sec.LoadAddress, EntryPoint: 0, Security: sec}
	if err := mapPESections(img); err != nil {
		return nil, err
	}

	// IMAGE_BASE_ADDRESS's key (0x00010201) has a non-zero low byte, so its
	// value field is a file offset to the actual be<uint32_t>; ENTRY_POINT's
	// key (0x00010100) has a zero low byte, so its value field holds the
	// data inline. Mirrors getOptHeaderPtr's key&0xFF dispatch.
	if v, ok := FindOptHeader(optHeaders, HeaderKeyImageBaseAddress); ok {
		if int(v.Value)+4 <= len(data) {
			img.Base = be32At(data, int(v.Value))
		}
	}
	if v, ok := FindOptHeader(optHeaders, HeaderKeyEntryPoint); ok {
		img.EntryPoint = v.Value
	}

	if importsHeader, ok := FindOptHeader(optHeaders, HeaderKeyImportLibraries); ok && !opts.SkipImportRewrite {
		if err := rewriteImports(data, int(importsHeader.Value), img, opts.MaxImportCount, log); err != nil {
			return nil, err
		}
	}

	return img, nil
}

// DecryptAES128CBC implements the key-recovery scheme: the per-file AES
// key is itself AES-128-CBC decrypted under the fixed retail key with an
// all-zero IV, then used (also with a zero IV) to decrypt the image
// payload — grounded on xex.cpp's Xex2LoadImage.
// Exported so xexpatch can apply the same recovery to a patch module's
// keys without duplicating the CBC plumbing.
func DecryptAES128CBC(wrappedKey [16]byte, payload []byte) ([]byte, error) {
	var zeroIV [16]byte

	keyCipher, err := aes.NewCipher(Xex2RetailKey[:])
	if err != nil {
		return nil, err
	}
	fileKey := append([]byte(nil), wrappedKey[:]...)
	cipher.NewCBCDecrypter(keyCipher, zeroIV[:]).CryptBlocks(fileKey, fileKey)

	payloadCipher, err := aes.NewCipher(fileKey)
	if err != nil {
		return nil, err
	}

	n := len(payload) - len(payload)%aes.BlockSize
	out := append([]byte(nil), payload[:n]...)
	cipher.NewCBCDecrypter(payloadCipher, zeroIV[:]).CryptBlocks(out, out)
	return out, nil
}

// decompressBasic expands the BASIC scheme: a sequence of {dataSize,
// zeroSize} blocks, each a verbatim run of bytes followed by a run of
// zeros, grounded on Xex2FileBasicCompressionBlock in xex.cpp. infoOffset
// is FileFormatInfo.FieldOffset: the block array starts there and the
// record's InfoSize field sits 8 bytes before it.
func decompressBasic(src []byte, fileData []byte, infoOffset int) ([]byte, error) {
	if infoOffset < 8 || infoOffset > len(fileData) {
		return nil, ErrBadOptHeader
	}
	infoSize := be32At(fileData, infoOffset-8)
	numBlocks := int(infoSize)/8 - 1
	if numBlocks < 0 {
		return nil, ErrBadOptHeader
	}

	blocksOff := infoOffset
	var out []byte
	p := 0
	for i := 0; i < numBlocks; i++ {
		off := blocksOff + i*8
		if off+8 > len(fileData) {
			return nil, ErrBadOptHeader
		}
		dataSize := int(be32At(fileData, off))
		zeroSize := int(be32At(fileData, off+4))

		if p+dataSize > len(src) {
			return nil, ErrBlockSizeOverrun
		}
		out = append(out, src[p:p+dataSize]...)
		p += dataSize
		out = append(out, make([]byte, zeroSize)...)
	}
	return out, nil
}

// decompressNormal reassembles the SHA-1-verified outer-block/chunk
// stream (lzx.ReassembleChunks) and runs it through the LZX decoder,
// grounded on xex.cpp's CompressionType == XEX_COMPRESSION_NORMAL branch.
// The root of the block hash-chain — describing the first outer block —
// is embedded in FILE_FORMAT_INFO itself, not in the payload.
func decompressNormal(src []byte, fileData []byte, infoOffset int, imageSize uint32) ([]byte, error) {
	root, err := ParseNormalCompressionRoot(fileData, infoOffset)
	if err != nil {
		return nil, err
	}

	compressed, err := lzx.ReassembleChunks(src, root.FirstBlockSize, root.FirstBlockHash)
	if err != nil {
		return nil, err
	}

	dec, err := lzx.NewDecoder(root.WindowSize, nil)
	if err != nil {
		return nil, err
	}
	return dec.Decompress(compressed, int(imageSize))
}
