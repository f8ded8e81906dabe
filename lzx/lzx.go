// Package lzx implements the LZX ("normal") decompression codec XEX2 uses
// for its compressed image payload and as the inner codec of a delta patch
// stream. The format is Microsoft's Cabinet LZX variant; this is a
// from-scratch Go port of the documented algorithm (the same one
// libmspack's lzxd.c, 7-Zip's LzxDecoder, and wimlib implement), grounded
// in XenonUtils/xex_patcher.cpp's lzxDecompress/lzxDeltaApplyPatch, which
// call out to libmspack's lzxd for exactly this job.
package lzx

import (
	"errors"
	"math/bits"
)

// Block types for the inner compressed-block stream within a concatenated
// chunk stream.
const (
	blockVerbatim    = 1
	blockAligned     = 2
	blockUncompressed = 3
)

const (
	numChars           = 256
	preTreeElements    = 20
	alignedElements    = 8
	numPrimaryLengths  = 7
	numSecondaryLengths = 249
	minMatch           = 2
	maxMatch           = minMatch + numPrimaryLengths + numSecondaryLengths - 1 // 257, the longest match decodeCompressed can produce
)

// extraBits is the static per-position-slot extra-bit-count table from the
// LZX format definition; position_base is its cumulative-sum derivative.
var extraBits = [...]uint8{
	0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
	7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14,
	15, 15, 16, 16, 17, 17,
}

var positionBase = func() [len(extraBits)]uint32 {
	var base [len(extraBits)]uint32
	var acc uint32
	for i := range base {
		base[i] = acc
		acc += 1 << extraBits[i]
	}
	return base
}()

// numPositionSlots is LZX's documented table of position-slot counts per
// window size (window sizes 2^15..2^21 are the format's defined range).
var numPositionSlots = map[int]int{
	15: 30, 16: 32, 17: 34, 18: 36, 19: 38, 20: 42, 21: 50,
}

var (
	// ErrBadWindowSize is returned when the window size isn't a supported
	// power of two in LZX's defined 32KiB-2MiB range.
	ErrBadWindowSize = errors.New("lzx: unsupported window size")
	// ErrShortOutput is returned if the compressed stream ends before
	// producing dstLength bytes.
	ErrShortOutput = errors.New("lzx: truncated stream")
)

// Decoder holds the Huffman code-length state that persists across blocks
// within one LZX stream: main tree and length tree lengths are
// delta-coded against the previous block's lengths.
type Decoder struct {
	windowBits int
	numSlots   int
	mainLens   []uint8
	lenLens    []uint8

	r0, r1, r2 uint32

	window    []byte
	windowPos int
}

// NewDecoder creates a decoder for the given window size (must be a power
// of two between 32KiB and 2MiB). window, if non-nil, pre-seeds the
// sliding window with reference data for delta-patch decompression,
// placed at the tail of the window buffer exactly as
// XenonUtils/xex_patcher.cpp's lzxDecompress zero-pads then copies
// windowData to the end of lzxd->window.
func NewDecoder(windowSize uint32, window []byte) (*Decoder, error) {
	if windowSize == 0 || windowSize&(windowSize-1) != 0 {
		return nil, ErrBadWindowSize
	}
	windowBits := bits.TrailingZeros32(windowSize)
	slots, ok := numPositionSlots[windowBits]
	if !ok {
		return nil, ErrBadWindowSize
	}

	d := &Decoder{
		windowBits: windowBits,
		numSlots:   slots,
		mainLens:   make([]uint8, numChars+slots*8),
		lenLens:    make([]uint8, numSecondaryLengths),
		window:     make([]byte, windowSize),
	}

	if len(window) > 0 {
		padding := int(windowSize) - len(window)
		if padding < 0 {
			padding = 0
			window = window[len(window)-int(windowSize):]
		}
		copy(d.window[padding:], window)
	}

	return d, nil
}

// Decompress reads LZX-compressed blocks from src until dstLength bytes
// have been produced, returning the decompressed bytes.
func (d *Decoder) Decompress(src []byte, dstLength int) ([]byte, error) {
	br := newBitReader(src)
	dst := make([]byte, 0, dstLength)

	for len(dst) < dstLength {
		blockType := br.read(3)
		blockSize := int(br.read(8))<<16 | int(br.read(16))
		if blockSize <= 0 {
			return nil, ErrShortOutput
		}
		remaining := dstLength - len(dst)
		if blockSize > remaining {
			blockSize = remaining
		}

		var err error
		switch blockType {
		case blockUncompressed:
			dst, err = d.decodeUncompressed(br, dst, blockSize)
		case blockVerbatim:
			dst, err = d.decodeCompressed(br, dst, blockSize, false)
		case blockAligned:
			dst, err = d.decodeCompressed(br, dst, blockSize, true)
		default:
			return nil, errors.New("lzx: unknown block type")
		}
		if err != nil {
			return nil, err
		}
	}

	return dst, nil
}

func (d *Decoder) decodeUncompressed(br *bitReader, dst []byte, blockSize int) ([]byte, error) {
	br.alignToWord()
	d.r0 = br.readRawU32LE()
	d.r1 = br.readRawU32LE()
	d.r2 = br.readRawU32LE()

	raw := br.readRawBytes(blockSize)
	if len(raw) != blockSize {
		return nil, ErrShortOutput
	}
	for _, b := range raw {
		d.emit(b)
	}
	return append(dst, raw...), nil
}

func (d *Decoder) decodeCompressed(br *bitReader, dst []byte, blockSize int, aligned bool) ([]byte, error) {
	var alignedTable *huffTable
	if aligned {
		lens := make([]uint8, alignedElements)
		for i := range lens {
			lens[i] = uint8(br.read(3))
		}
		alignedTable = buildHuffTable(lens)
	}

	if err := d.readLens(br, d.mainLens[:numChars]); err != nil {
		return nil, err
	}
	if err := d.readLens(br, d.mainLens[numChars:]); err != nil {
		return nil, err
	}
	if err := d.readLens(br, d.lenLens); err != nil {
		return nil, err
	}

	mainTable := buildHuffTable(d.mainLens)
	lengthTable := buildHuffTable(d.lenLens)

	produced := 0
	for produced < blockSize {
		sym, err := mainTable.decode(br)
		if err != nil {
			return nil, err
		}

		if sym < numChars {
			dst = append(dst, byte(sym))
			d.emit(byte(sym))
			produced++
			continue
		}

		matchSym := sym - numChars
		slot := matchSym >> 3
		lengthHeader := matchSym & 7

		length := lengthHeader + minMatch
		if lengthHeader == numPrimaryLengths {
			extra, err := lengthTable.decode(br)
			if err != nil {
				return nil, err
			}
			length = numPrimaryLengths + minMatch + extra
		}

		offset, err := d.decodeOffset(br, slot, alignedTable)
		if err != nil {
			return nil, err
		}

		for i := 0; i < length && produced < blockSize; i++ {
			b := d.windowByte(offset)
			dst = append(dst, b)
			d.emit(b)
			produced++
		}
	}

	return dst, nil
}

// decodeOffset resolves a match's distance, including the repeated-offset
// (R0/R1/R2) most-recently-used cache the LZX format uses to keep common
// distances cheap.
func (d *Decoder) decodeOffset(br *bitReader, slot int, alignedTable *huffTable) (uint32, error) {
	switch slot {
	case 0:
		return d.r0, nil
	case 1:
		d.r0, d.r1 = d.r1, d.r0
		return d.r0, nil
	case 2:
		d.r0, d.r2 = d.r2, d.r0
		return d.r0, nil
	}

	nbits := int(extraBits[slot])
	var extra uint32
	switch {
	case alignedTable == nil || nbits < 3:
		extra = br.read(uint(nbits))
	default:
		extra = br.read(uint(nbits-3)) << 3
		sym, err := alignedTable.decode(br)
		if err != nil {
			return 0, err
		}
		extra |= uint32(sym)
	}

	offset := positionBase[slot] + extra - 2
	d.r2 = d.r1
	d.r1 = d.r0
	d.r0 = offset
	return offset, nil
}

// readLens decodes a run of Huffman code lengths for dst, pretree-coded
// and delta-coded against dst's previous contents, per the LZX main/length
// tree encoding documented in the bitstream format referenced by
// xex_patcher.cpp's lzxd call.
func (d *Decoder) readLens(br *bitReader, dst []uint8) error {
	preLens := make([]uint8, preTreeElements)
	for i := range preLens {
		preLens[i] = uint8(br.read(4))
	}
	preTree := buildHuffTable(preLens)

	i := 0
	for i < len(dst) {
		sym, err := preTree.decode(br)
		if err != nil {
			return err
		}

		switch sym {
		case 17: // short zero run
			n := int(br.read(4)) + 4
			for j := 0; j < n && i < len(dst); j++ {
				dst[i] = 0
				i++
			}
		case 18: // long zero run
			n := int(br.read(5)) + 20
			for j := 0; j < n && i < len(dst); j++ {
				dst[i] = 0
				i++
			}
		case 19: // repeat run of a single delta-coded value
			n := int(br.read(1)) + 4
			sym2, err := preTree.decode(br)
			if err != nil {
				return err
			}
			v := mod17(int(dst[i]) - sym2)
			for j := 0; j < n && i < len(dst); j++ {
				dst[i] = uint8(v)
				i++
			}
		default:
			dst[i] = uint8(mod17(int(dst[i]) - sym))
			i++
		}
	}

	return nil
}

func mod17(v int) int {
	v %= 17
	if v < 0 {
		v += 17
	}
	return v
}

// emit writes a single decoded byte into the sliding window.
func (d *Decoder) emit(b byte) {
	d.window[d.windowPos] = b
	d.windowPos++
	if d.windowPos == len(d.window) {
		d.windowPos = 0
	}
}

// windowByte returns the byte `offset` positions behind the current
// window cursor, wrapping around the circular window.
func (d *Decoder) windowByte(offset uint32) byte {
	idx := d.windowPos - int(offset) - 1
	n := len(d.window)
	idx %= n
	if idx < 0 {
		idx += n
	}
	return d.window[idx]
}
