package lzx

import (
	"bytes"
	"crypto/sha1"
	"errors"
)

// ErrBlockDigestMismatch is returned when an outer block's recorded SHA-1
// digest doesn't match the block's actual content: the SHA-1 over each
// whole outer block must match the recorded digest, or decompression
// aborts with failure.
var ErrBlockDigestMismatch = errors.New("lzx: block SHA-1 mismatch")

// ReassembleChunks walks the "NORMAL" compression outer-block stream.
// Each block is a hash-chain link: its own
// leading 24 bytes are {nextBlockSize uint32, nextBlockHash [20]byte}
// describing the block that FOLLOWS it, not itself — the chain's root,
// describing the very first block, lives in the FILE_FORMAT_INFO optional
// header and must be supplied by the caller. Every block is followed by a
// chain of (uint16 chunkSize, chunkSize bytes) records terminated by a
// zero chunkSize. ReassembleChunks verifies every block's SHA-1 against
// the size/hash its predecessor declared (the root for the first block)
// and concatenates every chunk's payload into one continuous
// LZX-compressed byte stream, ready for Decoder.Decompress.
//
// Grounded on XenonUtils/xex.cpp's decompression loop and
// xex_patcher.cpp's identical block-walk (both call this the same way
// before handing the result to lzxDecompress).
func ReassembleChunks(data []byte, firstBlockSize uint32, firstBlockHash [20]byte) ([]byte, error) {
	var out []byte
	p := 0
	blockSize := firstBlockSize
	blockHash := firstBlockHash

	for blockSize != 0 {
		if p+int(blockSize) > len(data) {
			return nil, ErrShortOutput
		}
		block := data[p : p+int(blockSize)]

		sum := sha1.Sum(block)
		if !bytes.Equal(sum[:], blockHash[:]) {
			return nil, ErrBlockDigestMismatch
		}

		nextSize := uint32(block[0])<<24 | uint32(block[1])<<16 | uint32(block[2])<<8 | uint32(block[3])
		var nextHash [20]byte
		copy(nextHash[:], block[4:24])

		cursor := 24
		for cursor+2 <= len(block) {
			chunkSize := int(block[cursor])<<8 | int(block[cursor+1])
			cursor += 2
			if chunkSize == 0 {
				break
			}
			if cursor+chunkSize > len(block) {
				return nil, ErrShortOutput
			}
			out = append(out, block[cursor:cursor+chunkSize]...)
			cursor += chunkSize
		}

		p += int(blockSize)
		blockSize = nextSize
		blockHash = nextHash
	}

	return out, nil
}
