package lzx

import "errors"

// errBadHuffman is returned when a canonical Huffman code table cannot
// decode the next few bits of the stream — almost always a sign the
// window size or block boundary bookkeeping has drifted.
var errBadHuffman = errors.New("lzx: invalid huffman code")

// huffTable is a canonical Huffman decode table built the same way
// DEFLATE's (and therefore LZX's) code-length arrays are: count the
// symbols at each length, derive per-length starting codes, then bucket
// symbols into a flat array ordered by (length, symbol).
type huffTable struct {
	counts  [17]uint16
	symbols []uint16
}

func buildHuffTable(lens []uint8) *huffTable {
	h := &huffTable{symbols: make([]uint16, len(lens))}
	for _, l := range lens {
		h.counts[l]++
	}
	h.counts[0] = 0

	var offsets [18]uint16
	for i := 1; i <= 16; i++ {
		offsets[i+1] = offsets[i] + h.counts[i]
	}

	for sym, l := range lens {
		if l == 0 {
			continue
		}
		h.symbols[offsets[l]] = uint16(sym)
		offsets[l]++
	}
	return h
}

// decode reads one Huffman symbol bit by bit, MSB first, the classic
// canonical-code walk (same shape as zlib's inflate_table/puff.c).
func (h *huffTable) decode(br *bitReader) (int, error) {
	code, first, index := 0, 0, 0
	for length := 1; length <= 16; length++ {
		code |= int(br.read(1))
		count := int(h.counts[length])
		if code-first < count {
			return int(h.symbols[index+(code-first)]), nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, errBadHuffman
}
