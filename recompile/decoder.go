// Package recompile implements the instruction translator: for each
// discovered Function, disassemble its 4-byte words one at a time and
// emit a semantically faithful host-source translation into a shared
// append-only buffer, resolving branches against the function's own
// extent, the symbol table, and the switch-table manifest.
//
// Grounded on PowerRecomp/main.cpp's per-instruction switch, which
// disassembles through a capstone-shaped collaborator and formats
// directly into a pre-reserved std::string via std::format. This port
// keeps that same table-driven-over-opcode shape and delegates decoding
// to golang.org/x/arch/ppc64/ppc64asm behind a narrow Decoder interface
// so a different decoder can be substituted.
package recompile

import (
	"encoding/binary"

	"golang.org/x/arch/ppc64/ppc64asm"
)

// Instruction is the decoded form of one 32-bit PowerPC word: an opcode and
// up to six Power-ISA-ordered operands. It is a direct alias of the
// disassembler collaborator's own type, so opcode handlers can switch on
// ppc64asm.Op values and operand types without an extra translation layer.
type Instruction = ppc64asm.Inst

// Decoder decodes one big-endian 32-bit instruction word at a virtual
// address. This interface is the seam that lets a test or an alternate
// backend supply a decoder without touching the translator.
type Decoder interface {
	Decode(word [4]byte, addr uint32) (Instruction, error)
}

// ppc64Decoder wires golang.org/x/arch/ppc64/ppc64asm as the default
// Decoder. Xenon is big-endian PowerPC, exactly the encoding this package
// was built to decode for the Go toolchain's own ppc64 backend.
type ppc64Decoder struct{}

// NewDecoder returns the default, ppc64asm-backed Decoder.
func NewDecoder() Decoder { return ppc64Decoder{} }

func (ppc64Decoder) Decode(word [4]byte, addr uint32) (Instruction, error) {
	return ppc64asm.Decode(word[:], binary.BigEndian)
}
