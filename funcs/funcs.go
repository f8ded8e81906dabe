// Package funcs implements function discovery: a ".pdata" exception-
// directory pass followed by a linear scan that fills in every byte of
// every Code section not already covered by a Function.
//
// Grounded on github.com/saferwall/pe's exception.go, which walks a
// fixed-size RUNTIME_FUNCTION array out of a named section the same way;
// here the record is the 8-byte PowerPC form of XenonUtils/xbox.h's
// IMAGE_CE_RUNTIME_FUNCTION rather than x64's variable unwind-info layout,
// and the "fill the gaps" pass is this package's own addition (PE never
// needs it — .pdata there is exhaustive).
package funcs

import (
	"fmt"

	"github.com/xenonrecomp/recomp/symtab"
)

// Function is an immutable [Base, Base+Size) code range. Created once by
// either discovery pass and never mutated afterward.
type Function struct {
	Base uint32
	Size uint32
}

// End returns Base+Size.
func (f Function) End() uint32 { return f.Base + f.Size }

// runtimeFunctionSize is sizeof(IMAGE_CE_RUNTIME_FUNCTION): a big-endian
// beginAddress followed by a 32-bit word whose low 22 bits are the
// function length in 4-byte words.
const runtimeFunctionSize = 8

const functionLengthMask = 0x3FFFFF

// WellKnownFunction pre-registers a runtime symbol the linear scan must
// not re-discover (C++/C-specific frame handlers, memcpy, memset, blkmov,
// ...), exactly as PowerRecomp/main.cpp seeds image.symbols before
// scanning.
type WellKnownFunction struct {
	Name    string
	Address uint32
	Size    uint32
}

// FrameHandlerSpan is one of the well-known handler addresses the linear
// scan treats as inter-function padding: an 8-byte span beginning with
// this big-endian word is skipped, not analyzed as code.
type FrameHandlerSpan struct {
	LeadWord uint32
}

// Discover runs the .pdata pass followed by the linear scan pass over
// every Code section of syms/sections, registering Function symbols as it
// goes. The returned slice lists the .pdata functions in record order,
// followed by the linear-scan functions in section order; it is not sorted
// by address as a whole.
func Discover(sections *symtab.SectionTable, syms *symtab.SymbolTable, pdata []byte, wellKnown []WellKnownFunction, frameHandlers []FrameHandlerSpan) []Function {
	for _, wk := range wellKnown {
		syms.Insert(symtab.Symbol{Name: wk.Name, Address: wk.Address, Size: wk.Size, Kind: symtab.KindFunction})
	}

	var functions []Function
	functions = append(functions, pdataPass(syms, pdata)...)
	functions = append(functions, linearScanPass(sections, syms, frameHandlers)...)
	return functions
}

// pdataPass walks the .pdata exception-directory array.
func pdataPass(syms *symtab.SymbolTable, pdata []byte) []Function {
	count := len(pdata) / runtimeFunctionSize
	functions := make([]Function, 0, count)

	for i := 0; i < count; i++ {
		rec := pdata[i*runtimeFunctionSize:]
		beginAddress := beU32(rec[0:4])
		data := beU32(rec[4:8])
		length := data & functionLengthMask

		fn := Function{Base: beginAddress, Size: length * 4}
		if fn.Size == 0 {
			continue
		}
		functions = append(functions, fn)

		if _, ok := syms.FindExact(fn.Base); !ok {
			syms.Insert(symtab.Symbol{
				Name:    fmt.Sprintf("sub_%X", fn.Base),
				Address: fn.Base,
				Size:    fn.Size,
				Kind:    symtab.KindFunction,
			})
		}
	}

	return functions
}

// linearScanPass fills every byte of a Code section not already covered
// by a Function discovered in the .pdata pass.
func linearScanPass(sections *symtab.SectionTable, syms *symtab.SymbolTable, frameHandlers []FrameHandlerSpan) []Function {
	var functions []Function

	for _, section := range sections.All() {
		if !section.IsCode() {
			continue
		}

		base := section.Base
		data := section.Data
		cursor := 0
		end := len(data)

		for cursor < end {
			if cursor+4 <= end && beU32(data[cursor:cursor+4]) == 0 {
				cursor += 4
				base += 4
				continue
			}

			if cursor+8 <= end && isFrameHandlerSpan(beU32(data[cursor:cursor+4]), frameHandlers) {
				cursor += 8
				base += 8
				continue
			}

			if sym, ok := syms.FindExact(base); ok && sym.Kind == symtab.KindFunction {
				cursor += int(sym.Size)
				base += sym.Size
				continue
			}

			remaining := data[cursor:]
			fn := Analyze(remaining, base)
			if fn.Size == 0 || int(fn.Size) > len(remaining) {
				// A corrupt or unanalyzable tail: treat the rest of the
				// section as a single trailing function rather than loop
				// forever, clamping instead of aborting the whole pipeline.
				fn.Size = uint32(len(remaining))
				fn.Size -= fn.Size % 4
				if fn.Size == 0 {
					break
				}
			}

			functions = append(functions, fn)
			syms.Insert(symtab.Symbol{
				Name:    fmt.Sprintf("sub_%X", fn.Base),
				Address: fn.Base,
				Size:    fn.Size,
				Kind:    symtab.KindFunction,
			})

			cursor += int(fn.Size)
			base += fn.Size
		}
	}

	return functions
}

func isFrameHandlerSpan(leadWord uint32, frameHandlers []FrameHandlerSpan) bool {
	for _, fh := range frameHandlers {
		if fh.LeadWord == leadWord {
			return true
		}
	}
	return false
}

// Instruction words Analyze recognizes.
const (
	opBLR   = 0x4E800020 // bclr 20,0,0 unconditional return
	opBLRxM = 0xFC00FFFF // mask isolating the bclr form regardless of BO/BI
)

// Analyze synthesizes a Function by walking forward from data (aligned to
// base) and cutting right after the first unconditional `blr` (return),
// whatever follows it; with no `blr` in data the Function covers every
// whole word of data. This mirrors
// PowerRecomp's Function::Analyze, which has the same job but delegates
// instruction decode to the disassembler collaborator; this port only
// needs to recognize `blr` and zero padding to find the cut point, so it
// avoids pulling the full decoder into the discovery pass.
func Analyze(data []byte, base uint32) Function {
	cursor := 0
	for cursor+4 <= len(data) {
		word := beU32(data[cursor : cursor+4])
		cursor += 4

		if word == opBLR {
			// Found a return: cut right after the blr, the common case for
			// compiler-emitted leaf and non-leaf functions alike.
			return Function{Base: base, Size: uint32(cursor)}
		}
	}
	return Function{Base: base, Size: uint32(cursor)}
}

func beU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
