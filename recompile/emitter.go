package recompile

import (
	"fmt"
	"strings"
)

// emissionReserveBytes pre-sizes the buffer the way PowerRecomp's main.cpp
// does (`out.reserve(512 * 1024 * 1024)`) so repeated append-growth never
// touches the allocator mid-translation.
const emissionReserveBytes = 512 * 1024 * 1024

// Emitter is the single append-only text sink every Function's translation
// writes into. It is not safe for concurrent use — the whole pipeline is
// single-threaded.
type Emitter struct {
	buf strings.Builder
}

// NewEmitter returns an Emitter with its buffer pre-reserved.
func NewEmitter() *Emitter {
	e := &Emitter{}
	e.buf.Grow(emissionReserveBytes)
	return e
}

// Printf appends formatted text with no trailing newline, mirroring the
// original's `print` lambda (used mid-line, e.g. building up an addi's
// optional base-register term before its immediate).
func (e *Emitter) Printf(format string, args ...any) {
	fmt.Fprintf(&e.buf, format, args...)
}

// Line appends formatted text followed by a newline, mirroring the
// original's `println` lambda — the common case for one instruction's
// translation.
func (e *Emitter) Line(format string, args ...any) {
	fmt.Fprintf(&e.buf, format, args...)
	e.buf.WriteByte('\n')
}

// String returns the accumulated emission. Called once, after every
// Function has been translated, matching the "flushed once" lifecycle.
func (e *Emitter) String() string { return e.buf.String() }

// Bytes returns the accumulated emission as a byte slice, for callers that
// write it out via an *os.File.
func (e *Emitter) Bytes() []byte { return []byte(e.buf.String()) }
