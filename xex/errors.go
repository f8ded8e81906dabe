package xex

import "errors"

// Input-format errors: the container's own framing is malformed.
var (
	ErrBadMagic             = errors.New("xex: unrecognized container magic")
	ErrHeaderTooShort        = errors.New("xex: truncated header")
	ErrMissingFileFormatInfo = errors.New("xex: no FILE_FORMAT_INFO optional header")
	ErrUnsupportedEncryption = errors.New("xex: unsupported encryption type")
	ErrUnsupportedCompression = errors.New("xex: unsupported compression type")
	ErrBadOptHeader          = errors.New("xex: malformed optional header table")
	ErrBadSectionTable       = errors.New("xex: malformed PE section table")
)

// Integrity errors: the container parsed structurally but its content
// failed a consistency check.
var (
	ErrBlockSizeOverrun = errors.New("xex: compressed block overruns buffer")
	ErrImageSizeMismatch = errors.New("xex: decompressed image size mismatch")
)
