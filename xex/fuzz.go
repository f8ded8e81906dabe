package xex

// Fuzz mirrors saferwall/pe's fuzz.go entry point: feed arbitrary bytes
// through the full loader and report whether it parsed without error, for
// use with go-fuzz-style harnesses over malformed XEX2/ELF input.
func Fuzz(data []byte) int {
	if _, err := Open(data, nil); err != nil {
		return 0
	}
	return 1
}
