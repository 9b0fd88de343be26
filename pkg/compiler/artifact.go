package compiler

// casmMagic is the fixed 4-byte prefix every CASM artifact starts with.
// There is no length header or checksum: the VM reads the magic, then
// treats everything after it as raw bytecode through to EOF.
const casmMagic = "CASM"

// BuildArtifact prepends the CASM magic to body, producing the exact bytes
// written to a .casm output file.
func BuildArtifact(body []byte) []byte {
	out := make([]byte, 0, len(casmMagic)+len(body))
	out = append(out, casmMagic...)
	out = append(out, body...)
	return out
}
