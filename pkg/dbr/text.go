package dbr

// Wire strings (units, enum names, string values) are byte sequences in
// an 8-bit charset. DecodeText and EncodeText map bytes and runes
// one-to-one (Latin-1), so every byte value round-trips.

// DecodeText decodes a wire byte sequence to a Go string.
func DecodeText(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// EncodeText encodes a Go string to wire bytes. Runes outside the 8-bit
// range are replaced with '?'.
func EncodeText(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xff {
			r = '?'
		}
		out = append(out, byte(r))
	}
	return out
}
