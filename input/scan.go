package input

import (
	"bytes"
	"encoding/hex"
	"unicode/utf8"
)

// indexOf returns the index of the first c in b[from:to], or -1.
func indexOf(b []byte, c byte, from, to int) int {
	return indexOfOr(b, c, from, to, -1)
}

// indexOfOr returns the index of the first c in b[from:to], or def.
func indexOfOr(b []byte, c byte, from, to, def int) int {
	if from >= to {
		return def
	}
	if i := bytes.IndexByte(b[from:to], c); i >= 0 {
		return from + i
	}
	return def
}

const maxDigitsValue = 1<<31 - 1

// parseDigits parses b[from:to] as a non-negative decimal integer. Empty
// ranges, non-digit bytes and values overflowing int32 are rejected.
func parseDigits(b []byte, from, to int) (int, bool) {
	if from >= to {
		return 0, false
	}
	n := 0
	for _, c := range b[from:to] {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > maxDigitsValue {
			return 0, false
		}
	}
	return n, true
}

// parseHexDigits parses b[from:to] as a hexadecimal integer of either case.
func parseHexDigits(b []byte, from, to int) (int, bool) {
	if from >= to || to-from > 7 {
		return 0, false
	}
	n := 0
	for _, c := range b[from:to] {
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		default:
			return 0, false
		}
		n = n<<4 | int(v)
	}
	return n, true
}

// parseHexString decodes b[from:to] as pairs of hex digits into a string.
// Odd lengths and non-hex bytes are rejected.
func parseHexString(b []byte, from, to int) (string, bool) {
	if from >= to {
		return "", true
	}
	out := make([]byte, hex.DecodedLen(to-from))
	if _, err := hex.Decode(out, b[from:to]); err != nil {
		return "", false
	}
	return string(out), true
}

type utf8Status uint8

const (
	utf8OK utf8Status = iota
	utf8Underflow
	utf8Invalid
)

// decodeUTF8 decodes one code point starting at b[start]. On success it
// returns the rune and the index just past it.
func decodeUTF8(b []byte, start int) (rune, int, utf8Status) {
	p := b[start:]
	if !utf8.FullRune(p) {
		return 0, 0, utf8Underflow
	}
	r, size := utf8.DecodeRune(p)
	if r == utf8.RuneError && size <= 1 {
		return 0, 0, utf8Invalid
	}
	return r, start + size, utf8OK
}
