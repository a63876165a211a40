package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDigits(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"0", 0, true},
		{"1004", 1004, true},
		{"2147483647", 2147483647, true},
		{"2147483648", 0, false},
		{"", 0, false},
		{"12a", 0, false},
		{"-1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b := []byte(tt.in)
			got, ok := parseDigits(b, 0, len(b))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHexDigits(t *testing.T) {
	b := []byte("7Ea5g")
	n, ok := parseHexDigits(b, 0, 2)
	assert.True(t, ok)
	assert.Equal(t, 0x7e, n)

	n, ok = parseHexDigits(b, 0, 4)
	assert.True(t, ok)
	assert.Equal(t, 0x7ea5, n)

	_, ok = parseHexDigits(b, 0, 5)
	assert.False(t, ok)

	_, ok = parseHexDigits(b, 2, 2)
	assert.False(t, ok)
}

func TestParseHexString(t *testing.T) {
	b := []byte("57657a5465726d")
	s, ok := parseHexString(b, 0, len(b))
	assert.True(t, ok)
	assert.Equal(t, "WezTerm", s)

	s, ok = parseHexString(b, 3, 3)
	assert.True(t, ok)
	assert.Equal(t, "", s)

	_, ok = parseHexString(b, 0, 3)
	assert.False(t, ok, "odd length")

	_, ok = parseHexString([]byte("zz"), 0, 2)
	assert.False(t, ok)
}

func TestIndexOf(t *testing.T) {
	b := []byte("1;2:3;4")
	assert.Equal(t, 1, indexOf(b, ';', 0, len(b)))
	assert.Equal(t, 5, indexOf(b, ';', 2, len(b)))
	assert.Equal(t, -1, indexOf(b, ';', 2, 5))
	assert.Equal(t, 5, indexOfOr(b, ':', 4, 5, 5))
	assert.Equal(t, 7, indexOfOr(b, ';', 7, 7, 7))
}

func TestDecodeUTF8(t *testing.T) {
	b := []byte("aé\U0001F600")
	r, next, status := decodeUTF8(b, 0)
	assert.Equal(t, utf8OK, status)
	assert.Equal(t, 'a', r)
	assert.Equal(t, 1, next)

	r, next, status = decodeUTF8(b, 1)
	assert.Equal(t, utf8OK, status)
	assert.Equal(t, 'é', r)
	assert.Equal(t, 3, next)

	_, _, status = decodeUTF8(b[:5], 3)
	assert.Equal(t, utf8Underflow, status)

	_, _, status = decodeUTF8(b, len(b))
	assert.Equal(t, utf8Underflow, status)

	_, _, status = decodeUTF8([]byte{0xff, 'a'}, 0)
	assert.Equal(t, utf8Invalid, status)

	_, _, status = decodeUTF8([]byte{0xc3, 'a'}, 0)
	assert.Equal(t, utf8Invalid, status)
}
