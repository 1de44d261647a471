package charref

import (
	"unicode/utf8"
)

const (
	entityMinLength = 2
	entityMaxLength = 31

	// maxCodepoint is one past the last Unicode scalar value. The numeric
	// accumulator saturates here, so it also marks an out of range reference.
	maxCodepoint = 0x110000

	// maxDigits is the longest digit run accepted in a numeric reference.
	maxDigits = 8
)

// Unescape decodes the single character reference at the start of text, which
// holds everything after the '&'. It returns the decoded bytes and the number
// of bytes of text consumed, including the terminating ';'.
//
// Named references are resolved with the [HTML5] table; the returned slice is
// then shared with the table and must not be modified.
func Unescape(text []byte) (decoded []byte, consumed int, ok bool) {
	return html5Table.Unescape(text)
}

// Unescape is like the package level [Unescape] but resolves named references
// with t.
func (t *Table) Unescape(text []byte) (decoded []byte, consumed int, ok bool) {
	if r, n, ok := decodeNumeric(text); ok {
		return utf8.AppendRune(nil, r), n, true
	}
	return t.decodeNamed(text)
}

// appendRef appends the reference at the start of text to dst. When no valid
// reference starts there, it appends a literal '&' and consumes nothing.
func (t *Table) appendRef(dst, text []byte) ([]byte, int) {
	if r, n, ok := decodeNumeric(text); ok {
		return utf8.AppendRune(dst, r), n
	}
	if decoded, n, ok := t.decodeNamed(text); ok {
		return append(dst, decoded...), n
	}
	return append(dst, '&'), 0
}

// decodeNumeric parses "#NNN;" or "#xHHH;".
func decodeNumeric(text []byte) (r rune, consumed int, ok bool) {
	if len(text) < 3 || text[0] != '#' {
		return 0, 0, false
	}

	var (
		codepoint uint32
		i, digits int
	)
	switch c := text[1]; {
	case isDigit(c):
		for i = 1; i < len(text) && isDigit(text[i]); i++ {
			codepoint = min(codepoint*10+uint32(text[i]-'0'), maxCodepoint)
		}
		digits = i - 1
	case c == 'x' || c == 'X':
		for i = 2; i < len(text) && isHexDigit(text[i]); i++ {
			codepoint = min(codepoint*16+hexValue(text[i]), maxCodepoint)
		}
		digits = i - 2
	}

	if digits < 1 || digits > maxDigits || i >= len(text) || text[i] != ';' {
		return 0, 0, false
	}

	// The surrogate band deliberately includes U+E000.
	if codepoint == 0 || (codepoint >= 0xD800 && codepoint <= 0xE000) || codepoint >= maxCodepoint {
		codepoint = utf8.RuneError
	}
	r = rune(codepoint)
	if !utf8.ValidRune(r) {
		r = utf8.RuneError
	}
	return r, i + 1, true
}

// decodeNamed looks up "name;" in t. Names are entityMinLength to
// entityMaxLength-1 bytes long and never contain a space.
func (t *Table) decodeNamed(text []byte) (decoded []byte, consumed int, ok bool) {
	size := min(len(text), entityMaxLength)
	for i := entityMinLength; i < size; i++ {
		switch text[i] {
		case ' ':
			return nil, 0, false
		case ';':
			decoded, ok := t.lookupName(text[:i])
			if !ok {
				return nil, 0, false
			}
			return decoded, i + 1, true
		}
	}
	return nil, 0, false
}

func (t *Table) lookupName(name []byte) ([]byte, bool) {
	var buf [entityMaxLength + 1]byte
	spelling := append(buf[:0], '&')
	spelling = append(spelling, name...)
	spelling = append(spelling, ';')
	return t.Lookup(spelling)
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func hexValue(c byte) uint32 {
	switch {
	case c >= 'a':
		return uint32(c-'a') + 10
	case c >= 'A':
		return uint32(c-'A') + 10
	}
	return uint32(c - '0')
}
