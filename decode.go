package charref

import (
	"bytes"
	"strings"
)

// UnescapeAll decodes every character reference in src using the [HTML5]
// table. References that do not decode are kept as they are.
//
// When src contains no '&', src itself is returned and nothing is allocated.
func UnescapeAll(src []byte) []byte {
	return html5Table.UnescapeAll(src)
}

// UnescapeAll is like the package level [UnescapeAll] but resolves named
// references with t.
func (t *Table) UnescapeAll(src []byte) []byte {
	if bytes.IndexByte(src, '&') < 0 {
		return src
	}
	dst, _ := t.appendUnescape(make([]byte, 0, len(src)), src, true)
	return dst
}

// AppendUnescape appends the decoded form of src to dst and returns the
// extended buffer.
func AppendUnescape(dst, src []byte) []byte {
	return html5Table.AppendUnescape(dst, src)
}

// AppendUnescape is like the package level [AppendUnescape] but resolves
// named references with t.
func (t *Table) AppendUnescape(dst, src []byte) []byte {
	dst, _ = t.appendUnescape(dst, src, true)
	return dst
}

// UnescapeString is like [UnescapeAll] for strings.
func UnescapeString(s string) string {
	return html5Table.UnescapeString(s)
}

// UnescapeString is like the package level [UnescapeString] but resolves
// named references with t.
func (t *Table) UnescapeString(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	dst, _ := t.appendUnescape(make([]byte, 0, len(s)), []byte(s), true)
	return string(dst)
}

// appendUnescape decodes src onto dst and reports how much of src it consumed.
//
// The outcome at an '&' depends on at most entityMaxLength following bytes.
// Unless atEOF, decoding stops before an '&' with fewer bytes than that after
// it, so more input can be appended and decoding resumed at the returned offset.
func (t *Table) appendUnescape(dst, src []byte, atEOF bool) ([]byte, int) {
	i := 0
	for i < len(src) {
		j := bytes.IndexByte(src[i:], '&')
		if j < 0 {
			return append(dst, src[i:]...), len(src)
		}
		dst = append(dst, src[i:i+j]...)
		i += j

		if !atEOF && len(src)-i-1 < entityMaxLength {
			return dst, i
		}

		var n int
		dst, n = t.appendRef(dst, src[i+1:])
		i += 1 + n
	}
	return dst, i
}
