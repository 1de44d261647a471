package charref

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Transformer decodes character references as a [transform.Transformer], so
// decoding composes with [transform.NewReader], [transform.Chain] and friends.
// A Transformer holds no state between calls.
type Transformer struct {
	table *Table
}

var _ transform.Transformer = (*Transformer)(nil)

// NewTransformer returns a Transformer resolving named references with t.
// A nil t selects the [HTML5] table.
func NewTransformer(t *Table) *Transformer {
	if t == nil {
		t = html5Table
	}
	return &Transformer{table: t}
}

// Transform implements [transform.Transformer].
func (tr *Transformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	var ref [2 * utf8.UTFMax]byte

	for nSrc < len(src) {
		if src[nSrc] != '&' {
			run := bytes.IndexByte(src[nSrc:], '&')
			if run < 0 {
				run = len(src) - nSrc
			}
			n := copy(dst[nDst:], src[nSrc:nSrc+run])
			nDst += n
			nSrc += n
			if n < run {
				return nDst, nSrc, transform.ErrShortDst
			}
			continue
		}

		if !atEOF && len(src)-nSrc-1 < entityMaxLength {
			return nDst, nSrc, transform.ErrShortSrc
		}

		decoded, n := tr.table.appendRef(ref[:0], src[nSrc+1:])
		if len(dst)-nDst < len(decoded) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], decoded)
		nSrc += 1 + n
	}

	return nDst, nSrc, nil
}

// Reset implements [transform.Transformer].
func (tr *Transformer) Reset() {}
