package charref

import (
	"io"
)

const defaultReadBufSize = 32 * 1024

// readBuffer holds source bytes that have been read but not yet decoded.
//
// Decoding only holds back an '&' followed by fewer than entityMaxLength
// bytes, so at most that many bytes survive a decode. The buffer grows only
// while it is too small to complete such a reference.
type readBuffer struct {
	buf        []byte
	start, end int
}

func (rb *readBuffer) reset() {
	rb.start, rb.end = 0, 0
}

// readFrom moves held back bytes to the front and appends one read from r.
func (rb *readBuffer) readFrom(r io.Reader) error {
	if len(rb.buf) == 0 {
		rb.buf = make([]byte, defaultReadBufSize)
	}
	if rb.start > 0 {
		rb.end = copy(rb.buf, rb.buf[rb.start:rb.end])
		rb.start = 0
	}
	if rb.end == len(rb.buf) {
		nb := make([]byte, 2*len(rb.buf))
		copy(nb, rb.buf[:rb.end])
		rb.buf = nb
	}

	n, err := r.Read(rb.buf[rb.end:])
	rb.end += n
	return err
}

// decode appends the decoded buffer to dst. Unless final, a reference that
// more input could still change is kept for the next readFrom.
func (rb *readBuffer) decode(t *Table, dst []byte, final bool) []byte {
	dst, consumed := t.appendUnescape(dst, rb.buf[rb.start:rb.end], final)
	rb.start += consumed
	if rb.start == rb.end {
		rb.reset()
	}
	return dst
}
