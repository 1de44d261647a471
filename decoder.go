package charref

import (
	"errors"
	"io"
)

// Decoder decodes character references from a stream. Reads from a Decoder
// return the same bytes [UnescapeAll] would produce for the whole stream, however
// the underlying reader splits it.
type Decoder struct {
	r     io.Reader
	table *Table
	rb    readBuffer

	out []byte // decoded bytes not yet returned
	buf []byte // backing storage for out
	err error  // sticky error from r
}

type DecoderOption func(d *Decoder)

// NewDecoder returns a [Decoder] reading from r.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := &Decoder{r: r, table: html5Table}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// WithTable resolves named references with t instead of the [HTML5] table.
func WithTable(t *Table) DecoderOption {
	return func(d *Decoder) {
		if t != nil {
			d.table = t
		}
	}
}

// WithBufferSize sets the initial size of the read buffer.
func WithBufferSize(size int) DecoderOption {
	return func(d *Decoder) {
		d.rb = readBuffer{buf: make([]byte, max(size, 0))}
	}
}

// Reset discards the [Decoder] d's state and makes it read from r, keeping
// its table and buffers.
func (d *Decoder) Reset(r io.Reader) {
	d.r = r
	d.rb.reset()
	d.out = nil
	d.err = nil
}

// Read implements [io.Reader].
func (d *Decoder) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(d.out) == 0 {
		if d.err != nil {
			return 0, d.err
		}
		d.fill()
	}

	n := copy(p, d.out)
	d.out = d.out[n:]
	return n, nil
}

// WriteTo implements [io.WriterTo].
func (d *Decoder) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for {
		if len(d.out) > 0 {
			n, err := w.Write(d.out)
			written += int64(n)
			d.out = d.out[n:]
			if err != nil {
				return written, err
			}
			if len(d.out) > 0 {
				return written, io.ErrShortWrite
			}
		}

		if d.err != nil {
			if errors.Is(d.err, io.EOF) {
				return written, nil
			}
			return written, d.err
		}
		d.fill()
	}
}

// fill reads more input and decodes as much of the window as can be decided.
// Once r fails, whatever remains in the window is decoded as final.
func (d *Decoder) fill() {
	if err := d.rb.readFrom(d.r); err != nil {
		d.err = err
	}

	d.out = d.rb.decode(d.table, d.buf[:0], d.err != nil)
	d.buf = d.out[:0]
}
