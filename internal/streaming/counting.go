package streaming

import "io"

// CountingWriter tallies bytes and completed SSE events (blank-line
// terminators) written through it. Terminators split across writes are
// still counted once.
type CountingWriter struct {
	W      io.Writer
	Bytes  int64
	Events int
	lastLF bool
}

func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{W: w}
}

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.W.Write(p)
	c.Bytes += int64(n)
	for _, b := range p[:n] {
		if b != '\n' {
			c.lastLF = false
			continue
		}
		if c.lastLF {
			c.Events++
			c.lastLF = false
		} else {
			c.lastLF = true
		}
	}
	return n, err
}
