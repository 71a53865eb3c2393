package output

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

// WriterConsumer writes one JSON line per record and flushes after each, so
// readers tailing the output see every record as soon as it is observed.
type WriterConsumer struct {
	w      *bufio.Writer
	closer io.Closer
	buf    []byte
}

// NewWriterConsumer writes to w. If w is also an io.Closer it is closed by
// Close.
func NewWriterConsumer(w io.Writer) *WriterConsumer {
	c := &WriterConsumer{w: bufio.NewWriter(w), buf: make([]byte, 0, 160)}
	if closer, ok := w.(io.Closer); ok {
		c.closer = closer
	}
	return c
}

func NewStdoutConsumer() *WriterConsumer {
	return &WriterConsumer{w: bufio.NewWriter(os.Stdout), buf: make([]byte, 0, 160)}
}

// NewFileConsumer truncates or creates path. "-" selects stdout.
func NewFileConsumer(path string) (*WriterConsumer, error) {
	if path == "-" {
		return NewStdoutConsumer(), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not open output file: %w", err)
	}
	return NewWriterConsumer(f), nil
}

func (c *WriterConsumer) Consume(r *record.Record) error {
	c.buf = r.AppendJSON(c.buf[:0])
	if _, err := c.w.Write(c.buf); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *WriterConsumer) Close() error {
	err := c.w.Flush()
	if c.closer != nil {
		if cerr := c.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
