package opener

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotFound reports an input path that names no file or object.
	ErrNotFound = errors.New("input not found")
	ErrTooLarge = errors.New("input exceeds size limit")
)

// capped fails the read that crosses max bytes instead of truncating the
// input silently.
type capped struct {
	io.ReadCloser
	max, read int64
	src       string
}

func capReader(rc io.ReadCloser, max int64, src string) io.ReadCloser {
	if max <= 0 {
		return rc
	}
	return &capped{ReadCloser: rc, max: max, src: src}
}

func (c *capped) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.read += int64(n)
	if c.read > c.max {
		return n, fmt.Errorf("%w: %s (%d bytes)", ErrTooLarge, c.src, c.max)
	}
	return n, err
}
