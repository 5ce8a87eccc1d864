package fetch

import (
	"context"
	"io"
)

// CallbackProxyReader wraps an io.Reader and calls back with the number of
// bytes returned by every Read, before returning them to the caller.
type CallbackProxyReader struct {
	r io.Reader
	c func(n int)
}

// NewCallbackProxyReader wraps reader, calling callback after every
// non-empty read.
func NewCallbackProxyReader(reader io.Reader, callback func(n int)) *CallbackProxyReader {
	return &CallbackProxyReader{
		r: reader,
		c: callback,
	}
}

func (p *CallbackProxyReader) Read(b []byte) (n int, err error) {
	n, err = p.r.Read(b)
	if n > 0 {
		p.c(n)
	}
	return
}

// contextReader fails reads once ctx is done, for sources whose body does
// not observe the context on its own.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(b []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}
