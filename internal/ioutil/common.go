// Package ioutil implements small io.Closer adapters shared by the
// transport implementations.
package ioutil

import "io"

// CloserFunc adapts a bare func() error to io.Closer, so a method like
// conn.close can be passed to CheckClose without a named wrapper type.
type CloserFunc func() error

func (f CloserFunc) Close() error { return f() }

var _ io.Closer = CloserFunc(nil)

type writeNopCloser struct {
	io.Writer
}

func (writeNopCloser) Close() error { return nil }

// WriteNopCloser returns a WriteCloser with a no-op Close method wrapping
// the provided Writer w.
func WriteNopCloser(w io.Writer) io.WriteCloser {
	return writeNopCloser{w}
}

// CheckClose calls Close on the given io.Closer. If the given *error points to
// nil, it will be assigned the error returned by Close. Otherwise, any error
// returned by Close will be ignored. CheckClose is usually called with defer.
func CheckClose(c io.Closer, err *error) {
	if cerr := c.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}
