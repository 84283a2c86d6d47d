package pktline

import "io"

// Reader wraps an io.Reader with an OnRead hook so the conversation
// drivers can report transport activity from a single call site
// regardless of whether the caller uses ReadPacket directly or a Scanner.
type Reader struct {
	r      io.Reader
	notify func(payload []byte, flush bool)
}

// NewReader returns a Reader wrapping r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// OnRead installs the report_activity hook.
func (r *Reader) OnRead(f func(payload []byte, flush bool)) {
	r.notify = f
}

// ReadPacket reads a single pkt-line, notifying OnRead on success.
func (r *Reader) ReadPacket() ([]byte, error) {
	payload, err := ReadPacket(r.r)
	if err != nil {
		return nil, err
	}
	if r.notify != nil {
		r.notify(payload, IsFlush(payload))
	}
	return payload, nil
}

// Scanner returns a Scanner over the remaining stream, wired to the same
// OnRead hook.
func (r *Reader) Scanner() *Scanner {
	s := NewScanner(r.r)
	s.OnRead(r.notify)
	return s
}

// Underlying returns the wrapped io.Reader, for callers (such as the
// side-band demultiplexer or the non-side-band pack drain) that need to
// keep reading raw bytes past the negotiation phase.
func (r *Reader) Underlying() io.Reader {
	return r.r
}
