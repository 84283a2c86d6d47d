package pktline

import "io"

// Scanner provides read_sequence: a lazy sequence of pkt-line payloads
// terminated by (and not including) a flush packet.
//
// After each call to Scan that returns true, Bytes returns the most recent
// payload on a buffer owned by the Scanner — callers that need to retain
// the bytes past the next Scan call must copy them.
type Scanner struct {
	r      io.Reader
	cur    []byte
	err    error
	done   bool
	notify func(p []byte, flush bool)
}

// NewScanner returns a Scanner reading pkt-lines from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r}
}

// OnRead installs a callback invoked after every successful physical read,
// with flush=true when the payload was a flush packet. This is the hook
// behind the optional report_activity sink.
func (s *Scanner) OnRead(f func(payload []byte, flush bool)) {
	s.notify = f
}

// Scan advances to the next payload. It returns false at the terminating
// flush packet or on error; Err reports which.
func (s *Scanner) Scan() bool {
	if s.done {
		return false
	}

	payload, err := ReadPacket(s.r)
	if err != nil {
		s.err = err
		s.done = true
		return false
	}

	if IsFlush(payload) {
		s.done = true
		if s.notify != nil {
			s.notify(nil, true)
		}
		return false
	}

	s.cur = payload
	if s.notify != nil {
		s.notify(payload, false)
	}
	return true
}

// Bytes returns the payload produced by the most recent successful Scan.
func (s *Scanner) Bytes() []byte {
	return s.cur
}

// Text is a convenience wrapper around Bytes.
func (s *Scanner) Text() string {
	return string(s.cur)
}

// Err returns the error that ended scanning, or nil when scanning stopped
// at a flush packet. A stream that ends before its flush packet reports
// io.EOF.
func (s *Scanner) Err() error {
	return s.err
}

// ReadAll drains the remaining sequence into a single slice of payloads.
func ReadAll(r io.Reader) ([][]byte, error) {
	s := NewScanner(r)
	var out [][]byte
	for s.Scan() {
		line := make([]byte, len(s.Bytes()))
		copy(line, s.Bytes())
		out = append(out, line)
	}
	return out, s.Err()
}
