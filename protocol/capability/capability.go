// Package capability implements the capability codec: extracting the
// capability list tacked onto the first line of a ref advertisement or
// request, negotiating it against a client's wanted set, and rendering it
// back onto the wire.
package capability

import (
	"bytes"
	"errors"
	"strings"

	"github.com/emirpasic/gods/v2/sets/linkedhashset"
)

// Capability is an ASCII protocol token, optionally carrying a value of the
// form "name=value".
type Capability string

// Capabilities recognized by this client.
const (
	OFSDelta     Capability = "ofs-delta"
	SideBand64k  Capability = "side-band-64k"
	MultiACK     Capability = "multi_ack"
	ThinPack     Capability = "thin-pack"
	ReportStatus Capability = "report-status"
)

// ErrEmptyArgument is returned by Add when a capability is given an empty
// value.
var ErrEmptyArgument = errors.New("capability: empty argument")

// List is an unordered-by-protocol-contract, but deterministically
// ordered-by-insertion, set of capabilities. The server does not rely on
// order, but tests do, so List always renders capabilities in
// the order they were first added — backed by an insertion-ordered set
// rather than a plain map.
type List struct {
	order *linkedhashset.Set[Capability]
	m     map[Capability][]string
}

// NewList returns an empty capability list.
func NewList() *List {
	return &List{
		order: linkedhashset.New[Capability](),
		m:     make(map[Capability][]string),
	}
}

// IsEmpty reports whether the list has no capabilities.
func (l *List) IsEmpty() bool {
	return l.order.Size() == 0
}

// Add inserts a capability with optional values. Adding the same
// capability again appends further values, preserving the first-seen
// position in iteration order.
func (l *List) Add(c Capability, values ...string) error {
	for _, v := range values {
		if v == "" {
			return ErrEmptyArgument
		}
	}
	if !l.order.Contains(c) {
		l.order.Add(c)
	}
	l.m[c] = append(l.m[c], values...)
	return nil
}

// Set replaces any existing values for c with values, adding c if absent.
func (l *List) Set(c Capability, values ...string) error {
	for _, v := range values {
		if v == "" {
			return ErrEmptyArgument
		}
	}
	if !l.order.Contains(c) {
		l.order.Add(c)
	}
	l.m[c] = append([]string(nil), values...)
	return nil
}

// Delete removes a capability entirely.
func (l *List) Delete(c Capability) {
	l.order.Remove(c)
	delete(l.m, c)
}

// Get returns the values associated with c, or nil if absent.
func (l *List) Get(c Capability) []string {
	return l.m[c]
}

// Supports reports whether c is present, regardless of value.
func (l *List) Supports(c Capability) bool {
	return l.order.Contains(c)
}

// All returns the capabilities in insertion order.
func (l *List) All() []Capability {
	if l.order.Size() == 0 {
		return nil
	}
	return l.order.Values()
}

// String renders the list as a space-separated token sequence, each token
// "name" or "name=value1 name=value2 ..." for multi-valued capabilities,
// in insertion order.
func (l *List) String() string {
	var parts []string
	for _, c := range l.All() {
		values := l.m[c]
		if len(values) == 0 {
			parts = append(parts, string(c))
			continue
		}
		for _, v := range values {
			parts = append(parts, string(c)+"="+v)
		}
	}
	return strings.Join(parts, " ")
}

// Decode parses a capability token string (the part of an advertisement or
// request line following the NUL byte) into a List. Absent input yields an
// empty list, never an error.
func Decode(raw []byte) (*List, error) {
	l := NewList()
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return l, nil
	}

	for _, tok := range strings.Fields(string(raw)) {
		name, value, hasValue := strings.Cut(tok, "=")
		c := Capability(name)
		if hasValue {
			if err := l.Add(c, value); err != nil {
				return nil, err
			}
			continue
		}
		if err := l.Add(c); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Extract splits the first advertised ref line into the ref line proper
// and its capability list: the capability list is the
// suffix after a NUL byte; an absent NUL yields an empty capability set
// and the line unchanged.
func Extract(line []byte) (rest []byte, caps *List, err error) {
	nul := bytes.IndexByte(line, 0)
	if nul < 0 {
		caps, err = Decode(nil)
		return line, caps, err
	}
	caps, err = Decode(line[nul+1:])
	return line[:nul], caps, err
}

// Intersect returns the capabilities present in both requested and
// advertised — the negotiated set ("client's requested set
// intersected with the server's advertised set"). Values are taken from
// requested; absence of a capability in advertised is simply omitted, never
// an error.
func Intersect(requested, advertised *List) *List {
	out := NewList()
	for _, c := range requested.All() {
		if !advertised.Supports(c) {
			continue
		}
		values := requested.Get(c)
		if len(values) == 0 {
			_ = out.Add(c)
		} else {
			_ = out.Add(c, values...)
		}
	}
	return out
}
