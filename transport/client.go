package transport

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dish59742/gitwire/pktline"
	"github.com/dish59742/gitwire/protocol/capability"
)

// ZeroID is the distinguished object identifier denoting "absent".
const ZeroID = "0000000000000000000000000000000000000000"

// RefMap is a ref name -> object id mapping.
type RefMap map[string]string

// Advertisement is the parsed first phase of any conversation: the
// server's refs (in the order advertised) and its capability set.
type Advertisement struct {
	Refs         RefMap
	Order        []string
	Capabilities *capability.List
}

// GitClient wraps an already-opened conn and provides the ref
// advertisement read that FetchPack and SendPack share.
type GitClient struct {
	c *conn
}

func newGitClient(c *conn) *GitClient {
	return &GitClient{c: c}
}

// readAdvertisement consumes pkt-lines up to and including the
// terminating flush, extracting capabilities from the first line and
// detecting a server-side refusal.
func (g *GitClient) readAdvertisement() (*Advertisement, error) {
	adv := &Advertisement{Refs: RefMap{}}

	first := true
	for {
		payload, err := g.c.reader.ReadPacket()
		if err != nil {
			return nil, &TransportError{Op: "read advertisement", Err: err}
		}
		if pktline.IsFlush(payload) {
			return adv, nil
		}

		line := payload
		if first {
			var rest []byte
			var err error
			rest, adv.Capabilities, err = capability.Extract(line)
			if err != nil {
				return nil, err
			}
			line = rest
			first = false
		}

		id, ref, ok := splitRefLine(line)
		if !ok {
			return nil, fmt.Errorf("%w: malformed ref advertisement line %q", pktline.ErrProtocol, line)
		}
		if id == "ERR" {
			return nil, &ServerRefusedError{Reason: ref}
		}
		adv.Refs[ref] = id
		adv.Order = append(adv.Order, ref)
	}
}

// splitRefLine parses "<id> <ref>\n" (trailing newline optional).
func splitRefLine(line []byte) (id, ref string, ok bool) {
	s := strings.TrimRight(string(line), "\n")
	id, ref, found := strings.Cut(s, " ")
	if !found {
		return "", "", false
	}
	return id, ref, true
}

// wantedCapabilities returns the client's full requested set for a
// service, before intersection with what the server advertised.
func wantedCapabilities(service Service, opts DialOptions) *capability.List {
	l := capability.NewList()
	_ = l.Add(capability.OFSDelta)
	_ = l.Add(capability.SideBand64k)
	switch service {
	case UploadPackService:
		_ = l.Add(capability.MultiACK)
		if opts.thinPacks() {
			_ = l.Add(capability.ThinPack)
		}
	case ReceivePackService:
		_ = l.Add(capability.ReportStatus)
	}
	return l
}

// readLineASCII trims the trailing newline from a pkt-line payload that was
// already read, for the plain-text negotiation lines (ACK/NAK).
func readLineASCII(payload []byte) string {
	return string(bytes.TrimRight(payload, "\n"))
}
