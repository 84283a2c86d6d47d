package transport

import (
	"fmt"
	"io"
	"sort"

	"github.com/dish59742/gitwire/internal/ioutil"
	"github.com/dish59742/gitwire/internal/trace"
	"github.com/dish59742/gitwire/pktline"
	"github.com/dish59742/gitwire/protocol/capability"
	"github.com/dish59742/gitwire/protocol/reportstatus"
	"github.com/dish59742/gitwire/protocol/sideband"
)

// PushRequest carries the collaborator callbacks that drive one
// receive-pack conversation.
type PushRequest struct {
	DetermineWants DeterminePushWantsFunc
	GeneratePack   GeneratePackFunc
	Progress       ProgressFunc
}

// refUpdate is one "<old> <new> <ref>" line.
type refUpdate struct {
	ref, old, new string
}

// computeRefUpdates returns the symmetric change set over old ∪ new,
// sorted by ref name for a deterministic emission order — the wire
// format does not mandate an order, so this package picks one rather
// than relying on Go's randomized map iteration.
func computeRefUpdates(old, new RefMap) []refUpdate {
	names := make(map[string]struct{}, len(old)+len(new))
	for ref := range old {
		names[ref] = struct{}{}
	}
	for ref := range new {
		names[ref] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for ref := range names {
		sorted = append(sorted, ref)
	}
	sort.Strings(sorted)

	var updates []refUpdate
	for _, ref := range sorted {
		oldID, ok := old[ref]
		if !ok {
			oldID = ZeroID
		}
		newID, ok := new[ref]
		if !ok {
			newID = ZeroID
		}
		if oldID != newID {
			trace.Negotiation.Printf("ref update %s: %s -> %s", ref, oldID, newID)
			updates = append(updates, refUpdate{ref: ref, old: oldID, new: newID})
		}
	}
	return updates
}

// wantedObjects returns the non-zero new ids not already present among
// old's values, i.e. the objects the pack must actually carry.
func wantedObjects(updates []refUpdate, old RefMap) []string {
	present := make(map[string]struct{}, len(old))
	for _, id := range old {
		present[id] = struct{}{}
	}

	var want []string
	seen := make(map[string]struct{})
	for _, u := range updates {
		if u.new == ZeroID {
			continue
		}
		if _, ok := present[u.new]; ok {
			continue
		}
		if _, ok := seen[u.new]; ok {
			continue
		}
		seen[u.new] = struct{}{}
		want = append(want, u.new)
	}
	return want
}

func haveObjects(old RefMap) []string {
	have := make([]string, 0, len(old))
	for _, id := range old {
		if id != ZeroID {
			have = append(have, id)
		}
	}
	return have
}

type packRawWriter struct{ w *pktline.Writer }

func (p packRawWriter) Write(b []byte) (int, error) {
	return p.w.WriteRaw(b)
}

// SendPack runs the receive-pack conversation against ep: read the ref
// advertisement, diff it against req.DetermineWants's desired state,
// push the resulting updates and pack, and read back the status report.
func SendPack(ep *Endpoint, opts DialOptions, req PushRequest) (refs RefMap, err error) {
	c, opts, err := dial(ReceivePackService, ep, opts)
	if err != nil {
		return nil, err
	}
	defer ioutil.CheckClose(ioutil.CloserFunc(c.close), &err)

	client := newGitClient(c)
	adv, err := client.readAdvertisement()
	if err != nil {
		return nil, err
	}

	desired := req.DetermineWants(adv.Refs)
	if len(desired) == 0 {
		if err := c.writer.WriteFlush(); err != nil {
			return nil, &TransportError{Op: "write flush", Err: err}
		}
		return RefMap{}, nil
	}

	negotiated := capability.Intersect(wantedCapabilities(ReceivePackService, opts), adv.Capabilities)

	updates := computeRefUpdates(adv.Refs, desired)
	if len(updates) == 0 {
		if err := c.writer.WriteFlush(); err != nil {
			return nil, &TransportError{Op: "write flush", Err: err}
		}
		return adv.Refs, nil
	}

	for i, u := range updates {
		line := fmt.Sprintf("%s %s %s", u.old, u.new, u.ref)
		if i == 0 {
			line += "\x00" + negotiated.String()
		}
		if err := c.writer.WritePacket([]byte(line)); err != nil {
			return nil, &TransportError{Op: "write ref update", Err: err}
		}
	}
	if err := c.writer.WriteFlush(); err != nil {
		return nil, &TransportError{Op: "write flush", Err: err}
	}

	want := wantedObjects(updates, adv.Refs)
	if len(want) > 0 {
		pack, err := req.GeneratePack(haveObjects(adv.Refs), want)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(packRawWriter{c.writer}, pack); err != nil {
			return nil, &TransportError{Op: "write pack", Err: err}
		}
	}

	if err := readPushResponse(c, negotiated, req.Progress); err != nil {
		return nil, err
	}

	return desired, nil
}

// readPushResponse consumes the server's reply: a report-status (inside
// side-band channel 1, or as a bare pkt-line sequence) when negotiated,
// otherwise success is inferred from a clean read to flush/EOF. Either
// way, the connection must then be at end-of-stream; any further bytes
// are a protocol violation.
func readPushResponse(c *conn, negotiated *capability.List, progress ProgressFunc) error {
	if err := readPushStatus(c, negotiated, progress); err != nil {
		return err
	}
	return drainToEOF(c)
}

func readPushStatus(c *conn, negotiated *capability.List, progress ProgressFunc) error {
	if !negotiated.Supports(capability.ReportStatus) {
		if negotiated.Supports(capability.SideBand64k) {
			scanner := c.reader.Scanner()
			return sideband.Demux(scanner, map[sideband.Channel]sideband.Handler{
				sideband.PackData: sideband.Discard,
				sideband.Progress: func(p []byte) error {
					if progress != nil {
						progress(p)
					}
					return nil
				},
			})
		}
		return nil
	}

	parser := reportstatus.NewParser()

	if negotiated.Supports(capability.SideBand64k) {
		scanner := c.reader.Scanner()
		err := sideband.Demux(scanner, map[sideband.Channel]sideband.Handler{
			sideband.PackData: func(p []byte) error { return parser.Feed(p) },
			sideband.Progress: func(p []byte) error {
				if progress != nil {
					progress(p)
				}
				return nil
			},
		})
		if err != nil {
			return err
		}
		parser.Flush()
	} else {
		for {
			payload, err := c.reader.ReadPacket()
			if err != nil {
				return &TransportError{Op: "read report-status", Err: err}
			}
			if pktline.IsFlush(payload) {
				parser.Flush()
				break
			}
			if err := parser.Feed(payload); err != nil {
				return err
			}
		}
	}

	return parser.Finalize()
}

// drainToEOF reads any bytes left on the connection after the response
// has been fully parsed. A well-behaved server closes the stream at this
// point; anything else read here is trailing garbage on the wire.
func drainToEOF(c *conn) error {
	var buf [1]byte
	n, err := c.reader.Underlying().Read(buf[:])
	if n > 0 {
		return fmt.Errorf("%w: trailing bytes after push response", ProtocolError)
	}
	if err != nil && err != io.EOF {
		return &TransportError{Op: "drain trailing bytes", Err: err}
	}
	return nil
}
