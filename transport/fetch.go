package transport

import (
	"io"
	"strings"

	"github.com/dish59742/gitwire/internal/ioutil"
	"github.com/dish59742/gitwire/internal/trace"
	"github.com/dish59742/gitwire/protocol/capability"
	"github.com/dish59742/gitwire/protocol/sideband"
)

// FetchRequest carries the collaborator callbacks that drive one
// upload-pack conversation.
type FetchRequest struct {
	DetermineWants DetermineWantsFunc
	// Walker is optional; a nil Walker sends no "have" lines, matching a
	// caller with an empty local graph.
	Walker   GraphWalker
	PackSink PackSink
	Progress ProgressFunc
}

// packSinkWriter adapts a PackSink to io.Writer for the non-side-band
// drain path.
type packSinkWriter struct{ sink PackSink }

func (w packSinkWriter) Write(p []byte) (int, error) {
	if err := w.sink(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// FetchPack runs the upload-pack conversation against ep: read the ref
// advertisement, negotiate wants/haves, and stream the resulting pack
// into req.PackSink.
func FetchPack(ep *Endpoint, opts DialOptions, req FetchRequest) (refs RefMap, err error) {
	c, opts, err := dial(UploadPackService, ep, opts)
	if err != nil {
		return nil, err
	}
	defer ioutil.CheckClose(ioutil.CloserFunc(c.close), &err)

	client := newGitClient(c)
	adv, err := client.readAdvertisement()
	if err != nil {
		return nil, err
	}

	wants := req.DetermineWants(adv.Refs)
	if len(wants) == 0 {
		if err := c.writer.WriteFlush(); err != nil {
			return nil, &TransportError{Op: "write flush", Err: err}
		}
		return adv.Refs, nil
	}

	negotiated := capability.Intersect(wantedCapabilities(UploadPackService, opts), adv.Capabilities)

	for i, id := range wants {
		var err error
		if i == 0 {
			err = c.writer.WritePacketf("want %s %s\n", id, negotiated.String())
		} else {
			err = c.writer.WritePacketf("want %s\n", id)
		}
		if err != nil {
			return nil, &TransportError{Op: "write want", Err: err}
		}
	}
	if err := c.writer.WriteFlush(); err != nil {
		return nil, &TransportError{Op: "write flush", Err: err}
	}

	if req.Walker != nil {
		if err := fetchHaveLoop(c, req.Walker); err != nil {
			return nil, err
		}
	}

	if err := c.writer.WritePacketf("done\n"); err != nil {
		return nil, &TransportError{Op: "write done", Err: err}
	}

	if err := fetchDrainTrailingACKs(c); err != nil {
		return nil, err
	}

	if negotiated.Supports(capability.SideBand64k) {
		scanner := c.reader.Scanner()
		err := sideband.Demux(scanner, map[sideband.Channel]sideband.Handler{
			sideband.PackData: func(p []byte) error { return req.PackSink(p) },
			sideband.Progress: func(p []byte) error {
				if req.Progress != nil {
					req.Progress(p)
				}
				return nil
			},
		})
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := io.Copy(packSinkWriter{req.PackSink}, c.reader.Underlying()); err != nil && err != io.EOF {
			return nil, &TransportError{Op: "drain pack", Err: err}
		}
	}

	return adv.Refs, nil
}

// fetchHaveLoop drains the graph walker, writing one "have" line per id
// and non-blockingly interleaving ACK reads between writes.
func fetchHaveLoop(c *conn, walker GraphWalker) error {
	for {
		id, ok := walker.Next()
		if !ok {
			return nil
		}
		trace.Negotiation.Printf("have %s", id)
		if err := c.writer.WritePacketf("have %s\n", id); err != nil {
			return &TransportError{Op: "write have", Err: err}
		}
		if !c.canRead() {
			continue
		}
		payload, err := c.reader.ReadPacket()
		if err != nil {
			return &TransportError{Op: "read ack", Err: err}
		}
		line := readLineASCII(payload)
		if ackID, continued := parseACK(line); continued {
			trace.Negotiation.Printf("ACK %s continue", ackID)
			walker.Ack(ackID)
		}
	}
}

// fetchDrainTrailingACKs reads terminating negotiation lines after
// "done\n": any "ACK <id> continue" lines keep the loop going; the first
// non-continue line (a bare ACK or NAK) ends negotiation.
func fetchDrainTrailingACKs(c *conn) error {
	for {
		payload, err := c.reader.ReadPacket()
		if err != nil {
			return &TransportError{Op: "read final ack", Err: err}
		}
		line := readLineASCII(payload)
		if _, continued := parseACK(line); continued {
			continue
		}
		return nil
	}
}

// parseACK recognizes "ACK <id>" and "ACK <id> continue" lines.
func parseACK(line string) (id string, continued bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 || fields[0] != "ACK" {
		return "", false
	}
	if len(fields) >= 3 && fields[2] == "continue" {
		return fields[1], true
	}
	return fields[1], false
}
