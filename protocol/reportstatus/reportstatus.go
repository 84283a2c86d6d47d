// Package reportstatus implements the receive-pack status report parser
// it consumes a stream of pkt-line payloads plus an explicit
// flush signal, classifies per-ref outcomes, and raises structured errors.
package reportstatus

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dish59742/gitwire/pktline"
)

type state int

const (
	awaitPackStatus state = iota
	awaitRefStatus
	done
)

// Outcome is the per-ref result of a push, "ok" or the ng reason.
type Outcome struct {
	OK     bool
	Reason string
}

// Parser drives the AWAIT_PACK_STATUS -> AWAIT_REF_STATUS -> DONE state
// machine described by the report-status wire format.
type Parser struct {
	state      state
	packStatus string
	refs       []string // refs in the order the server reported them
	outcomes   map[string]Outcome
}

// NewParser returns a fresh Parser in AWAIT_PACK_STATUS.
func NewParser() *Parser {
	return &Parser{outcomes: make(map[string]Outcome)}
}

// Feed processes one pkt-line payload. Calling Feed after Flush, or after
// DONE, is a fatal protocol error.
func (p *Parser) Feed(payload []byte) error {
	if p.state == done {
		return fmt.Errorf("%w: report-status payload received after flush", pktline.ErrProtocol)
	}

	line := string(bytes.TrimRight(payload, "\n"))

	switch p.state {
	case awaitPackStatus:
		p.packStatus = line
		p.state = awaitRefStatus
		return nil

	case awaitRefStatus:
		p.feedRefStatus(line)
		return nil
	}

	return nil
}

func (p *Parser) feedRefStatus(line string) {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) < 2 {
		// malformed lines (no space) are skipped.
		return
	}

	switch fields[0] {
	case "ok":
		ref := fields[1]
		p.refs = append(p.refs, ref)
		p.outcomes[ref] = Outcome{OK: true}
	case "ng":
		rest := strings.SplitN(fields[1], " ", 2)
		ref := rest[0]
		reason := ""
		if len(rest) == 2 {
			reason = rest[1]
		}
		p.refs = append(p.refs, ref)
		p.outcomes[ref] = Outcome{OK: false, Reason: reason}
	}
}

// Flush signals the end of the status report, transitioning to DONE.
func (p *Parser) Flush() {
	p.state = done
}

// PackRejectedError is raised by Finalize when the server reported a
// non-"ok" unpack status.
type PackRejectedError struct {
	Status string
}

func (e *PackRejectedError) Error() string {
	return fmt.Sprintf("reportstatus: pack rejected: %s", e.Status)
}

// RefUpdatesRejectedError is raised by Finalize when the pack was accepted
// but one or more ref updates were rejected. Failures carries exactly the
// refs that did not succeed; the ok-set is excluded.
type RefUpdatesRejectedError struct {
	Failures map[string]string // ref -> reason
}

func (e *RefUpdatesRejectedError) Error() string {
	refs := make([]string, 0, len(e.Failures))
	for ref := range e.Failures {
		refs = append(refs, ref)
	}
	return fmt.Sprintf("reportstatus: ref updates rejected: %s", strings.Join(refs, ", "))
}

// Finalize checks the accumulated report and returns a structured error if
// the pack was rejected or any ref update failed.
func (p *Parser) Finalize() error {
	if p.packStatus != "" && p.packStatus != "unpack ok" {
		return &PackRejectedError{Status: strings.TrimPrefix(p.packStatus, "unpack ")}
	}

	failures := make(map[string]string)
	for _, ref := range p.refs {
		if o := p.outcomes[ref]; !o.OK {
			failures[ref] = o.Reason
		}
	}
	if len(failures) > 0 {
		return &RefUpdatesRejectedError{Failures: failures}
	}
	return nil
}

// Outcomes returns the full per-ref outcome map gathered so far.
func (p *Parser) Outcomes() map[string]Outcome {
	return p.outcomes
}
