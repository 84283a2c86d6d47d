package transport

import (
	"fmt"

	"github.com/dish59742/gitwire/pktline"
	"github.com/dish59742/gitwire/protocol/reportstatus"
)

// ProtocolError re-exports the framing-level sentinel so callers never
// need to import pktline directly to check errors.Is(err, ProtocolError).
var ProtocolError = pktline.ErrProtocol

// ServerRefusedError is raised when the first advertised line is
// "ERR <reason>".
type ServerRefusedError struct {
	Reason string
}

func (e *ServerRefusedError) Error() string {
	return fmt.Sprintf("transport: server refused: %s", e.Reason)
}

// PackRejectedError is raised when the server reported a non-ok unpack
// status on push. It is a type alias of the reportstatus package's error so
// callers can errors.As against either package without duplication.
type PackRejectedError = reportstatus.PackRejectedError

// RefUpdatesRejectedError is raised when the pack was accepted but one or
// more ref updates were rejected.
type RefUpdatesRejectedError = reportstatus.RefUpdatesRejectedError

// UnknownSchemeError is raised when URL dispatch cannot classify a
// location string.
type UnknownSchemeError struct {
	Scheme string
}

func (e *UnknownSchemeError) Error() string {
	return fmt.Sprintf("transport: unknown scheme %q", e.Scheme)
}

// TransportError wraps a connect/resolve/spawn failure, carrying the
// platform diagnostic verbatim.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
