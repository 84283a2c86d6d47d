package transport

import "io"

// DetermineWantsFunc is the caller's ref-selection policy for fetch: given
// the advertised refs, return the object ids to request. An empty result
// makes FetchPack a no-op beyond the initial flush.
type DetermineWantsFunc func(refs RefMap) []string

// GraphWalker is the caller's oracle over the local commit graph, used to
// short-circuit fetch negotiation once a common ancestor is found.
type GraphWalker interface {
	// Next yields the next locally-known commit id to offer as a "have",
	// or ok=false when the walker has nothing further to offer.
	Next() (id string, ok bool)
	// Ack is invoked when the server confirms it already has id.
	Ack(id string)
}

// PackSink receives raw pack bytes, in order, zero or more times.
type PackSink func(p []byte) error

// ProgressFunc receives best-effort progress/diagnostic bytes, which may
// be partial lines.
type ProgressFunc func(p []byte)

// DeterminePushWantsFunc is the caller's ref-update policy for push:
// given the advertised refs, return the desired post-push ref state.
type DeterminePushWantsFunc func(refs RefMap) RefMap

// GeneratePackFunc produces the pack byte stream for a push, given the
// object ids the server already has and the ids it needs. Encoding the
// objects themselves is outside this package's concern; the driver only
// copies the returned stream onto the wire.
type GeneratePackFunc func(have, want []string) (io.Reader, error)
