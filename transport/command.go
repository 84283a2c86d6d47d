package transport

import (
	"io"
	"sync"
)

// Command is the process- or socket-level handle each concrete transport
// implements: start the remote service, expose its stdio, and allow an
// advisory non-blocking readability check.
type Command interface {
	// Start announces/launches the remote service. For TCP this sends the
	// announce pkt-line; for SSH/local it starts the child process.
	Start() error

	StdinPipe() (io.WriteCloser, error)
	StdoutPipe() (io.Reader, error)
	// StderrPipe may return (nil, nil) when the transport has no
	// dedicated error channel (the git:// protocol has none).
	StderrPipe() (io.Reader, error)

	// CanRead is the advisory can_read probe: it must never block, and a
	// false return is always safe.
	CanRead() bool

	Close() error
}

// Runner constructs a Command bound to an endpoint and service, for a
// specific transport scheme.
type Runner interface {
	Command(service Service, ep *Endpoint, opts DialOptions) (Command, error)
}

var (
	registryMu sync.Mutex
	registry   = map[string]Runner{}
)

// Register installs a Runner for a scheme name, so the dispatch logic in
// dial can construct the right transport without this package
// importing the concrete transport packages (which import this one).
// Concrete transports call this from an init() func, mirroring the
// teacher's plumbing/transport/registry.go.
func Register(scheme string, r Runner) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[scheme] = r
}

func lookup(scheme string) (Runner, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	r, ok := registry[scheme]
	return r, ok
}
