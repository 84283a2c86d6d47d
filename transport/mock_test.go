package transport

import (
	"bytes"
	"io"

	"github.com/dish59742/gitwire/internal/ioutil"
)

// mockCommand is a Command whose "remote" is a canned byte buffer, letting
// conversation tests drive FetchPack/SendPack without a real transport.
type mockCommand struct {
	stdout *bytes.Buffer
	stdin  bytes.Buffer

	// alwaysReady makes CanRead report true, for tests exercising the
	// interleaved-ACK branch of fetchHaveLoop. Safe for an in-memory
	// buffer: there's no blocking read to guard against.
	alwaysReady bool
}

func (c *mockCommand) Start() error { return nil }

func (c *mockCommand) StdinPipe() (io.WriteCloser, error) {
	return ioutil.WriteNopCloser(&c.stdin), nil
}

func (c *mockCommand) StdoutPipe() (io.Reader, error) {
	return c.stdout, nil
}

func (c *mockCommand) StderrPipe() (io.Reader, error) { return nil, nil }

func (c *mockCommand) CanRead() bool { return c.alwaysReady }

func (c *mockCommand) Close() error { return nil }

type mockRunner struct {
	cmd *mockCommand
}

func (r *mockRunner) Command(service Service, ep *Endpoint, opts DialOptions) (Command, error) {
	return r.cmd, nil
}

// dialMock wires a mockRunner under a throwaway scheme and returns an
// Endpoint routed to it, bypassing the real registry/transport packages.
func dialMock(serverBytes []byte) (*Endpoint, *mockCommand) {
	return dialMockWith(&mockCommand{stdout: bytes.NewBuffer(serverBytes)})
}

// dialMockReady is dialMock, but CanRead reports true, so a test can
// exercise read-interleaved negotiation loops instead of the write-only
// path every other mock-backed test takes.
func dialMockReady(serverBytes []byte) (*Endpoint, *mockCommand) {
	return dialMockWith(&mockCommand{stdout: bytes.NewBuffer(serverBytes), alwaysReady: true})
}

func dialMockWith(cmd *mockCommand) (*Endpoint, *mockCommand) {
	scheme := "mock-test"
	Register(scheme, &mockRunner{cmd: cmd})
	return &Endpoint{Scheme: scheme, Path: "/repo.git"}, cmd
}
