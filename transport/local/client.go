// Package local implements the default transport: a local child git
// process speaking the service protocol over its standard streams,
// no announce line needed since the command name selects the service.
package local

import (
	"io"
	"os/exec"

	"golang.org/x/sys/execabs"

	"github.com/dish59742/gitwire/transport"
)

func init() {
	transport.Register("local", &runner{})
}

type runner struct{}

func (r *runner) Command(service transport.Service, ep *transport.Endpoint, opts transport.DialOptions) (transport.Command, error) {
	return &command{service: service, path: ep.Path}, nil
}

type command struct {
	service transport.Service
	path    string

	cmd    *execabs.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// Start obtains the child's pipes before spawning it, since os/exec
// requires StdinPipe/StdoutPipe/StderrPipe to be called before Start.
func (c *command) Start() error {
	c.cmd = execabs.Command("git", string(c.service), c.path)

	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := c.cmd.StderrPipe()
	if err != nil {
		return err
	}
	c.stdin, c.stdout, c.stderr = stdin, stdout, stderr

	return c.cmd.Start()
}

func (c *command) StdinPipe() (io.WriteCloser, error) { return c.stdin, nil }
func (c *command) StdoutPipe() (io.Reader, error)     { return c.stdout, nil }
func (c *command) StderrPipe() (io.Reader, error)     { return c.stderr, nil }

// CanRead always reports false; the owning conn wrapper polls the
// stdout pipe's descriptor directly.
func (c *command) CanRead() bool { return false }

func (c *command) Close() error {
	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.cmd == nil || c.cmd.Process == nil {
		return nil
	}
	err := c.cmd.Wait()
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}
