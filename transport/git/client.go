// Package git implements the anonymous git:// transport: a plain TCP
// connection to a dedicated daemon port, announced with a single
// pkt-line carrying the service name and repository path.
package git

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dish59742/gitwire/pktline"
	"github.com/dish59742/gitwire/transport"
)

const defaultPort = 9418

func init() {
	transport.Register("git", &runner{})
}

type runner struct{}

func (r *runner) Command(service transport.Service, ep *transport.Endpoint, opts transport.DialOptions) (transport.Command, error) {
	port := ep.Port
	if port == 0 {
		port = defaultPort
	}
	return &command{service: service, host: ep.Host, port: port, path: ep.Path, timeout: opts.ConnectTimeout}, nil
}

type command struct {
	service transport.Service
	host    string
	port    int
	path    string
	timeout time.Duration

	conn net.Conn
}

func (c *command) Start() error {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))

	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return err
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	c.conn = conn

	path := c.path
	if strings.HasPrefix(path, "/~") {
		path = path[1:]
	}

	announce := fmt.Sprintf("git-%s %s\x00host=%s\x00", c.service, path, c.host)
	if err := pktline.WritePacket(conn, []byte(announce)); err != nil {
		conn.Close()
		return err
	}
	return nil
}

func (c *command) StdinPipe() (io.WriteCloser, error) { return c.conn, nil }
func (c *command) StdoutPipe() (io.Reader, error)     { return c.conn, nil }
func (c *command) StderrPipe() (io.Reader, error)     { return nil, nil }

// CanRead always reports false here; the owning conn wrapper polls the
// connection's file descriptor directly via syscall.Conn instead.
func (c *command) CanRead() bool { return false }

func (c *command) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
