package transport

import (
	"io"
	"syscall"

	"github.com/dish59742/gitwire/internal/pollread"
	"github.com/dish59742/gitwire/internal/trace"
	"github.com/dish59742/gitwire/pktline"
)

// conn binds a Command's stdio to a pkt-line Reader/Writer pair, wiring the
// caller's ReportActivity hook into both and exposing the readiness probe
// and teardown in one place, so FetchPack/SendPack never touch the Command
// directly.
type conn struct {
	cmd    Command
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader

	reader *pktline.Reader
	writer *pktline.Writer
}

func newConn(cmd Command, opts DialOptions) (*conn, error) {
	trace.Transport.Print("starting command")
	if err := cmd.Start(); err != nil {
		return nil, &TransportError{Op: "start", Err: err}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		cmd.Close()
		return nil, &TransportError{Op: "stdin", Err: err}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cmd.Close()
		return nil, &TransportError{Op: "stdout", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cmd.Close()
		return nil, &TransportError{Op: "stderr", Err: err}
	}

	c := &conn{cmd: cmd, stdin: stdin, stdout: stdout, stderr: stderr}
	c.reader = pktline.NewReader(stdout)
	c.writer = pktline.NewWriter(stdin)
	c.reader.OnRead(func(payload []byte, flush bool) {
		if flush {
			trace.Packet.Print("read flush")
		} else {
			trace.Packet.Printf("read %d bytes", len(payload))
		}
		if opts.ReportActivity != nil {
			opts.ReportActivity(payload, false)
		}
	})
	c.writer.OnWrite(func(payload []byte, flush bool) {
		if flush {
			trace.Packet.Print("wrote flush")
		} else {
			trace.Packet.Printf("wrote %d bytes", len(payload))
		}
		if opts.ReportActivity != nil {
			opts.ReportActivity(payload, true)
		}
	})
	return c, nil
}

// canRead reports whether the remote has data waiting without blocking.
// It asks the Command's own probe first; when that reports false and the
// stdout stream is a syscall.Conn (a TCP socket or a subprocess pipe), it
// polls that descriptor via pollread. Any other stdout stream reports false.
func (c *conn) canRead() bool {
	if c.cmd.CanRead() {
		return true
	}
	if sc, ok := c.stdout.(syscall.Conn); ok {
		return pollread.ReadyConn(sc)
	}
	return false
}

// stderrText drains whatever diagnostic output the remote produced, best
// effort, for inclusion in a TransportError.
func (c *conn) stderrText() string {
	if c.stderr == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(c.stderr, 64<<10))
	return string(b)
}

func (c *conn) close() error {
	trace.Transport.Print("closing command")
	return c.cmd.Close()
}
