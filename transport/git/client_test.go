package git

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dish59742/gitwire/pktline"
	"github.com/dish59742/gitwire/transport"
)

func TestCommandAnnounce(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)

	accepted := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		defer conn.Close()
		line, err := pktline.ReadPacket(conn)
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- line
	}()

	r := &runner{}
	ep := &transport.Endpoint{Host: "127.0.0.1", Port: addr.Port, Path: "/repo.git"}
	cmd, err := r.Command(transport.UploadPackService, ep, transport.DialOptions{})
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	defer cmd.Close()

	got := <-accepted
	require.Equal(t, "git-upload-pack /repo.git\x00host=127.0.0.1\x00", string(got))
}

func TestCommandAnnounceStripsTildeSlash(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.Addr().(*net.TCPAddr)

	accepted := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		defer conn.Close()
		line, err := pktline.ReadPacket(conn)
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- line
	}()

	r := &runner{}
	ep := &transport.Endpoint{Host: "127.0.0.1", Port: addr.Port, Path: "/~alice/repo.git"}
	cmd, err := r.Command(transport.ReceivePackService, ep, transport.DialOptions{})
	require.NoError(t, err)
	require.NoError(t, cmd.Start())
	defer cmd.Close()

	got := <-accepted
	require.Equal(t, "git-receive-pack ~alice/repo.git\x00host=127.0.0.1\x00", string(got))
}

func TestCommandDefaultPort(t *testing.T) {
	r := &runner{}
	ep := &transport.Endpoint{Host: "example.com", Path: "/repo.git"}
	c, err := r.Command(transport.UploadPackService, ep, transport.DialOptions{})
	require.NoError(t, err)
	require.Equal(t, defaultPort, c.(*command).port)
}
