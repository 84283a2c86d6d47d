package ssh

import (
	"fmt"
	"io"
	"net"
	"testing"

	socks5 "github.com/armon/go-socks5"
	"github.com/stretchr/testify/require"
)

// TestDialThroughSOCKSProxy routes the connection this package opens for
// an SSH endpoint through a real SOCKS5 server, exercising opts.ProxyURL.
func TestDialThroughSOCKSProxy(t *testing.T) {
	target, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer target.Close()

	targetAddr := target.Addr().(*net.TCPAddr)
	go func() {
		conn, err := target.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		io.Copy(conn, conn)
	}()

	socksConf := &socks5.Config{}
	socksServer, err := socks5.New(socksConf)
	require.NoError(t, err)

	socksLn, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer socksLn.Close()
	go socksServer.Serve(socksLn)

	socksAddr := socksLn.Addr().(*net.TCPAddr)
	proxyURL := fmt.Sprintf("socks5://127.0.0.1:%d", socksAddr.Port)

	conn, err := dial(fmt.Sprintf("127.0.0.1:%d", targetAddr.Port), proxyURL)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = io.ReadFull(conn, buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf))
}
