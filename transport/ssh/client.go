// Package ssh implements the SSH transport: a child command reached by
// spawning an SSH session and running the remote upload-pack/receive-pack
// binary, driven through golang.org/x/crypto/ssh rather than the "ssh"
// CLI binary so host-key handling, agent auth, and proxying compose as
// library calls.
package ssh

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os/user"
	"strconv"

	"github.com/kevinburke/ssh_config"
	"github.com/skeema/knownhosts"
	sshagent "github.com/xanzy/ssh-agent"
	"golang.org/x/crypto/ssh"
	"golang.org/x/net/proxy"

	"github.com/dish59742/gitwire/internal/trace"
	"github.com/dish59742/gitwire/transport"
)

const defaultPort = 22

func init() {
	transport.Register("ssh", &runner{})
}

// DefaultSSHConfig is consulted for per-host Hostname/Port/User overrides,
// matching the system's ssh_config files. Nil disables the lookup.
var DefaultSSHConfig sshConfigReader = ssh_config.DefaultUserSettings

type sshConfigReader interface {
	Get(alias, key string) string
}

type runner struct {
	// Config, if set, is used instead of the agent-based default; nil uses
	// the agent-based default. When the config's HostKeyCallback is nil,
	// Start sets it (and HostKeyAlgorithms) from the known_hosts file.
	Config *ssh.ClientConfig
}

func (r *runner) Command(service transport.Service, ep *transport.Endpoint, opts transport.DialOptions) (transport.Command, error) {
	return &command{service: service, ep: ep, opts: opts, config: r.Config}, nil
}

type command struct {
	service transport.Service
	ep      *transport.Endpoint
	opts    transport.DialOptions
	config  *ssh.ClientConfig

	client  *ssh.Client
	session *ssh.Session

	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
}

func (c *command) Start() error {
	hostWithPort := c.resolveHostWithPort()
	username := c.resolveUser()

	trace.SSH.Printf("resolved %s@%s", username, hostWithPort)

	config := c.config
	if config == nil {
		trace.SSH.Print("using agent-backed auth")
		var err error
		config, err = defaultClientConfig(username)
		if err != nil {
			return err
		}
	}
	if config.HostKeyCallback == nil {
		db, err := newKnownHostsDB()
		if err != nil {
			return err
		}
		config.HostKeyCallback = db.HostKeyCallback()
		config.HostKeyAlgorithms = db.HostKeyAlgorithms(hostWithPort)
	}

	if c.opts.ProxyURL != "" {
		trace.SSH.Printf("dialing %s via proxy %s", hostWithPort, c.opts.ProxyURL)
	} else {
		trace.SSH.Printf("dialing %s", hostWithPort)
	}
	conn, err := dial(hostWithPort, c.opts.ProxyURL)
	if err != nil {
		return err
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, hostWithPort, config)
	if err != nil {
		conn.Close()
		return err
	}
	trace.SSH.Print("handshake complete")
	c.client = ssh.NewClient(sshConn, chans, reqs)

	c.session, err = c.client.NewSession()
	if err != nil {
		c.client.Close()
		return err
	}

	if c.stdin, err = c.session.StdinPipe(); err != nil {
		return err
	}
	if c.stdout, err = c.session.StdoutPipe(); err != nil {
		return err
	}
	if c.stderr, err = c.session.StderrPipe(); err != nil {
		return err
	}

	remoteCmd := fmt.Sprintf("%s '%s'", c.opts.SSHCommandPath(c.service), c.ep.Path)
	return c.session.Start(remoteCmd)
}

func (c *command) StdinPipe() (io.WriteCloser, error) { return c.stdin, nil }
func (c *command) StdoutPipe() (io.Reader, error)     { return c.stdout, nil }
func (c *command) StderrPipe() (io.Reader, error)     { return c.stderr, nil }

// CanRead always reports false. The session's stdout is an SSH channel
// reader with no file descriptor, so the owning conn wrapper cannot poll it
// either, and the probe always reports false for this transport.
func (c *command) CanRead() bool { return false }

func (c *command) Close() error {
	if c.session != nil {
		_ = c.session.Close()
	}
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// resolveHostWithPort applies ssh_config Hostname/Port overrides before
// falling back to the endpoint's own host and the default SSH port.
func (c *command) resolveHostWithPort() string {
	host := c.ep.Host
	port := c.ep.Port

	if DefaultSSHConfig != nil {
		if h := DefaultSSHConfig.Get(c.ep.Host, "Hostname"); h != "" {
			host = h
		}
		if p := DefaultSSHConfig.Get(c.ep.Host, "Port"); p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				port = n
			}
		}
	}
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (c *command) resolveUser() string {
	if c.ep.User != "" {
		return c.ep.User
	}
	if DefaultSSHConfig != nil {
		if u := DefaultSSHConfig.Get(c.ep.Host, "User"); u != "" {
			return u
		}
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "git"
}

// defaultClientConfig builds an agent-backed client config, mirroring the
// zero-configuration case: connect to the running SSH agent over
// SSH_AUTH_SOCK and offer its keys.
func defaultClientConfig(username string) (*ssh.ClientConfig, error) {
	agent, _, err := sshagent.New()
	if err != nil {
		return nil, fmt.Errorf("ssh: connecting to agent: %w", err)
	}
	return &ssh.ClientConfig{
		User: username,
		Auth: []ssh.AuthMethod{ssh.PublicKeysCallback(agent.Signers)},
	}, nil
}

func newKnownHostsDB() (*knownhosts.HostKeyDB, error) {
	return knownhosts.NewDB(defaultKnownHostsPath())
}

func defaultKnownHostsPath() string {
	if home, err := user.Current(); err == nil {
		return home.HomeDir + "/.ssh/known_hosts"
	}
	return ""
}

// dial opens the underlying TCP connection to addr, optionally routed
// through a SOCKS proxy.
func dial(addr, proxyURL string) (net.Conn, error) {
	if proxyURL == "" {
		return net.Dial("tcp", addr)
	}
	u, err := parseProxyURL(proxyURL)
	if err != nil {
		return nil, err
	}
	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, err
	}
	return dialer.Dial("tcp", addr)
}

func parseProxyURL(raw string) (*url.URL, error) {
	return url.Parse(raw)
}
