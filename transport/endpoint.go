package transport

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Endpoint describes where a repository lives: which transport reaches it,
// and the path/host/user/port needed to connect.
type Endpoint struct {
	// Scheme is "git", "ssh", or "" for a local subprocess endpoint.
	Scheme string
	User   string
	Host   string
	// Port is 0 when unspecified; each transport applies its own default.
	Port int
	// Path is the repository path passed to the remote service.
	Path string
}

// String renders the endpoint back into a location string, primarily for
// diagnostics and tests.
func (e *Endpoint) String() string {
	if e.Scheme == "" {
		return e.Path
	}

	var b strings.Builder
	b.WriteString(e.Scheme)
	b.WriteString("://")
	if e.User != "" {
		b.WriteString(e.User)
		b.WriteByte('@')
	}
	b.WriteString(e.Host)
	if e.Port != 0 {
		fmt.Fprintf(&b, ":%d", e.Port)
	}
	if e.Path != "" && !strings.HasPrefix(e.Path, "/") {
		b.WriteByte('/')
	}
	b.WriteString(e.Path)
	return b.String()
}

// parseHostPort splits "host" or "host:port" into its parts. An empty or
// non-numeric port is left as 0.
func parseHostPort(hostport string) (host string, port int) {
	h, p, err := splitHostPort(hostport)
	if err != nil {
		return hostport, 0
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return h, 0
	}
	return h, n
}

// splitHostPort splits hostport at its last colon. It returns an error when
// hostport has no colon; brackets around an IPv6 literal are not removed.
func splitHostPort(hostport string) (host, port string, err error) {
	if i := strings.LastIndexByte(hostport, ':'); i >= 0 && !strings.Contains(hostport[i+1:], ":") {
		return hostport[:i], hostport[i+1:], nil
	}
	return "", "", fmt.Errorf("transport: no port in address %q", hostport)
}

// parsedURL is a subset of net/url.URL fields for a location string.
// ParseLocation does not use it or parseLocation.
type parsedURL struct {
	scheme   string
	hasHost  bool // true when "//" introduced a network location
	user     string
	host     string
	port     int
	path     string
}

func parseLocation(location string) (*parsedURL, bool) {
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" {
		return nil, false
	}

	p := &parsedURL{
		scheme:  u.Scheme,
		hasHost: u.Host != "",
		path:    u.Path,
	}
	if u.User != nil {
		p.user = u.User.Username()
	}
	if u.Host != "" {
		host := u.Hostname()
		port := u.Port()
		p.host = host
		if port != "" {
			if n, err := strconv.Atoi(port); err == nil {
				p.port = n
			}
		}
	} else {
		// "scheme:opaque" form (RFC 3986 opaque URI) — net/url puts
		// everything after the colon into Opaque, not Path.
		p.path = u.Opaque
		if p.path == "" {
			p.path = u.Path
		}
	}
	return p, true
}
