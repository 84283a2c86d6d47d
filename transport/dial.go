package transport

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/dish59742/gitwire/internal/giturl"
)

const defaultGitPort = 9418

var (
	hasNetLocRegExp    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
	opaqueSchemeRegExp = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*):([^/].*)$`)
)

// ParseLocation classifies a location string into an Endpoint, choosing
// among the TCP, SSH, and local-subprocess transports. It does not
// connect; the result is passed to FetchPack/SendPack, which dial it.
func ParseLocation(location string) (*Endpoint, error) {
	if hasNetLocRegExp.MatchString(location) {
		u, err := url.Parse(location)
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(u.Scheme) {
		case "git":
			host, port := parseHostPort(u.Host)
			if port == 0 {
				port = defaultGitPort
			}
			return &Endpoint{Scheme: "git", Host: host, Port: port, Path: u.Path}, nil

		case "git+ssh":
			user := ""
			if u.User != nil {
				user = u.User.Username()
			}
			host, port := parseHostPort(u.Host)
			return &Endpoint{Scheme: "ssh", User: user, Host: host, Port: port, Path: u.Path}, nil

		default:
			return nil, &UnknownSchemeError{Scheme: u.Scheme}
		}
	}

	if m := opaqueSchemeRegExp.FindStringSubmatch(location); m != nil {
		return &Endpoint{Scheme: "ssh", Host: m[1], Path: m[2]}, nil
	}

	if giturl.MatchesScpLike(location) {
		user, host, portStr, path := giturl.FindScpLikeComponents(location)
		port, _ := strconv.Atoi(portStr)
		return &Endpoint{Scheme: "ssh", User: user, Host: host, Port: port, Path: path}, nil
	}

	return &Endpoint{Path: location}, nil
}

// dial resolves ep's scheme through the registry, constructs a Command,
// and wraps it into a conn ready for a conversation driver.
func dial(service Service, ep *Endpoint, opts DialOptions) (*conn, DialOptions, error) {
	merged, err := withDefaults(opts)
	if err != nil {
		return nil, DialOptions{}, err
	}

	scheme := ep.Scheme
	if scheme == "" {
		scheme = "local"
	}

	runner, ok := lookup(scheme)
	if !ok {
		return nil, DialOptions{}, &UnknownSchemeError{Scheme: scheme}
	}

	cmd, err := runner.Command(service, ep, merged)
	if err != nil {
		return nil, DialOptions{}, &TransportError{Op: "dial", Err: err}
	}

	c, err := newConn(cmd, merged)
	if err != nil {
		return nil, DialOptions{}, err
	}
	return c, merged, nil
}
