package ssh

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dish59742/gitwire/transport"
)

type fakeSSHConfig map[string]map[string]string

func (f fakeSSHConfig) Get(alias, key string) string {
	return f[alias][key]
}

func TestResolveHostWithPortFromEndpoint(t *testing.T) {
	old := DefaultSSHConfig
	DefaultSSHConfig = nil
	defer func() { DefaultSSHConfig = old }()

	c := &command{ep: &transport.Endpoint{Host: "example.com"}}
	require.Equal(t, "example.com:22", c.resolveHostWithPort())

	c = &command{ep: &transport.Endpoint{Host: "example.com", Port: 2222}}
	require.Equal(t, "example.com:2222", c.resolveHostWithPort())
}

func TestResolveHostWithPortFromSSHConfig(t *testing.T) {
	old := DefaultSSHConfig
	DefaultSSHConfig = fakeSSHConfig{
		"myhost": {"Hostname": "real.example.com", "Port": "2200"},
	}
	defer func() { DefaultSSHConfig = old }()

	c := &command{ep: &transport.Endpoint{Host: "myhost"}}
	require.Equal(t, "real.example.com:2200", c.resolveHostWithPort())
}

func TestResolveUserPrecedence(t *testing.T) {
	old := DefaultSSHConfig
	defer func() { DefaultSSHConfig = old }()

	DefaultSSHConfig = fakeSSHConfig{"host": {"User": "configured"}}
	c := &command{ep: &transport.Endpoint{Host: "host", User: "explicit"}}
	require.Equal(t, "explicit", c.resolveUser(), "endpoint-supplied user wins over ssh_config")

	c = &command{ep: &transport.Endpoint{Host: "host"}}
	require.Equal(t, "configured", c.resolveUser(), "ssh_config is consulted when the endpoint has no user")

	DefaultSSHConfig = nil
	c = &command{ep: &transport.Endpoint{Host: "host"}}
	require.NotEmpty(t, c.resolveUser(), "falls back to the local user or \"git\"")
}

func TestParseProxyURL(t *testing.T) {
	u, err := parseProxyURL("socks5://127.0.0.1:1080")
	require.NoError(t, err)
	require.Equal(t, &url.URL{Scheme: "socks5", Host: "127.0.0.1:1080"}, u)
}
