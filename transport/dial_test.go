package transport

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want *Endpoint
	}{
		{"tcp with port", "git://host:9418/repo", &Endpoint{Scheme: "git", Host: "host", Port: 9418, Path: "/repo"}},
		{"tcp default port", "git://host/repo", &Endpoint{Scheme: "git", Host: "host", Port: defaultGitPort, Path: "/repo"}},
		{"git+ssh with user", "git+ssh://u@h/r", &Endpoint{Scheme: "ssh", User: "u", Host: "h", Path: "/r"}},
		{"scp-like", "u@h:p", &Endpoint{Scheme: "ssh", User: "u", Host: "h", Path: "p"}},
		{"local path", "/local/repo", &Endpoint{Path: "/local/repo"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseLocation(c.in)
			require.NoError(t, err)
			require.Equal(t, c.want, got)
		})
	}
}

func TestParseLocationUnknownScheme(t *testing.T) {
	_, err := ParseLocation("ftp://x")
	require.Error(t, err)
	var unknown *UnknownSchemeError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, "ftp", unknown.Scheme)
}
