// Package giturl recognizes the two location syntaxes a dispatch layer
// must tell apart: scheme-prefixed URLs and SCP-like "[user@]host:path"
// shorthand.
package giturl

import "regexp"

var (
	isSchemeRegExp  = regexp.MustCompile(`^[^:]+://`)
	scpLikeURLRegExp = regexp.MustCompile(`^(?:(?P<user>[^@]+)@)?(?P<host>[^:\s]+):(?:(?P<port>[0-9]{1,5})(?:/|:))?(?P<path>[^\\].*)$`)
)

// MatchesScheme reports whether url has a "scheme://" prefix.
func MatchesScheme(url string) bool {
	return isSchemeRegExp.MatchString(url)
}

// MatchesScpLike reports whether url matches the "[user@]host:path" shorthand.
func MatchesScpLike(url string) bool {
	return scpLikeURLRegExp.MatchString(url)
}

// FindScpLikeComponents splits an SCP-like URL into its user, host, port
// and path parts; port is "" when absent.
func FindScpLikeComponents(url string) (user, host, port, path string) {
	m := scpLikeURLRegExp.FindStringSubmatch(url)
	return m[1], m[2], m[3], m[4]
}

// IsLocalEndpoint reports whether url names a local path rather than a
// scheme-prefixed or SCP-like remote.
func IsLocalEndpoint(url string) bool {
	return !MatchesScheme(url) && !MatchesScpLike(url)
}
