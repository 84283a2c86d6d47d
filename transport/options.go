package transport

import (
	"time"

	"dario.cat/mergo"
)

// DialOptions configures a conversation, carrying both the ambient
// transport-level knobs (timeouts, activity reporting) and a handful of
// per-conversation behaviors: ThinPacks and per-service SSH command paths.
type DialOptions struct {
	// ThinPacks enables requesting the thin-pack capability on fetch.
	// Defaults to true.
	ThinPacks *bool

	// ReportActivity, if set, is invoked on every physical pkt-line read
	// and write. It must be reentrant-safe;
	// it is only ever called from the owning conversation's goroutine.
	ReportActivity func(payload []byte, write bool)

	// SSHCommandPaths overrides the remote command name per service. When
	// absent for a service, the default "git-<service>" is used.
	SSHCommandPaths map[Service]string

	// ProxyURL, if set, routes the SSH TCP dial through a SOCKS proxy.
	ProxyURL string

	// ConnectTimeout bounds TCP connection establishment for the git://
	// transport; the SSH transport does not apply it. The core itself
	// imposes no timeouts; this is purely a convenience the caller may
	// leave zero to disable.
	ConnectTimeout time.Duration
}

// defaultDialOptions mirrors the zero-value contract: ThinPacks true,
// everything else left to the transport's own defaults.
func defaultDialOptions() DialOptions {
	t := true
	return DialOptions{ThinPacks: &t}
}

// withDefaults merges opts over defaultDialOptions using a struct merge
// (rather than hand-rolled nil checks) so new fields only need a zero
// value decided once.
func withDefaults(opts DialOptions) (DialOptions, error) {
	merged := defaultDialOptions()
	if err := mergo.Merge(&merged, opts, mergo.WithOverride); err != nil {
		return DialOptions{}, err
	}
	return merged, nil
}

func (o DialOptions) thinPacks() bool {
	return o.ThinPacks == nil || *o.ThinPacks
}

// SSHCommandPath returns the remote command name for service, applying
// the SSHCommandPaths override when present. Exported so the ssh
// subpackage can build the remote command line without duplicating the
// default-naming rule.
func (o DialOptions) SSHCommandPath(service Service) string {
	if p, ok := o.SSHCommandPaths[service]; ok && p != "" {
		return p
	}
	return "git-" + service.String()
}
