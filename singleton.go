package tolgee

import "sync/atomic"

// defaultClient is the process-wide convenience handle. Prefer passing a
// *Client explicitly; this exists for platforms where threading a handle
// through every call site is impractical.
var defaultClient atomic.Pointer[Client]

// SetDefault installs client as the process-wide default. Without force the
// pointer is set at most once (compare-and-swap against nil); the return
// value reports whether the install took effect.
func SetDefault(client *Client, force bool) bool {
	if client == nil {
		return false
	}
	if force {
		defaultClient.Store(client)
		return true
	}
	return defaultClient.CompareAndSwap(nil, client)
}

// Default returns the installed default client, or nil if none was set.
func Default() *Client {
	return defaultClient.Load()
}
