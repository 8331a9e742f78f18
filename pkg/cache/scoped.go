package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis without seeing each other's entries.
//
// Example usage:
//
//	// Entries written by the server
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "server:")
//
//	// Entries written by the CLI
//	cliKeyer := NewDefaultKeyer()
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphKey generates a prefixed key for stitch graph caching.
func (k *ScopedKeyer) GraphKey(source string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(source, opts)
}

// ResultKey generates a prefixed key for relaxed result caching.
func (k *ScopedKeyer) ResultKey(graphHash string, opts ResultKeyOpts) string {
	return k.prefix + k.inner.ResultKey(graphHash, opts)
}
