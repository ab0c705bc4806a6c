package cache

// ScopedKeyer wraps a Keyer with a prefix so several gemlock installations
// can share one Redis or MongoDB cache without seeing each other's entries.
//
// Example usage:
//
//	// Keys for a CI fleet sharing a redis instance
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ci:")
//
//	// Unscoped keys for a developer machine
//	keyer := NewDefaultKeyer()
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

// InfoKey generates a prefixed key for gem metadata.
func (k *ScopedKeyer) InfoKey(registry, gem string) string {
	return k.prefix + k.inner.InfoKey(registry, gem)
}

// GemKey generates a prefixed key for a gem summary.
func (k *ScopedKeyer) GemKey(registry, gem string) string {
	return k.prefix + k.inner.GemKey(registry, gem)
}

// ResolutionKey generates a prefixed key for a resolution result.
func (k *ScopedKeyer) ResolutionKey(opts ResolutionKeyOpts) string {
	return k.prefix + k.inner.ResolutionKey(opts)
}

// Prefix returns the scope prefix, suitable for [Clear].
func (k *ScopedKeyer) Prefix() string {
	return k.prefix
}
