package cache

import "github.com/matzehuels/orrery/pkg/celestial"

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// Servers sharing one Redis database use it to keep their layouts apart,
// and invalidation through the scoped prefixes only touches their own keys.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "staging:")
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

// LayoutKey generates a prefixed layout key.
func (k *ScopedKeyer) LayoutKey(mode string, objects []celestial.Object, fingerprint string) string {
	return k.prefix + k.inner.LayoutKey(mode, objects, fingerprint)
}

// ModePrefix returns the prefixed per-mode prefix.
func (k *ScopedKeyer) ModePrefix(mode string) string {
	return k.prefix + k.inner.ModePrefix(mode)
}

// Prefix returns the prefixed layout prefix.
func (k *ScopedKeyer) Prefix() string {
	return k.prefix + k.inner.Prefix()
}
