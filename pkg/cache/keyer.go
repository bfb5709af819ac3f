package cache

import "github.com/matzehuels/orrery/pkg/celestial"

// layoutPrefix namespaces every layout key.
const layoutPrefix = "layout:"

// Keyer derives cache keys. Keys for one view mode share a common prefix so
// they can be invalidated together.
type Keyer interface {
	// LayoutKey identifies a layout by the object set in input order, the
	// view mode and the configuration fingerprint.
	LayoutKey(mode string, objects []celestial.Object, fingerprint string) string

	// ModePrefix is the prefix shared by every layout key of mode.
	ModePrefix(mode string) string

	// Prefix is the prefix shared by every layout key.
	Prefix() string
}

// DefaultKeyer produces keys of the form layout:<mode>:<sha256>.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(mode string, objects []celestial.Object, fingerprint string) string {
	return layoutPrefix + mode + ":" + layoutDigest(mode, objects, fingerprint)
}

// ModePrefix implements Keyer.
func (DefaultKeyer) ModePrefix(mode string) string {
	return layoutPrefix + mode + ":"
}

// Prefix implements Keyer.
func (DefaultKeyer) Prefix() string {
	return layoutPrefix
}
