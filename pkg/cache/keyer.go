package cache

// Keyer builds cache keys for the values gemlock stores.
type Keyer interface {
	// InfoKey is the key of a gem's registry metadata.
	InfoKey(registry, gem string) string
	// GemKey is the key of a gem's JSON API summary.
	GemKey(registry, gem string) string
	// ResolutionKey is the key of a finished resolution.
	ResolutionKey(opts ResolutionKeyOpts) string
}

// ResolutionKeyOpts captures every input that changes a resolution result.
type ResolutionKeyOpts struct {
	Registry     string            `json:"registry"`
	Manifest     string            `json:"manifest"` // hash of the manifest document
	Platforms    []string          `json:"platforms"`
	Prerelease   bool              `json:"prerelease"`
	RubyVersion  string            `json:"ruby_version,omitempty"`
	Conservative bool              `json:"conservative,omitempty"`
	Locked       map[string]string `json:"locked,omitempty"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key layout.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// InfoKey returns "info:<registry>:<gem>".
func (DefaultKeyer) InfoKey(registry, gem string) string {
	return "info:" + registry + ":" + gem
}

// GemKey returns "gem:<registry>:<gem>".
func (DefaultKeyer) GemKey(registry, gem string) string {
	return "gem:" + registry + ":" + gem
}

// ResolutionKey hashes the options so the key length is bounded.
func (DefaultKeyer) ResolutionKey(opts ResolutionKeyOpts) string {
	return hashKey("resolution", opts)
}
