package model

// PURL identifies a package across devices.
// Base is the package URL without version (e.g., pkg:generic/openssl) and is the
// key used when diffing two package lists.
type PURL struct {
	Base    string `json:"purl"`
	Version string `json:"version,omitempty"`
}

// String renders the full package URL including the version when present
func (p PURL) String() string {
	if p.Version == "" {
		return p.Base
	}
	return p.Base + "@" + p.Version
}
