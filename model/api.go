// Package model - API types for combining models in API requests/responses
package model

import (
	"fmt"
	"strings"
)

// DeviceComparison is the combined payload returned by the compare endpoint.
// Both devices come from one backend snapshot.
type DeviceComparison struct {
	Device1 *Device `json:"device1"`
	Device2 *Device `json:"device2"`
}

// SearchFilter holds the optional device search parameters.
// Empty values match every device for that dimension.
type SearchFilter struct {
	Query           string `json:"query"`
	Manufacturer    string `json:"manufacturer"`
	OperatingSystem string `json:"operatingSystem"`
	Category        string `json:"category"`
}

// IsZero reports whether no filter is set
func (f SearchFilter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" &&
		strings.TrimSpace(f.Manufacturer) == "" &&
		strings.TrimSpace(f.OperatingSystem) == "" &&
		strings.TrimSpace(f.Category) == ""
}

// SBOMFormat is a download format offered by the backend
type SBOMFormat string

const (
	// FormatCycloneDX is the CycloneDX JSON format.
	FormatCycloneDX SBOMFormat = "cyclonedx"
	// FormatSPDX is the SPDX JSON format.
	FormatSPDX SBOMFormat = "spdx"
)

// ParseSBOMFormat validates a format name. An empty name defaults to CycloneDX.
func ParseSBOMFormat(s string) (SBOMFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatCycloneDX):
		return FormatCycloneDX, nil
	case string(FormatSPDX):
		return FormatSPDX, nil
	default:
		return "", fmt.Errorf("unsupported SBOM format: %s", s)
	}
}

// ArchiveEntry is one archived SBOM version of a device
type ArchiveEntry struct {
	ArchiveID int64  `json:"archiveId"`
	Name      string `json:"name"`
	IsLatest  bool   `json:"isLatest"`
}

// ArchiveGroup lists the archived SBOM versions of a device
type ArchiveGroup struct {
	DeviceName string         `json:"deviceName"`
	Archives   []ArchiveEntry `json:"archives"`
}

// LatestFirst returns the archives with the latest entry moved to the front,
// otherwise keeping backend order
func (g ArchiveGroup) LatestFirst() []ArchiveEntry {
	out := make([]ArchiveEntry, 0, len(g.Archives))
	for _, a := range g.Archives {
		if a.IsLatest {
			out = append(out, a)
		}
	}
	for _, a := range g.Archives {
		if !a.IsLatest {
			out = append(out, a)
		}
	}
	return out
}
