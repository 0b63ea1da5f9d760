// Package model defines the data structures consumed from the SBOM Finder backend,
// including devices, software packages, vulnerabilities and external references.
package model

import "strings"

// Sentinel supplier values the backend stores when no supplier is known.
const (
	SupplierUnknown        = "Unknown"
	SupplierUnknownVerbose = "Unknown Supplier"
)

// Device is a single device record with its SBOM contents
type Device struct {
	DeviceID           int64               `json:"deviceId"`
	SbomID             int64               `json:"sbomId"`
	Name               string              `json:"name"`
	Manufacturer       string              `json:"manufacturer"`
	Category           string              `json:"category"`
	OperatingSystem    string              `json:"operatingSystem"`
	OsVersion          string              `json:"osVersion"`
	KernelVersion      string              `json:"kernelVersion"`
	DigitalFootprint   string              `json:"digitalFootprint"`
	SoftwarePackages   []SoftwarePackage   `json:"softwarePackages,omitempty"`
	ExternalReferences []ExternalReference `json:"externalReferences,omitempty"`
	Vulnerabilities    []Vulnerability     `json:"vulnerabilities,omitempty"`
}

// SoftwarePackage is one component of a device's software stack
type SoftwarePackage struct {
	Name            string          `json:"name"`
	Version         string          `json:"version"`
	SupplierName    string          `json:"supplierName,omitempty"`
	ComponentType   string          `json:"componentType,omitempty"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities,omitempty"`
}

// Supplier returns the supplier name and whether it carries real data.
// Empty and sentinel "Unknown" values report false.
func (p SoftwarePackage) Supplier() (string, bool) {
	return p.SupplierName, IsKnownSupplier(p.SupplierName)
}

// HasVulnerabilities reports whether any vulnerability is linked to the package
func (p SoftwarePackage) HasVulnerabilities() bool {
	return len(p.Vulnerabilities) > 0
}

// Clone returns a deep copy so callers can hold the package without sharing slices
func (p SoftwarePackage) Clone() SoftwarePackage {
	c := p
	if p.Vulnerabilities != nil {
		c.Vulnerabilities = make([]Vulnerability, len(p.Vulnerabilities))
		copy(c.Vulnerabilities, p.Vulnerabilities)
	}
	return c
}

// IsKnownSupplier reports whether name is a real supplier rather than a placeholder
func IsKnownSupplier(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && name != SupplierUnknown && name != SupplierUnknownVerbose
}

// Vulnerability is a known CVE linked to a package
type Vulnerability struct {
	CveID         string   `json:"cveId"`
	SeverityLevel Severity `json:"severityLevel"`
	Description   string   `json:"description"`
	SourceURL     string   `json:"sourceUrl,omitempty"`
}

// ExternalReference is a typed pointer from an SBOM to external data (CPE, advisory, ...)
type ExternalReference struct {
	ReferenceCategory string `json:"referenceCategory"`
	ReferenceType     string `json:"referenceType"`
	ReferenceLocator  string `json:"referenceLocator"`
}

// IsLink reports whether the locator is an HTTP(S) URL
func (r ExternalReference) IsLink() bool {
	l := strings.ToLower(strings.TrimSpace(r.ReferenceLocator))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// DeviceOption is the light-weight id/name pair used for dropdowns
type DeviceOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ClonePackages deep copies a package slice. A nil input yields an empty, non-nil slice.
func ClonePackages(pkgs []SoftwarePackage) []SoftwarePackage {
	out := make([]SoftwarePackage, len(pkgs))
	for i, p := range pkgs {
		out[i] = p.Clone()
	}
	return out
}

// CloneReferences copies a reference slice, preserving nil
func CloneReferences(refs []ExternalReference) []ExternalReference {
	if refs == nil {
		return nil
	}
	out := make([]ExternalReference, len(refs))
	copy(out, refs)
	return out
}
