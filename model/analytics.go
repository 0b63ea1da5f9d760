package model

// Series names one pre-aggregated analytics endpoint of the backend
type Series string

const (
	// SeriesCategory counts devices per category.
	SeriesCategory Series = "category"
	// SeriesOperatingSystems counts devices per operating system.
	SeriesOperatingSystems Series = "operating-systems"
	// SeriesSuppliers lists suppliers with their packages.
	SeriesSuppliers Series = "suppliers"
	// SeriesManufacturers counts devices per manufacturer.
	SeriesManufacturers Series = "manufacturers"
	// SeriesVulnerabilitiesByCategory sums vulnerabilities per device category.
	SeriesVulnerabilitiesByCategory Series = "vulnerabilities-by-category"
	// SeriesTopVulnerablePackages lists the packages with the most vulnerabilities.
	SeriesTopVulnerablePackages Series = "top-vulnerable-packages"
	// SeriesVulnerabilitySeverity counts vulnerabilities per severity.
	SeriesVulnerabilitySeverity Series = "vulnerability-severity"
	// SeriesVulnerableSuppliers sums vulnerabilities per supplier.
	SeriesVulnerableSuppliers Series = "vulnerable-suppliers"
)

// AllSeries is every analytics endpoint the dashboard renders
var AllSeries = []Series{
	SeriesCategory,
	SeriesOperatingSystems,
	SeriesSuppliers,
	SeriesManufacturers,
	SeriesVulnerabilitiesByCategory,
	SeriesTopVulnerablePackages,
	SeriesVulnerabilitySeverity,
	SeriesVulnerableSuppliers,
}

// DeviceCount is a bar of a device-count chart
type DeviceCount struct {
	Name  string `json:"name"`
	Sboms int64  `json:"sboms"`
}

// PackageRef is a package name/version pair shown in supplier tooltips
type PackageRef struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// SupplierPackages is a bar of the supplier chart.
// The backend names the supplier "supplier"; "name" is accepted as well.
type SupplierPackages struct {
	Supplier     string       `json:"supplier,omitempty"`
	Name         string       `json:"name,omitempty"`
	PackageCount int64        `json:"packageCount"`
	Packages     []PackageRef `json:"packages,omitempty"`
}

// NamedValue is a generic name/value pair (pie and severity charts)
type NamedValue struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// VulnCount is a name with a vulnerability count
type VulnCount struct {
	Name  string `json:"name"`
	Vulns int64  `json:"vulns"`
}
