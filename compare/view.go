package compare

import (
	"fmt"

	"github.com/ortelius/sbom-finder-dashboard/model"
)

// NotAvailable is shown for an empty package or reference list
const NotAvailable = "Not Available"

// Side selects a column of the comparison table
type Side int

const (
	// Device1 is the left column.
	Device1 Side = 1
	// Device2 is the right column.
	Device2 Side = 2
)

// ParseSide accepts "1"/"2" and "device1"/"device2"
func ParseSide(s string) (Side, error) {
	switch s {
	case "1", "device1", "device1Value":
		return Device1, nil
	case "2", "device2", "device2Value":
		return Device2, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

// Detail is a collapsible part of a package entry
type Detail string

const (
	// DetailSupplier shows the package supplier.
	DetailSupplier Detail = "supplier"
	// DetailVulnerabilities shows the package vulnerabilities.
	DetailVulnerabilities Detail = "vulnerabilities"
)

type toggleKey struct {
	field Field
	side  Side
	index int
	which Detail
}

// ToggleDetail flips one visibility flag of one package on one side.
// Rows are never modified. Keys that do not address an offered toggle are
// rejected and nothing changes.
func (e *Engine) ToggleDetail(field Field, side Side, packageIndex int, which Detail) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pkg, err := e.lookup(field, side, packageIndex)
	if err != nil {
		return err
	}

	switch which {
	case DetailSupplier:
		if _, ok := pkg.Supplier(); !ok {
			return fmt.Errorf("package %d has no supplier to show", packageIndex)
		}
	case DetailVulnerabilities:
		if !pkg.HasVulnerabilities() {
			return fmt.Errorf("package %d has no vulnerabilities to show", packageIndex)
		}
	default:
		return fmt.Errorf("unknown detail %q", which)
	}

	k := toggleKey{field: field, side: side, index: packageIndex, which: which}
	e.view[k] = !e.view[k]
	return nil
}

// Visible reports whether a package detail is currently expanded
func (e *Engine) Visible(field Field, side Side, packageIndex int, which Detail) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view[toggleKey{field: field, side: side, index: packageIndex, which: which}]
}

func (e *Engine) lookup(field Field, side Side, index int) (model.SoftwarePackage, error) {
	if field != FieldPackages {
		return model.SoftwarePackage{}, fmt.Errorf("field %q has no package toggles", field)
	}
	if side != Device1 && side != Device2 {
		return model.SoftwarePackage{}, fmt.Errorf("unknown side %d", side)
	}
	for _, r := range e.rows {
		if r.Field != field {
			continue
		}
		pkgs := r.Value(side).Packages
		if index < 0 || index >= len(pkgs) {
			return model.SoftwarePackage{}, fmt.Errorf("package index %d out of range", index)
		}
		return pkgs[index], nil
	}
	return model.SoftwarePackage{}, fmt.Errorf("no comparison loaded")
}

// VulnerabilityView is one vulnerability tag
type VulnerabilityView struct {
	CveID       string
	Severity    string
	Description string
	SourceURL   string
}

// PackageView is the rendering of one package entry of a comparison column
type PackageView struct {
	Index           int
	Label           string
	Supplier        string
	SupplierToggle  bool
	ShowSupplier    bool
	VulnToggle      bool
	ShowVulns       bool
	Vulnerabilities []VulnerabilityView
}

// SupplierButton is the caption of the supplier toggle
func (p PackageView) SupplierButton() string {
	if p.ShowSupplier {
		return "Hide Supplier"
	}
	return "Show Supplier"
}

// VulnButton is the caption of the vulnerability toggle
func (p PackageView) VulnButton() string {
	if p.ShowVulns {
		return "Hide Vulnerabilities"
	}
	return "Show Vulnerabilities"
}

// PackageLabel renders a package as "name => version"
func PackageLabel(p model.SoftwarePackage) string {
	return p.Name + " => " + p.Version
}

// PackageViews renders the package column of one side with the current toggles
func (e *Engine) PackageViews(side Side) []PackageView {
	e.mu.Lock()
	defer e.mu.Unlock()

	var pkgs []model.SoftwarePackage
	for _, r := range e.rows {
		if r.Field == FieldPackages {
			pkgs = r.Value(side).Packages
		}
	}

	views := make([]PackageView, len(pkgs))
	for i, p := range pkgs {
		supplier, known := p.Supplier()
		v := PackageView{
			Index:          i,
			Label:          PackageLabel(p),
			Supplier:       supplier,
			SupplierToggle: known,
			VulnToggle:     p.HasVulnerabilities(),
		}
		v.ShowSupplier = v.SupplierToggle && e.view[toggleKey{FieldPackages, side, i, DetailSupplier}]
		v.ShowVulns = v.VulnToggle && e.view[toggleKey{FieldPackages, side, i, DetailVulnerabilities}]
		for _, vuln := range p.Vulnerabilities {
			v.Vulnerabilities = append(v.Vulnerabilities, VulnerabilityView{
				CveID:       vuln.CveID,
				Severity:    string(vuln.SeverityLevel),
				Description: vuln.Description,
				SourceURL:   vuln.SourceURL,
			})
		}
		views[i] = v
	}
	return views
}

// ReferenceView is the rendering of one external reference
type ReferenceView struct {
	Category string
	Type     string
	Locator  string
	Link     bool
}

// ReferenceViews renders a reference value. Only http(s) locators become links.
func ReferenceViews(v Value) []ReferenceView {
	views := make([]ReferenceView, 0, len(v.References))
	for _, r := range v.References {
		views = append(views, ReferenceView{
			Category: r.ReferenceCategory,
			Type:     r.ReferenceType,
			Locator:  r.ReferenceLocator,
			Link:     r.IsLink(),
		})
	}
	return views
}
