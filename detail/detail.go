// Package detail holds the state of the single-device page: which sections are
// expanded, the derived supplier list and the placeholders for empty data.
package detail

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/ortelius/sbom-finder-dashboard/util"
	"go.uber.org/zap"
)

// NotAvailable replaces an empty package, supplier, vulnerability or reference list
const NotAvailable = "Not Available"

// Section is a collapsible block of the device page
type Section string

// Device page sections, in page order
const (
	SectionInfo               Section = "info"
	SectionOS                 Section = "os"
	SectionFootprint          Section = "footprint"
	SectionPackages           Section = "packages"
	SectionSuppliers          Section = "suppliers"
	SectionVulnerabilities    Section = "vulnerabilities"
	SectionExternalReferences Section = "externalReferences"
)

// AllSections lists every section in page order
var AllSections = []Section{
	SectionInfo,
	SectionOS,
	SectionFootprint,
	SectionPackages,
	SectionSuppliers,
	SectionVulnerabilities,
	SectionExternalReferences,
}

var sectionTitles = map[Section]string{
	SectionInfo:               "Device Information",
	SectionOS:                 "Operating System",
	SectionFootprint:          "Digital Footprint",
	SectionPackages:           "Software Packages",
	SectionSuppliers:          "Suppliers Involved",
	SectionVulnerabilities:    "Vulnerabilities",
	SectionExternalReferences: "External References",
}

// Title is the section heading
func (s Section) Title() string {
	return sectionTitles[s]
}

// ParseSection validates a section key
func ParseSection(key string) (Section, error) {
	s := Section(key)
	if _, ok := sectionTitles[s]; !ok {
		return "", fmt.Errorf("unknown section %q", key)
	}
	return s, nil
}

// Sections maps each section to its open state
type Sections map[Section]bool

// DefaultSections opens info and os and collapses the rest
func DefaultSections() Sections {
	s := make(Sections, len(AllSections))
	for _, k := range AllSections {
		s[k] = false
	}
	s[SectionInfo] = true
	s[SectionOS] = true
	return s
}

// Toggle flips one section. Unknown keys are rejected.
func (s Sections) Toggle(key Section) error {
	if _, ok := sectionTitles[key]; !ok {
		return fmt.Errorf("unknown section %q", key)
	}
	s[key] = !s[key]
	return nil
}

// Open reports whether a section is expanded
func (s Sections) Open(key Section) bool {
	return s[key]
}

// Suppliers lists each real supplier once, in first-seen package order
func Suppliers(pkgs []model.SoftwarePackage) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range pkgs {
		name, ok := p.Supplier()
		if !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

// Locator returns the text shown for a reference locator: the last path
// segment of a link, the raw locator otherwise
func Locator(ref model.ExternalReference) string {
	if ref.IsLink() {
		return util.LastPathSegment(ref.ReferenceLocator)
	}
	return ref.ReferenceLocator
}

// BySeverity returns the vulnerabilities ordered from Critical down, keeping
// backend order within a level
func BySeverity(vulns []model.Vulnerability) []model.Vulnerability {
	out := make([]model.Vulnerability, len(vulns))
	copy(out, vulns)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SeverityLevel.Rank() > out[j].SeverityLevel.Rank()
	})
	return out
}

// Fetcher loads one device with its packages, vulnerabilities and references
type Fetcher interface {
	DeviceDetails(ctx context.Context, deviceID string) (*model.Device, error)
}

// Renderer owns the device shown on the detail page and its section state
type Renderer struct {
	src    Fetcher
	logger *zap.Logger

	mu       sync.Mutex
	deviceID string
	device   *model.Device
	sections Sections
}

// NewRenderer creates a renderer with default sections and no device
func NewRenderer(src Fetcher, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{src: src, logger: logger, sections: DefaultSections()}
}

// Load fetches a device. Loading a different device restores the default
// sections. On failure the previously loaded device stays.
func (r *Renderer) Load(ctx context.Context, deviceID string) (*model.Device, error) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil, fmt.Errorf("no device selected")
	}

	d, err := r.src.DeviceDetails(ctx, deviceID)
	if err != nil {
		r.logger.Sugar().Errorf("Error fetching device details: %v", err)
		return nil, fmt.Errorf("failed to load device %s: %w", deviceID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deviceID != deviceID {
		r.sections = DefaultSections()
	}
	r.deviceID = deviceID
	r.device = d
	return d, nil
}

// Toggle flips a section without refetching
func (r *Renderer) Toggle(key Section) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sections.Toggle(key)
}

// View is everything the device page renders
type View struct {
	DeviceID        string
	Device          *model.Device
	Sections        Sections
	Suppliers       []string
	Vulnerabilities []model.Vulnerability
}

// Loading reports whether no device has been loaded yet
func (v View) Loading() bool {
	return v.Device == nil
}

// View snapshots the current device and section state
func (r *Renderer) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{DeviceID: r.deviceID, Sections: make(Sections, len(r.sections))}
	for k, open := range r.sections {
		v.Sections[k] = open
	}
	if r.device != nil {
		d := *r.device
		v.Device = &d
		v.Suppliers = Suppliers(d.SoftwarePackages)
		v.Vulnerabilities = d.Vulnerabilities
	}
	return v
}
