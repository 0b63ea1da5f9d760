package compare

import (
	"fmt"
	"strings"

	"github.com/ortelius/sbom-finder-dashboard/model"
)

// NotFound is shown for a scalar field or reference list the backend left empty
const NotFound = "Not Found"

// Field is one row of the comparison table
type Field string

// Compared fields, in table order
const (
	FieldName               Field = "name"
	FieldManufacturer       Field = "manufacturer"
	FieldCategory           Field = "category"
	FieldOperatingSystem    Field = "operatingSystem"
	FieldOsVersion          Field = "osVersion"
	FieldKernelVersion      Field = "kernelVersion"
	FieldPackages           Field = "packages"
	FieldDigitalFootprint   Field = "digitalFootprint"
	FieldExternalReferences Field = "externalReferences"
)

// Fields is the fixed row order of every comparison
var Fields = []Field{
	FieldName,
	FieldManufacturer,
	FieldCategory,
	FieldOperatingSystem,
	FieldOsVersion,
	FieldKernelVersion,
	FieldPackages,
	FieldDigitalFootprint,
	FieldExternalReferences,
}

var fieldLabels = map[Field]string{
	FieldName:               "Device Name",
	FieldManufacturer:       "Manufacturer",
	FieldCategory:           "Category",
	FieldOperatingSystem:    "Operating System",
	FieldOsVersion:          "OS Version",
	FieldKernelVersion:      "Kernel Version",
	FieldPackages:           "Packages",
	FieldDigitalFootprint:   "Digital Footprint",
	FieldExternalReferences: "External References",
}

// Label returns the table header of the field
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// Kind tells which member of a Value is populated
type Kind int

const (
	// KindText is a scalar string value.
	KindText Kind = iota
	// KindPackages is a package list.
	KindPackages
	// KindReferences is an external reference list.
	KindReferences
)

func (k Kind) String() string {
	switch k {
	case KindPackages:
		return "packages"
	case KindReferences:
		return "references"
	default:
		return "text"
	}
}

// Value is one side of a comparison row
type Value struct {
	Kind       Kind                      `json:"kind"`
	Text       string                    `json:"text,omitempty"`
	Packages   []model.SoftwarePackage   `json:"packages,omitempty"`
	References []model.ExternalReference `json:"references,omitempty"`
	// Missing marks a reference list the backend did not send
	Missing bool `json:"missing,omitempty"`
}

// String is the plain text rendering used by the CLI
func (v Value) String() string {
	switch v.Kind {
	case KindPackages:
		if len(v.Packages) == 0 {
			return NotAvailable
		}
		lines := make([]string, len(v.Packages))
		for i, p := range v.Packages {
			lines[i] = PackageLabel(p)
		}
		return strings.Join(lines, "\n")
	case KindReferences:
		if v.Missing {
			return NotFound
		}
		if len(v.References) == 0 {
			return NotAvailable
		}
		lines := make([]string, len(v.References))
		for i, r := range v.References {
			lines[i] = fmt.Sprintf("%s: %s -> %s", r.ReferenceCategory, r.ReferenceType, r.ReferenceLocator)
		}
		return strings.Join(lines, "\n")
	default:
		return v.Text
	}
}

// Row pairs the values of one field for both devices
type Row struct {
	Field   Field `json:"field"`
	Device1 Value `json:"device1Value"`
	Device2 Value `json:"device2Value"`
}

// Label returns the field label
func (r Row) Label() string {
	return r.Field.Label()
}

// Value returns the value of one side
func (r Row) Value(s Side) Value {
	if s == Device2 {
		return r.Device2
	}
	return r.Device1
}

// BuildRows turns a comparison payload into one row per field, in Fields order.
// Packages are deep copied so the rows never share memory with the payload.
func BuildRows(cmp *model.DeviceComparison) ([]Row, error) {
	if cmp == nil || cmp.Device1 == nil || cmp.Device2 == nil {
		return nil, fmt.Errorf("comparison payload is missing a device")
	}

	rows := make([]Row, 0, len(Fields))
	for _, f := range Fields {
		rows = append(rows, Row{
			Field:   f,
			Device1: fieldValue(cmp.Device1, f),
			Device2: fieldValue(cmp.Device2, f),
		})
	}
	return rows, nil
}

func fieldValue(d *model.Device, f Field) Value {
	switch f {
	case FieldPackages:
		return Value{Kind: KindPackages, Packages: model.ClonePackages(d.SoftwarePackages)}
	case FieldExternalReferences:
		// an absent list is Not Found, an empty one Not Available
		if d.ExternalReferences == nil {
			return Value{Kind: KindReferences, Missing: true}
		}
		return Value{Kind: KindReferences, References: model.CloneReferences(d.ExternalReferences)}
	}

	var s string
	switch f {
	case FieldName:
		s = d.Name
	case FieldManufacturer:
		s = d.Manufacturer
	case FieldCategory:
		s = d.Category
	case FieldOperatingSystem:
		s = d.OperatingSystem
	case FieldOsVersion:
		s = d.OsVersion
	case FieldKernelVersion:
		s = d.KernelVersion
	case FieldDigitalFootprint:
		s = d.DigitalFootprint
	}
	if strings.TrimSpace(s) == "" {
		s = NotFound
	}
	return Value{Kind: KindText, Text: s}
}
