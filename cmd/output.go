package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/ortelius/sbom-finder-dashboard/compare"
	"github.com/ortelius/sbom-finder-dashboard/detail"
	"github.com/ortelius/sbom-finder-dashboard/model"
)

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.SetAllowedRowLength(160)
	return tw
}

// severityColor picks the color of a severity label, most severe in red.
// Values outside the known levels print faint.
func severityColor(s model.Severity) *color.Color {
	if !s.Known() {
		return color.New(color.Faint)
	}
	switch s.Rank() {
	case 4:
		return color.New(color.FgHiRed, color.Bold)
	case 3:
		return color.New(color.FgRed)
	case 2:
		return color.New(color.FgYellow)
	case 1:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgBlue)
	}
}

func severityLabel(s model.Severity) string {
	return severityColor(s).Sprint(s.Label())
}

func printDevices(w io.Writer, devices []model.Device) {
	if len(devices) == 0 {
		fmt.Fprintln(w, "No SBOM files found.")
		return
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"ID", "Device Name", "Manufacturer", "Category", "OS", "OS Version", "Kernel Version"})
	for _, d := range devices {
		tw.AppendRow(table.Row{d.DeviceID, d.Name, d.Manufacturer, d.Category, d.OperatingSystem, d.OsVersion, d.KernelVersion})
	}
	tw.Render()
}

func printDevice(w io.Writer, v detail.View) {
	d := v.Device
	tw := newTable(w)
	tw.SetTitle(d.Name)
	tw.AppendRows([]table.Row{
		{"Manufacturer", d.Manufacturer},
		{"Category", d.Category},
		{"Operating System", d.OperatingSystem},
		{"OS Version", d.OsVersion},
		{"Kernel Version", d.KernelVersion},
		{"Digital Footprint", text.WrapSoft(orNotAvailable(d.DigitalFootprint), 80)},
		{"Suppliers", orNotAvailable(strings.Join(v.Suppliers, ", "))},
	})
	tw.Render()

	if len(d.SoftwarePackages) > 0 {
		pt := newTable(w)
		pt.SetTitle("Software Packages")
		pt.AppendHeader(table.Row{"Package", "Supplier", "Vulnerabilities"})
		for _, p := range d.SoftwarePackages {
			supplier, _ := p.Supplier()
			pt.AppendRow(table.Row{compare.PackageLabel(p), supplier, vulnBadge(p.Vulnerabilities)})
		}
		pt.Render()
	}

	if len(v.Vulnerabilities) > 0 {
		vt := newTable(w)
		vt.SetTitle("Vulnerabilities")
		vt.AppendHeader(table.Row{"CVE", "Severity", "Description"})
		for _, vuln := range v.Vulnerabilities {
			vt.AppendRow(table.Row{vuln.CveID, severityLabel(vuln.SeverityLevel), text.WrapSoft(vuln.Description, 70)})
		}
		vt.Render()
	}

	if len(d.ExternalReferences) > 0 {
		rt := newTable(w)
		rt.SetTitle("External References")
		rt.AppendHeader(table.Row{"Category", "Type", "Locator"})
		for _, r := range d.ExternalReferences {
			rt.AppendRow(table.Row{r.ReferenceCategory, r.ReferenceType, r.ReferenceLocator})
		}
		rt.Render()
	}
}

// vulnBadge summarizes a package's vulnerabilities by count and worst severity
func vulnBadge(vulns []model.Vulnerability) string {
	if len(vulns) == 0 {
		return ""
	}
	worst := detail.BySeverity(vulns)[0].SeverityLevel
	return severityColor(worst).Sprintf("%d (%s)", len(vulns), worst.Label())
}

// cellText renders one side of a comparison row for the terminal
func cellText(v compare.Value) string {
	switch v.Kind {
	case compare.KindPackages:
		if len(v.Packages) == 0 {
			return compare.NotAvailable
		}
		lines := make([]string, 0, len(v.Packages))
		for _, p := range v.Packages {
			line := compare.PackageLabel(p)
			if s, ok := p.Supplier(); ok {
				line += " [" + s + "]"
			}
			if badge := vulnBadge(p.Vulnerabilities); badge != "" {
				line += " " + badge
			}
			lines = append(lines, line)
		}
		return strings.Join(lines, "\n")
	case compare.KindReferences:
		if v.Missing {
			return compare.NotFound
		}
		if len(v.References) == 0 {
			return compare.NotAvailable
		}
		lines := make([]string, 0, len(v.References))
		for _, r := range v.References {
			lines = append(lines, fmt.Sprintf("%s: %s -> %s", r.ReferenceCategory, r.ReferenceType, r.ReferenceLocator))
		}
		return strings.Join(lines, "\n")
	}
	return v.Text
}

func printSummary(w io.Writer, s compare.Summary) {
	if s.Empty() {
		fmt.Fprintln(w, "Both devices ship the same packages.")
		return
	}

	tw := newTable(w)
	tw.SetTitle("Package Changes")
	tw.AppendHeader(table.Row{"Change", "Package", "Device 1", "Device 2"})
	for _, p := range s.Added {
		tw.AppendRow(table.Row{color.GreenString("added"), p.Base, "", p.Version})
	}
	for _, p := range s.Removed {
		tw.AppendRow(table.Row{color.RedString("removed"), p.Base, p.Version, ""})
	}
	for _, c := range s.Changed {
		tw.AppendRow(table.Row{color.YellowString("changed"), c.PURL, c.Version1, c.Version2})
	}
	tw.Render()
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return detail.NotAvailable
	}
	return s
}
