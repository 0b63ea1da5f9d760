package main

import (
	"html/template"
	"strings"

	"github.com/ortelius/sbom-finder-dashboard/analytics"
	"github.com/ortelius/sbom-finder-dashboard/compare"
	"github.com/ortelius/sbom-finder-dashboard/detail"
	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/ortelius/sbom-finder-dashboard/upload"
)

// Search bar choices
var (
	manufacturerOptions    = []string{"Fitbit", "Apple", "Samsung", "Google / AOSP"}
	operatingSystemOptions = []string{"Wear OS 4", "watchOS 10.3", "Fitbit OS 5.2", "Android 15"}
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"notAvailable": func() string { return detail.NotAvailable },
		"notFound":     func() string { return compare.NotFound },
		"packageLabel": compare.PackageLabel,
		"locator":      detail.Locator,
	}
}

// pageData is handed to the layout; Content is the page's own data
type pageData struct {
	Title     string
	Nav       string
	Flash     string
	Error     string
	Uploading bool
	Content   any
}

type deviceListPage struct {
	Devices          []model.Device
	Filter           model.SearchFilter
	HighlightID      int64
	Manufacturers    []string
	OperatingSystems []string
	Categories       []string
	DeletePrompt     string
}

type sectionView struct {
	Key   string
	Title string
	Open  bool
}

type deviceDetailsPage struct {
	View     detail.View
	Sections []sectionView
}

func newDeviceDetailsPage(v detail.View) deviceDetailsPage {
	p := deviceDetailsPage{View: v}
	for _, s := range detail.AllSections {
		p.Sections = append(p.Sections, sectionView{Key: string(s), Title: s.Title(), Open: v.Sections.Open(s)})
	}
	return p
}

type compareCell struct {
	Kind       string
	Side       int
	Text       string
	Missing    bool
	Packages   []compare.PackageView
	References []compare.ReferenceView
}

type compareRow struct {
	Label string
	Left  compareCell
	Right compareCell
}

type comparePage struct {
	Options []model.DeviceOption
	Device1 string
	Device2 string
	Rows    []compareRow
	Summary *compare.Summary
}

func newComparePage(e *compare.Engine, options []model.DeviceOption) comparePage {
	p := comparePage{Options: options}
	p.Device1, p.Device2 = e.Selection()

	rows := e.Rows()
	if len(rows) == 0 {
		return p
	}

	left, right := e.PackageViews(compare.Device1), e.PackageViews(compare.Device2)
	cell := func(v compare.Value, side compare.Side, pkgs []compare.PackageView) compareCell {
		c := compareCell{Kind: v.Kind.String(), Side: int(side), Text: v.Text, Missing: v.Missing}
		switch v.Kind {
		case compare.KindPackages:
			c.Packages = pkgs
		case compare.KindReferences:
			c.References = compare.ReferenceViews(v)
		}
		return c
	}
	for _, r := range rows {
		p.Rows = append(p.Rows, compareRow{
			Label: r.Label(),
			Left:  cell(r.Device1, compare.Device1, left),
			Right: cell(r.Device2, compare.Device2, right),
		})
	}

	s := compare.Summarize(rows)
	p.Summary = &s
	return p
}

type tabView struct {
	Key    string
	Label  string
	Active bool
}

type bar struct {
	Label  string
	Value  int64
	Pct    int
	Detail string
}

type chart struct {
	Title string
	Bars  []bar
}

type analyticsPage struct {
	Tabs   []tabView
	Failed bool
	Charts []chart
}

var tabLabels = map[analytics.Tab]string{
	analytics.TabCategory:        "Category",
	analytics.TabOperatingSystem: "Operating System",
	analytics.TabSupplier:        "Supplier",
	analytics.TabManufacturer:    "Manufacturer",
	analytics.TabVulnerabilities: "Vulnerabilities",
}

func newAnalyticsPage(tab analytics.Tab, d analytics.Dashboard) analyticsPage {
	p := analyticsPage{Failed: d.Failed}
	for _, t := range analytics.Tabs {
		p.Tabs = append(p.Tabs, tabView{Key: string(t), Label: tabLabels[t], Active: t == tab})
	}
	if d.Failed {
		return p
	}

	switch tab {
	case analytics.TabOperatingSystem:
		p.Charts = []chart{deviceChart("Devices by Operating System", d.OperatingSystems)}
	case analytics.TabManufacturer:
		p.Charts = []chart{deviceChart("Devices by Manufacturer", d.Manufacturers)}
	case analytics.TabSupplier:
		c := chart{Title: "Packages by Supplier"}
		for _, s := range d.Suppliers {
			var tip []string
			for i, pkg := range s.Packages {
				if i == 5 {
					break
				}
				tip = append(tip, pkg.Name+" "+pkg.Version)
			}
			c.Bars = append(c.Bars, bar{Label: s.Name, Value: s.PackageCount, Detail: strings.Join(tip, ", ")})
		}
		p.Charts = []chart{scale(c)}
	case analytics.TabVulnerabilities:
		p.Charts = []chart{
			namedChart("Vulnerabilities by Category", d.VulnerabilitiesByCategory),
			namedChart("Vulnerability Severity", d.Severity),
			vulnChart("Top Vulnerable Packages", d.TopVulnerablePackages),
			vulnChart("Vulnerable Suppliers", d.VulnerableSuppliers),
		}
	default:
		p.Charts = []chart{deviceChart("Devices by Category", d.Categories)}
	}
	return p
}

func deviceChart(title string, counts []model.DeviceCount) chart {
	c := chart{Title: title}
	for _, dc := range counts {
		c.Bars = append(c.Bars, bar{Label: dc.Name, Value: dc.Sboms})
	}
	return scale(c)
}

func namedChart(title string, values []model.NamedValue) chart {
	c := chart{Title: title}
	for _, v := range values {
		c.Bars = append(c.Bars, bar{Label: v.Name, Value: v.Value})
	}
	return scale(c)
}

func vulnChart(title string, values []model.VulnCount) chart {
	c := chart{Title: title}
	for _, v := range values {
		c.Bars = append(c.Bars, bar{Label: v.Name, Value: v.Vulns})
	}
	return scale(c)
}

// scale sets each bar's width relative to the largest value
func scale(c chart) chart {
	var peak int64
	for _, b := range c.Bars {
		if b.Value > peak {
			peak = b.Value
		}
	}
	if peak == 0 {
		return c
	}
	for i := range c.Bars {
		c.Bars[i].Pct = int(c.Bars[i].Value * 100 / peak)
	}
	return c
}

type uploadPage struct {
	Kinds       []tabView
	Form        upload.Form
	Categories  []string
	FileField   string
	Accept      string
	LeavePrompt string
}

var kindLabels = map[upload.Kind]string{
	upload.KindSource:     "Device Source",
	upload.KindSBOM:       "SBOM File",
	upload.KindDependency: "Dependency File",
	upload.KindRepo:       "GitHub Repository",
}

func newUploadPage(form upload.Form) uploadPage {
	p := uploadPage{
		Form:        form,
		Categories:  upload.Categories,
		FileField:   "file",
		LeavePrompt: upload.LeavePrompt,
	}
	for _, k := range upload.Kinds {
		p.Kinds = append(p.Kinds, tabView{Key: string(k), Label: kindLabels[k], Active: k == form.Kind})
	}
	switch form.Kind {
	case upload.KindSource:
		p.Accept = ".zip,.tar,.tar.gz,.tgz"
	case upload.KindSBOM:
		p.FileField = "sbomFile"
		p.Accept = ".json"
	}
	return p
}

type archivePage struct {
	Groups []model.ArchiveGroup
}
