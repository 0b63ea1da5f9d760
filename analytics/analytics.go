// Package analytics loads the pre-aggregated chart series of the dashboard.
// All series are fetched concurrently and either all of them are shown or none.
package analytics

import (
	"context"
	"fmt"

	"github.com/ortelius/sbom-finder-dashboard/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher decodes one analytics series into out
type Fetcher interface {
	Analytics(ctx context.Context, series model.Series, out any) error
}

// Tab is one view of the analytics page
type Tab string

// Analytics page tabs
const (
	TabCategory        Tab = "category"
	TabOperatingSystem Tab = "operatingSystem"
	TabSupplier        Tab = "supplier"
	TabManufacturer    Tab = "manufacturer"
	TabVulnerabilities Tab = "vulnerabilities"
)

// Tabs lists the tabs in page order
var Tabs = []Tab{TabCategory, TabOperatingSystem, TabSupplier, TabManufacturer, TabVulnerabilities}

// ParseTab returns the tab named s, falling back to the category tab
func ParseTab(s string) Tab {
	for _, t := range Tabs {
		if string(t) == s {
			return t
		}
	}
	return TabCategory
}

// Supplier is a bar of the supplier chart
type Supplier struct {
	Name         string             `json:"name"`
	PackageCount int64              `json:"packageCount"`
	Packages     []model.PackageRef `json:"packages"`
}

// Dashboard holds every chart series. Failed is set, and every series left
// empty, when any fetch failed.
type Dashboard struct {
	Failed bool `json:"failed"`

	Categories                []model.DeviceCount `json:"category"`
	OperatingSystems          []model.DeviceCount `json:"operatingSystems"`
	Suppliers                 []Supplier          `json:"suppliers"`
	Manufacturers             []model.DeviceCount `json:"manufacturers"`
	VulnerabilitiesByCategory []model.NamedValue  `json:"vulnerabilitiesByCategory"`
	TopVulnerablePackages     []model.VulnCount   `json:"topVulnerablePackages"`
	Severity                  []model.NamedValue  `json:"vulnerabilitySeverity"`
	VulnerableSuppliers       []model.VulnCount   `json:"vulnerableSuppliers"`
}

// Aggregator fans out to every analytics endpoint
type Aggregator struct {
	src    Fetcher
	logger *zap.Logger
}

// NewAggregator creates an aggregator over src
func NewAggregator(src Fetcher, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{src: src, logger: logger}
}

// Load fetches all series concurrently and waits for every one of them.
// A single failure discards the others and returns an empty, failed Dashboard
// together with the error.
func (a *Aggregator) Load(ctx context.Context) (Dashboard, error) {
	var (
		d         Dashboard
		suppliers []model.SupplierPackages
		vulnSupp  []model.VulnCount
	)

	targets := map[model.Series]any{
		model.SeriesCategory:                  &d.Categories,
		model.SeriesOperatingSystems:          &d.OperatingSystems,
		model.SeriesSuppliers:                 &suppliers,
		model.SeriesManufacturers:             &d.Manufacturers,
		model.SeriesVulnerabilitiesByCategory: &d.VulnerabilitiesByCategory,
		model.SeriesTopVulnerablePackages:     &d.TopVulnerablePackages,
		model.SeriesVulnerabilitySeverity:     &d.Severity,
		model.SeriesVulnerableSuppliers:       &vulnSupp,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, series := range model.AllSeries {
		series, out := series, targets[series]
		g.Go(func() error {
			if err := a.src.Analytics(gctx, series, out); err != nil {
				return fmt.Errorf("failed to fetch %s analytics: %w", series, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Sugar().Errorf("Error fetching analytics data: %v", err)
		return Dashboard{Failed: true}, err
	}

	d.Suppliers = renameSuppliers(suppliers)
	d.VulnerableSuppliers = positiveOnly(vulnSupp)
	return d, nil
}

func renameSuppliers(in []model.SupplierPackages) []Supplier {
	out := make([]Supplier, 0, len(in))
	for _, s := range in {
		name := s.Supplier
		if name == "" {
			name = s.Name
		}
		out = append(out, Supplier{Name: name, PackageCount: s.PackageCount, Packages: s.Packages})
	}
	return out
}

func positiveOnly(in []model.VulnCount) []model.VulnCount {
	out := make([]model.VulnCount, 0, len(in))
	for _, v := range in {
		if v.Vulns > 0 {
			out = append(out, v)
		}
	}
	return out
}
