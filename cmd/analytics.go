package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ortelius/sbom-finder-dashboard/analytics"
	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/spf13/cobra"
)

var analyticsTab string

// analyticsCmd prints the dashboard charts as tables
var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show device and vulnerability analytics",
	Long: `Fetches every analytics series concurrently. If any series fails
nothing is printed and the error is returned.`,
	Args: cobra.NoArgs,
	RunE: runAnalytics,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.Flags().StringVarP(&analyticsTab, "tab", "t", "",
		"Only print one tab (category, operatingSystem, supplier, manufacturer, vulnerabilities)")
}

func runAnalytics(cmd *cobra.Command, args []string) error {
	api, logger, err := newClient()
	if err != nil {
		return err
	}

	d, err := analytics.NewAggregator(api, logger).Load(cmd.Context())
	if err != nil {
		return err
	}

	tabs := analytics.Tabs
	if analyticsTab != "" {
		tabs = []analytics.Tab{analytics.ParseTab(analyticsTab)}
	}

	w := cmd.OutOrStdout()
	for _, tab := range tabs {
		switch tab {
		case analytics.TabCategory:
			printDeviceCounts(w, "Devices by Category", d.Categories)
		case analytics.TabOperatingSystem:
			printDeviceCounts(w, "Devices by Operating System", d.OperatingSystems)
		case analytics.TabManufacturer:
			printDeviceCounts(w, "Devices by Manufacturer", d.Manufacturers)
		case analytics.TabSupplier:
			tw := newTable(w)
			tw.SetTitle("Packages by Supplier")
			tw.AppendHeader(table.Row{"Supplier", "Packages"})
			for _, s := range d.Suppliers {
				tw.AppendRow(table.Row{s.Name, s.PackageCount})
			}
			tw.Render()
		case analytics.TabVulnerabilities:
			printNamedValues(w, "Vulnerabilities by Category", d.VulnerabilitiesByCategory)
			printSeverities(w, d.Severity)
			printVulnCounts(w, "Top Vulnerable Packages", d.TopVulnerablePackages)
			printVulnCounts(w, "Vulnerable Suppliers", d.VulnerableSuppliers)
		}
	}
	return nil
}

func printDeviceCounts(w io.Writer, title string, counts []model.DeviceCount) {
	tw := newTable(w)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Name", "SBOMs"})
	for _, c := range counts {
		tw.AppendRow(table.Row{c.Name, c.Sboms})
	}
	tw.Render()
}

func printNamedValues(w io.Writer, title string, values []model.NamedValue) {
	tw := newTable(w)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Name", "Count"})
	for _, v := range values {
		tw.AppendRow(table.Row{v.Name, v.Value})
	}
	tw.Render()
}

func printSeverities(w io.Writer, values []model.NamedValue) {
	tw := newTable(w)
	tw.SetTitle("Vulnerability Severity")
	tw.AppendHeader(table.Row{"Severity", "Count"})
	for _, v := range values {
		tw.AppendRow(table.Row{severityLabel(model.Severity(v.Name)), v.Value})
	}
	tw.Render()
}

func printVulnCounts(w io.Writer, title string, values []model.VulnCount) {
	tw := newTable(w)
	tw.SetTitle(title)
	tw.AppendHeader(table.Row{"Name", "Vulnerabilities"})
	for _, v := range values {
		tw.AppendRow(table.Row{v.Name, v.Vulns})
	}
	tw.Render()
}
