package cmd

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ortelius/sbom-finder-dashboard/compare"
	"github.com/spf13/cobra"
)

var summaryOnly bool

// compareCmd prints the side-by-side comparison of two devices
var compareCmd = &cobra.Command{
	Use:   "compare <device1Id> <device2Id>",
	Short: "Compare the SBOMs of two devices",
	Long: `Fetches both devices in one request and prints one row per compared
field followed by the package delta (added, removed and changed versions).`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().BoolVar(&summaryOnly, "summary", false, "Only print the package delta")
}

func runCompare(cmd *cobra.Command, args []string) error {
	api, logger, err := newClient()
	if err != nil {
		return err
	}

	rows, err := compare.NewEngine(api, logger).Compare(cmd.Context(), args[0], args[1])
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !summaryOnly {
		tw := newTable(w)
		tw.AppendHeader(table.Row{"Field", "Device 1", "Device 2"})
		for _, r := range rows {
			tw.AppendRow(table.Row{r.Label(), cellText(r.Device1), cellText(r.Device2)})
			tw.AppendSeparator()
		}
		tw.Render()
	}
	printSummary(w, compare.Summarize(rows))
	return nil
}
