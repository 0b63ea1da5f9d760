package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ortelius/sbom-finder-dashboard/model"
	"github.com/spf13/cobra"
)

var (
	downloadFormat  string
	downloadArchive bool
	downloadDir     string
)

// archivesCmd lists archived SBOM versions per device
var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "List archived SBOM versions per device",
	Args:  cobra.NoArgs,
	RunE:  runArchives,
}

// downloadCmd saves a device SBOM or an archived SBOM to disk
var downloadCmd = &cobra.Command{
	Use:   "download <id>",
	Short: "Download a device SBOM (or an archived one with --archive)",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownload,
}

func init() {
	rootCmd.AddCommand(archivesCmd, downloadCmd)

	downloadCmd.Flags().StringVar(&downloadFormat, "format", string(model.FormatCycloneDX), "SBOM format (cyclonedx, spdx)")
	downloadCmd.Flags().BoolVar(&downloadArchive, "archive", false, "Treat the id as an archive id")
	downloadCmd.Flags().StringVarP(&downloadDir, "output", "o", ".", "Directory to write the file to")
}

func runArchives(cmd *cobra.Command, args []string) error {
	api, _, err := newClient()
	if err != nil {
		return err
	}

	groups, err := api.Archives(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(w, "No archived SBOMs found.")
		return nil
	}

	tw := newTable(w)
	tw.AppendHeader(table.Row{"Device", "Archive ID", "Name", "Latest"})
	for _, g := range groups {
		for _, a := range g.LatestFirst() {
			latest := ""
			if a.IsLatest {
				latest = "yes"
			}
			tw.AppendRow(table.Row{g.DeviceName, a.ArchiveID, a.Name, latest})
		}
		tw.AppendSeparator()
	}
	tw.Render()
	return nil
}

func runDownload(cmd *cobra.Command, args []string) error {
	format, err := model.ParseSBOMFormat(downloadFormat)
	if err != nil {
		return err
	}

	api, _, err := newClient()
	if err != nil {
		return err
	}

	target := api.DownloadURL(args[0], format)
	if downloadArchive {
		target = api.ArchiveDownloadURL(args[0], format)
	}

	dl, err := api.Fetch(cmd.Context(), target)
	if err != nil {
		return err
	}
	defer dl.Body.Close()

	path := filepath.Join(downloadDir, filepath.Base(dl.Filename))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(f, dl.Body); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %s\n", path)
	return nil
}
