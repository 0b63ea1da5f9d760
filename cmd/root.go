// Package cmd implements the sbomfinder CLI, a terminal client for the
// SBOM Finder backend covering the same operations as the dashboard.
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ortelius/sbom-finder-dashboard/backend"
	"github.com/ortelius/sbom-finder-dashboard/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	apiURL     string
	configFile string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sbomfinder",
	Short: "SBOM Finder CLI for browsing, comparing and uploading device SBOMs",
	Long: `A CLI tool for interacting with the SBOM Finder API.
Lists and searches devices, compares the SBOMs of two devices,
shows analytics and uploads sources, SBOMs or repositories.`,
	SilenceUsage: true,
}

func init() {
	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "SBOM Finder API URL (overrides "+config.EnvAPIURL+")")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newClient resolves the API URL from flags and config and builds a client
func newClient() (*backend.Client, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}

	logger := zap.NewNop()
	if verbose {
		logger = backend.InitLogger()
	}
	return backend.NewClient(cfg.APIURL, backend.WithLogger(logger)), logger, nil
}

// promptConfirmer asks a yes/no question on the terminal
type promptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newPromptConfirmer(cmd *cobra.Command) *promptConfirmer {
	return &promptConfirmer{in: bufio.NewReader(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

// Confirm returns true only for an explicit "y" or "yes"
func (p *promptConfirmer) Confirm(prompt string) bool {
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
