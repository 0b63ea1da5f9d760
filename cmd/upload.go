package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ortelius/sbom-finder-dashboard/catalog"
	"github.com/ortelius/sbom-finder-dashboard/upload"
	"github.com/spf13/cobra"
)

var (
	uploadKind     string
	uploadFile     string
	uploadRepo     string
	uploadCategory string
	uploadName     string
	uploadMaker    string
	uploadOS       string
	uploadOSVer    string
	uploadKernel   string
)

// uploadCmd sends a source archive, SBOM, dependency file or repository
var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload a device source, SBOM, dependency file or repository",
	Long: `Validates the form locally and sends it to the SBOM Finder API.
Pressing Ctrl+C while the upload runs asks before abandoning it.`,
	Args: cobra.NoArgs,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().StringVarP(&uploadKind, "kind", "k", string(upload.KindSource), "What to upload (source, sbom, dependency, repo)")
	uploadCmd.Flags().StringVarP(&uploadFile, "file", "f", "", "Path to the file to upload")
	uploadCmd.Flags().StringVar(&uploadRepo, "repo", "", "Repository URL (kind repo)")
	uploadCmd.Flags().StringVarP(&uploadCategory, "category", "c", "", "Device category (Fitness Wearables, Smart Home)")
	uploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "Device name")
	uploadCmd.Flags().StringVar(&uploadMaker, "manufacturer", "", "Manufacturer")
	uploadCmd.Flags().StringVar(&uploadOS, "os", "", "Operating system")
	uploadCmd.Flags().StringVar(&uploadOSVer, "os-version", "", "Operating system version")
	uploadCmd.Flags().StringVar(&uploadKernel, "kernel", "", "Kernel version")
}

func runUpload(cmd *cobra.Command, args []string) error {
	kind, err := upload.ParseKind(uploadKind)
	if err != nil {
		return err
	}

	form := upload.Form{
		Kind:            kind,
		Category:        uploadCategory,
		DeviceName:      uploadName,
		Manufacturer:    uploadMaker,
		OperatingSystem: uploadOS,
		OsVersion:       uploadOSVer,
		KernelVersion:   uploadKernel,
		RepoURL:         uploadRepo,
	}

	if kind != upload.KindRepo && uploadFile != "" {
		f, err := os.Open(uploadFile)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", uploadFile, err)
		}
		defer f.Close()
		form.FileName = filepath.Base(uploadFile)
		form.File = f
	}

	// fail before dialing the API when the form is incomplete
	if err := form.Validate(); err != nil {
		return err
	}

	api, logger, err := newClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	guard := newSpinnerGuard(cmd.ErrOrStderr(), newPromptConfirmer(cmd), cancel)
	res, err := upload.NewCoordinator(api, nil, logger).Submit(ctx, &form, guard)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("upload abandoned")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", res.Message)
	return nil
}

// spinnerGuard shows a spinner while an upload runs and asks for
// confirmation before an interrupt abandons it
type spinnerGuard struct {
	s       *spinner.Spinner
	confirm catalog.Confirmer
	cancel  context.CancelFunc

	mu   sync.Mutex
	sigs chan os.Signal
	done chan struct{}
}

func newSpinnerGuard(w io.Writer, confirm catalog.Confirmer, cancel context.CancelFunc) *spinnerGuard {
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " Uploading, please wait..."
	return &spinnerGuard{s: s, confirm: confirm, cancel: cancel}
}

// Acquire starts the spinner and takes over SIGINT
func (g *spinnerGuard) Acquire() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sigs = make(chan os.Signal, 1)
	g.done = make(chan struct{})
	signal.Notify(g.sigs, os.Interrupt)
	g.s.Start()
	go g.watch(g.sigs, g.done)
}

func (g *spinnerGuard) watch(sigs <-chan os.Signal, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-sigs:
			g.s.Stop()
			if g.confirm.Confirm(upload.LeavePrompt) {
				g.cancel()
				return
			}
			select {
			case <-done:
				return
			default:
				g.s.Start()
			}
		}
	}
}

// Release stops the spinner and restores default SIGINT handling
func (g *spinnerGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.done == nil {
		return
	}
	signal.Stop(g.sigs)
	close(g.done)
	g.done = nil
	g.s.Stop()
}
