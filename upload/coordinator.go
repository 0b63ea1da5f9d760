package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/ortelius/sbom-finder-dashboard/backend"
	"go.uber.org/zap"
)

// SuccessRedirect is where the dashboard goes after an upload, highlighting the newest device
const SuccessRedirect = "/device-list?highlight=latest"

// LeavePrompt is the navigation warning shown while an upload is in flight
const LeavePrompt = "Upload is in progress. Are you sure you want to leave?"

// maxSBOMSize caps SBOM documents read into memory for the format check
const maxSBOMSize = 64 << 20

// ErrInProgress is returned when a second upload starts before the first finished
var ErrInProgress = errors.New("an upload is already in progress")

// Submitter is the subset of the backend API used for uploads
type Submitter interface {
	UploadMultipart(ctx context.Context, endpoint backend.UploadEndpoint, fields []backend.FormField, file backend.FilePart) (string, error)
	GenerateFromRepo(ctx context.Context, body backend.RepoRequest) (string, error)
}

// Invalidator is told when a write made cached device lists stale
type Invalidator interface {
	Invalidate()
}

// Guard is held for the duration of a request: the dashboard shows the
// in-progress banner and leave prompt, the CLI a spinner.
type Guard interface {
	Acquire()
	Release()
}

// NopGuard does nothing
type NopGuard struct{}

// Acquire implements Guard
func (NopGuard) Acquire() {}

// Release implements Guard
func (NopGuard) Release() {}

// Result is a successful upload
type Result struct {
	Message  string
	Redirect string
}

// Coordinator submits validated forms and serialises uploads
type Coordinator struct {
	src     Submitter
	catalog Invalidator
	logger  *zap.Logger

	busy atomic.Bool
}

// NewCoordinator creates a coordinator. catalog may be nil.
func NewCoordinator(src Submitter, catalog Invalidator, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{src: src, catalog: catalog, logger: logger}
}

// InFlight reports whether an upload is running
func (c *Coordinator) InFlight() bool {
	return c.busy.Load()
}

// Submit validates form and sends it. Validation failures return
// *ValidationError without any request. On success the form is cleared and the
// catalog invalidated; on failure the form is left as it was and the error
// carries the server's text (see backend.UserMessage).
func (c *Coordinator) Submit(ctx context.Context, form *Form, guard Guard) (Result, error) {
	if err := form.Validate(); err != nil {
		return Result{}, err
	}

	if !c.busy.CompareAndSwap(false, true) {
		return Result{}, ErrInProgress
	}
	defer c.busy.Store(false)

	if guard == nil {
		guard = NopGuard{}
	}
	guard.Acquire()
	defer guard.Release()

	msg, err := c.send(ctx, form)
	if err != nil {
		c.logger.Sugar().Errorf("Upload Error: %v", err)
		return Result{}, err
	}

	c.logger.Sugar().Infof("Uploaded %s for device %s", form.Kind, form.DeviceName)
	form.Clear()
	if c.catalog != nil {
		c.catalog.Invalidate()
	}
	return Result{Message: msg, Redirect: SuccessRedirect}, nil
}

func (c *Coordinator) send(ctx context.Context, form *Form) (string, error) {
	if form.Kind == KindRepo {
		return c.src.GenerateFromRepo(ctx, backend.RepoRequest{
			RepoURL:         strings.TrimSpace(form.RepoURL),
			Category:        strings.TrimSpace(form.Category),
			DeviceName:      strings.TrimSpace(form.DeviceName),
			Manufacturer:    orUnknown(form.Manufacturer, UnknownManufacturer),
			OperatingSystem: orUnknown(form.OperatingSystem, UnknownOS),
			OsVersion:       orUnknown(form.OsVersion, UnknownVersion),
			KernelVersion:   orUnknown(form.KernelVersion, UnknownKernel),
		})
	}

	endpoint, field := backend.UploadSource, "file"
	content := form.File
	switch form.Kind {
	case KindSBOM:
		endpoint, field = backend.UploadSBOM, "sbomFile"
		doc, err := CheckSBOM(form.File)
		if err != nil {
			return "", err
		}
		content = bytes.NewReader(doc)
	case KindDependency:
		endpoint = backend.UploadDependency
	}

	return c.src.UploadMultipart(ctx, endpoint, metadata(form), backend.FilePart{
		Field:    field,
		Filename: strings.TrimSpace(form.FileName),
		Content:  content,
	})
}

func metadata(form *Form) []backend.FormField {
	return []backend.FormField{
		{Name: "category", Value: strings.TrimSpace(form.Category)},
		{Name: "deviceName", Value: strings.TrimSpace(form.DeviceName)},
		{Name: "manufacturer", Value: orUnknown(form.Manufacturer, UnknownManufacturer)},
		{Name: "operatingSystem", Value: orUnknown(form.OperatingSystem, UnknownOS)},
		{Name: "osVersion", Value: orUnknown(form.OsVersion, UnknownVersion)},
		{Name: "kernelVersion", Value: orUnknown(form.KernelVersion, UnknownKernel)},
	}
}

// CheckSBOM reads an SBOM document and makes sure it is CycloneDX or SPDX JSON.
// It returns the document bytes for the upload.
func CheckSBOM(r io.Reader) ([]byte, error) {
	doc, err := io.ReadAll(io.LimitReader(r, maxSBOMSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read SBOM file: %w", err)
	}
	if len(doc) > maxSBOMSize {
		return nil, &ValidationError{Field: "FileName", Message: "SBOM file is too large."}
	}

	var header struct {
		BOMFormat   string `json:"bomFormat"`
		SPDXVersion string `json:"spdxVersion"`
	}
	if err := json.Unmarshal(doc, &header); err != nil {
		return nil, &ValidationError{Field: "FileName", Message: "SBOM file is not valid JSON."}
	}

	switch {
	case header.SPDXVersion != "":
		return doc, nil
	case strings.EqualFold(header.BOMFormat, "CycloneDX"):
		var bom cdx.BOM
		if err := cdx.NewBOMDecoder(bytes.NewReader(doc), cdx.BOMFileFormatJSON).Decode(&bom); err != nil {
			return nil, &ValidationError{Field: "FileName", Message: "CycloneDX document could not be parsed."}
		}
		return doc, nil
	}
	return nil, &ValidationError{Field: "FileName", Message: "File is neither a CycloneDX nor an SPDX document."}
}
