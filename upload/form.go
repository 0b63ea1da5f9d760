// Package upload validates and submits new device SBOMs to the backend.
package upload

import (
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ortelius/sbom-finder-dashboard/util"
)

var v = validator.New()

// Kind selects what is uploaded and which backend route ingests it
type Kind string

const (
	// KindSource is a firmware or source archive.
	KindSource Kind = "source"
	// KindSBOM is an existing CycloneDX or SPDX JSON document.
	KindSBOM Kind = "sbom"
	// KindDependency is a single dependency manifest.
	KindDependency Kind = "dependency"
	// KindRepo generates the SBOM from a repository URL.
	KindRepo Kind = "repo"
)

// Kinds lists every upload kind
var Kinds = []Kind{KindSource, KindSBOM, KindDependency, KindRepo}

// ParseKind validates a kind name; empty means a source archive
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindSource, nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", &ValidationError{Field: "Kind", Message: "Unknown upload type: " + s}
}

// Categories are the device categories offered by the upload form
var Categories = []string{"Fitness Wearables", "Smart Home"}

// ArchiveExtensions are accepted for source uploads
var ArchiveExtensions = []string{".zip", ".tar", ".tar.gz", ".tgz"}

// Fallbacks sent for optional metadata left blank
const (
	UnknownManufacturer = "Unknown Manufacturer"
	UnknownOS           = "Unknown OS"
	UnknownVersion      = "Unknown Version"
	UnknownKernel       = "Unknown Kernel"
)

// Form is the upload form. File is streamed to the backend and never kept
// after a successful submit.
type Form struct {
	Kind            Kind   `validate:"required,oneof=source sbom dependency repo"`
	Category        string `validate:"required"`
	DeviceName      string `validate:"required"`
	Manufacturer    string
	OperatingSystem string
	OsVersion       string
	KernelVersion   string
	RepoURL         string `validate:"required_if=Kind repo"`
	FileName        string `validate:"required_unless=Kind repo"`

	File io.Reader `validate:"-"`
}

// Clear resets every input except the upload kind
func (f *Form) Clear() {
	*f = Form{Kind: f.Kind}
}

// ValidationError is a form problem found before any request is sent
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var fieldMessages = map[string]string{
	"Kind":       "Please choose what to upload.",
	"Category":   "Please select a category.",
	"DeviceName": "Please enter a device name.",
	"RepoURL":    "Please enter a GitHub repo URL.",
	"FileName":   "Please select a file to upload.",
}

// Validate checks required fields, the repository URL and the file extension
func (f *Form) Validate() error {
	trimmed := *f
	trimmed.Category = strings.TrimSpace(f.Category)
	trimmed.DeviceName = strings.TrimSpace(f.DeviceName)
	trimmed.RepoURL = strings.TrimSpace(f.RepoURL)
	trimmed.FileName = strings.TrimSpace(f.FileName)

	if err := v.Struct(trimmed); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()
			return &ValidationError{Field: field, Message: fieldMessages[field]}
		}
		return err
	}

	switch f.Kind {
	case KindRepo:
		if err := v.Var(trimmed.RepoURL, "url"); err != nil {
			return &ValidationError{Field: "RepoURL", Message: "Please enter a valid repository URL."}
		}
	case KindSource:
		if !HasArchiveExtension(trimmed.FileName) {
			return &ValidationError{Field: "FileName",
				Message: "Please select a .zip, .tar, .tar.gz or .tgz archive."}
		}
	case KindSBOM:
		if !strings.EqualFold(filepath.Ext(trimmed.FileName), ".json") {
			return &ValidationError{Field: "FileName", Message: "Please select a JSON SBOM file."}
		}
	}

	if f.Kind != KindRepo && f.File == nil {
		return &ValidationError{Field: "FileName", Message: fieldMessages["FileName"]}
	}
	return nil
}

// HasArchiveExtension reports whether name ends in an accepted archive extension
func HasArchiveExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range ArchiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func orUnknown(value, fallback string) string {
	return util.GetStringOrDefault(strings.TrimSpace(value), fallback)
}
