package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// UploadEndpoint is one of the backend's ingest routes under /api/sboms
type UploadEndpoint string

const (
	// UploadSource ingests a firmware/source archive.
	UploadSource UploadEndpoint = "upload-source"
	// UploadSBOM ingests an existing SBOM document.
	UploadSBOM UploadEndpoint = "upload-sbom"
	// UploadDependency ingests a single dependency manifest.
	UploadDependency UploadEndpoint = "upload-dependency"
	// FromRepo generates an SBOM from a repository URL.
	FromRepo UploadEndpoint = "from-repo"
)

// FormField is a plain multipart form value
type FormField struct {
	Name  string
	Value string
}

// FilePart is the file attached to a multipart upload
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// RepoRequest is the JSON body of POST /api/sboms/from-repo
type RepoRequest struct {
	RepoURL         string `json:"repoUrl"`
	Category        string `json:"category"`
	DeviceName      string `json:"deviceName"`
	Manufacturer    string `json:"manufacturer"`
	OperatingSystem string `json:"operatingSystem"`
	OsVersion       string `json:"osVersion"`
	KernelVersion   string `json:"kernelVersion"`
}

// UploadMultipart posts fields and file to /api/sboms/{endpoint} and returns
// the backend's response text
func (c *Client) UploadMultipart(ctx context.Context, endpoint UploadEndpoint, fields []FormField, file FilePart) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, fields, file)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/sboms/"+string(endpoint), nil), pr)
	if err != nil {
		pr.CloseWithError(err)
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.readText(req)
}

func writeMultipart(mw *multipart.Writer, fields []FormField, file FilePart) error {
	for _, f := range fields {
		if err := mw.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", f.Name, err)
		}
	}
	part, err := mw.CreateFormFile(file.Field, file.Filename)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return fmt.Errorf("failed to stream %s: %w", file.Filename, err)
	}
	return nil
}

// GenerateFromRepo asks the backend to build an SBOM from a repository
func (c *Client) GenerateFromRepo(ctx context.Context, body RepoRequest) (string, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("/api/sboms/"+string(FromRepo), nil), bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.readText(req)
}

func (c *Client) readText(req *http.Request) (string, error) {
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}
