package backend

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ortelius/sbom-finder-dashboard/model"
)

// ListDevices fetches every device with packages and references (GET /api/devices/all)
func (c *Client) ListDevices(ctx context.Context) ([]model.Device, error) {
	var devices []model.Device
	if err := c.getJSON(ctx, "/api/devices/all", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// DeviceOptions fetches the id/name pairs used by the comparison dropdowns (GET /api/devices/list)
func (c *Client) DeviceOptions(ctx context.Context) ([]model.DeviceOption, error) {
	var options []model.DeviceOption
	if err := c.getJSON(ctx, "/api/devices/list", nil, &options); err != nil {
		return nil, err
	}
	return options, nil
}

// SearchDevices runs a server-side search. Every parameter is sent, empty ones match all.
func (c *Client) SearchDevices(ctx context.Context, f model.SearchFilter) ([]model.Device, error) {
	q := url.Values{}
	q.Set("query", strings.TrimSpace(f.Query))
	q.Set("manufacturer", strings.TrimSpace(f.Manufacturer))
	q.Set("operatingSystem", strings.TrimSpace(f.OperatingSystem))
	q.Set("category", strings.TrimSpace(f.Category))

	var devices []model.Device
	if err := c.getJSON(ctx, "/api/devices/search", q, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// DeviceDetails fetches a single device with packages, vulnerabilities and references
func (c *Client) DeviceDetails(ctx context.Context, deviceID string) (*model.Device, error) {
	var device model.Device
	path := "/api/devices/" + url.PathEscape(deviceID) + "/details"
	if err := c.getJSON(ctx, path, nil, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// CompareDevices fetches both devices in a single combined payload
func (c *Client) CompareDevices(ctx context.Context, device1ID, device2ID string) (*model.DeviceComparison, error) {
	q := url.Values{}
	q.Set("device1Id", device1ID)
	q.Set("device2Id", device2ID)

	var cmp model.DeviceComparison
	if err := c.getJSON(ctx, "/api/devices/compare", q, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// DeleteDevice removes a device and its SBOM (DELETE /api/sboms/{deviceId})
func (c *Client) DeleteDevice(ctx context.Context, deviceID int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.endpoint("/api/sboms/"+strconv.FormatInt(deviceID, 10), nil), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Archives lists archived SBOM versions grouped by device
func (c *Client) Archives(ctx context.Context) ([]model.ArchiveGroup, error) {
	var groups []model.ArchiveGroup
	if err := c.getJSON(ctx, "/api/devices/archives/all", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// DownloadURL builds the URL of a device's current SBOM in the given format
func (c *Client) DownloadURL(deviceID string, format model.SBOMFormat) string {
	q := url.Values{}
	q.Set("format", string(format))
	return c.endpoint("/api/devices/download/"+url.PathEscape(deviceID), q)
}

// ArchiveDownloadURL builds the URL of an archived SBOM version in the given format
func (c *Client) ArchiveDownloadURL(archiveID string, format model.SBOMFormat) string {
	q := url.Values{}
	q.Set("format", string(format))
	return c.endpoint("/api/devices/download/archive/"+url.PathEscape(archiveID), q)
}

// Download is an open SBOM download. Callers must close Body.
type Download struct {
	Filename string
	Body     io.ReadCloser
}

// Fetch opens a download URL produced by DownloadURL or ArchiveDownloadURL.
// The file name comes from the backend's Content-Disposition header.
func (c *Client) Fetch(ctx context.Context, downloadURL string) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}

	name := "sbom.json"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return &Download{Filename: name, Body: resp.Body}, nil
}
