// Package catalog owns the device list shown by the dashboard and the CLI.
// It lists, searches and deletes devices through the backend and keeps the
// last result as a local cache that is invalidated on writes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ortelius/sbom-finder-dashboard/model"
	"go.uber.org/zap"
)

// DeletePrompt is the confirmation text shown before a device is deleted
const DeletePrompt = "Are you sure you want to delete this SBOM?"

// ErrStale is returned when a newer list or search superseded the response
var ErrStale = errors.New("superseded by a newer request")

// Source is the subset of the backend API the catalog needs
type Source interface {
	ListDevices(ctx context.Context) ([]model.Device, error)
	SearchDevices(ctx context.Context, f model.SearchFilter) ([]model.Device, error)
	DeleteDevice(ctx context.Context, deviceID int64) error
	DeviceOptions(ctx context.Context) ([]model.DeviceOption, error)
}

// Confirmer asks the user to approve a destructive action
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a plain function to Confirmer
type ConfirmFunc func(prompt string) bool

// Confirm calls f
func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Catalog is the owned device cache. It is safe for concurrent use.
type Catalog struct {
	src    Source
	logger *zap.Logger

	mu      sync.Mutex
	devices []model.Device
	filter  model.SearchFilter
	loaded  bool
	stale   bool
	seq     uint64
}

// New creates an empty catalog backed by src
func New(src Source, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{src: src, logger: logger}
}

// ListAll fetches every device, sorts by sbomId descending (newest ingest first)
// and replaces the cache. On failure the cache is left as it was.
func (c *Catalog) ListAll(ctx context.Context) ([]model.Device, error) {
	seq := c.begin()

	devices, err := c.src.ListDevices(ctx)
	if err != nil {
		c.logger.Sugar().Errorf("Error fetching devices: %v", err)
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	SortNewestFirst(devices)

	return c.publish(seq, devices, model.SearchFilter{})
}

// Search runs a server-side search and replaces the cache with the response verbatim.
// Empty filter values match every device for that dimension.
func (c *Catalog) Search(ctx context.Context, f model.SearchFilter) ([]model.Device, error) {
	seq := c.begin()

	devices, err := c.src.SearchDevices(ctx, f)
	if err != nil {
		c.logger.Sugar().Errorf("Search failed: %v", err)
		return nil, fmt.Errorf("failed to search devices: %w", err)
	}

	return c.publish(seq, devices, f)
}

// Reset clears the filter and restores the unfiltered list
func (c *Catalog) Reset(ctx context.Context) ([]model.Device, error) {
	c.mu.Lock()
	c.filter = model.SearchFilter{}
	c.mu.Unlock()

	return c.ListAll(ctx)
}

// Delete removes a device after confirm approves it. A declined confirmation
// makes no backend call and reports false. On success only that entry is
// dropped from the cache, and list or search responses still in flight are
// discarded as stale.
func (c *Catalog) Delete(ctx context.Context, deviceID int64, confirm Confirmer) (bool, error) {
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return false, nil
	}

	if err := c.src.DeleteDevice(ctx, deviceID); err != nil {
		c.logger.Sugar().Errorf("Failed to delete device %d: %v", deviceID, err)
		return false, fmt.Errorf("failed to delete device %d: %w", deviceID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// list responses fetched before the delete may still hold the device
	c.seq++
	for i := range c.devices {
		if c.devices[i].DeviceID == deviceID {
			c.devices = append(c.devices[:i:i], c.devices[i+1:]...)
			break
		}
	}
	return true, nil
}

// Invalidate marks the cache stale so the next Devices call refetches
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Devices returns the cached list, fetching the full list first when the cache
// was never loaded or has been invalidated. When that fetch fails the previous
// cache is returned with the error.
func (c *Catalog) Devices(ctx context.Context) ([]model.Device, error) {
	c.mu.Lock()
	fresh := c.loaded && !c.stale
	c.mu.Unlock()

	if !fresh {
		if _, err := c.ListAll(ctx); err != nil {
			return c.Snapshot(), err
		}
	}
	return c.Snapshot(), nil
}

// Snapshot returns a copy of the cached list without touching the backend
func (c *Catalog) Snapshot() []model.Device {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// Filter returns the filter of the last search, zero after ListAll or Reset
func (c *Catalog) Filter() model.SearchFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Newest returns the first cached device, the most recent ingest after ListAll
func (c *Catalog) Newest() (model.Device, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.devices) == 0 {
		return model.Device{}, false
	}
	return c.devices[0], true
}

// Options fetches the id/name pairs for the comparison dropdowns
func (c *Catalog) Options(ctx context.Context) ([]model.DeviceOption, error) {
	options, err := c.src.DeviceOptions(ctx)
	if err != nil {
		c.logger.Sugar().Errorf("Error fetching device options: %v", err)
		return nil, fmt.Errorf("failed to fetch device options: %w", err)
	}
	return options, nil
}

// SortNewestFirst orders devices by sbomId descending, keeping the backend
// order for equal ids
func SortNewestFirst(devices []model.Device) {
	sort.SliceStable(devices, func(i, j int) bool {
		return devices[i].SbomID > devices[j].SbomID
	})
}

func (c *Catalog) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

func (c *Catalog) publish(seq uint64, devices []model.Device, f model.SearchFilter) ([]model.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Sugar().Debugf("Discarding stale device list response %d (latest %d)", seq, c.seq)
		return nil, ErrStale
	}

	if devices == nil {
		devices = []model.Device{}
	}
	c.devices = devices
	c.filter = f
	c.loaded = true
	c.stale = false

	out := make([]model.Device, len(devices))
	copy(out, devices)
	return out, nil
}
