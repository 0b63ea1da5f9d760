// Package compare builds the side-by-side comparison of two devices and keeps
// the per-package visibility toggles of the rendered table.
package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ortelius/sbom-finder-dashboard/model"
	"go.uber.org/zap"
)

// ErrStale is returned when a newer Compare call superseded the response
var ErrStale = errors.New("superseded by a newer comparison")

// ValidationError reports a comparison that cannot be issued
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Fetcher loads both devices of a comparison in one backend call
type Fetcher interface {
	CompareDevices(ctx context.Context, device1ID, device2ID string) (*model.DeviceComparison, error)
}

// Engine holds the published comparison rows and their view state.
// It is safe for concurrent use.
type Engine struct {
	src    Fetcher
	logger *zap.Logger

	mu      sync.Mutex
	rows    []Row
	view    map[toggleKey]bool
	seq     uint64
	device1 string
	device2 string
}

// NewEngine creates an engine with no published comparison
func NewEngine(src Fetcher, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{src: src, logger: logger, view: map[toggleKey]bool{}}
}

// Compare fetches both devices and publishes one row per field.
// On any failure the previous rows and toggles stay untouched.
func (e *Engine) Compare(ctx context.Context, device1ID, device2ID string) ([]Row, error) {
	device1ID = strings.TrimSpace(device1ID)
	device2ID = strings.TrimSpace(device2ID)
	if device1ID == "" || device2ID == "" {
		return nil, &ValidationError{Message: "Select two devices to compare"}
	}

	e.mu.Lock()
	e.seq++
	seq := e.seq
	e.mu.Unlock()

	cmp, err := e.src.CompareDevices(ctx, device1ID, device2ID)
	if err != nil {
		e.logger.Sugar().Errorf("Error comparing SBOMs: %v", err)
		return nil, fmt.Errorf("failed to compare devices %s and %s: %w", device1ID, device2ID, err)
	}

	rows, err := BuildRows(cmp)
	if err != nil {
		e.logger.Sugar().Errorf("Error comparing SBOMs: %v", err)
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		e.logger.Sugar().Debugf("Discarding stale comparison %d (latest %d)", seq, e.seq)
		return nil, ErrStale
	}
	e.rows = rows
	e.view = map[toggleKey]bool{}
	e.device1, e.device2 = device1ID, device2ID

	return cloneRows(rows), nil
}

// Rows returns a copy of the published rows, nil before the first comparison
func (e *Engine) Rows() []Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRows(e.rows)
}

// Selection returns the device ids of the published comparison
func (e *Engine) Selection() (string, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device1, e.device2
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Field: r.Field, Device1: cloneValue(r.Device1), Device2: cloneValue(r.Device2)}
	}
	return out
}

func cloneValue(v Value) Value {
	c := v
	if v.Kind == KindPackages {
		c.Packages = model.ClonePackages(v.Packages)
	}
	c.References = model.CloneReferences(v.References)
	return c
}
