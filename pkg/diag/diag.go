// Package diag reads GSI conventional diagnostic files into observation
// tables and filters them.
package diag

import (
	"context"
	"fmt"
	"io/fs"
)

// Variable names in a GSI conventional diag file
const (
	VarStationID       = "Station_ID"
	VarObservationType = "Observation_Type"
	VarOmfAdjusted     = "Obs_Minus_Forecast_adjusted"
)

// Observation is one row of a diag file
type Observation struct {
	StationID   string
	ObsType     int
	OmfAdjusted float64
}

// Table is the decoded content of one diag file
type Table struct {
	Path string
	Rows []Observation
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Reader loads a diag file.
//
// A path that does not exist must yield an error wrapping fs.ErrNotExist;
// every other failure is unexpected. Implementations release all file
// handles before returning.
type Reader interface {
	Read(ctx context.Context, path string) (*Table, error)
}

// ReaderFunc adapts a function to Reader
type ReaderFunc func(ctx context.Context, path string) (*Table, error)

// Read implements Reader
func (f ReaderFunc) Read(ctx context.Context, path string) (*Table, error) {
	return f(ctx, path)
}

func notFound(path string) error {
	return fmt.Errorf("diag file %s: %w", path, fs.ErrNotExist)
}
