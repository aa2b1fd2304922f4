package series

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"

	"github.com/vjranagit/omfseries/pkg/diag"
	"github.com/vjranagit/omfseries/pkg/types"
)

// Extractor reduces each diag file to the mean adjusted omf of its filtered rows
type Extractor struct {
	reader diag.Reader
	logger *slog.Logger
}

// NewExtractor creates an extractor over reader
func NewExtractor(reader diag.Reader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{reader: reader, logger: logger}
}

// Extract reads paths strictly in order and returns one value per path.
//
// A missing file yields NaN and extraction continues. Any other read error
// aborts the whole extraction. A file whose rows are all filtered out yields
// NaN, never zero.
func (e *Extractor) Extract(ctx context.Context, paths []string, filter diag.Filter) (types.HourlySeries, error) {
	values := make(types.HourlySeries, len(paths))

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := e.reader.Read(ctx, path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				e.logger.Debug("diag file not found", "path", path)
				values[i] = math.NaN()
				continue
			}
			e.logger.Error("unexpected error reading diag file", "path", path, "err", err)
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		omf := filter.Apply(table)
		if len(omf) == 0 {
			e.logger.Info("filter combination yields no results", "path", path, "rows", table.Len())
			values[i] = math.NaN()
			continue
		}
		values[i] = Mean(omf)
	}

	return values, nil
}

// Mean averages the non-NaN values; it is NaN when none remain
func Mean(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
