// Package pipeline wires path building, extraction and plotting into the
// omf/oma time-series run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/vjranagit/omfseries/pkg/diag"
	"github.com/vjranagit/omfseries/pkg/plot"
	"github.com/vjranagit/omfseries/pkg/series"
	"github.com/vjranagit/omfseries/pkg/types"
)

// Request describes one time-series run
type Request struct {
	Root       string
	Var        string
	Mode       string
	Start      series.Bound
	End        series.Bound
	StationIDs []string
	ObsTypes   []int
}

// Result is the extracted data for a request, ready to plot
type Result struct {
	Variable   plot.VariableInfo
	Timestamps []time.Time
	Series     types.SeriesSet
}

// Pipeline runs requests against a diag reader. It keeps no state between runs.
type Pipeline struct {
	reader   diag.Reader
	renderer *plot.Renderer
	logger   *slog.Logger
}

// New creates a pipeline
func New(reader diag.Reader, renderer *plot.Renderer, logger *slog.Logger) *Pipeline {
	if renderer == nil {
		renderer = &plot.Renderer{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{reader: reader, renderer: renderer, logger: logger}
}

// Collect validates req and extracts one series per requested label.
// Argument errors are returned before any file is read.
func (p *Pipeline) Collect(ctx context.Context, req Request) (*Result, error) {
	mode, err := types.ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}

	start, err := req.Start.Resolve()
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := req.End.Resolve()
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	info, err := plot.LookupVariable(req.Var)
	if err != nil {
		return nil, err
	}

	tr, err := series.NewTimeRange(start, end)
	if err != nil {
		return nil, err
	}
	timestamps := tr.Hours()

	filter := diag.NewFilter(req.StationIDs, req.ObsTypes)
	extractor := series.NewExtractor(p.reader, p.logger)

	result := &Result{Variable: info, Timestamps: timestamps}
	for _, label := range mode.Labels() {
		paths := series.BuildPaths(req.Root, req.Var, label, timestamps)

		p.logger.Info("extracting series",
			"var", req.Var,
			"label", label,
			"start", start.Format(series.TimestampLayout),
			"end", end.Format(series.TimestampLayout),
			"hours", len(paths),
		)

		values, err := extractor.Extract(ctx, paths, filter)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", label, err)
		}
		result.Series = append(result.Series, types.NamedSeries{Label: label, Values: values})
	}

	return result, nil
}

// Plot runs req and renders the chart to w
func (p *Pipeline) Plot(ctx context.Context, req Request, w io.Writer) (*Result, error) {
	result, err := p.Collect(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := p.renderer.Render(w, result.Series, result.Timestamps, req.Var); err != nil {
		return result, err
	}
	return result, nil
}
