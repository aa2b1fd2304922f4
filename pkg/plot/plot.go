// Package plot renders omf/oma hourly series as a time-series chart.
package plot

import (
	"fmt"
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vjranagit/omfseries/pkg/types"
)

// Format selects the output encoding
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

const (
	defaultWidth  = 1000
	defaultHeight = 500

	boundScale   = 1.1
	flatBound    = 1.0
	maxXTicks    = 24
	tickTimeFmt  = "2006-01-02 15Z"
	noDataLabel  = "No Data"
	zeroRefLabel = "Zero"
)

// palette is cycled through by series index: blue, green, cyan, magenta, yellow, black
var palette = []drawing.Color{
	{R: 0, G: 0, B: 255, A: 255},
	{R: 0, G: 128, B: 0, A: 255},
	{R: 0, G: 191, B: 191, A: 255},
	{R: 191, G: 0, B: 191, A: 255},
	{R: 191, G: 191, B: 0, A: 255},
	{R: 0, G: 0, B: 0, A: 255},
}

var (
	highlightColor = drawing.Color{R: 255, G: 0, B: 0, A: 255}
	gridColor      = drawing.Color{R: 217, G: 217, B: 217, A: 255}
)

// Renderer draws series sets. The zero value renders a 1000x500 PNG and
// refuses input without finite values.
type Renderer struct {
	Width  int
	Height int
	Format Format

	// EmptyBound is the y half-range used when no series holds a finite
	// non-zero value. Zero makes that case an ErrNoFiniteValues error.
	EmptyBound float64
}

// Render writes the chart for set over timestamps to w
func (r *Renderer) Render(w io.Writer, set types.SeriesSet, timestamps []time.Time, variable string) error {
	ch, err := r.Chart(set, timestamps, variable)
	if err != nil {
		return err
	}

	provider := chart.PNG
	if r.Format == FormatSVG {
		provider = chart.SVG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// Chart builds a fresh chart for one render; nothing is shared between calls.
func (r *Renderer) Chart(set types.SeriesSet, timestamps []time.Time, variable string) (*chart.Chart, error) {
	info, err := LookupVariable(variable)
	if err != nil {
		return nil, err
	}
	if len(timestamps) == 0 {
		return nil, fmt.Errorf("%w: empty timestamp axis", types.ErrInvalidArgument)
	}
	for _, s := range set {
		if len(s.Values) != len(timestamps) {
			return nil, fmt.Errorf("%w: series %s has %d values for %d timestamps",
				types.ErrInvalidArgument, s.Label, len(s.Values), len(timestamps))
		}
	}

	bound, ok := YBound(set)
	switch {
	case !ok && r.EmptyBound <= 0:
		return nil, fmt.Errorf("%w: every %s value is missing", types.ErrNoFiniteValues, info.Variable)
	case !ok:
		bound = r.EmptyBound
	case bound == 0:
		bound = flatBound
		if r.EmptyBound > 0 {
			bound = r.EmptyBound
		}
	}

	xAxis, xMin, xMax := timeAxis(timestamps)

	var series, legend []chart.Series
	for i, s := range set {
		style := lineStyle(palette[i%len(palette)])
		for _, seg := range segments(timestamps, s.Values) {
			series = append(series, chart.TimeSeries{Name: string(s.Label), Style: style, XValues: seg.x, YValues: seg.y})
		}
		legend = append(legend, chart.TimeSeries{Name: string(s.Label), Style: style})
	}

	if missing := missingHours(set, timestamps); len(missing) > 0 {
		markers, key := noDataSeries(missing)
		series = append(series, markers)
		legend = append(legend, key)
	}

	zero := chart.ContinuousSeries{
		Name: zeroRefLabel,
		Style: chart.Style{
			StrokeColor:     highlightColor,
			StrokeWidth:     1,
			StrokeDashArray: []float64{5, 5},
		},
		XValues: []float64{xMin, xMax},
		YValues: []float64{0, 0},
	}
	series = append(series, zero)
	legend = append(legend, zero)

	width, height := r.Width, r.Height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	ch := &chart.Chart{
		Title:      info.Title(),
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 70}},
		XAxis:      xAxis,
		YAxis: chart.YAxis{
			Name:           info.Units,
			Range:          &chart.ContinuousRange{Min: -bound, Max: bound},
			GridMajorStyle: gridStyle(),
		},
		Series: series,
	}
	// The legend reads its entries from a separate chart so split line
	// segments and per-label no-data markers collapse into one entry each.
	entries := &chart.Chart{Series: legend}
	ch.Elements = []chart.Renderable{chart.Legend(entries)}
	return ch, nil
}

// YBound is 1.1 times the largest finite |value| across the set. It is false
// when no series holds a finite value, and zero when every finite value is 0.
func YBound(set types.SeriesSet) (float64, bool) {
	max, found := 0.0, false
	for _, s := range set {
		if m, ok := s.Values.MaxAbs(); ok {
			found = true
			if m > max {
				max = m
			}
		}
	}
	if !found {
		return 0, false
	}
	return max * boundScale, true
}

// noDataSeries returns the red markers at y=0 and their legend key. The legend
// draws a stroke, not dots, so the key carries the marker color as a line.
func noDataSeries(missing []time.Time) (markers, key chart.TimeSeries) {
	markers = chart.TimeSeries{
		Name:    noDataLabel,
		Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: 5, DotColor: highlightColor},
		XValues: missing,
		YValues: make([]float64, len(missing)),
	}
	key = chart.TimeSeries{
		Name:  noDataLabel,
		Style: chart.Style{StrokeColor: highlightColor, StrokeWidth: 5},
	}
	return markers, key
}

type segment struct {
	x []time.Time
	y []float64
}

// segments splits a series into runs of finite values so lines break at gaps
func segments(timestamps []time.Time, values types.HourlySeries) []segment {
	var out []segment
	var cur *segment
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			cur = nil
			continue
		}
		if cur == nil {
			out = append(out, segment{})
			cur = &out[len(out)-1]
		}
		cur.x = append(cur.x, timestamps[i])
		cur.y = append(cur.y, v)
	}
	return out
}

// missingHours lists, once each, the timestamps where any series is NaN
func missingHours(set types.SeriesSet, timestamps []time.Time) []time.Time {
	var out []time.Time
	for i, ts := range timestamps {
		for _, s := range set {
			if s.Values.Missing(i) {
				out = append(out, ts)
				break
			}
		}
	}
	return out
}

func timeAxis(timestamps []time.Time) (chart.XAxis, float64, float64) {
	first, last := timestamps[0], timestamps[len(timestamps)-1]
	hours := timestamps
	if !last.After(first) {
		first, last = first.Add(-time.Hour), last.Add(time.Hour)
		hours = []time.Time{first, timestamps[0], last}
	}

	step := (len(hours) + maxXTicks - 1) / maxXTicks
	ticks := make([]chart.Tick, 0, maxXTicks+1)
	for i := 0; i < len(hours); i += step {
		ticks = append(ticks, hourTick(hours[i]))
	}
	// go-chart takes the x range from the outermost ticks
	if (len(hours)-1)%step != 0 {
		ticks = append(ticks, hourTick(hours[len(hours)-1]))
	}

	xMin, xMax := chart.TimeToFloat64(first), chart.TimeToFloat64(last)
	return chart.XAxis{
		Ticks:          ticks,
		Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
		TickStyle:      chart.Style{TextRotationDegrees: 45.0},
		GridMajorStyle: gridStyle(),
	}, xMin, xMax
}

func hourTick(ts time.Time) chart.Tick {
	return chart.Tick{Value: chart.TimeToFloat64(ts), Label: ts.UTC().Format(tickTimeFmt)}
}

func lineStyle(c drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: c,
		StrokeWidth: 1.5,
		DotColor:    c,
		DotWidth:    3,
	}
}

func gridStyle() chart.Style {
	return chart.Style{StrokeColor: gridColor, StrokeWidth: 1.0}
}
