package types

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidArgument reports a caller-supplied value outside its allowed set.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrParse reports a timestamp string that does not match YYYYMMDDHH.
	ErrParse = errors.New("parse error")
	// ErrUnknownVariable reports a variable with no display metadata.
	ErrUnknownVariable = errors.New("unknown variable")
	// ErrNoFiniteValues reports a series set with nothing to scale an axis by.
	ErrNoFiniteValues = errors.New("no finite values")
)

// Label names one series: guess (omf) or analysis (oma)
type Label string

const (
	LabelGuess    Label = "ges"
	LabelAnalysis Label = "anl"
)

// Mode selects which labels a run produces
type Mode string

const (
	ModeAnalysis Mode = "anl"
	ModeGuess    Mode = "ges"
	ModeBoth     Mode = "both"
)

// ParseMode validates a mode token
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAnalysis, ModeGuess, ModeBoth:
		return m, nil
	}
	return "", fmt.Errorf("%w: mode %q must be one of anl, ges, both", ErrInvalidArgument, s)
}

// Labels expands a mode into its labels, guess first
func (m Mode) Labels() []Label {
	switch m {
	case ModeGuess:
		return []Label{LabelGuess}
	case ModeAnalysis:
		return []Label{LabelAnalysis}
	case ModeBoth:
		return []Label{LabelGuess, LabelAnalysis}
	}
	return nil
}

// HourlySeries holds one value per timestamp. NaN marks a missing hour and
// must never take part in arithmetic.
type HourlySeries []float64

// Missing reports whether position i holds the no-data marker
func (s HourlySeries) Missing(i int) bool {
	return math.IsNaN(s[i])
}

// MaxAbs returns the largest finite absolute value, or false if there is none
func (s HourlySeries) MaxAbs() (float64, bool) {
	found := false
	max := 0.0
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if a := math.Abs(v); !found || a > max {
			max = a
		}
		found = true
	}
	return max, found
}

// Nullable converts the series for encodings without NaN (JSON)
func (s HourlySeries) Nullable() []*float64 {
	out := make([]*float64, len(s))
	for i, v := range s {
		if math.IsNaN(v) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

// NamedSeries is a labeled hourly series
type NamedSeries struct {
	Label  Label
	Values HourlySeries
}

// SeriesSet holds at most one series per label, all on one timestamp axis
type SeriesSet []NamedSeries

// Get returns the series stored under label
func (ss SeriesSet) Get(label Label) (HourlySeries, bool) {
	for _, s := range ss {
		if s.Label == label {
			return s.Values, true
		}
	}
	return nil, false
}

// Labels lists the labels in insertion order
func (ss SeriesSet) Labels() []Label {
	out := make([]Label, len(ss))
	for i, s := range ss {
		out[i] = s.Label
	}
	return out
}
