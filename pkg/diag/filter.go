package diag

// Filter keeps rows by station id and observation type. A nil set places no
// restriction on its dimension; both sets must match for a row to be kept.
type Filter struct {
	stations map[string]struct{}
	obsTypes map[int]struct{}
}

// NewFilter builds a filter. Empty slices mean "no restriction".
func NewFilter(stationIDs []string, obsTypes []int) Filter {
	var f Filter
	if len(stationIDs) > 0 {
		f.stations = make(map[string]struct{}, len(stationIDs))
		for _, id := range stationIDs {
			f.stations[id] = struct{}{}
		}
	}
	if len(obsTypes) > 0 {
		f.obsTypes = make(map[int]struct{}, len(obsTypes))
		for _, t := range obsTypes {
			f.obsTypes[t] = struct{}{}
		}
	}
	return f
}

// Match reports whether the row passes both filters
func (f Filter) Match(o Observation) bool {
	if f.stations != nil {
		if _, ok := f.stations[o.StationID]; !ok {
			return false
		}
	}
	if f.obsTypes != nil {
		if _, ok := f.obsTypes[o.ObsType]; !ok {
			return false
		}
	}
	return true
}

// Apply returns the adjusted omf of every matching row, table by table
func (f Filter) Apply(tables ...*Table) []float64 {
	var out []float64
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, row := range t.Rows {
			if f.Match(row) {
				out = append(out, row.OmfAdjusted)
			}
		}
	}
	return out
}
