package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleTable() *Table {
	return &Table{
		Path: "sample.nc4.gz",
		Rows: []Observation{
			{StationID: "KDEN", ObsType: 181, OmfAdjusted: 1.0},
			{StationID: "KBOU", ObsType: 181, OmfAdjusted: 2.0},
			{StationID: "KDEN", ObsType: 187, OmfAdjusted: 3.0},
			{StationID: "KSLC", ObsType: 120, OmfAdjusted: 4.0},
		},
	}
}

func TestFilterApply(t *testing.T) {
	tests := []struct {
		name     string
		stations []string
		obsTypes []int
		want     []float64
	}{
		{name: "no filters", want: []float64{1, 2, 3, 4}},
		{name: "station only", stations: []string{"KDEN"}, want: []float64{1, 3}},
		{name: "obs type only", obsTypes: []int{181}, want: []float64{1, 2}},
		{name: "both filters are ANDed", stations: []string{"KDEN"}, obsTypes: []int{187}, want: []float64{3}},
		{name: "nothing matches", stations: []string{"KXXX"}, want: nil},
		{name: "disjoint filters", stations: []string{"KSLC"}, obsTypes: []int{181}, want: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewFilter(tc.stations, tc.obsTypes).Apply(sampleTable())
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFilterApplyAcrossTables(t *testing.T) {
	second := &Table{Rows: []Observation{{StationID: "KDEN", ObsType: 181, OmfAdjusted: 9.0}}}

	got := NewFilter([]string{"KDEN"}, []int{181}).Apply(sampleTable(), nil, second)

	assert.Equal(t, []float64{1, 9}, got)
}
