package diag

import (
	"fmt"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// variableSource is the part of api.Group the decoder needs
type variableSource interface {
	GetVariable(name string) (*api.Variable, error)
}

func decodeFile(source, staged string) (*Table, error) {
	nc, err := netcdf.Open(staged)
	if err != nil {
		return nil, fmt.Errorf("failed to open netcdf %s: %v", source, err)
	}
	defer nc.Close()

	table, err := decodeTable(nc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	table.Path = source
	return table, nil
}

func decodeTable(src variableSource) (*Table, error) {
	stations, err := column(src, VarStationID, toStrings)
	if err != nil {
		return nil, err
	}
	obsTypes, err := column(src, VarObservationType, toInts)
	if err != nil {
		return nil, err
	}
	omf, err := column(src, VarOmfAdjusted, toFloats)
	if err != nil {
		return nil, err
	}

	if len(stations) != len(omf) || len(obsTypes) != len(omf) {
		return nil, fmt.Errorf("column length mismatch: %s=%d %s=%d %s=%d",
			VarStationID, len(stations), VarObservationType, len(obsTypes), VarOmfAdjusted, len(omf))
	}

	rows := make([]Observation, len(omf))
	for i := range omf {
		rows[i] = Observation{
			StationID:   stations[i],
			ObsType:     obsTypes[i],
			OmfAdjusted: omf[i],
		}
	}
	return &Table{Rows: rows}, nil
}

func column[T any](src variableSource, name string, conv func(interface{}) ([]T, bool)) ([]T, error) {
	v, err := src.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", name, err)
	}
	if v == nil {
		return nil, fmt.Errorf("variable %s not found", name)
	}
	out, ok := conv(v.Values)
	if !ok {
		return nil, fmt.Errorf("variable %s: unsupported type %T", name, v.Values)
	}
	return out, nil
}

// toStrings handles char arrays, which the decoder returns as one string per
// row (or raw bytes, depending on how the file was written).
func toStrings(values interface{}) ([]string, bool) {
	var out []string
	switch vs := values.(type) {
	case []string:
		out = make([]string, len(vs))
		copy(out, vs)
	case string:
		out = []string{vs}
	case [][]byte:
		out = make([]string, len(vs))
		for i, b := range vs {
			out[i] = string(b)
		}
	default:
		return nil, false
	}
	for i, s := range out {
		out[i] = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	}
	return out, true
}

func toInts(values interface{}) ([]int, bool) {
	switch vs := values.(type) {
	case []int8:
		return convert(vs, func(v int8) int { return int(v) }), true
	case []int16:
		return convert(vs, func(v int16) int { return int(v) }), true
	case []int32:
		return convert(vs, func(v int32) int { return int(v) }), true
	case []int64:
		return convert(vs, func(v int64) int { return int(v) }), true
	case []uint8:
		return convert(vs, func(v uint8) int { return int(v) }), true
	case []uint16:
		return convert(vs, func(v uint16) int { return int(v) }), true
	case []uint32:
		return convert(vs, func(v uint32) int { return int(v) }), true
	}
	return nil, false
}

func toFloats(values interface{}) ([]float64, bool) {
	switch vs := values.(type) {
	case []float32:
		return convert(vs, func(v float32) float64 { return float64(v) }), true
	case []float64:
		return convert(vs, func(v float64) float64 { return v }), true
	}
	return nil, false
}

func convert[S, T any](in []S, f func(S) T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}
