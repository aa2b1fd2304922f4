package diag

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGzipReaderMissingFile(t *testing.T) {
	r := NewGzipReader(t.TempDir(), nil)

	_, err := r.Read(context.Background(), filepath.Join(t.TempDir(), "nope.nc4.gz"))

	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestGzipReaderCorruptFileIsNotNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "diag_conv_t_ges.2024010100.nc4.gz")

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte("definitely not netcdf"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	r := NewGzipReader(dir, nil)
	_, err = r.Read(context.Background(), path)

	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))

	// the staged copy is gone
	leftovers, err := filepath.Glob(filepath.Join(dir, "diag-*.nc4"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestGzipReaderMissingTempDirIsNotNotFound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.nc4")
	require.NoError(t, os.WriteFile(path, []byte("CDF"), 0o644))

	r := NewGzipReader(filepath.Join(dir, "missing"), nil)
	_, err := r.Read(context.Background(), path)

	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

// writeDiag writes a minimal conventional diag file of the given kind and
// gzips it to path.
func writeDiag(t *testing.T, kind netcdf.FileKind, path string) {
	t.Helper()

	raw := filepath.Join(t.TempDir(), "diag.nc4")
	w, err := netcdf.OpenWriter(raw, kind)
	require.NoError(t, err)

	attrs, err := util.NewOrderedMap(nil, nil)
	require.NoError(t, err)
	vars := []struct {
		name string
		vr   api.Variable
	}{
		{VarStationID, api.Variable{
			Values:     []string{"KDEN", "KBOU  ", "KSLC"},
			Dimensions: []string{"nobs", "nchars"},
			Attributes: attrs,
		}},
		{VarObservationType, api.Variable{
			Values:     []int32{181, 187, 181},
			Dimensions: []string{"nobs"},
			Attributes: attrs,
		}},
		{VarOmfAdjusted, api.Variable{
			Values:     []float32{1, 3, 5},
			Dimensions: []string{"nobs"},
			Attributes: attrs,
		}},
	}
	for _, v := range vars {
		if err := w.AddVar(v.name, v.vr); err != nil {
			_ = w.Close()
			t.Fatalf("AddVar %s: %v", v.name, err)
		}
	}
	require.NoError(t, w.Close())

	content, err := os.ReadFile(raw)
	require.NoError(t, err)
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestGzipReaderRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		kind netcdf.FileKind
	}{
		{"cdf", netcdf.KindCDF},
		{"hdf5", netcdf.KindHDF5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "diag_conv_t_ges.2024010100.nc4.gz")
			writeDiag(t, tc.kind, path)

			staging := t.TempDir()
			table, err := NewGzipReader(staging, nil).Read(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, path, table.Path)
			assert.Equal(t, []Observation{
				{StationID: "KDEN", ObsType: 181, OmfAdjusted: 1},
				{StationID: "KBOU", ObsType: 187, OmfAdjusted: 3},
				{StationID: "KSLC", ObsType: 181, OmfAdjusted: 5},
			}, table.Rows)

			leftovers, err := filepath.Glob(filepath.Join(staging, "diag-*.nc4"))
			require.NoError(t, err)
			assert.Empty(t, leftovers)

			f := NewFilter([]string{"KDEN", "KSLC"}, []int{181})
			assert.Equal(t, []float64{1, 5}, f.Apply(table))
		})
	}
}

func TestGzipReaderCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGzipReader("", nil).Read(ctx, "anything")

	assert.ErrorIs(t, err, context.Canceled)
}

type fakeVars map[string]interface{}

func (f fakeVars) GetVariable(name string) (*api.Variable, error) {
	v, ok := f[name]
	if !ok {
		return nil, errors.New("no such variable")
	}
	return &api.Variable{Values: v}, nil
}

func TestDecodeTable(t *testing.T) {
	src := fakeVars{
		VarStationID:       []string{"KDEN    ", "KBOU\x00\x00\x00\x00"},
		VarObservationType: []int32{181, 187},
		VarOmfAdjusted:     []float32{1.5, -0.5},
	}

	table, err := decodeTable(src)
	require.NoError(t, err)

	assert.Equal(t, []Observation{
		{StationID: "KDEN", ObsType: 181, OmfAdjusted: 1.5},
		{StationID: "KBOU", ObsType: 187, OmfAdjusted: -0.5},
	}, table.Rows)
}

func TestDecodeTableErrors(t *testing.T) {
	tests := []struct {
		name string
		src  fakeVars
	}{
		{
			name: "missing variable",
			src: fakeVars{
				VarStationID:       []string{"KDEN"},
				VarObservationType: []int32{181},
			},
		},
		{
			name: "unsupported type",
			src: fakeVars{
				VarStationID:       []string{"KDEN"},
				VarObservationType: []float64{181},
				VarOmfAdjusted:     []float32{1},
			},
		},
		{
			name: "length mismatch",
			src: fakeVars{
				VarStationID:       []string{"KDEN", "KBOU"},
				VarObservationType: []int16{181},
				VarOmfAdjusted:     []float64{1},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeTable(tc.src)
			require.Error(t, err)
			assert.False(t, errors.Is(err, fs.ErrNotExist))
		})
	}
}

func TestToStringsFromBytes(t *testing.T) {
	got, ok := toStrings([][]byte{[]byte("KDEN "), []byte(" KSLC")})

	require.True(t, ok)
	assert.Equal(t, []string{"KDEN", "KSLC"}, got)
}
