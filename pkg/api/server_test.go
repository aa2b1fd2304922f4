package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/omfseries/pkg/diag"
	"github.com/vjranagit/omfseries/pkg/pipeline"
)

func newTestServer(tables map[string]*diag.Table, failing map[string]error) *Server {
	reader := diag.ReaderFunc(func(_ context.Context, path string) (*diag.Table, error) {
		if err, ok := failing[path]; ok {
			return nil, err
		}
		if t, ok := tables[path]; ok {
			return t, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	})
	return NewServer(":0", "/diag", pipeline.New(reader, nil, nil), nil)
}

func obs(values ...float64) *diag.Table {
	t := &diag.Table{}
	for _, v := range values {
		t.Rows = append(t.Rows, diag.Observation{StationID: "KDEN", ObsType: 181, OmfAdjusted: v})
	}
	return t
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(nil, nil).Handler(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestSeriesEndpoint(t *testing.T) {
	srv := newTestServer(map[string]*diag.Table{
		"/diag/RTMA_CONUS.20240101/00/diag_conv_t_ges.2024010100.nc4.gz": obs(1, 3),
		"/diag/RTMA_CONUS.20240101/01/diag_conv_t_anl.2024010101.nc4.gz": obs(-2),
	}, nil)

	rec := get(t, srv.Handler(), "/api/v1/series?var=t&mode=both&start=2024010100&end=2024010101&station=KDEN&obs_type=181")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Variable   string                `json:"variable"`
		Units      string                `json:"units"`
		Timestamps []string              `json:"timestamps"`
		Series     map[string][]*float64 `json:"series"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.Equal(t, "t", resp.Variable)
	assert.Equal(t, "Degrees Fahrenheit", resp.Units)
	assert.Len(t, resp.Timestamps, 2)

	require.Len(t, resp.Series["ges"], 2)
	require.NotNil(t, resp.Series["ges"][0])
	assert.Equal(t, 2.0, *resp.Series["ges"][0])
	assert.Nil(t, resp.Series["ges"][1])

	require.Len(t, resp.Series["anl"], 2)
	assert.Nil(t, resp.Series["anl"][0])
	require.NotNil(t, resp.Series["anl"][1])
	assert.Equal(t, -2.0, *resp.Series["anl"][1])
}

func TestPlotEndpoint(t *testing.T) {
	srv := newTestServer(map[string]*diag.Table{
		"/diag/RTMA_CONUS.20240101/00/diag_conv_ps_ges.2024010100.nc4.gz": obs(120, 80),
	}, nil)

	rec := get(t, srv.Handler(), "/api/v1/plot?var=ps&mode=ges&start=2024010100&end=2024010103")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(nil, map[string]error{
		"/diag/RTMA_CONUS.20240101/00/diag_conv_t_ges.2024010100.nc4.gz": errors.New("corrupt"),
	})
	h := srv.Handler()

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"bad mode", "/api/v1/series?var=t&mode=xyz&start=2024010100&end=2024010101", http.StatusBadRequest},
		{"bad time", "/api/v1/series?var=t&mode=ges&start=yesterday&end=2024010101", http.StatusBadRequest},
		{"unknown var", "/api/v1/plot?var=uv&mode=ges&start=2024010100&end=2024010101", http.StatusBadRequest},
		{"bad obs type", "/api/v1/series?var=t&obs_type=abc&start=2024010100&end=2024010101", http.StatusBadRequest},
		{"all missing", "/api/v1/plot?var=q&mode=anl&start=2024010100&end=2024010101", http.StatusUnprocessableEntity},
		{"read failure", "/api/v1/series?var=t&mode=ges&start=2024010100&end=2024010101", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, get(t, h, tc.target).Code)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(nil, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/plot", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
