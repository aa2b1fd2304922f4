package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vjranagit/omfseries/pkg/pipeline"
	"github.com/vjranagit/omfseries/pkg/series"
	"github.com/vjranagit/omfseries/pkg/types"
)

// Server implements the HTTP API server
type Server struct {
	pipeline *pipeline.Pipeline
	root     string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates a new API server reading diag files under root
func NewServer(addr, root string, p *pipeline.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline: p,
		root:     root,
		logger:   logger,
	}
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}
	return s
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/plot", s.handlePlot)
	mux.HandleFunc("/api/v1/series", s.handleSeries)
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

// Start starts the HTTP server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handlePlot renders the chart as PNG
func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.parseRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Buffer so a failed render still gets a proper error status
	var buf bytes.Buffer
	if _, err := s.pipeline.Plot(r.Context(), req, &buf); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

type seriesResponse struct {
	Variable   string                `json:"variable"`
	Name       string                `json:"name"`
	Units      string                `json:"units"`
	Timestamps []time.Time           `json:"timestamps"`
	Series     map[string][]*float64 `json:"series"`
}

// handleSeries returns the extracted values as JSON; missing hours are null
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := s.parseRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.pipeline.Collect(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := seriesResponse{
		Variable:   string(result.Variable.Variable),
		Name:       result.Variable.Name,
		Units:      result.Variable.Units,
		Timestamps: result.Timestamps,
		Series:     make(map[string][]*float64, len(result.Series)),
	}
	for _, ns := range result.Series {
		resp.Series[string(ns.Label)] = ns.Values.Nullable()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	})
}

func (s *Server) parseRequest(r *http.Request) (pipeline.Request, error) {
	q := r.URL.Query()

	req := pipeline.Request{
		Root:       s.root,
		Var:        q.Get("var"),
		Mode:       q.Get("mode"),
		Start:      series.Text(q.Get("start")),
		End:        series.Text(q.Get("end")),
		StationIDs: q["station"],
	}
	if req.Mode == "" {
		req.Mode = string(types.ModeBoth)
	}

	for _, raw := range q["obs_type"] {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.Request{}, fmt.Errorf("%w: obs_type %q is not an integer", types.ErrInvalidArgument, raw)
		}
		req.ObsTypes = append(req.ObsTypes, v)
	}

	return req, nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrInvalidArgument),
		errors.Is(err, types.ErrParse),
		errors.Is(err, types.ErrUnknownVariable):
		status = http.StatusBadRequest
	case errors.Is(err, types.ErrNoFiniteValues):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}
