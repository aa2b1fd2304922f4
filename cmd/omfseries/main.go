package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vjranagit/omfseries/internal/config"
	"github.com/vjranagit/omfseries/internal/logging"
	"github.com/vjranagit/omfseries/pkg/api"
	"github.com/vjranagit/omfseries/pkg/diag"
	"github.com/vjranagit/omfseries/pkg/diagcache"
	"github.com/vjranagit/omfseries/pkg/pipeline"
	"github.com/vjranagit/omfseries/pkg/plot"
	"github.com/vjranagit/omfseries/pkg/series"
)

const appName = "omfseries"

// Overridden with -ldflags "-X main.version=..."
var version = "dev"

var (
	cfg    *config.Config
	logger *slog.Logger

	logLevel string

	plotVar      string
	plotMode     string
	plotStart    string
	plotEnd      string
	plotStations []string
	plotObsTypes []int
	plotOut      string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Time series of RTMA CONUS GSI omf/oma statistics",
	Long: `omfseries reads hourly GSI conventional diag files laid out as

  {root}/RTMA_CONUS.{YYYYMMDD}/{HH}/diag_conv_{var}_{anl|ges}.{YYYYMMDD}{HH}.nc4.gz

averages the adjusted omf/oma of the selected observations per hour and
plots the resulting series. Missing hours are drawn as "No Data" markers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("log-level") {
			level, err := config.ParseLogLevel(logLevel)
			if err != nil {
				return err
			}
			cfg.Log.Level = level
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger = logging.New(os.Stderr, cfg.Log, appName, version)
		slog.SetDefault(logger)
		return nil
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the omf/oma time series to an image file",
	Example: `  omfseries plot --root /data --var t --mode both --start 2024010100 --end 2024010123
  omfseries plot --var ps --mode ges --start "20240101 00" --end "20240102 00" --station KDEN --obs-type 181 --out ps.svg`,
	Args: cobra.NoArgs,
	RunE: runPlot,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve charts and series over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func main() {
	var err error
	cfg, err = config.DefaultConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", cfg.Log.Level.String(), "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "dev or json")
	rootCmd.PersistentFlags().StringVar(&cfg.Diag.Root, "root", cfg.Diag.Root, "directory holding the RTMA_CONUS.YYYYMMDD day directories")
	rootCmd.PersistentFlags().StringVar(&cfg.Diag.TempDir, "temp-dir", cfg.Diag.TempDir, "where decompressed diag files are staged")
	rootCmd.PersistentFlags().StringVar(&cfg.Cache.Dir, "cache-dir", cfg.Cache.Dir, "decoded-table cache directory (empty disables the cache)")
	rootCmd.PersistentFlags().Float64Var(&cfg.Chart.EmptyBound, "empty-bound", cfg.Chart.EmptyBound, "y half-range when every value is missing (0 fails instead)")
	rootCmd.PersistentFlags().IntVar(&cfg.Chart.Width, "width", cfg.Chart.Width, "chart width in pixels")
	rootCmd.PersistentFlags().IntVar(&cfg.Chart.Height, "height", cfg.Chart.Height, "chart height in pixels")

	plotCmd.Flags().StringVar(&plotVar, "var", "t", "variable: t, ps or q")
	plotCmd.Flags().StringVar(&plotMode, "mode", "both", "anl, ges or both")
	plotCmd.Flags().StringVar(&plotStart, "start", "", "first hour, YYYYMMDDHH")
	plotCmd.Flags().StringVar(&plotEnd, "end", "", "last hour, YYYYMMDDHH (inclusive)")
	plotCmd.Flags().StringArrayVar(&plotStations, "station", nil, "station id to keep (repeatable)")
	plotCmd.Flags().IntSliceVar(&plotObsTypes, "obs-type", nil, "observation type to keep (repeatable)")
	plotCmd.Flags().StringVarP(&plotOut, "out", "o", "", "output file, .png or .svg (default {var}_{mode}_{start}_{end}.png)")
	_ = plotCmd.MarkFlagRequired("start")
	_ = plotCmd.MarkFlagRequired("end")

	serveCmd.Flags().StringVar(&cfg.Server.ListenAddr, "addr", cfg.Server.ListenAddr, "listen address")

	rootCmd.AddCommand(plotCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger != nil {
			logger.Error("run failed", "err", err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

// newReader returns the diag reader, behind the cache when one is configured
func newReader() (diag.Reader, func() error, error) {
	var reader diag.Reader = diag.NewGzipReader(cfg.Diag.TempDir, logger)
	if !cfg.CacheEnabled() {
		return reader, func() error { return nil }, nil
	}

	cache, err := diagcache.Open(cfg.ToCacheConfig(), reader, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}
	logger.Info("diag cache enabled", "dir", cfg.Cache.Dir, "retention_days", cfg.Cache.RetentionDays)
	return cache, cache.Close, nil
}

func runPlot(cmd *cobra.Command, args []string) error {
	out := plotOut
	if out == "" {
		out = fmt.Sprintf("%s_%s_%s_%s.png", plotVar, plotMode, compact(plotStart), compact(plotEnd))
	}
	format := plot.FormatPNG
	if strings.EqualFold(filepath.Ext(out), ".svg") {
		format = plot.FormatSVG
	}

	reader, closeReader, err := newReader()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReader(); err != nil {
			logger.Error("cache close", "err", err)
		}
	}()

	renderer := cfg.ToRenderer(format)
	p := pipeline.New(reader, renderer, logger)
	req := pipeline.Request{
		Root:       cfg.Diag.Root,
		Var:        plotVar,
		Mode:       plotMode,
		Start:      series.Text(plotStart),
		End:        series.Text(plotEnd),
		StationIDs: plotStations,
		ObsTypes:   plotObsTypes,
	}

	// Collect first so argument errors never leave an empty output file behind
	result, err := p.Collect(cmd.Context(), req)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	renderErr := renderer.Render(f, result.Series, result.Timestamps, req.Var)
	closeErr := f.Close()
	if renderErr != nil {
		os.Remove(out)
		return renderErr
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write %s: %w", out, closeErr)
	}

	for _, ns := range result.Series {
		missing := 0
		for i := range ns.Values {
			if ns.Values.Missing(i) {
				missing++
			}
		}
		logger.Info("series extracted", "label", ns.Label, "hours", len(ns.Values), "missing", missing)
	}
	logger.Info("chart written", "path", out, "title", result.Variable.Title())
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	reader, closeReader, err := newReader()
	if err != nil {
		return err
	}
	defer func() {
		if err := closeReader(); err != nil {
			logger.Error("cache close", "err", err)
		}
	}()

	p := pipeline.New(reader, cfg.ToRenderer(plot.FormatPNG), logger)
	server := api.NewServer(cfg.Server.ListenAddr, cfg.Diag.Root, p, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.Server.ListenAddr, "root", cfg.Diag.Root)
		errCh <- server.Start()
	}()

	select {
	case <-cmd.Context().Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	logger.Info("shutdown signal received, stopping server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func compact(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "")
}
