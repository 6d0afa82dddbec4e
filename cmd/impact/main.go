package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-impact-engine/internal/adapter/facilities"
	"github.com/couchcryptid/storm-impact-engine/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/storm-impact-engine/internal/adapter/kafka"
	"github.com/couchcryptid/storm-impact-engine/internal/adapter/store"
	"github.com/couchcryptid/storm-impact-engine/internal/adapter/warehouse"
	"github.com/couchcryptid/storm-impact-engine/internal/adapter/zonal"
	"github.com/couchcryptid/storm-impact-engine/internal/config"
	"github.com/couchcryptid/storm-impact-engine/internal/observability"
	"github.com/couchcryptid/storm-impact-engine/internal/pipeline"
)

// Exit codes: 1 startup or run failure, 2 one or more regions failed.
const (
	exitOK         = 0
	exitFailure    = 1
	exitPartialRun = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	mode := flag.String("mode", string(pipeline.ModeUpdate), "run mode: initialize or update")
	regionsFlag := flag.String("regions", "", "comma-separated region codes, overriding DEFAULT_REGIONS")
	zoom := flag.Int("zoom", 0, "analysis zoom level, overriding ZOOM_LEVEL")
	storm := flag.String("storm", "", "restrict the run to one storm id")
	date := flag.String("date", "", "restrict the run to forecasts issued on one UTC day (YYYY-MM-DD)")
	lookback := flag.Int("lookback", 0, "forecast lookback in days, overriding LOOKBACK_DAYS")
	force := flag.Bool("force", false, "reprocess forecasts already marked done")
	flag.Parse()

	// Optional .env for local runs; real deployments set the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitFailure
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if cfg.WarehouseDSN == "" {
		logger.Error("WAREHOUSE_DSN is required")
		return exitFailure
	}
	wh, err := warehouse.New(cfg.WarehouseDSN, logger, metrics.WarehouseQueries)
	if err != nil {
		logger.Error("connecting to warehouse failed", "error", err)
		return exitFailure
	}
	defer wh.Close()

	dataStore, err := store.New(cfg.DataDir)
	if err != nil {
		logger.Error("opening data store failed", "error", err)
		return exitFailure
	}

	zoneClient := zonal.NewClient(cfg.ZonalBaseURL, cfg.FetchTimeout, logger)
	facilityClient := facilities.NewClient(cfg.SchoolAPIBaseURL, cfg.HealthAPIBaseURL, cfg.FetchTimeout, dataStore, logger)

	var publisher pipeline.ReportPublisher
	var writer *kafkaadapter.Writer
	if cfg.PublishEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("report publishing enabled", "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("report publishing disabled, no brokers configured")
	}

	engine := pipeline.New(wh, zoneClient, facilityClient, dataStore, publisher, zonal.CentroidCounter{}, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, engine, engine, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	opts, err := buildOptions(cfg, *mode, *regionsFlag, *zoom, *storm, *date, *lookback, *force)
	if err != nil {
		logger.Error("invalid options", "error", err)
		return exitFailure
	}

	summary, runErr := engine.Run(ctx, opts)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		return exitFailure
	}
	if summary.RegionsFailed > 0 {
		logger.Warn("run finished with region failures",
			"failed", summary.RegionsFailed,
			"reports_written", summary.ReportsWritten)
		return exitPartialRun
	}
	logger.Info("run complete",
		"reports_written", summary.ReportsWritten,
		"regions_affected", summary.RegionsAffected)
	return exitOK
}

func buildOptions(cfg *config.Config, mode, regionsFlag string, zoom int, storm, date string, lookbackDays int, force bool) (pipeline.Options, error) {
	opts := pipeline.Options{
		Regions:   cfg.DefaultRegions,
		ZoomLevel: cfg.ZoomLevel,
		Lookback:  time.Duration(cfg.LookbackDays) * 24 * time.Hour,
		StormID:   storm,
		Force:     force,
	}

	switch pipeline.Mode(mode) {
	case pipeline.ModeInitialize, pipeline.ModeUpdate:
		opts.Mode = pipeline.Mode(mode)
	default:
		return opts, errors.New("mode must be initialize or update")
	}

	if date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return opts, errors.New("date must be YYYY-MM-DD")
		}
		opts.Date = day
	}

	if regionsFlag != "" {
		var regions []string
		for _, r := range strings.Split(regionsFlag, ",") {
			if r = strings.TrimSpace(r); r != "" {
				regions = append(regions, strings.ToUpper(r))
			}
		}
		opts.Regions = regions
	}
	if zoom > 0 {
		opts.ZoomLevel = zoom
	}
	if lookbackDays > 0 {
		opts.Lookback = time.Duration(lookbackDays) * 24 * time.Hour
	}
	return opts, nil
}
