package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/anomaly"
	"github.com/neurokind/trust-engine/internal/cache"
	"github.com/neurokind/trust-engine/internal/config"
	"github.com/neurokind/trust-engine/internal/drift"
	"github.com/neurokind/trust-engine/internal/logger"
	"github.com/neurokind/trust-engine/internal/store"
	"github.com/neurokind/trust-engine/internal/trust"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		runChecks   = flag.Bool("run-checks", false, "Execute active quality rules")
		fitModel    = flag.String("fit-outlier", "", "Fit the outlier model on a table (table:col1,col2,...)")
		driftMetric = flag.String("drift", "", "Check a metric for drift (e.g. users, posts)")
		report      = flag.Bool("report", false, "Generate the trust report")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("trustaudit %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting trustaudit",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	db, err := store.NewStore(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer db.Close()

	var reportCache *cache.ReportCache
	if cfg.Cache.Enabled {
		reportCache, err = cache.NewReportCache(&cfg.Cache, log)
		if err != nil {
			log.Warn("cache unavailable, continuing without it", zap.Error(err))
		} else {
			defer reportCache.Close()
		}
	}

	ran := false

	if *fitModel != "" || *runChecks {
		forest := anomaly.NewForestDetector(anomaly.ForestConfig{
			Contamination: cfg.Anomaly.Forest.Contamination,
			Trees:         cfg.Anomaly.Forest.Trees,
			SampleSize:    cfg.Anomaly.Forest.SampleSize,
			Seed:          cfg.Anomaly.Forest.Seed,
		}, log)
		engine := anomaly.NewEngine(db, db, forest, cfg.Anomaly.ZScoreThreshold, log)

		if *fitModel != "" {
			table, columns, err := parseFitSpec(*fitModel)
			if err != nil {
				log.Fatal("invalid -fit-outlier value", zap.Error(err))
			}
			if err := engine.FitOutlierModel(ctx, table, columns); err != nil {
				log.Fatal("failed to fit outlier model", zap.Error(err))
			}
			ran = true
		}

		if *runChecks {
			results, err := engine.RunChecks(ctx)
			if err != nil {
				log.Fatal("quality checks failed", zap.Error(err))
			}
			printJSON(results)
			ran = true
		}
	}

	if *driftMetric != "" {
		var window drift.WindowCache
		if reportCache != nil {
			window = reportCache
		}
		monitor := drift.NewMonitor(db, window, cfg.Drift.Threshold, cfg.Drift.WindowDays, log)

		current, err := db.TodayCount(ctx, *driftMetric)
		if err != nil {
			log.Fatal("failed to read current count", zap.Error(err))
		}

		alert, err := monitor.CheckMetric(ctx, *driftMetric, current)
		if err != nil {
			log.Fatal("drift check failed", zap.Error(err))
		}
		if alert != "" {
			fmt.Println(alert)
		} else {
			fmt.Printf("no drift detected for %s\n", *driftMetric)
		}
		ran = true
	}

	if *report {
		collector := trust.NewCollector(db, trustCache(reportCache), cfg.Trust.ReportPeriodDays, log)
		printJSON(collector.Collect(ctx))
		ran = true
	}

	if !ran {
		flag.Usage()
		os.Exit(2)
	}
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}
	return logger.New(loggerConfig)
}

// trustCache adapts a possibly-nil concrete cache to the collector interface
func trustCache(c *cache.ReportCache) trust.ReportCache {
	if c == nil {
		return nil
	}
	return c
}

// parseFitSpec parses "table:col1,col2" into a table and its feature columns
func parseFitSpec(spec string) (string, []string, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", nil, fmt.Errorf("expected table:col1,col2,..., got %q", spec)
	}
	columns := strings.Split(parts[1], ",")
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}
	return parts[0], columns, nil
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
