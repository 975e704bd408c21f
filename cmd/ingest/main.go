package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/neurokind/trust-engine/internal/config"
	"github.com/neurokind/trust-engine/internal/ingest"
	"github.com/neurokind/trust-engine/internal/logger"
	"github.com/neurokind/trust-engine/internal/privacy"
	"github.com/neurokind/trust-engine/internal/quarantine"
	"github.com/neurokind/trust-engine/internal/schema"
	"github.com/neurokind/trust-engine/internal/store"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		inputFile   = flag.String("input", "", "Dataset file to ingest (CSV, JSON lines, or Parquet)")
		schemaName  = flag.String("schema", "", "Target schema name (user, post, comment)")
		source      = flag.String("source", "", "Source label recorded on every outcome")
		batchSize   = flag.Int("batch-size", 0, "Override configured batch size")
		dryRun      = flag.Bool("dry-run", false, "Validate and scan without writing to the database")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("ingest %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if *inputFile == "" || *schemaName == "" {
		fmt.Fprintln(os.Stderr, "both -input and -schema are required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *batchSize > 0 {
		cfg.Ingest.BatchSize = *batchSize
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		cancel()
	}()

	registry := schema.DefaultRegistry()
	if _, ok := registry.Lookup(*schemaName); !ok {
		log.Fatal("unknown schema",
			zap.String("schema", *schemaName),
			zap.Strings("known", registry.Names()))
	}

	gate := quarantine.NewGate(registry, log)

	var scanner *privacy.Scanner
	if cfg.Privacy.Enabled {
		scanner, err = privacy.NewScanner(cfg.Privacy, log)
		if err != nil {
			log.Fatal("failed to initialize sensitivity scanner", zap.Error(err))
		}
	}

	db, err := store.NewStore(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to initialize store", zap.Error(err))
	}
	defer db.Close()

	pipeline := ingest.NewPipeline(gate, scanner, db, &cfg.Ingest, log)

	ingestSource := *source
	if ingestSource == "" {
		ingestSource = cfg.Validation.DefaultSource
	}

	result, err := pipeline.ProcessFile(ctx, *inputFile, ingest.Options{
		SchemaName: *schemaName,
		Source:     ingestSource,
		DryRun:     *dryRun || cfg.Ingest.DryRun,
	})
	if err != nil {
		log.Fatal("ingestion failed", zap.Error(err))
	}

	fmt.Printf("processed=%d valid=%d quarantined=%d phi_findings=%d duration=%s\n",
		result.Processed, result.Valid, result.Quarantined, result.PHIFindings, result.Duration)

	if result.Quarantined > 0 {
		os.Exit(3)
	}
}
