package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/redline/redline/pkg/classify"
	"github.com/redline/redline/pkg/config"
	"github.com/redline/redline/pkg/ingest"
	"github.com/redline/redline/pkg/normalize"
	"github.com/redline/redline/pkg/progress"
	"github.com/redline/redline/pkg/store"
)

var (
	ingestDatabase   string
	ingestBatchSize  int
	ingestFormat     string
	ingestPolicy     string
	ingestWorkers    int
	ingestNoValidate bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <path>...",
	Short: "Ingest market-data files into the canonical table",
	Long: `Ingest files into the tickers_data table, batch by batch.

Arguments may be individual files or directories. Directories are walked
recursively for Stooq-format .txt files; every other argument is classified
by extension. One corrupt file never aborts a batch: it is skipped, counted
and reported in the run summary.

Examples:
  # Ingest a Stooq export tree
  redline ingest ./stooq_import --db market.duckdb

  # Smaller batches, CSV inputs
  redline ingest data/*.csv --format csv --batch-size 50

  # Relaxed row validation (timestamp+close only)
  redline ingest ./stooq_import --policy timestamp_close`,

	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDatabase, "db", "", "DuckDB database file (default from config)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", 0, "Files per batch (default 100)")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "", "Force input format: txt, csv, json, parquet, feather, duckdb")
	ingestCmd.Flags().StringVar(&ingestPolicy, "policy", "", "Row validation policy: prices, timestamp_close")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "Concurrent file reads within a batch (default 1)")
	ingestCmd.Flags().BoolVar(&ingestNoValidate, "no-validate", false, "Skip the Stooq header probe on .txt files")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Flags override config.
	if ingestDatabase != "" {
		cfg.Storage.Database = ingestDatabase
	}
	if ingestBatchSize > 0 {
		cfg.Ingestion.BatchSize = ingestBatchSize
	}
	if ingestFormat != "" {
		cfg.Ingestion.InputFormat = ingestFormat
	}
	if ingestPolicy != "" {
		cfg.Ingestion.CleanPolicy = ingestPolicy
	}
	if ingestWorkers > 0 {
		cfg.Ingestion.Workers = ingestWorkers
	}

	paths, err := expandArgs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no input files found")
	}

	st, err := store.Open(cfg.Storage.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	bar := newIngestBar(len(paths))
	opts := ingest.Options{
		BatchSize:           cfg.Ingestion.BatchSize,
		TableName:           cfg.Storage.Table,
		InputFormat:         classify.ParseFormat(cfg.Ingestion.InputFormat),
		ValidateStooqHeader: !ingestNoValidate && cfg.Ingestion.ValidateHeader(),
		Policy:              normalize.ParsePolicy(cfg.Ingestion.CleanPolicy),
		Workers:             cfg.Ingestion.Workers,
		OnProgress: func(s progress.Snapshot) {
			bar.Set(s.ItemsDone)
			bar.Describe(fmt.Sprintf("batch %d/%d · %.0f files/s · ETA %s",
				s.BatchIndex, s.BatchTotal, s.ItemsPerSecond, s.FormatETA()))
		},
	}

	// Ctrl-C stops between files; the current batch's successes are still
	// persisted.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := ingest.NewEngine(st, opts)
	report, err := engine.ProcessAll(ctx, paths)
	bar.Finish()
	fmt.Println()

	printReport(report, cfg.Storage.Database)
	if err != nil {
		return fmt.Errorf("run aborted: %w", err)
	}
	return nil
}

// expandArgs turns directories into their Stooq files and passes plain
// paths through.
func expandArgs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := classify.FindStooqFiles(arg)
			if err != nil {
				return nil, err
			}
			paths = append(paths, found...)
			continue
		}
		paths = append(paths, arg)
	}
	return paths, nil
}

func loadConfig() (*config.Config, error) {
	mgr := config.NewManager()
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return mgr.Get(), nil
}

func newIngestBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("ingesting"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(0),
	)
}
