package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twarcsql/twarcsql/engine/infra/postgres"
	"github.com/twarcsql/twarcsql/engine/ingest"
	"github.com/twarcsql/twarcsql/pkg/config"
	"github.com/twarcsql/twarcsql/pkg/logger"
)

func LoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [path...]",
		Short: "Load twarc archive files or directories",
		Long: "Loads one or more twarc JSONL archives into the database. Paths may\n" +
			"be files or directories; directories contribute their JSONL files.",
		Args: cobra.MinimumNArgs(1),
		RunE: runLoad,
	}
	cmd.Flags().Int("workers", 0, "concurrent file loaders (overrides config)")
	cmd.Flags().Int("batch-size", 0, "rows accumulated before a flush (overrides config)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address for the duration of the load")
	cmd.Flags().Bool("ensure", true, "create the database and apply migrations before loading")
	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logger.FromContext(ctx)
	cfg := config.FromContext(ctx)
	dbCfg := databaseConfig(cfg)

	opts, err := loadOptions(cmd, cfg)
	if err != nil {
		return err
	}
	ensure, err := cmd.Flags().GetBool("ensure")
	if err != nil {
		return err
	}
	if ensure {
		if err := postgres.EnsureDatabase(ctx, dbCfg); err != nil {
			return err
		}
	}

	store, err := postgres.NewStore(ctx, dbCfg)
	if err != nil {
		return err
	}
	defer store.Close(context.WithoutCancel(ctx))

	metrics := ingest.NewMetrics()
	if err := metrics.Registry().Register(postgres.NewPoolStatsCollector(store.Pool())); err != nil {
		return err
	}
	metricsAddr, err := resolveMetricsAddr(cmd, cfg)
	if err != nil {
		return err
	}
	if metricsAddr != "" {
		shutdown := serveMetrics(ctx, metricsAddr, metrics)
		defer shutdown()
	}

	pipeline := ingest.NewPipeline(postgres.NewArchiveRepo(store.Pool()), metrics, opts)
	summary, err := pipeline.Run(ctx, args)
	if err != nil {
		return err
	}
	log.Info("Load complete",
		"files", summary.Files,
		"pages", summary.Pages,
		"tweets", summary.Inserted["tweet"],
		"rows", summary.Inserted.Total())
	return nil
}

// loadOptions resolves pipeline tuning: flags beat configuration.
func loadOptions(cmd *cobra.Command, cfg *config.Config) (ingest.Options, error) {
	opts := ingest.Options{
		Workers:      cfg.Ingest.Workers,
		BatchSize:    cfg.Ingest.BatchSize,
		FlushRetries: cfg.Ingest.FlushRetries,
	}
	if cmd.Flags().Changed("workers") {
		workers, err := cmd.Flags().GetInt("workers")
		if err != nil {
			return opts, err
		}
		opts.Workers = workers
	}
	if cmd.Flags().Changed("batch-size") {
		batchSize, err := cmd.Flags().GetInt("batch-size")
		if err != nil {
			return opts, err
		}
		opts.BatchSize = batchSize
	}
	return opts, nil
}

func resolveMetricsAddr(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if cmd.Flags().Changed("metrics-addr") {
		return cmd.Flags().GetString("metrics-addr")
	}
	if cfg.Metrics.Enabled {
		return cfg.Metrics.Addr, nil
	}
	return "", nil
}

// serveMetrics exposes /metrics for the duration of the load and returns
// the shutdown func.
func serveMetrics(ctx context.Context, addr string, metrics *ingest.Metrics) func() {
	log := logger.FromContext(ctx)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", "error", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down metrics server", "error", err)
		}
	}
}
