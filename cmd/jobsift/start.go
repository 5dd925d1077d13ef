package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/dedup"
	"github.com/jobsift/jobsift/internal/enrich"
	"github.com/jobsift/jobsift/internal/filter"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/scheduler"
	"github.com/jobsift/jobsift/internal/score"
	"github.com/jobsift/jobsift/internal/sink"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ingest daemon",
	Long:  "Start the scheduler daemon; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

// setupDedup picks the dedup backend from the address: a redis:// URL, a
// sqlite file path, or in-memory when unset.
func setupDedup(ctx context.Context, addr string, logger *slog.Logger) (model.DedupStore, func(), error) {
	switch {
	case strings.HasPrefix(addr, "redis://"), strings.HasPrefix(addr, "rediss://"):
		store, err := dedup.NewRedisStore(ctx, addr)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using redis dedup store")
		return store, func() { store.Close() }, nil
	case addr != "":
		store, err := dedup.NewSQLiteStore(addr)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Cleanup(90 * 24 * time.Hour); err != nil {
			logger.Warn("dedup store cleanup failed", "error", err)
		}
		logger.Info("using sqlite dedup store", "path", addr)
		return store, func() { store.Close() }, nil
	default:
		logger.Warn("no dedup store configured, duplicates reset on restart")
		return dedup.NewMemoryStore(), func() {}, nil
	}
}

func setupSink(ctx context.Context, databaseURL string, logger *slog.Logger) (model.JobSink, func(), error) {
	if databaseURL == "" {
		logger.Info("no database configured, logging accepted records")
		return sink.NewLogSink(logger), func() {}, nil
	}
	pg, err := sink.NewPostgresSink(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using postgres sink")
	return pg, pg.Close, nil
}

func setupEnricher(cfg config.Enrichment, client *http.Client, logger *slog.Logger) *enrich.Enricher {
	var verifier model.Verifier = enrich.NopVerifier{}
	if cfg.BaseURL != "" {
		verifier = enrich.NewHTTPVerifier(cfg.BaseURL, cfg.APIKey, client)
		logger.Info("company verification enabled", "url", cfg.BaseURL)
	}
	return enrich.NewEnricher(verifier, cfg.Timeout, cfg.MaxAttempts, cfg.BackoffBase, cfg.BackoffCap, logger)
}

func buildPipeline(cfg *config.Config, store model.DedupStore, jobSink model.JobSink, client *http.Client, logger *slog.Logger) *ingest.Pipeline {
	filters := filter.NewPipeline(
		filter.NewFreshnessFilter(cfg.StaleAge),
		filter.NewEmploymentClassifier(),
		filter.NewScamDetector(),
	)
	enricher := setupEnricher(cfg.Enrichment, client, logger)
	engine := score.NewEngine(cfg.Weights)
	return ingest.NewPipeline(store, filters, enricher, engine, jobSink, logger)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"sources", len(cfg.EnabledSources()),
		"interval", cfg.FetchInterval.String(),
		"concurrency", cfg.Concurrency,
		"stale_age", cfg.StaleAge.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := setupDedup(ctx, cfg.DedupStoreAddr, logger)
	if err != nil {
		logger.Error("failed to open dedup store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	jobSink, closeSink, err := setupSink(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open sink", "error", err)
		os.Exit(1)
	}
	defer closeSink()

	client := &http.Client{Timeout: 30 * time.Second}
	pipeline := buildPipeline(cfg, store, jobSink, client, logger)

	pollers := buildPollers(cfg, pipeline, client, logger)
	if len(pollers) == 0 {
		logger.Error("no sources to poll")
		os.Exit(1)
	}

	sched := scheduler.New(cfg.Concurrency, logger)
	for _, p := range pollers {
		sched.Add(p, cfg.FetchInterval)
	}

	if err := sched.Start(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	sched.Stop()

	logger.Info("goodbye")
	return nil
}
