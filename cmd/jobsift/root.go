package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/adapter"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/ingest"
	"github.com/jobsift/jobsift/internal/model"
)

var (
	sourcesPath string
	debug       bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsift",
	Short: "Job listing ingester with dedup and trust scoring",
	Long:  "jobsift polls job sources, deduplicates listings, and scores each one for trustworthiness before storing it.",
	// Default to `start` so that `jobsift` with no args runs the daemon.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&sourcesPath, "sources", "s", "", "path to sources file (default: JOBSIFT_SOURCES env var or ./sources.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() (*config.Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	return config.Load(sourcesPath)
}

func setupLogger(dbg bool) *slog.Logger {
	level := slog.LevelInfo
	if dbg {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// buildAdapter constructs the raw adapter for one source entry.
func buildAdapter(src config.SourceConfig, client *http.Client, logger *slog.Logger) (model.SourceAdapter, bool) {
	switch src.Kind {
	case config.KindCareerPage:
		return adapter.NewCareerPageAdapter(src.URL, src.Token, src.Company, src.Contact, client), true
	case config.KindAggregator:
		source, ok := model.ParseSource(src.Source)
		if !ok {
			logger.Warn("unknown aggregator source, skipping", "source", src.Name)
			return nil, false
		}
		return adapter.NewAggregatorAdapter(source, src.URL, src.AppID, src.AppKey, src.Query, client), true
	case config.KindRSS:
		return adapter.NewRSSAdapter(src.URL, src.Company, client), true
	default:
		logger.Warn("unsupported source kind, skipping", "source", src.Name, "kind", src.Kind)
		return nil, false
	}
}

// buildPollers wires every enabled source with retries and per-kind rate
// limiting around its adapter, all sharing one pipeline.
func buildPollers(cfg *config.Config, pipeline *ingest.Pipeline, client *http.Client, logger *slog.Logger) []*ingest.SourcePoller {
	limiter := adapter.NewKindRateLimiter(2 * time.Second)

	var pollers []*ingest.SourcePoller
	for _, src := range cfg.EnabledSources() {
		raw, ok := buildAdapter(src, client, logger)
		if !ok {
			continue
		}

		wrapped := adapter.NewRetryAdapter(raw, 2, 5*time.Second, logger)
		limited := adapter.NewRateLimitedAdapter(wrapped, limiter, src.Kind)

		pollers = append(pollers, ingest.NewSourcePoller(src.Name, src.Kind, limited, pipeline, logger))
		logger.Info("registered source", "name", src.Name, "kind", src.Kind)
	}
	return pollers
}
