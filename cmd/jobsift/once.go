package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/dedup"
	"github.com/jobsift/jobsift/internal/sink"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run one ingest cycle and exit",
	Long:  "Poll every enabled source once with an in-memory dedup set, log the scored records, and exit without persisting anything.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 30 * time.Second}
	pipeline := buildPipeline(cfg, dedup.NewMemoryStore(), sink.NewLogSink(logger), client, logger)

	pollers := buildPollers(cfg, pipeline, client, logger)
	if len(pollers) == 0 {
		logger.Error("no sources to poll")
		os.Exit(1)
	}

	for _, p := range pollers {
		if _, err := p.Poll(ctx); err != nil {
			logger.Error("poll failed", "source", p.Name, "error", err)
		}
	}

	logger.Info("single cycle complete")
	return nil
}
