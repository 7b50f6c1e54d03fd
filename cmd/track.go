package cmd

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rbftrack/internal/config"
	"rbftrack/internal/esplora"
	"rbftrack/internal/metrics"
	"rbftrack/internal/store"
	"rbftrack/internal/tracker"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run the mempool ingestion service",
	RunE:  runTrack,
}

func runTrack(cmd *cobra.Command, args []string) error {
	logger := newLogger("rbftrack")
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.NewApp()
	if err != nil {
		logger.Errorw("failed to create config", "error", err)
		return err
	}

	// The service cannot run without its store.
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Errorw("failed to initialize store", "error", err)
		return err
	}

	counters := metrics.NewCounters()
	client := esplora.NewClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.APIBaseURL,
		logger,
		counters,
	)

	trk := tracker.New(logger, client, st, counters, tracker.Config{
		PollInterval:  cfg.PollInterval,
		PurgeInterval: cfg.PurgeInterval,
		StatsInterval: cfg.StatsInterval,
		Retention:     cfg.Retention,
		BatchSize:     cfg.BatchSize,
	})

	trk.Start()
	logger.Infow("polling started", "interval", cfg.PollInterval, "api", cfg.APIBaseURL)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-sig

	logger.Infow("shutting down")
	// Stop drains the worker buffer and closes the store.
	trk.Stop()
	return nil
}
