package cmd

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"rbftrack/internal/archive"
	"rbftrack/internal/config"
	"rbftrack/internal/esplora"
	"rbftrack/internal/metrics"
	"rbftrack/internal/store"
)

var (
	exportDB     string
	exportOut    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Archive recorded replacement transactions to JSON or CSV",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDB, "db", "mempool.db", "path to the tracker database file")
	exportCmd.Flags().StringVar(&exportOut, "out-file", "", "output file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or csv")
	exportCmd.MarkFlagRequired("out-file") //nolint:errcheck
}

func runExport(cmd *cobra.Command, args []string) error {
	logger := newLogger("export")
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.NewApp()
	if err != nil {
		logger.Errorw("failed to create config", "error", err)
		return err
	}

	st, err := store.Open(exportDB)
	if err != nil {
		logger.Errorw("failed to open store", "error", err)
		return err
	}
	defer st.Close()

	client := esplora.NewClient(
		&http.Client{Timeout: cfg.HTTPTimeout},
		cfg.APIBaseURL,
		logger,
		metrics.NewCounters(),
	)

	exporter := archive.NewExporter(logger, st, client)
	return exporter.Run(context.Background(), exportOut, exportFormat)
}
