package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"rbftrack/internal/archive"
	"rbftrack/internal/extract"
)

var (
	featuresIn   string
	featuresOut  string
	onePerChange bool
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Extract tabular ML features from an archived transaction file",
	RunE:  runFeatures,
}

func init() {
	featuresCmd.Flags().StringVar(&featuresIn, "in-file", "", "archived transaction JSON file")
	featuresCmd.Flags().StringVar(&featuresOut, "out-file", "", "output CSV file")
	featuresCmd.Flags().BoolVar(&onePerChange, "one-per-change", false, "keep only the first row per change address")
	featuresCmd.MarkFlagRequired("in-file")  //nolint:errcheck
	featuresCmd.MarkFlagRequired("out-file") //nolint:errcheck
}

func runFeatures(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(featuresIn)
	if err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	var txs []archive.ArchivedTx
	if err := json.Unmarshal(data, &txs); err != nil {
		return fmt.Errorf("decode archived transactions: %w", err)
	}

	rows := extract.ExtractAll(txs, onePerChange)

	out, err := os.Create(featuresOut)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	if err := extract.WriteCSV(out, rows); err != nil {
		return err
	}

	fmt.Printf("%d rows written to %s\n", len(rows), featuresOut)
	return nil
}
