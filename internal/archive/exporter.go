// Package archive builds offline training archives: it re-fetches every
// transaction recorded in the permanent change mapping and writes the full
// JSON alongside the attributed change address.
package archive

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"rbftrack/internal/esplora"
	"rbftrack/internal/store"
)

const (
	// Pause between API requests so a large export does not hammer the node.
	requestPause = 200 * time.Millisecond
	// Snapshot the output file every N successful fetches.
	progressInterval = 100
)

// Fetcher retrieves full transaction detail for one txid.
type Fetcher interface {
	Tx(ctx context.Context, txid string) (*esplora.Tx, error)
}

type Exporter struct {
	logs    *zap.SugaredLogger
	store   *store.Store
	fetcher Fetcher
}

func NewExporter(logger *zap.SugaredLogger, st *store.Store, fetcher Fetcher) *Exporter {
	return &Exporter{
		logs:    logger,
		store:   st,
		fetcher: fetcher,
	}
}

// Run fetches every archive target and writes the result to outFile in the
// given format ("json" or "csv"). Missing transactions (404) are skipped;
// other fetch failures are logged and skipped as well.
func (e *Exporter) Run(ctx context.Context, outFile, format string) error {
	if format != "json" && format != "csv" {
		return fmt.Errorf("unsupported format %q", format)
	}

	targets, err := e.store.ArchiveTargets()
	if err != nil {
		return fmt.Errorf("load archive targets: %w", err)
	}

	var results []ArchivedTx
	success := 0

	for _, target := range targets {
		tx, err := e.fetcher.Tx(ctx, target.NewTxid)
		if err != nil {
			if errors.Is(err, esplora.ErrNotFound) {
				e.logs.Infow("tx not found, skipping", "txid", target.NewTxid)
			} else {
				e.logs.Warnw("fetch failed, skipping", "txid", target.NewTxid, "error", err)
			}
			time.Sleep(requestPause)
			continue
		}

		success++
		results = append(results, ArchivedTx{
			Tx:            *tx,
			ChangeAddress: target.ChangeAddress,
		})

		if success%progressInterval == 0 {
			e.logs.Infow("progress snapshot", "fetched", success, "file", outFile)
			if err := write(results, outFile, format); err != nil {
				return err
			}
		}

		time.Sleep(requestPause)
	}

	if err := write(results, outFile, format); err != nil {
		return err
	}

	e.logs.Infow("archive written", "transactions", success, "file", outFile)
	return nil
}

func write(records []ArchivedTx, outFile, format string) error {
	if format == "json" {
		return writeJSON(records, outFile)
	}
	return writeCSV(records, outFile)
}

func writeJSON(records []ArchivedTx, outFile string) error {
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	return nil
}

// writeCSV flattens scalar fields; vin and vout are embedded as JSON
// strings in their cells.
func writeCSV(records []ArchivedTx, outFile string) error {
	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"txid", "fee", "vsize", "size", "weight", "sigops", "locktime",
		"block_height", "block_time", "vin", "vout", "change_address",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		vin, err := json.Marshal(rec.Vin)
		if err != nil {
			return fmt.Errorf("marshal vin: %w", err)
		}
		vout, err := json.Marshal(rec.Vout)
		if err != nil {
			return fmt.Errorf("marshal vout: %w", err)
		}

		row := []string{
			rec.Txid,
			strconv.FormatInt(rec.Fee, 10),
			strconv.FormatInt(rec.Vsize, 10),
			strconv.FormatInt(rec.Size, 10),
			strconv.FormatInt(rec.Weight, 10),
			strconv.FormatInt(rec.Sigops, 10),
			strconv.FormatUint(uint64(rec.Locktime), 10),
			strconv.FormatInt(rec.Status.BlockHeight, 10),
			strconv.FormatInt(rec.Status.BlockTime, 10),
			string(vin),
			string(vout),
			rec.ChangeAddress,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
