package tracker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"rbftrack/internal/detect"
	"rbftrack/internal/esplora"
	"rbftrack/internal/metrics"
	"rbftrack/internal/store"
)

// Worker is the sole consumer of the event queue and the sole writer to the
// store. Added txids are buffered and flushed in one atomic transaction per
// batch; purge requests are serialized through the same loop so all store
// access stays single-threaded.
type Worker struct {
	logs      *zap.SugaredLogger
	queue     *EventQueue
	store     *store.Store
	fetcher   TxFetcher
	counters  *metrics.Counters
	batchSize int
	retention time.Duration
	buffer    []string
	done      chan struct{}
}

func NewWorker(
	logger *zap.SugaredLogger,
	queue *EventQueue,
	st *store.Store,
	fetcher TxFetcher,
	counters *metrics.Counters,
	batchSize int,
	retention time.Duration,
) *Worker {
	return &Worker{
		logs:      logger,
		queue:     queue,
		store:     st,
		fetcher:   fetcher,
		counters:  counters,
		batchSize: batchSize,
		retention: retention,
		done:      make(chan struct{}),
	}
}

// Done is closed once the worker has drained its buffer after a stop event
// and released the store.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) Run() {
	defer close(w.done)

	for {
		evt := w.queue.Pop()
		switch evt.Kind {
		case EventAdded:
			w.buffer = append(w.buffer, evt.Txid)
			if len(w.buffer) >= w.batchSize {
				w.flush()
			}

		case EventPurge:
			cutoff := time.Now().UTC().Add(-w.retention)
			if err := w.store.Purge(cutoff); err != nil {
				w.logs.Errorw("purge failed", "error", err)
				continue
			}
			w.logs.Infow("purged records outside retention window", "cutoff", cutoff)

		case EventStop:
			if len(w.buffer) > 0 {
				w.logs.Infow("flushing remaining txids before exit", "count", len(w.buffer))
				w.flush()
			}
			if err := w.store.Close(); err != nil {
				w.logs.Errorw("closing store", "error", err)
			}
			return
		}
	}
}

func (w *Worker) flush() {
	count := len(w.buffer)
	err := w.store.Transact(func(tx *store.Store) error {
		for _, txid := range w.buffer {
			w.counters.IncProcessed()
			if err := w.ingest(tx, txid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		w.logs.Errorw("batch flush failed", "error", err, "count", count)
	} else {
		w.logs.Debugw("batch committed", "count", count)
	}
	w.buffer = w.buffer[:0]
}

// ingest fetches and persists one transaction. Fetch failures are isolated
// to the txid: the batch continues without it and the id may be picked up
// again on a later poll. Store errors abort the whole batch transaction.
func (w *Worker) ingest(s *store.Store, txid string) error {
	tx, err := w.fetcher.Tx(context.Background(), txid)
	if err != nil {
		if !errors.Is(err, esplora.ErrNotFound) {
			w.logs.Warnw("fetch failed, skipping tx", "txid", txid, "error", err)
		}
		return nil
	}

	now := time.Now().UTC()

	err = s.InsertTransaction(store.Transaction{
		Txid:      txid,
		FetchedAt: now,
		Fee:       tx.Fee,
		Vsize:     tx.Vsize,
	})
	if err != nil {
		return err
	}

	inputs := make([]store.TxInput, 0, len(tx.Vin))
	for _, vin := range tx.Vin {
		row := store.TxInput{
			Txid:     txid,
			PrevTxid: vin.Txid,
			PrevVout: vin.Vout,
			Sequence: vin.Sequence,
		}
		if vin.Prevout != nil {
			row.Address = vin.Prevout.ScriptpubkeyAddress
			row.Value = &vin.Prevout.Value
		}
		inputs = append(inputs, row)
	}
	if err := s.InsertInputs(inputs); err != nil {
		return err
	}

	outputs := make([]store.TxOutput, 0, len(tx.Vout))
	for idx, vout := range tx.Vout {
		outputs = append(outputs, store.TxOutput{
			Txid:      txid,
			VoutIndex: uint32(idx),
			Address:   vout.ScriptpubkeyAddress,
			Value:     vout.Value,
		})
	}
	if err := s.InsertOutputs(outputs); err != nil {
		return err
	}

	if !tx.SignalsRBF() {
		return nil
	}

	err = s.InsertRBFCandidate(store.RBFCandidate{Txid: txid, AddedAt: now})
	if err != nil {
		return err
	}

	// Any prior RBF candidate spending one of the same outpoints has been
	// double-spent by this tx and is a replacement suspect.
	for _, vin := range tx.Vin {
		priors, err := s.RBFSpenders(vin.Txid, vin.Vout)
		if err != nil {
			return err
		}
		for _, origTxid := range priors {
			if origTxid == txid {
				continue
			}
			if err := w.recordReplacement(s, origTxid, txid, now); err != nil {
				return err
			}
		}
	}

	return nil
}

// recordReplacement runs the change detector over two persisted
// transactions and, on acceptance, writes the replacement event followed by
// its change-to-input mappings. Detector rejections record nothing.
func (w *Worker) recordReplacement(s *store.Store, origTxid, newTxid string, now time.Time) error {
	origOuts, err := s.Outputs(origTxid)
	if err != nil {
		return err
	}
	newOuts, err := s.Outputs(newTxid)
	if err != nil {
		return err
	}

	change, ok := detect.FindChange(outputMap(origOuts), outputMap(newOuts))
	if !ok {
		return nil
	}

	err = s.InsertReplacement(store.Replacement{
		OrigTxid:        origTxid,
		NewTxid:         newTxid,
		ChangeAddress:   change.Address,
		ChangeVoutIndex: change.VoutIndex,
		OldValue:        change.OldValue,
		NewValue:        change.NewValue,
		Diff:            change.Diff,
		DetectedAt:      now,
	})
	if err != nil {
		return err
	}

	inputAddrs, err := s.InputAddresses(origTxid)
	if err != nil {
		return err
	}

	mappings := make([]store.ChangeInput, 0, len(inputAddrs))
	for _, addr := range inputAddrs {
		mappings = append(mappings, store.ChangeInput{
			OrigTxid:        origTxid,
			NewTxid:         newTxid,
			ChangeAddress:   change.Address,
			ChangeVoutIndex: change.VoutIndex,
			InputAddress:    addr,
			DetectedAt:      now,
		})
	}
	if err := s.InsertChangeInputs(mappings); err != nil {
		return err
	}

	w.logs.Infow("replacement detected",
		"orig", origTxid,
		"new", newTxid,
		"changeAddress", change.Address,
		"changeVout", change.VoutIndex,
		"oldValue", change.OldValue,
		"newValue", change.NewValue,
		"diff", change.Diff,
		"inputs", len(inputAddrs),
	)
	return nil
}

func outputMap(rows []store.TxOutput) map[uint32]detect.Output {
	m := make(map[uint32]detect.Output, len(rows))
	for _, row := range rows {
		m[row.VoutIndex] = detect.Output{
			Address: row.Address,
			Value:   row.Value,
		}
	}
	return m
}
