// Package tracker runs the mempool ingestion pipeline: a poller producing
// added-txid events, an unbounded queue, a single batch worker writing to
// the store, and purge/stats schedulers. Shutdown is cooperative, via a
// stop sentinel on the queue.
package tracker

import (
	"time"

	"go.uber.org/zap"

	"rbftrack/internal/metrics"
	"rbftrack/internal/store"
)

// Config carries the pipeline timings and batch threshold.
type Config struct {
	PollInterval  time.Duration
	PurgeInterval time.Duration
	StatsInterval time.Duration
	Retention     time.Duration
	BatchSize     int
}

type Tracker struct {
	logs   *zap.SugaredLogger
	queue  *EventQueue
	poller *Poller
	worker *Worker
	purger *PurgeScheduler
	stats  *StatsReporter
}

func New(
	logger *zap.SugaredLogger,
	client MempoolClient,
	st *store.Store,
	counters *metrics.Counters,
	cfg Config,
) *Tracker {
	queue := NewEventQueue()
	return &Tracker{
		logs:   logger,
		queue:  queue,
		poller: NewPoller(logger, client, queue, cfg.PollInterval),
		worker: NewWorker(logger, queue, st, client, counters, cfg.BatchSize, cfg.Retention),
		purger: NewPurgeScheduler(queue, cfg.PurgeInterval),
		stats:  NewStatsReporter(logger, counters, cfg.StatsInterval),
	}
}

// Start launches all pipeline goroutines and returns immediately.
func (t *Tracker) Start() {
	go t.worker.Run()
	go t.poller.Run()
	go t.purger.Run()
	go t.stats.Run()
	t.logs.Infow("tracker started")
}

// Stop halts the producers, then sends the stop sentinel and waits for the
// worker to flush its buffer and close the store. No buffered txid is
// dropped on a clean shutdown.
func (t *Tracker) Stop() {
	t.poller.Stop()
	t.purger.Stop()
	t.stats.Stop()

	t.queue.Push(Event{Kind: EventStop})
	<-t.worker.Done()

	t.logs.Infow("tracker stopped")
}
