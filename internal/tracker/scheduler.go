package tracker

import (
	"time"

	"go.uber.org/zap"

	"rbftrack/internal/metrics"
)

// PurgeScheduler enqueues a purge event on a fixed interval. It never
// touches the store itself; the purge runs on the worker so all writes stay
// serialized through the queue.
type PurgeScheduler struct {
	queue    *EventQueue
	interval time.Duration
	stop     chan struct{}
}

func NewPurgeScheduler(queue *EventQueue, interval time.Duration) *PurgeScheduler {
	return &PurgeScheduler{
		queue:    queue,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (p *PurgeScheduler) Run() {
	for {
		select {
		case <-p.stop:
			return
		case <-time.After(p.interval):
			p.queue.Push(Event{Kind: EventPurge})
		}
	}
}

func (p *PurgeScheduler) Stop() {
	close(p.stop)
}

// StatsReporter periodically logs a counter snapshot. Values are best
// effort observability data, never inputs to correctness decisions.
type StatsReporter struct {
	logs     *zap.SugaredLogger
	counters *metrics.Counters
	interval time.Duration
	stop     chan struct{}
}

func NewStatsReporter(logger *zap.SugaredLogger, counters *metrics.Counters, interval time.Duration) *StatsReporter {
	return &StatsReporter{
		logs:     logger,
		counters: counters,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

func (r *StatsReporter) Run() {
	for {
		select {
		case <-r.stop:
			return
		case <-time.After(r.interval):
			snap := r.counters.Snapshot()
			r.logs.Infow("api statistics",
				"totalRequests", snap.TotalRequests,
				"success", snap.Success,
				"notFound", snap.NotFound,
				"httpErrors", snap.HTTPErrors,
				"networkErrors", snap.NetworkErrors,
				"processed", snap.Processed,
			)
		}
	}
}

func (r *StatsReporter) Stop() {
	close(r.stop)
}
