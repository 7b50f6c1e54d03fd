package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Poller periodically snapshots the mempool txid set and emits an added
// event for every id not present in the previous snapshot. The very first
// snapshot emits all ids so RBF pairs already in flight remain discoverable.
// Fetch failures are logged and swallowed; the loop never terminates on a
// transient error.
type Poller struct {
	logs     *zap.SugaredLogger
	client   SnapshotFetcher
	queue    *EventQueue
	interval time.Duration
	seen     map[string]struct{}
	stop     chan struct{}
}

func NewPoller(logger *zap.SugaredLogger, client SnapshotFetcher, queue *EventQueue, interval time.Duration) *Poller {
	return &Poller{
		logs:     logger,
		client:   client,
		queue:    queue,
		interval: interval,
		seen:     make(map[string]struct{}),
		stop:     make(chan struct{}),
	}
}

func (p *Poller) Run() {
	for {
		p.cycle()
		select {
		case <-p.stop:
			return
		case <-time.After(p.interval):
		}
	}
}

func (p *Poller) Stop() {
	close(p.stop)
}

func (p *Poller) cycle() {
	txids, err := p.client.MempoolTxids(context.Background())
	if err != nil {
		p.logs.Errorw("mempool poll failed", "error", err)
		return
	}

	fresh := 0
	next := make(map[string]struct{}, len(txids))
	for _, txid := range txids {
		if _, ok := p.seen[txid]; !ok {
			p.queue.Push(Event{Kind: EventAdded, Txid: txid})
			fresh++
		}
		next[txid] = struct{}{}
	}
	p.seen = next

	p.logs.Debugw("mempool snapshot", "total", len(txids), "new", fresh)
}
