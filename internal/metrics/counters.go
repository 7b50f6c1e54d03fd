package metrics

import "sync/atomic"

// Counters tracks best-effort fetch and processing totals. Values are
// incremented from multiple goroutines; Snapshot is eventually consistent
// and must never feed correctness decisions.
type Counters struct {
	totalRequests atomic.Int64
	success       atomic.Int64
	notFound      atomic.Int64
	httpErrors    atomic.Int64
	networkErrors atomic.Int64
	processed     atomic.Int64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	TotalRequests int64
	Success       int64
	NotFound      int64
	HTTPErrors    int64
	NetworkErrors int64
	Processed     int64
}

func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) IncRequests()      { c.totalRequests.Add(1) }
func (c *Counters) IncSuccess()       { c.success.Add(1) }
func (c *Counters) IncNotFound()      { c.notFound.Add(1) }
func (c *Counters) IncHTTPErrors()    { c.httpErrors.Add(1) }
func (c *Counters) IncNetworkErrors() { c.networkErrors.Add(1) }
func (c *Counters) IncProcessed()     { c.processed.Add(1) }

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		TotalRequests: c.totalRequests.Load(),
		Success:       c.success.Load(),
		NotFound:      c.notFound.Load(),
		HTTPErrors:    c.httpErrors.Load(),
		NetworkErrors: c.networkErrors.Load(),
		Processed:     c.processed.Load(),
	}
}
