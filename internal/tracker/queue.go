package tracker

import (
	"sync"

	"github.com/oleiade/lane"
)

type EventKind int

const (
	EventAdded EventKind = iota
	EventPurge
	EventStop
)

// Event is one tagged item on the ingestion queue. Txid is set only for
// EventAdded.
type Event struct {
	Kind EventKind
	Txid string
}

// EventQueue is an unbounded FIFO channel between the producers (poller,
// purge scheduler, shutdown) and the single batch worker. There is no
// backpressure: a lagging consumer grows the queue in memory instead of
// blocking the poller.
type EventQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items *lane.Deque
}

func NewEventQueue() *EventQueue {
	q := &EventQueue{
		items: lane.NewDeque(),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *EventQueue) Push(e Event) {
	q.mu.Lock()
	q.items.Append(e)
	q.cond.Signal()
	q.mu.Unlock()
}

// Pop blocks until an event is available.
func (q *EventQueue) Pop() Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.items.Empty() {
		q.cond.Wait()
	}
	return q.items.Shift().(Event)
}

func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Size()
}
