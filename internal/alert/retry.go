package alert

import (
	"container/heap"
	"sync"
	"time"
)

type retryItem struct {
	alertID int64
	at      time.Time
}

type retryHeap []retryItem

func (h retryHeap) Len() int           { return len(h) }
func (h retryHeap) Less(i, j int) bool { return h[i].at.Before(h[j].at) }
func (h retryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *retryHeap) Push(x any)        { *h = append(*h, x.(retryItem)) }
func (h *retryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// retryQueue is a delay queue of alert ids consumed by a single worker.
type retryQueue struct {
	clock Clock
	run   func(alertID int64)

	mu    sync.Mutex
	items retryHeap
	wake  chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

func newRetryQueue(clock Clock, run func(alertID int64)) *retryQueue {
	return &retryQueue{
		clock: clock,
		run:   run,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// schedule queues alertID to run at or after at.
func (q *retryQueue) schedule(alertID int64, at time.Time) {
	q.mu.Lock()
	heap.Push(&q.items, retryItem{alertID: alertID, at: at})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// len returns the number of queued retries.
func (q *retryQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// loop waits for the earliest item to come due and hands it to run.
// It returns when close is called.
func (q *retryQueue) loop() {
	defer close(q.done)

	for {
		q.mu.Lock()
		var timer <-chan time.Time
		if q.items.Len() > 0 {
			wait := q.items[0].at.Sub(q.clock.Now())
			if wait <= 0 {
				item := heap.Pop(&q.items).(retryItem)
				q.mu.Unlock()
				q.run(item.alertID)
				continue
			}
			timer = q.clock.After(wait)
		}
		q.mu.Unlock()

		select {
		case <-q.stop:
			return
		case <-q.wake:
		case <-timer:
		}
	}
}

func (q *retryQueue) close() {
	close(q.stop)
	<-q.done
}
