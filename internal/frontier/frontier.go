// Package frontier implements the bounded queue of URLs awaiting a fetch.
//
// The frontier tracks two quantities under one lock: the queued items and a
// pending-work count. Every push takes one unit of pending work; a worker
// releases it with Complete only after the popped item's full
// fetch-extract-requeue cycle finishes, so follow-ups pushed during the
// cycle are counted before the cycle's own unit is released. The pipeline is
// quiescent exactly when the queue is empty and the pending count is zero;
// Pop reports that by returning false.
package frontier

import (
	"context"
	"sync"

	"github.com/jsonharvest/crawler/internal/crawler"
	"github.com/jsonharvest/crawler/internal/metrics"
)

// Frontier is a threshold-bounded FIFO of crawler.Item.
//
// Push admits unconditionally: seeds and extracted follow-ups must never be
// refused, since the workers producing follow-ups are themselves throttled
// by the queue draining. Only PushWait, the input-reader entry point, blocks
// while the queue length sits at or above the threshold.
type Frontier struct {
	mu        sync.Mutex
	cond      *sync.Cond
	items     []crawler.Item
	threshold int
	pending   int
}

// New constructs a Frontier that gates PushWait at threshold queued items.
func New(threshold int) *Frontier {
	f := &Frontier{threshold: threshold}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push appends an item and takes one unit of pending work.
func (f *Frontier) Push(item crawler.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending++
	f.items = append(f.items, item)
	metrics.SetFrontierDepth(len(f.items))
	f.cond.Broadcast()
}

// PushWait appends an item, blocking while the queue length is at or above
// the threshold. It returns the context error if ctx ends while blocked.
func (f *Frontier) PushWait(ctx context.Context, item crawler.Item) error {
	stop := context.AfterFunc(ctx, f.wakeAll)
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.items) >= f.threshold && ctx.Err() == nil {
		f.cond.Wait()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.pending++
	f.items = append(f.items, item)
	metrics.SetFrontierDepth(len(f.items))
	f.cond.Broadcast()
	return nil
}

// Pop removes and returns the oldest item. It blocks while the queue is
// empty but work is still pending, and returns false once the frontier is
// quiescent or ctx ends. A popped item's pending unit stays held until the
// caller's Complete.
func (f *Frontier) Pop(ctx context.Context) (crawler.Item, bool) {
	stop := context.AfterFunc(ctx, f.wakeAll)
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.items) == 0 && f.pending > 0 && ctx.Err() == nil {
		f.cond.Wait()
	}
	if ctx.Err() != nil || len(f.items) == 0 {
		return crawler.Item{}, false
	}
	item := f.items[0]
	f.items = f.items[1:]
	metrics.SetFrontierDepth(len(f.items))
	// Dropping below the threshold resumes gated producers.
	f.cond.Broadcast()
	return item, true
}

// Lease takes one unit of pending work without queueing an item. The input
// reader holds a lease for its lifetime so the pipeline cannot quiesce
// while input remains unread.
func (f *Frontier) Lease() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending++
}

// Complete releases one unit of pending work.
func (f *Frontier) Complete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending--
	if f.pending <= 0 {
		f.cond.Broadcast()
	}
}

// Len returns the current queue length.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Pending returns the outstanding pending-work count.
func (f *Frontier) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

func (f *Frontier) wakeAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cond.Broadcast()
}
