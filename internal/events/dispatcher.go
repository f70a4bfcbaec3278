package events

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/product-delete-service/internal/model"
	"github.com/fairyhunter13/product-delete-service/internal/obs"
)

// Publisher delivers a single event. It must not return until the attempt is
// finished and must swallow its own failures.
type Publisher interface {
	Publish(ctx context.Context, eventType string, data any)
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Enqueued  uint64 `json:"events_enqueued"`
	Published uint64 `json:"events_published"`
	Backlog   int    `json:"backlog_size"`
	Depth     int    `json:"queue_depth"`
	Workers   int    `json:"worker_count"`
}

// Dispatcher runs a fixed pool of workers that publish dispatched events
// exactly once each.
type Dispatcher struct {
	q       *queue
	pub     Publisher
	workers int

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher returns a Dispatcher publishing through pub with n workers.
func NewDispatcher(pub Publisher, n int) *Dispatcher {
	if n < 1 {
		n = 1
	}
	return &Dispatcher{q: newQueue(n * 16), pub: pub, workers: n}
}

// Start launches the queue loop and the workers.
func (d *Dispatcher) Start(parent context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel
	go d.q.run(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	obs.Logger.Info("dispatcher_started", "worker_count", d.workers)
}

// Stop cancels the workers and waits for in-flight publishes to return.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	d.wg.Wait()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	// publishes outlive Stop's cancellation once started
	pubCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.q.out:
			d.pub.Publish(pubCtx, ev.EventType, ev.Data)
			d.q.processed.Add(1)
		}
	}
}

// Dispatch queues ev for publishing and returns immediately. It reports false
// when intake is closed and the event was dropped.
func (d *Dispatcher) Dispatch(ev model.Event) bool {
	return d.q.enqueue(ev)
}

// CloseIntake makes later Dispatch calls drop their events.
func (d *Dispatcher) CloseIntake() { d.q.shuttingDown.Store(true) }

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued:  d.q.enqueued.Load(),
		Published: d.q.processed.Load(),
		Backlog:   d.q.backlogSize(),
		Depth:     d.q.depth(),
		Workers:   d.workers,
	}
}

// DrainUntil blocks until every dispatched event has been published or ctx is
// done.
func (d *Dispatcher) DrainUntil(ctx context.Context) bool {
	for {
		s := d.Stats()
		if s.Backlog == 0 && s.Depth == 0 && s.Enqueued == s.Published {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(10 * time.Millisecond):
		}
	}
}
