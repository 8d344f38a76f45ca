package notify

import (
	"context"
	"sync"
	"time"

	"curbdb/pkg/logger"
)

// Sink receives committed events.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev Event) error
	Close() error
}

// Dispatcher queues events and delivers them to every sink on a background
// worker. Emit never blocks; events are dropped when the queue is full.
type Dispatcher struct {
	queue   chan Event
	sinks   []Sink
	timeout time.Duration
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
}

// NewDispatcher returns a dispatcher with the given queue capacity.
func NewDispatcher(capacity int, timeout time.Duration, sinks ...Sink) *Dispatcher {
	if capacity <= 0 {
		capacity = 1024
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{queue: make(chan Event, capacity), sinks: sinks, timeout: timeout}
}

// Start launches the delivery worker.
func (d *Dispatcher) Start() {
	d.wg.Add(1)
	go d.run()
}

// Emit queues ev for delivery.
func (d *Dispatcher) Emit(ev Event) {
	if d == nil || len(d.sinks) == 0 {
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- ev:
	default:
		logger.Warn("notify_queue_full", "type", ev.Type, "actor", ev.Actor)
	}
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.queue {
		for _, s := range d.sinks {
			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			if err := s.Handle(ctx, ev); err != nil {
				logger.Error("notify_sink_failed", "sink", s.Name(), "type", ev.Type, "error", err)
			}
			cancel()
		}
	}
}

// Close drains queued events and closes every sink.
func (d *Dispatcher) Close() error {
	if d == nil {
		return nil
	}
	var firstErr error
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		d.wg.Wait()
		for _, s := range d.sinks {
			if err := s.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
