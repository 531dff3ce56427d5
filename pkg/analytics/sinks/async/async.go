// Package async provides a sink wrapper with a bounded queue.
// Events are queued and delivered in the background; the oldest queued event
// is dropped when the queue is full.
package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/strongdm/checkout-actions/internal/metrics"
	"github.com/strongdm/checkout-actions/pkg/analytics"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async sink is closed")

// AsyncSinkOption configures the async sink.
type AsyncSinkOption func(*asyncSinkConfig)

type asyncSinkConfig struct {
	queueSize int
	onDropped func(event analytics.Event)
}

// WithQueueSize sets the maximum number of queued events (default: 1000).
func WithQueueSize(size int) AsyncSinkOption {
	return func(c *asyncSinkConfig) {
		if size > 0 {
			c.queueSize = size
		}
	}
}

// WithOnDropped sets a callback invoked for every event dropped on overflow.
func WithOnDropped(fn func(event analytics.Event)) AsyncSinkOption {
	return func(c *asyncSinkConfig) {
		c.onDropped = fn
	}
}

type asyncSink struct {
	inner     analytics.Sink
	queue     chan analytics.Event
	done      chan struct{}
	closeOnce sync.Once
	closeMu   sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
	onDropped func(event analytics.Event)

	// pending counts events enqueued but not yet written to inner.
	pending atomic.Int64
}

// NewAsyncSink wraps a sink with a bounded queue for async writes.
// Write returns immediately. Checkout attempt id pushes are forwarded to the
// inner sink synchronously.
func NewAsyncSink(inner analytics.Sink, opts ...AsyncSinkOption) analytics.Sink {
	cfg := &asyncSinkConfig{
		queueSize: 1000,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &asyncSink{
		inner:     inner,
		queue:     make(chan analytics.Event, cfg.queueSize),
		done:      make(chan struct{}),
		onDropped: cfg.onDropped,
	}

	s.wg.Add(1)
	go s.processLoop()

	return s
}

func (s *asyncSink) processLoop() {
	defer s.wg.Done()
	for {
		select {
		case event := <-s.queue:
			s.deliver(event)
		case <-s.done:
			for {
				select {
				case event := <-s.queue:
					s.deliver(event)
				default:
					return
				}
			}
		}
	}
}

func (s *asyncSink) deliver(event analytics.Event) {
	defer s.pending.Add(-1)
	if err := s.inner.Write(context.Background(), event); err != nil {
		metrics.EventsTotal.WithLabelValues(string(event.Kind()), metrics.OutcomeFailed).Inc()
		return
	}
	metrics.EventsTotal.WithLabelValues(string(event.Kind()), metrics.OutcomeForwarded).Inc()
}

// Write enqueues an event. If the queue is full, the oldest event is dropped.
func (s *asyncSink) Write(ctx context.Context, event analytics.Event) error {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	s.pending.Add(1)
	select {
	case s.queue <- event:
		return nil
	default:
		s.dropOldestAndEnqueue(event)
		return nil
	}
}

func (s *asyncSink) dropOldestAndEnqueue(event analytics.Event) {
	select {
	case old := <-s.queue:
		s.drop(old)
	default:
		// Queue was emptied by the processor.
	}

	select {
	case s.queue <- event:
	default:
		s.drop(event)
	}
}

func (s *asyncSink) drop(event analytics.Event) {
	s.pending.Add(-1)
	metrics.EventsTotal.WithLabelValues(string(event.Kind()), metrics.OutcomeDropped).Inc()
	if s.onDropped != nil {
		s.onDropped(event)
	}
}

// SetCheckoutAttemptID forwards id to the inner sink.
func (s *asyncSink) SetCheckoutAttemptID(id string) {
	s.inner.SetCheckoutAttemptID(id)
}

// Flush blocks until all queued events are delivered, then flushes inner.
func (s *asyncSink) Flush(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for s.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return s.inner.Flush(ctx)
}

// Close drains the queue and closes the inner sink.
func (s *asyncSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeMu.Lock()
		s.closed = true
		s.closeMu.Unlock()

		close(s.done)
		s.wg.Wait()
	})

	return s.inner.Close()
}
