// Package batch provides the sink that delivers events to the checkout
// analytics endpoint in periodic batches.
//
// Events are buffered per kind with a cap on each buffer; when a buffer is
// full its oldest event is dropped. A batch goes out as one
// POST v3/analytics/{checkoutAttemptId} request every flush interval and on
// Flush and Close. Without a checkout attempt id nothing is sent and events
// stay buffered. A batch that fails to send is dropped, not retried.
//
// Acknowledged counts the events the endpoint accepted, which lets callers
// such as the spool replay confirm delivery instead of trusting Flush alone.
package batch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/strongdm/checkout-actions/internal/metrics"
	"github.com/strongdm/checkout-actions/pkg/analytics"
	"github.com/strongdm/checkout-actions/pkg/apiclient"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("batch sink is closed")

const (
	DefaultInfoLimit     = 50
	DefaultLogLimit      = 10
	DefaultErrorLimit    = 5
	DefaultFlushInterval = 10 * time.Second

	closeTimeout = 5 * time.Second
)

// BatchSinkOption configures the batch sink.
type BatchSinkOption func(*batchSinkConfig)

type batchSinkConfig struct {
	infoLimit     int
	logLimit      int
	errorLimit    int
	flushInterval time.Duration
	manualFlush   bool
	logger        logrus.FieldLogger
}

// WithLimits sets the per-kind buffer caps. Non-positive values keep the
// default.
func WithLimits(info, logs, errs int) BatchSinkOption {
	return func(c *batchSinkConfig) {
		if info > 0 {
			c.infoLimit = info
		}
		if logs > 0 {
			c.logLimit = logs
		}
		if errs > 0 {
			c.errorLimit = errs
		}
	}
}

// WithUnboundedBuffers removes the per-kind caps; nothing is dropped.
func WithUnboundedBuffers() BatchSinkOption {
	return func(c *batchSinkConfig) {
		c.infoLimit, c.logLimit, c.errorLimit = 0, 0, 0
	}
}

// WithManualFlush disables the periodic flush. Batches go out only on Flush
// and Close.
func WithManualFlush() BatchSinkOption {
	return func(c *batchSinkConfig) {
		c.manualFlush = true
	}
}

// WithFlushInterval sets how often buffered events are sent (default: 10s).
func WithFlushInterval(d time.Duration) BatchSinkOption {
	return func(c *batchSinkConfig) {
		if d > 0 {
			c.flushInterval = d
		}
	}
}

// WithLogger sets the logger for swallowed send failures.
func WithLogger(logger logrus.FieldLogger) BatchSinkOption {
	return func(c *batchSinkConfig) {
		c.logger = logger
	}
}

var _ analytics.Acknowledger = (*batchSink)(nil)

type batchSink struct {
	client   apiclient.Performer
	analytic analytics.Configuration
	cfg      *batchSinkConfig

	mu        sync.Mutex
	attemptID string
	info      []analytics.InfoEvent
	logs      []analytics.LogEvent
	errs      []analytics.ErrorEvent
	closed    bool

	acked atomic.Int64

	// sendMu keeps batches in order.
	sendMu sync.Mutex

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewBatchSink creates a batch sink sending through client, which must point
// at the analytics host. Channel, platform, version and client key come from
// analyticsCfg; at LevelInitial every event is discarded.
func NewBatchSink(client apiclient.Performer, analyticsCfg analytics.Configuration, opts ...BatchSinkOption) analytics.Sink {
	cfg := &batchSinkConfig{
		infoLimit:     DefaultInfoLimit,
		logLimit:      DefaultLogLimit,
		errorLimit:    DefaultErrorLimit,
		flushInterval: DefaultFlushInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.logger = l
	}

	s := &batchSink{
		client:   client,
		analytic: analyticsCfg,
		cfg:      cfg,
		done:     make(chan struct{}),
	}

	if !cfg.manualFlush {
		s.wg.Add(1)
		go s.flushLoop()
	}

	return s
}

// Acknowledged returns the number of events accepted by the endpoint.
func (s *batchSink) Acknowledged() int64 {
	return s.acked.Load()
}

func (s *batchSink) flushLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.send(context.Background())
		case <-s.done:
			return
		}
	}
}

// Write buffers the event.
func (s *batchSink) Write(ctx context.Context, event analytics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.analytic.Level == analytics.LevelInitial {
		metrics.EventsTotal.WithLabelValues(string(event.Kind()), metrics.OutcomeDropped).Inc()
		return nil
	}

	var dropped int
	switch e := event.(type) {
	case analytics.InfoEvent:
		s.info, dropped = appendCapped(s.info, e, s.cfg.infoLimit)
	case analytics.LogEvent:
		s.logs, dropped = appendCapped(s.logs, e, s.cfg.logLimit)
	case analytics.ErrorEvent:
		s.errs, dropped = appendCapped(s.errs, e, s.cfg.errorLimit)
	}
	if dropped > 0 {
		metrics.EventsTotal.WithLabelValues(string(event.Kind()), metrics.OutcomeDropped).Add(float64(dropped))
	}
	return nil
}

// appendCapped appends v and drops from the front so len stays <= limit.
// A non-positive limit means no cap.
func appendCapped[T any](buf []T, v T, limit int) ([]T, int) {
	buf = append(buf, v)
	if limit <= 0 {
		return buf, 0
	}
	if over := len(buf) - limit; over > 0 {
		buf = append(buf[:0:0], buf[over:]...)
		return buf, over
	}
	return buf, 0
}

// SetCheckoutAttemptID sets the attempt the next batch is sent for.
func (s *batchSink) SetCheckoutAttemptID(id string) {
	s.mu.Lock()
	s.attemptID = id
	s.mu.Unlock()
}

// Flush sends the buffered events now. It returns the send error, if any.
func (s *batchSink) Flush(ctx context.Context) error {
	return s.send(ctx)
}

func (s *batchSink) send(ctx context.Context) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	if s.attemptID == "" || len(s.info)+len(s.logs)+len(s.errs) == 0 {
		s.mu.Unlock()
		return nil
	}
	req := &eventsRequest{
		checkoutAttemptID: s.attemptID,
		clientKey:         s.analytic.ClientKey,
		Channel:           s.analytic.Channel,
		Platform:          s.analytic.Context.Platform,
		Version:           s.analytic.Context.Version,
		Info:              nonNil(s.info),
		Logs:              nonNil(s.logs),
		Errors:            nonNil(s.errs),
	}
	s.info, s.logs, s.errs = nil, nil, nil
	s.mu.Unlock()

	total := len(req.Info) + len(req.Logs) + len(req.Errors)
	if err := s.client.Perform(ctx, req, nil); err != nil {
		metrics.BatchesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		s.cfg.logger.WithError(err).
			WithField("checkout_attempt_id", req.checkoutAttemptID).
			WithField("events", total).
			Warn("analytics: failed to send event batch")
		return err
	}

	s.acked.Add(int64(total))
	metrics.BatchesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.EventsTotal.WithLabelValues(string(analytics.KindInfo), metrics.OutcomeForwarded).Add(float64(len(req.Info)))
	metrics.EventsTotal.WithLabelValues(string(analytics.KindLog), metrics.OutcomeForwarded).Add(float64(len(req.Logs)))
	metrics.EventsTotal.WithLabelValues(string(analytics.KindError), metrics.OutcomeForwarded).Add(float64(len(req.Errors)))
	s.cfg.logger.WithField("events", total).Debug("analytics: event batch sent")
	return nil
}

func nonNil[T any](buf []T) []T {
	if buf == nil {
		return []T{}
	}
	return buf
}

// Close stops the flush loop and sends whatever is buffered.
func (s *batchSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()

		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		err = s.send(ctx)
	})
	return err
}

// eventsRequest is POST v3/analytics/{checkoutAttemptId}.
type eventsRequest struct {
	checkoutAttemptID string
	clientKey         string

	Channel  string                 `json:"channel"`
	Platform string                 `json:"platform"`
	Version  string                 `json:"version"`
	Info     []analytics.InfoEvent  `json:"info"`
	Logs     []analytics.LogEvent   `json:"logs"`
	Errors   []analytics.ErrorEvent `json:"errors"`
}

func (r *eventsRequest) Method() string { return http.MethodPost }
func (r *eventsRequest) Path() string {
	return "v3/analytics/" + url.PathEscape(r.checkoutAttemptID)
}
func (r *eventsRequest) Query() url.Values {
	return url.Values{"clientKey": {r.clientKey}}
}
