// provider.go implements the Provider, the telemetry entry point of a
// checkout attempt.

package analytics

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/strongdm/checkout-actions/internal/metrics"
	"github.com/strongdm/checkout-actions/pkg/apiclient"
)

const tracerName = "github.com/strongdm/checkout-actions/pkg/analytics"

// errEmptyCheckoutAttemptID is returned when the handshake succeeded but
// carried no id. It is treated like any other handshake failure.
var errEmptyCheckoutAttemptID = errors.New("analytics: empty checkoutAttemptId in response")

// ProviderOption configures a Provider.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	sink     Sink
	session  *Session
	logger   logrus.FieldLogger
	scrubber *Scrubber
}

// WithSink sets the sink events are forwarded to. Without one, events are
// dropped silently.
func WithSink(sink Sink) ProviderOption {
	return func(c *providerConfig) {
		c.sink = sink
	}
}

// WithSession makes the provider own the given session instead of a fresh one.
func WithSession(session *Session) ProviderOption {
	return func(c *providerConfig) {
		c.session = session
	}
}

// WithLogger sets the logger for swallowed analytics failures.
func WithLogger(logger logrus.FieldLogger) ProviderOption {
	return func(c *providerConfig) {
		c.logger = logger
	}
}

// WithScrubbing scrubs event messages with a custom configuration.
func WithScrubbing(cfg ScrubberConfig) ProviderOption {
	return func(c *providerConfig) {
		c.scrubber = NewScrubber(cfg)
	}
}

// WithDefaultScrubbing scrubs event messages with production-safe defaults.
func WithDefaultScrubbing() ProviderOption {
	return func(c *providerConfig) {
		c.scrubber = NewScrubber(DefaultScrubberConfig())
	}
}

// Provider owns the checkout attempt session and forwards events to a sink.
// Analytics is strictly best effort: no method returns an error or blocks on
// the network.
type Provider struct {
	client   apiclient.Performer
	cfg      Configuration
	sink     Sink
	session  *Session
	logger   logrus.FieldLogger
	scrubber *Scrubber
	tracer   trace.Tracer

	handshakes singleflight.Group

	// applyMu orders session updates with the matching sink pushes.
	applyMu sync.Mutex
}

var _ Reporter = (*Provider)(nil)

// NewProvider creates a Provider. client performs the initial analytics
// request against the analytics host.
func NewProvider(client apiclient.Performer, cfg Configuration, opts ...ProviderOption) *Provider {
	pc := &providerConfig{}
	for _, opt := range opts {
		opt(pc)
	}
	if pc.session == nil {
		pc.session = NewSession()
	}
	if pc.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		pc.logger = l
	}

	return &Provider{
		client:   client,
		cfg:      cfg,
		sink:     pc.sink,
		session:  pc.session,
		logger:   pc.logger,
		scrubber: pc.scrubber,
		tracer:   otel.Tracer(tracerName),
	}
}

// Session returns the session owned by the provider.
func (p *Provider) Session() *Session {
	return p.session
}

// CheckoutAttemptID returns the current checkout attempt id, if any.
func (p *Provider) CheckoutAttemptID() (string, bool) {
	return p.session.CheckoutAttemptID()
}

// SendInitialAnalytics performs the initial analytics handshake in the
// background. On success the session holds exactly the returned id; on any
// failure the session is cleared. Either way the sink is told.
//
// The returned channel is closed once the session has been updated. Callers
// that do not care may drop it. Concurrent calls with an identical request
// share one in-flight call, which ignores the callers' cancellation.
func (p *Provider) SendInitialAnalytics(ctx context.Context, flavor Flavor, fields *AdditionalFields) <-chan struct{} {
	done := make(chan struct{})
	if !p.cfg.Enabled || p.client == nil {
		metrics.HandshakesTotal.WithLabelValues(metrics.ResultSkipped).Inc()
		close(done)
		return done
	}

	req := newInitialAnalyticsRequest(flavor, fields, p.cfg)
	go func() {
		defer close(done)
		id, err := p.handshake(ctx, req)
		p.saveCheckoutAttemptID(id, err)
	}()
	return done
}

func (p *Provider) handshake(ctx context.Context, req *initialAnalyticsRequest) (string, error) {
	ctx, span := p.tracer.Start(ctx, "analytics.initial",
		trace.WithAttributes(
			attribute.String("analytics.flavor", req.Flavor),
			attribute.String("analytics.component", req.Component),
		))
	defer span.End()

	// Shared calls ignore any single caller's cancellation.
	shareCtx := context.WithoutCancel(ctx)
	v, err, shared := p.handshakes.Do(req.dedupeKey(), func() (any, error) {
		var resp initialAnalyticsResponse
		if err := p.client.Perform(shareCtx, req, &resp); err != nil {
			return "", err
		}
		if resp.CheckoutAttemptID == "" {
			return "", errEmptyCheckoutAttemptID
		}
		return resp.CheckoutAttemptID, nil
	})
	span.SetAttributes(attribute.Bool("analytics.shared", shared))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return v.(string), nil
}

func (p *Provider) saveCheckoutAttemptID(id string, err error) {
	p.applyMu.Lock()
	defer p.applyMu.Unlock()

	if err != nil {
		metrics.HandshakesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		p.logger.WithError(err).Warn("analytics: initial analytics failed, no checkout attempt id")
		p.session.clear()
		if p.sink != nil {
			p.sink.SetCheckoutAttemptID("")
		}
		return
	}

	metrics.HandshakesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	p.logger.WithField("checkout_attempt_id", id).Debug("analytics: checkout attempt started")
	p.session.set(id)
	if p.sink != nil {
		p.sink.SetCheckoutAttemptID(id)
	}
}

// AddInfo forwards an info event to the sink.
func (p *Provider) AddInfo(event InfoEvent) { p.add(event) }

// AddLog forwards a log event to the sink.
func (p *Provider) AddLog(event LogEvent) { p.add(event) }

// AddError forwards an error event to the sink.
func (p *Provider) AddError(event ErrorEvent) { p.add(event) }

func (p *Provider) add(event Event) {
	if p == nil || p.sink == nil {
		return
	}
	// A misbehaving sink must never take the payment flow down with it.
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).Error("analytics: sink panicked")
		}
	}()

	if id, ok := p.session.CheckoutAttemptID(); ok {
		event = event.withCheckoutAttemptID(id)
	}
	if p.scrubber != nil {
		event = p.scrubber.ScrubEvent(event)
	}
	if err := p.sink.Write(context.Background(), event); err != nil {
		p.logger.WithError(err).WithField("kind", event.Kind()).Debug("analytics: sink write failed")
	}
}

// Flush delegates to the sink.
func (p *Provider) Flush(ctx context.Context) error {
	if p.sink == nil {
		return nil
	}
	return p.sink.Flush(ctx)
}

// Close delegates to the sink.
func (p *Provider) Close() error {
	if p.sink == nil {
		return nil
	}
	return p.sink.Close()
}
