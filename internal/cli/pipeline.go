package cli

import (
	"context"
	"fmt"
	"net/http"

	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/strongdm/checkout-actions/pkg/analytics"
	"github.com/strongdm/checkout-actions/pkg/analytics/sinks/async"
	"github.com/strongdm/checkout-actions/pkg/analytics/sinks/batch"
	"github.com/strongdm/checkout-actions/pkg/analytics/sinks/cxdb"
	"github.com/strongdm/checkout-actions/pkg/analytics/sinks/multi"
	"github.com/strongdm/checkout-actions/pkg/analytics/sinks/sqlite"
	"github.com/strongdm/checkout-actions/pkg/analytics/sinks/stderr"
	"github.com/strongdm/checkout-actions/pkg/apiclient"
)

type clients struct {
	checkout  *apiclient.Client
	analytics *apiclient.Client
}

func (a *app) clients() (clients, error) {
	environment, err := a.cfg.Environment()
	if err != nil {
		return clients{}, err
	}
	httpClient := &http.Client{
		Timeout:   a.cfg.API.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return clients{
		checkout:  apiclient.New(environment.CheckoutShopperURL, apiclient.WithHTTPClient(httpClient)),
		analytics: apiclient.New(environment.AnalyticsURL, apiclient.WithHTTPClient(httpClient)),
	}, nil
}

// eventSink builds the delivery pipeline from config. With a spool path,
// events are persisted for a later "spool replay" instead of being sent.
func (a *app) eventSink(analyticsClient apiclient.Performer) (analytics.Sink, error) {
	var sinks []analytics.Sink

	if a.cfg.Analytics.Spool != "" {
		spool, err := sqlite.Open(a.cfg.Analytics.Spool, sqlite.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, spool)
	} else {
		sinks = append(sinks, a.batchSink(analyticsClient,
			a.cfg.Analytics.InfoLimit, a.cfg.Analytics.LogLimit, a.cfg.Analytics.ErrorLimit))
	}

	if a.cfg.Analytics.Verbose {
		sinks = append(sinks, stderr.NewStderrSink(stderr.WithLogger(a.logger)))
	}

	if a.cfg.CXDB.Addr != "" {
		client, err := cxdbclient.Dial(a.cfg.CXDB.Addr, cxdbclient.WithClientTag(a.cfg.CXDB.ClientTag))
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			return nil, fmt.Errorf("failed to connect to cxdb at %s: %w", a.cfg.CXDB.Addr, err)
		}
		a.addCloser(func(context.Context) error {
			client.Close()
			return nil
		})
		sinks = append(sinks, cxdb.NewCXDBSink(client, cxdb.WithClientTag(a.cfg.CXDB.ClientTag)))
	}

	return a.pipeline(sinks...), nil
}

// pipeline fans out to sinks behind a bounded queue, so a slow journal or
// endpoint never holds up the goroutine reporting the event.
func (a *app) pipeline(sinks ...analytics.Sink) analytics.Sink {
	return async.NewAsyncSink(multi.NewMultiSink(sinks...),
		async.WithQueueSize(a.cfg.Analytics.QueueSize),
		async.WithOnDropped(func(event analytics.Event) {
			a.logger.WithField("kind", event.Kind()).Warn("analytics: queue full, dropped oldest event")
		}),
	)
}

func (a *app) batchSink(client apiclient.Performer, info, logs, errs int) analytics.Sink {
	return batch.NewBatchSink(client, a.cfg.AnalyticsConfiguration(),
		batch.WithLimits(info, logs, errs),
		batch.WithFlushInterval(a.cfg.Analytics.FlushInterval),
		batch.WithLogger(a.logger),
	)
}

// provider builds a Provider over the configured pipeline. Closing the
// provider flushes and closes the pipeline.
func (a *app) provider(c clients) (*analytics.Provider, error) {
	sink, err := a.eventSink(c.analytics)
	if err != nil {
		return nil, err
	}
	p := analytics.NewProvider(c.analytics, a.cfg.AnalyticsConfiguration(),
		analytics.WithSink(sink),
		analytics.WithLogger(a.logger),
		analytics.WithDefaultScrubbing(),
	)
	a.addCloser(func(ctx context.Context) error {
		if err := p.Flush(ctx); err != nil {
			a.logger.WithError(err).Warn("analytics flush failed")
		}
		return p.Close()
	})
	return p, nil
}
