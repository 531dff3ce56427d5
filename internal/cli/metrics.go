package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strongdm/checkout-actions/internal/metrics"
)

// serveMetrics exposes the collectors on addr until shutdown.
func (a *app) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	reg.MustRegister(collectors.NewGoCollector())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Warn("metrics server stopped")
		}
	}()
	a.logger.WithField("addr", ln.Addr().String()).Info("serving metrics")

	a.addCloser(func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	})
	return nil
}
