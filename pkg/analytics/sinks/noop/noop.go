// Package noop provides a sink that discards all events.
// Useful for tests and for running with analytics turned off.
package noop

import (
	"context"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

type noopSink struct{}

// NewNoopSink creates a sink that discards all events.
func NewNoopSink() analytics.Sink {
	return &noopSink{}
}

func (s *noopSink) Write(ctx context.Context, event analytics.Event) error { return nil }

func (s *noopSink) SetCheckoutAttemptID(id string) {}

func (s *noopSink) Flush(ctx context.Context) error { return nil }

func (s *noopSink) Close() error { return nil }
