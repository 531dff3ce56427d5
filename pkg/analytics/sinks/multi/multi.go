// Package multi provides a sink that fans out to multiple sinks.
// All sinks receive all events; errors are aggregated.
package multi

import (
	"context"
	"errors"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

type multiSink struct {
	sinks []analytics.Sink
}

// NewMultiSink creates a sink that writes to every given sink.
// Errors are aggregated via errors.Join.
func NewMultiSink(sinks ...analytics.Sink) analytics.Sink {
	return &multiSink{
		sinks: sinks,
	}
}

// Write sends the event to all sinks, even if some fail.
func (s *multiSink) Write(ctx context.Context, event analytics.Event) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetCheckoutAttemptID pushes id to all sinks.
func (s *multiSink) SetCheckoutAttemptID(id string) {
	for _, sink := range s.sinks {
		sink.SetCheckoutAttemptID(id)
	}
}

func (s *multiSink) Flush(ctx context.Context) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *multiSink) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
