// Package stderr provides a sink that logs analytics events through logrus.
// Useful for development and debugging.
package stderr

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

// StderrSinkOption configures the stderr sink.
type StderrSinkOption func(*stderrSinkConfig)

type stderrSinkConfig struct {
	verbose bool
	output  io.Writer
	logger  logrus.FieldLogger
}

// WithVerbose also logs info events, which are emitted at debug level.
func WithVerbose() StderrSinkOption {
	return func(c *stderrSinkConfig) {
		c.verbose = true
	}
}

// WithOutput writes to w instead of os.Stderr.
func WithOutput(w io.Writer) StderrSinkOption {
	return func(c *stderrSinkConfig) {
		c.output = w
	}
}

// WithLogger logs through an existing logger. WithVerbose and WithOutput
// are ignored; level and output belong to the caller.
func WithLogger(logger logrus.FieldLogger) StderrSinkOption {
	return func(c *stderrSinkConfig) {
		c.logger = logger
	}
}

type stderrSink struct {
	logger logrus.FieldLogger

	mu                sync.RWMutex
	checkoutAttemptID string
}

// NewStderrSink creates a sink that logs every event as one structured line.
// Error events log at error level, log events at info level and info events
// at debug level.
func NewStderrSink(opts ...StderrSinkOption) analytics.Sink {
	cfg := &stderrSinkConfig{output: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(cfg.output)
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:   true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05Z07:00",
		})
		if cfg.verbose {
			l.SetLevel(logrus.DebugLevel)
		}
		logger = l
	}

	return &stderrSink{logger: logger}
}

// Write formats and logs the event.
func (s *stderrSink) Write(ctx context.Context, event analytics.Event) error {
	header := event.EventHeader()
	fields := logrus.Fields{
		"kind":     event.Kind(),
		"event_id": header.ID,
	}
	attemptID := header.CheckoutAttemptID
	if attemptID == "" {
		s.mu.RLock()
		attemptID = s.checkoutAttemptID
		s.mu.RUnlock()
	}
	if attemptID != "" {
		fields["checkout_attempt_id"] = attemptID
	}

	switch e := event.(type) {
	case analytics.ErrorEvent:
		fields["component"] = e.Component
		fields["error_type"] = e.ErrorType
		if e.Code != "" {
			fields["code"] = e.Code
		}
		s.logger.WithFields(fields).Error(messageOr(e.Message, "analytics error"))
	case analytics.LogEvent:
		fields["component"] = e.Component
		fields["type"] = e.Type
		if e.SubType != "" {
			fields["sub_type"] = e.SubType
		}
		if e.Target != "" {
			fields["target"] = e.Target
		}
		if e.Result != "" {
			fields["result"] = e.Result
		}
		s.logger.WithFields(fields).Info(messageOr(e.Message, "analytics log"))
	case analytics.InfoEvent:
		fields["component"] = e.Component
		fields["type"] = e.Type
		if e.Target != "" {
			fields["target"] = e.Target
		}
		if e.ValidationErrorCode != "" {
			fields["validation_error_code"] = e.ValidationErrorCode
		}
		s.logger.WithFields(fields).Debug(messageOr(e.ValidationErrorMessage, "analytics info"))
	}
	return nil
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

// SetCheckoutAttemptID records id for events that were not stamped.
func (s *stderrSink) SetCheckoutAttemptID(id string) {
	s.mu.Lock()
	s.checkoutAttemptID = id
	s.mu.Unlock()
}

// Flush is a no-op for stderr sink.
func (s *stderrSink) Flush(ctx context.Context) error {
	return nil
}

// Close is a no-op for stderr sink.
func (s *stderrSink) Close() error {
	return nil
}
