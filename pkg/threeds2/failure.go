package threeds2

import (
	"errors"
	"fmt"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

var (
	// ErrEmptyFingerprint is returned by Submit for an empty fingerprint.
	// Nothing is sent and nothing is reported.
	ErrEmptyFingerprint = errors.New("threeds2: empty fingerprint")

	// ErrFlowTerminated is returned by Flow.Handle once the flow completed
	// or failed.
	ErrFlowTerminated = errors.New("threeds2: flow already terminated")

	// ErrUnexpectedAction is returned when an action does not fit the
	// current state, such as a second fingerprint. The flow is not failed.
	ErrUnexpectedAction = errors.New("threeds2: action not valid in current state")

	// ErrEmptyResult is wrapped in an *apiclient.DecodeError when a
	// submission succeeds without an action or details.
	ErrEmptyResult = errors.New("threeds2: submission returned no result")
)

// Failure is a terminal 3DS2 failure. It carries the analytics
// classification so callers can render a generic message when Message is
// empty.
type Failure struct {
	ErrorType analytics.ErrorType
	Code      analytics.ErrorCode
	Message   string
	Err       error
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" && f.Err != nil {
		msg = f.Err.Error()
	}
	if msg == "" {
		return fmt.Sprintf("threeds2: %s error %d", f.ErrorType, f.Code)
	}
	return fmt.Sprintf("threeds2: %s error %d: %s", f.ErrorType, f.Code, msg)
}

func (f *Failure) Unwrap() error { return f.Err }

// report records f as an error event for component and returns f.
func (f *Failure) report(reporter analytics.Reporter, component string) *Failure {
	if reporter != nil {
		event := analytics.NewErrorEvent(component, f.ErrorType).WithCode(f.Code)
		if f.Message != "" {
			event = event.WithMessage(f.Message)
		}
		reporter.AddError(event)
	}
	return f
}
