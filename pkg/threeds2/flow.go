package threeds2

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/strongdm/checkout-actions/internal/metrics"
	"github.com/strongdm/checkout-actions/pkg/actions"
	"github.com/strongdm/checkout-actions/pkg/analytics"
)

// State is the position of a Flow in the 3DS2 protocol.
type State int

const (
	StateAwaitingFingerprint State = iota
	StateAwaitingChallengeOrResult
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingFingerprint:
		return "awaitingFingerprint"
	case StateAwaitingChallengeOrResult:
		return "awaitingChallengeOrResult"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are accepted.
func (s State) Terminal() bool { return s == StateCompleted || s == StateFailed }

// Fingerprinter produces the device fingerprint for a fingerprint token.
// It is supplied by the host application.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, token FingerprintToken) (Fingerprint, error)
}

// FingerprinterFunc adapts a function to Fingerprinter.
type FingerprinterFunc func(ctx context.Context, token FingerprintToken) (Fingerprint, error)

func (f FingerprinterFunc) Fingerprint(ctx context.Context, token FingerprintToken) (Fingerprint, error) {
	return f(ctx, token)
}

// Outcome is the result of one Handle call. Data is set once the flow
// completed; NextAction is set when the caller must handle an action the
// flow does not own.
type Outcome struct {
	Data       *actions.ActionComponentData
	NextAction *actions.Action
}

// FlowOption configures a Flow.
type FlowOption func(*Flow)

// WithReporter sets the analytics reporter.
func WithReporter(reporter analytics.Reporter) FlowOption {
	return func(f *Flow) {
		f.reporter = reporter
	}
}

// WithChallenger sets the challenge presenter.
func WithChallenger(challenger Challenger) FlowOption {
	return func(f *Flow) {
		f.challenger = challenger
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(logger logrus.FieldLogger) FlowOption {
	return func(f *Flow) {
		f.logger = logger
	}
}

// Flow is the 3DS2 action handler of one payment. Handle calls are
// serialized.
type Flow struct {
	submitter     Submitter
	fingerprinter Fingerprinter
	challenger    Challenger
	reporter      analytics.Reporter
	logger        logrus.FieldLogger
	tracer        trace.Tracer

	mu    sync.Mutex
	state State
}

// NewFlow creates a Flow in StateAwaitingFingerprint.
func NewFlow(submitter Submitter, fingerprinter Fingerprinter, opts ...FlowOption) *Flow {
	f := &Flow{
		submitter:     submitter,
		fingerprinter: fingerprinter,
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		f.logger = discard
	}
	return f
}

// State returns the current state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Handle advances the flow with action. Redirect, await and SDK actions are
// returned unchanged as NextAction.
func (f *Flow) Handle(ctx context.Context, action actions.Action) (Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Terminal() {
		return Outcome{}, ErrFlowTerminated
	}

	switch action.Step() {
	case actions.StepFingerprint:
		if f.state != StateAwaitingFingerprint {
			return Outcome{}, fmt.Errorf("%w: fingerprint in state %s", ErrUnexpectedAction, f.state)
		}
		return f.fingerprint(ctx, action)
	case actions.StepChallenge:
		return f.challenge(ctx, action)
	default:
		return Outcome{NextAction: &action}, nil
	}
}

func (f *Flow) fingerprint(ctx context.Context, action actions.Action) (Outcome, error) {
	ctx, span := f.tracer.Start(ctx, "threeds2.fingerprint",
		trace.WithAttributes(attribute.String("threeds2.action", string(action.Type))))
	defer span.End()

	token, paymentData := fingerprintFields(action)

	decoded, err := DecodeFingerprintToken(token)
	if err != nil {
		code := analytics.CodeThreeDS2DecodingFailed
		if token == "" {
			code = analytics.CodeThreeDS2TokenMissing
		}
		return f.fail(span, "fingerprint", &Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      code,
			Message:   "fingerprint token decoding failed",
			Err:       err,
		}, true)
	}

	if f.fingerprinter == nil {
		return f.fail(span, "fingerprint", &Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2TransactionCreationFailed,
			Message:   "no fingerprinter configured",
		}, true)
	}
	fp, err := f.fingerprinter.Fingerprint(ctx, decoded)
	if err != nil {
		return f.fail(span, "fingerprint", &Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2FingerprintCreationFailed,
			Message:   "fingerprint creation failed",
			Err:       err,
		}, true)
	}
	encoded, err := fp.Encode()
	if err != nil {
		return f.fail(span, "fingerprint", &Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2FingerprintCreationFailed,
			Err:       err,
		}, true)
	}

	f.log(analytics.LogSubTypeFingerprintSent, "")
	result, err := f.submitter.Submit(ctx, encoded, paymentData)
	if err != nil {
		// The submitter already reported the failure.
		return f.fail(span, "fingerprint", &Failure{
			ErrorType: analytics.ErrorTypeAPI,
			Code:      analytics.CodeAPIErrorThreeDS2,
			Err:       err,
		}, false)
	}
	f.log(analytics.LogSubTypeFingerprintComplete, "")
	metrics.ThreeDS2StepsTotal.WithLabelValues("fingerprint", metrics.ResultSuccess).Inc()

	if result.IsCompleted() {
		f.transition(StateCompleted)
		span.SetAttributes(attribute.String("threeds2.result", "completed"))
		return Outcome{Data: &actions.ActionComponentData{Details: result.Details, PaymentData: paymentData}}, nil
	}

	if result.Action == nil {
		return f.fail(span, "fingerprint", &Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2FingerprintHandlingFailed,
			Message:   "fingerprint submission returned no result",
			Err:       ErrEmptyResult,
		}, true)
	}

	f.transition(StateAwaitingChallengeOrResult)
	next := *result.Action
	switch next.Step() {
	case actions.StepChallenge:
		span.SetAttributes(attribute.String("threeds2.result", "challenge"))
		return f.challenge(ctx, next)
	case actions.StepFingerprint:
		return f.fail(span, "fingerprint", &Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2FingerprintHandlingFailed,
			Message:   "fingerprint answered with another fingerprint",
		}, true)
	default:
		span.SetAttributes(attribute.String("threeds2.result", string(next.Type)))
		return Outcome{NextAction: &next}, nil
	}
}

func (f *Flow) challenge(ctx context.Context, action actions.Action) (Outcome, error) {
	ctx, span := f.tracer.Start(ctx, "threeds2.challenge",
		trace.WithAttributes(attribute.String("threeds2.action", string(action.Type))))
	defer span.End()

	token, authorisationToken, paymentData := challengeFields(action)

	f.log(analytics.LogSubTypeChallengeDataSent, "")
	details, err := NewChallengeResolver(f.challenger, f.reporter).Resolve(ctx, token, authorisationToken)
	if err != nil {
		// The resolver already reported the failure.
		return f.fail(span, "challenge", asFailure(err), false)
	}
	f.log(analytics.LogSubTypeChallengeComplete, "")
	metrics.ThreeDS2StepsTotal.WithLabelValues("challenge", metrics.ResultSuccess).Inc()

	f.transition(StateCompleted)
	return Outcome{Data: &actions.ActionComponentData{Details: &details, PaymentData: paymentData}}, nil
}

// fail moves the flow to StateFailed and returns failure, reporting it
// first when report is set.
func (f *Flow) fail(span trace.Span, step string, failure *Failure, report bool) (Outcome, error) {
	if report {
		failure.report(f.reporter, flowComponent)
	}
	span.RecordError(failure)
	span.SetStatus(codes.Error, failure.Error())
	metrics.ThreeDS2StepsTotal.WithLabelValues(step, metrics.ResultFailure).Inc()
	f.transition(StateFailed)
	return Outcome{}, failure
}

func (f *Flow) transition(to State) {
	f.logger.WithFields(logrus.Fields{"from": f.state.String(), "to": to.String()}).Debug("threeds2 transition")
	f.state = to
}

func (f *Flow) log(subType analytics.LogSubType, result string) {
	if f.reporter == nil {
		return
	}
	event := analytics.NewLogEvent(flowComponent, analytics.LogTypeThreeDS2)
	event.SubType = subType
	event.Result = result
	f.reporter.AddLog(event)
}

func fingerprintFields(action actions.Action) (token, paymentData string) {
	switch {
	case action.ThreeDS2 != nil:
		return action.ThreeDS2.Token, action.ThreeDS2.PaymentData
	case action.ThreeDS2Fingerprint != nil:
		return action.ThreeDS2Fingerprint.FingerprintToken, action.ThreeDS2Fingerprint.PaymentData
	}
	return "", ""
}

func challengeFields(action actions.Action) (token, authorisationToken, paymentData string) {
	switch {
	case action.ThreeDS2 != nil:
		a := action.ThreeDS2
		return a.Token, a.AuthorisationToken, a.PaymentData
	case action.ThreeDS2Challenge != nil:
		a := action.ThreeDS2Challenge
		return a.ChallengeToken, a.AuthorisationToken, a.PaymentData
	}
	return "", "", ""
}

func asFailure(err error) *Failure {
	if failure, ok := err.(*Failure); ok {
		return failure
	}
	return &Failure{ErrorType: analytics.ErrorTypeThreeDS2, Code: analytics.CodeThreeDS2ChallengeHandlingFailed, Err: err}
}
