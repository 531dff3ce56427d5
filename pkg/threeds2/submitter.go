package threeds2

import (
	"context"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/strongdm/checkout-actions/internal/metrics"
	"github.com/strongdm/checkout-actions/pkg/analytics"
	"github.com/strongdm/checkout-actions/pkg/apiclient"
)

const (
	tracerName = "github.com/strongdm/checkout-actions/pkg/threeds2"

	fingerprintComponent = "threeDS2Fingerprint"
	flowComponent        = "threeDS2"
)

// Submitter posts a device fingerprint and returns what to do next.
// *FingerprintSubmitter implements it.
type Submitter interface {
	Submit(ctx context.Context, fingerprint, paymentData string) (ActionHandlerResult, error)
}

type submitFingerprintRequest struct {
	clientKey string

	FingerprintResult string `json:"fingerprintResult"`
	PaymentData       string `json:"paymentData,omitempty"`
}

func (r *submitFingerprintRequest) Method() string { return http.MethodPost }
func (r *submitFingerprintRequest) Path() string   { return "v1/submitThreeDS2Fingerprint" }
func (r *submitFingerprintRequest) Query() url.Values {
	return url.Values{"token": []string{r.clientKey}}
}

// FingerprintSubmitter submits fingerprints to the checkout API.
type FingerprintSubmitter struct {
	client    apiclient.Performer
	clientKey string
	reporter  analytics.Reporter
	tracer    trace.Tracer
}

var _ Submitter = (*FingerprintSubmitter)(nil)

// NewFingerprintSubmitter creates a submitter. reporter may be nil.
func NewFingerprintSubmitter(client apiclient.Performer, clientKey string, reporter analytics.Reporter) *FingerprintSubmitter {
	return &FingerprintSubmitter{
		client:    client,
		clientKey: clientKey,
		reporter:  reporter,
		tracer:    otel.Tracer(tracerName),
	}
}

// Submit sends one fingerprint request. An empty fingerprint returns
// ErrEmptyFingerprint without a request. Any request failure is reported as
// an API error event and returned unchanged.
func (s *FingerprintSubmitter) Submit(ctx context.Context, fingerprint, paymentData string) (ActionHandlerResult, error) {
	if fingerprint == "" {
		return ActionHandlerResult{}, ErrEmptyFingerprint
	}

	ctx, span := s.tracer.Start(ctx, "threeds2.submitFingerprint")
	defer span.End()

	req := &submitFingerprintRequest{
		clientKey:         s.clientKey,
		FingerprintResult: fingerprint,
		PaymentData:       paymentData,
	}
	var result ActionHandlerResult
	err := s.client.Perform(ctx, req, &result)
	if err == nil && result.IsEmpty() {
		err = &apiclient.DecodeError{Path: req.Path(), Err: ErrEmptyResult}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ThreeDS2StepsTotal.WithLabelValues("submit", metrics.ResultFailure).Inc()
		if s.reporter != nil {
			s.reporter.AddError(analytics.NewErrorEvent(fingerprintComponent, analytics.ErrorTypeAPI).
				WithCode(analytics.CodeAPIErrorThreeDS2).
				WithMessage("fingerprint submission failed"))
		}
		return ActionHandlerResult{}, err
	}

	metrics.ThreeDS2StepsTotal.WithLabelValues("submit", metrics.ResultSuccess).Inc()
	return result, nil
}

// Completion is the outcome of an asynchronous submission.
type Completion struct {
	Result ActionHandlerResult
	Err    error
}

// SubmitAsync runs Submit in a goroutine. The channel receives exactly one
// Completion and is then closed.
func (s *FingerprintSubmitter) SubmitAsync(ctx context.Context, fingerprint, paymentData string) <-chan Completion {
	done := make(chan Completion, 1)
	go func() {
		defer close(done)
		result, err := s.Submit(ctx, fingerprint, paymentData)
		done <- Completion{Result: result, Err: err}
	}()
	return done
}
