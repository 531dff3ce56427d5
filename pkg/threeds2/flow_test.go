package threeds2

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strongdm/checkout-actions/pkg/actions"
	"github.com/strongdm/checkout-actions/pkg/analytics"
)

func staticFingerprinter() Fingerprinter {
	return FingerprinterFunc(func(ctx context.Context, token FingerprintToken) (Fingerprint, error) {
		return testFingerprint(), nil
	})
}

func fingerprintAction(t *testing.T) actions.Action {
	return actions.NewThreeDS2Fingerprint(&actions.ThreeDS2FingerprintAction{
		FingerprintToken: fingerprintToken(t),
		PaymentData:      "pd",
	})
}

func challengeAction(t *testing.T) actions.Action {
	return actions.NewThreeDS2Challenge(&actions.ThreeDS2ChallengeAction{
		ChallengeToken:     challengeToken(t),
		AuthorisationToken: "auth-1",
		PaymentData:        "pd-challenge",
	})
}

func TestFlow_FingerprintCompleted(t *testing.T) {
	submitter := &fakeSubmitter{result: ActionHandlerResult{Details: &Details{ThreeDSResult: "res"}}}
	reporter := &recordingReporter{}
	flow := NewFlow(submitter, staticFingerprinter(), WithReporter(reporter))

	out, err := flow.Handle(context.Background(), fingerprintAction(t))
	require.NoError(t, err)

	require.NotNil(t, out.Data)
	assert.Nil(t, out.NextAction)
	assert.Equal(t, &Details{ThreeDSResult: "res"}, out.Data.Details)
	assert.Equal(t, "pd", out.Data.PaymentData)
	assert.Equal(t, StateCompleted, flow.State())

	expected, err := testFingerprint().Encode()
	require.NoError(t, err)
	assert.Equal(t, expected, submitter.fingerprint)
	assert.Equal(t, "pd", submitter.paymentData)
	assert.Equal(t, []analytics.LogSubType{
		analytics.LogSubTypeFingerprintSent,
		analytics.LogSubTypeFingerprintComplete,
	}, reporter.getLogSubTypes())
}

func TestFlow_FingerprintThenChallenge(t *testing.T) {
	next := challengeAction(t)
	submitter := &fakeSubmitter{result: ActionHandlerResult{Action: &next}}
	reporter := &recordingReporter{}
	flow := NewFlow(submitter, staticFingerprinter(),
		WithReporter(reporter), WithChallenger(ChallengerFunc(authenticated)))

	out, err := flow.Handle(context.Background(), fingerprintAction(t))
	require.NoError(t, err)

	require.NotNil(t, out.Data)
	assert.Equal(t, "pd-challenge", out.Data.PaymentData)
	details, ok := out.Data.Details.(*Details)
	require.True(t, ok)
	result, err := details.Result()
	require.NoError(t, err)
	assert.Equal(t, "Y", result.TransStatus)
	assert.Equal(t, "auth-1", result.AuthorisationToken)

	assert.Equal(t, StateCompleted, flow.State())
	assert.Equal(t, []analytics.LogSubType{
		analytics.LogSubTypeFingerprintSent,
		analytics.LogSubTypeFingerprintComplete,
		analytics.LogSubTypeChallengeDataSent,
		analytics.LogSubTypeChallengeComplete,
	}, reporter.getLogSubTypes())
	assert.Empty(t, reporter.getErrors())
}

func TestFlow_FingerprintReturnsOtherAction(t *testing.T) {
	redirect, err := actions.Decode([]byte(`{"type":"redirect","url":"https://example.com/3ds","paymentData":"pd"}`))
	require.NoError(t, err)
	submitter := &fakeSubmitter{result: ActionHandlerResult{Action: &redirect}}
	flow := NewFlow(submitter, staticFingerprinter())

	out, err := flow.Handle(context.Background(), fingerprintAction(t))
	require.NoError(t, err)

	require.NotNil(t, out.NextAction)
	assert.Equal(t, actions.StepRedirect, out.NextAction.Step())
	assert.Nil(t, out.Data)
	assert.Equal(t, StateAwaitingChallengeOrResult, flow.State())
	assert.False(t, flow.State().Terminal())
}

func TestFlow_ChallengeOnly(t *testing.T) {
	flow := NewFlow(&fakeSubmitter{}, nil, WithChallenger(ChallengerFunc(authenticated)))

	out, err := flow.Handle(context.Background(), challengeAction(t))
	require.NoError(t, err)
	require.NotNil(t, out.Data)
	assert.Equal(t, StateCompleted, flow.State())
}

func TestFlow_PassesThroughCallerActions(t *testing.T) {
	flow := NewFlow(&fakeSubmitter{}, staticFingerprinter())

	for _, raw := range []string{
		`{"type":"redirect","url":"https://example.com/hpp"}`,
		`{"type":"await","paymentMethodType":"blik","paymentData":"pd"}`,
		`{"type":"sdk","paymentMethodType":"wechatpaySDK","sdkData":{"appid":"x"}}`,
	} {
		action, err := actions.Decode([]byte(raw))
		require.NoError(t, err, raw)

		out, err := flow.Handle(context.Background(), action)
		require.NoError(t, err)
		require.NotNil(t, out.NextAction)
		assert.Equal(t, action.Type, out.NextAction.Type)
	}
	assert.Equal(t, StateAwaitingFingerprint, flow.State())
}

func TestFlow_Failures(t *testing.T) {
	failingFingerprinter := FingerprinterFunc(func(ctx context.Context, token FingerprintToken) (Fingerprint, error) {
		return Fingerprint{}, errors.New("sdk unavailable")
	})
	badToken := actions.NewThreeDS2Fingerprint(&actions.ThreeDS2FingerprintAction{
		FingerprintToken: "garbage",
		PaymentData:      "pd",
	})
	anotherFingerprint := fingerprintAction(t)

	tests := []struct {
		name          string
		fingerprinter Fingerprinter
		submitter     *fakeSubmitter
		action        actions.Action
		code          string
	}{
		{"undecodable token", staticFingerprinter(), &fakeSubmitter{}, badToken, "704"},
		{"fingerprint creation", failingFingerprinter, &fakeSubmitter{}, fingerprintAction(t), "705"},
		{"no fingerprinter", nil, &fakeSubmitter{}, fingerprintAction(t), "706"},
		{"fingerprint loop", staticFingerprinter(),
			&fakeSubmitter{result: ActionHandlerResult{Action: &anotherFingerprint}}, fingerprintAction(t), "708"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reporter := &recordingReporter{}
			flow := NewFlow(tt.submitter, tt.fingerprinter, WithReporter(reporter))

			_, err := flow.Handle(context.Background(), tt.action)

			var failure *Failure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, tt.code, failure.Code.String())
			assert.Equal(t, StateFailed, flow.State())

			events := reporter.getErrors()
			require.Len(t, events, 1)
			assert.Equal(t, tt.code, events[0].Code)
		})
	}
}

func TestFlow_FingerprintFailureSkipsSubmission(t *testing.T) {
	submitter := &fakeSubmitter{}
	failing := FingerprinterFunc(func(ctx context.Context, token FingerprintToken) (Fingerprint, error) {
		return Fingerprint{}, errors.New("sdk unavailable")
	})
	flow := NewFlow(submitter, failing)

	_, err := flow.Handle(context.Background(), fingerprintAction(t))
	require.Error(t, err)
	assert.Equal(t, 0, submitter.calls)
}

func TestFlow_SubmitFailureNotReportedTwice(t *testing.T) {
	cause := errors.New("offline")
	reporter := &recordingReporter{}
	flow := NewFlow(&fakeSubmitter{err: cause}, staticFingerprinter(), WithReporter(reporter))

	_, err := flow.Handle(context.Background(), fingerprintAction(t))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, StateFailed, flow.State())
	assert.Empty(t, reporter.getErrors(), "the submitter owns the submission error event")
}

func TestFlow_EmptySubmissionResultFails(t *testing.T) {
	reporter := &recordingReporter{}
	flow := NewFlow(&fakeSubmitter{}, staticFingerprinter(), WithReporter(reporter))

	var err error
	require.NotPanics(t, func() {
		_, err = flow.Handle(context.Background(), fingerprintAction(t))
	})

	assert.ErrorIs(t, err, ErrEmptyResult)
	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, analytics.CodeThreeDS2FingerprintHandlingFailed, failure.Code)
	assert.Equal(t, StateFailed, flow.State())

	events := reporter.getErrors()
	require.Len(t, events, 1)
	assert.Equal(t, "708", events[0].Code)
}

func TestFlow_ChallengeFailure(t *testing.T) {
	reporter := &recordingReporter{}
	flow := NewFlow(&fakeSubmitter{}, nil, WithReporter(reporter),
		WithChallenger(ChallengerFunc(func(ctx context.Context, token ChallengeToken) (ChallengeResult, error) {
			return ChallengeResult{}, errors.New("timeout")
		})))

	_, err := flow.Handle(context.Background(), challengeAction(t))

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, analytics.CodeThreeDS2ChallengeHandlingFailed, failure.Code)
	assert.Equal(t, StateFailed, flow.State())
	assert.Len(t, reporter.getErrors(), 1)
}

func TestFlow_TerminalStatesRejectActions(t *testing.T) {
	submitter := &fakeSubmitter{result: ActionHandlerResult{Details: &Details{ThreeDSResult: "res"}}}
	flow := NewFlow(submitter, staticFingerprinter())

	_, err := flow.Handle(context.Background(), fingerprintAction(t))
	require.NoError(t, err)

	_, err = flow.Handle(context.Background(), challengeAction(t))
	assert.ErrorIs(t, err, ErrFlowTerminated)

	redirect, err := actions.Decode([]byte(`{"type":"redirect","url":"https://example.com"}`))
	require.NoError(t, err)
	_, err = flow.Handle(context.Background(), redirect)
	assert.ErrorIs(t, err, ErrFlowTerminated)
}

func TestFlow_SecondFingerprintRejected(t *testing.T) {
	redirect, err := actions.Decode([]byte(`{"type":"redirect","url":"https://example.com"}`))
	require.NoError(t, err)
	flow := NewFlow(&fakeSubmitter{result: ActionHandlerResult{Action: &redirect}}, staticFingerprinter())

	_, err = flow.Handle(context.Background(), fingerprintAction(t))
	require.NoError(t, err)

	_, err = flow.Handle(context.Background(), fingerprintAction(t))
	assert.ErrorIs(t, err, ErrUnexpectedAction)
	assert.Equal(t, StateAwaitingChallengeOrResult, flow.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaitingFingerprint", StateAwaitingFingerprint.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
}
