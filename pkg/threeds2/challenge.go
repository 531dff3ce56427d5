package threeds2

import (
	"context"
	"errors"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

// Transaction status values of a challenge result.
const (
	TransStatusAuthenticated = "Y"
	TransStatusNotAuthorised = "N"
)

// ChallengeResult is what the challenge UI reports back.
type ChallengeResult struct {
	TransStatus string
}

// Challenger presents a 3DS2 challenge to the shopper. It is supplied by
// the host application, which owns the native 3DS2 SDK.
type Challenger interface {
	Challenge(ctx context.Context, token ChallengeToken) (ChallengeResult, error)
}

// ChallengerFunc adapts a function to Challenger.
type ChallengerFunc func(ctx context.Context, token ChallengeToken) (ChallengeResult, error)

func (f ChallengerFunc) Challenge(ctx context.Context, token ChallengeToken) (ChallengeResult, error) {
	return f(ctx, token)
}

// ChallengeResolver turns a challenge token into final Details.
type ChallengeResolver struct {
	challenger Challenger
	reporter   analytics.Reporter
}

// NewChallengeResolver creates a resolver. reporter may be nil.
func NewChallengeResolver(challenger Challenger, reporter analytics.Reporter) *ChallengeResolver {
	return &ChallengeResolver{challenger: challenger, reporter: reporter}
}

// Resolve decodes token, runs the challenge and encodes the outcome with
// authorisationToken. Every failure is reported once and returned as a
// *Failure.
func (r *ChallengeResolver) Resolve(ctx context.Context, token, authorisationToken string) (Details, error) {
	if token == "" {
		return Details{}, (&Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2TokenMissing,
			Message:   "challenge token missing",
		}).report(r.reporter, flowComponent)
	}
	decoded, err := DecodeChallengeToken(token)
	if err != nil {
		return Details{}, (&Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2DecodingFailed,
			Message:   "challenge token decoding failed",
			Err:       err,
		}).report(r.reporter, flowComponent)
	}
	if r.challenger == nil {
		return Details{}, (&Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2TransactionMissing,
			Message:   "no challenger configured",
		}).report(r.reporter, flowComponent)
	}

	result, err := r.challenger.Challenge(ctx, decoded)
	if err != nil {
		return Details{}, (&Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2ChallengeHandlingFailed,
			Message:   "challenge failed",
			Err:       err,
		}).report(r.reporter, flowComponent)
	}
	if result.TransStatus == "" {
		return Details{}, (&Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2ChallengeHandlingFailed,
			Message:   "challenge returned no transStatus",
			Err:       errors.New("empty transStatus"),
		}).report(r.reporter, flowComponent)
	}

	details, err := NewThreeDSResult(result.TransStatus, authorisationToken, "")
	if err != nil {
		return Details{}, (&Failure{
			ErrorType: analytics.ErrorTypeThreeDS2,
			Code:      analytics.CodeThreeDS2ChallengeHandlingFailed,
			Err:       err,
		}).report(r.reporter, flowComponent)
	}
	return details, nil
}
