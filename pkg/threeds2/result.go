// Package threeds2 drives the 3D Secure 2 authentication steps of a payment:
// fingerprint submission, challenge resolution and the flow that ties them
// together. Every failure is reported to analytics before it is returned.
package threeds2

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/strongdm/checkout-actions/pkg/actions"
)

// Details are the final 3DS2 details submitted to the payments details
// endpoint.
type Details struct {
	actions.DetailsMarker

	// ThreeDSResult is an opaque base64 encoded result.
	ThreeDSResult string `json:"threeDSResult"`
}

// Result is the decoded content of a ThreeDSResult.
type Result struct {
	TransStatus        string `json:"transStatus,omitempty"`
	AuthorisationToken string `json:"authorisationToken,omitempty"`
	SDKError           string `json:"threeDS2SDKError,omitempty"`
}

// NewThreeDSResult encodes a challenge outcome as Details.
func NewThreeDSResult(transStatus, authorisationToken, sdkError string) (Details, error) {
	data, err := json.Marshal(Result{
		TransStatus:        transStatus,
		AuthorisationToken: authorisationToken,
		SDKError:           sdkError,
	})
	if err != nil {
		return Details{}, fmt.Errorf("encode threeDSResult: %w", err)
	}
	return Details{ThreeDSResult: base64.StdEncoding.EncodeToString(data)}, nil
}

// Result decodes d.ThreeDSResult.
func (d Details) Result() (Result, error) {
	var r Result
	if err := decodeBase64JSON(d.ThreeDSResult, &r); err != nil {
		return Result{}, fmt.Errorf("decode threeDSResult: %w", err)
	}
	return r, nil
}

// ActionHandlerResult is what the fingerprint endpoint answers: either a
// follow-up action or the completed details. Exactly one field is set.
type ActionHandlerResult struct {
	Action  *actions.Action
	Details *Details
}

// IsCompleted reports whether the result carries final details.
func (r ActionHandlerResult) IsCompleted() bool { return r.Details != nil }

// IsEmpty reports whether neither variant is populated.
func (r ActionHandlerResult) IsEmpty() bool { return r.Action == nil && r.Details == nil }

type resultType string

const (
	resultTypeAction    resultType = "action"
	resultTypeCompleted resultType = "completed"
)

type resultWire struct {
	Type    resultType      `json:"type"`
	Action  *actions.Action `json:"action,omitempty"`
	Details *Details        `json:"details,omitempty"`
}

// UnmarshalJSON decodes {"type":"action","action":{...}} or
// {"type":"completed","details":{...}}. Any other type is an error.
func (r *ActionHandlerResult) UnmarshalJSON(data []byte) error {
	var w resultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case resultTypeAction:
		if w.Action == nil {
			return errors.New("threeds2: action result without action")
		}
		*r = ActionHandlerResult{Action: w.Action}
	case resultTypeCompleted:
		if w.Details == nil {
			return errors.New("threeds2: completed result without details")
		}
		if w.Details.ThreeDSResult == "" {
			return errors.New("threeds2: completed result without threeDSResult")
		}
		*r = ActionHandlerResult{Details: w.Details}
	default:
		return fmt.Errorf("threeds2: unknown result type %q", w.Type)
	}
	return nil
}

// MarshalJSON encodes the result in its wire form.
func (r ActionHandlerResult) MarshalJSON() ([]byte, error) {
	switch {
	case r.Action != nil:
		return json.Marshal(resultWire{Type: resultTypeAction, Action: r.Action})
	case r.Details != nil:
		return json.Marshal(resultWire{Type: resultTypeCompleted, Details: r.Details})
	default:
		return nil, errors.New("threeds2: empty result")
	}
}
