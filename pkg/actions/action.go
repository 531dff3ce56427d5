// Package actions decodes the actions a payments API response asks the
// client to perform: redirects, 3D Secure 2 steps, await and SDK actions.
package actions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Type is the value of an action's "type" field.
type Type string

const (
	TypeRedirect            Type = "redirect"
	TypeNativeRedirect      Type = "nativeRedirect"
	TypeThreeDS2            Type = "threeDS2"
	TypeThreeDS2Fingerprint Type = "threeDS2Fingerprint"
	TypeThreeDS2Challenge   Type = "threeDS2Challenge"
	TypeAwait               Type = "await"
	TypeSDK                 Type = "sdk"
)

// Step classifies what an action asks the client to do.
type Step int

const (
	StepUnknown Step = iota
	StepRedirect
	StepFingerprint
	StepChallenge
	StepAwait
	StepSDK
)

func (s Step) String() string {
	switch s {
	case StepRedirect:
		return "redirect"
	case StepFingerprint:
		return "fingerprint"
	case StepChallenge:
		return "challenge"
	case StepAwait:
		return "await"
	case StepSDK:
		return "sdk"
	default:
		return "unknown"
	}
}

// DecodeError is a structural decoding failure.
type DecodeError struct {
	// Type is the action type being decoded, if known.
	Type string
	// Field is the offending field, if any.
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Type != "" && e.Field != "":
		return fmt.Sprintf("decode %s action: field %s: %v", e.Type, e.Field, e.Err)
	case e.Type != "":
		return fmt.Sprintf("decode %s action: %v", e.Type, e.Err)
	default:
		return fmt.Sprintf("decode action: %v", e.Err)
	}
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrUnknownType is wrapped by a DecodeError for an unsupported action type.
var ErrUnknownType = errors.New("unknown action type")

// Action is one decoded action. Exactly one of the variant pointers is set,
// matching Type.
type Action struct {
	Type Type

	Redirect            *RedirectAction
	ThreeDS2            *ThreeDS2Action
	ThreeDS2Fingerprint *ThreeDS2FingerprintAction
	ThreeDS2Challenge   *ThreeDS2ChallengeAction
	Await               *AwaitAction
	SDK                 *SDKAction

	raw json.RawMessage
}

// Decode decodes an action from its JSON form.
func Decode(data []byte) (Action, error) {
	var a Action
	if err := a.UnmarshalJSON(data); err != nil {
		return Action{}, err
	}
	return a, nil
}

// UnmarshalJSON dispatches on the "type" field.
func (a *Action) UnmarshalJSON(data []byte) error {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return &DecodeError{Err: err}
	}
	if head.Type == nil {
		return &DecodeError{Field: "type", Err: errors.New("missing type")}
	}

	decoded := Action{Type: Type(*head.Type)}
	var target any
	switch decoded.Type {
	case TypeRedirect, TypeNativeRedirect:
		decoded.Redirect = &RedirectAction{}
		target = decoded.Redirect
	case TypeThreeDS2:
		decoded.ThreeDS2 = &ThreeDS2Action{}
		target = decoded.ThreeDS2
	case TypeThreeDS2Fingerprint:
		decoded.ThreeDS2Fingerprint = &ThreeDS2FingerprintAction{}
		target = decoded.ThreeDS2Fingerprint
	case TypeThreeDS2Challenge:
		decoded.ThreeDS2Challenge = &ThreeDS2ChallengeAction{}
		target = decoded.ThreeDS2Challenge
	case TypeAwait:
		decoded.Await = &AwaitAction{}
		target = decoded.Await
	case TypeSDK:
		decoded.SDK = &SDKAction{}
		target = decoded.SDK
	default:
		return &DecodeError{Type: *head.Type, Err: ErrUnknownType}
	}

	if err := json.Unmarshal(data, target); err != nil {
		var decErr *DecodeError
		if errors.As(err, &decErr) {
			return decErr
		}
		return &DecodeError{Type: *head.Type, Err: err}
	}

	decoded.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	*a = decoded
	return nil
}

// MarshalJSON reproduces the decoded payload. Actions built in code are
// encoded from their variant.
func (a Action) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	v := a.variant()
	if v == nil {
		return nil, fmt.Errorf("actions: action of type %q has no payload", a.Type)
	}
	return json.Marshal(v)
}

func (a Action) variant() any {
	switch {
	case a.Redirect != nil:
		return a.Redirect
	case a.ThreeDS2 != nil:
		return a.ThreeDS2
	case a.ThreeDS2Fingerprint != nil:
		return a.ThreeDS2Fingerprint
	case a.ThreeDS2Challenge != nil:
		return a.ThreeDS2Challenge
	case a.Await != nil:
		return a.Await
	case a.SDK != nil:
		return a.SDK
	}
	return nil
}

// Step classifies the action.
func (a Action) Step() Step {
	switch {
	case a.Redirect != nil:
		return StepRedirect
	case a.ThreeDS2 != nil:
		switch a.ThreeDS2.Subtype {
		case SubtypeFingerprint:
			return StepFingerprint
		case SubtypeChallenge:
			return StepChallenge
		}
	case a.ThreeDS2Fingerprint != nil:
		return StepFingerprint
	case a.ThreeDS2Challenge != nil:
		return StepChallenge
	case a.Await != nil:
		return StepAwait
	case a.SDK != nil:
		return StepSDK
	}
	return StepUnknown
}

// PaymentData returns the payment data carried by the action, if any.
func (a Action) PaymentData() string {
	switch {
	case a.Redirect != nil:
		return a.Redirect.PaymentData()
	case a.ThreeDS2 != nil:
		return a.ThreeDS2.PaymentData
	case a.ThreeDS2Fingerprint != nil:
		return a.ThreeDS2Fingerprint.PaymentData
	case a.ThreeDS2Challenge != nil:
		return a.ThreeDS2Challenge.PaymentData
	case a.Await != nil:
		return a.Await.PaymentData
	case a.SDK != nil:
		return a.SDK.PaymentData
	}
	return ""
}

// NewRedirect wraps a redirect action.
func NewRedirect(r *RedirectAction) Action {
	t := TypeRedirect
	if r.IsNative() {
		t = TypeNativeRedirect
	}
	return Action{Type: t, Redirect: r}
}

// NewThreeDS2 wraps a subtyped 3DS2 action.
func NewThreeDS2(a *ThreeDS2Action) Action {
	return Action{Type: TypeThreeDS2, ThreeDS2: a}
}

// NewThreeDS2Fingerprint wraps a 3DS2 fingerprint action.
func NewThreeDS2Fingerprint(a *ThreeDS2FingerprintAction) Action {
	return Action{Type: TypeThreeDS2Fingerprint, ThreeDS2Fingerprint: a}
}

// NewThreeDS2Challenge wraps a 3DS2 challenge action.
func NewThreeDS2Challenge(a *ThreeDS2ChallengeAction) Action {
	return Action{Type: TypeThreeDS2Challenge, ThreeDS2Challenge: a}
}
