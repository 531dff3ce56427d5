package actions

import (
	"encoding/json"
	"errors"
)

// Subtype is the step of a subtyped "threeDS2" action.
type Subtype string

const (
	SubtypeFingerprint Subtype = "fingerprint"
	SubtypeChallenge   Subtype = "challenge"
)

// ThreeDS2Action is the "threeDS2" action, whose subtype selects the
// fingerprint or challenge step. Token is the base64 encoded step token.
type ThreeDS2Action struct {
	Subtype            Subtype `json:"subtype"`
	Token              string  `json:"token"`
	AuthorisationToken string  `json:"authorisationToken,omitempty"`
	PaymentData        string  `json:"paymentData,omitempty"`
	PaymentMethodType  string  `json:"paymentMethodType,omitempty"`
}

func (a *ThreeDS2Action) UnmarshalJSON(data []byte) error {
	type plain ThreeDS2Action
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return &DecodeError{Type: string(TypeThreeDS2), Err: err}
	}
	switch p.Subtype {
	case SubtypeFingerprint, SubtypeChallenge:
	default:
		return &DecodeError{Type: string(TypeThreeDS2), Field: "subtype", Err: errors.New("unknown subtype " + string(p.Subtype))}
	}
	if p.Token == "" {
		return &DecodeError{Type: string(TypeThreeDS2), Field: "token", Err: errors.New("missing token")}
	}
	*a = ThreeDS2Action(p)
	return nil
}

func (a *ThreeDS2Action) MarshalJSON() ([]byte, error) {
	type plain ThreeDS2Action
	return json.Marshal(struct {
		Type Type `json:"type"`
		*plain
	}{TypeThreeDS2, (*plain)(a)})
}

// ThreeDS2FingerprintAction is the classic "threeDS2Fingerprint" action.
type ThreeDS2FingerprintAction struct {
	FingerprintToken  string `json:"token"`
	PaymentData       string `json:"paymentData,omitempty"`
	PaymentMethodType string `json:"paymentMethodType,omitempty"`
}

func (a *ThreeDS2FingerprintAction) UnmarshalJSON(data []byte) error {
	type plain ThreeDS2FingerprintAction
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return &DecodeError{Type: string(TypeThreeDS2Fingerprint), Err: err}
	}
	if p.FingerprintToken == "" {
		return &DecodeError{Type: string(TypeThreeDS2Fingerprint), Field: "token", Err: errors.New("missing token")}
	}
	*a = ThreeDS2FingerprintAction(p)
	return nil
}

func (a *ThreeDS2FingerprintAction) MarshalJSON() ([]byte, error) {
	type plain ThreeDS2FingerprintAction
	return json.Marshal(struct {
		Type Type `json:"type"`
		*plain
	}{TypeThreeDS2Fingerprint, (*plain)(a)})
}

// ThreeDS2ChallengeAction is the classic "threeDS2Challenge" action.
type ThreeDS2ChallengeAction struct {
	ChallengeToken     string `json:"token"`
	AuthorisationToken string `json:"authorisationToken,omitempty"`
	PaymentData        string `json:"paymentData,omitempty"`
	PaymentMethodType  string `json:"paymentMethodType,omitempty"`
}

func (a *ThreeDS2ChallengeAction) UnmarshalJSON(data []byte) error {
	type plain ThreeDS2ChallengeAction
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return &DecodeError{Type: string(TypeThreeDS2Challenge), Err: err}
	}
	if p.ChallengeToken == "" {
		return &DecodeError{Type: string(TypeThreeDS2Challenge), Field: "token", Err: errors.New("missing token")}
	}
	*a = ThreeDS2ChallengeAction(p)
	return nil
}

func (a *ThreeDS2ChallengeAction) MarshalJSON() ([]byte, error) {
	type plain ThreeDS2ChallengeAction
	return json.Marshal(struct {
		Type Type `json:"type"`
		*plain
	}{TypeThreeDS2Challenge, (*plain)(a)})
}

// AwaitAction asks the client to wait for an out of band confirmation.
// Polling is left to the caller.
type AwaitAction struct {
	PaymentData       string `json:"paymentData,omitempty"`
	PaymentMethodType string `json:"paymentMethodType"`
}

func (a *AwaitAction) MarshalJSON() ([]byte, error) {
	type plain AwaitAction
	return json.Marshal(struct {
		Type Type `json:"type"`
		*plain
	}{TypeAwait, (*plain)(a)})
}

// SDKAction is handed to a payment method's native SDK. SDKData is kept
// verbatim.
type SDKAction struct {
	PaymentData       string          `json:"paymentData,omitempty"`
	PaymentMethodType string          `json:"paymentMethodType"`
	SDKData           json.RawMessage `json:"sdkData,omitempty"`
}

func (a *SDKAction) MarshalJSON() ([]byte, error) {
	type plain SDKAction
	return json.Marshal(struct {
		Type Type `json:"type"`
		*plain
	}{TypeSDK, (*plain)(a)})
}
