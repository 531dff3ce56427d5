package actions

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Variants(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		typ     Type
		step    Step
		pd      string
	}{
		{"redirect", `{"type":"redirect","url":"https://example.com","paymentData":"pd1"}`, TypeRedirect, StepRedirect, "pd1"},
		{"native redirect", `{"type":"nativeRedirect","url":"https://example.com","nativeRedirectData":"n"}`, TypeNativeRedirect, StepRedirect, ""},
		{"threeDS2 fingerprint", `{"type":"threeDS2","subtype":"fingerprint","token":"dG9rZW4=","paymentData":"pd2"}`, TypeThreeDS2, StepFingerprint, "pd2"},
		{"threeDS2 challenge", `{"type":"threeDS2","subtype":"challenge","token":"dG9rZW4=","authorisationToken":"auth"}`, TypeThreeDS2, StepChallenge, ""},
		{"classic fingerprint", `{"type":"threeDS2Fingerprint","token":"dG9rZW4=","paymentData":"pd3"}`, TypeThreeDS2Fingerprint, StepFingerprint, "pd3"},
		{"classic challenge", `{"type":"threeDS2Challenge","token":"dG9rZW4=","paymentData":"pd4"}`, TypeThreeDS2Challenge, StepChallenge, "pd4"},
		{"await", `{"type":"await","paymentMethodType":"mbway","paymentData":"pd5"}`, TypeAwait, StepAwait, "pd5"},
		{"sdk", `{"type":"sdk","paymentMethodType":"twint","sdkData":{"token":"x"}}`, TypeSDK, StepSDK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Decode([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.typ, a.Type)
			assert.Equal(t, tt.step, a.Step())
			assert.Equal(t, tt.pd, a.PaymentData())
		})
	}
}

func TestDecode_ThreeDS2Fields(t *testing.T) {
	a, err := Decode([]byte(`{"type":"threeDS2","subtype":"challenge","token":"dG9rZW4=","authorisationToken":"auth","paymentMethodType":"scheme"}`))
	require.NoError(t, err)
	require.NotNil(t, a.ThreeDS2)
	assert.Equal(t, SubtypeChallenge, a.ThreeDS2.Subtype)
	assert.Equal(t, "dG9rZW4=", a.ThreeDS2.Token)
	assert.Equal(t, "auth", a.ThreeDS2.AuthorisationToken)
	assert.Equal(t, "scheme", a.ThreeDS2.PaymentMethodType)
}

func TestDecode_UnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"voucher","url":"https://example.com"}`))
	require.Error(t, err)

	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, "voucher", decErr.Type)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecode_StructuralErrors(t *testing.T) {
	tests := map[string]string{
		"not json":          `{`,
		"missing type":      `{"url":"https://example.com"}`,
		"redirect no url":   `{"type":"redirect"}`,
		"bad subtype":       `{"type":"threeDS2","subtype":"other","token":"x"}`,
		"missing token":     `{"type":"threeDS2","subtype":"fingerprint"}`,
		"fingerprint token": `{"type":"threeDS2Fingerprint"}`,
		"challenge token":   `{"type":"threeDS2Challenge","token":""}`,
		"wrong field type":  `{"type":"await","paymentMethodType":12}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(payload))
			require.Error(t, err)
			var decErr *DecodeError
			assert.True(t, errors.As(err, &decErr), "want *DecodeError, got %T: %v", err, err)
		})
	}
}

func TestAction_MarshalJSON_ReproducesPayload(t *testing.T) {
	payload := `{"type":"sdk","paymentMethodType":"twint","sdkData":{"token":"x","extra":[1,2]},"unknownField":true}`

	a, err := Decode([]byte(payload))
	require.NoError(t, err)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(data))
}

func TestAction_UnmarshalInsideStruct(t *testing.T) {
	var resp struct {
		Action *Action `json:"action"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"action":{"type":"await","paymentMethodType":"blik"}}`), &resp))
	require.NotNil(t, resp.Action)
	assert.Equal(t, StepAwait, resp.Action.Step())
}

func TestAction_MarshalJSON_BuiltInCode(t *testing.T) {
	a := NewThreeDS2Challenge(&ThreeDS2ChallengeAction{ChallengeToken: "tok", PaymentData: "pd"})

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"threeDS2Challenge","token":"tok","paymentData":"pd"}`, string(data))

	round, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, StepChallenge, round.Step())

	_, err = json.Marshal(Action{Type: TypeAwait})
	assert.Error(t, err)
}

func TestNewRedirect_TypeFollowsRedirectType(t *testing.T) {
	native, err := NewRedirectAction("https://example.com", "", WithRedirectType(RedirectTypeNativeRedirect))
	require.NoError(t, err)
	assert.Equal(t, TypeNativeRedirect, NewRedirect(native).Type)

	plain, err := NewRedirectAction("https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, TypeRedirect, NewRedirect(plain).Type)
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "fingerprint", StepFingerprint.String())
	assert.Equal(t, "unknown", StepUnknown.String())
}
