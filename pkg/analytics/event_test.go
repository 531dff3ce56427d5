package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFixedNow(t *testing.T, ts time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return ts }
	t.Cleanup(func() { now = prev })
}

func TestNewErrorEvent_GeneratesIdentity(t *testing.T) {
	withFixedNow(t, time.Unix(1700000000, 0))

	a := NewErrorEvent("threeDS2Fingerprint", ErrorTypeAPI)
	b := NewErrorEvent("threeDS2Fingerprint", ErrorTypeAPI)

	assert.Len(t, a.ID, 36, "id should be a UUID")
	assert.NotEqual(t, a.ID, b.ID, "each event gets a fresh id")
	assert.Equal(t, int64(1700000000), a.Timestamp)
	assert.Equal(t, KindError, a.Kind())
	assert.Empty(t, a.EventHeader().CheckoutAttemptID)
}

func TestErrorEvent_WireShape(t *testing.T) {
	e := ErrorEvent{
		Header:    Header{ID: "e1", Timestamp: 42, CheckoutAttemptID: "attempt"},
		Component: "threeDS2Fingerprint",
		ErrorType: ErrorTypeAPI,
	}.WithCode(CodeAPIErrorThreeDS2)

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"id":"e1","timestamp":42,"component":"threeDS2Fingerprint","errorType":"ApiError","code":"622"}`,
		string(data))
}

func TestErrorType_WireValues(t *testing.T) {
	want := map[ErrorType]string{
		ErrorTypeNetwork:        "Network",
		ErrorTypeImplementation: "Implementation",
		ErrorTypeInternal:       "Internal",
		ErrorTypeAPI:            "ApiError",
		ErrorTypeSDK:            "SdkError",
		ErrorTypeThirdParty:     "ThirdParty",
		ErrorTypeGeneric:        "Generic",
		ErrorTypeRedirect:       "Redirect",
		ErrorTypeThreeDS2:       "ThreeDS2",
	}
	for typ, wire := range want {
		assert.Equal(t, wire, string(typ))
		assert.True(t, typ.Valid(), "%s should be valid", typ)

		data, err := json.Marshal(typ)
		require.NoError(t, err)
		var back ErrorType
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, typ, back)
	}
}

func TestErrorType_RejectsUnknown(t *testing.T) {
	var typ ErrorType
	err := json.Unmarshal([]byte(`"bogus"`), &typ)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
	assert.False(t, ErrorType("api").Valid())
}

func TestDecodeEvent_AllKinds(t *testing.T) {
	stored := true
	info := NewInfoEvent("card", InfoTypeValidationError)
	info.Target = "card_number"
	info.IsStoredPaymentMethod = &stored
	info.ValidationErrorCode = ValidationCardLuhnCheckFailed.String()

	log := NewLogEvent("threeDS2", LogTypeThreeDS2)
	log.SubType = LogSubTypeFingerprintSent

	errEvent := NewErrorEvent("redirect", ErrorTypeRedirect).WithCode(CodeRedirectFailed).WithMessage("boom")

	for _, e := range []Event{info, log, errEvent} {
		data, err := json.Marshal(e)
		require.NoError(t, err)

		decoded, err := DecodeEvent(e.Kind(), data)
		require.NoError(t, err)
		assert.Equal(t, e, decoded)
	}
}

func TestDecodeEvent_UnknownKind(t *testing.T) {
	_, err := DecodeEvent(Kind("metric"), []byte(`{}`))
	assert.Error(t, err)
}

func TestDecodeEvent_ErrorWithUnknownType(t *testing.T) {
	_, err := DecodeEvent(KindError, []byte(`{"id":"x","timestamp":1,"component":"c","errorType":"Oops"}`))
	assert.Error(t, err)
}

func TestWithCheckoutAttemptID_Copies(t *testing.T) {
	original := NewLogEvent("redirect", LogTypeRedirect)

	stamped := WithCheckoutAttemptID(original, "attempt-1")

	assert.Equal(t, "attempt-1", stamped.EventHeader().CheckoutAttemptID)
	assert.Empty(t, original.CheckoutAttemptID, "original must not be modified")
	assert.Equal(t, original.ID, stamped.EventHeader().ID)
}
