package threeds2

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

// recordingReporter captures reported events for verification.
type recordingReporter struct {
	mu     sync.Mutex
	errors []analytics.ErrorEvent
	logs   []analytics.LogEvent
}

var _ analytics.Reporter = (*recordingReporter)(nil)

func (r *recordingReporter) AddInfo(analytics.InfoEvent) {}

func (r *recordingReporter) AddLog(event analytics.LogEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, event)
}

func (r *recordingReporter) AddError(event analytics.ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, event)
}

func (r *recordingReporter) getErrors() []analytics.ErrorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]analytics.ErrorEvent, len(r.errors))
	copy(result, r.errors)
	return result
}

func (r *recordingReporter) getLogSubTypes() []analytics.LogSubType {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]analytics.LogSubType, 0, len(r.logs))
	for _, e := range r.logs {
		result = append(result, e.SubType)
	}
	return result
}

// fakeSubmitter returns a fixed result and records what it was given.
type fakeSubmitter struct {
	mu          sync.Mutex
	result      ActionHandlerResult
	err         error
	fingerprint string
	paymentData string
	calls       int
}

func (s *fakeSubmitter) Submit(ctx context.Context, fingerprint, paymentData string) (ActionHandlerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.fingerprint = fingerprint
	s.paymentData = paymentData
	return s.result, s.err
}

func encodeToken(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(data)
}

func fingerprintToken(t *testing.T) string {
	return encodeToken(t, FingerprintToken{
		DirectoryServerID:        "F013371337",
		DirectoryServerPublicKey: "pubkey",
		ThreeDSMessageVersion:    "2.1.0",
		ThreeDSServerTransID:     "server-trans-1",
	})
}

func challengeToken(t *testing.T) string {
	return encodeToken(t, ChallengeToken{
		ACSReferenceNumber:   "ACS-REF",
		ACSSignedContent:     "signed",
		ACSTransID:           "acs-trans-1",
		MessageVersion:       "2.1.0",
		ThreeDSServerTransID: "server-trans-1",
	})
}

func testFingerprint() Fingerprint {
	return Fingerprint{
		SDKAppID:           "app-1",
		SDKEncData:         "enc",
		SDKEphemPubKey:     json.RawMessage(`{"kty":"EC"}`),
		SDKReferenceNumber: "ref",
		SDKTransID:         "sdk-trans-1",
		MessageVersion:     "2.1.0",
	}
}
