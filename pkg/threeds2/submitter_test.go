package threeds2

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strongdm/checkout-actions/pkg/analytics"
	"github.com/strongdm/checkout-actions/pkg/apiclient"
)

type fingerprintServer struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []*http.Request
	bodies   []map[string]string
}

func (s *fingerprintServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.bodies = append(s.bodies, body)
	status, reply := s.status, s.body
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply))
}

func (s *fingerprintServer) getBodies() []map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]map[string]string, len(s.bodies))
	copy(result, s.bodies)
	return result
}

func (s *fingerprintServer) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func newSubmitter(t *testing.T, status int, body string) (*FingerprintSubmitter, *fingerprintServer, *recordingReporter) {
	t.Helper()
	fs := &fingerprintServer{status: status, body: body}
	server := httptest.NewServer(fs)
	t.Cleanup(server.Close)

	reporter := &recordingReporter{}
	return NewFingerprintSubmitter(apiclient.New(server.URL), "test_KEY", reporter), fs, reporter
}

func TestFingerprintSubmitter_Submit_Completed(t *testing.T) {
	s, server, reporter := newSubmitter(t, http.StatusOK, `{"type":"completed","details":{"threeDSResult":"res"}}`)

	result, err := s.Submit(context.Background(), "fp", "pd")
	require.NoError(t, err)

	require.True(t, result.IsCompleted())
	assert.Equal(t, "res", result.Details.ThreeDSResult)
	assert.Empty(t, reporter.getErrors())

	require.Equal(t, 1, server.count())
	req := server.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/submitThreeDS2Fingerprint", req.URL.Path)
	assert.Equal(t, "test_KEY", req.URL.Query().Get("token"))
	assert.Equal(t, map[string]string{"fingerprintResult": "fp", "paymentData": "pd"}, server.getBodies()[0])
}

func TestFingerprintSubmitter_Submit_Action(t *testing.T) {
	s, _, _ := newSubmitter(t, http.StatusOK,
		`{"type":"action","action":{"type":"threeDS2","subtype":"challenge","token":"ctok","paymentData":"pd2"}}`)

	result, err := s.Submit(context.Background(), "fp", "")
	require.NoError(t, err)
	require.NotNil(t, result.Action)
	assert.Equal(t, "ctok", result.Action.ThreeDS2.Token)
}

func TestFingerprintSubmitter_Submit_OmitsEmptyPaymentData(t *testing.T) {
	s, server, _ := newSubmitter(t, http.StatusOK, `{"type":"completed","details":{"threeDSResult":"res"}}`)

	_, err := s.Submit(context.Background(), "fp", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"fingerprintResult": "fp"}, server.getBodies()[0])
}

func TestFingerprintSubmitter_Submit_EmptyFingerprint(t *testing.T) {
	s, server, reporter := newSubmitter(t, http.StatusOK, `{}`)

	_, err := s.Submit(context.Background(), "", "pd")

	assert.ErrorIs(t, err, ErrEmptyFingerprint)
	assert.Equal(t, 0, server.count())
	assert.Empty(t, reporter.getErrors())
}

func TestFingerprintSubmitter_Submit_APIFailure(t *testing.T) {
	s, server, reporter := newSubmitter(t, http.StatusUnprocessableEntity,
		`{"status":422,"errorCode":"14_017","message":"Invalid fingerprint"}`)

	_, err := s.Submit(context.Background(), "fp", "pd")

	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok, "original error is returned unchanged")
	assert.Equal(t, "14_017", apiErr.ErrorCode)
	assert.Equal(t, 1, server.count(), "no retry")

	events := reporter.getErrors()
	require.Len(t, events, 1)
	assert.Equal(t, "threeDS2Fingerprint", events[0].Component)
	assert.Equal(t, analytics.ErrorTypeAPI, events[0].ErrorType)
	assert.Equal(t, "622", events[0].Code)
}

func TestFingerprintSubmitter_Submit_DecodeFailure(t *testing.T) {
	s, _, reporter := newSubmitter(t, http.StatusOK, `{"type":"somethingElse"}`)

	_, err := s.Submit(context.Background(), "fp", "pd")

	var decodeErr *apiclient.DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	require.Len(t, reporter.getErrors(), 1)
	assert.Equal(t, "622", reporter.getErrors()[0].Code)
}

func TestFingerprintSubmitter_Submit_EmptyBody(t *testing.T) {
	s, server, reporter := newSubmitter(t, http.StatusOK, "")

	result, err := s.Submit(context.Background(), "fp", "pd")

	var decodeErr *apiclient.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.ErrorIs(t, err, ErrEmptyResult)
	assert.True(t, result.IsEmpty())
	assert.Equal(t, 1, server.count())

	events := reporter.getErrors()
	require.Len(t, events, 1)
	assert.Equal(t, "622", events[0].Code)
}

func TestFlow_EmptySubmissionBodyFails(t *testing.T) {
	s, _, reporter := newSubmitter(t, http.StatusOK, "")
	flow := NewFlow(s, staticFingerprinter(), WithReporter(reporter))

	var err error
	require.NotPanics(t, func() {
		_, err = flow.Handle(context.Background(), fingerprintAction(t))
	})

	var failure *Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, analytics.CodeAPIErrorThreeDS2, failure.Code)
	assert.Equal(t, StateFailed, flow.State())
	assert.Len(t, reporter.getErrors(), 1)
}

func TestFingerprintSubmitter_Submit_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	reporter := &recordingReporter{}
	s := NewFingerprintSubmitter(apiclient.New(url), "test_KEY", reporter)

	_, err := s.Submit(context.Background(), "fp", "pd")

	assert.True(t, apiclient.IsNetworkError(err))
	assert.Len(t, reporter.getErrors(), 1)
}

func TestFingerprintSubmitter_Submit_NilReporter(t *testing.T) {
	fs := &fingerprintServer{status: http.StatusInternalServerError}
	server := httptest.NewServer(fs)
	defer server.Close()

	s := NewFingerprintSubmitter(apiclient.New(server.URL), "test_KEY", nil)
	_, err := s.Submit(context.Background(), "fp", "pd")
	assert.Error(t, err)
}

func TestFingerprintSubmitter_SubmitAsync(t *testing.T) {
	s, _, reporter := newSubmitter(t, http.StatusInternalServerError, `{"message":"boom"}`)

	done := s.SubmitAsync(context.Background(), "fp", "pd")

	select {
	case c := <-done:
		assert.Error(t, c.Err)
		assert.Len(t, reporter.getErrors(), 1, "event is recorded before completion")
	case <-time.After(2 * time.Second):
		t.Fatal("submission did not complete")
	}

	_, open := <-done
	assert.False(t, open, "channel yields exactly one value")
}
