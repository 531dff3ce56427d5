package analytics

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestScrubber_ScrubMessage_CardholderData(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	tests := []struct {
		name  string
		input string
		want  string // should not contain
	}{
		{"PAN with dashes", "Card: 4111-1111-1111-1111", "4111"},
		{"PAN with spaces", "CC 4111 1111 1111 1111", "4111"},
		{"PAN plain", "Payment with 5555555555554444", "5555"},
		{"security code", "cvc=737 rejected", "737"},
		{"cvv with colon", "CVV: 1234", "1234"},
		{"expiry", "expiryDate: 03/30 invalid", "03/30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ScrubMessage(tt.input)
			if strings.Contains(got, tt.want) {
				t.Errorf("ScrubMessage(%q) = %q, still contains %q", tt.input, got, tt.want)
			}
			if !strings.Contains(got, "[REDACTED]") {
				t.Errorf("ScrubMessage(%q) = %q, should contain [REDACTED]", tt.input, got)
			}
		})
	}
}

func TestScrubber_ScrubMessage_Secrets(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	tests := []struct {
		name  string
		input string
		want  string // should not contain
	}{
		{"client key", "init with test_ABCDEFGHIJKLMNOPQRSTUVWXYZ123456", "ABCDEFGHIJKLMNOPQRSTUVWXYZ123456"},
		{"clientKey assignment", "clientKey=abc.def-123", "abc.def-123"},
		{"api_key assignment", "Error: api_key=sk-abc123xyz", "sk-abc123xyz"},
		{"bearer", "Authorization: Bearer abc.def.ghi", "abc.def.ghi"},
		{"jwt", "threeDSResult eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig", "eyJhbGciOiJIUzI1NiJ9"},
		{"password", "password=mysecretpass123", "mysecretpass123"},
		{"secret", "secret: abc123xyz", "abc123xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.ScrubMessage(tt.input)
			if strings.Contains(got, tt.want) {
				t.Errorf("ScrubMessage(%q) = %q, still contains secret %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestScrubber_ScrubMessage_Email(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	got := s.ScrubMessage("Failed for shopper@example.com and admin@test.org")

	assert.NotContains(t, got, "shopper@example.com")
	assert.NotContains(t, got, "admin@test.org")
}

func TestScrubber_ScrubMessage_LeavesPlainText(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	input := "challenge cancelled by shopper"
	assert.Equal(t, input, s.ScrubMessage(input))
	assert.Equal(t, "", s.ScrubMessage(""))
}

func TestScrubber_ScrubMessage_DisabledScrubbing(t *testing.T) {
	cfg := DefaultScrubberConfig()
	cfg.ScrubMessages = false
	s := NewScrubber(cfg)

	input := "api_key=secret123"
	assert.Equal(t, input, s.ScrubMessage(input))
}

func TestScrubber_ScrubMessage_Truncates(t *testing.T) {
	s := NewScrubber(ScrubberConfig{MaxMessageSize: 32, ScrubMessages: true})

	got := s.ScrubMessage(strings.Repeat("a", 100))

	assert.Len(t, got, 32)
	assert.True(t, strings.HasSuffix(got, "...[TRUNCATED]"))
}

func TestScrubber_DefaultsMaxMessageSize(t *testing.T) {
	s := NewScrubber(ScrubberConfig{ScrubMessages: true})

	got := s.ScrubMessage(strings.Repeat("b", 2000))
	assert.Len(t, got, 1024)
}

func TestScrubber_ScrubEvent(t *testing.T) {
	s := NewScrubber(DefaultScrubberConfig())

	info := NewInfoEvent("card", InfoTypeValidationError)
	info.Target = "card_number"
	info.ValidationErrorMessage = "4111 1111 1111 1111 failed luhn"

	scrubbed := s.ScrubEvent(info).(InfoEvent)
	assert.NotContains(t, scrubbed.ValidationErrorMessage, "4111")
	assert.Equal(t, "card_number", scrubbed.Target, "non text fields are untouched")
	assert.Equal(t, info.ID, scrubbed.ID)
	assert.Contains(t, info.ValidationErrorMessage, "4111", "original must not be modified")

	log := NewLogEvent("threeDS2", LogTypeThreeDS2)
	log.Message = "token=abcdef"
	assert.NotContains(t, s.ScrubEvent(log).(LogEvent).Message, "abcdef")

	errEvent := NewErrorEvent("threeDS2", ErrorTypeAPI).WithCode(CodeAPIErrorThreeDS2).WithMessage("shopper a@b.io")
	scrubbedErr := s.ScrubEvent(errEvent).(ErrorEvent)
	assert.NotContains(t, scrubbedErr.Message, "a@b.io")
	assert.Equal(t, "622", scrubbedErr.Code)
}

func TestTruncateWithMarker(t *testing.T) {
	assert.Equal(t, "short", truncateWithMarker("short", 10))
	assert.Equal(t, "...", truncateWithMarker(strings.Repeat("x", 20), 3))
}

func TestTruncateWithMarker_KeepsRunesWhole(t *testing.T) {
	// "€" is three bytes; a 16-byte budget leaves room for two bytes of text.
	got := truncateWithMarker("€€€€€€", 16)
	assert.Equal(t, "...[TRUNCATED]", got)
	assert.True(t, utf8.ValidString(got))

	got = truncateWithMarker(strings.Repeat("é", 20), 20)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "...[TRUNCATED]"))
	assert.LessOrEqual(t, len(got), 20)
}
