// scrubber.go redacts cardholder data and secrets from free-text event fields.

package analytics

import (
	"regexp"
	"unicode/utf8"
)

// ScrubberConfig controls scrubbing behavior.
type ScrubberConfig struct {
	// MaxMessageSize is the maximum length for messages (default: 1024).
	MaxMessageSize int

	// ScrubMessages enables pattern redaction of messages (default: true).
	ScrubMessages bool
}

// DefaultScrubberConfig returns production-safe defaults.
func DefaultScrubberConfig() ScrubberConfig {
	return ScrubberConfig{
		MaxMessageSize: 1024,
		ScrubMessages:  true,
	}
}

// Compiled once at package init.
var messageScrubPatterns = []*regexp.Regexp{
	// Cardholder data: PANs of 13-19 digits with optional separators,
	// security codes and expiry dates.
	regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
	regexp.MustCompile(`(?i)(cvc|cvv|cvn|securityCode)[=:\s]+\d{3,4}`),
	regexp.MustCompile(`(?i)(expiry|expiryDate)[=:\s]+\d{2}/\d{2,4}`),

	// Client keys, API keys and tokens
	regexp.MustCompile(`\b(test|live)_[A-Z0-9]{32}\b`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|clientKey)[=:\s]+['"]?[\w\-\.]+['"]?`),
	regexp.MustCompile(`(?i)bearer\s+[\w\-\.]+`),
	regexp.MustCompile(`(?i)eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`),

	// Credentials
	regexp.MustCompile(`(?i)password[=:\s]+['"]?[^\s'",]+['"]?`),
	regexp.MustCompile(`(?i)secret[=:\s]+['"]?[^\s'",]+['"]?`),

	// Email addresses
	regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
}

// Scrubber redacts sensitive data from events.
type Scrubber struct {
	cfg ScrubberConfig
}

// NewScrubber creates a new scrubber with the given configuration.
func NewScrubber(cfg ScrubberConfig) *Scrubber {
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = DefaultScrubberConfig().MaxMessageSize
	}
	return &Scrubber{cfg: cfg}
}

// ScrubMessage truncates msg and replaces sensitive patterns with [REDACTED].
func (s *Scrubber) ScrubMessage(msg string) string {
	if msg == "" {
		return msg
	}
	if len(msg) > s.cfg.MaxMessageSize {
		msg = truncateWithMarker(msg, s.cfg.MaxMessageSize)
	}
	if !s.cfg.ScrubMessages {
		return msg
	}

	result := msg
	for _, pattern := range messageScrubPatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// ScrubEvent returns a copy of event with its free-text fields scrubbed.
// Identity fields, types and codes are never touched.
func (s *Scrubber) ScrubEvent(event Event) Event {
	switch e := event.(type) {
	case InfoEvent:
		e.ValidationErrorMessage = s.ScrubMessage(e.ValidationErrorMessage)
		return e
	case LogEvent:
		e.Message = s.ScrubMessage(e.Message)
		return e
	case ErrorEvent:
		e.Message = s.ScrubMessage(e.Message)
		return e
	default:
		return event
	}
}

// truncateWithMarker truncates a string and adds a truncation marker.
func truncateWithMarker(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	marker := "...[TRUNCATED]"
	if maxLen <= len(marker) {
		return marker[:maxLen]
	}
	return cutAtRune(s, maxLen-len(marker)) + marker
}

// cutAtRune returns the longest prefix of s no longer than n bytes that does
// not split a UTF-8 sequence.
func cutAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
