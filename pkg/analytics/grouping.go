// grouping.go derives stable keys for grouping similar error events.

package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// GroupingKey returns a hash that is equal for error events that differ
// only in variable data. It is based on:
//   - component, error type and code
//   - the message with ids, numbers and hex values masked
//
// Event ids, timestamps and checkout attempt ids never contribute.
func GroupingKey(event ErrorEvent) string {
	parts := []string{
		event.Component,
		string(event.ErrorType),
		event.Code,
		normalizeMessage(event.Message),
	}

	input := strings.Join(parts, "|")
	hash := sha256.Sum256([]byte(input))

	// First 16 bytes, 32 hex chars
	return hex.EncodeToString(hash[:16])
}

var (
	uuidPattern   = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	hexPattern    = regexp.MustCompile(`0x[0-9a-fA-F]+`)
	numberPattern = regexp.MustCompile(`\d+`)
	spacePattern  = regexp.MustCompile(`\s+`)
)

// normalizeMessage masks variable parts of a message so that, for example,
// "timeout after 30s" and "timeout after 12s" group together.
func normalizeMessage(msg string) string {
	if msg == "" {
		return ""
	}
	msg = uuidPattern.ReplaceAllString(msg, "<id>")
	msg = hexPattern.ReplaceAllString(msg, "<hex>")
	msg = numberPattern.ReplaceAllString(msg, "<n>")
	msg = spacePattern.ReplaceAllString(msg, " ")
	return strings.ToLower(strings.TrimSpace(msg))
}
