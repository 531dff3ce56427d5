package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupingKey_Stable(t *testing.T) {
	a := NewErrorEvent("threeDS2Fingerprint", ErrorTypeAPI).WithCode(CodeAPIErrorThreeDS2).WithMessage("timeout after 30s")
	b := NewErrorEvent("threeDS2Fingerprint", ErrorTypeAPI).WithCode(CodeAPIErrorThreeDS2).WithMessage("timeout after 12s")
	b.CheckoutAttemptID = "attempt-2"

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, GroupingKey(a), GroupingKey(b))
	assert.Len(t, GroupingKey(a), 32)
}

func TestGroupingKey_Differs(t *testing.T) {
	base := NewErrorEvent("threeDS2", ErrorTypeThreeDS2).WithCode(CodeThreeDS2TokenMissing)

	tests := map[string]ErrorEvent{
		"component":  NewErrorEvent("redirect", ErrorTypeThreeDS2).WithCode(CodeThreeDS2TokenMissing),
		"error type": NewErrorEvent("threeDS2", ErrorTypeInternal).WithCode(CodeThreeDS2TokenMissing),
		"code":       NewErrorEvent("threeDS2", ErrorTypeThreeDS2).WithCode(CodeThreeDS2DecodingFailed),
		"message":    base.WithMessage("challenge token missing"),
	}
	for name, other := range tests {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, GroupingKey(base), GroupingKey(other))
		})
	}
}

func TestNormalizeMessage(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"attempt 6f6c6f4a-0b3a-4c1e-9f0e-62ae6a1d9c11 failed", "attempt <id> failed"},
		{"bad pointer 0xc000123abc", "bad pointer <hex>"},
		{"  Retry  in 5   seconds ", "retry in <n> seconds"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeMessage(tt.input), tt.input)
	}
}
