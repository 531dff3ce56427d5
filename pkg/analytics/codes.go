// codes.go is the registry of stable error codes reported with ErrorEvents.
//
// Codes are a contract with server-side dashboards: a code is never changed
// or reused for a different condition once assigned.

package analytics

import "strconv"

// FetchCheckoutAttemptIDFailed is sent in place of a checkout attempt id when
// the initial analytics handshake failed.
const FetchCheckoutAttemptIDFailed = "fetch-checkoutAttemptId-failed"

// ErrorCode is a registered numeric error code.
type ErrorCode int

// String returns the decimal form used on the wire.
func (c ErrorCode) String() string { return strconv.Itoa(int(c)) }

// General and API error codes (600-626) and 3DS2 codes (700-709).
const (
	CodeRedirectFailed         ErrorCode = 600
	CodeRedirectParseFailed    ErrorCode = 601
	CodeEncryptionError        ErrorCode = 610
	CodeThirdPartyError        ErrorCode = 611
	CodeAPIErrorPayments       ErrorCode = 620
	CodeAPIErrorDetails        ErrorCode = 621
	CodeAPIErrorThreeDS2       ErrorCode = 622
	CodeAPIErrorOrder          ErrorCode = 624
	CodeAPIErrorPublicKeyFetch ErrorCode = 625
	CodeAPIErrorNativeRedirect ErrorCode = 626

	CodeThreeDS2PaymentDataMissing        ErrorCode = 700
	CodeThreeDS2TokenMissing              ErrorCode = 701
	CodeThreeDS2DecodingFailed            ErrorCode = 704
	CodeThreeDS2FingerprintCreationFailed ErrorCode = 705
	CodeThreeDS2TransactionCreationFailed ErrorCode = 706
	CodeThreeDS2TransactionMissing        ErrorCode = 707
	CodeThreeDS2FingerprintHandlingFailed ErrorCode = 708
	CodeThreeDS2ChallengeHandlingFailed   ErrorCode = 709
)

// ValidationErrorCode is a registered field validation code (900-943),
// reported through InfoEvent.ValidationErrorCode.
type ValidationErrorCode int

// String returns the decimal form used on the wire.
func (c ValidationErrorCode) String() string { return strconv.Itoa(int(c)) }

const (
	ValidationCardNumberEmpty     ValidationErrorCode = 900
	ValidationCardNumberPartial   ValidationErrorCode = 901
	ValidationCardLuhnCheckFailed ValidationErrorCode = 902
	ValidationCardUnsupported     ValidationErrorCode = 903
	ValidationExpiryDateEmpty     ValidationErrorCode = 910
	ValidationExpiryDatePartial   ValidationErrorCode = 911
	ValidationCardExpired         ValidationErrorCode = 912
	ValidationExpiryDateTooFar    ValidationErrorCode = 913
	ValidationSecurityCodeEmpty   ValidationErrorCode = 920
	ValidationSecurityCodePartial ValidationErrorCode = 921
	ValidationHolderNameEmpty     ValidationErrorCode = 925
	ValidationBrazilSSNEmpty      ValidationErrorCode = 926
	ValidationBrazilSSNPartial    ValidationErrorCode = 927
	ValidationPostalCodeEmpty     ValidationErrorCode = 934
	ValidationPostalCodePartial   ValidationErrorCode = 935
	ValidationKCPPasswordEmpty    ValidationErrorCode = 940
	ValidationKCPPasswordPartial  ValidationErrorCode = 941
	ValidationKCPFieldEmpty       ValidationErrorCode = 942
	ValidationKCPFieldPartial     ValidationErrorCode = 943
)

var errorCodes = map[string]ErrorCode{
	"redirectFailed":                    CodeRedirectFailed,
	"redirectParseFailed":               CodeRedirectParseFailed,
	"encryptionError":                   CodeEncryptionError,
	"thirdPartyError":                   CodeThirdPartyError,
	"apiErrorPayments":                  CodeAPIErrorPayments,
	"apiErrorDetails":                   CodeAPIErrorDetails,
	"apiErrorThreeDS2":                  CodeAPIErrorThreeDS2,
	"apiErrorOrder":                     CodeAPIErrorOrder,
	"apiErrorPublicKeyFetch":            CodeAPIErrorPublicKeyFetch,
	"apiErrorNativeRedirect":            CodeAPIErrorNativeRedirect,
	"threeDS2PaymentDataMissing":        CodeThreeDS2PaymentDataMissing,
	"threeDS2TokenMissing":              CodeThreeDS2TokenMissing,
	"threeDS2DecodingFailed":            CodeThreeDS2DecodingFailed,
	"threeDS2FingerprintCreationFailed": CodeThreeDS2FingerprintCreationFailed,
	"threeDS2TransactionCreationFailed": CodeThreeDS2TransactionCreationFailed,
	"threeDS2TransactionMissing":        CodeThreeDS2TransactionMissing,
	"threeDS2FingerprintHandlingFailed": CodeThreeDS2FingerprintHandlingFailed,
	"threeDS2ChallengeHandlingFailed":   CodeThreeDS2ChallengeHandlingFailed,
}

var validationCodes = map[string]ValidationErrorCode{
	"cardNumberEmpty":     ValidationCardNumberEmpty,
	"cardNumberPartial":   ValidationCardNumberPartial,
	"cardLuhnCheckFailed": ValidationCardLuhnCheckFailed,
	"cardUnsupported":     ValidationCardUnsupported,
	"expiryDateEmpty":     ValidationExpiryDateEmpty,
	"expiryDatePartial":   ValidationExpiryDatePartial,
	"cardExpired":         ValidationCardExpired,
	"expiryDateTooFar":    ValidationExpiryDateTooFar,
	"securityCodeEmpty":   ValidationSecurityCodeEmpty,
	"securityCodePartial": ValidationSecurityCodePartial,
	"holderNameEmpty":     ValidationHolderNameEmpty,
	"brazilSSNEmpty":      ValidationBrazilSSNEmpty,
	"brazilSSNPartial":    ValidationBrazilSSNPartial,
	"postalCodeEmpty":     ValidationPostalCodeEmpty,
	"postalCodePartial":   ValidationPostalCodePartial,
	"kcpPasswordEmpty":    ValidationKCPPasswordEmpty,
	"kcpPasswordPartial":  ValidationKCPPasswordPartial,
	"kcpFieldEmpty":       ValidationKCPFieldEmpty,
	"kcpFieldPartial":     ValidationKCPFieldPartial,
}

// LookupErrorCode returns the code registered for the named condition.
func LookupErrorCode(condition string) (ErrorCode, bool) {
	c, ok := errorCodes[condition]
	return c, ok
}

// LookupValidationCode returns the validation code registered for the named
// condition.
func LookupValidationCode(condition string) (ValidationErrorCode, bool) {
	c, ok := validationCodes[condition]
	return c, ok
}

// ErrorCodes returns a copy of the error code registry keyed by condition.
func ErrorCodes() map[string]ErrorCode {
	out := make(map[string]ErrorCode, len(errorCodes))
	for k, v := range errorCodes {
		out[k] = v
	}
	return out
}

// ValidationCodes returns a copy of the validation code registry keyed by
// condition.
func ValidationCodes() map[string]ValidationErrorCode {
	out := make(map[string]ValidationErrorCode, len(validationCodes))
	for k, v := range validationCodes {
		out[k] = v
	}
	return out
}
