// event.go defines the analytics event data model: info, log and error events.

package analytics

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// now is swapped in tests.
var now = time.Now

// Kind identifies the variant of an analytics event.
type Kind string

const (
	KindInfo  Kind = "info"
	KindLog   Kind = "log"
	KindError Kind = "error"
)

// Event is implemented by InfoEvent, LogEvent and ErrorEvent.
type Event interface {
	// Kind reports which variant the event is.
	Kind() Kind

	// EventHeader returns the identity fields shared by every variant.
	EventHeader() Header

	withCheckoutAttemptID(id string) Event
}

// Header carries the identity fields common to all events.
type Header struct {
	// ID is a unique token generated when the event is created.
	ID string `json:"id"`

	// Timestamp is the creation time in seconds since the Unix epoch.
	Timestamp int64 `json:"timestamp"`

	// CheckoutAttemptID is stamped by the Provider once a checkout attempt
	// is known. The batch endpoint carries it in the URL, so it is not part
	// of the per-event wire shape.
	CheckoutAttemptID string `json:"-"`
}

// EventHeader returns h.
func (h Header) EventHeader() Header { return h }

func newHeader() Header {
	return Header{
		ID:        uuid.NewString(),
		Timestamp: now().Unix(),
	}
}

// ErrorType categorizes an ErrorEvent. The string values are the wire
// representation consumed by the analytics backend.
type ErrorType string

const (
	ErrorTypeNetwork        ErrorType = "Network"
	ErrorTypeImplementation ErrorType = "Implementation"
	ErrorTypeInternal       ErrorType = "Internal"
	ErrorTypeAPI            ErrorType = "ApiError"
	ErrorTypeSDK            ErrorType = "SdkError"
	ErrorTypeThirdParty     ErrorType = "ThirdParty"
	ErrorTypeGeneric        ErrorType = "Generic"
	ErrorTypeRedirect       ErrorType = "Redirect"
	ErrorTypeThreeDS2       ErrorType = "ThreeDS2"
)

// Valid reports whether t is one of the known error types.
func (t ErrorType) Valid() bool {
	switch t {
	case ErrorTypeNetwork, ErrorTypeImplementation, ErrorTypeInternal,
		ErrorTypeAPI, ErrorTypeSDK, ErrorTypeThirdParty, ErrorTypeGeneric,
		ErrorTypeRedirect, ErrorTypeThreeDS2:
		return true
	}
	return false
}

// UnmarshalJSON rejects values outside the closed set.
func (t *ErrorType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := ErrorType(s)
	if !v.Valid() {
		return fmt.Errorf("analytics: unknown error type %q", s)
	}
	*t = v
	return nil
}

// ErrorEvent records that a flow was interrupted by an error.
type ErrorEvent struct {
	Header

	// Component is a free-text identifier of the reporting component.
	Component string `json:"component"`

	// ErrorType is the taxonomy bucket of the failure.
	ErrorType ErrorType `json:"errorType"`

	// Code is the optional registered code, see ErrorCode.
	Code string `json:"code,omitempty"`

	// Message is an optional human readable description.
	Message string `json:"message,omitempty"`
}

// NewErrorEvent creates an ErrorEvent with a fresh id and timestamp.
func NewErrorEvent(component string, errorType ErrorType) ErrorEvent {
	return ErrorEvent{
		Header:    newHeader(),
		Component: component,
		ErrorType: errorType,
	}
}

// WithCode returns a copy of e carrying the given registered code.
func (e ErrorEvent) WithCode(code ErrorCode) ErrorEvent {
	e.Code = code.String()
	return e
}

// WithMessage returns a copy of e carrying msg.
func (e ErrorEvent) WithMessage(msg string) ErrorEvent {
	e.Message = msg
	return e
}

func (e ErrorEvent) Kind() Kind { return KindError }

func (e ErrorEvent) withCheckoutAttemptID(id string) Event {
	e.CheckoutAttemptID = id
	return e
}

// InfoType is the kind of user interaction an InfoEvent describes.
type InfoType string

const (
	InfoTypeFocus           InfoType = "Focus"
	InfoTypeUnfocus         InfoType = "Unfocus"
	InfoTypeValidationError InfoType = "ValidationError"
	InfoTypeRendered        InfoType = "Rendered"
	InfoTypeSelected        InfoType = "Selected"
	InfoTypeDisplayed       InfoType = "Displayed"
	InfoTypeInput           InfoType = "Input"
	InfoTypeDownload        InfoType = "Download"
)

// InfoEvent records a user interaction with a component.
type InfoEvent struct {
	Header

	Component string   `json:"component"`
	Type      InfoType `json:"type"`
	Target    string   `json:"target,omitempty"`

	IsStoredPaymentMethod *bool  `json:"isStoredPaymentMethod,omitempty"`
	Brand                 string `json:"brand,omitempty"`
	Issuer                string `json:"issuer,omitempty"`

	ValidationErrorCode    string `json:"validationErrorCode,omitempty"`
	ValidationErrorMessage string `json:"validationErrorMessage,omitempty"`
}

// NewInfoEvent creates an InfoEvent with a fresh id and timestamp.
func NewInfoEvent(component string, infoType InfoType) InfoEvent {
	return InfoEvent{
		Header:    newHeader(),
		Component: component,
		Type:      infoType,
	}
}

func (e InfoEvent) Kind() Kind { return KindInfo }

func (e InfoEvent) withCheckoutAttemptID(id string) Event {
	e.CheckoutAttemptID = id
	return e
}

// LogType is the kind of flow step a LogEvent describes.
type LogType string

const (
	LogTypeAction   LogType = "Action"
	LogTypeSubmit   LogType = "Submit"
	LogTypeRedirect LogType = "Redirect"
	LogTypeThreeDS2 LogType = "ThreeDS2"
	LogTypeClosed   LogType = "Closed"
)

// LogSubType refines a LogType.
type LogSubType string

const (
	LogSubTypeThreeDS2            LogSubType = "ThreeDS2"
	LogSubTypeRedirect            LogSubType = "Redirect"
	LogSubTypeAwait               LogSubType = "Await"
	LogSubTypeSDK                 LogSubType = "Sdk"
	LogSubTypeFingerprintSent     LogSubType = "FingerprintDataSentMobile"
	LogSubTypeFingerprintComplete LogSubType = "FingerprintCompleted"
	LogSubTypeChallengeDataSent   LogSubType = "ChallengeDataSentMobile"
	LogSubTypeChallengeDisplayed  LogSubType = "ChallengeDisplayed"
	LogSubTypeChallengeComplete   LogSubType = "ChallengeCompleted"
)

// LogEvent records a step of a payment flow, such as an action being handled.
type LogEvent struct {
	Header

	Component string     `json:"component"`
	Type      LogType    `json:"type"`
	SubType   LogSubType `json:"subType,omitempty"`
	Target    string     `json:"target,omitempty"`
	Message   string     `json:"message,omitempty"`
	Result    string     `json:"result,omitempty"`
}

// NewLogEvent creates a LogEvent with a fresh id and timestamp.
func NewLogEvent(component string, logType LogType) LogEvent {
	return LogEvent{
		Header:    newHeader(),
		Component: component,
		Type:      logType,
	}
}

func (e LogEvent) Kind() Kind { return KindLog }

func (e LogEvent) withCheckoutAttemptID(id string) Event {
	e.CheckoutAttemptID = id
	return e
}

// WithCheckoutAttemptID returns a copy of e stamped with the given checkout
// attempt id.
func WithCheckoutAttemptID(e Event, id string) Event {
	return e.withCheckoutAttemptID(id)
}

// DecodeEvent decodes the wire JSON of an event of the given kind.
func DecodeEvent(kind Kind, data []byte) (Event, error) {
	switch kind {
	case KindInfo:
		var e InfoEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode info event: %w", err)
		}
		return e, nil
	case KindLog:
		var e LogEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode log event: %w", err)
		}
		return e, nil
	case KindError:
		var e ErrorEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode error event: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("analytics: unknown event kind %q", kind)
	}
}
