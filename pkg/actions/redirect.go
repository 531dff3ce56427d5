package actions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// RedirectType is the redirect flow a RedirectAction uses.
type RedirectType string

const (
	RedirectTypeRedirect       RedirectType = "redirect"
	RedirectTypeNativeRedirect RedirectType = "nativeRedirect"
)

// UnmarshalJSON decodes leniently: any string other than "nativeRedirect"
// is a plain redirect. A non-string value is still an error.
func (t *RedirectType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = parseRedirectType(s)
	return nil
}

func parseRedirectType(s string) RedirectType {
	if RedirectType(s) == RedirectTypeNativeRedirect {
		return RedirectTypeNativeRedirect
	}
	return RedirectTypeRedirect
}

// RedirectAction sends the shopper to a URL. It is immutable; use the
// accessors to read it.
type RedirectAction struct {
	url                *url.URL
	paymentData        string
	redirectType       RedirectType
	nativeRedirectData string
	paymentMethodType  string
	method             string
}

// RedirectOption configures a RedirectAction built with NewRedirectAction.
type RedirectOption func(*RedirectAction)

// WithRedirectType sets the redirect flow (default: redirect).
func WithRedirectType(t RedirectType) RedirectOption {
	return func(a *RedirectAction) {
		a.redirectType = parseRedirectType(string(t))
	}
}

// WithNativeRedirectData sets the data exchanged for the native result.
func WithNativeRedirectData(data string) RedirectOption {
	return func(a *RedirectAction) {
		a.nativeRedirectData = data
	}
}

// WithPaymentMethodType sets the payment method the redirect belongs to.
func WithPaymentMethodType(pm string) RedirectOption {
	return func(a *RedirectAction) {
		a.paymentMethodType = pm
	}
}

// WithMethod sets the HTTP method of the redirect (default: GET).
func WithMethod(method string) RedirectOption {
	return func(a *RedirectAction) {
		a.method = method
	}
}

// NewRedirectAction builds a redirect action. rawURL must be absolute.
func NewRedirectAction(rawURL, paymentData string, opts ...RedirectOption) (*RedirectAction, error) {
	u, err := parseAbsoluteURL(rawURL)
	if err != nil {
		return nil, &DecodeError{Type: string(TypeRedirect), Field: "url", Err: err}
	}
	a := &RedirectAction{
		url:          u,
		paymentData:  paymentData,
		redirectType: RedirectTypeRedirect,
		method:       http.MethodGet,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.method == "" {
		a.method = http.MethodGet
	}
	return a, nil
}

func parseAbsoluteURL(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("missing url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("url %q is not absolute", raw)
	}
	return u, nil
}

// URL returns a copy of the redirect target.
func (a *RedirectAction) URL() *url.URL {
	u := *a.url
	return &u
}

// PaymentData is the server-generated state to submit with the details
// call. Empty when absent.
func (a *RedirectAction) PaymentData() string { return a.paymentData }

// Type is the redirect flow.
func (a *RedirectAction) Type() RedirectType { return a.redirectType }

// NativeRedirectData is set for native redirects. Empty when absent.
func (a *RedirectAction) NativeRedirectData() string { return a.nativeRedirectData }

// PaymentMethodType is the payment method of the redirect. Empty when absent.
func (a *RedirectAction) PaymentMethodType() string { return a.paymentMethodType }

// Method is the HTTP method of the redirect.
func (a *RedirectAction) Method() string { return a.method }

// IsNative reports whether the redirect uses the native app flow.
func (a *RedirectAction) IsNative() bool { return a.redirectType == RedirectTypeNativeRedirect }

type redirectWire struct {
	URL                string        `json:"url"`
	PaymentData        string        `json:"paymentData,omitempty"`
	Type               *RedirectType `json:"type,omitempty"`
	NativeRedirectData string        `json:"nativeRedirectData,omitempty"`
	PaymentMethodType  string        `json:"paymentMethodType,omitempty"`
	Method             string        `json:"method,omitempty"`
}

// UnmarshalJSON decodes a redirect action. A missing or malformed url is an
// error; an unknown or missing type decodes as a plain redirect.
func (a *RedirectAction) UnmarshalJSON(data []byte) error {
	var w redirectWire
	if err := json.Unmarshal(data, &w); err != nil {
		return &DecodeError{Type: string(TypeRedirect), Err: err}
	}
	u, err := parseAbsoluteURL(w.URL)
	if err != nil {
		return &DecodeError{Type: string(TypeRedirect), Field: "url", Err: err}
	}

	*a = RedirectAction{
		url:                u,
		paymentData:        w.PaymentData,
		redirectType:       RedirectTypeRedirect,
		nativeRedirectData: w.NativeRedirectData,
		paymentMethodType:  w.PaymentMethodType,
		method:             w.Method,
	}
	if w.Type != nil {
		a.redirectType = *w.Type
	}
	if a.method == "" {
		a.method = http.MethodGet
	}
	return nil
}

// MarshalJSON encodes the action. The type field doubles as the action
// type tag.
func (a *RedirectAction) MarshalJSON() ([]byte, error) {
	rt := a.redirectType
	return json.Marshal(redirectWire{
		URL:                a.url.String(),
		PaymentData:        a.paymentData,
		Type:               &rt,
		NativeRedirectData: a.nativeRedirectData,
		PaymentMethodType:  a.paymentMethodType,
		Method:             a.method,
	})
}
