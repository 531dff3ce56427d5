// flavor.go describes how the checkout was integrated and the static
// configuration sent with the initial analytics handshake.

package analytics

import (
	"encoding/json"
	"net/http"
	"net/url"
)

// Flavor describes the integration: a standalone component or drop-in.
type Flavor struct {
	value          string
	component      string
	paymentMethods []string
}

// Components is the flavor of a standalone component of the given type,
// for example "scheme" or "affirm".
func Components(componentType string) Flavor {
	return Flavor{value: "components", component: componentType}
}

// DropIn is the flavor of a drop-in integration offering the given payment
// method types.
func DropIn(paymentMethods ...string) Flavor {
	pms := make([]string, len(paymentMethods))
	copy(pms, paymentMethods)
	return Flavor{value: "dropin", component: "dropin", paymentMethods: pms}
}

// Value is the wire tag: "components" or "dropin".
func (f Flavor) Value() string { return f.value }

// Component is the component type reported with the flavor.
func (f Flavor) Component() string { return f.component }

// PaymentMethods lists the payment methods of a drop-in flavor.
func (f Flavor) PaymentMethods() []string {
	out := make([]string, len(f.paymentMethods))
	copy(out, f.paymentMethods)
	return out
}

// Amount is a minor-unit amount.
type Amount struct {
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
}

// AdditionalFields are optional per-attempt values sent with the handshake.
type AdditionalFields struct {
	Amount    *Amount
	SessionID string
}

// Level controls how much telemetry the backend accepts.
type Level string

const (
	// LevelInitial sends only the initial handshake.
	LevelInitial Level = "initial"
	// LevelAll sends the handshake and every event.
	LevelAll Level = "all"
)

// Context identifies the SDK build that reports analytics.
type Context struct {
	Version  string
	Platform string
}

// Configuration is the static part of every handshake request.
type Configuration struct {
	Enabled   bool
	Level     Level
	ClientKey string
	Channel   string
	Locale    string
	Context   Context
}

// DefaultConfiguration returns an enabled configuration at LevelAll.
func DefaultConfiguration(clientKey string) Configuration {
	return Configuration{
		Enabled:   true,
		Level:     LevelAll,
		ClientKey: clientKey,
		Channel:   "Go",
		Locale:    "en-US",
		Context: Context{
			Version:  Version,
			Platform: "go",
		},
	}
}

// Version is the SDK version reported to analytics.
const Version = "1.0.0"

// initialAnalyticsRequest is POST v3/analytics.
type initialAnalyticsRequest struct {
	clientKey string

	Version        string   `json:"version"`
	Channel        string   `json:"channel"`
	Platform       string   `json:"platform"`
	Locale         string   `json:"locale,omitempty"`
	Level          Level    `json:"level"`
	Flavor         string   `json:"flavor"`
	Component      string   `json:"component,omitempty"`
	PaymentMethods []string `json:"paymentMethods,omitempty"`
	Amount         *Amount  `json:"amount,omitempty"`
	SessionID      string   `json:"sessionId,omitempty"`
}

func newInitialAnalyticsRequest(flavor Flavor, fields *AdditionalFields, cfg Configuration) *initialAnalyticsRequest {
	req := &initialAnalyticsRequest{
		clientKey:      cfg.ClientKey,
		Version:        cfg.Context.Version,
		Channel:        cfg.Channel,
		Platform:       cfg.Context.Platform,
		Locale:         cfg.Locale,
		Level:          cfg.Level,
		Flavor:         flavor.Value(),
		Component:      flavor.Component(),
		PaymentMethods: flavor.PaymentMethods(),
	}
	if len(req.PaymentMethods) == 0 {
		req.PaymentMethods = nil
	}
	if fields != nil {
		req.Amount = fields.Amount
		req.SessionID = fields.SessionID
	}
	return req
}

func (r *initialAnalyticsRequest) Method() string { return http.MethodPost }
func (r *initialAnalyticsRequest) Path() string   { return "v3/analytics" }
func (r *initialAnalyticsRequest) Query() url.Values {
	return url.Values{"clientKey": {r.clientKey}}
}

type initialAnalyticsResponse struct {
	CheckoutAttemptID string `json:"checkoutAttemptId"`
}

// dedupeKey identifies requests that may share one in-flight handshake.
func (r *initialAnalyticsRequest) dedupeKey() string {
	data, err := json.Marshal(r)
	if err != nil {
		return r.Flavor + "|" + r.Component
	}
	return string(data)
}
