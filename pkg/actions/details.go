package actions

import (
	"errors"
	"fmt"
	"net/url"
)

// AdditionalDetails is the result of handling an action, submitted to the
// payments details endpoint. Implementations encode to the "details" object.
type AdditionalDetails interface {
	additionalDetails()
}

// ActionComponentData is what an action handler hands back to the merchant:
// the details plus the payment data of the handled action.
type ActionComponentData struct {
	Details     AdditionalDetails `json:"details"`
	PaymentData string            `json:"paymentData,omitempty"`
}

// DetailsMarker can be embedded to implement AdditionalDetails outside this
// package.
type DetailsMarker struct{}

func (DetailsMarker) additionalDetails() {}

// ErrNoRedirectDetails means a return URL carried none of the known result
// parameters.
var ErrNoRedirectDetails = errors.New("return url carries no redirect details")

// RedirectDetails are the details extracted from a redirect return URL.
type RedirectDetails struct {
	DetailsMarker

	RedirectResult string `json:"redirectResult,omitempty"`
	Payload        string `json:"payload,omitempty"`
	QueryString    string `json:"queryString,omitempty"`
}

// ExtractRedirectDetails reads the redirect result from the URL the shopper
// returned on. redirectResult wins over payload; if neither is present the
// whole query string is forwarded.
func ExtractRedirectDetails(returnURL string) (RedirectDetails, error) {
	u, err := url.Parse(returnURL)
	if err != nil {
		return RedirectDetails{}, fmt.Errorf("parse return url: %w", err)
	}
	q := u.Query()
	switch {
	case q.Get("redirectResult") != "":
		return RedirectDetails{RedirectResult: q.Get("redirectResult")}, nil
	case q.Get("payload") != "":
		return RedirectDetails{Payload: q.Get("payload")}, nil
	case u.RawQuery != "":
		return RedirectDetails{QueryString: u.RawQuery}, nil
	default:
		return RedirectDetails{}, ErrNoRedirectDetails
	}
}
