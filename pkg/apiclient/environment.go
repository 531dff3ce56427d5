package apiclient

import "fmt"

// Environment holds the base URLs of the checkout APIs.
type Environment struct {
	Name string

	// CheckoutShopperURL serves client-key authenticated checkout calls such
	// as 3DS2 fingerprint submission.
	CheckoutShopperURL string

	// AnalyticsURL serves the checkout analytics endpoints.
	AnalyticsURL string
}

// TestEnvironment is the sandbox environment.
var TestEnvironment = Environment{
	Name:               "test",
	CheckoutShopperURL: "https://checkoutshopper-test.adyen.com/checkoutshopper",
	AnalyticsURL:       "https://checkoutanalytics-test.adyen.com/checkoutanalytics",
}

// Live regions.
var liveEnvironments = map[string]Environment{
	"eu": {
		Name:               "live-eu",
		CheckoutShopperURL: "https://checkoutshopper-live.adyen.com/checkoutshopper",
		AnalyticsURL:       "https://checkoutanalytics-live.adyen.com/checkoutanalytics",
	},
	"us": {
		Name:               "live-us",
		CheckoutShopperURL: "https://checkoutshopper-live-us.adyen.com/checkoutshopper",
		AnalyticsURL:       "https://checkoutanalytics-live-us.adyen.com/checkoutanalytics",
	},
	"au": {
		Name:               "live-au",
		CheckoutShopperURL: "https://checkoutshopper-live-au.adyen.com/checkoutshopper",
		AnalyticsURL:       "https://checkoutanalytics-live-au.adyen.com/checkoutanalytics",
	},
	"apse": {
		Name:               "live-apse",
		CheckoutShopperURL: "https://checkoutshopper-live-apse.adyen.com/checkoutshopper",
		AnalyticsURL:       "https://checkoutanalytics-live-apse.adyen.com/checkoutanalytics",
	},
}

// LookupEnvironment resolves "test" or "live-<region>".
func LookupEnvironment(name string) (Environment, error) {
	if name == "" || name == TestEnvironment.Name {
		return TestEnvironment, nil
	}
	for _, env := range liveEnvironments {
		if env.Name == name {
			return env, nil
		}
	}
	return Environment{}, fmt.Errorf("apiclient: unknown environment %q", name)
}
