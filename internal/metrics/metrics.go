// Package metrics holds the Prometheus collectors for analytics delivery and
// 3DS2 submissions. Library code only increments them; binaries decide
// whether to register and expose them.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// EventsTotal counts analytics events by kind and outcome
	// (forwarded, dropped, failed).
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_analytics_events_total",
			Help: "Analytics events handled by sinks, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	// HandshakesTotal counts initial analytics handshakes by result.
	HandshakesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_analytics_handshakes_total",
			Help: "Initial analytics handshakes by result",
		},
		[]string{"result"},
	)

	// BatchesTotal counts event batch deliveries by result.
	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_analytics_batches_total",
			Help: "Analytics event batches sent, by result",
		},
		[]string{"result"},
	)

	// ThreeDS2StepsTotal counts 3DS2 protocol steps by step and result.
	ThreeDS2StepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_threeds2_steps_total",
			Help: "3DS2 fingerprint and challenge steps by result",
		},
		[]string{"step", "result"},
	)
)

// Outcome and result label values.
const (
	OutcomeForwarded = "forwarded"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"

	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultSkipped = "skipped"
)

// Register registers all collectors with reg.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		EventsTotal,
		HandshakesTotal,
		BatchesTotal,
		ThreeDS2StepsTotal,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
