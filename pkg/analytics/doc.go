// Package analytics provides checkout attempt telemetry: the initial
// analytics handshake, the info/log/error event model and pluggable sinks.
//
// A checkout attempt id is obtained once per attempt by the initial
// handshake. Every event reported afterwards is stamped with it, and sinks
// are told whenever it changes.
//
// # Core Components
//
//   - Event: InfoEvent, LogEvent and ErrorEvent, sharing an id and timestamp
//   - Provider: owns the Session, performs the handshake and forwards events
//   - Sink: destination for events (batch, cxdb, sqlite, stderr, async, multi, noop)
//   - ErrorCode: the registry of numeric codes attached to error events
//   - Scrubber: redacts cardholder data and secrets from free-text fields
//
// # Quick Start
//
//	client := apiclient.New(apiclient.TestEnvironment.AnalyticsURL)
//	cfg := analytics.DefaultConfiguration(clientKey)
//	provider := analytics.NewProvider(client, cfg,
//	    analytics.WithSink(batch.NewBatchSink(client, cfg)),
//	    analytics.WithDefaultScrubbing(),
//	)
//	provider.SendInitialAnalytics(ctx, analytics.Components("scheme"), nil)
//	provider.AddLog(analytics.NewLogEvent("scheme", analytics.LogTypeSubmit))
//
// # Design Principles
//
//   - Analytics never breaks a payment: failures are swallowed and logged
//   - The handshake is fire-and-forget and never blocks the caller
//   - A failed handshake clears the attempt id; a stale id is never kept
package analytics
