// Package monitoring - alerts.go flags anomalies and errors.
//
// DESIGN: AlertManager logs notable events at appropriate levels:
//   - FlagHighLatency:    Warn when request exceeds threshold
//   - FlagFailOpen:       Warn when classification degrades to passthrough
//   - FlagUpstreamError:  Warn on upstream transport/status errors
//   - FlagPanic:          Error on recovered panics
package monitoring

import "time"

// AlertManager flags anomalies and errors.
type AlertManager struct {
	logger               *Logger
	highLatencyThreshold time.Duration
}

// NewAlertManager creates a new alert manager.
func NewAlertManager(logger *Logger, cfg AlertConfig) *AlertManager {
	threshold := cfg.HighLatencyThreshold
	if threshold == 0 {
		threshold = 5 * time.Second
	}
	return &AlertManager{logger: logger, highLatencyThreshold: threshold}
}

// FlagHighLatency logs when request latency exceeds threshold.
func (am *AlertManager) FlagHighLatency(requestID string, latency time.Duration, path string) {
	if latency < am.highLatencyThreshold {
		return
	}
	am.logger.Warn().
		Str("request_id", requestID).
		Dur("latency", latency).
		Str("path", path).
		Msg("high_latency")
}

// FlagFailOpen logs a classification failure that fell back to passthrough.
// Invisible to the client, so warn-level for operators only.
func (am *AlertManager) FlagFailOpen(requestID, itemID string, err error) {
	am.logger.Warn().
		Str("request_id", requestID).
		Str("item_id", itemID).
		Err(err).
		Msg("classification_failed_open")
}

// FlagUpstreamError logs an upstream relay failure surfaced to the client.
func (am *AlertManager) FlagUpstreamError(requestID, targetURL string, err error) {
	am.logger.Warn().
		Str("request_id", requestID).
		Str("target", targetURL).
		Err(err).
		Msg("upstream_error")
}

// FlagUpstreamTimeout logs an upstream metadata timeout.
func (am *AlertManager) FlagUpstreamTimeout(requestID, itemID string, timeout time.Duration) {
	am.logger.Error().
		Str("request_id", requestID).
		Str("item_id", itemID).
		Dur("timeout", timeout).
		Msg("upstream_timeout")
}

// FlagPanic logs recovered panic.
func (am *AlertManager) FlagPanic(requestID string, panicValue interface{}, stack string) {
	am.logger.Error().
		Str("request_id", requestID).
		Interface("panic", panicValue).
		Str("stack", stack).
		Msg("panic_recovered")
}
