// Package monitoring - types.go defines shared types.
//
// DESIGN: These types are used by both gateway/ and monitoring/ packages.
// Defined here ONCE to avoid duplication and circular imports.
//
// TYPES:
//   - RouteType:     How a request was dispatched
//   - RequestEvent:  Telemetry data for each request
//   - Config types:  TelemetryConfig, LoggerConfig, AlertConfig
package monitoring

import "time"

// =============================================================================
// ROUTE TYPES - Used by router and telemetry
// =============================================================================

// RouteType identifies how the gateway dispatched a request.
type RouteType string

const (
	// RoutePassthrough relays the request to upstream unchanged.
	RoutePassthrough RouteType = "passthrough"
	// RouteBypass answers the request locally with a synthesized document.
	RouteBypass RouteType = "bypass"
	// RouteWebSocket bridges an upgrade request to the upstream socket.
	RouteWebSocket RouteType = "websocket"
)

// =============================================================================
// EVENT TYPES - Structured data for telemetry recording
// =============================================================================

// RequestEvent captures a request through the gateway.
type RequestEvent struct {
	RequestID        string    `json:"request_id"`
	Timestamp        time.Time `json:"timestamp"`
	Method           string    `json:"method"`
	Path             string    `json:"path"`
	ClientIP         string    `json:"client_ip"`
	Route            RouteType `json:"route"`
	ItemID           string    `json:"item_id,omitempty"`
	FailedOpen       bool      `json:"failed_open,omitempty"`
	StatusCode       int       `json:"status_code"`
	ResponseBodySize int64     `json:"response_body_size"`
	Success          bool      `json:"success"`
	Error            string    `json:"error,omitempty"`
	TotalLatencyMs   int64     `json:"total_latency_ms"`
}

// =============================================================================
// CONFIG TYPES
// =============================================================================

// TelemetryConfig contains telemetry configuration.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	LogPath     string `yaml:"log_path"`
	LogToStdout bool   `yaml:"log_to_stdout"`
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// AlertConfig contains alert thresholds.
type AlertConfig struct {
	HighLatencyThreshold time.Duration `yaml:"high_latency_threshold"`
}
