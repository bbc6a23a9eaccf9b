// Package gateway types - types and constants for the strm bypass gateway.
//
// DESIGN: Types are defined here to avoid circular imports and provide
// clear contracts between the router, forwarder, and synthesizer.
package gateway

import (
	"github.com/embyfast/strm-gateway/internal/monitoring"
	"github.com/embyfast/strm-gateway/internal/store"
)

// RouteType is an alias to monitoring.RouteType for convenience.
type RouteType = monitoring.RouteType

// Route constants - re-exported from monitoring for convenience.
const (
	RoutePassthrough = monitoring.RoutePassthrough
	RouteBypass      = monitoring.RouteBypass
	RouteWebSocket   = monitoring.RouteWebSocket
)

const (
	// MaxRateLimitBuckets bounds per-IP rate limiter memory.
	MaxRateLimitBuckets = 10000

	// maxInterceptedBodyBytes caps the PlaybackInfo request body read during
	// bypass handling. Real PlaybackInfo bodies are a few KB of device profile.
	maxInterceptedBodyBytes = 1 << 20
)

// RouteDecision is the outcome of classifying one request.
// Derived per request, never persisted.
type RouteDecision struct {
	Route      RouteType
	ItemID     string      // Set for Bypass
	Entry      store.Entry // Cached classification for Bypass
	FailedOpen bool        // Classification failed and degraded to passthrough
}
