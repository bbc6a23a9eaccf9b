// Router classifies requests as Bypass or Passthrough.
//
// DESIGN: Exactly one path pattern is recognized: the items-collection
// PlaybackInfo query. Everything else is Passthrough with no further work
// and no upstream call. On a pattern match the item classification cache
// decides:
//   - strm item     -> Bypass (synthesize, skip the server-side probe)
//   - regular item  -> Passthrough (the server handles local files fine)
//   - lookup failed -> Passthrough (fail open; bypass is an optimization,
//     never a hard dependency)
package gateway

import (
	"net/http"
	"regexp"

	"github.com/embyfast/strm-gateway/internal/cache"
	"github.com/embyfast/strm-gateway/internal/monitoring"
)

// playbackInfoPattern matches /Items/{id}/PlaybackInfo, with the optional
// /emby mount prefix some clients send.
var playbackInfoPattern = regexp.MustCompile(`(?i)^(?:/emby)?/Items/([^/]+)/PlaybackInfo/?$`)

// Router produces a RouteDecision for each incoming request.
type Router struct {
	cache   *cache.ItemTypeCache
	metrics *monitoring.MetricsCollector
	alerts  *monitoring.AlertManager
}

// NewRouter creates a router over the item classification cache.
func NewRouter(c *cache.ItemTypeCache, metrics *monitoring.MetricsCollector, alerts *monitoring.AlertManager) *Router {
	return &Router{cache: c, metrics: metrics, alerts: alerts}
}

// ExtractItemID returns the item identifier of a PlaybackInfo path, if any.
func ExtractItemID(path string) (string, bool) {
	m := playbackInfoPattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Classify inspects one request and decides how to dispatch it.
// Only the classification lookup blocks; it blocks this request alone.
func (rt *Router) Classify(r *http.Request) RouteDecision {
	itemID, ok := ExtractItemID(r.URL.Path)
	if !ok {
		return RouteDecision{Route: RoutePassthrough}
	}

	entry, err := rt.cache.Lookup(r.Context(), itemID)
	if err != nil {
		rt.metrics.RecordFailOpen()
		rt.alerts.FlagFailOpen(monitoring.RequestIDFromContext(r.Context()), itemID, err)
		return RouteDecision{Route: RoutePassthrough, ItemID: itemID, FailedOpen: true}
	}

	if !entry.IsStrm {
		return RouteDecision{Route: RoutePassthrough, ItemID: itemID}
	}

	return RouteDecision{Route: RouteBypass, ItemID: itemID, Entry: entry}
}
