// Package gateway wires the router, synthesizer, and forwarder into the
// HTTP server that sits between media clients and the media server.
//
// DESIGN: Every inbound request enters handleRequest:
//   - websocket upgrades are bridged to the upstream socket
//   - the router classifies the path; Bypass answers locally with a
//     synthesized PlaybackInfo document
//   - everything else is relayed byte-for-byte by the forwarder
//
// Each connection is served on its own goroutine by net/http; the only
// shared mutable state is the item classification cache.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/embyfast/strm-gateway/internal/cache"
	"github.com/embyfast/strm-gateway/internal/config"
	"github.com/embyfast/strm-gateway/internal/emby"
	"github.com/embyfast/strm-gateway/internal/monitoring"
	"github.com/embyfast/strm-gateway/internal/store"
)

// playbackSynthesizer produces the bypass response document.
type playbackSynthesizer interface {
	Synthesize(itemID, mediaSourceID, streamURL string) ([]byte, error)
}

// Gateway is the proxy server.
type Gateway struct {
	cfg *config.Config

	logger        *monitoring.Logger
	requestLogger *monitoring.RequestLogger
	metrics       *monitoring.MetricsCollector
	alerts        *monitoring.AlertManager
	tracker       *monitoring.Tracker

	store       store.Store
	cache       *cache.ItemTypeCache
	router      *Router
	forwarder   *Forwarder
	synth       playbackSynthesizer
	rateLimiter *rateLimiter

	server *http.Server
}

// New creates a gateway from validated configuration.
func New(cfg *config.Config) (*Gateway, error) {
	logger := monitoring.New(cfg.LoggerConfig())
	metrics := monitoring.NewMetricsCollector()
	alerts := monitoring.NewAlertManager(logger, cfg.AlertConfig())
	requestLogger := monitoring.NewRequestLogger(logger)

	tracker, err := monitoring.NewTracker(cfg.TelemetryConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry tracker: %w", err)
	}

	st, err := newStore(cfg.Cache)
	if err != nil {
		return nil, err
	}

	client := emby.NewClient(cfg.Upstream)
	itemCache := cache.New(st, client, cfg.Cache.TTL, cache.WithMetrics(metrics))

	synth, err := NewSynthesizer()
	if err != nil {
		st.Close()
		return nil, err
	}

	g := &Gateway{
		cfg:           cfg,
		logger:        logger,
		requestLogger: requestLogger,
		metrics:       metrics,
		alerts:        alerts,
		tracker:       tracker,
		store:         st,
		cache:         itemCache,
		router:        NewRouter(itemCache, metrics, alerts),
		forwarder:     NewForwarder(cfg.UpstreamURL(), requestLogger, alerts, metrics),
		synth:         synth,
	}

	if cfg.Server.RateLimit > 0 {
		g.rateLimiter = newRateLimiter(cfg.Server.RateLimit)
	}

	g.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      g.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return g, nil
}

// newStore creates the configured cache backend.
func newStore(cfg config.CacheConfig) (store.Store, error) {
	switch cfg.Type {
	case config.CacheTypeSQLite:
		return store.NewSQLiteStore(cfg.Path, cfg.Capacity)
	default:
		return store.NewMemoryStore(cfg.Capacity)
	}
}

// Handler returns the full middleware chain.
func (g *Gateway) Handler() http.Handler {
	var h http.Handler = http.HandlerFunc(g.handleRequest)
	h = g.loggingMiddleware(h)
	if g.rateLimiter != nil {
		h = g.rateLimit(h)
	}
	return g.panicRecovery(h)
}

// Start runs the HTTP server until Shutdown.
func (g *Gateway) Start() error {
	log.Info().
		Int("port", g.cfg.Server.Port).
		Str("upstream", g.cfg.Upstream.BaseURL).
		Msg("gateway listening")
	return g.server.ListenAndServe()
}

// Shutdown drains connections and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	err := g.server.Shutdown(ctx)

	if closeErr := g.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	log.Info().Fields(map[string]interface{}{"stats": g.metrics.Stats()}).Msg("gateway stopped")
	return err
}

// Stats exposes the metrics counters (tests and shutdown logging).
func (g *Gateway) Stats() map[string]int64 { return g.metrics.Stats() }

// handleRequest classifies and dispatches one request.
func (g *Gateway) handleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := monitoring.RequestIDFromContext(r.Context())

	if isWebSocketUpgrade(r) {
		g.metrics.RecordRoute(RouteWebSocket)
		g.forwarder.proxyWebSocket(w, r)
		g.recordEvent(r, requestID, RouteDecision{Route: RouteWebSocket}, http.StatusSwitchingProtocols, 0, start)
		return
	}

	decision := g.router.Classify(r)
	g.metrics.RecordRoute(decision.Route)

	var (
		status  int
		written int64
	)
	if decision.Route == RouteBypass {
		status, written = g.handleBypass(w, r, decision)
	} else {
		status, written = g.forwarder.Forward(w, r)
	}

	g.recordEvent(r, requestID, decision, status, written, start)
}

// handleBypass answers a PlaybackInfo request without upstream probing.
func (g *Gateway) handleBypass(w http.ResponseWriter, r *http.Request, decision RouteDecision) (int, int64) {
	requestID := monitoring.RequestIDFromContext(r.Context())

	// The client may name a media source in the query or the request body.
	mediaSourceID := r.URL.Query().Get("MediaSourceId")
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(r.Body, maxInterceptedBodyBytes))
	}
	if mediaSourceID == "" && len(body) > 0 {
		mediaSourceID = gjson.GetBytes(body, "MediaSourceId").String()
	}

	doc, err := g.synth.Synthesize(decision.ItemID, mediaSourceID, decision.Entry.StreamURL)
	if err != nil {
		// Synthesis never depends on the request; treat failure like a
		// classification failure and let upstream answer. The consumed
		// bytes are replayed ahead of any remainder past the read cap.
		g.alerts.FlagFailOpen(requestID, decision.ItemID, err)
		restored := io.Reader(bytes.NewReader(body))
		if r.Body != nil {
			restored = io.MultiReader(restored, r.Body)
		}
		r.Body = io.NopCloser(restored)
		return g.forwarder.Forward(w, r)
	}

	g.requestLogger.LogBypass(&monitoring.BypassInfo{
		RequestID:     requestID,
		ItemID:        decision.ItemID,
		MediaSourceID: mediaSourceID,
		BodySize:      len(doc),
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	n, _ := w.Write(doc)
	return http.StatusOK, int64(n)
}

// recordEvent emits one telemetry event per request.
func (g *Gateway) recordEvent(r *http.Request, requestID string, decision RouteDecision, status int, written int64, start time.Time) {
	g.tracker.RecordRequest(&monitoring.RequestEvent{
		RequestID:        requestID,
		Timestamp:        start,
		Method:           r.Method,
		Path:             r.URL.Path,
		ClientIP:         getClientIP(r),
		Route:            decision.Route,
		ItemID:           decision.ItemID,
		FailedOpen:       decision.FailedOpen,
		StatusCode:       status,
		ResponseBodySize: written,
		Success:          status > 0 && status < 400,
		TotalLatencyMs:   time.Since(start).Milliseconds(),
	})
}
