// Transparent Forwarder - byte-accurate request/response relay.
//
// DESIGN: The relay must never corrupt non-intercepted traffic:
//   - request method, path, query, headers (auth included) and body are
//     forwarded as received; only hop-by-hop headers are removed, since
//     they describe the client<->gateway connection, not the message
//   - the response body is streamed chunk by chunk with a flush after every
//     write, so large media transfers start immediately and never buffer
//   - automatic decompression is disabled so compressed upstream bodies
//     relay verbatim
//   - the upstream request shares the client request context: a client
//     disconnect mid-stream aborts the upstream call promptly
//
// Failure: upstream connect errors become 502 before any byte is written;
// once streaming has begun there is no retry, a retry after partial
// delivery would corrupt the client's view.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/embyfast/strm-gateway/internal/monitoring"
)

// hopByHopHeaders are connection-level headers per RFC 7230 section 6.1.
// The Go transport manages these for its own connections.
var hopByHopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// Forwarder relays requests to the upstream target unchanged.
type Forwarder struct {
	upstream      *url.URL
	client        *http.Client
	requestLogger *monitoring.RequestLogger
	alerts        *monitoring.AlertManager
	metrics       *monitoring.MetricsCollector
}

// NewForwarder creates a forwarder for the upstream base URL.
func NewForwarder(upstream *url.URL, requestLogger *monitoring.RequestLogger, alerts *monitoring.AlertManager, metrics *monitoring.MetricsCollector) *Forwarder {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DisableCompression:  true, // relay Content-Encoding verbatim
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 32,
	}
	return &Forwarder{
		upstream:      upstream,
		client:        &http.Client{Transport: transport}, // no client timeout: media streams
		requestLogger: requestLogger,
		alerts:        alerts,
		metrics:       metrics,
	}
}

// Forward relays one request and streams the response back.
// Returns the status code sent and the body bytes written.
func (f *Forwarder) Forward(w http.ResponseWriter, r *http.Request) (int, int64) {
	requestID := monitoring.RequestIDFromContext(r.Context())
	target := f.targetURL(r)

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, r.Body)
	if err != nil {
		writeJSONError(w, "malformed request", http.StatusBadRequest)
		return http.StatusBadRequest, 0
	}
	req.ContentLength = r.ContentLength
	req.Header = r.Header.Clone()
	removeHopByHop(req.Header)

	f.requestLogger.LogOutgoing(&monitoring.OutgoingRequestInfo{
		RequestID: requestID,
		TargetURL: target,
		Method:    r.Method,
		BodySize:  r.ContentLength,
	})

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client went away; nothing to answer.
			return 0, 0
		}
		f.metrics.RecordUpstreamError()
		f.alerts.FlagUpstreamError(requestID, target, err)
		writeJSONError(w, "upstream unreachable", http.StatusBadGateway)
		return http.StatusBadGateway, 0
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)

	written, err := io.Copy(&flushWriter{w: w}, resp.Body)
	if err != nil && !errors.Is(err, context.Canceled) {
		// Bytes already streamed; the status is committed. Log only.
		log.Warn().
			Str("request_id", requestID).
			Int64("written", written).
			Err(err).
			Msg("relay interrupted")
	}

	return resp.StatusCode, written
}

// targetURL rebases the request path and query onto the upstream base URL.
func (f *Forwarder) targetURL(r *http.Request) string {
	u := *f.upstream
	u.Path = singleJoiningSlash(f.upstream.Path, r.URL.Path)
	u.RawQuery = r.URL.RawQuery
	return u.String()
}

// singleJoiningSlash joins two URL path segments with exactly one slash.
func singleJoiningSlash(a, b string) string {
	aslash := strings.HasSuffix(a, "/")
	bslash := strings.HasPrefix(b, "/")
	switch {
	case aslash && bslash:
		return a + b[1:]
	case !aslash && !bslash:
		return a + "/" + b
	}
	return a + b
}

// removeHopByHop drops connection-level headers, including any the client
// nominated in its Connection header.
func removeHopByHop(h http.Header) {
	for _, c := range h.Values("Connection") {
		for _, name := range strings.Split(c, ",") {
			if name = strings.TrimSpace(name); name != "" {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}

// copyHeaders copies upstream response headers, minus hop-by-hop ones.
func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		for _, v := range values {
			dst.Add(name, v)
		}
	}
	removeHopByHop(dst)
}

// flushWriter flushes after every write so the client receives bytes as
// soon as upstream produces them.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if f, ok := fw.w.(http.Flusher); ok {
		f.Flush()
	}
	return n, err
}

// writeJSONError writes a gateway-originated error response.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, message)
}
