// WebSocket relay. Media clients hold a session socket (/embywebsocket)
// that cannot be forwarded over a plain HTTP round trip, so upgrade
// requests are bridged: dial upstream first, then accept the client with
// the negotiated subprotocol, then pump frames both ways until either
// side closes.
package gateway

import (
	"context"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"

	"github.com/embyfast/strm-gateway/internal/monitoring"
)

// isWebSocketUpgrade reports whether the request asks for a websocket.
func isWebSocketUpgrade(r *http.Request) bool {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	for _, c := range r.Header.Values("Connection") {
		for _, token := range strings.Split(c, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "upgrade") {
				return true
			}
		}
	}
	return false
}

// proxyWebSocket bridges one client socket to the upstream socket.
func (f *Forwarder) proxyWebSocket(w http.ResponseWriter, r *http.Request) {
	requestID := monitoring.RequestIDFromContext(r.Context())
	target := f.websocketURL(r)

	dialHeader := r.Header.Clone()
	removeHopByHop(dialHeader)
	// The dialer performs its own handshake.
	for name := range dialHeader {
		if strings.HasPrefix(strings.ToLower(name), "sec-websocket-") {
			dialHeader.Del(name)
		}
	}

	upstream, _, err := websocket.Dial(r.Context(), target, &websocket.DialOptions{
		HTTPHeader:   dialHeader,
		Subprotocols: r.Header.Values("Sec-Websocket-Protocol"),
	})
	if err != nil {
		f.metrics.RecordUpstreamError()
		f.alerts.FlagUpstreamError(requestID, target, err)
		writeJSONError(w, "upstream unreachable", http.StatusBadGateway)
		return
	}
	defer upstream.Close(websocket.StatusNormalClosure, "")

	accept := &websocket.AcceptOptions{OriginPatterns: []string{"*"}}
	if sp := upstream.Subprotocol(); sp != "" {
		accept.Subprotocols = []string{sp}
	}
	client, err := websocket.Accept(w, r, accept)
	if err != nil {
		log.Warn().Str("request_id", requestID).Err(err).Msg("websocket accept failed")
		return
	}
	defer client.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errc := make(chan error, 2)
	go func() { errc <- pumpWebSocket(ctx, client, upstream) }()
	go func() { errc <- pumpWebSocket(ctx, upstream, client) }()

	// First side to fail or close tears down both.
	err = <-errc
	cancel()
	<-errc

	if err != nil && websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
		log.Debug().Str("request_id", requestID).Err(err).Msg("websocket relay ended")
	}
}

// pumpWebSocket copies messages from src to dst until either side closes.
func pumpWebSocket(ctx context.Context, src, dst *websocket.Conn) error {
	for {
		typ, data, err := src.Read(ctx)
		if err != nil {
			return err
		}
		if err := dst.Write(ctx, typ, data); err != nil {
			return err
		}
	}
}

// websocketURL rebases the request onto the upstream with a ws/wss scheme.
func (f *Forwarder) websocketURL(r *http.Request) string {
	u := *f.upstream
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = singleJoiningSlash(f.upstream.Path, r.URL.Path)
	u.RawQuery = r.URL.RawQuery
	return u.String()
}
