package websocket

import (
	"log/slog"
	"net/http"
	"net/url"

	ws "github.com/coder/websocket"
)

// Handler returns an HTTP handler that upgrades connections to WebSocket and
// runs them as Hub clients. Authentication happens before the upgrade, in the
// router; allowedOrigin gates cross-origin browser handshakes, with "*"
// accepting any origin.
func Handler(hub *Hub, allowedOrigin string) http.HandlerFunc {
	opts := &ws.AcceptOptions{}
	if allowedOrigin == "*" {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = []string{hostPattern(allowedOrigin)}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			slog.Warn("websocket accept failed", "error", err)
			return
		}

		client := NewClient(hub, conn)
		client.Run(r.Context())
	}
}

// hostPattern reduces a configured origin URL ("https://spesa.example.com")
// to the host form that AcceptOptions.OriginPatterns matches against.
func hostPattern(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Host
	}
	return origin
}
