package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"gwi.com/chat-core/internal/auth"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 25 * time.Second
)

// StreamHandler upgrades to a websocket and pushes the caller's change events
// until either side goes away. The stream is push-only; client frames other
// than control frames are discarded.
func (h *APIHandler) StreamHandler(allowedOrigins []string) http.HandlerFunc {
	opts := &websocket.AcceptOptions{OriginPatterns: originPatterns(allowedOrigins)}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
			break
		}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		caller := auth.CallerFromContext(r.Context())
		if !caller.Authenticated() {
			h.Error(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		// Subscribe before the handshake completes so no event committed after
		// the client sees the upgrade is missed.
		sub := h.bus.Subscribe(caller.ID())
		defer h.bus.Unsubscribe(sub)

		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			return // Accept already wrote the response
		}
		defer conn.CloseNow()

		ctx := conn.CloseRead(r.Context())
		ticker := time.NewTicker(streamPingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					conn.Close(websocket.StatusGoingAway, "subscription closed")
					return
				}
				ev.Audience = nil
				writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
				err := wsjson.Write(writeCtx, conn, ev)
				cancel()
				if err != nil {
					h.logger.Debug().Err(err).Str("caller", caller.ID()).Msg("event stream write failed")
					return
				}
			case <-ticker.C:
				pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				err := conn.Ping(pingCtx)
				cancel()
				if err != nil {
					return
				}
			}
		}
	}
}

// originPatterns turns CORS origins ("https://app.example.com") into the host
// patterns the websocket handshake matches against ("app.example.com").
// Entries without a scheme are passed through.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
			continue
		}
		patterns = append(patterns, origin)
	}
	return patterns
}
