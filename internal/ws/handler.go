package ws

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"

	"github.com/danielhooper/roomrelay/internal/chat"
	"github.com/danielhooper/roomrelay/internal/ratelimit"
	"nhooyr.io/websocket"
)

// Handler upgrades HTTP requests to WebSockets and runs the per-connection
// read loop, dispatching decoded events to the chat router.
type Handler struct {
	hub     *Hub
	router  *chat.Router
	limiter ratelimit.Limiter
	origins []string
}

// NewHandler creates a WebSocket Handler. limiter may be nil to disable
// handshake rate limiting. origins is the allowed cross-origin host list;
// empty means same-origin requests only.
func NewHandler(hub *Hub, router *chat.Router, limiter ratelimit.Limiter, origins []string) *Handler {
	return &Handler{
		hub:     hub,
		router:  router,
		limiter: limiter,
		origins: origins,
	}
}

// ServeHTTP upgrades the connection and runs the client's event loop until
// the socket closes. Disconnect is routed exactly once, whatever the exit
// path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		log.Printf("ws: accept error: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	client := NewClient(conn)
	connCtx := h.hub.Add(client)
	defer func() {
		h.hub.Remove(client)
		h.router.HandleDisconnect(client.ID())
	}()

	h.router.HandleConnect(client.ID())
	h.readLoop(r.Context(), connCtx, client)
}

// readLoop reads frames until the connection closes or the hub cancels
// connCtx. Malformed frames and unknown events are dropped.
func (h *Handler) readLoop(ctx context.Context, connCtx context.Context, client *Client) {
	for {
		select {
		case <-connCtx.Done():
			return
		default:
		}

		_, data, err := client.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancelled.
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		switch env.Event {
		case chat.EventEnterRoom:
			var p chat.EnterRoomPayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				continue
			}
			h.router.HandleEnterRoom(client.ID(), p)

		case chat.EventMessage:
			var p chat.MessagePayload
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				continue
			}
			h.router.HandleMessage(client.ID(), p)

		case chat.EventActivity:
			var name string
			if err := json.Unmarshal(env.Payload, &name); err != nil {
				continue
			}
			h.router.HandleActivity(client.ID(), name)
		}
	}
}

// clientIP extracts the peer address without the port, for rate limiting.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
