// Package server assembles the HTTP surface: the WebSocket endpoint, the
// health and room-list APIs, and the static UI file server.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielhooper/roomrelay/internal/chat"
	"github.com/danielhooper/roomrelay/internal/ratelimit"
	"github.com/danielhooper/roomrelay/internal/registry"
	"github.com/danielhooper/roomrelay/internal/ws"
)

// Server is the main HTTP server for the room relay.
type Server struct {
	addr     string
	mux      *http.ServeMux
	httpSrv  *http.Server
	registry *registry.Registry
	router   *chat.Router
	hub      *ws.Hub

	limiter   ratelimit.Limiter
	origins   []string
	publicDir string
}

// Option configures a Server.
type Option func(*Server)

// WithLimiter sets the handshake rate limiter. Without it, handshakes are
// not limited.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithOriginPatterns sets the cross-origin hosts accepted for the
// WebSocket handshake. Empty means same-origin only.
func WithOriginPatterns(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithPublicDir serves static UI assets from dir at the root path.
func WithPublicDir(dir string) Option {
	return func(s *Server) {
		s.publicDir = dir
	}
}

// New creates a new Server listening on addr.
func New(addr string, opts ...Option) *Server {
	s := &Server{
		addr:     addr,
		mux:      http.NewServeMux(),
		registry: registry.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = ws.NewHub()
	s.router = chat.NewRouter(s.registry, s.hub)
	s.routes()

	// No write timeout: WebSocket connections are long-lived.
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops accepting new connections, closes every WebSocket, and
// waits for in-flight requests up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Shutdown()
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.Handle("/ws", ws.NewHandler(s.hub, s.router, s.limiter, s.origins))
	if s.publicDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.publicDir)))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleListRooms reports the rooms that currently have members, the same
// projection pushed to clients as roomList.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(chat.RoomList{Rooms: s.registry.ActiveRooms()})
}
