// File: server/server.go
package server

import (
	"net/http"

	"github.com/lguibr/bollywood"
	"github.com/quadball-arena/quadball/game"
	"github.com/quadball-arena/quadball/utils"
	"golang.org/x/net/websocket"
)

// Server ties the actor engine, the room registry and the WebSocket endpoints
// together. Static pages and assets are served elsewhere; this process speaks
// only the lobby and game protocols.
type Server struct {
	engine   *bollywood.Engine
	registry *game.Registry
	cfg      utils.Config
}

// New creates a Server with a fresh room registry.
func New(engine *bollywood.Engine, cfg utils.Config) *Server {
	return &Server{
		engine:   engine,
		registry: game.NewRegistry(engine, cfg),
		cfg:      cfg,
	}
}

// Registry exposes the room registry, mainly for tests.
func (s *Server) Registry() *game.Registry { return s.registry }

// Routes builds the HTTP mux with the health check and both WebSocket
// endpoints.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/ws/lobby", websocket.Handler(s.HandleLobby()))
	mux.Handle("/ws/game/", websocket.Handler(s.HandleGame()))
	return mux
}
