// Package api exposes the read-only observer surface over HTTP: signal and
// price snapshots, connection status, CSV export and a websocket push feed.
// Nothing here mutates core state beyond the two explicit actions (manual
// reconnect, manual test signal).
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"signal-core/internal/conn"
	"signal-core/internal/events"
	"signal-core/internal/store"
)

// Server wires HTTP endpoints around the store and connection manager.
type Server struct {
	Router *gin.Engine
	Bus    *events.Bus
	Store  *store.Store
	Conn   *conn.Manager
	Meta   SystemMeta
}

// SystemMeta describes runtime status exposed to consumers.
type SystemMeta struct {
	Symbols []string `json:"symbols"`
	FeedURL string   `json:"feed_url"`
	Version string   `json:"version"`
}

// NewServer builds the router with the standard middleware stack.
func NewServer(bus *events.Bus, st *store.Store, cm *conn.Manager, meta SystemMeta) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger())
	r.Use(RateLimitMiddleware())
	r.Use(CORSMiddleware())

	s := &Server{
		Router: r,
		Bus:    bus,
		Store:  st,
		Conn:   cm,
		Meta:   meta,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/signals", s.getSignals)
		api.GET("/signals/export", s.exportSignals)
		api.GET("/prices", s.getPrices)
		api.GET("/stats", s.getStats)
		api.GET("/connection", s.getConnection)
		api.GET("/system/status", s.getSystemStatus)

		api.POST("/connection/reconnect", s.reconnect)
		api.POST("/signals/test", s.testSignal)
		api.DELETE("/signals", s.clearSignals)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start runs the HTTP server; it blocks.
func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
