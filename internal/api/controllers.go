package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"signal-core/internal/export"
	"signal-core/internal/signal"
)

func (s *Server) getSignals(c *gin.Context) {
	var list []signal.Signal
	switch strings.ToUpper(c.Query("action")) {
	case "":
		list = s.Store.Snapshot()
	case string(signal.ActionCall), string(signal.ActionBuy):
		list = s.Store.Filter(signal.ActionCall)
	case string(signal.ActionPut), string(signal.ActionSell):
		list = s.Store.Filter(signal.ActionPut)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be CALL or PUT"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": list, "count": len(list)})
}

func (s *Server) exportSignals(c *gin.Context) {
	filename := "trading-signals-" + time.Now().UTC().Format("20060102_150405") + ".csv"
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := export.Signals(c.Writer, s.Store.Snapshot()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (s *Server) getPrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"prices": s.Store.Prices()})
}

func (s *Server) getStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.Store.Stats())
}

func (s *Server) getConnection(c *gin.Context) {
	c.JSON(http.StatusOK, s.Conn.Status())
}

func (s *Server) getSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"meta":       s.Meta,
		"connection": s.Conn.Status(),
		"stats":      s.Store.Stats(),
	})
}

func (s *Server) clearSignals(c *gin.Context) {
	s.Store.Clear()
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (s *Server) reconnect(c *gin.Context) {
	s.Conn.Reconnect()
	c.JSON(http.StatusAccepted, gin.H{"status": "reconnecting"})
}

func (s *Server) testSignal(c *gin.Context) {
	var req struct {
		Symbol string `json:"symbol"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	sig := s.Conn.EmitSynthetic(req.Symbol)
	c.JSON(http.StatusCreated, sig)
}
