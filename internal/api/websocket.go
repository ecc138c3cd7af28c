package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"signal-core/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// push is one outbound websocket message to a render consumer.
type push struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// websocket streams new signals, terminal transitions, price batches and
// connection state changes to a consumer until it disconnects.
func (s *Server) websocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Error("ws upgrade failed")
		return
	}
	defer ws.Close()

	newSigs, unsubNew := s.Bus.Subscribe(events.EventSignalNew, 100)
	defer unsubNew()
	closedSigs, unsubClosed := s.Bus.Subscribe(events.EventSignalClosed, 100)
	defer unsubClosed()
	ticks, unsubTicks := s.Bus.Subscribe(events.EventPriceTick, 100)
	defer unsubTicks()
	states, unsubStates := s.Bus.Subscribe(events.EventConnState, 10)
	defer unsubStates()

	// Seed the consumer with the current snapshot before streaming deltas.
	if err := ws.WriteJSON(push{Type: "snapshot", Payload: gin.H{
		"signals":    s.Store.Snapshot(),
		"prices":     s.Store.Prices(),
		"connection": s.Conn.Status(),
	}}); err != nil {
		return
	}

	write := func(kind string, payload any) bool {
		if err := ws.WriteJSON(push{Type: kind, Payload: payload}); err != nil {
			log.WithError(err).Debug("ws consumer gone")
			return false
		}
		return true
	}

	for {
		select {
		case msg, ok := <-newSigs:
			if !ok || !write("signal", msg) {
				return
			}
		case msg, ok := <-closedSigs:
			if !ok || !write("signal_closed", msg) {
				return
			}
		case msg, ok := <-ticks:
			if !ok || !write("price_update", msg) {
				return
			}
		case msg, ok := <-states:
			if !ok || !write("connection", msg) {
				return
			}
		}
	}
}
