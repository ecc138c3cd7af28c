package conn

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"signal-core/internal/signal"
)

// outbound is the shape of every message the manager writes to the feed.
type outbound struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols,omitempty"`
}

// envelope is the discriminated wrapper around every inbound frame.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// wireSignal is a Signal as the feed sends it. Some sources describe expiry
// as a relative seconds_left rather than an absolute time.
type wireSignal struct {
	signal.Signal
	SecondsLeft int `json:"seconds_left"`
}

// dispatch decodes one frame and routes it to the matching store operation.
// Malformed frames and unknown types are logged and dropped; they never
// bring the connection down.
func (m *Manager) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.WithError(err).Error("dropping malformed frame")
		return
	}

	switch env.Type {
	case "signal":
		var ws wireSignal
		if err := json.Unmarshal(env.Payload, &ws); err != nil {
			log.WithError(err).Error("dropping undecodable signal")
			return
		}
		m.inject(m.normalize(ws))

	case "bulk_signals":
		var batch []wireSignal
		if err := json.Unmarshal(env.Payload, &batch); err != nil {
			log.WithError(err).Error("dropping undecodable bulk_signals")
			return
		}
		for _, ws := range batch {
			m.inject(m.normalize(ws))
		}

	case "price_update":
		var batch map[string]decimal.Decimal
		if err := json.Unmarshal(env.Payload, &batch); err != nil {
			log.WithError(err).Error("dropping undecodable price_update")
			return
		}
		m.store.UpdatePrices(batch)

	case "signal_update":
		var p signal.Patch
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			log.WithError(err).Error("dropping undecodable signal_update")
			return
		}
		m.store.Update(p)

	case "heartbeat":
		log.Debug("feed heartbeat")

	case "pong":
		m.recordPong(time.Now())

	default:
		log.WithField("type", env.Type).Warn("dropping unknown message type")
	}
}

// normalize fills the gaps a feed may leave: missing ids, timestamps, status
// and relative expiry.
func (m *Manager) normalize(ws wireSignal) signal.Signal {
	sig := ws.Signal
	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = time.Now()
	}
	if sig.Status == "" {
		sig.Status = signal.StatusActive
	}
	if sig.ExpiryTime.IsZero() && ws.SecondsLeft > 0 {
		sig.ExpiryTime = sig.Timestamp.Add(time.Duration(ws.SecondsLeft) * time.Second)
	}
	return sig
}
