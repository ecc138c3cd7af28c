// Package notify defines the alerting contract the core calls once per newly
// created signal. Sinks are read-only observers; they must not reach back
// into the store.
package notify

import (
	log "github.com/sirupsen/logrus"

	"signal-core/internal/signal"
)

// Sink receives one callback per newly created signal.
type Sink interface {
	Notify(sig signal.Signal)
}

// Func adapts a plain function to the Sink interface.
type Func func(sig signal.Signal)

// Notify implements Sink.
func (f Func) Notify(sig signal.Signal) { f(sig) }

// LogSink writes alerts to the structured log.
type LogSink struct{}

// Notify implements Sink.
func (LogSink) Notify(sig signal.Signal) {
	log.WithFields(log.Fields{
		"id":         sig.ID,
		"symbol":     sig.Symbol,
		"action":     sig.Action,
		"price":      sig.Price,
		"confidence": sig.Confidence,
	}).Info("new signal")
}

// Multi fans one notification out to several sinks in order.
type Multi []Sink

// Notify implements Sink.
func (m Multi) Notify(sig signal.Signal) {
	for _, s := range m {
		s.Notify(sig)
	}
}
