// Package signal defines the trade signal model shared across the core.
package signal

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the directional bias of a signal. BUY and SELL arrive from some
// sources and evaluate identically to CALL and PUT.
type Action string

const (
	ActionCall Action = "CALL"
	ActionPut  Action = "PUT"
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// IsLong reports whether the action profits from rising prices.
func (a Action) IsLong() bool {
	return a == ActionCall || a == ActionBuy
}

// Valid reports whether the action is one of the four known values.
func (a Action) Valid() bool {
	switch a {
	case ActionCall, ActionPut, ActionBuy, ActionSell:
		return true
	}
	return false
}

// Status is the lifecycle state of a signal. StatusActive is the initial
// state; the other three are terminal and never left.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusWon     Status = "WON"
	StatusLost    Status = "LOST"
	StatusExpired Status = "EXPIRED"
)

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost || s == StatusExpired
}

// TradeResult records the outcome of a closed trade. It stays empty for
// expired signals.
type TradeResult string

const (
	ResultWin  TradeResult = "WIN"
	ResultLoss TradeResult = "LOSS"
)

// Signal is a directional trade recommendation with entry, stop, target and
// expiry. Identity fields are immutable after creation; only the store may
// mutate the lifecycle fields (Status, PnL, ClosedAt, TradeResult).
type Signal struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Action      Action          `json:"action"`
	Price       decimal.Decimal `json:"price"`
	SLPrice     decimal.Decimal `json:"sl_price"`
	TPPrice     decimal.Decimal `json:"tp_price"`
	Confidence  int             `json:"confidence"`
	Logic       string          `json:"logic"`
	Patterns    []string        `json:"patterns"`
	Timeframe   string          `json:"timeframe,omitempty"`
	TimeUTC6    string          `json:"time_utc6,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
	ExpiryTime  time.Time       `json:"expiry_time,omitzero"`
	Status      Status          `json:"status"`
	PnL         decimal.Decimal `json:"pnl"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
	TradeResult TradeResult     `json:"trade_result,omitempty"`
}

// Expired reports whether the signal has an expiry and it has passed.
func (s *Signal) Expired(now time.Time) bool {
	return !s.ExpiryTime.IsZero() && now.After(s.ExpiryTime)
}

// Patch carries an out-of-band correction from the event source. Nil fields
// are left untouched when merged. Lifecycle fields are deliberately absent:
// status, pnl and close metadata are owned by the store.
type Patch struct {
	ID         string     `json:"id"`
	Confidence *int       `json:"confidence,omitempty"`
	Logic      *string    `json:"logic,omitempty"`
	Patterns   []string   `json:"patterns,omitempty"`
	Timeframe  *string    `json:"timeframe,omitempty"`
	ExpiryTime *time.Time `json:"expiry_time,omitempty"`
}

// Apply merges the patch into the signal.
func (p Patch) Apply(s *Signal) {
	if p.Confidence != nil {
		s.Confidence = *p.Confidence
	}
	if p.Logic != nil {
		s.Logic = *p.Logic
	}
	if p.Patterns != nil {
		s.Patterns = p.Patterns
	}
	if p.Timeframe != nil {
		s.Timeframe = *p.Timeframe
	}
	if p.ExpiryTime != nil {
		s.ExpiryTime = *p.ExpiryTime
	}
}
