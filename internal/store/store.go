// Package store holds the authoritative in-memory signal collection and the
// price-driven lifecycle evaluator.
package store

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"signal-core/internal/events"
	"signal-core/internal/signal"
)

// DefaultCap is the hard limit on retained signals. Insertion beyond it
// evicts the oldest entries regardless of their status.
const DefaultCap = 100

// Store owns the signal collection and the latest-price map. All mutation
// goes through its methods; one mutation completes before the next begins.
type Store struct {
	mu       sync.RWMutex
	signals  []*signal.Signal // newest first
	byID     map[string]*signal.Signal
	prices   map[string]decimal.Decimal
	profiles map[string]signal.Profile

	cap int
	bus *events.Bus
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCap overrides the retention cap, mainly for tests.
func WithCap(n int) Option {
	return func(s *Store) { s.cap = n }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store. The bus may be nil; observers are optional.
func New(bus *events.Bus, profiles map[string]signal.Profile, opts ...Option) *Store {
	s := &Store{
		byID:     make(map[string]*signal.Signal),
		prices:   make(map[string]decimal.Decimal),
		profiles: profiles,
		cap:      DefaultCap,
		bus:      bus,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add inserts the signal at the front of the collection. A duplicate id is
// an idempotent no-op: the stored signal keeps its fields and position. It
// reports whether the signal was inserted.
func (s *Store) Add(sig signal.Signal) bool {
	s.mu.Lock()

	if _, exists := s.byID[sig.ID]; exists {
		s.mu.Unlock()
		return false
	}

	if sig.Status == "" {
		sig.Status = signal.StatusActive
	}
	if sig.Timestamp.IsZero() {
		sig.Timestamp = s.now()
	}

	stored := sig
	s.signals = append([]*signal.Signal{&stored}, s.signals...)
	s.byID[stored.ID] = &stored

	// Hard cap: evict from the tail until we are back at the limit.
	for len(s.signals) > s.cap {
		oldest := s.signals[len(s.signals)-1]
		s.signals = s.signals[:len(s.signals)-1]
		delete(s.byID, oldest.ID)
	}
	s.mu.Unlock()

	s.publish(events.EventSignalNew, sig)
	return true
}

// Update merges an out-of-band correction into the matching signal. Unknown
// ids are silently ignored.
func (s *Store) Update(p signal.Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.byID[p.ID]
	if !ok {
		return
	}
	p.Apply(sig)
}

// Clear empties the collection unconditionally. Latest prices are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signals = nil
	s.byID = make(map[string]*signal.Signal)
}

// UpdatePrices merges the batch into the latest-price map (per-symbol
// overwrite, last write wins), then evaluates every ACTIVE signal whose
// symbol appears in the batch. Each signal is evaluated at most once per
// batch.
func (s *Store) UpdatePrices(batch map[string]decimal.Decimal) {
	if len(batch) == 0 {
		return
	}

	var closed []signal.Signal

	s.mu.Lock()
	for sym, px := range batch {
		s.prices[sym] = px
	}

	now := s.now()
	for _, sig := range s.signals {
		if sig.Status != signal.StatusActive {
			continue
		}
		px, ok := batch[sig.Symbol]
		if !ok {
			continue
		}
		if s.evaluate(sig, px, now) {
			closed = append(closed, *sig)
		}
	}
	s.mu.Unlock()

	s.publish(events.EventPriceTick, batch)
	for _, sig := range closed {
		log.WithFields(log.Fields{
			"id":     sig.ID,
			"symbol": sig.Symbol,
			"status": sig.Status,
			"pnl":    sig.PnL,
		}).Info("signal closed")
		s.publish(events.EventSignalClosed, sig)
	}
}

// evaluate applies the lifecycle rules to one ACTIVE signal for one price.
// First match wins: the directional stop/target check runs before expiry,
// and a stop-loss breach beats a take-profit breach in the same batch. It
// reports whether the signal reached a terminal state.
func (s *Store) evaluate(sig *signal.Signal, px decimal.Decimal, now time.Time) bool {
	if sig.Action.IsLong() {
		if px.LessThanOrEqual(sig.SLPrice) {
			s.close(sig, signal.StatusLost, sig.SLPrice, now)
			return true
		}
		if px.GreaterThanOrEqual(sig.TPPrice) {
			s.close(sig, signal.StatusWon, sig.TPPrice, now)
			return true
		}
	} else {
		if px.GreaterThanOrEqual(sig.SLPrice) {
			s.close(sig, signal.StatusLost, sig.SLPrice, now)
			return true
		}
		if px.LessThanOrEqual(sig.TPPrice) {
			s.close(sig, signal.StatusWon, sig.TPPrice, now)
			return true
		}
	}

	if sig.Expired(now) {
		// Expiry leaves pnl untouched and trade_result unset.
		sig.Status = signal.StatusExpired
		closedAt := now
		sig.ClosedAt = &closedAt
		return true
	}

	return false
}

// close freezes a signal at WON or LOST. PnL is the distance from entry to
// the breached threshold in pips, signed by outcome.
func (s *Store) close(sig *signal.Signal, status signal.Status, threshold decimal.Decimal, now time.Time) {
	prof := signal.ProfileFor(s.profiles, sig.Symbol)
	pips := sig.Price.Sub(threshold).Abs().Mul(decimal.NewFromInt(prof.PipScale))

	sig.Status = status
	if status == signal.StatusWon {
		sig.PnL = pips
		sig.TradeResult = signal.ResultWin
	} else {
		sig.PnL = pips.Neg()
		sig.TradeResult = signal.ResultLoss
	}
	closedAt := now
	sig.ClosedAt = &closedAt
}

// Snapshot returns a newest-first copy of the collection. Mutating the
// result never affects the store.
func (s *Store) Snapshot() []signal.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]signal.Signal, 0, len(s.signals))
	for _, sig := range s.signals {
		out = append(out, *sig)
	}
	return out
}

// Filter returns the snapshot restricted to one directional bias. CALL
// matches BUY and PUT matches SELL.
func (s *Store) Filter(action signal.Action) []signal.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]signal.Signal, 0, len(s.signals))
	for _, sig := range s.signals {
		if sig.Action.IsLong() == action.IsLong() {
			out = append(out, *sig)
		}
	}
	return out
}

// Get returns a copy of one signal by id.
func (s *Store) Get(id string) (signal.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.byID[id]
	if !ok {
		return signal.Signal{}, false
	}
	return *sig, true
}

// Prices returns a copy of the latest-price map.
func (s *Store) Prices() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(s.prices))
	for sym, px := range s.prices {
		out[sym] = px
	}
	return out
}

// Stats summarizes the collection for observers.
type Stats struct {
	Total   int `json:"total"`
	Calls   int `json:"calls"`
	Puts    int `json:"puts"`
	Active  int `json:"active"`
	Won     int `json:"won"`
	Lost    int `json:"lost"`
	Expired int `json:"expired"`
}

// Stats counts signals by direction and status.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Total: len(s.signals)}
	for _, sig := range s.signals {
		if sig.Action.IsLong() {
			st.Calls++
		} else {
			st.Puts++
		}
		switch sig.Status {
		case signal.StatusActive:
			st.Active++
		case signal.StatusWon:
			st.Won++
		case signal.StatusLost:
			st.Lost++
		case signal.StatusExpired:
			st.Expired++
		}
	}
	return st
}

func (s *Store) publish(e events.Event, payload any) {
	if s.bus != nil {
		s.bus.Publish(e, payload)
	}
}
