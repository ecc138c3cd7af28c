package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"signal-core/internal/signal"
)

// Synthesized signals expire between these bounds.
const (
	minExpiry = 30 * time.Second
	maxExpiry = 120 * time.Second
)

var synthLogics = []string{
	"Liquidity sweep into discount, FVG entry",
	"Order block retest after break of structure",
	"CHoCH confirmation at session low",
	"Premium array rejection, displacement candle",
	"Equal highs taken, SMT divergence",
}

var synthPatterns = [][]string{
	{"BOS", "FVG"},
	{"CHoCH", "OB"},
	{"SMT", "EQH"},
	{"MSS", "Breaker"},
}

// Synthesizer builds complete synthetic signals from the simulated prices.
// Generated signals are always ACTIVE with stop and target consistent with
// the chosen direction.
type Synthesizer struct {
	mu       sync.Mutex
	rng      *rand.Rand
	prices   *Prices
	profiles map[string]signal.Profile
	now      func() time.Time
}

// NewSynthesizer creates a synthesizer over the shared price simulator.
func NewSynthesizer(seed int64, prices *Prices, profiles map[string]signal.Profile) *Synthesizer {
	return &Synthesizer{
		rng:      rand.New(rand.NewSource(seed)),
		prices:   prices,
		profiles: profiles,
		now:      time.Now,
	}
}

// Generate builds one synthetic signal for the symbol at its current
// simulated price.
func (s *Synthesizer) Generate(symbol string) signal.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	prof := signal.ProfileFor(s.profiles, symbol)
	entry := s.prices.Current(symbol)
	pip := prof.Pip()

	action := signal.ActionCall
	if s.rng.Intn(2) == 1 {
		action = signal.ActionPut
	}

	// Roughly 1:2 risk to reward, in pips.
	slPips := decimal.NewFromInt(int64(8 + s.rng.Intn(8)))
	tpPips := slPips.Mul(decimal.NewFromInt(2))
	slDist := pip.Mul(slPips)
	tpDist := pip.Mul(tpPips)

	var sl, tp decimal.Decimal
	if action.IsLong() {
		sl = entry.Sub(slDist)
		tp = entry.Add(tpDist)
	} else {
		sl = entry.Add(slDist)
		tp = entry.Sub(tpDist)
	}

	now := s.now()
	expiry := minExpiry + time.Duration(s.rng.Int63n(int64(maxExpiry-minExpiry)))
	utc6 := now.UTC().Add(-6 * time.Hour)

	return signal.Signal{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Action:     action,
		Price:      entry,
		SLPrice:    prof.Quantize(sl),
		TPPrice:    prof.Quantize(tp),
		Confidence: 55 + s.rng.Intn(41),
		Logic:      synthLogics[s.rng.Intn(len(synthLogics))],
		Patterns:   synthPatterns[s.rng.Intn(len(synthPatterns))],
		Timeframe:  "1m",
		TimeUTC6:   fmt.Sprintf("%s UTC-6", utc6.Format("15:04:05")),
		Timestamp:  now,
		ExpiryTime: now.Add(expiry),
		Status:     signal.StatusActive,
	}
}

// Pick returns a random known symbol, used by the simulation loop's
// signal-emission tick.
func (s *Synthesizer) Pick() string {
	syms := s.prices.Symbols()
	if len(syms) == 0 {
		return "EURUSD"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return syms[s.rng.Intn(len(syms))]
}

// Chance rolls the emission probability for one simulation tick.
func (s *Synthesizer) Chance(p float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64() < p
}
