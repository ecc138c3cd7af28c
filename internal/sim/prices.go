// Package sim generates synthetic prices and signals. It backs the
// connection manager's simulation mode and the manual test-signal entry
// point; both call the same generators.
package sim

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"signal-core/internal/signal"
)

// walkBound caps how far the random walk may drift from a symbol's base
// price, as a fraction of that base.
const walkBound = 0.02

// Prices evolves a bounded random walk per symbol. It is deterministic for a
// given seed and keeps no state beyond the last price per symbol.
type Prices struct {
	mu       sync.Mutex
	rng      *rand.Rand
	profiles map[string]signal.Profile
	last     map[string]float64
}

// NewPrices creates a simulator over the given symbol profiles.
func NewPrices(seed int64, profiles map[string]signal.Profile) *Prices {
	return &Prices{
		rng:      rand.New(rand.NewSource(seed)),
		profiles: profiles,
		last:     make(map[string]float64),
	}
}

// Current returns the latest simulated price for a symbol, starting the walk
// at the profile's base price on first use.
func (p *Prices) Current(symbol string) decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quantize(symbol, p.currentLocked(symbol))
}

// Tick advances the walk for one symbol and returns the new price.
func (p *Prices) Tick(symbol string) decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quantize(symbol, p.stepLocked(symbol))
}

// TickAll advances every known symbol once and returns the resulting batch.
func (p *Prices) TickAll() map[string]decimal.Decimal {
	p.mu.Lock()
	defer p.mu.Unlock()

	syms := make([]string, 0, len(p.profiles))
	for sym := range p.profiles {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	// Walk symbols in stable order so a fixed seed replays identically.
	batch := make(map[string]decimal.Decimal, len(syms))
	for _, sym := range syms {
		batch[sym] = p.quantize(sym, p.stepLocked(sym))
	}
	return batch
}

// Symbols lists the symbols the simulator knows about.
func (p *Prices) Symbols() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.profiles))
	for sym := range p.profiles {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (p *Prices) currentLocked(symbol string) float64 {
	if px, ok := p.last[symbol]; ok {
		return px
	}
	px := signal.ProfileFor(p.profiles, symbol).BasePrice
	p.last[symbol] = px
	return px
}

func (p *Prices) stepLocked(symbol string) float64 {
	prof := signal.ProfileFor(p.profiles, symbol)
	px := p.currentLocked(symbol)
	px += (p.rng.Float64()*2 - 1) * prof.Volatility

	// Keep the walk tethered to the base price.
	lo := prof.BasePrice * (1 - walkBound)
	hi := prof.BasePrice * (1 + walkBound)
	if px < lo {
		px = lo
	} else if px > hi {
		px = hi
	}

	p.last[symbol] = px
	return px
}

func (p *Prices) quantize(symbol string, px float64) decimal.Decimal {
	prof := signal.ProfileFor(p.profiles, symbol)
	return prof.Quantize(decimal.NewFromFloat(px))
}
