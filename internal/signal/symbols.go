package signal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Profile describes a symbol's quoting conventions plus the constants the
// synthetic price walk needs. PipScale converts a price difference into pips
// (10000 for 5-digit FX quotes, 100 for JPY-quoted pairs).
type Profile struct {
	Symbol     string  `yaml:"symbol"`
	Precision  int32   `yaml:"precision"`
	PipScale   int64   `yaml:"pip_scale"`
	BasePrice  float64 `yaml:"base_price"`
	Volatility float64 `yaml:"volatility"`
}

// Pip returns the smallest quoted price increment for the symbol.
func (p Profile) Pip() decimal.Decimal {
	return decimal.New(1, -p.Precision+1)
}

// Quantize rounds a price to the symbol's quoting precision.
func (p Profile) Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Precision)
}

// DefaultProfiles returns the built-in instrument set. Entries can be
// overridden or extended from a symbols.yaml file at startup.
func DefaultProfiles() map[string]Profile {
	profiles := []Profile{
		{Symbol: "EURUSD", Precision: 5, PipScale: 10000, BasePrice: 1.0850, Volatility: 0.00012},
		{Symbol: "GBPUSD", Precision: 5, PipScale: 10000, BasePrice: 1.2700, Volatility: 0.00015},
		{Symbol: "AUDUSD", Precision: 5, PipScale: 10000, BasePrice: 0.6550, Volatility: 0.00010},
		{Symbol: "USDCAD", Precision: 5, PipScale: 10000, BasePrice: 1.3600, Volatility: 0.00012},
		{Symbol: "USDJPY", Precision: 3, PipScale: 100, BasePrice: 149.50, Volatility: 0.012},
		{Symbol: "BTCUSD", Precision: 2, PipScale: 1, BasePrice: 64000, Volatility: 45},
	}
	out := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		out[p.Symbol] = p
	}
	return out
}

// ProfileFor resolves a symbol's profile, falling back to standard 5-digit FX
// conventions for unknown symbols so evaluation never stalls on missing
// metadata.
func ProfileFor(profiles map[string]Profile, symbol string) Profile {
	if p, ok := profiles[symbol]; ok {
		return p
	}
	p := Profile{Symbol: symbol, Precision: 5, PipScale: 10000, BasePrice: 1.0, Volatility: 0.0001}
	if strings.HasSuffix(symbol, "JPY") {
		p.Precision = 3
		p.PipScale = 100
		p.BasePrice = 150
		p.Volatility = 0.01
	}
	return p
}
