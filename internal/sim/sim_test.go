package sim

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-core/internal/signal"
)

func TestWalkIsDeterministicPerSeed(t *testing.T) {
	profiles := signal.DefaultProfiles()
	a := NewPrices(42, profiles)
	b := NewPrices(42, profiles)

	for i := 0; i < 50; i++ {
		ba := a.TickAll()
		bb := b.TickAll()
		for sym, px := range ba {
			assert.True(t, px.Equal(bb[sym]), "tick %d diverged for %s", i, sym)
		}
	}
}

func TestWalkStaysBounded(t *testing.T) {
	profiles := signal.DefaultProfiles()
	p := NewPrices(7, profiles)

	base := decimal.NewFromFloat(profiles["EURUSD"].BasePrice)
	lo := base.Mul(decimal.NewFromFloat(1 - walkBound))
	hi := base.Mul(decimal.NewFromFloat(1 + walkBound))

	for i := 0; i < 5000; i++ {
		px := p.Tick("EURUSD")
		require.True(t, px.GreaterThanOrEqual(lo.Round(5)) && px.LessThanOrEqual(hi.Round(5)),
			"tick %d escaped bounds: %s", i, px)
	}
}

func TestWalkQuantizesToProfilePrecision(t *testing.T) {
	p := NewPrices(3, signal.DefaultProfiles())

	px := p.Tick("USDJPY")
	assert.GreaterOrEqual(t, px.Exponent(), int32(-3))

	px = p.Tick("EURUSD")
	assert.GreaterOrEqual(t, px.Exponent(), int32(-5))
}

func TestUnknownSymbolFallsBack(t *testing.T) {
	p := NewPrices(1, signal.DefaultProfiles())

	px := p.Current("XAUUSD")
	assert.True(t, px.IsPositive())
}

func TestGenerateConsistency(t *testing.T) {
	profiles := signal.DefaultProfiles()
	prices := NewPrices(9, profiles)
	s := NewSynthesizer(10, prices, profiles)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		sig := s.Generate("EURUSD")

		require.NotEmpty(t, sig.ID)
		require.False(t, seen[sig.ID], "ids must be unique")
		seen[sig.ID] = true

		assert.Equal(t, signal.StatusActive, sig.Status)
		assert.True(t, sig.Action == signal.ActionCall || sig.Action == signal.ActionPut)
		assert.GreaterOrEqual(t, sig.Confidence, 55)
		assert.LessOrEqual(t, sig.Confidence, 95)
		assert.NotEmpty(t, sig.Logic)
		assert.NotEmpty(t, sig.Patterns)

		if sig.Action.IsLong() {
			assert.True(t, sig.SLPrice.LessThan(sig.Price), "CALL stop below entry")
			assert.True(t, sig.TPPrice.GreaterThan(sig.Price), "CALL target above entry")
		} else {
			assert.True(t, sig.SLPrice.GreaterThan(sig.Price), "PUT stop above entry")
			assert.True(t, sig.TPPrice.LessThan(sig.Price), "PUT target below entry")
		}

		ttl := sig.ExpiryTime.Sub(sig.Timestamp)
		assert.GreaterOrEqual(t, ttl, 30*time.Second)
		assert.Less(t, ttl, 120*time.Second)
	}
}

func TestGenerateUsesCurrentSimulatedPrice(t *testing.T) {
	profiles := signal.DefaultProfiles()
	prices := NewPrices(11, profiles)
	s := NewSynthesizer(12, prices, profiles)

	current := prices.Current("GBPUSD")
	sig := s.Generate("GBPUSD")
	assert.True(t, sig.Price.Equal(current))
}

func TestPickReturnsKnownSymbol(t *testing.T) {
	profiles := signal.DefaultProfiles()
	prices := NewPrices(13, profiles)
	s := NewSynthesizer(14, prices, profiles)

	for i := 0; i < 20; i++ {
		_, ok := profiles[s.Pick()]
		require.True(t, ok)
	}
}

func TestChanceExtremes(t *testing.T) {
	profiles := signal.DefaultProfiles()
	s := NewSynthesizer(15, NewPrices(16, profiles), profiles)

	for i := 0; i < 50; i++ {
		assert.False(t, s.Chance(0))
		assert.True(t, s.Chance(1.0))
	}
}
