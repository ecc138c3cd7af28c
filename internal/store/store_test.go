package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-core/internal/signal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func activeCall(id string) signal.Signal {
	return signal.Signal{
		ID:      id,
		Symbol:  "EURUSD",
		Action:  signal.ActionCall,
		Price:   d("1.10000"),
		SLPrice: d("1.09880"),
		TPPrice: d("1.10300"),
		Status:  signal.StatusActive,
	}
}

func newTestStore(opts ...Option) *Store {
	return New(nil, signal.DefaultProfiles(), opts...)
}

func TestCapEvictsOldestFirst(t *testing.T) {
	st := newTestStore()

	for i := 0; i < 150; i++ {
		require.True(t, st.Add(activeCall(fmt.Sprintf("sig-%d", i))))
	}

	snap := st.Snapshot()
	require.Len(t, snap, DefaultCap)

	// Newest first, and only the 100 most recently added survive.
	assert.Equal(t, "sig-149", snap[0].ID)
	assert.Equal(t, "sig-50", snap[len(snap)-1].ID)

	_, ok := st.Get("sig-49")
	assert.False(t, ok, "evicted signal should be gone")
}

func TestCapIgnoresStatus(t *testing.T) {
	st := newTestStore(WithCap(3))

	st.Add(activeCall("a"))
	// Close "a" so it is terminal.
	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.10310")})
	st.Add(activeCall("b"))
	st.Add(activeCall("c"))
	st.Add(activeCall("e"))

	_, ok := st.Get("a")
	assert.False(t, ok, "terminal signals are evicted like any other")
	assert.Equal(t, 3, st.Stats().Total)
}

func TestDuplicateIDIsNoOp(t *testing.T) {
	st := newTestStore()

	first := activeCall("dup")
	first.Confidence = 80
	require.True(t, st.Add(first))
	st.Add(activeCall("other"))

	changed := activeCall("dup")
	changed.Confidence = 10
	changed.Logic = "rewritten"
	require.False(t, st.Add(changed))

	snap := st.Snapshot()
	require.Len(t, snap, 2)
	// Neither fields nor position moved.
	assert.Equal(t, "other", snap[0].ID)
	assert.Equal(t, "dup", snap[1].ID)
	assert.Equal(t, 80, snap[1].Confidence)
	assert.Empty(t, snap[1].Logic)
}

func TestCallStopLoss(t *testing.T) {
	st := newTestStore()
	st.Add(activeCall("c1"))

	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.09870")})

	sig, ok := st.Get("c1")
	require.True(t, ok)
	assert.Equal(t, signal.StatusLost, sig.Status)
	assert.Equal(t, signal.ResultLoss, sig.TradeResult)
	require.NotNil(t, sig.ClosedAt)
	// |1.10000 - 1.09880| * 10000 pips, negative for a loss.
	assert.True(t, sig.PnL.Equal(d("-12")), "pnl = %s", sig.PnL)
}

func TestCallTakeProfit(t *testing.T) {
	st := newTestStore()
	st.Add(activeCall("c2"))

	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.10310")})

	sig, ok := st.Get("c2")
	require.True(t, ok)
	assert.Equal(t, signal.StatusWon, sig.Status)
	assert.Equal(t, signal.ResultWin, sig.TradeResult)
	require.NotNil(t, sig.ClosedAt)
	assert.True(t, sig.PnL.Equal(d("30")), "pnl = %s", sig.PnL)
}

func TestTerminalIsFrozen(t *testing.T) {
	st := newTestStore()
	st.Add(activeCall("c3"))

	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.09870")})
	closed, _ := st.Get("c3")

	// A later take-profit breach must not reopen or flip the signal.
	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.10310")})
	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.09000")})

	after, _ := st.Get("c3")
	assert.Equal(t, closed.Status, after.Status)
	assert.True(t, closed.PnL.Equal(after.PnL))
	assert.Equal(t, closed.ClosedAt, after.ClosedAt)
}

func TestPutMirrorsBreachDirections(t *testing.T) {
	put := signal.Signal{
		ID:      "p1",
		Symbol:  "GBPUSD",
		Action:  signal.ActionPut,
		Price:   d("1.27000"),
		SLPrice: d("1.27120"),
		TPPrice: d("1.26760"),
		Status:  signal.StatusActive,
	}

	t.Run("stop loss above entry", func(t *testing.T) {
		st := newTestStore()
		st.Add(put)
		st.UpdatePrices(map[string]decimal.Decimal{"GBPUSD": d("1.27130")})

		sig, _ := st.Get("p1")
		assert.Equal(t, signal.StatusLost, sig.Status)
		assert.True(t, sig.PnL.Equal(d("-12")), "pnl = %s", sig.PnL)
	})

	t.Run("take profit below entry", func(t *testing.T) {
		st := newTestStore()
		st.Add(put)
		st.UpdatePrices(map[string]decimal.Decimal{"GBPUSD": d("1.26750")})

		sig, _ := st.Get("p1")
		assert.Equal(t, signal.StatusWon, sig.Status)
		assert.True(t, sig.PnL.Equal(d("24")), "pnl = %s", sig.PnL)
	})
}

func TestStopLossWinsSimultaneousBreach(t *testing.T) {
	// Inverted thresholds make a single price satisfy both rules; the
	// stop-loss check runs first so the signal closes LOST.
	st := newTestStore()
	st.Add(signal.Signal{
		ID:      "both",
		Symbol:  "EURUSD",
		Action:  signal.ActionCall,
		Price:   d("1.10000"),
		SLPrice: d("1.09500"),
		TPPrice: d("1.09000"),
		Status:  signal.StatusActive,
	})

	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.09200")})

	sig, _ := st.Get("both")
	assert.Equal(t, signal.StatusLost, sig.Status)
	assert.Equal(t, signal.ResultLoss, sig.TradeResult)
}

func TestExpiryOnNextEvaluation(t *testing.T) {
	now := time.Now()
	st := newTestStore(WithClock(func() time.Time { return now }))

	sig := activeCall("exp")
	sig.ExpiryTime = now.Add(-time.Second)
	st.Add(sig)

	// Price stays between stop and target; only expiry applies.
	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.10000")})

	got, _ := st.Get("exp")
	assert.Equal(t, signal.StatusExpired, got.Status)
	assert.Empty(t, got.TradeResult)
	assert.True(t, got.PnL.IsZero())
	require.NotNil(t, got.ClosedAt)
}

func TestBreachBeatsExpiry(t *testing.T) {
	now := time.Now()
	st := newTestStore(WithClock(func() time.Time { return now }))

	sig := activeCall("race")
	sig.ExpiryTime = now.Add(-time.Second)
	st.Add(sig)

	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.10310")})

	got, _ := st.Get("race")
	assert.Equal(t, signal.StatusWon, got.Status, "directional check runs before expiry")
}

func TestBuySellSynonyms(t *testing.T) {
	st := newTestStore()

	buy := activeCall("buy")
	buy.Action = signal.ActionBuy
	st.Add(buy)

	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.09870")})

	sig, _ := st.Get("buy")
	assert.Equal(t, signal.StatusLost, sig.Status, "BUY evaluates as CALL")
}

func TestJPYPipScale(t *testing.T) {
	st := newTestStore()
	st.Add(signal.Signal{
		ID:      "jpy",
		Symbol:  "USDJPY",
		Action:  signal.ActionCall,
		Price:   d("149.500"),
		SLPrice: d("149.350"),
		TPPrice: d("149.800"),
		Status:  signal.StatusActive,
	})

	st.UpdatePrices(map[string]decimal.Decimal{"USDJPY": d("149.300")})

	sig, _ := st.Get("jpy")
	assert.Equal(t, signal.StatusLost, sig.Status)
	// |149.500 - 149.350| * 100
	assert.True(t, sig.PnL.Equal(d("-15")), "pnl = %s", sig.PnL)
}

func TestUpdateMergesKnownID(t *testing.T) {
	st := newTestStore()
	st.Add(activeCall("u1"))

	conf := 99
	logic := "revised entry logic"
	st.Update(signal.Patch{ID: "u1", Confidence: &conf, Logic: &logic})

	sig, _ := st.Get("u1")
	assert.Equal(t, 99, sig.Confidence)
	assert.Equal(t, "revised entry logic", sig.Logic)
	assert.Equal(t, signal.StatusActive, sig.Status)
}

func TestUpdateUnknownIDIsNoOp(t *testing.T) {
	st := newTestStore()
	st.Add(activeCall("u2"))

	conf := 1
	st.Update(signal.Patch{ID: "missing", Confidence: &conf})

	assert.Equal(t, 1, st.Stats().Total)
	sig, _ := st.Get("u2")
	assert.Zero(t, sig.Confidence)
}

func TestClearKeepsPrices(t *testing.T) {
	st := newTestStore()
	st.Add(activeCall("x"))
	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.10001")})

	st.Clear()

	assert.Empty(t, st.Snapshot())
	assert.Len(t, st.Prices(), 1)
}

func TestPricesLastWriteWins(t *testing.T) {
	st := newTestStore()

	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.10001")})
	st.UpdatePrices(map[string]decimal.Decimal{"EURUSD": d("1.10002")})

	assert.True(t, st.Prices()["EURUSD"].Equal(d("1.10002")))
}

func TestSnapshotIsACopy(t *testing.T) {
	st := newTestStore()
	st.Add(activeCall("s1"))

	snap := st.Snapshot()
	snap[0].Status = signal.StatusWon
	snap[0].Confidence = 1

	sig, _ := st.Get("s1")
	assert.Equal(t, signal.StatusActive, sig.Status)
	assert.Zero(t, sig.Confidence)
}

func TestFilterAndStats(t *testing.T) {
	st := newTestStore()
	st.Add(activeCall("f1"))

	put := activeCall("f2")
	put.Action = signal.ActionPut
	put.SLPrice = d("1.10120")
	put.TPPrice = d("1.09700")
	st.Add(put)

	sell := activeCall("f3")
	sell.Action = signal.ActionSell
	sell.SLPrice = d("1.10120")
	sell.TPPrice = d("1.09700")
	st.Add(sell)

	assert.Len(t, st.Filter(signal.ActionCall), 1)
	assert.Len(t, st.Filter(signal.ActionPut), 2, "SELL filters with PUT")

	stats := st.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Calls)
	assert.Equal(t, 2, stats.Puts)
	assert.Equal(t, 3, stats.Active)
}
