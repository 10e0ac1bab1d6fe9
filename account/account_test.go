package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreezeUnfreeze(t *testing.T) {
	t.Parallel()
	a := New("acct-1", 100000)

	assert.True(t, a.FreezeCash(40000))
	assert.Equal(t, 60000.0, a.Cash())
	assert.Equal(t, 40000.0, a.FrozenCash())
	assert.Equal(t, 100000.0, a.TotalAssets())

	assert.False(t, a.FreezeCash(60001), "cannot freeze more than available")
	assert.Equal(t, 60000.0, a.Cash())

	a.UnfreezeCash(40000)
	assert.Equal(t, 100000.0, a.Cash())
	assert.Equal(t, 0.0, a.FrozenCash())
}

func TestSettleBuyRefundsUnspentFreeze(t *testing.T) {
	t.Parallel()
	a := New("acct-1", 100000)

	// Freeze covers the worst case; the fill comes in cheaper.
	frozen := 10100.0
	assert.True(t, a.FreezeCash(frozen))

	cost := 10030.0 // notional + commission at the actual fill price
	a.SettleBuy("600519", 1000, 10.0, frozen, cost)

	assert.Equal(t, 0.0, a.FrozenCash())
	assert.Equal(t, 100000.0-cost, a.Cash())

	pos, ok := a.Position("600519")
	assert.True(t, ok)
	assert.Equal(t, int64(1000), pos.Quantity)
	assert.Equal(t, 10.0, pos.AvgCost)
}

func TestSettleBuyAveragesCost(t *testing.T) {
	t.Parallel()
	a := New("acct-1", 1000000)

	assert.True(t, a.FreezeCash(10000))
	a.SettleBuy("600519", 1000, 10.0, 10000, 10000)
	assert.True(t, a.FreezeCash(24000))
	a.SettleBuy("600519", 2000, 12.0, 24000, 24000)

	pos, ok := a.Position("600519")
	assert.True(t, ok)
	assert.Equal(t, int64(3000), pos.Quantity)
	assert.InDelta(t, 11.3333, pos.AvgCost, 0.0001)
}

func TestSettleSellClearsEmptyPosition(t *testing.T) {
	t.Parallel()
	a := New("acct-1", 100000)

	assert.True(t, a.FreezeCash(10000))
	a.SettleBuy("600519", 1000, 10.0, 10000, 10000)

	a.SettleSell("600519", 400, 11.0, 4400)
	pos, ok := a.Position("600519")
	assert.True(t, ok)
	assert.Equal(t, int64(600), pos.Quantity)
	assert.Equal(t, 10.0, pos.AvgCost, "partial sell keeps the average cost")

	a.SettleSell("600519", 600, 11.0, 6600)
	_, ok = a.Position("600519")
	assert.False(t, ok, "empty position is removed")
	assert.Equal(t, 101000.0, a.Cash())
}

func TestConservationThroughRoundTrip(t *testing.T) {
	t.Parallel()
	a := New("acct-1", 100000)

	// With zero fees and no price move, a full round trip restores cash.
	frozen := 10000.0
	assert.True(t, a.FreezeCash(frozen))
	a.SettleBuy("000001", 1000, 10.0, frozen, 10000)
	a.SettleSell("000001", 1000, 10.0, 10000)

	assert.Equal(t, 100000.0, a.Cash())
	assert.Equal(t, 0.0, a.FrozenCash())
	assert.Equal(t, 0.0, a.MarketValue())
}

func TestUpdatePricesMarksPnL(t *testing.T) {
	t.Parallel()
	a := New("acct-1", 100000)

	assert.True(t, a.FreezeCash(10000))
	a.SettleBuy("600519", 1000, 10.0, 10000, 10000)

	a.UpdatePrices(map[string]float64{"600519": 11.0})
	pos, _ := a.Position("600519")
	assert.Equal(t, 11000.0, pos.MarketValue)
	assert.Equal(t, 1000.0, pos.UnrealizedPnL)
	assert.InDelta(t, 10.0, pos.UnrealizedPnLPct, 0.0001)
	assert.Equal(t, 101000.0, a.TotalAssets())
}

func TestHasEnough(t *testing.T) {
	t.Parallel()
	a := New("acct-1", 100000)

	assert.False(t, a.HasEnough("600519", 1))
	assert.True(t, a.FreezeCash(10000))
	a.SettleBuy("600519", 1000, 10.0, 10000, 10000)

	assert.True(t, a.HasEnough("600519", 1000))
	assert.False(t, a.HasEnough("600519", 1001))
}

func TestSnapshotIsDetached(t *testing.T) {
	t.Parallel()
	a := New("acct-1", 100000)
	assert.True(t, a.FreezeCash(10000))
	a.SettleBuy("600519", 1000, 10.0, 10000, 10000)

	snap := a.Snapshot()
	snap.Positions["600519"] = Position{Symbol: "600519", Quantity: 9}

	pos, _ := a.Position("600519")
	assert.Equal(t, int64(1000), pos.Quantity, "mutating a snapshot must not touch the account")
	assert.Equal(t, 100000.0, snap.TotalAssets)
}
