package risk

import (
	"testing"

	"github.com/rustyeddy/tradelog/market"
	"github.com/rustyeddy/tradelog/num"
	"github.com/stretchr/testify/assert"
)

var (
	eurusd = market.InstrumentSpec{Symbol: "EUR/USD", PipSize: 0.0001, ContractSize: 100000, QuoteCurrency: "USD"}
	usdjpy = market.InstrumentSpec{Symbol: "USD/JPY", PipSize: 0.01, ContractSize: 100000, QuoteCurrency: "JPY"}
)

func TestPipDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry num.Opt
		other num.Opt
		spec  market.InstrumentSpec
		want  float64
		ok    bool
	}{
		{"eurusd 20 pips", num.Some(1.1000), num.Some(1.0980), eurusd, 20, true},
		{"order does not matter", num.Some(1.0980), num.Some(1.1000), eurusd, 20, true},
		{"usdjpy 50 pips", num.Some(150.00), num.Some(149.50), usdjpy, 50, true},
		{"missing other", num.Some(1.1), num.None(), eurusd, 0, false},
		{"missing entry", num.None(), num.Some(1.1), eurusd, 0, false},
		{"zero pip size", num.Some(1), num.Some(2), market.InstrumentSpec{}, 0, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := PipDistance(tt.entry, tt.other, tt.spec).Get()
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestRealizedPips_SwapNegates(t *testing.T) {
	t.Parallel()

	xauusd := market.InstrumentSpec{Symbol: "XAU/USD", PipSize: 0.01, ContractSize: 100, QuoteCurrency: "USD"}
	us30 := market.InstrumentSpec{Symbol: "US30", PipSize: 1, ContractSize: 1, QuoteCurrency: "USD"}
	btcusd := market.InstrumentSpec{Symbol: "BTC/USD", PipSize: 1, ContractSize: 1, QuoteCurrency: "USD"}

	tests := []struct {
		name        string
		entry, exit float64
		spec        market.InstrumentSpec
		pips        float64 // long result
	}{
		{"forex", 1.1000, 1.1015, eurusd, 15},
		{"forex jpy", 150.00, 149.50, usdjpy, -50},
		{"commodity", 2350.00, 2362.50, xauusd, 1250},
		{"index", 39000, 38880, us30, -120},
		{"crypto", 64000, 64250, btcusd, 250},
		{"near flat", 1.1, 1.1 + 5e-11, eurusd, 0},
	}
	for _, tt := range tests {
		tt := tt
		for _, dir := range []Direction{Long, Short} {
			dir := dir
			t.Run(tt.name+" "+string(dir), func(t *testing.T) {
				t.Parallel()
				fwd, ok := RealizedPips(num.Some(tt.entry), num.Some(tt.exit), dir, tt.spec).Get()
				assert.True(t, ok)
				rev, ok := RealizedPips(num.Some(tt.exit), num.Some(tt.entry), dir, tt.spec).Get()
				assert.True(t, ok)

				want := tt.pips
				if dir == Short {
					want = -want
				}
				assert.InDelta(t, want, fwd, 1e-6)
				assert.Equal(t, -fwd, rev)
				if tt.pips == 0 {
					assert.Zero(t, fwd)
					assert.Zero(t, rev)
				}
			})
		}
	}
}

func TestRealizedPips_Edges(t *testing.T) {
	t.Parallel()

	assert.False(t, RealizedPips(num.Some(1.1), num.None(), Long, eurusd).Valid())
	assert.False(t, RealizedPips(num.Some(1.1), num.Some(1.2), Direction("sideways"), eurusd).Valid())

	flat, ok := RealizedPips(num.Some(1.1), num.Some(1.1), Long, eurusd).Get()
	assert.True(t, ok)
	assert.Equal(t, 0.0, flat)
}

func TestResolveLotSizeAndRisk(t *testing.T) {
	t.Parallel()

	pv := num.Some(10)
	sl := num.Some(20)

	tests := []struct {
		name    string
		spec    Spec
		sl      num.Opt
		capital float64
		lot     num.Opt
		money   num.Opt
	}{
		{"percentage", Spec{Percentage, 1}, sl, 10000, num.Some(0.5), num.Some(100)},
		{"percentage no capital", Spec{Percentage, 1}, sl, 0, num.None(), num.None()},
		{"percentage negative", Spec{Percentage, -1}, sl, 10000, num.None(), num.None()},
		{"money", Spec{Money, 100}, sl, 0, num.Some(0.5), num.Some(100)},
		{"money zero guard", Spec{Money, 0}, sl, 0, num.Some(0), num.Some(0)},
		{"money negative guard", Spec{Money, -50}, sl, 0, num.Some(0), num.Some(0)},
		{"lot", Spec{Lot, 0.5}, sl, 0, num.Some(0.5), num.Some(100)},
		{"lot negative", Spec{Lot, -1}, sl, 0, num.None(), num.None()},
		{"unknown mode", Spec{Mode("units"), 1}, sl, 0, num.None(), num.None()},
		{"no stop percentage", Spec{Percentage, 1}, num.Some(0), 10000, num.None(), num.None()},
		{"no stop money", Spec{Money, 100}, num.None(), 0, num.None(), num.None()},
		{"no stop lot", Spec{Lot, 1}, num.Some(0), 0, num.None(), num.None()},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			lot, money := ResolveLotSizeAndRisk(tt.spec, tt.sl, pv, tt.capital)
			assert.Equal(t, tt.lot.Valid(), lot.Valid(), "lot validity")
			assert.Equal(t, tt.money.Valid(), money.Valid(), "money validity")
			assert.InDelta(t, tt.lot.Or(0), lot.Or(0), 1e-9)
			assert.InDelta(t, tt.money.Or(0), money.Or(0), 1e-9)
		})
	}
}

func TestResolveLotSizeAndRisk_MoneyLotEquivalence(t *testing.T) {
	t.Parallel()

	pv, sl := num.Some(6.5), num.Some(37)
	for _, amount := range []float64{25, 100, 480.5, 1234} {
		lot, money := ResolveLotSizeAndRisk(Spec{Money, amount}, sl, pv, 0)
		l, _ := lot.Get()

		lot2, money2 := ResolveLotSizeAndRisk(Spec{Lot, l}, sl, pv, 0)
		assert.InDelta(t, l, lot2.Or(-1), 1e-9)
		assert.InDelta(t, money.Or(-1), money2.Or(-2), 1e-9)
	}
}

func TestProjectedOutcomeAndRR(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 150.0, ProjectedOutcome(num.Some(15), num.Some(10), num.Some(1)).Or(0), 1e-9)
	assert.False(t, ProjectedOutcome(num.Some(15), num.Some(10), num.None()).Valid())

	rr, ok := RewardRisk(num.Some(40), num.Some(20)).Get()
	assert.True(t, ok)
	assert.Equal(t, 2.0, rr)
	assert.False(t, RewardRisk(num.Some(40), num.Some(0)).Valid())
	assert.False(t, RewardRisk(num.None(), num.Some(20)).Valid())
}

func TestOutcomeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Win, OutcomeFor(0.01))
	assert.Equal(t, Loss, OutcomeFor(-3))
	assert.Equal(t, Breakeven, OutcomeFor(0))
}
