package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findByQuote(r *Registry, ccy string) (InstrumentSpec, bool) {
	for _, s := range r.Specs() {
		if s.QuoteCurrency == ccy {
			return s, true
		}
	}
	return InstrumentSpec{}, false
}

func TestQuoteToAccountRate_QuoteEqualsAccount(t *testing.T) {
	t.Parallel()

	spec, ok := findByQuote(DefaultRegistry(), "USD")
	require.True(t, ok)

	rate, err := QuoteToAccountRate(spec, DefaultExchangeRates())
	assert.NoError(t, err)
	assert.Equal(t, 1.0, rate)
}

func TestQuoteToAccountRate_UnknownCurrency(t *testing.T) {
	t.Parallel()

	rates, err := NewExchangeRates("USD", map[string]float64{"USD": 1})
	require.NoError(t, err)

	spec := InstrumentSpec{Symbol: "USD/JPY", PipSize: 0.01, ContractSize: 100000, QuoteCurrency: "JPY"}
	rate, err := QuoteToAccountRate(spec, rates)
	assert.ErrorIs(t, err, ErrUnknownCurrency)
	assert.Equal(t, 0.0, rate)

	_, err = PipValuePerLot(spec, rates)
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestPipValuePerLot(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	rates := DefaultExchangeRates()

	tests := []struct {
		symbol string
		want   float64
	}{
		{"EUR/USD", 10},
		{"GBP/USD", 10},
		{"USD/JPY", 100000 * 0.01 / 150},
		{"EUR/GBP", 12.5},
		{"USD/CAD", 10 / 1.35},
		{"USD/CHF", 10 / 0.88},
		{"XAU/USD", 1},
		{"XAG/USD", 50},
		{"US30", 1},
		{"SPX500", 0.1},
		{"GER40", 1.08},
		{"BTC/USD", 1},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			t.Parallel()
			spec, err := reg.Lookup(tt.symbol)
			require.NoError(t, err)
			got, err := PipValuePerLot(spec, rates)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNewExchangeRates(t *testing.T) {
	t.Parallel()

	_, err := NewExchangeRates("", nil)
	assert.Error(t, err)

	_, err = NewExchangeRates("USD", map[string]float64{"JPY": 0})
	assert.Error(t, err)

	_, err = NewExchangeRates("USD", map[string]float64{"USD": 2})
	assert.Error(t, err)

	x, err := NewExchangeRates("usd", map[string]float64{"eur": 1.1})
	require.NoError(t, err)
	r, err := x.Rate("EUR")
	require.NoError(t, err)
	assert.Equal(t, 1.1, r)

	r, err = x.Rate("usd")
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
}
