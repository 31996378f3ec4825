package market

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrUnknownCurrency = errors.New("unknown currency")

// ExchangeRates is an immutable snapshot of currency -> base currency rates.
type ExchangeRates struct {
	base  string
	rates map[string]float64
}

// DefaultRates is the built-in USD snapshot.
var DefaultRates = map[string]float64{
	"USD": 1.0,
	"JPY": 1.0 / 150,
	"CAD": 1.0 / 1.35,
	"EUR": 1.08,
	"GBP": 1.25,
	"CHF": 1.0 / 0.88,
}

func NewExchangeRates(base string, rates map[string]float64) (*ExchangeRates, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, errors.New("base currency is required")
	}
	x := &ExchangeRates{base: base, rates: make(map[string]float64, len(rates)+1)}
	for ccy, r := range rates {
		ccy = strings.ToUpper(strings.TrimSpace(ccy))
		if r <= 0 || math.IsNaN(r) || math.IsInf(r, 0) {
			return nil, fmt.Errorf("rate for %s must be a positive number", ccy)
		}
		x.rates[ccy] = r
	}
	if r, ok := x.rates[base]; ok && r != 1 {
		return nil, fmt.Errorf("rate for base currency %s must be 1", base)
	}
	x.rates[base] = 1
	return x, nil
}

func DefaultExchangeRates() *ExchangeRates {
	x, err := NewExchangeRates("USD", DefaultRates)
	if err != nil {
		panic(err)
	}
	return x
}

// Rate returns the base-currency value of one unit of ccy. A currency that is
// not in the snapshot is an error, never an implicit 1.0.
func (x *ExchangeRates) Rate(ccy string) (float64, error) {
	r, ok := x.rates[strings.ToUpper(ccy)]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrUnknownCurrency, ccy)
	}
	return r, nil
}

// QuoteToAccountRate converts one unit of the instrument's quote currency into
// the snapshot's base currency.
func QuoteToAccountRate(spec InstrumentSpec, rates *ExchangeRates) (float64, error) {
	if spec.QuoteCurrency == rates.base {
		return 1.0, nil
	}
	r, err := rates.Rate(spec.QuoteCurrency)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", spec.Symbol, err)
	}
	return r, nil
}

// PipValuePerLot is the base-currency value of a one pip move on one standard
// lot. This is the only place quote currency is converted.
func PipValuePerLot(spec InstrumentSpec, rates *ExchangeRates) (float64, error) {
	r, err := QuoteToAccountRate(spec, rates)
	if err != nil {
		return 0, err
	}
	return spec.ContractSize * spec.PipSize * r, nil
}
