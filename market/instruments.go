// market/instruments.go
package market

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownInstrument = errors.New("unknown instrument")

type AssetClass string

const (
	Forex     AssetClass = "forex"
	Commodity AssetClass = "commodity"
	Index     AssetClass = "index"
	Crypto    AssetClass = "crypto"
)

// InstrumentSpec is the static per-symbol contract data the calculator needs.
type InstrumentSpec struct {
	Symbol        string     `json:"symbol" yaml:"symbol"`
	PipSize       float64    `json:"pip_size" yaml:"pip_size"`
	ContractSize  float64    `json:"contract_size" yaml:"contract_size"`
	QuoteCurrency string     `json:"quote_currency" yaml:"quote_currency"`
	AssetClass    AssetClass `json:"asset_class" yaml:"asset_class"`
}

// Registry is an immutable symbol table. It is built once and injected; there
// is no fallback spec for a symbol it does not hold.
type Registry struct {
	specs map[string]InstrumentSpec
}

func NewRegistry(specs ...InstrumentSpec) (*Registry, error) {
	r := &Registry{specs: make(map[string]InstrumentSpec, len(specs))}
	for _, s := range specs {
		s.Symbol = Normalize(s.Symbol)
		s.QuoteCurrency = strings.ToUpper(strings.TrimSpace(s.QuoteCurrency))
		switch {
		case s.Symbol == "":
			return nil, errors.New("instrument symbol is required")
		case s.PipSize <= 0:
			return nil, fmt.Errorf("instrument %s: pip size must be positive", s.Symbol)
		case s.ContractSize <= 0:
			return nil, fmt.Errorf("instrument %s: contract size must be positive", s.Symbol)
		case s.QuoteCurrency == "":
			return nil, fmt.Errorf("instrument %s: quote currency is required", s.Symbol)
		}
		if _, dup := r.specs[s.Symbol]; dup {
			return nil, fmt.Errorf("instrument %s: duplicate symbol", s.Symbol)
		}
		r.specs[s.Symbol] = s
	}
	return r, nil
}

// DefaultInstruments is the built-in instrument table.
var DefaultInstruments = []InstrumentSpec{
	{"EUR/USD", 0.0001, 100000, "USD", Forex},
	{"GBP/USD", 0.0001, 100000, "USD", Forex},
	{"AUD/USD", 0.0001, 100000, "USD", Forex},
	{"NZD/USD", 0.0001, 100000, "USD", Forex},
	{"EUR/GBP", 0.0001, 100000, "GBP", Forex},
	{"USD/JPY", 0.01, 100000, "JPY", Forex},
	{"EUR/JPY", 0.01, 100000, "JPY", Forex},
	{"GBP/JPY", 0.01, 100000, "JPY", Forex},
	{"AUD/JPY", 0.01, 100000, "JPY", Forex},
	{"CAD/JPY", 0.01, 100000, "JPY", Forex},
	{"CHF/JPY", 0.01, 100000, "JPY", Forex},
	{"USD/CAD", 0.0001, 100000, "CAD", Forex},
	{"USD/CHF", 0.0001, 100000, "CHF", Forex},

	{"XAU/USD", 0.01, 100, "USD", Commodity},
	{"XAG/USD", 0.01, 5000, "USD", Commodity},

	{"US30", 1.0, 1, "USD", Index},
	{"NAS100", 1.0, 1, "USD", Index},
	{"SPX500", 0.1, 1, "USD", Index},
	{"GER40", 1.0, 1, "EUR", Index},

	{"BTC/USD", 1.0, 1, "USD", Crypto},
	{"ETH/USD", 1.0, 1, "USD", Crypto},
}

// DefaultRegistry returns a registry over DefaultInstruments.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultInstruments...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Lookup(symbol string) (InstrumentSpec, error) {
	s, ok := r.specs[Normalize(symbol)]
	if !ok {
		return InstrumentSpec{}, fmt.Errorf("%w %q", ErrUnknownInstrument, symbol)
	}
	return s, nil
}

// Specs returns every spec sorted by asset class and then symbol.
func (r *Registry) Specs() []InstrumentSpec {
	out := make([]InstrumentSpec, 0, len(r.specs))
	for _, s := range r.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssetClass != out[j].AssetClass {
			return classOrder(out[i].AssetClass) < classOrder(out[j].AssetClass)
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func classOrder(c AssetClass) int {
	switch c {
	case Forex:
		return 0
	case Commodity:
		return 1
	case Index:
		return 2
	case Crypto:
		return 3
	}
	return 4
}

// Normalize maps the common spellings of a symbol onto the registry form:
// "eur_usd", "EURUSD" and "EUR/USD" all become "EUR/USD". "US30" is left alone.
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.ReplaceAll(s, "_", "/")
	s = strings.ReplaceAll(s, "-", "/")
	if len(s) == 6 && isLetters(s) {
		s = s[:3] + "/" + s[3:]
	}
	return s
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
