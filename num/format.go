package num

import (
	"math"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Round rounds x to places decimals, half away from zero. The decimal
// round trip keeps values such as 14.999999999 pips from landing on 14.99.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// Fixed formats x with exactly places decimals ("6.00", "0.00").
func Fixed(x float64, places int32) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return "0." + strings.Repeat("0", int(places))
	}
	return decimal.NewFromFloat(x).StringFixed(places)
}

// Percent formats x as a two-decimal percentage ("66.67%").
func Percent(x float64) string {
	return Fixed(x, 2) + "%"
}

// Money formats x as dollars with thousands separators ("-$1,234.56").
func Money(x float64) string {
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", Round(x, 2))
}

// Compact formats large amounts with a K or M suffix ("96.8K", "-1.2M").
// Amounts under a thousand keep two decimals.
func Compact(x float64) string {
	sign := ""
	a := x
	if a < 0 {
		sign = "-"
		a = -a
	}
	switch {
	case a >= 1_000_000:
		return sign + Fixed(a/1_000_000, 1) + "M"
	case a >= 1_000:
		return sign + Fixed(a/1_000, 1) + "K"
	default:
		return sign + Fixed(a, 2)
	}
}
