package risk

import (
	"math"

	"github.com/rustyeddy/tradelog/market"
	"github.com/rustyeddy/tradelog/num"
)

// pipEpsilon absorbs float noise so a flat exit reads exactly 0 pips.
const pipEpsilon = 1e-6

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// PipDistance is the unsigned distance between two prices in pips.
func PipDistance(entry, other num.Opt, spec market.InstrumentSpec) num.Opt {
	e, ok1 := entry.Get()
	o, ok2 := other.Get()
	if !ok1 || !ok2 || spec.PipSize <= 0 {
		return num.None()
	}
	return num.Some(abs(e-o) / spec.PipSize)
}

// RealizedPips is the signed pip result of a trade: positive means profit in
// the trade's direction.
func RealizedPips(entry, exit num.Opt, dir Direction, spec market.InstrumentSpec) num.Opt {
	e, ok1 := entry.Get()
	x, ok2 := exit.Get()
	if !ok1 || !ok2 || spec.PipSize <= 0 {
		return num.None()
	}
	var pips float64
	switch dir {
	case Long:
		pips = (x - e) / spec.PipSize
	case Short:
		pips = (e - x) / spec.PipSize
	default:
		return num.None()
	}
	if math.Abs(pips) < pipEpsilon {
		pips = 0
	}
	return num.Some(pips)
}

// ResolveLotSizeAndRisk turns a risk specification into a lot size and the
// money at risk if the stop is hit. Both are None when the stop distance or
// pip value is missing or not positive.
//
// Money mode with a non-positive amount sizes the trade at zero lots rather
// than failing.
func ResolveLotSizeAndRisk(s Spec, slPips, pipValue num.Opt, capital float64) (lot, riskMoney num.Opt) {
	sl, ok1 := slPips.Get()
	pv, ok2 := pipValue.Get()
	if !ok1 || !ok2 || sl <= 0 || pv <= 0 {
		return num.None(), num.None()
	}
	perLot := pv * sl

	switch s.Mode {
	case Percentage:
		if capital <= 0 || s.Value < 0 {
			return num.None(), num.None()
		}
		rm := capital * s.Value / 100
		return num.Some(rm / perLot), num.Some(rm)
	case Money:
		if s.Value <= 0 {
			return num.Some(0), num.Some(0)
		}
		return num.Some(s.Value / perLot), num.Some(s.Value)
	case Lot:
		if s.Value < 0 {
			return num.None(), num.None()
		}
		return num.Some(s.Value), num.Some(s.Value * perLot)
	}
	return num.None(), num.None()
}

// ProjectedOutcome is the money value of a pip move at the given size.
func ProjectedOutcome(pips, pipValue, lot num.Opt) num.Opt {
	p, ok1 := pips.Get()
	pv, ok2 := pipValue.Get()
	l, ok3 := lot.Get()
	if !ok1 || !ok2 || !ok3 {
		return num.None()
	}
	return num.Some(p * pv * l)
}

// RewardRisk is take-profit distance over stop distance.
func RewardRisk(tpPips, slPips num.Opt) num.Opt {
	if !tpPips.Positive() || !slPips.Positive() {
		return num.None()
	}
	tp, _ := tpPips.Get()
	sl, _ := slPips.Get()
	return num.Some(tp / sl)
}
