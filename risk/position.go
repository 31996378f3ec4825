package risk

// EUR/USD → quote = USD → pip value per lot = 100000 × 0.0001 × 1.0 = $10
// USD/JPY → quote = JPY → pip value per lot = 100000 × 0.01 × (1/150) ≈ $6.67

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/tradelog/market"
	"github.com/rustyeddy/tradelog/num"
)

const (
	CodeInputIncomplete   = "INPUT_INCOMPLETE"
	CodeUnknownInstrument = "UNKNOWN_INSTRUMENT"
	CodeUnknownCurrency   = "UNKNOWN_CURRENCY"
)

// Field names used in issues and violations.
const (
	FieldSymbol         = "symbol"
	FieldPipValue       = "pip_value_per_lot"
	FieldStopLossPips   = "stop_loss_pips"
	FieldTakeProfitPips = "take_profit_pips"
	FieldLotSize        = "lot_size"
	FieldRiskMoney      = "risk_money"
	FieldProjectedAtTP  = "projected_at_tp"
	FieldProjectedAtSL  = "projected_at_sl"
	FieldRewardRisk     = "reward_risk"
	FieldRealizedPips   = "realized_pips"
	FieldRealizedPnL    = "realized_pnl"
)

// Issue explains why a derived field is None.
type Issue struct {
	Code  string `json:"code"`
	Field string `json:"field"`
	Msg   string `json:"message"`
}

// Result holds every derived field of one calculation. ProjectedAtSL is the
// magnitude of the loss if the stop is hit.
type Result struct {
	Symbol         string  `json:"symbol,omitempty"`
	PipValuePerLot num.Opt `json:"pip_value_per_lot"`
	StopLossPips   num.Opt `json:"stop_loss_pips"`
	TakeProfitPips num.Opt `json:"take_profit_pips"`
	LotSize        num.Opt `json:"lot_size"`
	RiskMoney      num.Opt `json:"risk_money"`
	ProjectedAtTP  num.Opt `json:"projected_at_tp"`
	ProjectedAtSL  num.Opt `json:"projected_at_sl"`
	RewardRisk     num.Opt `json:"reward_risk"`
	RealizedPips   num.Opt `json:"realized_pips"`
	RealizedPnL    num.Opt `json:"realized_pnl"`

	Issues []Issue `json:"issues,omitempty"`
}

func (r *Result) add(code, field, msg string) {
	r.Issues = append(r.Issues, Issue{Code: code, Field: field, Msg: msg})
}

// IssueFor returns the first issue recorded against field.
func (r Result) IssueFor(field string) (Issue, bool) {
	for _, is := range r.Issues {
		if is.Field == field {
			return is, true
		}
	}
	return Issue{}, false
}

// HasCode reports whether any issue carries code.
func (r Result) HasCode(code string) bool {
	for _, is := range r.Issues {
		if is.Code == code {
			return true
		}
	}
	return false
}

// Calculator runs the ordered derivation pipeline over injected instrument and
// exchange-rate tables. It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	instruments *market.Registry
	rates       *market.ExchangeRates
}

func NewCalculator(instruments *market.Registry, rates *market.ExchangeRates) *Calculator {
	return &Calculator{instruments: instruments, rates: rates}
}

func (c *Calculator) Instruments() *market.Registry { return c.instruments }

// Rounding applied as each stage produces its output.
const (
	pipPlaces   = 2
	lotPlaces   = 2
	moneyPlaces = 2
	ratioPlaces = 2
)

type distances struct {
	sl, tp num.Opt
}

type sizing struct {
	lot, riskMoney num.Opt
}

// Calculate derives every field it can. It never fails: anything that cannot
// be computed is None with a matching issue.
//
// Stages: instrument → pip value → distances → lot/risk → realized pips →
// P&L, projections and reward:risk.
func (c *Calculator) Calculate(in TradeInput) Result {
	var r Result

	spec, err := c.instruments.Lookup(in.Symbol)
	if err != nil {
		r.add(CodeUnknownInstrument, FieldSymbol, err.Error())
		return r
	}
	r.Symbol = spec.Symbol

	pv := c.pipValue(spec, &r)

	d := distancesFor(in, spec)
	r.StopLossPips = d.sl
	r.TakeProfitPips = d.tp

	sz := sizeFor(in, d, pv)
	r.LotSize = sz.lot
	r.RiskMoney = sz.riskMoney

	if in.Status == Closed {
		r.RealizedPips = RealizedPips(in.EntryPrice, in.ExitPrice, in.Direction, spec).Round(pipPlaces)
		r.RealizedPnL = ProjectedOutcome(r.RealizedPips, pv, sz.lot).Round(moneyPlaces)
	}
	r.ProjectedAtTP = ProjectedOutcome(d.tp, pv, sz.lot).Round(moneyPlaces)
	r.ProjectedAtSL = ProjectedOutcome(d.sl, pv, sz.lot).Round(moneyPlaces)
	r.RewardRisk = RewardRisk(d.tp, d.sl).Round(ratioPlaces)

	r.explain(in)
	return r
}

func (c *Calculator) pipValue(spec market.InstrumentSpec, r *Result) num.Opt {
	pv, err := market.PipValuePerLot(spec, c.rates)
	if err != nil {
		code := CodeInputIncomplete
		if errors.Is(err, market.ErrUnknownCurrency) {
			code = CodeUnknownCurrency
		}
		r.add(code, FieldPipValue, err.Error())
		return num.None()
	}
	// Not rounded: USD/JPY would drift from 6.6667 to 6.67.
	r.PipValuePerLot = num.Some(pv)
	return r.PipValuePerLot
}

func distancesFor(in TradeInput, spec market.InstrumentSpec) distances {
	return distances{
		sl: PipDistance(in.EntryPrice, in.StopLoss, spec).Round(pipPlaces),
		tp: PipDistance(in.EntryPrice, in.TakeProfit, spec).Round(pipPlaces),
	}
}

func sizeFor(in TradeInput, d distances, pv num.Opt) sizing {
	lot, rm := ResolveLotSizeAndRisk(in.Risk, d.sl, pv, in.Capital)
	return sizing{lot: lot.Round(lotPlaces), riskMoney: rm.Round(moneyPlaces)}
}

// explain records an INPUT_INCOMPLETE issue for each derived field left None.
// Realized fields are not expected while a trade is open.
func (r *Result) explain(in TradeInput) {
	missing := func(o num.Opt, field, msg string) {
		if o.Valid() {
			return
		}
		if _, dup := r.IssueFor(field); dup {
			return
		}
		r.add(CodeInputIncomplete, field, msg)
	}

	missing(r.StopLossPips, FieldStopLossPips, "entry price and stop loss are required")
	missing(r.TakeProfitPips, FieldTakeProfitPips, "entry price and take profit are required")
	missing(r.LotSize, FieldLotSize, lotReason(in, r.StopLossPips))
	missing(r.RiskMoney, FieldRiskMoney, lotReason(in, r.StopLossPips))
	missing(r.ProjectedAtTP, FieldProjectedAtTP, "take profit distance and lot size are required")
	missing(r.ProjectedAtSL, FieldProjectedAtSL, "stop loss distance and lot size are required")
	missing(r.RewardRisk, FieldRewardRisk, "positive take profit and stop loss distances are required")
	if in.Status == Closed {
		missing(r.RealizedPips, FieldRealizedPips, "entry and exit prices are required")
		missing(r.RealizedPnL, FieldRealizedPnL, "realized pips, pip value and lot size are required")
	}
}

func lotReason(in TradeInput, sl num.Opt) string {
	switch {
	case !sl.Positive():
		return "a positive stop loss distance is required"
	case in.Risk.Mode == Percentage && in.Capital <= 0:
		return "capital is required for percentage risk"
	case in.Risk.Value < 0:
		return fmt.Sprintf("%s risk value must not be negative", in.Risk.Mode)
	case in.Risk.Mode != Percentage && in.Risk.Mode != Money && in.Risk.Mode != Lot:
		return fmt.Sprintf("unknown risk mode %q", in.Risk.Mode)
	}
	return "pip value is required"
}
