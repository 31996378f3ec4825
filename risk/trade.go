package risk

import "github.com/rustyeddy/tradelog/num"

type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

type Status string

const (
	Open   Status = "open"
	Closed Status = "closed"
)

// Mode selects how a trade's size is specified.
type Mode string

const (
	Percentage Mode = "percentage" // percent of capital at risk
	Money      Mode = "money"      // fixed amount at risk
	Lot        Mode = "lot"        // explicit lot size
)

// Spec is the risk specification of one trade. Exactly one mode applies.
type Spec struct {
	Mode  Mode    `json:"mode" yaml:"mode"`
	Value float64 `json:"value" yaml:"value"`
}

// TradeInput is what the user enters for a trade. Unset prices are None, not
// zero.
type TradeInput struct {
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Status     Status    `json:"status"`
	EntryPrice num.Opt   `json:"entry_price"`
	ExitPrice  num.Opt   `json:"exit_price"`
	StopLoss   num.Opt   `json:"stop_loss"`
	TakeProfit num.Opt   `json:"take_profit"`
	Risk       Spec      `json:"risk"`

	// Capital is the account capital snapshot used for percentage sizing.
	Capital float64 `json:"capital"`
}

type Outcome string

const (
	Win       Outcome = "win"
	Loss      Outcome = "loss"
	Breakeven Outcome = "breakeven"
)

// OutcomeFor classifies a realized P&L.
func OutcomeFor(pnl float64) Outcome {
	switch {
	case pnl > 0:
		return Win
	case pnl < 0:
		return Loss
	default:
		return Breakeven
	}
}
