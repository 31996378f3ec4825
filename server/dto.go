package server

import (
	"time"

	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/num"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/rustyeddy/tradelog/tradebook"
)

// inputRequest is the wire shape of the calculator inputs.
type inputRequest struct {
	Symbol     string   `json:"symbol" validate:"required"`
	Direction  string   `json:"direction" validate:"required,oneof=long short"`
	Status     string   `json:"status" validate:"required,oneof=open closed"`
	EntryPrice *float64 `json:"entry_price" validate:"required,gt=0"`
	ExitPrice  *float64 `json:"exit_price,omitempty" validate:"omitempty,gt=0"`
	StopLoss   *float64 `json:"stop_loss,omitempty" validate:"omitempty,gt=0"`
	TakeProfit *float64 `json:"take_profit,omitempty" validate:"omitempty,gt=0"`
	RiskMode   string   `json:"risk_mode" validate:"required,oneof=percentage money lot"`
	RiskValue  float64  `json:"risk_value"`
	Capital    *float64 `json:"capital,omitempty" validate:"omitempty,gte=0"`
}

func (r inputRequest) input() risk.TradeInput {
	in := risk.TradeInput{
		Symbol:     r.Symbol,
		Direction:  risk.Direction(r.Direction),
		Status:     risk.Status(r.Status),
		EntryPrice: opt(r.EntryPrice),
		ExitPrice:  opt(r.ExitPrice),
		StopLoss:   opt(r.StopLoss),
		TakeProfit: opt(r.TakeProfit),
		Risk:       risk.Spec{Mode: risk.Mode(r.RiskMode), Value: r.RiskValue},
	}
	if r.Capital != nil {
		in.Capital = *r.Capital
	}
	return in
}

type calculateRequest struct {
	inputRequest
	AccountID string `json:"account_id,omitempty"`
}

type tradeRequest struct {
	inputRequest
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Duration  string `json:"duration,omitempty" validate:"omitempty,oneof=day swing"`
	EntryDate string `json:"entry_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ExitDate  string `json:"exit_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Setup     string `json:"setup,omitempty" validate:"max=200"`
	Notes     string `json:"notes,omitempty" validate:"max=10000"`
}

// draft converts a validated request. Dates are already known to parse.
func (r tradeRequest) draft() tradebook.Draft {
	return tradebook.Draft{
		Input:     r.input(),
		Date:      parseDate(r.Date),
		Duration:  journal.Duration(r.Duration),
		EntryDate: parseDate(r.EntryDate),
		ExitDate:  parseDate(r.ExitDate),
		Setup:     r.Setup,
		Notes:     r.Notes,
	}
}

type tradeResponse struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	Date             string          `json:"date"`
	Duration         string          `json:"duration"`
	EntryDate        string          `json:"entry_date,omitempty"`
	ExitDate         string          `json:"exit_date,omitempty"`
	Input            risk.TradeInput `json:"input"`
	Derived          risk.Result     `json:"derived"`
	Outcome          string          `json:"outcome,omitempty"`
	Setup            string          `json:"setup,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	BeforeScreenshot string          `json:"before_screenshot,omitempty"`
	AfterScreenshot  string          `json:"after_screenshot,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toResponse(r journal.TradeRecord) tradeResponse {
	return tradeResponse{
		ID:               r.ID,
		AccountID:        r.AccountID,
		Date:             r.Date.Format(journal.DateLayout),
		Duration:         string(r.Duration),
		EntryDate:        formatDate(r.EntryDate),
		ExitDate:         formatDate(r.ExitDate),
		Input:            r.Input,
		Derived:          r.Derived,
		Outcome:          string(r.Outcome),
		Setup:            r.Setup,
		Notes:            r.Notes,
		BeforeScreenshot: r.BeforeScreenshot,
		AfterScreenshot:  r.AfterScreenshot,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func toResponses(rs []journal.TradeRecord) []tradeResponse {
	out := make([]tradeResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toResponse(r))
	}
	return out
}

type savedResponse struct {
	Trade    tradeResponse `json:"trade"`
	Warnings []string      `json:"warnings,omitempty"`
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func opt(p *float64) num.Opt {
	if p == nil {
		return num.None()
	}
	return num.Some(*p)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(journal.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(journal.DateLayout)
}
