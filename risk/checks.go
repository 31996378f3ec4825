package risk

import (
	"errors"
	"strings"
)

// ErrInvalidInput is matched by every *ValidationError.
var ErrInvalidInput = errors.New("invalid trade input")

type Violation struct {
	Field string `json:"field"`
	Code  string `json:"code"`
	Msg   string `json:"message"`
}

// ValidationError lists every input rule a trade breaks.
type ValidationError struct {
	Violations []Violation
}

// Add appends a violation.
func (e *ValidationError) Add(field, code, msg string) {
	e.Violations = append(e.Violations, Violation{Field: field, Code: code, Msg: msg})
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Msg)
	}
	return "invalid trade: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// Fields maps each violated field to its first message.
func (e *ValidationError) Fields() map[string]string {
	out := make(map[string]string, len(e.Violations))
	for _, v := range e.Violations {
		if _, ok := out[v.Field]; !ok {
			out[v.Field] = v.Msg
		}
	}
	return out
}

// Err returns e, or nil when nothing was violated.
func (e *ValidationError) Err() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

const (
	CodeRequired = "REQUIRED"
	CodeInvalid  = "INVALID"
)

// Validate checks the user-entered fields of a trade. It returns a
// *ValidationError, or nil when the trade is acceptable.
func Validate(in TradeInput) error {
	v := &ValidationError{}

	if strings.TrimSpace(in.Symbol) == "" {
		v.Add("symbol", CodeRequired, "symbol is required")
	}

	switch in.Direction {
	case Long, Short:
	case "":
		v.Add("direction", CodeRequired, "direction is required")
	default:
		v.Add("direction", CodeInvalid, "direction must be long or short")
	}

	switch in.Status {
	case Open, Closed:
	case "":
		v.Add("status", CodeRequired, "status is required")
	default:
		v.Add("status", CodeInvalid, "status must be open or closed")
	}

	if e, ok := in.EntryPrice.Get(); !ok {
		v.Add("entry_price", CodeRequired, "entry price is required")
	} else if e <= 0 {
		v.Add("entry_price", CodeInvalid, "entry price must be positive")
	}

	if x, ok := in.ExitPrice.Get(); !ok {
		if in.Status == Closed {
			v.Add("exit_price", CodeRequired, "exit price is required when status is closed")
		}
	} else if x <= 0 {
		v.Add("exit_price", CodeInvalid, "exit price must be positive")
	}

	if sl, ok := in.StopLoss.Get(); ok && sl <= 0 {
		v.Add("stop_loss", CodeInvalid, "stop loss must be positive")
	}
	if tp, ok := in.TakeProfit.Get(); ok && tp <= 0 {
		v.Add("take_profit", CodeInvalid, "take profit must be positive")
	}

	switch in.Risk.Mode {
	case Percentage:
		if in.Risk.Value < 0 || in.Risk.Value > 100 {
			v.Add("risk.value", CodeInvalid, "percentage risk must be between 0 and 100")
		}
	case Lot:
		if in.Risk.Value < 0 {
			v.Add("risk.value", CodeInvalid, "lot size must not be negative")
		}
	case Money:
		// Non-positive amounts are sized at zero lots.
	case "":
		v.Add("risk.mode", CodeRequired, "risk mode is required")
	default:
		v.Add("risk.mode", CodeInvalid, "risk mode must be percentage, money or lot")
	}

	if in.Capital < 0 {
		v.Add("capital", CodeInvalid, "capital must not be negative")
	}

	return v.Err()
}
