// Package tradebook ties the calculator, the journal store, screenshot
// storage and the aggregation engine together for one service.
package tradebook

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/logger"
	"github.com/rustyeddy/tradelog/market"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/rustyeddy/tradelog/screenshot"
	"github.com/rustyeddy/tradelog/stats"
)

var (
	// ErrNotComputable wraps the reason a trade cannot be sized or valued.
	ErrNotComputable  = errors.New("trade is not computable")
	ErrUnknownAccount = errors.New("unknown account")
	// ErrNotFound is journal.ErrNotFound so callers can match either.
	ErrNotFound = journal.ErrNotFound
)

// Account is a trading account trades are journaled against.
type Account struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Currency string  `json:"currency"`
	Capital  float64 `json:"capital"`
}

type Options struct {
	Calculator *risk.Calculator
	Store      journal.Store
	Uploader   screenshot.Uploader // nil disables screenshots
	Accounts   []Account

	// ReferenceCapital, when positive, replaces account capital as the ROI
	// baseline of every aggregate.
	ReferenceCapital float64
	// RequireAfterScreenshot rejects closed trades without an after image.
	RequireAfterScreenshot bool

	Log zerolog.Logger
}

// Service is safe for concurrent use.
type Service struct {
	calc     *risk.Calculator
	store    journal.Store
	uploader screenshot.Uploader
	accounts map[string]Account
	order    []string

	refCapital   float64
	requireAfter bool

	cache *stats.Cache
	log   zerolog.Logger
	now   func() time.Time
}

func New(opts Options) (*Service, error) {
	if opts.Calculator == nil {
		return nil, errors.New("tradebook: calculator is required")
	}
	if opts.Store == nil {
		return nil, errors.New("tradebook: store is required")
	}
	s := &Service{
		calc:         opts.Calculator,
		store:        opts.Store,
		uploader:     opts.Uploader,
		accounts:     make(map[string]Account, len(opts.Accounts)),
		refCapital:   opts.ReferenceCapital,
		requireAfter: opts.RequireAfterScreenshot,
		cache:        stats.NewCache(),
		log:          logger.Component(opts.Log, "tradebook"),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, a := range opts.Accounts {
		if a.ID == "" {
			return nil, errors.New("tradebook: account id is required")
		}
		if _, dup := s.accounts[a.ID]; dup {
			return nil, fmt.Errorf("tradebook: duplicate account %q", a.ID)
		}
		s.accounts[a.ID] = a
		s.order = append(s.order, a.ID)
	}
	return s, nil
}

// Accounts lists the configured accounts in configuration order.
func (s *Service) Accounts() []Account {
	out := make([]Account, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.accounts[id])
	}
	return out
}

func (s *Service) Account(id string) (Account, error) {
	a, ok := s.accounts[id]
	if !ok {
		return Account{}, fmt.Errorf("%w %q", ErrUnknownAccount, id)
	}
	return a, nil
}

// Instruments lists the symbols the calculator can value.
func (s *Service) Instruments() []market.InstrumentSpec {
	return s.calc.Instruments().Specs()
}

// Baseline is the ROI denominator for an account.
func (s *Service) Baseline(a Account) float64 {
	if s.refCapital > 0 {
		return s.refCapital
	}
	return a.Capital
}

// Preview validates and calculates a trade without persisting anything. An
// empty accountID skips the capital default.
func (s *Service) Preview(accountID string, in risk.TradeInput) (risk.Result, error) {
	if accountID != "" {
		a, err := s.Account(accountID)
		if err != nil {
			return risk.Result{}, err
		}
		in = withCapital(in, a)
	}
	if err := risk.Validate(in); err != nil {
		return risk.Result{}, err
	}
	return s.calc.Calculate(in), nil
}

// withCapital fills a zero capital snapshot from the account.
func withCapital(in risk.TradeInput, a Account) risk.TradeInput {
	if in.Capital == 0 {
		in.Capital = a.Capital
	}
	return in
}

// computable rejects results the calculator could not value at all.
func computable(r risk.Result) error {
	switch {
	case r.HasCode(risk.CodeUnknownInstrument):
		return fmt.Errorf("%w: %w", ErrNotComputable, market.ErrUnknownInstrument)
	case r.HasCode(risk.CodeUnknownCurrency):
		return fmt.Errorf("%w: %w", ErrNotComputable, market.ErrUnknownCurrency)
	}
	return nil
}

func cacheKey(userID, accountID string) string { return userID + "/" + accountID }
