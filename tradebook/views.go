package tradebook

import (
	"context"
	"time"

	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/stats"
)

// Entries converts closed records with a realized P&L into aggregation
// entries. Open trades are skipped.
func Entries(records []journal.TradeRecord) []stats.Entry {
	out := make([]stats.Entry, 0, len(records))
	for _, r := range records {
		pnl, ok := r.PnL()
		if !ok {
			continue
		}
		out = append(out, stats.Entry{ID: r.ID, Date: r.Date, PnL: pnl})
	}
	return out
}

func (s *Service) entries(ctx context.Context, userID, accountID string) ([]stats.Entry, error) {
	recs, err := s.store.List(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return Entries(recs), nil
}

// view resolves the account and loads its entries.
func (s *Service) view(ctx context.Context, userID, accountID string) ([]stats.Entry, float64, error) {
	acct, err := s.Account(accountID)
	if err != nil {
		return nil, 0, err
	}
	es, err := s.entries(ctx, userID, accountID)
	if err != nil {
		return nil, 0, err
	}
	return es, s.Baseline(acct), nil
}

func (s *Service) Days(ctx context.Context, userID, accountID string) ([]stats.DayAggregate, error) {
	es, _, err := s.view(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return stats.SortedDays(stats.DayAggregates(es)), nil
}

// Month is served from the aggregate cache.
func (s *Service) Month(ctx context.Context, userID, accountID string, year int, month time.Month) (stats.MonthAggregate, error) {
	acct, err := s.Account(accountID)
	if err != nil {
		return stats.MonthAggregate{}, err
	}
	return s.cache.Month(cacheKey(userID, accountID), year, month, s.Baseline(acct), func() ([]stats.Entry, error) {
		return s.entries(ctx, userID, accountID)
	})
}

// Year is served from the aggregate cache.
func (s *Service) Year(ctx context.Context, userID, accountID string, year int) (stats.YearAggregate, error) {
	acct, err := s.Account(accountID)
	if err != nil {
		return stats.YearAggregate{}, err
	}
	return s.cache.Year(cacheKey(userID, accountID), year, s.Baseline(acct), func() ([]stats.Entry, error) {
		return s.entries(ctx, userID, accountID)
	})
}

func (s *Service) Summary(ctx context.Context, userID, accountID string) (stats.Summary, error) {
	es, capital, err := s.view(ctx, userID, accountID)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(es, capital), nil
}

func (s *Service) Equity(ctx context.Context, userID, accountID string) ([]stats.EquityPoint, error) {
	es, capital, err := s.view(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return stats.EquityCurve(es, capital), nil
}

// Months lists the months that contain at least one closed trade.
func (s *Service) Months(ctx context.Context, userID, accountID string) ([]stats.YearMonth, error) {
	es, _, err := s.view(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return stats.AvailableMonths(es), nil
}
