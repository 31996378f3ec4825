// Package journaltest holds the behaviour every journal.Store must share.
package journaltest

import (
	"context"
	"testing"
	"time"

	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/num"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ClosedTrade returns a closed EUR/USD winner with derived fields filled in.
func ClosedTrade(userID, accountID string, date time.Time) journal.TradeRecord {
	return journal.TradeRecord{
		UserID:    userID,
		AccountID: accountID,
		Date:      date,
		Duration:  journal.Day,
		EntryDate: date,
		ExitDate:  date,
		Input: risk.TradeInput{
			Symbol:     "EUR/USD",
			Direction:  risk.Long,
			Status:     risk.Closed,
			EntryPrice: num.Some(1.1),
			ExitPrice:  num.Some(1.1015),
			StopLoss:   num.Some(1.098),
			Risk:       risk.Spec{Mode: risk.Lot, Value: 1},
			Capital:    10000,
		},
		Derived: risk.Result{
			Symbol:         "EUR/USD",
			PipValuePerLot: num.Some(10),
			StopLossPips:   num.Some(20),
			LotSize:        num.Some(1),
			RiskMoney:      num.Some(200),
			ProjectedAtSL:  num.Some(200),
			RealizedPips:   num.Some(15),
			RealizedPnL:    num.Some(150),
		},
		Outcome: risk.Win,
		Setup:   "breakout",
		Notes:   "clean retest",
	}
}

// OpenTrade returns an open GBP/USD trade with no stop, so sizing is None.
func OpenTrade(userID, accountID string, date time.Time) journal.TradeRecord {
	return journal.TradeRecord{
		UserID:    userID,
		AccountID: accountID,
		Date:      date,
		Duration:  journal.Swing,
		EntryDate: date,
		Input: risk.TradeInput{
			Symbol:     "GBP/USD",
			Direction:  risk.Short,
			Status:     risk.Open,
			EntryPrice: num.Some(1.25),
			Risk:       risk.Spec{Mode: risk.Percentage, Value: 1},
			Capital:    10000,
		},
		Derived: risk.Result{Symbol: "GBP/USD", PipValuePerLot: num.Some(10)},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RunStoreContract exercises open against the Store contract. open must
// return an empty store.
func RunStoreContract(t *testing.T, open func(t *testing.T) journal.Store) {
	t.Run("InsertGetRoundTrip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		in := ClosedTrade("u1", "a1", day(2024, 3, 4))
		got, err := s.Insert(ctx, &in)
		require.NoError(t, err)
		require.NotEmpty(t, got.ID)
		assert.Empty(t, in.ID, "caller's record is not mutated")
		assert.False(t, got.CreatedAt.IsZero())
		assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))

		back, err := s.Get(ctx, got.ID)
		require.NoError(t, err)
		assert.Equal(t, got.ID, back.ID)
		assert.Equal(t, "u1", back.UserID)
		assert.Equal(t, "a1", back.AccountID)
		assert.True(t, back.Date.Equal(day(2024, 3, 4)))
		assert.Equal(t, journal.Day, back.Duration)
		assert.Equal(t, in.Input, back.Input)
		assert.Equal(t, num.Some(150), back.Derived.RealizedPnL)
		assert.Equal(t, num.Some(15), back.Derived.RealizedPips)
		assert.False(t, back.Derived.TakeProfitPips.Valid())
		assert.Equal(t, risk.Win, back.Outcome)
		assert.Equal(t, "breakout", back.Setup)
		assert.Equal(t, "clean retest", back.Notes)

		pnl, ok := back.PnL()
		assert.True(t, ok)
		assert.Equal(t, 150.0, pnl)
	})

	t.Run("OpenTradeKeepsNulls", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		in := OpenTrade("u1", "a1", day(2024, 3, 5))
		got, err := s.Insert(ctx, &in)
		require.NoError(t, err)

		back, err := s.Get(ctx, got.ID)
		require.NoError(t, err)
		assert.False(t, back.Input.ExitPrice.Valid())
		assert.False(t, back.Input.StopLoss.Valid())
		assert.False(t, back.Derived.LotSize.Valid())
		assert.True(t, back.ExitDate.IsZero())
		assert.Equal(t, risk.Outcome(""), back.Outcome)
		_, ok := back.PnL()
		assert.False(t, ok)
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := open(t)
		_, err := s.Get(context.Background(), "nope")
		require.Error(t, err)
		assert.ErrorIs(t, err, journal.ErrNotFound)
		var se *journal.StorageError
		assert.ErrorAs(t, err, &se)
	})

	t.Run("ListScopedAndOrdered", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		empty, err := s.List(ctx, "u1", "a1")
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		for _, r := range []journal.TradeRecord{
			ClosedTrade("u1", "a1", day(2024, 3, 12)),
			ClosedTrade("u1", "a1", day(2024, 3, 4)),
			ClosedTrade("u1", "a2", day(2024, 3, 5)),
			ClosedTrade("u2", "a1", day(2024, 3, 6)),
		} {
			r := r
			_, err := s.Insert(ctx, &r)
			require.NoError(t, err)
		}

		got, err := s.List(ctx, "u1", "a1")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Date.Equal(day(2024, 3, 4)))
		assert.True(t, got[1].Date.Equal(day(2024, 3, 12)))
	})

	t.Run("UpdateTradeKeepsIdentity", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		in := OpenTrade("u1", "a1", day(2024, 3, 5))
		created, err := s.Insert(ctx, &in)
		require.NoError(t, err)

		edit := ClosedTrade("someone-else", "other", day(2024, 3, 6))
		edit.BeforeScreenshot = "before.png"
		updated, err := s.Update(ctx, created.ID, journal.Patch{Trade: &edit})
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "u1", updated.UserID)
		assert.Equal(t, "a1", updated.AccountID)
		assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

		back, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, risk.Closed, back.Input.Status)
		assert.Equal(t, num.Some(150), back.Derived.RealizedPnL)
		assert.True(t, back.Date.Equal(day(2024, 3, 6)))
		assert.Equal(t, "before.png", back.BeforeScreenshot)
	})

	t.Run("UpdateScreenshotsOnly", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		in := ClosedTrade("u1", "a1", day(2024, 3, 4))
		created, err := s.Insert(ctx, &in)
		require.NoError(t, err)

		after := "https://cdn/u1/x/after.png"
		_, err = s.Update(ctx, created.ID, journal.Patch{AfterScreenshot: &after})
		require.NoError(t, err)

		back, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, after, back.AfterScreenshot)
		assert.Empty(t, back.BeforeScreenshot)
		assert.Equal(t, in.Input, back.Input)
	})

	t.Run("IssuesRoundTrip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		issues := []risk.Issue{
			{Code: risk.CodeInputIncomplete, Field: risk.FieldStopLossPips, Msg: "stop loss is missing"},
			{Code: risk.CodeInputIncomplete, Field: risk.FieldLotSize, Msg: "lot size needs a stop loss"},
		}
		in := OpenTrade("u1", "a1", day(2024, 3, 5))
		in.Derived.Issues = issues
		created, err := s.Insert(ctx, &in)
		require.NoError(t, err)

		back, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, issues, back.Derived.Issues)

		after := "after.png"
		_, err = s.Update(ctx, created.ID, journal.Patch{AfterScreenshot: &after})
		require.NoError(t, err)
		back, err = s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, issues, back.Derived.Issues, "a screenshot patch keeps the issues")

		edit := ClosedTrade("u1", "a1", day(2024, 3, 6))
		_, err = s.Update(ctx, created.ID, journal.Patch{Trade: &edit})
		require.NoError(t, err)
		back, err = s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, back.Derived.Issues)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := open(t)
		url := "x"
		_, err := s.Update(context.Background(), "nope", journal.Patch{AfterScreenshot: &url})
		assert.ErrorIs(t, err, journal.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		in := ClosedTrade("u1", "a1", day(2024, 3, 4))
		created, err := s.Insert(ctx, &in)
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, created.ID))
		_, err = s.Get(ctx, created.ID)
		assert.ErrorIs(t, err, journal.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, created.ID), journal.ErrNotFound)
	})
}
