package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/tradelog/risk"
)

// Get returns a single trade record by ID.
func (s *SQLite) Get(ctx context.Context, tradeID string) (*TradeRecord, error) {
	rec, err := scanTrade(s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM trades WHERE id = ?`, tradeID))
	if err != nil {
		return nil, Fail("get", tradeID, notFound(err))
	}
	return rec, nil
}

// List returns one account's trades ordered by trade date.
func (s *SQLite) List(ctx context.Context, userID, accountID string) ([]TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+columns+`
		FROM trades
		WHERE user_id = ? AND account_id = ?
		ORDER BY trade_date ASC, id ASC`, userID, accountID)
	if err != nil {
		return nil, Fail("list", "", err)
	}
	defer rows.Close()

	out := []TradeRecord{}
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, Fail("list", "", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, Fail("list", "", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(sc rowScanner) (*TradeRecord, error) {
	var (
		rec                              TradeRecord
		date, duration                   string
		entryDate, exitDate              sql.NullString
		direction, status, mode, outcome string
		issues                           string
	)
	in, d := &rec.Input, &rec.Derived

	err := sc.Scan(
		&rec.ID, &rec.UserID, &rec.AccountID, &date, &duration, &entryDate, &exitDate,
		&in.Symbol, &direction, &status, &in.EntryPrice, &in.ExitPrice, &in.StopLoss, &in.TakeProfit,
		&mode, &in.Risk.Value, &in.Capital,
		&d.PipValuePerLot, &d.StopLossPips, &d.TakeProfitPips, &d.LotSize, &d.RiskMoney,
		&d.ProjectedAtTP, &d.ProjectedAtSL, &d.RewardRisk, &d.RealizedPips, &d.RealizedPnL, &outcome, &issues,
		&rec.Setup, &rec.Notes, &rec.BeforeScreenshot, &rec.AfterScreenshot,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rec.Date, err = time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("trade %s: date: %w", rec.ID, err)
	}
	if rec.EntryDate, err = parseNullDate(entryDate); err != nil {
		return nil, fmt.Errorf("trade %s: entry date: %w", rec.ID, err)
	}
	if rec.ExitDate, err = parseNullDate(exitDate); err != nil {
		return nil, fmt.Errorf("trade %s: exit date: %w", rec.ID, err)
	}
	if d.Issues, err = DecodeIssues(issues); err != nil {
		return nil, fmt.Errorf("trade %s: %w", rec.ID, err)
	}
	rec.Duration = Duration(duration)
	in.Direction = risk.Direction(direction)
	in.Status = risk.Status(status)
	in.Risk.Mode = risk.Mode(mode)
	rec.Outcome = risk.Outcome(outcome)
	d.Symbol = in.Symbol
	return &rec, nil
}

func parseNullDate(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, ns.String)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
