package journal

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/tradelog/pkg/id"
)

// SQLite is a Store over a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (creating if needed) the database at path and applies the
// schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, Fail("open", "", err)
	}
	// One connection: SQLite serializes writers and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	s := NewSQLiteDB(db)
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteDB wraps an open database without touching its schema.
func NewSQLiteDB(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return Fail("migrate", "", err)
	}
	return nil
}

func (s *SQLite) Insert(ctx context.Context, r *TradeRecord) (*TradeRecord, error) {
	rec := *r
	if rec.ID == "" {
		rec.ID = id.New()
	}
	now := s.now()
	rec.CreatedAt, rec.UpdatedAt = now, now

	args, err := values(&rec)
	if err != nil {
		return nil, Fail("insert", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO trades (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		args...,
	)
	if err != nil {
		return nil, Fail("insert", rec.ID, err)
	}
	return &rec, nil
}

func (s *SQLite) Update(ctx context.Context, tradeID string, p Patch) (*TradeRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, Fail("update", tradeID, err)
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := scanTrade(tx.QueryRowContext(ctx, `SELECT `+columns+` FROM trades WHERE id = ?`, tradeID))
	if err != nil {
		return nil, Fail("update", tradeID, notFound(err))
	}
	p.Apply(rec, s.now())

	// values without id and created_at, then the WHERE id.
	args, err := values(rec)
	if err != nil {
		return nil, Fail("update", tradeID, err)
	}
	created := len(args) - 2
	args = append(args[1:created:created], rec.UpdatedAt, rec.ID)

	_, err = tx.ExecContext(ctx, `
		UPDATE trades SET
			user_id = ?, account_id = ?, trade_date = ?, duration = ?, entry_date = ?, exit_date = ?,
			symbol = ?, direction = ?, status = ?, entry_price = ?, exit_price = ?, stop_loss = ?, take_profit = ?,
			risk_mode = ?, risk_value = ?, capital = ?,
			pip_value_per_lot = ?, stop_loss_pips = ?, take_profit_pips = ?, lot_size = ?, risk_money = ?,
			projected_at_tp = ?, projected_at_sl = ?, reward_risk = ?, realized_pips = ?, realized_pnl = ?, outcome = ?, issues = ?,
			setup = ?, notes = ?, before_screenshot = ?, after_screenshot = ?,
			updated_at = ?
		WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, Fail("update", tradeID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, Fail("update", tradeID, err)
	}
	return rec, nil
}

func (s *SQLite) Delete(ctx context.Context, tradeID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ?`, tradeID)
	if err != nil {
		return Fail("delete", tradeID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Fail("delete", tradeID, err)
	}
	if n == 0 {
		return Fail("delete", tradeID, ErrNotFound)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func values(r *TradeRecord) ([]any, error) {
	in, d := r.Input, r.Derived
	issues, err := EncodeIssues(d.Issues)
	if err != nil {
		return nil, err
	}
	return []any{
		r.ID, r.UserID, r.AccountID, r.Date.Format(DateLayout), string(r.Duration),
		nullDate(r.EntryDate), nullDate(r.ExitDate),
		in.Symbol, string(in.Direction), string(in.Status),
		in.EntryPrice, in.ExitPrice, in.StopLoss, in.TakeProfit,
		string(in.Risk.Mode), in.Risk.Value, in.Capital,
		d.PipValuePerLot, d.StopLossPips, d.TakeProfitPips, d.LotSize, d.RiskMoney,
		d.ProjectedAtTP, d.ProjectedAtSL, d.RewardRisk, d.RealizedPips, d.RealizedPnL, string(r.Outcome), issues,
		r.Setup, r.Notes, r.BeforeScreenshot, r.AfterScreenshot,
		r.CreatedAt, r.UpdatedAt,
	}, nil
}

func nullDate(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(DateLayout), Valid: true}
}
