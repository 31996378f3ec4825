// Package postgres is a journal.Store over PostgreSQL using pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/pkg/id"
	"github.com/rustyeddy/tradelog/risk"
)

// Schema mirrors journal.Schema with native DATE and TIMESTAMPTZ columns.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	trade_date DATE NOT NULL,
	duration TEXT NOT NULL,
	entry_date DATE,
	exit_date DATE,

	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	status TEXT NOT NULL,
	entry_price DOUBLE PRECISION,
	exit_price DOUBLE PRECISION,
	stop_loss DOUBLE PRECISION,
	take_profit DOUBLE PRECISION,
	risk_mode TEXT NOT NULL,
	risk_value DOUBLE PRECISION NOT NULL,
	capital DOUBLE PRECISION NOT NULL,

	pip_value_per_lot DOUBLE PRECISION,
	stop_loss_pips DOUBLE PRECISION,
	take_profit_pips DOUBLE PRECISION,
	lot_size DOUBLE PRECISION,
	risk_money DOUBLE PRECISION,
	projected_at_tp DOUBLE PRECISION,
	projected_at_sl DOUBLE PRECISION,
	reward_risk DOUBLE PRECISION,
	realized_pips DOUBLE PRECISION,
	realized_pnl DOUBLE PRECISION,
	outcome TEXT NOT NULL DEFAULT '',
	issues TEXT NOT NULL DEFAULT '',

	setup TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	before_screenshot TEXT NOT NULL DEFAULT '',
	after_screenshot TEXT NOT NULL DEFAULT '',

	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_owner ON trades(user_id, account_id, trade_date);
`

// PostgreSQL error codes
const (
	pgErrUniqueViolation = "23505" // unique_violation
)

// Store is a journal.Store backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, journal.Fail("open", "", fmt.Errorf("parse postgres dsn: %w", err))
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, journal.Fail("open", "", fmt.Errorf("connect to postgres: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, journal.Fail("open", "", fmt.Errorf("ping postgres: %w", err))
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool without touching its schema.
func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		// Postgres keeps microseconds; truncating keeps returned records equal to stored ones.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return journal.Fail("migrate", "", err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, r *journal.TradeRecord) (*journal.TradeRecord, error) {
	rec := *r
	if rec.ID == "" {
		rec.ID = id.New()
	}
	now := s.now()
	rec.CreatedAt, rec.UpdatedAt = now, now

	args, err := values(&rec)
	if err != nil {
		return nil, journal.Fail("insert", rec.ID, err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO trades (`+journal.Columns()+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35)`,
		args...,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			err = journal.ErrDuplicate
		}
		return nil, journal.Fail("insert", rec.ID, err)
	}
	return &rec, nil
}

func (s *Store) Update(ctx context.Context, tradeID string, p journal.Patch) (*journal.TradeRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, journal.Fail("update", tradeID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec, err := scanTrade(tx.QueryRow(ctx,
		`SELECT `+journal.Columns()+` FROM trades WHERE id = $1 FOR UPDATE`, tradeID))
	if err != nil {
		return nil, journal.Fail("update", tradeID, notFound(err))
	}
	p.Apply(rec, s.now())

	// values without id and created_at, then the WHERE id.
	args, err := values(rec)
	if err != nil {
		return nil, journal.Fail("update", tradeID, err)
	}
	created := len(args) - 2
	args = append(args[1:created:created], rec.UpdatedAt, rec.ID)

	_, err = tx.Exec(ctx, `
		UPDATE trades SET
			user_id = $1, account_id = $2, trade_date = $3, duration = $4, entry_date = $5, exit_date = $6,
			symbol = $7, direction = $8, status = $9, entry_price = $10, exit_price = $11, stop_loss = $12, take_profit = $13,
			risk_mode = $14, risk_value = $15, capital = $16,
			pip_value_per_lot = $17, stop_loss_pips = $18, take_profit_pips = $19, lot_size = $20, risk_money = $21,
			projected_at_tp = $22, projected_at_sl = $23, reward_risk = $24, realized_pips = $25, realized_pnl = $26, outcome = $27, issues = $28,
			setup = $29, notes = $30, before_screenshot = $31, after_screenshot = $32,
			updated_at = $33
		WHERE id = $34`,
		args...,
	)
	if err != nil {
		return nil, journal.Fail("update", tradeID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, journal.Fail("update", tradeID, err)
	}
	return rec, nil
}

func (s *Store) Get(ctx context.Context, tradeID string) (*journal.TradeRecord, error) {
	rec, err := scanTrade(s.pool.QueryRow(ctx,
		`SELECT `+journal.Columns()+` FROM trades WHERE id = $1`, tradeID))
	if err != nil {
		return nil, journal.Fail("get", tradeID, notFound(err))
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context, userID, accountID string) ([]journal.TradeRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+journal.Columns()+`
		FROM trades
		WHERE user_id = $1 AND account_id = $2
		ORDER BY trade_date ASC, id ASC`, userID, accountID)
	if err != nil {
		return nil, journal.Fail("list", "", err)
	}
	defer rows.Close()

	out := []journal.TradeRecord{}
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, journal.Fail("list", "", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, journal.Fail("list", "", err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, tradeID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trades WHERE id = $1`, tradeID)
	if err != nil {
		return journal.Fail("delete", tradeID, err)
	}
	if tag.RowsAffected() == 0 {
		return journal.Fail("delete", tradeID, journal.ErrNotFound)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func values(r *journal.TradeRecord) ([]any, error) {
	in, d := r.Input, r.Derived
	issues, err := journal.EncodeIssues(d.Issues)
	if err != nil {
		return nil, err
	}
	return []any{
		r.ID, r.UserID, r.AccountID, r.Date, string(r.Duration),
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

func nullDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func scanTrade(row pgx.Row) (*journal.TradeRecord, error) {
	var (
		rec                              journal.TradeRecord
		duration                         string
		entryDate, exitDate              *time.Time
		direction, status, mode, outcome string
		issues                           string
	)
	in, d := &rec.Input, &rec.Derived

	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.AccountID, &rec.Date, &duration, &entryDate, &exitDate,
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

	if entryDate != nil {
		rec.EntryDate = *entryDate
	}
	if exitDate != nil {
		rec.ExitDate = *exitDate
	}
	if d.Issues, err = journal.DecodeIssues(issues); err != nil {
		return nil, fmt.Errorf("trade %s: %w", rec.ID, err)
	}
	rec.Duration = journal.Duration(duration)
	in.Direction = risk.Direction(direction)
	in.Status = risk.Status(status)
	in.Risk.Mode = risk.Mode(mode)
	rec.Outcome = risk.Outcome(outcome)
	d.Symbol = in.Symbol
	return &rec, nil
}

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return journal.ErrNotFound
	}
	return err
}
