// journal/schema.go
package journal

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/tradelog/risk"
)

// Dates are TEXT (YYYY-MM-DD) so the driver does not turn them into
// timestamps; created_at and updated_at are DATETIME and scan as time.Time.
const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	account_id TEXT NOT NULL,
	trade_date TEXT NOT NULL,
	duration TEXT NOT NULL,
	entry_date TEXT,
	exit_date TEXT,

	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	status TEXT NOT NULL,
	entry_price REAL,
	exit_price REAL,
	stop_loss REAL,
	take_profit REAL,
	risk_mode TEXT NOT NULL,
	risk_value REAL NOT NULL,
	capital REAL NOT NULL,

	pip_value_per_lot REAL,
	stop_loss_pips REAL,
	take_profit_pips REAL,
	lot_size REAL,
	risk_money REAL,
	projected_at_tp REAL,
	projected_at_sl REAL,
	reward_risk REAL,
	realized_pips REAL,
	realized_pnl REAL,
	outcome TEXT NOT NULL DEFAULT '',
	issues TEXT NOT NULL DEFAULT '',

	setup TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	before_screenshot TEXT NOT NULL DEFAULT '',
	after_screenshot TEXT NOT NULL DEFAULT '',

	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_owner ON trades(user_id, account_id, trade_date);
`

// columns is the select and insert order shared by the SQL stores.
const columns = `id, user_id, account_id, trade_date, duration, entry_date, exit_date,
	symbol, direction, status, entry_price, exit_price, stop_loss, take_profit,
	risk_mode, risk_value, capital,
	pip_value_per_lot, stop_loss_pips, take_profit_pips, lot_size, risk_money,
	projected_at_tp, projected_at_sl, reward_risk, realized_pips, realized_pnl, outcome, issues,
	setup, notes, before_screenshot, after_screenshot,
	created_at, updated_at`

// Columns returns the column list in scan order.
func Columns() string { return columns }

// EncodeIssues renders calculator issues as the JSON stored in the issues
// column. No issues is the empty string.
func EncodeIssues(issues []risk.Issue) (string, error) {
	if len(issues) == 0 {
		return "", nil
	}
	b, err := json.Marshal(issues)
	if err != nil {
		return "", fmt.Errorf("encode issues: %w", err)
	}
	return string(b), nil
}

// DecodeIssues reverses EncodeIssues.
func DecodeIssues(s string) ([]risk.Issue, error) {
	if s == "" {
		return nil, nil
	}
	var out []risk.Issue
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return out, nil
}
