// journal/journal.go
package journal

import (
	"context"
	"sort"
	"time"

	"github.com/rustyeddy/tradelog/risk"
)

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

// Duration tells a trade closed the day it opened from one held overnight.
type Duration string

const (
	Day   Duration = "day"
	Swing Duration = "swing"
)

// TradeRecord is one persisted trade: the user's input, the derived fields
// frozen at save time, and metadata.
type TradeRecord struct {
	ID        string
	UserID    string
	AccountID string

	Date      time.Time
	Duration  Duration
	EntryDate time.Time
	ExitDate  time.Time // zero while open

	Input   risk.TradeInput
	Derived risk.Result
	Outcome risk.Outcome // empty while open

	Setup            string
	Notes            string
	BeforeScreenshot string
	AfterScreenshot  string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r TradeRecord) Closed() bool { return r.Input.Status == risk.Closed }

// PnL returns the realized P&L of a closed trade.
func (r TradeRecord) PnL() (float64, bool) {
	if !r.Closed() {
		return 0, false
	}
	return r.Derived.RealizedPnL.Get()
}

// Patch is a partial update. Trade replaces every user-editable field and
// the derived values; the screenshot pointers replace just those URLs.
type Patch struct {
	Trade            *TradeRecord
	BeforeScreenshot *string
	AfterScreenshot  *string
}

// Apply writes p onto r. Identity, ownership and CreatedAt never change.
func (p Patch) Apply(r *TradeRecord, now time.Time) {
	if p.Trade != nil {
		keep := *r
		*r = *p.Trade
		r.ID, r.UserID, r.AccountID, r.CreatedAt = keep.ID, keep.UserID, keep.AccountID, keep.CreatedAt
	}
	if p.BeforeScreenshot != nil {
		r.BeforeScreenshot = *p.BeforeScreenshot
	}
	if p.AfterScreenshot != nil {
		r.AfterScreenshot = *p.AfterScreenshot
	}
	r.UpdatedAt = now
}

// Store is the persistence collaborator. Every failure is a *StorageError;
// a missing id is one wrapping ErrNotFound.
type Store interface {
	// Insert assigns an ID when empty plus both timestamps and returns the
	// stored record.
	Insert(ctx context.Context, r *TradeRecord) (*TradeRecord, error)
	Update(ctx context.Context, id string, p Patch) (*TradeRecord, error)
	Get(ctx context.Context, id string) (*TradeRecord, error)
	// List returns every trade of one user's account ordered by date, then
	// id. It returns an empty slice, not an error, when there are none.
	List(ctx context.Context, userID, accountID string) ([]TradeRecord, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Between keeps the records dated within [from, to). A zero bound is open.
func Between(records []TradeRecord, from, to time.Time) []TradeRecord {
	out := make([]TradeRecord, 0, len(records))
	for _, r := range records {
		if !from.IsZero() && r.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !r.Date.Before(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Newest orders records newest first and keeps at most n (all when n <= 0).
func Newest(records []TradeRecord, n int) []TradeRecord {
	out := append([]TradeRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

func sortRecords(rs []TradeRecord) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Date.Equal(rs[j].Date) {
			return rs[i].Date.Before(rs[j].Date)
		}
		return rs[i].ID < rs[j].ID
	})
}
