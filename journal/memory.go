package journal

import (
	"context"
	"sync"
	"time"

	"github.com/rustyeddy/tradelog/pkg/id"
)

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	trades map[string]TradeRecord
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		trades: make(map[string]TradeRecord),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Insert(ctx context.Context, r *TradeRecord) (*TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, Fail("insert", r.ID, err)
	}
	rec := *r
	if rec.ID == "" {
		rec.ID = id.New()
	}
	now := m.now()
	rec.CreatedAt, rec.UpdatedAt = now, now

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.trades[rec.ID]; dup {
		return nil, Fail("insert", rec.ID, ErrDuplicate)
	}
	m.trades[rec.ID] = rec
	return &rec, nil
}

func (m *Memory) Update(ctx context.Context, tradeID string, p Patch) (*TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, Fail("update", tradeID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.trades[tradeID]
	if !ok {
		return nil, Fail("update", tradeID, ErrNotFound)
	}
	p.Apply(&rec, m.now())
	m.trades[tradeID] = rec
	return &rec, nil
}

func (m *Memory) Get(ctx context.Context, tradeID string) (*TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, Fail("get", tradeID, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.trades[tradeID]
	if !ok {
		return nil, Fail("get", tradeID, ErrNotFound)
	}
	return &rec, nil
}

func (m *Memory) List(ctx context.Context, userID, accountID string) ([]TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, Fail("list", "", err)
	}
	m.mu.RLock()
	out := []TradeRecord{}
	for _, r := range m.trades {
		if r.UserID == userID && r.AccountID == accountID {
			out = append(out, r)
		}
	}
	m.mu.RUnlock()
	sortRecords(out)
	return out, nil
}

func (m *Memory) Delete(ctx context.Context, tradeID string) error {
	if err := ctx.Err(); err != nil {
		return Fail("delete", tradeID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trades[tradeID]; !ok {
		return Fail("delete", tradeID, ErrNotFound)
	}
	delete(m.trades, tradeID)
	return nil
}

func (m *Memory) Close() error { return nil }
