package stats

import (
	"sync"
	"time"
)

// Loader fetches the entries of one account.
type Loader func() ([]Entry, error)

type monthKey struct {
	account string
	year    int
	month   time.Month
	capital float64
}

type yearKey struct {
	account string
	year    int
	capital float64
}

// Cache memoizes month and year aggregates per account. Writers must call
// Invalidate after every change to an account's trades.
type Cache struct {
	mu     sync.Mutex
	months map[monthKey]MonthAggregate
	years  map[yearKey]YearAggregate
	gen    map[string]uint64 // bumped by Invalidate
}

func NewCache() *Cache {
	return &Cache{
		months: make(map[monthKey]MonthAggregate),
		years:  make(map[yearKey]YearAggregate),
		gen:    make(map[string]uint64),
	}
}

// Month returns the cached aggregate or computes it from load. Loader errors
// are returned and nothing is cached. A result computed while the account
// was invalidated is returned but not cached.
func (c *Cache) Month(account string, year int, month time.Month, capital float64, load Loader) (MonthAggregate, error) {
	k := monthKey{account, year, month, capital}

	c.mu.Lock()
	if m, ok := c.months[k]; ok {
		c.mu.Unlock()
		return m.clone(), nil
	}
	gen := c.gen[account]
	c.mu.Unlock()

	entries, err := load()
	if err != nil {
		return MonthAggregate{}, err
	}
	m := Month(year, month, entries, capital)

	c.mu.Lock()
	if c.gen[account] == gen {
		c.months[k] = m
	}
	c.mu.Unlock()
	return m.clone(), nil
}

func (c *Cache) Year(account string, year int, capital float64, load Loader) (YearAggregate, error) {
	k := yearKey{account, year, capital}

	c.mu.Lock()
	if y, ok := c.years[k]; ok {
		c.mu.Unlock()
		return y.clone(), nil
	}
	gen := c.gen[account]
	c.mu.Unlock()

	entries, err := load()
	if err != nil {
		return YearAggregate{}, err
	}
	y := Year(year, entries, capital)

	c.mu.Lock()
	if c.gen[account] == gen {
		c.years[k] = y
	}
	c.mu.Unlock()
	return y.clone(), nil
}

// Invalidate drops every aggregate of account.
func (c *Cache) Invalidate(account string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[account]++
	for k := range c.months {
		if k.account == account {
			delete(c.months, k)
		}
	}
	for k := range c.years {
		if k.account == account {
			delete(c.years, k)
		}
	}
}
