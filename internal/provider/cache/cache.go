package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stockquote/internal/provider"
	"stockquote/internal/quote"
)

// entry stores one cached quote with expiry.
type entry struct {
	expiresAt time.Time
	q         quote.Quote
}

// Provider caches quotes per symbol for a TTL. Concurrent refreshes of the
// same symbol are coalesced through singleflight so the upstream sees one
// fetch. TTL <= 0 disables caching entirely.
type Provider struct {
	P        provider.Provider
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry
	sf    singleflight.Group
}

func (c *Provider) Name() string { return c.P.Name() }

func (c *Provider) Quote(ctx context.Context, symbol string) (quote.Quote, error) {
	if c.P == nil || c.TTL <= 0 {
		return c.P.Quote(ctx, symbol)
	}

	now := time.Now()
	c.mu.RLock()
	e, ok := c.items[symbol]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.q, nil
	}

	v, err, _ := c.sf.Do(symbol, func() (any, error) {
		q, err := c.P.Quote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		c.store(symbol, q)
		return q, nil
	})
	if err != nil {
		// Serve a stale entry rather than failing entirely.
		if ok {
			return e.q, nil
		}
		return quote.Quote{}, err
	}
	return v.(quote.Quote), nil
}

func (c *Provider) store(symbol string, q quote.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[symbol] = entry{expiresAt: time.Now().Add(c.TTL), q: q}

	// best-effort cap cache size: remove expired first, then arbitrary
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		now := time.Now()
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
			if len(c.items) <= c.MaxItems {
				break
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			if k != symbol {
				delete(c.items, k)
			}
		}
	}
}
