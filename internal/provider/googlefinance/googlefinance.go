package googlefinance

import (
	"context"
	"net/url"

	"stockquote/internal/fetch"
	"stockquote/internal/quote"
	"stockquote/internal/scrape"
)

type Config struct {
	Name    string
	BaseURL string
}

// Provider scrapes quotes from Google Finance pages: symbol validation,
// URL resolution, fetch (with proxy fallback) and HTML extraction compose
// linearly with no shared state per request.
type Provider struct {
	cfg     Config
	fetcher *fetch.Fetcher
}

func New(cfg Config, f *fetch.Fetcher) *Provider {
	if cfg.Name == "" { cfg.Name = "GoogleFinance" }
	if cfg.BaseURL == "" { cfg.BaseURL = "https://www.google.com/finance/quote/" }
	return &Provider{cfg: cfg, fetcher: f}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Quote fetches and parses a single quote. The symbol is validated before
// any network call is made.
func (p *Provider) Quote(ctx context.Context, symbol string) (quote.Quote, error) {
	canonical, err := quote.Normalize(symbol)
	if err != nil {
		return quote.Quote{}, err
	}
	html, err := p.fetcher.Fetch(ctx, p.cfg.BaseURL+url.PathEscape(canonical))
	if err != nil {
		return quote.Quote{}, err
	}
	return scrape.Parse(html, canonical)
}
