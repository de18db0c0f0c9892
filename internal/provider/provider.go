package provider

import (
	"context"

	"stockquote/internal/quote"
)

// Provider resolves a symbol to a point-in-time quote.
type Provider interface {
	Name() string
	Quote(ctx context.Context, symbol string) (quote.Quote, error)
}
