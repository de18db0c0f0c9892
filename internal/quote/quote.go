package quote

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MarketStatus is the trading session state extracted from the page.
type MarketStatus string

const (
	MarketOpen       MarketStatus = "OPEN"
	MarketClosed     MarketStatus = "CLOSED"
	MarketPreMarket  MarketStatus = "PRE_MARKET"
	MarketAfterHours MarketStatus = "AFTER_HOURS"
	MarketUnknown    MarketStatus = "UNKNOWN"
)

// ParseMarketStatus maps a scraped token onto the closed status set.
// Anything unrecognized resolves to UNKNOWN.
func ParseMarketStatus(s string) MarketStatus {
	t := strings.ToUpper(strings.TrimSpace(s))
	t = strings.NewReplacer("-", "_", " ", "_").Replace(t)
	switch t {
	case "OPEN", "MARKET_OPEN":
		return MarketOpen
	case "CLOSED", "MARKET_CLOSED":
		return MarketClosed
	case "PRE_MARKET", "PREMARKET":
		return MarketPreMarket
	case "AFTER_HOURS", "AFTERHOURS", "POST_MARKET":
		return MarketAfterHours
	default:
		return MarketUnknown
	}
}

// Quote is a point-in-time snapshot of a security's price and market metadata.
// Mandatory fields (symbol, name, price, currency) are enforced by Validate;
// everything else is best-effort and may be zero.
type Quote struct {
	Symbol        string       `json:"symbol" validate:"required,symbol"`
	Name          string       `json:"name" validate:"required"`
	Price         float64      `json:"price" validate:"required,price"`
	Currency      string       `json:"currency" validate:"required"`
	Change        float64      `json:"change"`
	ChangePercent float64      `json:"change_percent"`
	PreviousClose float64      `json:"previous_close,omitempty"`
	MarketStatus  MarketStatus `json:"market_status,omitempty"`
	Volume        int64        `json:"volume,omitempty"`
	MarketCap     string       `json:"market_cap,omitempty"`
	DayHigh       float64      `json:"day_high,omitempty"`
	DayLow        float64      `json:"day_low,omitempty"`
	High52Week    float64      `json:"high_52_week,omitempty"`
	Low52Week     float64      `json:"low_52_week,omitempty"`
	PERatio       float64      `json:"pe_ratio,omitempty"`
	DividendYield float64      `json:"dividend_yield,omitempty"`
	FetchedAt     time.Time    `json:"fetched_at"`
}

// symbolPattern accepts the canonical SYMBOL:EXCHANGE form: letters, digits,
// hyphen and dot before the colon, letters after it.
var symbolPattern = regexp.MustCompile(`^[A-Za-z0-9.\-]+:[A-Za-z]+$`)

// ValidSymbol reports whether s is a well-formed SYMBOL:EXCHANGE pair.
func ValidSymbol(s string) bool {
	return symbolPattern.MatchString(s)
}

// FormatSymbol builds the canonical uppercase SYMBOL:EXCHANGE form.
func FormatSymbol(ticker, exchange string) string {
	return strings.ToUpper(strings.TrimSpace(ticker)) + ":" + strings.ToUpper(strings.TrimSpace(exchange))
}

// SplitSymbol parses a SYMBOL:EXCHANGE pair, case-insensitive on input.
// Malformed input (missing or extra colon, bad characters) is rejected here,
// before any network call happens.
func SplitSymbol(s string) (ticker, exchange string, err error) {
	s = strings.TrimSpace(s)
	if !ValidSymbol(s) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	parts := strings.SplitN(s, ":", 2)
	return strings.ToUpper(parts[0]), strings.ToUpper(parts[1]), nil
}

// Normalize returns the canonical uppercase form of a symbol, or an error if
// the input is malformed.
func Normalize(s string) (string, error) {
	ticker, exchange, err := SplitSymbol(s)
	if err != nil {
		return "", err
	}
	return FormatSymbol(ticker, exchange), nil
}
