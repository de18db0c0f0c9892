package scrape

import (
	"errors"
	"fmt"
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"stockquote/internal/metrics"
	"stockquote/internal/quote"
)

// Parse extracts a Quote from raw page HTML. Name and price are mandatory;
// everything else is best-effort and omitted silently when unparsable. The
// assembled record is validated before it is returned, so a quote violating
// the structural invariants never reaches the caller as success.
func Parse(rawHTML, symbol string) (quote.Quote, error) {
	canonical, err := quote.Normalize(symbol)
	if err != nil {
		return quote.Quote{}, err
	}

	name, ok := extractName(rawHTML)
	if !ok {
		metrics.ParseErrors.WithLabelValues("name").Inc()
		return quote.Quote{}, &quote.ExtractionError{Field: "name"}
	}

	price, currency, ok := extractPrice(rawHTML)
	if !ok {
		metrics.ParseErrors.WithLabelValues("price").Inc()
		return quote.Quote{}, &quote.ExtractionError{Field: "price"}
	}

	q := quote.Quote{
		Symbol:       canonical,
		Name:         name,
		Price:        price,
		Currency:     currency,
		MarketStatus: extractMarketStatus(rawHTML),
		FetchedAt:    time.Now().UTC(),
	}

	// Change fields default to zero when unmatched; they are not mandatory.
	if v, ok := firstNumber(changeRules, rawHTML); ok {
		q.Change = v
	}
	if v, ok := firstNumber(changePercentRules, rawHTML); ok {
		q.ChangePercent = v
	}

	// Secondary fields, each independently optional.
	if v, ok := firstNumber(prevCloseRules, rawHTML); ok && v > 0 {
		q.PreviousClose = v
	}
	if s, ok := firstString(volumeRules, rawHTML); ok {
		if n, err := ParseAbbrevNumber(s); err == nil && n >= 0 {
			q.Volume = n
		}
	}
	if s, ok := firstString(marketCapRules, rawHTML); ok {
		q.MarketCap = strings.TrimSpace(html.UnescapeString(s))
	}
	if v, ok := firstNumber(peRatioRules, rawHTML); ok && v > 0 {
		q.PERatio = v
	}
	if v, ok := firstNumber(divYieldRules, rawHTML); ok && v >= 0 {
		q.DividendYield = v
	}
	if lo, hi, ok := extractRange(dayRangeRules, rawHTML); ok {
		q.DayLow, q.DayHigh = lo, hi
	}
	if lo, hi, ok := extractRange(yearRangeRules, rawHTML); ok {
		q.Low52Week, q.High52Week = lo, hi
	}

	if err := q.Validate(); err != nil {
		var verr *quote.ValidationError
		if errors.As(err, &verr) {
			metrics.ParseErrors.WithLabelValues(verr.Field).Inc()
		}
		return quote.Quote{}, err
	}
	return q, nil
}

// extractName returns the first candidate longer than 2 characters after
// boilerplate suffixes are stripped.
func extractName(rawHTML string) (string, bool) {
	for _, re := range nameRules {
		m := re.FindStringSubmatch(rawHTML)
		if m == nil {
			continue
		}
		cand := strings.TrimSpace(html.UnescapeString(m[1]))
		for _, suffix := range nameSuffixRules {
			cand = suffix.ReplaceAllString(cand, "")
		}
		cand = strings.TrimSpace(cand)
		if len(cand) > 2 {
			return cand, true
		}
	}
	return "", false
}

// extractPrice returns the first positive price plus its currency code.
// A symbol captured by the winning rule takes precedence, then an explicit
// ISO code on the page, then the USD default.
func extractPrice(rawHTML string) (float64, string, bool) {
	for _, rule := range priceRules {
		m := rule.re.FindStringSubmatch(rawHTML)
		if m == nil {
			continue
		}
		v, err := parseNumber(m[rule.numIdx])
		if err != nil || v <= 0 {
			continue
		}
		currency := ""
		if rule.curIdx > 0 {
			currency = currencyFromSymbol(m[rule.curIdx])
		}
		if currency == "" {
			if cm := currencyCodeRule.FindStringSubmatch(rawHTML); cm != nil {
				currency = strings.ToUpper(cm[1])
			}
		}
		if currency == "" {
			currency = "USD"
		}
		return v, currency, true
	}
	return 0, "", false
}

func currencyFromSymbol(sym string) string {
	return currencySymbols[strings.TrimSpace(sym)]
}

func extractMarketStatus(rawHTML string) quote.MarketStatus {
	for _, re := range marketStatusRules {
		if m := re.FindStringSubmatch(rawHTML); m != nil {
			if st := quote.ParseMarketStatus(m[1]); st != quote.MarketUnknown {
				return st
			}
		}
	}
	return quote.MarketUnknown
}

// firstString returns the first submatch of the first matching rule.
func firstString(rules []*regexp.Regexp, rawHTML string) (string, bool) {
	for _, re := range rules {
		if m := re.FindStringSubmatch(rawHTML); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// firstNumber returns the first parsable numeric submatch.
func firstNumber(rules []*regexp.Regexp, rawHTML string) (float64, bool) {
	for _, re := range rules {
		m := re.FindStringSubmatch(rawHTML)
		if m == nil {
			continue
		}
		if v, err := parseNumber(m[1]); err == nil {
			return v, true
		}
	}
	return 0, false
}

func extractRange(rules []*regexp.Regexp, rawHTML string) (low, high float64, ok bool) {
	s, ok := firstString(rules, rawHTML)
	if !ok {
		return 0, 0, false
	}
	m := rangeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	lo, err1 := parseNumber(m[1])
	hi, err2 := parseNumber(m[2])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

// numberCleaner strips currency symbols, grouping commas, percent signs and
// whitespace, and normalizes the unicode minus.
var numberCleaner = strings.NewReplacer(
	"$", "", "£", "", "€", "", "¥", "", "₹", "",
	",", "", "%", "", " ", "", " ", "",
	"−", "-", "+", "",
)

func parseNumber(s string) (float64, error) {
	cleaned := numberCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// ParseAbbrevNumber expands a human-readable count with an optional K/M/B
// suffix into a raw value: K scales by 1e3, M by 1e6, B by 1e9, and a bare
// number is taken literally.
func ParseAbbrevNumber(s string) (int64, error) {
	cleaned := numberCleaner.Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0, fmt.Errorf("empty number")
	}
	mult := 1.0
	switch cleaned[len(cleaned)-1] {
	case 'K', 'k':
		mult = 1e3
		cleaned = cleaned[:len(cleaned)-1]
	case 'M', 'm':
		mult = 1e6
		cleaned = cleaned[:len(cleaned)-1]
	case 'B', 'b':
		mult = 1e9
		cleaned = cleaned[:len(cleaned)-1]
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(v * mult)), nil
}
