package scrape

import "regexp"

// Extraction works off ordered pattern lists: the first match satisfying the
// field's semantic constraint wins. The patterns mirror markup observed on
// quote pages and are heuristic by nature; htmldump exists to recalibrate
// them when the upstream layout shifts.

var nameRules = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<meta[^>]+property="og:title"[^>]+content="([^"]+)"`),
	regexp.MustCompile(`(?is)<title[^>]*>([^<]+)</title>`),
	regexp.MustCompile(`(?is)<h1[^>]*>([^<]+)</h1>`),
	regexp.MustCompile(`(?is)<div[^>]+class="[^"]*zzDege[^"]*"[^>]*>([^<]+)<`),
}

// nameSuffixRules strip site boilerplate trailing the company name.
var nameSuffixRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[-\x{2013}]\s*Google Finance\s*$`),
	regexp.MustCompile(`(?i)\s+Stock Price.*$`),
	regexp.MustCompile(`(?i)\s+Share Price.*$`),
}

// priceRule captures an optional currency marker and the numeric text.
type priceRule struct {
	re     *regexp.Regexp
	curIdx int // submatch holding a currency symbol, 0 when the rule has none
	numIdx int // submatch holding the numeric text
}

var priceRules = []priceRule{
	// structured attribute
	{re: regexp.MustCompile(`(?i)data-last-price="([0-9][0-9,]*\.?[0-9]*)"`), numIdx: 1},
	// styled price element
	{re: regexp.MustCompile(`(?is)class="YMlKec fxKbKc"[^>]*>\s*([^0-9\s<]*)\s*([0-9][0-9,]*\.?[0-9]*)\s*<`), curIdx: 1, numIdx: 2},
	// embedded JSON blob
	{re: regexp.MustCompile(`(?i)"price"\s*:\s*"?([0-9][0-9,]*\.?[0-9]*)"?`), numIdx: 1},
	// number trailed by a price label
	{re: regexp.MustCompile(`(?is)([$\x{00A3}\x{20AC}\x{00A5}\x{20B9}])?\s*([0-9][0-9,]*\.?[0-9]*)\s*(?:</[^>]+>\s*)*(?:current|last)\s+price`), curIdx: 1, numIdx: 2},
}

// currencyCodeRule pulls an explicit ISO code when the page carries one.
var currencyCodeRule = regexp.MustCompile(`(?i)data-currency-code="([A-Za-z]{3})"`)

// currencySymbols is the fixed symbol-to-code table; unmapped symbols fall
// back to USD.
var currencySymbols = map[string]string{
	"$":      "USD",
	"£": "GBP",
	"€": "EUR",
	"¥": "JPY",
	"₹": "INR",
}

var changeRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)data-last-normal-market-change="(-?[0-9][0-9,]*\.?[0-9]*)"`),
	regexp.MustCompile(`(?is)class="[^"]*P2Luy[^"]*"[^>]*>\s*([+\-\x{2212}]?[$\x{00A3}\x{20AC}\x{00A5}\x{20B9}]?[0-9][0-9,]*\.?[0-9]*)`),
	regexp.MustCompile(`(?i)"change"\s*:\s*(-?[0-9][0-9.]*)`),
}

var changePercentRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)data-last-change-percent="(-?[0-9][0-9,]*\.?[0-9]*)"`),
	regexp.MustCompile(`\(([-+\x{2212}]?[0-9][0-9,]*\.?[0-9]*)%\)`),
	regexp.MustCompile(`(?i)"changePercent"\s*:\s*(-?[0-9][0-9.]*)`),
}

// marketStatusRules capture a token resolved through quote.ParseMarketStatus.
var marketStatusRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)data-market-status="([a-z_\- ]+)"`),
	regexp.MustCompile(`(?i)\b(pre[\- ]?market|after[\- ]?hours)\b`),
	regexp.MustCompile(`(?i)market\s+(open|closed)`),
}

// labeledRule matches a stat row: the label followed by its styled value.
func labeledRule(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?is)>` + label + `<.{0,600}?class="P6K39c[^"]*"[^>]*>([^<]+)<`)
}

var (
	prevCloseRules = []*regexp.Regexp{
		labeledRule(`Previous close`),
		regexp.MustCompile(`(?i)"previousClose"\s*:\s*"?([0-9][0-9,]*\.?[0-9]*)"?`),
	}
	volumeRules = []*regexp.Regexp{
		labeledRule(`(?:Avg )?[Vv]olume`),
		regexp.MustCompile(`(?i)"volume"\s*:\s*"?([0-9][0-9,.]*\s?[KMB]?)"?`),
	}
	marketCapRules = []*regexp.Regexp{
		labeledRule(`Market cap`),
		regexp.MustCompile(`(?i)"marketCap"\s*:\s*"?([0-9][0-9,.]*\s?[KMBT]?[^",<]*)"?`),
	}
	peRatioRules = []*regexp.Regexp{
		labeledRule(`P/E ratio`),
		regexp.MustCompile(`(?i)"peRatio"\s*:\s*"?([0-9][0-9,]*\.?[0-9]*)"?`),
	}
	divYieldRules = []*regexp.Regexp{
		labeledRule(`Dividend yield`),
		regexp.MustCompile(`(?i)"dividendYield"\s*:\s*"?([0-9][0-9,]*\.?[0-9]*)"?`),
	}
	dayRangeRules = []*regexp.Regexp{
		labeledRule(`Day range`),
	}
	yearRangeRules = []*regexp.Regexp{
		labeledRule(`Year range`),
	}
)

// rangeRe splits a "low - high" pair once currency symbols are ignored.
var rangeRe = regexp.MustCompile(`([0-9][0-9,]*\.?[0-9]*)\s*[-\x{2013}]\s*[^0-9]*([0-9][0-9,]*\.?[0-9]*)`)
