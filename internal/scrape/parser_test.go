package scrape_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"stockquote/internal/quote"
	"stockquote/internal/scrape"
)

const samplePage = `<!DOCTYPE html><html><head>
<meta property="og:title" content="Apple Inc - Google Finance">
<title>Apple Inc Stock Price &amp; News - Google Finance</title>
</head><body>
<main data-last-price="227.52" data-currency-code="USD" data-market-status="CLOSED">
<div class="zzDege">Apple Inc</div>
<div class="YMlKec fxKbKc">$227.52</div>
<span class="P2Luy Ebnabc">+$3.25</span> <span>(+1.45%)</span>
<div class="mLLRPd">Previous close</div><div class="P6K39c">$224.27</div>
<div class="mLLRPd">Day range</div><div class="P6K39c">$225.77 - $228.87</div>
<div class="mLLRPd">Year range</div><div class="P6K39c">$164.08 - $237.23</div>
<div class="mLLRPd">Market cap</div><div class="P6K39c">3.46T USD</div>
<div class="mLLRPd">Avg Volume</div><div class="P6K39c">1.2M</div>
<div class="mLLRPd">P/E ratio</div><div class="P6K39c">34.62</div>
<div class="mLLRPd">Dividend yield</div><div class="P6K39c">0.44%</div>
</main></body></html>`

func TestParse_FullPage(t *testing.T) {
	t.Parallel()

	q, err := scrape.Parse(samplePage, "aapl:nasdaq")
	require.NoError(t, err)

	require.Equal(t, "AAPL:NASDAQ", q.Symbol)
	require.Equal(t, "Apple Inc", q.Name)
	require.InDelta(t, 227.52, q.Price, 1e-9)
	require.Equal(t, "USD", q.Currency)
	require.InDelta(t, 3.25, q.Change, 1e-9)
	require.InDelta(t, 1.45, q.ChangePercent, 1e-9)
	require.InDelta(t, 224.27, q.PreviousClose, 1e-9)
	require.Equal(t, quote.MarketClosed, q.MarketStatus)
	require.Equal(t, int64(1200000), q.Volume)
	require.Equal(t, "3.46T USD", q.MarketCap)
	require.InDelta(t, 225.77, q.DayLow, 1e-9)
	require.InDelta(t, 228.87, q.DayHigh, 1e-9)
	require.InDelta(t, 164.08, q.Low52Week, 1e-9)
	require.InDelta(t, 237.23, q.High52Week, 1e-9)
	require.InDelta(t, 34.62, q.PERatio, 1e-9)
	require.InDelta(t, 0.44, q.DividendYield, 1e-9)
	require.False(t, q.FetchedAt.IsZero())
}

func TestParse_PriceFromAttribute_DefaultsToUSD(t *testing.T) {
	t.Parallel()

	html := `<html><title>Some Company</title><div data-last-price="645.20"></div></html>`
	q, err := scrape.Parse(html, "SOME:NYSE")
	require.NoError(t, err)
	require.InDelta(t, 645.20, q.Price, 1e-9)
	require.Equal(t, "USD", q.Currency)
}

func TestParse_CurrencyFromSymbolPrefix(t *testing.T) {
	t.Parallel()

	html := `<html><title>Barclays PLC</title><div class="YMlKec fxKbKc">£645.20</div></html>`
	q, err := scrape.Parse(html, "BARC:LON")
	require.NoError(t, err)
	require.InDelta(t, 645.20, q.Price, 1e-9)
	require.Equal(t, "GBP", q.Currency)
}

func TestParse_CurrencySymbolTable(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"$":      "USD",
		"£": "GBP",
		"€": "EUR",
		"¥": "JPY",
		"₹": "INR",
	}
	for sym, want := range cases {
		html := `<html><title>Some Company</title><div class="YMlKec fxKbKc">` + sym + `123.45</div></html>`
		q, err := scrape.Parse(html, "SOME:NYSE")
		require.NoError(t, err)
		require.Equalf(t, want, q.Currency, "symbol %q", sym)
	}
}

func TestParse_NameSuffixStripping(t *testing.T) {
	t.Parallel()

	html := `<html><title>Tesla Inc Stock Price &amp; News - Google Finance</title>
<div data-last-price="242.84"></div></html>`
	q, err := scrape.Parse(html, "TSLA:NASDAQ")
	require.NoError(t, err)
	require.Equal(t, "Tesla Inc", q.Name)
}

func TestParse_MissingName_Fails(t *testing.T) {
	t.Parallel()

	html := `<html><body><div data-last-price="100.00"></div></body></html>`
	_, err := scrape.Parse(html, "SOME:NYSE")
	require.Error(t, err)

	var ee *quote.ExtractionError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "name", ee.Field)
}

func TestParse_MissingPrice_Fails(t *testing.T) {
	t.Parallel()

	html := `<html><title>Some Company</title><body>no numbers here</body></html>`
	_, err := scrape.Parse(html, "SOME:NYSE")
	require.Error(t, err)

	var ee *quote.ExtractionError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "price", ee.Field)
}

func TestParse_NonPositivePrice_NeverSucceeds(t *testing.T) {
	t.Parallel()

	// A zero price candidate must not win; with no other rule matching the
	// parse fails instead of returning an invalid quote.
	html := `<html><title>Some Company</title><script>{"price":0}</script></html>`
	_, err := scrape.Parse(html, "SOME:NYSE")
	require.Error(t, err)

	var ee *quote.ExtractionError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, "price", ee.Field)
}

func TestParse_MalformedSymbol_RejectedBeforeExtraction(t *testing.T) {
	t.Parallel()

	_, err := scrape.Parse(samplePage, "AAPL")
	require.ErrorIs(t, err, quote.ErrInvalidSymbol)
}

func TestParse_NegativeChange(t *testing.T) {
	t.Parallel()

	html := `<html><title>Some Company</title>
<div data-last-price="99.10"></div>
<span class="P2Luy">-$1.20</span> <span>(-1.20%)</span></html>`
	q, err := scrape.Parse(html, "SOME:NYSE")
	require.NoError(t, err)
	require.InDelta(t, -1.20, q.Change, 1e-9)
	require.InDelta(t, -1.20, q.ChangePercent, 1e-9)
}

func TestParse_UnknownMarketStatus(t *testing.T) {
	t.Parallel()

	html := `<html><title>Some Company</title><div data-last-price="10.00"></div></html>`
	q, err := scrape.Parse(html, "SOME:NYSE")
	require.NoError(t, err)
	require.Equal(t, quote.MarketUnknown, q.MarketStatus)
}

func TestParse_MarketStatusFromText(t *testing.T) {
	t.Parallel()

	html := `<html><title>Some Company</title><div data-last-price="10.00"></div>
<span>Pre-market</span></html>`
	q, err := scrape.Parse(html, "SOME:NYSE")
	require.NoError(t, err)
	require.Equal(t, quote.MarketPreMarket, q.MarketStatus)
}

func TestParseAbbrevNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want int64
	}{
		{"1.2M", 1200000},
		{"500K", 500000},
		{"3B", 3000000000},
		{"42", 42},
		{"1,234", 1234},
		{"2.5k", 2500},
	}
	for _, tc := range cases {
		got, err := scrape.ParseAbbrevNumber(tc.in)
		require.NoErrorf(t, err, "input %q", tc.in)
		require.Equalf(t, tc.want, got, "input %q", tc.in)
	}

	_, err := scrape.ParseAbbrevNumber("")
	require.Error(t, err)
	_, err = scrape.ParseAbbrevNumber("garbage")
	require.Error(t, err)
}

func TestParse_SecondaryFieldsOptional(t *testing.T) {
	t.Parallel()

	html := `<html><title>Some Company</title><div data-last-price="10.00"></div>
<div class="mLLRPd">Volume</div><div class="P6K39c">n/a</div></html>`
	q, err := scrape.Parse(html, "SOME:NYSE")
	require.NoError(t, err)
	require.Zero(t, q.Volume)
	require.Zero(t, q.PERatio)
	require.Empty(t, q.MarketCap)
}
